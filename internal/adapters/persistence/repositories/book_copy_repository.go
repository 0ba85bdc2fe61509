package repositories

import (
	"context"

	"libralend/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// bookCopyRepository implements BookCopyRepository interface
type bookCopyRepository struct {
	db *gorm.DB
}

// NewBookCopyRepository creates a new book copy repository
func NewBookCopyRepository(db *gorm.DB) BookCopyRepository {
	return &bookCopyRepository{db: db}
}

// Create creates a new book copy
func (r *bookCopyRepository) Create(ctx context.Context, copy *models.BookCopy) error {
	return r.db.WithContext(ctx).Create(copy).Error
}

// GetByID gets a book copy by ID
func (r *bookCopyRepository) GetByID(ctx context.Context, id uint) (*models.BookCopy, error) {
	var copy models.BookCopy
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&copy).Error
	if err != nil {
		return nil, err
	}
	return &copy, nil
}

// ListByBook lists all copies of a book
func (r *bookCopyRepository) ListByBook(ctx context.Context, bookID uint) ([]*models.BookCopy, error) {
	var copies []*models.BookCopy
	err := r.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("id ASC").
		Find(&copies).Error
	return copies, err
}

// GetAvailableForBook returns one copy of the book that has no open loan,
// or gorm.ErrRecordNotFound when every copy is out. The open-loan unique
// index remains the authority under concurrent allocation.
func (r *bookCopyRepository) GetAvailableForBook(ctx context.Context, bookID uint) (*models.BookCopy, error) {
	openLoans := r.db.Model(&models.Loan{}).
		Select("copy_id").
		Where("returned_at IS NULL")

	var copy models.BookCopy
	err := r.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Where("id NOT IN (?)", openLoans).
		First(&copy).Error
	if err != nil {
		return nil, err
	}
	return &copy, nil
}
