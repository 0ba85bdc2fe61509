package repositories

import (
	"context"
	"time"

	"libralend/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// loanRepository implements LoanRepository interface
type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

// Create inserts a new loan row. A duplicate-key error on the open-loan
// index surfaces as gorm.ErrDuplicatedKey (error translation is enabled
// on the connection) and means the copy was allocated concurrently.
func (r *loanRepository) Create(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

// GetByID gets a loan by ID
func (r *loanRepository) GetByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&loan).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// CountActiveByUser counts the user's open loans
func (r *loanRepository) CountActiveByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("user_id = ? AND returned_at IS NULL", userID).
		Count(&count).Error
	return count, err
}

// ListByUser lists all loans of a user
func (r *loanRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Loan, error) {
	var loans []*models.Loan
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&loans).Error
	return loans, err
}

// ListActive lists open loans ordered by due date then id for stable
// offset-based pagination
func (r *loanRepository) ListActive(ctx context.Context, offset, limit int) ([]*models.Loan, error) {
	var loans []*models.Loan
	err := r.db.WithContext(ctx).
		Where("returned_at IS NULL").
		Order("due_to ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&loans).Error
	return loans, err
}

// ListOverdue lists open loans past their due date, same ordering as
// ListActive
func (r *loanRepository) ListOverdue(ctx context.Context, now time.Time, offset, limit int) ([]*models.Loan, error) {
	var loans []*models.Loan
	err := r.db.WithContext(ctx).
		Where("returned_at IS NULL AND due_to < ?", now).
		Order("due_to ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&loans).Error
	return loans, err
}

// FinishLoan persists returned_at and fine_cents with a compare-and-swap
// on the version read into loan, clearing the open marker so the copy
// becomes lendable again. Zero matched rows means a concurrent writer got
// there first.
func (r *loanRepository) FinishLoan(ctx context.Context, loan *models.Loan) error {
	res := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("id = ? AND version = ?", loan.ID, loan.Version).
		Updates(map[string]any{
			"returned_at": loan.ReturnedAt,
			"fine_cents":  loan.FineCents,
			"open":        nil,
			"version":     loan.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionMismatch
	}

	loan.Version++
	loan.Open = nil
	return nil
}
