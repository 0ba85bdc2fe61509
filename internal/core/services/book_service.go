package services

import (
	"context"
	"errors"

	"libralend/internal/adapters/persistence/models"
	"libralend/internal/adapters/persistence/repositories"
	"libralend/internal/core/domain"

	"gorm.io/gorm"
)

// BookCache is a best-effort read-through cache for book metadata. It is
// never consulted for availability or limit checks; those always read
// current store state inside the transaction.
type BookCache interface {
	Get(ctx context.Context, bookID uint) (*models.Book, bool)
	Set(ctx context.Context, book *models.Book)
}

// BookService handles the book catalog: titles and physical copies
type BookService struct {
	store repositories.Store
	cache BookCache
}

// NewBookService creates a new book service
func NewBookService(store repositories.Store, cache BookCache) *BookService {
	return &BookService{
		store: store,
		cache: cache,
	}
}

// CreateBookInput represents create book input
type CreateBookInput struct {
	Title  string  `json:"title"`
	Author string  `json:"author"`
	ISBN   *string `json:"isbn,omitempty"`
}

// Create creates a new book title
func (s *BookService) Create(ctx context.Context, input *CreateBookInput) (*models.Book, error) {
	book := &models.Book{
		Title:  input.Title,
		Author: input.Author,
		ISBN:   input.ISBN,
	}

	if err := s.store.Books().Create(ctx, book); err != nil {
		return nil, err
	}

	s.cache.Set(ctx, book)
	return book, nil
}

// GetByID gets a book, serving repeated reads from the cache
func (s *BookService) GetByID(ctx context.Context, id uint) (*models.Book, error) {
	if book, ok := s.cache.Get(ctx, id); ok {
		return book, nil
	}

	book, err := s.store.Books().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.BookNotFound(id)
		}
		return nil, err
	}

	s.cache.Set(ctx, book)
	return book, nil
}

// List lists books with pagination
func (s *BookService) List(ctx context.Context, offset, limit int) ([]*models.Book, int64, error) {
	return s.store.Books().List(ctx, offset, limit)
}

// AddCopy registers a new physical copy of an existing book
func (s *BookService) AddCopy(ctx context.Context, bookID uint) (*models.BookCopy, error) {
	exists, err := s.store.Books().Exists(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.BookNotFound(bookID)
	}

	copy := &models.BookCopy{BookID: bookID}
	if err := s.store.Copies().Create(ctx, copy); err != nil {
		return nil, err
	}

	return copy, nil
}

// ListCopies lists the physical copies of a book
func (s *BookService) ListCopies(ctx context.Context, bookID uint) ([]*models.BookCopy, error) {
	exists, err := s.store.Books().Exists(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.BookNotFound(bookID)
	}

	return s.store.Copies().ListByBook(ctx, bookID)
}
