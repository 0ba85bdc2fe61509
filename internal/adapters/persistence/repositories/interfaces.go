package repositories

import (
	"context"
	"errors"
	"time"

	"libralend/internal/adapters/persistence/models"
)

// ErrVersionMismatch is returned by FinishLoan when the loan row was
// modified between read and save (optimistic concurrency token mismatch).
var ErrVersionMismatch = errors.New("loan version mismatch")

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	// GetByIDForUpdate loads the user row under an exclusive row lock held
	// until the surrounding transaction ends. It serializes concurrent
	// loan-creation attempts by the same user.
	GetByIDForUpdate(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Exists(ctx context.Context, id uint) (bool, error)
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
}

// BookRepository defines book repository interface
type BookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	GetByID(ctx context.Context, id uint) (*models.Book, error)
	Exists(ctx context.Context, id uint) (bool, error)
	List(ctx context.Context, offset, limit int) ([]*models.Book, int64, error)
}

// BookCopyRepository defines book copy repository interface
type BookCopyRepository interface {
	Create(ctx context.Context, copy *models.BookCopy) error
	GetByID(ctx context.Context, id uint) (*models.BookCopy, error)
	ListByBook(ctx context.Context, bookID uint) ([]*models.BookCopy, error)
	// GetAvailableForBook returns one copy of the book not referenced by an
	// open loan. This is a fast-path check only; the unique index on open
	// loans is the authority under concurrent allocation.
	GetAvailableForBook(ctx context.Context, bookID uint) (*models.BookCopy, error)
}

// LoanRepository defines loan repository interface
type LoanRepository interface {
	Create(ctx context.Context, loan *models.Loan) error
	GetByID(ctx context.Context, id uint) (*models.Loan, error)
	CountActiveByUser(ctx context.Context, userID uint) (int64, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Loan, error)
	ListActive(ctx context.Context, offset, limit int) ([]*models.Loan, error)
	ListOverdue(ctx context.Context, now time.Time, offset, limit int) ([]*models.Loan, error)
	// FinishLoan persists returned_at/fine_cents with a compare-and-swap on
	// the version read into loan. Returns ErrVersionMismatch when zero rows
	// match. On success the in-memory loan is bumped to the stored version.
	FinishLoan(ctx context.Context, loan *models.Loan) error
}

// Repos bundles the repositories bound to one database handle
type Repos interface {
	Users() UserRepository
	Books() BookRepository
	Copies() BookCopyRepository
	Loans() LoanRepository
}

// Store is Repos over the shared connection pool plus transactional
// execution. InTransaction runs fn against repositories bound to a single
// transaction: every step commits or none do, and the transaction rolls
// back when fn errors or ctx is cancelled.
type Store interface {
	Repos
	InTransaction(ctx context.Context, fn func(tx Repos) error) error
}
