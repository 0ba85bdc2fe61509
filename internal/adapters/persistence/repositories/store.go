package repositories

import (
	"context"

	"gorm.io/gorm"
)

// gormStore implements Store on top of a *gorm.DB
type gormStore struct {
	db *gorm.DB
	gormRepos
}

// gormRepos binds the repositories to one database handle, either the
// shared pool or a running transaction.
type gormRepos struct {
	users  UserRepository
	books  BookRepository
	copies BookCopyRepository
	loans  LoanRepository
}

// NewStore creates a new store over the shared connection pool
func NewStore(db *gorm.DB) Store {
	return &gormStore{
		db:        db,
		gormRepos: newGormRepos(db),
	}
}

func newGormRepos(db *gorm.DB) gormRepos {
	return gormRepos{
		users:  NewUserRepository(db),
		books:  NewBookRepository(db),
		copies: NewBookCopyRepository(db),
		loans:  NewLoanRepository(db),
	}
}

func (r gormRepos) Users() UserRepository      { return r.users }
func (r gormRepos) Books() BookRepository      { return r.books }
func (r gormRepos) Copies() BookCopyRepository { return r.copies }
func (r gormRepos) Loans() LoanRepository      { return r.loans }

// InTransaction runs fn with repositories bound to a single transaction.
// GORM commits when fn returns nil and rolls back otherwise, including
// when the caller's context is cancelled mid-flight.
func (s *gormStore) InTransaction(ctx context.Context, fn func(tx Repos) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newGormRepos(tx))
	})
}
