package services

import (
	"context"
	"errors"
	"time"

	"libralend/internal/adapters/persistence/models"
	"libralend/internal/adapters/persistence/repositories"
	"libralend/internal/core/domain"

	"gorm.io/gorm"
)

// LoanPolicy holds the lending rules
type LoanPolicy struct {
	LoanDays       int
	MaxActiveLoans int64
	DailyFineCents int64
}

// DefaultLoanPolicy returns the standard lending rules
func DefaultLoanPolicy() LoanPolicy {
	return LoanPolicy{
		LoanDays:       14,
		MaxActiveLoans: 3,
		DailyFineCents: 200,
	}
}

// LoanService handles the loan lifecycle: creation with limit and
// availability checks, fulfillment with fine computation, and the read
// paths. Every multi-step sequence runs in a single store transaction.
type LoanService struct {
	store  repositories.Store
	policy LoanPolicy
}

// NewLoanService creates a new loan service
func NewLoanService(store repositories.Store, policy LoanPolicy) *LoanService {
	return &LoanService{
		store:  store,
		policy: policy,
	}
}

// Create lends one copy of the book to the user. The user row is locked
// for the duration of the transaction so concurrent creation attempts by
// the same user observe each other's loans. The open-loan unique index is
// the authority for copy allocation: losing that race surfaces as
// no_copies_available even when the availability fast-path succeeded.
func (s *LoanService) Create(ctx context.Context, userID, bookID uint) (*models.Loan, error) {
	var created *models.Loan

	err := s.store.InTransaction(ctx, func(tx repositories.Repos) error {
		bookExists, err := tx.Books().Exists(ctx, bookID)
		if err != nil {
			return err
		}
		if !bookExists {
			return domain.BookNotFound(bookID)
		}

		// Lock first, count second. Two requests both seeing
		// count = max-1 is exactly what the lock prevents.
		if _, err := tx.Users().GetByIDForUpdate(ctx, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.UserNotFound(userID)
			}
			return err
		}

		active, err := tx.Loans().CountActiveByUser(ctx, userID)
		if err != nil {
			return err
		}
		if active >= s.policy.MaxActiveLoans {
			return domain.MaxActiveLoansExceeded(userID, active)
		}

		copy, err := tx.Copies().GetAvailableForBook(ctx, bookID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NoCopiesAvailable(bookID)
			}
			return err
		}

		now := time.Now().UTC()
		loan := &models.Loan{
			UserID:   userID,
			CopyID:   copy.ID,
			LoanedAt: now,
			DueTo:    now.AddDate(0, 0, s.policy.LoanDays),
			Open:     models.NewOpenMarker(),
			Version:  1,
		}

		if err := tx.Loans().Create(ctx, loan); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Lost the allocation race for the last copy.
				return domain.NoCopiesAvailable(bookID)
			}
			return err
		}

		created = loan
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// Fulfill returns a loan, computing the overdue fine. The save compares
// and swaps the version token read here, so a concurrent return of the
// same loan fails with loan_concurrent_modification instead of silently
// overwriting.
func (s *LoanService) Fulfill(ctx context.Context, loanID uint) (*models.Loan, error) {
	var fulfilled *models.Loan

	err := s.store.InTransaction(ctx, func(tx repositories.Repos) error {
		loan, err := tx.Loans().GetByID(ctx, loanID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.LoanNotFound(loanID)
			}
			return err
		}
		if loan.IsReturned() {
			return domain.LoanAlreadyReturned(loanID)
		}

		now := time.Now().UTC()
		loan.ReturnedAt = &now

		if now.After(loan.DueTo) {
			daysLate := calendarDaysBetween(loan.DueTo, now)
			loan.FineCents = int64(daysLate) * s.policy.DailyFineCents
		}

		if err := tx.Loans().FinishLoan(ctx, loan); err != nil {
			if errors.Is(err, repositories.ErrVersionMismatch) {
				return domain.LoanConcurrentModification(loanID)
			}
			return err
		}

		fulfilled = loan
		return nil
	})
	if err != nil {
		return nil, err
	}

	return fulfilled, nil
}

// ListByUser lists all loans of a user, open and returned
func (s *LoanService) ListByUser(ctx context.Context, userID uint) ([]*models.Loan, error) {
	exists, err := s.store.Users().Exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.UserNotFound(userID)
	}

	return s.store.Loans().ListByUser(ctx, userID)
}

// ListActive lists open loans ordered by due date then id
func (s *LoanService) ListActive(ctx context.Context, offset, limit int) ([]*models.Loan, error) {
	return s.store.Loans().ListActive(ctx, offset, limit)
}

// ListOverdue lists open loans past their due date
func (s *LoanService) ListOverdue(ctx context.Context, offset, limit int) ([]*models.Loan, error) {
	return s.store.Loans().ListOverdue(ctx, time.Now().UTC(), offset, limit)
}

// calendarDaysBetween returns the whole-day difference between the
// calendar dates of from and to (not elapsed time). A return at 00:05 the
// day after the due date counts one day late no matter the due time.
func calendarDaysBetween(from, to time.Time) int {
	f := from.UTC()
	t := to.UTC()

	fromDate := time.Date(f.Year(), f.Month(), f.Day(), 0, 0, 0, 0, time.UTC)
	toDate := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)

	return int(toDate.Sub(fromDate) / (24 * time.Hour))
}
