package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Stable error codes exposed to API clients. Callers match on these,
// not on message text.
const (
	CodeUserNotFound               = "user_not_found"
	CodeBookNotFound               = "book_not_found"
	CodeLoanNotFound               = "loan_not_found"
	CodeEmailAlreadyRegistered     = "email_already_registered"
	CodeNoCopiesAvailable          = "no_copies_available"
	CodeMaxActiveLoansExceeded     = "max_active_loans_exceeded"
	CodeLoanAlreadyReturned        = "loan_already_returned"
	CodeLoanConcurrentModification = "loan_concurrent_modification"
)

// Error is a domain-level, recoverable-by-caller error. It carries a
// stable code and a structured context map (e.g. {user_id, active}).
type Error struct {
	Code    string
	Context map[string]any
}

func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return e.Code
	}

	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, e.Context[k]))
	}
	return e.Code + " (" + strings.Join(parts, ", ") + ")"
}

// Is matches two domain errors by code, so sentinel checks like
// errors.Is(err, domain.UserNotFound(0)) work regardless of context.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NotFound reports whether the error is one of the not-found kinds
func (e *Error) NotFound() bool {
	switch e.Code {
	case CodeUserNotFound, CodeBookNotFound, CodeLoanNotFound:
		return true
	}
	return false
}

// Conflict reports whether the error is one of the conflict kinds
func (e *Error) Conflict() bool {
	switch e.Code {
	case CodeEmailAlreadyRegistered, CodeNoCopiesAvailable,
		CodeMaxActiveLoansExceeded, CodeLoanAlreadyReturned,
		CodeLoanConcurrentModification:
		return true
	}
	return false
}

// AsDomain unwraps err into a domain Error, or nil if it is not one
func AsDomain(err error) *Error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return nil
}

func UserNotFound(userID uint) *Error {
	return &Error{Code: CodeUserNotFound, Context: map[string]any{"user_id": userID}}
}

func BookNotFound(bookID uint) *Error {
	return &Error{Code: CodeBookNotFound, Context: map[string]any{"book_id": bookID}}
}

func LoanNotFound(loanID uint) *Error {
	return &Error{Code: CodeLoanNotFound, Context: map[string]any{"loan_id": loanID}}
}

func EmailAlreadyRegistered(email string) *Error {
	return &Error{Code: CodeEmailAlreadyRegistered, Context: map[string]any{"email": email}}
}

func NoCopiesAvailable(bookID uint) *Error {
	return &Error{Code: CodeNoCopiesAvailable, Context: map[string]any{"book_id": bookID}}
}

func MaxActiveLoansExceeded(userID uint, active int64) *Error {
	return &Error{Code: CodeMaxActiveLoansExceeded, Context: map[string]any{"user_id": userID, "active": active}}
}

func LoanAlreadyReturned(loanID uint) *Error {
	return &Error{Code: CodeLoanAlreadyReturned, Context: map[string]any{"loan_id": loanID}}
}

func LoanConcurrentModification(loanID uint) *Error {
	return &Error{Code: CodeLoanConcurrentModification, Context: map[string]any{"loan_id": loanID}}
}
