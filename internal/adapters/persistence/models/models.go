package models

import (
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Library Tables
// ============================================================

// User represents users table
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// Book represents books table. A book is a title, not a physical item.
type Book struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:200;not null;index" json:"title"`
	Author    string    `gorm:"size:200;not null" json:"author"`
	ISBN      *string   `gorm:"size:20;uniqueIndex" json:"isbn,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Copies []BookCopy `gorm:"foreignKey:BookID" json:"copies,omitempty"`
}

func (Book) TableName() string {
	return "books"
}

// BookCopy represents book_copies table. The copy is the unit of lending.
// Book deletion is restricted while copies exist.
type BookCopy struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BookID     uint      `gorm:"not null;index;constraint:OnDelete:RESTRICT" json:"book_id"`
	AcquiredAt time.Time `gorm:"autoCreateTime" json:"acquired_at"`

	Book *Book `gorm:"foreignKey:BookID;constraint:OnDelete:RESTRICT" json:"book,omitempty"`
}

func (BookCopy) TableName() string {
	return "book_copies"
}

// OpenMarker is the value of Loan.Open while the loan is outstanding.
// MySQL allows any number of NULLs in a unique index, so the composite
// (copy_id, open) index admits many returned loans per copy but at most
// one open loan. The marker is cleared (set NULL) on return.
const OpenMarker uint8 = 1

// Loan represents loans table
type Loan struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;index;constraint:OnDelete:RESTRICT" json:"user_id"`
	CopyID     uint       `gorm:"not null;uniqueIndex:uq_open_loan_per_copy;constraint:OnDelete:RESTRICT" json:"copy_id"`
	LoanedAt   time.Time  `gorm:"not null" json:"loaned_at"`
	DueTo      time.Time  `gorm:"not null;index:idx_loan_due,priority:1" json:"due_to"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
	FineCents  int64      `gorm:"not null;default:0" json:"fine_cents"`
	// Open backs the one-open-loan-per-copy unique index, see OpenMarker.
	Open *uint8 `gorm:"uniqueIndex:uq_open_loan_per_copy" json:"-"`
	// Version is the optimistic concurrency token compared-and-swapped on save.
	Version   int64     `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`

	User *User     `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"user,omitempty"`
	Copy *BookCopy `gorm:"foreignKey:CopyID;constraint:OnDelete:RESTRICT" json:"copy,omitempty"`
}

func (Loan) TableName() string {
	return "loans"
}

// IsReturned reports whether the loan has been fulfilled
func (l *Loan) IsReturned() bool {
	return l.ReturnedAt != nil
}

// IsOverdue reports whether an open loan is past its due date
func (l *Loan) IsOverdue(now time.Time) bool {
	return !l.IsReturned() && now.After(l.DueTo)
}

// NewOpenMarker returns the marker value for a freshly created loan
func NewOpenMarker() *uint8 {
	m := OpenMarker
	return &m
}

// LoanResponse DTO
type LoanResponse struct {
	ID         uint       `json:"id"`
	UserID     uint       `json:"user_id"`
	CopyID     uint       `json:"copy_id"`
	LoanedAt   time.Time  `json:"loaned_at"`
	DueTo      time.Time  `json:"due_to"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
	FineCents  int64      `json:"fine_cents"`
}

func (l *Loan) ToResponse() *LoanResponse {
	return &LoanResponse{
		ID:         l.ID,
		UserID:     l.UserID,
		CopyID:     l.CopyID,
		LoanedAt:   l.LoanedAt,
		DueTo:      l.DueTo,
		ReturnedAt: l.ReturnedAt,
		FineCents:  l.FineCents,
	}
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all library tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Book{},
		&BookCopy{},
		&Loan{},
	)
}
