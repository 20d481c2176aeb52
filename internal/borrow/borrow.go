package borrow

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("borrow record not found")
	ErrAlreadyReturned = errors.New("book already returned")
	ErrBorrowLimit     = errors.New("active borrow limit reached")
	ErrUserNotFound    = errors.New("user not found")
)

type Status string

const (
	StatusBorrowed Status = "BORROWED"
	StatusReturned Status = "RETURNED"
)

// Record is one checkout of one book by one user.
type Record struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	BookID     int64      `json:"book_id"`
	BookTitle  string     `json:"book_title,omitempty"`
	BorrowDate time.Time  `json:"borrow_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
	Status     Status     `json:"status"`
	// IsOverdue is computed when the record is read.
	IsOverdue bool `json:"overdue"`
}

// Overdue reports whether the record is still out past its due date.
func (r Record) Overdue(now time.Time) bool {
	return r.Status == StatusBorrowed && now.After(r.DueDate)
}

//go:generate mockgen -source=borrow.go -destination=mock_repository.go -package=borrow

type Repository interface {
	// Checkout decrements the book's copies and inserts rec in one
	// transaction. It fails with ErrBorrowLimit when the user already holds
	// maxActive records.
	Checkout(ctx context.Context, rec *Record, maxActive int) error
	// Return marks the record returned and puts the copy back in one
	// transaction.
	Return(ctx context.Context, recordID, userID int64, at time.Time) (Record, error)
	History(ctx context.Context, userID int64) ([]Record, error)
	Overdue(ctx context.Context, now time.Time) ([]Record, error)
	PreferredCategories(ctx context.Context, userID int64) ([]string, error)
}
