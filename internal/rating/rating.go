package rating

import (
	"context"
	"errors"
	"time"

	"smartlibrary/internal/book"
)

var (
	ErrNotFound     = errors.New("rating not found")
	ErrInvalidScore = errors.New("score must be between 1 and 5")
)

const (
	MinScore = 1
	MaxScore = 5
)

// Rating is one user's score for one book. A user holds at most one rating
// per book; rating again replaces it.
type Rating struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	BookID    int64     `json:"book_id"`
	Score     int       `json:"score"`
	Review    string    `json:"review,omitempty"`
	Username  string    `json:"username,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Repository interface {
	Upsert(ctx context.Context, r *Rating) error
	Get(ctx context.Context, userID, bookID int64) (Rating, error)
	ListByBook(ctx context.Context, bookID int64) ([]Rating, error)
	ListByUser(ctx context.Context, userID int64) ([]Rating, error)
	Reviews(ctx context.Context, bookID int64) ([]Rating, error)
	Aggregate(ctx context.Context, bookID int64) (*float64, int, error)
}

// Books is the part of the catalog a rating needs.
type Books interface {
	GetByID(ctx context.Context, id int64) (book.Book, error)
	UpdateRating(ctx context.Context, id int64) error
}
