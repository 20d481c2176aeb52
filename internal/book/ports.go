package book

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_repository.go -package=book

// Repository defines the contract for book data storage.
type Repository interface {
	Create(ctx context.Context, b *Book) error
	GetByID(ctx context.Context, id int64) (Book, error)
	GetByISBN(ctx context.Context, isbn string) (Book, error)
	Update(ctx context.Context, b *Book) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, q Query) ([]Book, int, error)
	Distinct(ctx context.Context, field DistinctField) ([]string, error)

	Available(ctx context.Context, limit, offset int) ([]Book, int, error)
	TopRated(ctx context.Context, limit, offset int) ([]Book, int, error)
	ByCategory(ctx context.Context, category string, limit int) ([]Book, error)
	ByAuthorExcluding(ctx context.Context, author string, excludeID int64, limit int) ([]Book, error)
	ByMinRating(ctx context.Context, threshold float64, limit int) ([]Book, error)
	Recent(ctx context.Context, limit int) ([]Book, error)

	DecrementAvailable(ctx context.Context, id int64) error
	IncrementAvailable(ctx context.Context, id int64) error
	SetRating(ctx context.Context, id int64, avg *float64, count int) error
}

// RatingSource supplies the aggregate used to recompute a book's rating.
type RatingSource interface {
	Aggregate(ctx context.Context, bookID int64) (avg *float64, count int, err error)
}
