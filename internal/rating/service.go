package rating

import (
	"context"
	"fmt"
	"strings"
)

type Service struct {
	repo  Repository
	books Books
}

func NewService(repo Repository, books Books) *Service {
	return &Service{repo: repo, books: books}
}

// Rate records or replaces userID's rating of bookID and recomputes the
// book's aggregate.
func (s *Service) Rate(ctx context.Context, userID, bookID int64, score int, review string) (Rating, error) {
	if score < MinScore || score > MaxScore {
		return Rating{}, ErrInvalidScore
	}
	if _, err := s.books.GetByID(ctx, bookID); err != nil {
		return Rating{}, err
	}

	r := Rating{
		UserID: userID,
		BookID: bookID,
		Score:  score,
		Review: strings.TrimSpace(review),
	}
	if err := s.repo.Upsert(ctx, &r); err != nil {
		return Rating{}, err
	}
	if err := s.books.UpdateRating(ctx, bookID); err != nil {
		return Rating{}, fmt.Errorf("recompute rating for book %d: %w", bookID, err)
	}
	return r, nil
}

func (s *Service) Get(ctx context.Context, userID, bookID int64) (Rating, error) {
	return s.repo.Get(ctx, userID, bookID)
}

func (s *Service) ListByBook(ctx context.Context, bookID int64) ([]Rating, error) {
	return s.repo.ListByBook(ctx, bookID)
}

func (s *Service) ListByUser(ctx context.Context, userID int64) ([]Rating, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Reviews returns ratings with non-empty review text, newest first.
func (s *Service) Reviews(ctx context.Context, bookID int64) ([]Rating, error) {
	return s.repo.Reviews(ctx, bookID)
}
