package borrow

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"smartlibrary/internal/metrics"
)

// Rules are the lending limits.
type Rules struct {
	LoanDays         int
	MaxActiveBorrows int
}

var DefaultRules = Rules{LoanDays: 14, MaxActiveBorrows: 5}

type Service struct {
	repo  Repository
	rules Rules
	now   func() time.Time
}

func NewService(repo Repository, rules Rules) *Service {
	if rules.LoanDays <= 0 {
		rules.LoanDays = DefaultRules.LoanDays
	}
	if rules.MaxActiveBorrows <= 0 {
		rules.MaxActiveBorrows = DefaultRules.MaxActiveBorrows
	}
	return &Service{repo: repo, rules: rules, now: time.Now}
}

// Borrow checks out one copy of bookID for userID.
func (s *Service) Borrow(ctx context.Context, userID, bookID int64) (Record, error) {
	now := s.now().UTC()
	rec := Record{
		UserID:     userID,
		BookID:     bookID,
		BorrowDate: now,
		DueDate:    now.AddDate(0, 0, s.rules.LoanDays),
		Status:     StatusBorrowed,
	}
	if err := s.repo.Checkout(ctx, &rec, s.rules.MaxActiveBorrows); err != nil {
		outcome := "rejected"
		if errors.Is(err, ErrBorrowLimit) {
			outcome = "limit"
		}
		metrics.BorrowsTotal.WithLabelValues("borrow", outcome).Inc()
		return Record{}, err
	}

	metrics.BorrowsTotal.WithLabelValues("borrow", "ok").Inc()
	zerolog.Ctx(ctx).Info().
		Int64("user_id", userID).
		Int64("book_id", bookID).
		Int64("record_id", rec.ID).
		Msg("book borrowed")
	return rec, nil
}

// Return closes recordID on behalf of userID. Records owned by other users
// are reported as not found.
func (s *Service) Return(ctx context.Context, recordID, userID int64) (Record, error) {
	rec, err := s.repo.Return(ctx, recordID, userID, s.now().UTC())
	if err != nil {
		metrics.BorrowsTotal.WithLabelValues("return", "rejected").Inc()
		return Record{}, err
	}
	metrics.BorrowsTotal.WithLabelValues("return", "ok").Inc()
	return rec, nil
}

// History lists userID's records, newest first.
func (s *Service) History(ctx context.Context, userID int64) ([]Record, error) {
	recs, err := s.repo.History(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.markOverdue(recs, s.now().UTC()), nil
}

func (s *Service) Overdue(ctx context.Context) ([]Record, error) {
	now := s.now().UTC()
	recs, err := s.repo.Overdue(ctx, now)
	if err != nil {
		return nil, err
	}
	return s.markOverdue(recs, now), nil
}

func (s *Service) markOverdue(recs []Record, now time.Time) []Record {
	for i := range recs {
		recs[i].IsOverdue = recs[i].Overdue(now)
	}
	return recs
}

// PreferredCategories returns the distinct categories of books userID has
// borrowed, in the order they first appear in the history.
func (s *Service) PreferredCategories(ctx context.Context, userID int64) ([]string, error) {
	return s.repo.PreferredCategories(ctx, userID)
}
