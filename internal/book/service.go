package book

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"

	"smartlibrary/internal/metrics"
)

// CacheOptions sizes the distinct-value cache.
type CacheOptions struct {
	Size int
	TTL  time.Duration
}

var DefaultCacheOptions = CacheOptions{Size: 64, TTL: 5 * time.Minute}

// Service provides book-related business logic.
type Service struct {
	repo     Repository
	ratings  RatingSource
	distinct *expirable.LRU[DistinctField, []string]
}

// NewService creates a new book service. ratings may be nil when rating
// recomputation is not needed.
func NewService(repo Repository, ratings RatingSource, opts CacheOptions) *Service {
	if opts.Size <= 0 {
		opts.Size = DefaultCacheOptions.Size
	}
	return &Service{
		repo:     repo,
		ratings:  ratings,
		distinct: expirable.NewLRU[DistinctField, []string](opts.Size, nil, opts.TTL),
	}
}

func (s *Service) Create(ctx context.Context, b *Book) error {
	if err := b.ValidateCopies(); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return err
	}
	s.distinct.Purge()
	return nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (Book, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByISBN returns a book by its ISBN.
func (s *Service) GetByISBN(ctx context.Context, isbn string) (Book, error) {
	return s.repo.GetByISBN(ctx, isbn)
}

// Update overwrites every mutable field of book id with the values in
// replacement. Rating aggregates and timestamps are kept.
func (s *Service) Update(ctx context.Context, id int64, replacement Book) (Book, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Book{}, err
	}

	current.Title = replacement.Title
	current.Author = replacement.Author
	current.ISBN = replacement.ISBN
	current.Description = replacement.Description
	current.Category = replacement.Category
	current.Publisher = replacement.Publisher
	current.PublicationYear = replacement.PublicationYear
	current.PageCount = replacement.PageCount
	current.Language = replacement.Language
	current.CoverImageURL = replacement.CoverImageURL
	current.AvailableCopies = replacement.AvailableCopies
	current.TotalCopies = replacement.TotalCopies

	if err := current.ValidateCopies(); err != nil {
		return Book{}, err
	}
	if err := s.repo.Update(ctx, &current); err != nil {
		return Book{}, err
	}
	s.distinct.Purge()
	return current, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.distinct.Purge()
	return nil
}

// List returns a page of books matching the query and the total match count.
func (s *Service) List(ctx context.Context, q Query) ([]Book, int, error) {
	return s.repo.List(ctx, q.Normalize())
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.distinctValues(ctx, FieldCategory)
}

func (s *Service) Languages(ctx context.Context) ([]string, error) {
	return s.distinctValues(ctx, FieldLanguage)
}

func (s *Service) Publishers(ctx context.Context) ([]string, error) {
	return s.distinctValues(ctx, FieldPublisher)
}

func (s *Service) distinctValues(ctx context.Context, field DistinctField) ([]string, error) {
	if v, ok := s.distinct.Get(field); ok {
		metrics.CacheHits.WithLabelValues(string(field)).Inc()
		return v, nil
	}
	metrics.CacheMisses.WithLabelValues(string(field)).Inc()

	values, err := s.repo.Distinct(ctx, field)
	if err != nil {
		return nil, err
	}
	if values == nil {
		values = []string{}
	}
	s.distinct.Add(field, values)
	return values, nil
}

// Available returns in-stock books, paged.
func (s *Service) Available(ctx context.Context, page, size int) ([]Book, int, error) {
	q := Query{Page: page, Size: size}.Normalize()
	return s.repo.Available(ctx, q.Size, q.Offset())
}

// TopRated returns books by average rating descending, unrated last.
func (s *Service) TopRated(ctx context.Context, page, size int) ([]Book, int, error) {
	q := Query{Page: page, Size: size}.Normalize()
	return s.repo.TopRated(ctx, q.Size, q.Offset())
}

func (s *Service) ByCategory(ctx context.Context, category string, limit int) ([]Book, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	return s.repo.ByCategory(ctx, category, limit)
}

// IsAvailable reports whether book id has a copy on the shelf. Unknown ids
// are not available.
func (s *Service) IsAvailable(ctx context.Context, id int64) (bool, error) {
	b, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return b.Available(), nil
}

// UpdateRating recomputes the average and count for book id from its ratings.
func (s *Service) UpdateRating(ctx context.Context, id int64) error {
	if s.ratings == nil {
		return errors.New("book: no rating source configured")
	}
	avg, count, err := s.ratings.Aggregate(ctx, id)
	if err != nil {
		return fmt.Errorf("aggregate ratings: %w", err)
	}
	if count == 0 {
		avg = nil
	}
	if err := s.repo.SetRating(ctx, id, avg, count); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Debug().Int64("book_id", id).Int("rating_count", count).Msg("rating recomputed")
	return nil
}

// DecreaseAvailableCopies takes one copy off the shelf. It fails with
// ErrNoAvailableCopies when none are left.
func (s *Service) DecreaseAvailableCopies(ctx context.Context, id int64) error {
	if err := s.repo.DecrementAvailable(ctx, id); err != nil {
		return err
	}
	metrics.CopyChanges.WithLabelValues("decrease").Inc()
	return nil
}

// IncreaseAvailableCopies puts one copy back. It is a no-op when every copy
// is already on the shelf.
func (s *Service) IncreaseAvailableCopies(ctx context.Context, id int64) error {
	if err := s.repo.IncrementAvailable(ctx, id); err != nil {
		return err
	}
	metrics.CopyChanges.WithLabelValues("increase").Inc()
	return nil
}
