// Package recommendation composes book suggestions from borrow history,
// author similarity and ratings.
package recommendation

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"smartlibrary/internal/book"
	"smartlibrary/internal/metrics"
)

const (
	DefaultUserLimit    = 10
	DefaultSimilarLimit = 5
	DefaultListLimit    = 10

	perCategory       = 3
	sameAuthor        = 3
	highRatingMin     = 4.0
	dashboardSize     = 6
	dashboardTopics   = 3
	dashboardPerTopic = 4
)

// Catalog is the read side of the book store the engine needs. Lists ordered
// by rating put unrated books last.
type Catalog interface {
	GetByID(ctx context.Context, id int64) (book.Book, error)
	ByAuthorExcluding(ctx context.Context, author string, excludeID int64, limit int) ([]book.Book, error)
	ByCategory(ctx context.Context, category string, limit int) ([]book.Book, error)
	ByMinRating(ctx context.Context, threshold float64, limit int) ([]book.Book, error)
	Available(ctx context.Context, limit, offset int) ([]book.Book, int, error)
	TopRated(ctx context.Context, limit, offset int) ([]book.Book, int, error)
	Recent(ctx context.Context, limit int) ([]book.Book, error)
}

// Preferences yields the categories a user has borrowed from, first seen first.
type Preferences interface {
	PreferredCategories(ctx context.Context, userID int64) ([]string, error)
}

type Engine struct {
	catalog Catalog
	prefs   Preferences
}

func NewEngine(catalog Catalog, prefs Preferences) *Engine {
	return &Engine{catalog: catalog, prefs: prefs}
}

// Dashboard bundles the lists shown on a user's home page.
type Dashboard struct {
	Recommendations         []book.Book            `json:"recommendations"`
	Trending                []book.Book            `json:"trending"`
	NewArrivals             []book.Book            `json:"newArrivals"`
	CategoryRecommendations map[string][]book.Book `json:"categoryRecommendations"`
}

// picker accumulates books in insertion order, skipping ids already taken.
type picker struct {
	limit int
	seen  map[int64]struct{}
	books []book.Book
}

func newPicker(limit int, exclude ...int64) *picker {
	p := &picker{limit: limit, seen: make(map[int64]struct{}, limit), books: make([]book.Book, 0, limit)}
	for _, id := range exclude {
		p.seen[id] = struct{}{}
	}
	return p
}

func (p *picker) full() bool { return len(p.books) >= p.limit }

// add appends candidates until the picker is full; at most quota are taken
// from this batch when quota > 0.
func (p *picker) add(candidates []book.Book, quota int) {
	taken := 0
	for _, b := range candidates {
		if p.full() || (quota > 0 && taken >= quota) {
			return
		}
		if _, dup := p.seen[b.ID]; dup {
			continue
		}
		p.seen[b.ID] = struct{}{}
		p.books = append(p.books, b)
		taken++
	}
}

// addAll appends every candidate not yet taken, ignoring the limit.
func (p *picker) addAll(candidates []book.Book) {
	for _, b := range candidates {
		if _, dup := p.seen[b.ID]; dup {
			continue
		}
		p.seen[b.ID] = struct{}{}
		p.books = append(p.books, b)
	}
}

func served(kind string, books []book.Book, err error) ([]book.Book, error) {
	if err != nil {
		metrics.RecommendationErrors.WithLabelValues(kind).Inc()
		return nil, fmt.Errorf("%s recommendations: %w", kind, err)
	}
	metrics.RecordRecommendations(kind, len(books))
	return books, nil
}

// RecommendationsForUser collects books from the user's preferred categories,
// then highly rated books, then anything on the shelf. Books with no available
// copies are dropped before the list is cut to limit, so fewer than limit may
// return.
func (e *Engine) RecommendationsForUser(ctx context.Context, userID int64, limit int) ([]book.Book, error) {
	books, err := e.forUser(ctx, userID, limit)
	return served("user", books, err)
}

func (e *Engine) forUser(ctx context.Context, userID int64, limit int) ([]book.Book, error) {
	if limit <= 0 {
		return []book.Book{}, nil
	}
	p := newPicker(limit)

	categories, err := e.prefs.PreferredCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	// categories contribute whole batches; the cut to limit comes after filtering
	for _, category := range categories {
		top, err := e.catalog.ByCategory(ctx, category, perCategory)
		if err != nil {
			return nil, err
		}
		p.addAll(top)
		if p.full() {
			break
		}
	}

	if !p.full() {
		rated, err := e.catalog.ByMinRating(ctx, highRatingMin, limit)
		if err != nil {
			return nil, err
		}
		p.add(rated, 0)
	}

	if !p.full() {
		onShelf, _, err := e.catalog.Available(ctx, limit, 0)
		if err != nil {
			return nil, err
		}
		p.add(onShelf, 0)
	}

	available := lo.Filter(p.books, func(b book.Book, _ int) bool {
		return b.Available()
	})
	return lo.Subset(available, 0, uint(limit)), nil
}

// SimilarBooks returns other books by the same author, topped up with books
// from the same category. An unknown id yields an empty list.
func (e *Engine) SimilarBooks(ctx context.Context, bookID int64, limit int) ([]book.Book, error) {
	books, err := e.similar(ctx, bookID, limit)
	return served("similar", books, err)
}

func (e *Engine) similar(ctx context.Context, bookID int64, limit int) ([]book.Book, error) {
	if limit <= 0 {
		return []book.Book{}, nil
	}
	src, err := e.catalog.GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, book.ErrNotFound) {
			return []book.Book{}, nil
		}
		return nil, err
	}

	p := newPicker(limit, src.ID)
	if src.Author != "" {
		byAuthor, err := e.catalog.ByAuthorExcluding(ctx, src.Author, src.ID, sameAuthor)
		if err != nil {
			return nil, err
		}
		p.add(byAuthor, sameAuthor)
	}

	if !p.full() && src.Category != "" {
		// the source and the author matches may sit in the category top
		sameCategory, err := e.catalog.ByCategory(ctx, src.Category, limit+len(p.books)+1)
		if err != nil {
			return nil, err
		}
		p.add(sameCategory, 0)
	}
	return p.books, nil
}

// TrendingBooks is the overall top-rated list.
func (e *Engine) TrendingBooks(ctx context.Context, limit int) ([]book.Book, error) {
	if limit <= 0 {
		return []book.Book{}, nil
	}
	books, _, err := e.catalog.TopRated(ctx, limit, 0)
	return served("trending", books, err)
}

func (e *Engine) NewArrivals(ctx context.Context, limit int) ([]book.Book, error) {
	if limit <= 0 {
		return []book.Book{}, nil
	}
	books, err := e.catalog.Recent(ctx, limit)
	return served("new_arrivals", books, err)
}

func (e *Engine) PopularInCategory(ctx context.Context, category string, limit int) ([]book.Book, error) {
	if limit <= 0 || category == "" {
		return []book.Book{}, nil
	}
	books, err := e.catalog.ByCategory(ctx, category, limit)
	return served("popular", books, err)
}

// Dashboard assembles every list for userID. All fields are non-nil.
func (e *Engine) Dashboard(ctx context.Context, userID int64) (Dashboard, error) {
	d := Dashboard{CategoryRecommendations: map[string][]book.Book{}}

	var err error
	if d.Recommendations, err = e.forUser(ctx, userID, dashboardSize); err != nil {
		return e.dashboardFailed(err)
	}
	if d.Trending, _, err = e.catalog.TopRated(ctx, dashboardSize, 0); err != nil {
		return e.dashboardFailed(err)
	}
	if d.NewArrivals, err = e.catalog.Recent(ctx, dashboardSize); err != nil {
		return e.dashboardFailed(err)
	}

	categories, err := e.prefs.PreferredCategories(ctx, userID)
	if err != nil {
		return e.dashboardFailed(err)
	}
	for _, category := range lo.Subset(categories, 0, dashboardTopics) {
		popular, err := e.catalog.ByCategory(ctx, category, dashboardPerTopic)
		if err != nil {
			return e.dashboardFailed(err)
		}
		d.CategoryRecommendations[category] = orEmpty(popular)
	}
	d.Trending = orEmpty(d.Trending)
	d.NewArrivals = orEmpty(d.NewArrivals)

	metrics.RecordRecommendations("dashboard", len(d.Recommendations)+len(d.Trending)+len(d.NewArrivals))
	return d, nil
}

func (e *Engine) dashboardFailed(err error) (Dashboard, error) {
	metrics.RecommendationErrors.WithLabelValues("dashboard").Inc()
	return Dashboard{}, fmt.Errorf("dashboard: %w", err)
}

func orEmpty(books []book.Book) []book.Book {
	if books == nil {
		return []book.Book{}
	}
	return books
}
