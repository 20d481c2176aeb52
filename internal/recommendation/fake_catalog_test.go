package recommendation

import (
	"context"
	"slices"
	"time"

	"smartlibrary/internal/book"
)

// memCatalog orders results the way the Postgres repository does.
type memCatalog struct {
	books []book.Book
	err   error
}

func byRating(a, b book.Book) int {
	switch {
	case a.AverageRating == nil && b.AverageRating != nil:
		return 1
	case a.AverageRating != nil && b.AverageRating == nil:
		return -1
	case a.AverageRating != nil && *a.AverageRating != *b.AverageRating:
		if *a.AverageRating > *b.AverageRating {
			return -1
		}
		return 1
	case a.RatingCount != b.RatingCount:
		return b.RatingCount - a.RatingCount
	}
	return int(a.ID - b.ID)
}

func (m *memCatalog) selectBooks(keep func(book.Book) bool, order func(a, b book.Book) int, limit int) []book.Book {
	out := []book.Book{}
	for _, b := range m.books {
		if keep(b) {
			out = append(out, b)
		}
	}
	slices.SortStableFunc(out, order)
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *memCatalog) GetByID(_ context.Context, id int64) (book.Book, error) {
	if m.err != nil {
		return book.Book{}, m.err
	}
	for _, b := range m.books {
		if b.ID == id {
			return b, nil
		}
	}
	return book.Book{}, book.ErrNotFound
}

func (m *memCatalog) ByAuthorExcluding(_ context.Context, author string, excludeID int64, limit int) ([]book.Book, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.selectBooks(func(b book.Book) bool { return b.Author == author && b.ID != excludeID }, byRating, limit), nil
}

func (m *memCatalog) ByCategory(_ context.Context, category string, limit int) ([]book.Book, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.selectBooks(func(b book.Book) bool { return b.Category == category }, byRating, limit), nil
}

func (m *memCatalog) ByMinRating(_ context.Context, threshold float64, limit int) ([]book.Book, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.selectBooks(func(b book.Book) bool { return b.AverageRating != nil && *b.AverageRating >= threshold }, byRating, limit), nil
}

func (m *memCatalog) Available(_ context.Context, limit, offset int) ([]book.Book, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	all := m.selectBooks(func(b book.Book) bool { return b.AvailableCopies > 0 }, func(a, b book.Book) int {
		if a.Title != b.Title {
			if a.Title < b.Title {
				return -1
			}
			return 1
		}
		return int(a.ID - b.ID)
	}, -1)
	total := len(all)
	if offset > len(all) {
		offset = len(all)
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (m *memCatalog) TopRated(_ context.Context, limit, offset int) ([]book.Book, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	all := m.selectBooks(func(book.Book) bool { return true }, byRating, -1)
	total := len(all)
	all = all[min(offset, len(all)):]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}

func (m *memCatalog) Recent(_ context.Context, limit int) ([]book.Book, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.selectBooks(func(book.Book) bool { return true }, func(a, b book.Book) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return int(b.ID - a.ID)
	}, limit), nil
}

type memPreferences struct {
	categories map[int64][]string
	err        error
}

func (m *memPreferences) PreferredCategories(_ context.Context, userID int64) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.categories[userID], nil
}

func rated(v float64) *float64 { return &v }

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func newBook(id int64, title, author, category string, rating *float64, available int) book.Book {
	return book.Book{
		ID:              id,
		Title:           title,
		Author:          author,
		Category:        category,
		AverageRating:   rating,
		AvailableCopies: available,
		TotalCopies:     max(available, 1),
		CreatedAt:       epoch.Add(time.Duration(id) * time.Hour),
	}
}

// sampleLibrary: three Fantasy, two Classic, one Science Fiction, some
// unrated and some with nothing on the shelf.
func sampleLibrary() []book.Book {
	return []book.Book{
		newBook(1, "The Hobbit", "J.R.R. Tolkien", "Fantasy", rated(4.8), 2),
		newBook(2, "The Fellowship of the Ring", "J.R.R. Tolkien", "Fantasy", rated(4.6), 0),
		newBook(3, "The Silmarillion", "J.R.R. Tolkien", "Fantasy", nil, 1),
		newBook(4, "A Wizard of Earthsea", "Ursula K. Le Guin", "Fantasy", rated(4.1), 1),
		newBook(5, "Pride and Prejudice", "Jane Austen", "Classic", rated(4.3), 3),
		newBook(6, "Emma", "Jane Austen", "Classic", rated(3.5), 1),
		newBook(7, "Dune", "Frank Herbert", "Science Fiction", rated(4.5), 1),
		newBook(8, "Moby Dick", "Herman Melville", "Adventure", rated(3.2), 2),
		newBook(9, "Ulysses", "James Joyce", "Modernist", nil, 1),
	}
}
