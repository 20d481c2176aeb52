package book

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a book is not found.
	ErrNotFound = errors.New("book not found")
	// ErrAlreadyExists is returned when the ISBN is taken by another book.
	ErrAlreadyExists = errors.New("book with this isbn already exists")
	// ErrNoAvailableCopies is returned when decrementing a book with nothing on the shelf.
	ErrNoAvailableCopies = errors.New("no available copies")
	ErrInvalidCopies     = errors.New("available copies must be between 0 and total copies")
)

// Book represents a catalog entry.
type Book struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	ISBN            string    `json:"isbn"`
	Description     string    `json:"description,omitempty"`
	Category        string    `json:"category,omitempty"`
	Publisher       string    `json:"publisher,omitempty"`
	Language        string    `json:"language,omitempty"`
	CoverImageURL   string    `json:"cover_image_url,omitempty"`
	PublicationYear *int      `json:"publication_year,omitempty"`
	PageCount       *int      `json:"page_count,omitempty"`
	AvailableCopies int       `json:"available_copies"`
	TotalCopies     int       `json:"total_copies"`
	AverageRating   *float64  `json:"average_rating"`
	RatingCount     int       `json:"rating_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ValidateCopies checks 0 <= available <= total.
func (b Book) ValidateCopies() error {
	if b.TotalCopies < 0 || b.AvailableCopies < 0 || b.AvailableCopies > b.TotalCopies {
		return ErrInvalidCopies
	}
	return nil
}

func (b Book) Available() bool {
	return b.AvailableCopies > 0
}

// Rating returns the average rating, or 0 for unrated books.
func (b Book) Rating() float64 {
	if b.AverageRating == nil {
		return 0
	}
	return *b.AverageRating
}

// DistinctField names a column whose distinct values can be listed.
type DistinctField string

const (
	FieldCategory  DistinctField = "category"
	FieldLanguage  DistinctField = "language"
	FieldPublisher DistinctField = "publisher"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

// Sortable columns for List.
var sortColumns = map[string]bool{
	"title":            true,
	"author":           true,
	"publication_year": true,
	"average_rating":   true,
	"created_at":       true,
	"rating_count":     true,
}

// Query defines filters and pagination for listing books. Q is a free-text
// term matched against title, author, description and category; when set the
// field filters are ignored.
type Query struct {
	Q string

	Title         string
	Author        string
	Category      string
	Language      string
	ISBN          string
	Publisher     string
	MinYear       *int
	MaxYear       *int
	MinRating     *float64
	MaxRating     *float64
	AvailableOnly bool

	SortBy  string
	SortDir string
	Page    int
	Size    int
}

// Normalize applies paging and sort defaults.
func (q Query) Normalize() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Size <= 0 {
		q.Size = DefaultPageSize
	}
	if q.Size > MaxPageSize {
		q.Size = MaxPageSize
	}
	if !sortColumns[q.SortBy] {
		q.SortBy = "title"
	}
	if q.SortDir != "desc" {
		q.SortDir = "asc"
	}
	return q
}

func (q Query) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Size
}
