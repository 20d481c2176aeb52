package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartlibrary/internal/borrow"
	"smartlibrary/internal/httpx"
	"smartlibrary/internal/platform/openlibrary"
	"smartlibrary/internal/rating"
)

func TestSeedBooks_Consistent(t *testing.T) {
	require.Len(t, seedBooks, 20)

	seen := make(map[string]bool)
	for _, sb := range seedBooks {
		isbn := httpx.NormalizeISBN(sb.ISBN)
		assert.Len(t, isbn, 13, sb.Title)
		assert.False(t, seen[isbn], "duplicate isbn %s", isbn)
		seen[isbn] = true

		assert.NotEmpty(t, sb.Category, sb.Title)
		assert.True(t, sb.Available >= 0 && sb.Available <= sb.Total, sb.Title)
	}
}

func TestSeedUsers_OneAdmin(t *testing.T) {
	admins := 0
	for _, su := range seedUsers {
		if su.Role == "ADMIN" {
			admins++
		}
	}
	assert.Equal(t, 1, admins)
}

func TestSeedRatings(t *testing.T) {
	ratings := seedRatings()
	require.Len(t, ratings, 10)
	for _, r := range ratings {
		assert.GreaterOrEqual(t, r.Score, rating.MinScore)
		assert.LessOrEqual(t, r.Score, rating.MaxScore)
		assert.Less(t, r.User, len(seedUsers))
	}
	assert.Equal(t, 4, ratings[0].Score)
	assert.Equal(t, 5, ratings[1].Score)
	assert.Equal(t, 1, ratings[4].User)
}

func TestSeedBorrows_WithinLimits(t *testing.T) {
	active := make(map[int]int)
	perBookOut := make(map[int]int)
	for _, sb := range seedBorrows {
		require.Less(t, sb.User, len(seedUsers))
		require.Less(t, sb.Book, len(seedBooks))
		perBookOut[sb.Book]++
		if !sb.Returned {
			active[sb.User]++
		}
	}
	for u, n := range active {
		assert.LessOrEqual(t, n, borrow.DefaultRules.MaxActiveBorrows, "user %d", u)
	}
	for b, n := range perBookOut {
		assert.LessOrEqual(t, n, seedBooks[b].Available, seedBooks[b].Title)
	}
}

func TestCatalogBook(t *testing.T) {
	hobbit := seedBooks[6]

	t.Run("static", func(t *testing.T) {
		b := catalogBook(hobbit, 6, nil)
		assert.Equal(t, "9780547928227", b.ISBN)
		assert.Equal(t, "https://covers.openlibrary.org/b/isbn/9780547928227-M.jpg", b.CoverImageURL)
		assert.Equal(t, "English", b.Language)
		require.NotNil(t, b.PublicationYear)
		assert.Equal(t, 1930, *b.PublicationYear)
		require.NotNil(t, b.PageCount)
		assert.Equal(t, 500, *b.PageCount)
		assert.Empty(t, b.Publisher)
		assert.NoError(t, b.ValidateCopies())
	})

	t.Run("enriched", func(t *testing.T) {
		ed := openlibrary.Edition{
			Publishers:    []openlibrary.Publisher{{Name: "Houghton Mifflin"}},
			PublishDate:   "1937",
			NumberOfPages: 310,
		}
		b := catalogBook(hobbit, 6, &ed)
		assert.Equal(t, "Houghton Mifflin", b.Publisher)
		assert.Equal(t, 1937, *b.PublicationYear)
		assert.Equal(t, 310, *b.PageCount)
	})
}
