//go:build integration

package rating

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartlibrary/internal/book"
	"smartlibrary/internal/testutil"
)

func TestPostgresRepo_Integration(t *testing.T) {
	pool := testutil.StartPostgres(t)
	ctx := context.Background()

	ratings := NewPostgresRepo(pool, 5*time.Second)
	bookRepo := book.NewPostgresRepo(pool, 5*time.Second)
	books := book.NewService(bookRepo, ratings, book.DefaultCacheOptions)
	svc := NewService(ratings, books)

	alice := testutil.CreateUser(t, pool, "alice_reader")
	bob := testutil.CreateUser(t, pool, "bob_student")

	hobbit := &book.Book{Title: "The Hobbit", Author: "J.R.R. Tolkien", ISBN: "9780547928227", Category: "Fantasy", AvailableCopies: 1, TotalCopies: 1}
	require.NoError(t, bookRepo.Create(ctx, hobbit))

	_, err := svc.Rate(ctx, alice, hobbit.ID, 5, "A classic")
	require.NoError(t, err)
	_, err = svc.Rate(ctx, bob, hobbit.ID, 2, "")
	require.NoError(t, err)

	b, err := books.GetByID(ctx, hobbit.ID)
	require.NoError(t, err)
	require.NotNil(t, b.AverageRating)
	assert.InDelta(t, 3.5, *b.AverageRating, 0.0001)
	assert.Equal(t, 2, b.RatingCount)

	t.Run("re-rating updates the same row", func(t *testing.T) {
		_, err := svc.Rate(ctx, bob, hobbit.ID, 4, "Grew on me")
		require.NoError(t, err)

		list, err := svc.ListByBook(ctx, hobbit.ID)
		require.NoError(t, err)
		assert.Len(t, list, 2)

		b, err := books.GetByID(ctx, hobbit.ID)
		require.NoError(t, err)
		assert.InDelta(t, 4.5, *b.AverageRating, 0.0001)
	})

	t.Run("reviews skip empty text", func(t *testing.T) {
		_, err := svc.Rate(ctx, bob, hobbit.ID, 4, "")
		require.NoError(t, err)

		reviews, err := svc.Reviews(ctx, hobbit.ID)
		require.NoError(t, err)
		require.Len(t, reviews, 1)
		assert.Equal(t, "alice_reader", reviews[0].Username)
	})

	t.Run("unknown book", func(t *testing.T) {
		_, err := svc.Rate(ctx, alice, 999999, 3, "")
		assert.ErrorIs(t, err, book.ErrNotFound)
	})
}
