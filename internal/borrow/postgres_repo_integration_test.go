//go:build integration

package borrow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartlibrary/internal/book"
	"smartlibrary/internal/testutil"
)

func TestPostgresRepo_Integration(t *testing.T) {
	pool := testutil.StartPostgres(t)
	books := book.NewPostgresRepo(pool, 5*time.Second)
	repo := NewPostgresRepo(pool, 5*time.Second)
	ctx := context.Background()

	alice := testutil.CreateUser(t, pool, "alice_reader")
	bob := testutil.CreateUser(t, pool, "bob_student")

	hobbit := &book.Book{Title: "The Hobbit", Author: "J.R.R. Tolkien", ISBN: "9780547928227", Category: "Fantasy", AvailableCopies: 1, TotalCopies: 1}
	require.NoError(t, books.Create(ctx, hobbit))
	emma := &book.Book{Title: "Emma", Author: "Jane Austen", ISBN: "9780141439587", Category: "Classic", AvailableCopies: 5, TotalCopies: 5}
	require.NoError(t, books.Create(ctx, emma))

	svc := NewService(repo, Rules{LoanDays: 14, MaxActiveBorrows: 2})

	rec, err := svc.Borrow(ctx, alice, hobbit.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusBorrowed, rec.Status)

	t.Run("last copy is gone", func(t *testing.T) {
		_, err := svc.Borrow(ctx, bob, hobbit.ID)
		assert.ErrorIs(t, err, book.ErrNoAvailableCopies)
	})

	t.Run("unknown book", func(t *testing.T) {
		_, err := svc.Borrow(ctx, bob, 999999)
		assert.ErrorIs(t, err, book.ErrNotFound)
	})

	t.Run("limit", func(t *testing.T) {
		_, err := svc.Borrow(ctx, alice, emma.ID)
		require.NoError(t, err)
		_, err = svc.Borrow(ctx, alice, emma.ID)
		assert.ErrorIs(t, err, ErrBorrowLimit)

		b, err := books.GetByID(ctx, emma.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, b.AvailableCopies, "rejected checkout must not take a copy")
	})

	t.Run("concurrent checkouts never oversell", func(t *testing.T) {
		last := &book.Book{Title: "Dune", Author: "Frank Herbert", ISBN: "9780441172719", Category: "Science Fiction", AvailableCopies: 1, TotalCopies: 1}
		require.NoError(t, books.Create(ctx, last))

		users := []int64{bob}
		for _, name := range []string{"carol_prof", "dave", "erin"} {
			users = append(users, testutil.CreateUser(t, pool, name))
		}

		var wg sync.WaitGroup
		results := make(chan error, len(users))
		for _, u := range users {
			wg.Add(1)
			go func(userID int64) {
				defer wg.Done()
				_, err := svc.Borrow(ctx, userID, last.ID)
				results <- err
			}(u)
		}
		wg.Wait()
		close(results)

		ok := 0
		for err := range results {
			if err == nil {
				ok++
			} else {
				assert.ErrorIs(t, err, book.ErrNoAvailableCopies)
			}
		}
		assert.Equal(t, 1, ok)
	})

	t.Run("return", func(t *testing.T) {
		_, err := svc.Return(ctx, rec.ID, bob)
		assert.ErrorIs(t, err, ErrNotFound, "other users cannot return it")

		returned, err := svc.Return(ctx, rec.ID, alice)
		require.NoError(t, err)
		assert.Equal(t, StatusReturned, returned.Status)
		require.NotNil(t, returned.ReturnDate)
		assert.Equal(t, "The Hobbit", returned.BookTitle)

		_, err = svc.Return(ctx, rec.ID, alice)
		assert.ErrorIs(t, err, ErrAlreadyReturned)

		b, err := books.GetByID(ctx, hobbit.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, b.AvailableCopies)
	})

	t.Run("history and preferences", func(t *testing.T) {
		history, err := svc.History(ctx, alice)
		require.NoError(t, err)
		assert.Len(t, history, 2)

		cats, err := svc.PreferredCategories(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, []string{"Fantasy", "Classic"}, cats)
	})

	t.Run("overdue", func(t *testing.T) {
		late := NewService(repo, DefaultRules)
		late.now = func() time.Time { return time.Now().AddDate(0, 1, 0) }

		overdue, err := late.Overdue(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, overdue)
		for _, r := range overdue {
			assert.Equal(t, StatusBorrowed, r.Status)
		}
	})
}
