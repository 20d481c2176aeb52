package book

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilters_FreeTextIgnoresFieldFilters(t *testing.T) {
	q := Query{Q: "ring", Author: "ignored", Category: "ignored"}.Normalize()

	sql, args, err := books().Select("id").Where(filters(q)...).ToSQL()
	require.NoError(t, err)

	assert.Contains(t, sql, `"title" ILIKE`)
	assert.Contains(t, sql, `"author" ILIKE`)
	assert.Contains(t, sql, `"description" ILIKE`)
	assert.Contains(t, sql, `"category" ILIKE`)
	assert.Contains(t, sql, " OR ")
	assert.NotContains(t, sql, `"category" =`)
	for _, a := range args {
		assert.Equal(t, "%ring%", a)
	}
}

func TestFilters_FieldFilters(t *testing.T) {
	minYear, maxRating := 1900, 4.5
	q := Query{
		Title:         "hobbit",
		Category:      "Fantasy",
		Language:      "English",
		MinYear:       &minYear,
		MaxRating:     &maxRating,
		AvailableOnly: true,
	}.Normalize()

	sql, args, err := books().Select("id").Where(filters(q)...).ToSQL()
	require.NoError(t, err)

	assert.Contains(t, sql, `"title" ILIKE $1`)
	assert.Contains(t, sql, `"category" = $2`)
	assert.Contains(t, sql, `"language" = $3`)
	assert.Contains(t, sql, `"publication_year" >= $4`)
	assert.Contains(t, sql, `"average_rating" <= $5`)
	assert.Contains(t, sql, `"available_copies" > $6`)
	require.Len(t, args, 6)
	assert.Equal(t, "%hobbit%", args[0])
	assert.Equal(t, "Fantasy", args[1])
}

func TestOrdering(t *testing.T) {
	q := Query{SortBy: "average_rating", SortDir: "desc"}.Normalize()
	sql, _, err := books().Select("id").Order(ordering(q)...).ToSQL()
	require.NoError(t, err)
	assert.Contains(t, sql, `ORDER BY "average_rating" DESC NULLS LAST, "id" ASC`)

	q = Query{}.Normalize()
	sql, _, err = books().Select("id").Order(ordering(q)...).ToSQL()
	require.NoError(t, err)
	assert.Contains(t, sql, `ORDER BY "title" ASC, "id" ASC`)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off\\`, escapeLike(`50%_off\`))
	assert.Equal(t, "%dune%", contains("  dune "))
}

func TestMapWriteError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unique isbn", &pgconn.PgError{Code: pgUniqueViolation}, ErrAlreadyExists},
		{"copies check", &pgconn.PgError{Code: pgCheckViolation, ConstraintName: copiesConstraint}, ErrInvalidCopies},
		{"other check", &pgconn.PgError{Code: pgCheckViolation, ConstraintName: "books_page_count_check"}, nil},
		{"plain error", errors.New("boom"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapWriteError(tt.err)
			if tt.want == nil {
				assert.Equal(t, tt.err, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}
