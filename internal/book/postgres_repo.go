package book

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
	copiesConstraint  = "books_copies_check"
)

var dialect = goqu.Dialect("postgres")

var bookColumns = []any{
	"id", "title", "author", "isbn", "description", "category", "publisher",
	"language", "cover_image_url", "publication_year", "page_count",
	"available_copies", "total_copies", "average_rating", "rating_count",
	"created_at", "updated_at",
}

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (Book, error) {
	var b Book
	err := row.Scan(
		&b.ID, &b.Title, &b.Author, &b.ISBN, &b.Description, &b.Category, &b.Publisher,
		&b.Language, &b.CoverImageURL, &b.PublicationYear, &b.PageCount,
		&b.AvailableCopies, &b.TotalCopies, &b.AverageRating, &b.RatingCount,
		&b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

func books() *goqu.SelectDataset {
	return dialect.From("books").Prepared(true)
}

func byRatingDesc() []exp.OrderedExpression {
	return []exp.OrderedExpression{
		goqu.C("average_rating").Desc().NullsLast(),
		goqu.C("rating_count").Desc(),
		goqu.C("id").Asc(),
	}
}

func (r *PostgresRepo) queryBooks(ctx context.Context, ds *goqu.SelectDataset) ([]Book, error) {
	query, args, err := ds.Select(bookColumns...).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) count(ctx context.Context, ds *goqu.SelectDataset) (int, error) {
	query, args, err := ds.Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}
	var total int
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.db.QueryRow(timeoutCtx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return total, nil
}

func (r *PostgresRepo) page(ctx context.Context, ds *goqu.SelectDataset, order []exp.OrderedExpression, limit, offset int) ([]Book, int, error) {
	total, err := r.count(ctx, ds)
	if err != nil {
		return nil, 0, err
	}
	out, err := r.queryBooks(ctx, ds.Order(order...).Limit(uint(limit)).Offset(uint(offset)))
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *PostgresRepo) getOne(ctx context.Context, where exp.Expression) (Book, error) {
	query, args, err := books().Select(bookColumns...).Where(where).Limit(1).ToSQL()
	if err != nil {
		return Book{}, fmt.Errorf("build query: %w", err)
	}
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	b, err := scanBook(r.db.QueryRow(timeoutCtx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, fmt.Errorf("get book: %w", err)
	}
	return b, nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id int64) (Book, error) {
	return r.getOne(ctx, goqu.C("id").Eq(id))
}

func (r *PostgresRepo) GetByISBN(ctx context.Context, isbn string) (Book, error) {
	return r.getOne(ctx, goqu.C("isbn").Eq(isbn))
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrAlreadyExists
		case pgCheckViolation:
			if pgErr.ConstraintName == copiesConstraint {
				return ErrInvalidCopies
			}
		}
	}
	return err
}

func (r *PostgresRepo) Create(ctx context.Context, b *Book) error {
	const sql = `
		INSERT INTO books (title, author, isbn, description, category, publisher, language,
		                   cover_image_url, publication_year, page_count, available_copies, total_copies)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, average_rating, rating_count, created_at, updated_at`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, sql,
		b.Title, b.Author, b.ISBN, b.Description, b.Category, b.Publisher, b.Language,
		b.CoverImageURL, b.PublicationYear, b.PageCount, b.AvailableCopies, b.TotalCopies,
	).Scan(&b.ID, &b.AverageRating, &b.RatingCount, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if mapped := mapWriteError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

func (r *PostgresRepo) Update(ctx context.Context, b *Book) error {
	const sql = `
		UPDATE books SET
			title = $2, author = $3, isbn = $4, description = $5, category = $6,
			publisher = $7, language = $8, cover_image_url = $9, publication_year = $10,
			page_count = $11, available_copies = $12, total_copies = $13, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	err := r.db.QueryRow(timeoutCtx, sql,
		b.ID, b.Title, b.Author, b.ISBN, b.Description, b.Category,
		b.Publisher, b.Language, b.CoverImageURL, b.PublicationYear,
		b.PageCount, b.AvailableCopies, b.TotalCopies,
	).Scan(&b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if mapped := mapWriteError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("update book: %w", err)
	}
	return nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id int64) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// escapeLike makes s safe to embed in an ILIKE pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func contains(s string) string {
	return "%" + escapeLike(strings.TrimSpace(s)) + "%"
}

// filters translates q into WHERE expressions.
func filters(q Query) []exp.Expression {
	var where []exp.Expression

	if term := strings.TrimSpace(q.Q); term != "" {
		pattern := contains(term)
		where = append(where, goqu.Or(
			goqu.C("title").ILike(pattern),
			goqu.C("author").ILike(pattern),
			goqu.C("description").ILike(pattern),
			goqu.C("category").ILike(pattern),
		))
		if q.AvailableOnly {
			where = append(where, goqu.C("available_copies").Gt(0))
		}
		return where
	}

	if q.Title != "" {
		where = append(where, goqu.C("title").ILike(contains(q.Title)))
	}
	if q.Author != "" {
		where = append(where, goqu.C("author").ILike(contains(q.Author)))
	}
	if q.Publisher != "" {
		where = append(where, goqu.C("publisher").ILike(contains(q.Publisher)))
	}
	if q.Category != "" {
		where = append(where, goqu.C("category").Eq(q.Category))
	}
	if q.Language != "" {
		where = append(where, goqu.C("language").Eq(q.Language))
	}
	if q.ISBN != "" {
		where = append(where, goqu.C("isbn").Eq(q.ISBN))
	}
	if q.MinYear != nil {
		where = append(where, goqu.C("publication_year").Gte(*q.MinYear))
	}
	if q.MaxYear != nil {
		where = append(where, goqu.C("publication_year").Lte(*q.MaxYear))
	}
	if q.MinRating != nil {
		where = append(where, goqu.C("average_rating").Gte(*q.MinRating))
	}
	if q.MaxRating != nil {
		where = append(where, goqu.C("average_rating").Lte(*q.MaxRating))
	}
	if q.AvailableOnly {
		where = append(where, goqu.C("available_copies").Gt(0))
	}
	return where
}

func ordering(q Query) []exp.OrderedExpression {
	col := goqu.C(q.SortBy)
	var primary exp.OrderedExpression
	if q.SortDir == "desc" {
		primary = col.Desc()
	} else {
		primary = col.Asc()
	}
	switch q.SortBy {
	case "average_rating", "publication_year":
		primary = primary.NullsLast()
	}
	return []exp.OrderedExpression{primary, goqu.C("id").Asc()}
}

func (r *PostgresRepo) List(ctx context.Context, q Query) ([]Book, int, error) {
	q = q.Normalize()
	ds := books().Where(filters(q)...)
	return r.page(ctx, ds, ordering(q), q.Size, q.Offset())
}

var distinctColumns = map[DistinctField]string{
	FieldCategory:  "category",
	FieldLanguage:  "language",
	FieldPublisher: "publisher",
}

func (r *PostgresRepo) Distinct(ctx context.Context, field DistinctField) ([]string, error) {
	col, ok := distinctColumns[field]
	if !ok {
		return nil, fmt.Errorf("unsupported distinct field %q", field)
	}

	query, args, err := books().
		Select(goqu.C(col)).
		Distinct().
		Where(goqu.C(col).Neq("")).
		Order(goqu.C(col).Asc()).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build distinct: %w", err)
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", col, err)
	}
	values, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", col, err)
	}
	return values, nil
}

func (r *PostgresRepo) Available(ctx context.Context, limit, offset int) ([]Book, int, error) {
	ds := books().Where(goqu.C("available_copies").Gt(0))
	return r.page(ctx, ds, []exp.OrderedExpression{goqu.C("title").Asc(), goqu.C("id").Asc()}, limit, offset)
}

func (r *PostgresRepo) TopRated(ctx context.Context, limit, offset int) ([]Book, int, error) {
	return r.page(ctx, books(), byRatingDesc(), limit, offset)
}

func (r *PostgresRepo) ByCategory(ctx context.Context, category string, limit int) ([]Book, error) {
	ds := books().Where(goqu.C("category").Eq(category)).Order(byRatingDesc()...).Limit(uint(limit))
	return r.queryBooks(ctx, ds)
}

func (r *PostgresRepo) ByAuthorExcluding(ctx context.Context, author string, excludeID int64, limit int) ([]Book, error) {
	ds := books().
		Where(goqu.C("author").Eq(author), goqu.C("id").Neq(excludeID)).
		Order(byRatingDesc()...).
		Limit(uint(limit))
	return r.queryBooks(ctx, ds)
}

func (r *PostgresRepo) ByMinRating(ctx context.Context, threshold float64, limit int) ([]Book, error) {
	ds := books().Where(goqu.C("average_rating").Gte(threshold)).Order(byRatingDesc()...).Limit(uint(limit))
	return r.queryBooks(ctx, ds)
}

func (r *PostgresRepo) Recent(ctx context.Context, limit int) ([]Book, error) {
	ds := books().Order(goqu.C("created_at").Desc(), goqu.C("id").Desc()).Limit(uint(limit))
	return r.queryBooks(ctx, ds)
}

func (r *PostgresRepo) DecrementAvailable(ctx context.Context, id int64) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return DecrementAvailable(timeoutCtx, r.db, id)
}

func (r *PostgresRepo) IncrementAvailable(ctx context.Context, id int64) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return IncrementAvailable(timeoutCtx, r.db, id)
}

// DecrementAvailable takes one copy off the shelf with a single conditional
// UPDATE. It runs on q so callers can include it in a transaction.
func DecrementAvailable(ctx context.Context, q Querier, id int64) error {
	tag, err := q.Exec(ctx, `
		UPDATE books SET available_copies = available_copies - 1, updated_at = NOW()
		WHERE id = $1 AND available_copies > 0`, id)
	if err != nil {
		return fmt.Errorf("decrement copies: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	exists, err := bookExists(ctx, q, id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrNoAvailableCopies
}

// IncrementAvailable puts one copy back, capped at total_copies. Reaching the
// cap is not an error.
func IncrementAvailable(ctx context.Context, q Querier, id int64) error {
	tag, err := q.Exec(ctx, `
		UPDATE books SET available_copies = available_copies + 1, updated_at = NOW()
		WHERE id = $1 AND available_copies < total_copies`, id)
	if err != nil {
		return fmt.Errorf("increment copies: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	exists, err := bookExists(ctx, q, id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

func bookExists(ctx context.Context, q Querier, id int64) (bool, error) {
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM books WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check book: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepo) SetRating(ctx context.Context, id int64, avg *float64, count int) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, `
		UPDATE books SET average_rating = $2, rating_count = $3, updated_at = NOW()
		WHERE id = $1`, id, avg, count)
	if err != nil {
		return fmt.Errorf("set rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
