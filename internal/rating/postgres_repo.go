package rating

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"smartlibrary/internal/book"
)

const pgForeignKeyViolation = "23503"

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (repo *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, repo.timeout)
}

const selectRating = `
	SELECT r.id, r.user_id, r.book_id, r.score, r.review, u.username, r.created_at, r.updated_at
	FROM ratings r
	JOIN users u ON u.id = r.user_id`

func scanRating(row pgx.CollectableRow) (Rating, error) {
	var r Rating
	err := row.Scan(&r.ID, &r.UserID, &r.BookID, &r.Score, &r.Review, &r.Username, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (repo *PostgresRepo) Upsert(ctx context.Context, r *Rating) error {
	const sql = `
		INSERT INTO ratings (user_id, book_id, score, review)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, book_id)
		DO UPDATE SET score = EXCLUDED.score, review = EXCLUDED.review, updated_at = NOW()
		RETURNING id, created_at, updated_at`

	timeoutCtx, cancel := repo.withTimeout(ctx)
	defer cancel()
	err := repo.db.QueryRow(timeoutCtx, sql, r.UserID, r.BookID, r.Score, r.Review).
		Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return book.ErrNotFound
		}
		return fmt.Errorf("upsert rating: %w", err)
	}
	return nil
}

func (repo *PostgresRepo) Get(ctx context.Context, userID, bookID int64) (Rating, error) {
	timeoutCtx, cancel := repo.withTimeout(ctx)
	defer cancel()
	rows, err := repo.db.Query(timeoutCtx, selectRating+` WHERE r.user_id = $1 AND r.book_id = $2`, userID, bookID)
	if err != nil {
		return Rating{}, fmt.Errorf("get rating: %w", err)
	}
	r, err := pgx.CollectExactlyOneRow(rows, scanRating)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Rating{}, ErrNotFound
		}
		return Rating{}, fmt.Errorf("get rating: %w", err)
	}
	return r, nil
}

func (repo *PostgresRepo) list(ctx context.Context, where string, arg int64) ([]Rating, error) {
	timeoutCtx, cancel := repo.withTimeout(ctx)
	defer cancel()
	rows, err := repo.db.Query(timeoutCtx, selectRating+" WHERE "+where+" ORDER BY r.created_at DESC, r.id DESC", arg)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanRating)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	return out, nil
}

func (repo *PostgresRepo) ListByBook(ctx context.Context, bookID int64) ([]Rating, error) {
	return repo.list(ctx, "r.book_id = $1", bookID)
}

func (repo *PostgresRepo) ListByUser(ctx context.Context, userID int64) ([]Rating, error) {
	return repo.list(ctx, "r.user_id = $1", userID)
}

func (repo *PostgresRepo) Reviews(ctx context.Context, bookID int64) ([]Rating, error) {
	return repo.list(ctx, "r.book_id = $1 AND r.review <> ''", bookID)
}

// Aggregate returns AVG and COUNT of scores for bookID. avg is nil when the
// book has no ratings.
func (repo *PostgresRepo) Aggregate(ctx context.Context, bookID int64) (*float64, int, error) {
	const query = `SELECT AVG(score)::FLOAT8, COUNT(*) FROM ratings WHERE book_id = $1`

	var avg *float64
	var count int
	timeoutCtx, cancel := repo.withTimeout(ctx)
	defer cancel()
	if err := repo.db.QueryRow(timeoutCtx, query, bookID).Scan(&avg, &count); err != nil {
		return nil, 0, fmt.Errorf("aggregate ratings: %w", err)
	}
	return avg, count, nil
}
