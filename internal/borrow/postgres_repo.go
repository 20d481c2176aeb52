package borrow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"smartlibrary/internal/book"
)

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

const selectRecord = `
	SELECT br.id, br.user_id, br.book_id, b.title, br.borrow_date, br.due_date,
	       br.return_date, br.status
	FROM borrow_records br
	JOIN books b ON b.id = br.book_id`

func scanRecord(row pgx.CollectableRow) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.UserID, &rec.BookID, &rec.BookTitle, &rec.BorrowDate,
		&rec.DueDate, &rec.ReturnDate, &rec.Status)
	return rec, err
}

func (r *PostgresRepo) Checkout(ctx context.Context, rec *Record, maxActive int) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	return pgx.BeginFunc(timeoutCtx, r.db, func(tx pgx.Tx) error {
		// Lock the user row so concurrent checkouts see each other's records.
		var locked int64
		err := tx.QueryRow(timeoutCtx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, rec.UserID).Scan(&locked)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("lock user: %w", err)
		}

		var active int
		err = tx.QueryRow(timeoutCtx,
			`SELECT COUNT(*) FROM borrow_records WHERE user_id = $1 AND status = 'BORROWED'`,
			rec.UserID).Scan(&active)
		if err != nil {
			return fmt.Errorf("count active borrows: %w", err)
		}
		if active >= maxActive {
			return ErrBorrowLimit
		}

		if err := book.DecrementAvailable(timeoutCtx, tx, rec.BookID); err != nil {
			return err
		}

		err = tx.QueryRow(timeoutCtx, `
			INSERT INTO borrow_records (user_id, book_id, borrow_date, due_date, status)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			rec.UserID, rec.BookID, rec.BorrowDate, rec.DueDate, rec.Status,
		).Scan(&rec.ID)
		if err != nil {
			return fmt.Errorf("insert borrow record: %w", err)
		}
		return nil
	})
}

func (r *PostgresRepo) Return(ctx context.Context, recordID, userID int64, at time.Time) (Record, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var out Record
	err := pgx.BeginFunc(timeoutCtx, r.db, func(tx pgx.Tx) error {
		var bookID int64
		var status Status
		err := tx.QueryRow(timeoutCtx,
			`SELECT book_id, status FROM borrow_records WHERE id = $1 AND user_id = $2 FOR UPDATE`,
			recordID, userID).Scan(&bookID, &status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("load borrow record: %w", err)
		}
		if status == StatusReturned {
			return ErrAlreadyReturned
		}

		if _, err := tx.Exec(timeoutCtx,
			`UPDATE borrow_records SET status = 'RETURNED', return_date = $2 WHERE id = $1`,
			recordID, at); err != nil {
			return fmt.Errorf("mark returned: %w", err)
		}

		if err := book.IncrementAvailable(timeoutCtx, tx, bookID); err != nil {
			return err
		}

		rows, err := tx.Query(timeoutCtx, selectRecord+` WHERE br.id = $1`, recordID)
		if err != nil {
			return fmt.Errorf("reload borrow record: %w", err)
		}
		out, err = pgx.CollectExactlyOneRow(rows, scanRecord)
		return err
	})
	if err != nil {
		return Record{}, err
	}
	return out, nil
}

func (r *PostgresRepo) list(ctx context.Context, query string, args ...any) ([]Record, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list borrow records: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("list borrow records: %w", err)
	}
	return out, nil
}

func (r *PostgresRepo) History(ctx context.Context, userID int64) ([]Record, error) {
	return r.list(ctx, selectRecord+` WHERE br.user_id = $1 ORDER BY br.borrow_date DESC, br.id DESC`, userID)
}

func (r *PostgresRepo) Overdue(ctx context.Context, now time.Time) ([]Record, error) {
	return r.list(ctx, selectRecord+` WHERE br.status = 'BORROWED' AND br.due_date < $1 ORDER BY br.due_date, br.id`, now)
}

// PreferredCategories orders categories by the first time each was borrowed.
func (r *PostgresRepo) PreferredCategories(ctx context.Context, userID int64) ([]string, error) {
	const query = `
		SELECT b.category
		FROM borrow_records br
		JOIN books b ON b.id = br.book_id
		WHERE br.user_id = $1 AND b.category <> ''
		GROUP BY b.category
		ORDER BY MIN(br.borrow_date), MIN(br.id)`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("preferred categories: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("preferred categories: %w", err)
	}
	return out, nil
}
