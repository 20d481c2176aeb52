// Command seed loads the sample library: users, classic books with cover
// images, ratings and borrow history. Running it again leaves existing rows
// alone.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"smartlibrary/internal/book"
	"smartlibrary/internal/borrow"
	"smartlibrary/internal/config"
	"smartlibrary/internal/httpx"
	"smartlibrary/internal/logging"
	"smartlibrary/internal/platform/openlibrary"
	"smartlibrary/internal/rating"
	"smartlibrary/internal/user"
)

type editionLookup interface {
	Editions(ctx context.Context, isbns []string) (map[string]openlibrary.Edition, error)
}

type seeder struct {
	pool    *pgxpool.Pool
	users   *user.Service
	books   *book.Service
	ratings *rating.Service
	borrows *borrow.Service
	lookup  editionLookup
}

func main() {
	enrich := flag.Bool("enrich", false, "fetch publisher, year and page count from Open Library")
	olURL := flag.String("openlibrary-url", openlibrary.DefaultBaseURL, "Open Library base URL")
	flag.Parse()

	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		logging.Init("info", "console")
		log.Fatal().Err(err).Msg("load config")
	}
	logging.Init(cfg.Log.Level, "console")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN)
	if err != nil {
		log.Fatal().Err(err).Str("dsn", config.RedactDSN(cfg.Database.DSN)).Msg("connect to database")
	}
	defer pool.Close()

	timeout := cfg.Database.QueryTimeout
	bookRepo := book.NewPostgresRepo(pool, timeout)
	ratingRepo := rating.NewPostgresRepo(pool, timeout)
	bookSvc := book.NewService(bookRepo, ratingRepo, book.DefaultCacheOptions)

	s := &seeder{
		pool:    pool,
		users:   user.NewService(user.NewPostgresRepo(pool, timeout)),
		books:   bookSvc,
		ratings: rating.NewService(ratingRepo, bookSvc),
		borrows: borrow.NewService(borrow.NewPostgresRepo(pool, timeout), borrow.Rules{
			LoanDays:         cfg.Library.LoanDays,
			MaxActiveBorrows: cfg.Library.MaxActiveBorrows,
		}),
	}
	if *enrich {
		s.lookup = openlibrary.NewClient("", 1, 2, openlibrary.WithBaseURL(*olURL))
	}

	start := time.Now()
	if err := s.run(ctx); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
	log.Info().Dur("took", time.Since(start)).Msg("sample data loaded")
}

func (s *seeder) run(ctx context.Context) error {
	userIDs, err := s.seedUsers(ctx)
	if err != nil {
		return err
	}
	bookIDs, err := s.seedBooks(ctx)
	if err != nil {
		return err
	}
	if err := s.seedRatings(ctx, userIDs, bookIDs); err != nil {
		return err
	}
	return s.seedBorrows(ctx, userIDs, bookIDs)
}

func (s *seeder) seedUsers(ctx context.Context) ([]int64, error) {
	ids := make([]int64, len(seedUsers))
	created := 0
	for i, su := range seedUsers {
		u, err := s.users.GetByEmail(ctx, su.Email)
		switch {
		case errors.Is(err, user.ErrNotFound):
			u, err = s.users.Register(ctx, user.Registration{
				Username:  su.Username,
				Email:     su.Email,
				Password:  seedPassword,
				FirstName: su.FirstName,
				LastName:  su.LastName,
			})
			if err != nil {
				return nil, fmt.Errorf("register %s: %w", su.Username, err)
			}
			created++
		case err != nil:
			return nil, fmt.Errorf("lookup %s: %w", su.Email, err)
		}

		if su.Role != u.Role {
			if _, err := s.pool.Exec(ctx, `UPDATE users SET role = $1, updated_at = now() WHERE id = $2`, su.Role, u.ID); err != nil {
				return nil, fmt.Errorf("set role for %s: %w", su.Username, err)
			}
		}
		ids[i] = u.ID
	}
	log.Info().Int("created", created).Int("total", len(ids)).Msg("users seeded")
	return ids, nil
}

func (s *seeder) seedBooks(ctx context.Context) ([]int64, error) {
	editions := s.fetchEditions(ctx)

	ids := make([]int64, len(seedBooks))
	created := 0
	for i, sb := range seedBooks {
		isbn := httpx.NormalizeISBN(sb.ISBN)
		existing, err := s.books.GetByISBN(ctx, isbn)
		if err == nil {
			ids[i] = existing.ID
			continue
		}
		if !errors.Is(err, book.ErrNotFound) {
			return nil, fmt.Errorf("lookup %s: %w", isbn, err)
		}

		var ed *openlibrary.Edition
		if e, ok := editions[isbn]; ok {
			ed = &e
		}
		b := catalogBook(sb, i, ed)
		if err := s.books.Create(ctx, &b); err != nil {
			return nil, fmt.Errorf("create %q: %w", sb.Title, err)
		}
		ids[i] = b.ID
		created++
	}
	log.Info().Int("created", created).Int("total", len(ids)).Msg("books seeded")
	return ids, nil
}

// fetchEditions returns nothing when enrichment is off or Open Library is
// unreachable; the static data is complete on its own.
func (s *seeder) fetchEditions(ctx context.Context) map[string]openlibrary.Edition {
	if s.lookup == nil {
		return nil
	}
	isbns := make([]string, len(seedBooks))
	for i, sb := range seedBooks {
		isbns[i] = httpx.NormalizeISBN(sb.ISBN)
	}
	eds, err := s.lookup.Editions(ctx, isbns)
	if err != nil {
		log.Warn().Err(err).Msg("open library lookup failed, using static data")
		return nil
	}
	log.Info().Int("found", len(eds)).Msg("open library editions fetched")
	return eds
}

// catalogBook builds the catalog row for the i-th sample book, preferring
// Open Library metadata when ed is set.
func catalogBook(sb seedBook, i int, ed *openlibrary.Edition) book.Book {
	isbn := httpx.NormalizeISBN(sb.ISBN)
	year := 1900 + (i*5)%120
	pages := 200 + (i*50)%400

	b := book.Book{
		Title:           sb.Title,
		Author:          sb.Author,
		ISBN:            isbn,
		Description:     seedDescription,
		Category:        sb.Category,
		Language:        "English",
		CoverImageURL:   openlibrary.CoverURL(isbn, openlibrary.CoverMedium),
		AvailableCopies: sb.Available,
		TotalCopies:     sb.Total,
	}
	if ed != nil {
		b.Publisher = ed.Publisher()
		if y, ok := ed.PublishYear(); ok {
			year = y
		}
		if ed.NumberOfPages > 0 {
			pages = ed.NumberOfPages
		}
	}
	b.PublicationYear = &year
	b.PageCount = &pages
	return b
}

func (s *seeder) seedRatings(ctx context.Context, userIDs, bookIDs []int64) error {
	ratings := seedRatings()
	for _, sr := range ratings {
		if _, err := s.ratings.Rate(ctx, userIDs[sr.User], bookIDs[sr.Book], sr.Score, sr.Review); err != nil {
			return fmt.Errorf("rate book %d: %w", bookIDs[sr.Book], err)
		}
	}
	log.Info().Int("total", len(ratings)).Msg("ratings seeded")
	return nil
}

// seedBorrows only touches users with no borrow history yet.
func (s *seeder) seedBorrows(ctx context.Context, userIDs, bookIDs []int64) error {
	skip := make(map[int]bool, len(userIDs))
	for i, id := range userIDs {
		history, err := s.borrows.History(ctx, id)
		if err != nil {
			return fmt.Errorf("history for user %d: %w", id, err)
		}
		skip[i] = len(history) > 0
	}

	created := 0
	for _, sb := range seedBorrows {
		if skip[sb.User] {
			continue
		}
		userID := userIDs[sb.User]
		rec, err := s.borrows.Borrow(ctx, userID, bookIDs[sb.Book])
		if err != nil {
			return fmt.Errorf("borrow book %d for user %d: %w", bookIDs[sb.Book], userID, err)
		}
		if sb.Returned {
			if _, err := s.borrows.Return(ctx, rec.ID, userID); err != nil {
				return fmt.Errorf("return record %d: %w", rec.ID, err)
			}
		}
		created++
	}
	log.Info().Int("created", created).Msg("borrow records seeded")
	return nil
}
