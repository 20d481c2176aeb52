package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"smartlibrary/internal/auth"
	"smartlibrary/internal/book"
	"smartlibrary/internal/borrow"
	"smartlibrary/internal/config"
	"smartlibrary/internal/httpx"
	"smartlibrary/internal/logging"
	"smartlibrary/internal/rating"
	"smartlibrary/internal/recommendation"
	"smartlibrary/internal/user"
)

func main() {
	config.LoadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		logging.Init("info", "console")
		log.Fatal().Err(err).Msg("load config")
	}
	logging.Init(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := openDB(ctx, cfg.Database.DSN)
	if err != nil {
		log.Fatal().Err(err).Str("dsn", config.RedactDSN(cfg.Database.DSN)).Msg("connect to database")
	}
	defer pool.Close()

	timeout := cfg.Database.QueryTimeout
	bookRepo := book.NewPostgresRepo(pool, timeout)
	ratingRepo := rating.NewPostgresRepo(pool, timeout)
	borrowRepo := borrow.NewPostgresRepo(pool, timeout)
	userRepo := user.NewPostgresRepo(pool, timeout)

	bookSvc := book.NewService(bookRepo, ratingRepo, book.CacheOptions{Size: cfg.Cache.Size, TTL: cfg.Cache.TTL})
	ratingSvc := rating.NewService(ratingRepo, bookSvc)
	borrowSvc := borrow.NewService(borrowRepo, borrow.Rules{
		LoanDays:         cfg.Library.LoanDays,
		MaxActiveBorrows: cfg.Library.MaxActiveBorrows,
	})
	userSvc := user.NewService(userRepo)
	authSvc := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, userSvc)
	engine := recommendation.NewEngine(bookRepo, borrowSvc)

	router := newRouter(handlers{
		books:           book.NewHTTPHandler(bookSvc),
		ratings:         rating.NewHTTPHandler(ratingSvc),
		borrows:         borrow.NewHTTPHandler(borrowSvc),
		users:           user.NewHTTPHandler(userSvc),
		auth:            auth.NewHTTPHandler(authSvc),
		recommendations: recommendation.NewHTTPHandler(engine),
	}, cfg.Auth.JWTSecret, pool.Ping)

	limiter := httpx.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)
	go limiter.Run(ctx)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      withMiddleware(router, cfg.HTTP, limiter),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("server error")
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func openDB(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	log.Info().Msg("database connection OK")
	return pool, nil
}
