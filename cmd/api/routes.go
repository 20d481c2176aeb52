package main

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"smartlibrary/internal/auth"
	"smartlibrary/internal/book"
	"smartlibrary/internal/borrow"
	"smartlibrary/internal/config"
	"smartlibrary/internal/httpx"
	"smartlibrary/internal/rating"
	"smartlibrary/internal/recommendation"
	"smartlibrary/internal/user"
)

type handlers struct {
	books           *book.HTTPHandler
	ratings         *rating.HTTPHandler
	borrows         *borrow.HTTPHandler
	users           *user.HTTPHandler
	auth            *auth.HTTPHandler
	recommendations *recommendation.HTTPHandler
}

// readiness reports whether dependencies can serve traffic.
type readiness func(ctx context.Context) error

func newRouter(h handlers, jwtSecret string, ready readiness) http.Handler {
	mux := http.NewServeMux()

	authed := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn, httpx.AuthMiddleware(jwtSecret))
	}
	admin := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn, httpx.AuthMiddleware(jwtSecret), httpx.RequireRole(httpx.RoleAdmin))
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONSuccess(w, r, map[string]string{"status": "ok"}, nil)
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := ready(ctx); err != nil {
			httpx.JSONError(w, r, http.StatusServiceUnavailable, "NOT_READY", "Database not ready", nil)
			return
		}
		httpx.JSONSuccess(w, r, map[string]string{"status": "ready"}, nil)
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/auth/register", h.users.Register)
	mux.HandleFunc("POST /api/auth/login", h.auth.Login)
	mux.Handle("GET /api/me", authed(h.users.Me))

	mux.HandleFunc("GET /api/books", h.books.List)
	mux.HandleFunc("GET /api/books/search", h.books.Search)
	mux.HandleFunc("GET /api/books/available", h.books.Available)
	mux.HandleFunc("GET /api/books/top-rated", h.books.TopRated)
	mux.HandleFunc("GET /api/books/categories", h.books.Categories)
	mux.HandleFunc("GET /api/books/languages", h.books.Languages)
	mux.HandleFunc("GET /api/books/publishers", h.books.Publishers)
	mux.HandleFunc("GET /api/books/category/{category}", h.books.ByCategory)
	mux.HandleFunc("GET /api/books/isbn/{isbn}", h.books.GetByISBN)
	mux.HandleFunc("GET /api/books/{id}", h.books.GetByID)
	// one pattern for the per-book views; separate {id}/x patterns would
	// collide with isbn/{isbn} and category/{category}
	mux.Handle("GET /api/books/{id}/{view}", bookViews(h, authed))

	mux.Handle("POST /api/books", admin(h.books.Create))
	mux.Handle("PUT /api/books/{id}", admin(h.books.Update))
	mux.Handle("DELETE /api/books/{id}", admin(h.books.Delete))
	mux.Handle("POST /api/books/{id}/copies/decrease", admin(h.books.DecreaseCopies))
	mux.Handle("POST /api/books/{id}/copies/increase", admin(h.books.IncreaseCopies))

	mux.Handle("POST /api/books/{id}/ratings", authed(h.ratings.Rate))
	mux.HandleFunc("GET /api/users/{id}/ratings", h.ratings.ListByUser)

	mux.Handle("POST /api/borrows", authed(h.borrows.Borrow))
	mux.Handle("POST /api/borrows/{id}/return", authed(h.borrows.Return))
	mux.Handle("GET /api/me/borrows", authed(h.borrows.History))
	mux.Handle("GET /api/borrows/overdue", admin(h.borrows.Overdue))

	mux.HandleFunc("GET /api/recommendations/user/{userId}", h.recommendations.ForUser)
	mux.HandleFunc("GET /api/recommendations/similar/{bookId}", h.recommendations.Similar)
	mux.HandleFunc("GET /api/recommendations/trending", h.recommendations.Trending)
	mux.HandleFunc("GET /api/recommendations/new-arrivals", h.recommendations.NewArrivals)
	mux.HandleFunc("GET /api/recommendations/popular/{category}", h.recommendations.Popular)
	mux.HandleFunc("GET /api/recommendations/dashboard/{userId}", h.recommendations.Dashboard)

	return httpx.MetricsMiddleware(mux)
}

func bookViews(h handlers, authed func(http.HandlerFunc) http.Handler) http.Handler {
	views := map[string]http.Handler{
		"availability": http.HandlerFunc(h.books.Availability),
		"ratings":      http.HandlerFunc(h.ratings.ListByBook),
		"reviews":      http.HandlerFunc(h.ratings.Reviews),
		"my-rating":    authed(h.ratings.Mine),
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		view, ok := views[r.PathValue("view")]
		if !ok {
			httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
			return
		}
		view.ServeHTTP(w, r)
	})
}

// withMiddleware wraps the router in the global chain, outermost first.
func withMiddleware(router http.Handler, cfg config.HTTPConfig, limiter *httpx.RateLimiter) http.Handler {
	return httpx.Chain(router,
		httpx.RecoveryMiddleware,
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware,
		httpx.SecurityHeadersMiddleware(cfg.EnableHSTS),
		httpx.CORSMiddleware(cfg.CORSOrigins),
		limiter.Middleware,
		httpx.RequestSizeLimitMiddleware(cfg.MaxBodyBytes),
	)
}
