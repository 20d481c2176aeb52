package recommendation

import (
	"net/http"
	"strings"

	"smartlibrary/internal/httpx"
)

type HTTPHandler struct {
	engine *Engine
}

func NewHTTPHandler(engine *Engine) *HTTPHandler {
	return &HTTPHandler{engine: engine}
}

func listMeta(n, limit int) map[string]any {
	return map[string]any{"count": n, "limit": limit}
}

// ForUser handles GET /api/recommendations/user/{userId}
// @Summary Personal recommendations
// @Tags recommendations
// @Produce json
// @Param userId path int true "User ID"
// @Param limit query int false "Max results (1-50)"
// @Success 200 {object} httpx.SuccessResponse
// @Router /api/recommendations/user/{userId} [get]
func (h *HTTPHandler) ForUser(w http.ResponseWriter, r *http.Request) {
	userID, err := httpx.PathID(r, "userId")
	if err != nil {
		httpx.InvalidID(w, r, "user id")
		return
	}
	limit := httpx.QueryLimit(r, DefaultUserLimit)

	books, err := h.engine.RecommendationsForUser(r.Context(), userID, limit)
	if err != nil {
		httpx.InternalError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, books, listMeta(len(books), limit))
}

// Similar handles GET /api/recommendations/similar/{bookId}
// @Summary Books similar to a book
// @Tags recommendations
// @Produce json
// @Param bookId path int true "Book ID"
// @Param limit query int false "Max results (1-50)"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /api/recommendations/similar/{bookId} [get]
func (h *HTTPHandler) Similar(w http.ResponseWriter, r *http.Request) {
	bookID, err := httpx.PathID(r, "bookId")
	if err != nil {
		httpx.InvalidID(w, r, "book id")
		return
	}
	limit := httpx.QueryLimit(r, DefaultSimilarLimit)

	books, err := h.engine.SimilarBooks(r.Context(), bookID, limit)
	if err != nil {
		httpx.InternalError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, books, listMeta(len(books), limit))
}

// Trending handles GET /api/recommendations/trending
// @Summary Top rated books
// @Tags recommendations
// @Produce json
// @Param limit query int false "Max results (1-50)"
// @Success 200 {object} httpx.SuccessResponse
// @Router /api/recommendations/trending [get]
func (h *HTTPHandler) Trending(w http.ResponseWriter, r *http.Request) {
	limit := httpx.QueryLimit(r, DefaultListLimit)
	books, err := h.engine.TrendingBooks(r.Context(), limit)
	if err != nil {
		httpx.InternalError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, books, listMeta(len(books), limit))
}

// NewArrivals handles GET /api/recommendations/new-arrivals
// @Summary Most recently added books
// @Tags recommendations
// @Produce json
// @Param limit query int false "Max results (1-50)"
// @Success 200 {object} httpx.SuccessResponse
// @Router /api/recommendations/new-arrivals [get]
func (h *HTTPHandler) NewArrivals(w http.ResponseWriter, r *http.Request) {
	limit := httpx.QueryLimit(r, DefaultListLimit)
	books, err := h.engine.NewArrivals(r.Context(), limit)
	if err != nil {
		httpx.InternalError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, books, listMeta(len(books), limit))
}

// Popular handles GET /api/recommendations/popular/{category}
// @Summary Top rated books in a category
// @Tags recommendations
// @Produce json
// @Param category path string true "Category"
// @Param limit query int false "Max results (1-50)"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /api/recommendations/popular/{category} [get]
func (h *HTTPHandler) Popular(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.PathValue("category"))
	if category == "" {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_CATEGORY", "Category is required", nil)
		return
	}
	limit := httpx.QueryLimit(r, DefaultListLimit)

	books, err := h.engine.PopularInCategory(r.Context(), category, limit)
	if err != nil {
		httpx.InternalError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, books, listMeta(len(books), limit))
}

// Dashboard handles GET /api/recommendations/dashboard/{userId}
// @Summary Home page dashboard
// @Tags recommendations
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {object} httpx.SuccessResponse
// @Router /api/recommendations/dashboard/{userId} [get]
func (h *HTTPHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, err := httpx.PathID(r, "userId")
	if err != nil {
		httpx.InvalidID(w, r, "user id")
		return
	}
	d, err := h.engine.Dashboard(r.Context(), userID)
	if err != nil {
		httpx.InternalError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, d, nil)
}
