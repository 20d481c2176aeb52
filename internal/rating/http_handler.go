package rating

import (
	"errors"
	"net/http"

	"smartlibrary/internal/book"
	"smartlibrary/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type rateReq struct {
	Score  int    `json:"score" validate:"required,gte=1,lte=5"`
	Review string `json:"review" validate:"max=2000"`
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, book.ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Rating not found", nil)
	case errors.Is(err, ErrInvalidScore):
		httpx.ValidationFailed(w, r, []httpx.ErrorDetail{{Field: "score", Message: err.Error()}})
	default:
		httpx.InternalError(w, r, err)
	}
}

// Rate handles POST /api/books/{id}/ratings
// @Summary Create or replace the caller's rating of a book
// @Tags ratings
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /api/books/{id}/ratings [post]
func (h *HTTPHandler) Rate(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == 0 {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	bookID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.InvalidID(w, r, "book id")
		return
	}

	var req rateReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadJSON(w, r, err)
		return
	}
	if errs := httpx.ValidateStruct(req); errs != nil {
		httpx.ValidationFailed(w, r, errs)
		return
	}

	rt, err := h.service.Rate(r.Context(), userID, bookID, req.Score, req.Review)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, rt, nil)
}

// ListByBook handles GET /api/books/{id}/ratings
// @Summary Ratings of a book
// @Tags ratings
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /api/books/{id}/ratings [get]
func (h *HTTPHandler) ListByBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.InvalidID(w, r, "book id")
		return
	}
	ratings, err := h.service.ListByBook(r.Context(), bookID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, ratings, map[string]any{"count": len(ratings)})
}

// Reviews handles GET /api/books/{id}/reviews
// @Summary Ratings of a book with review text
// @Tags ratings
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /api/books/{id}/reviews [get]
func (h *HTTPHandler) Reviews(w http.ResponseWriter, r *http.Request) {
	bookID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.InvalidID(w, r, "book id")
		return
	}
	reviews, err := h.service.Reviews(r.Context(), bookID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, reviews, map[string]any{"count": len(reviews)})
}

// ListByUser handles GET /api/users/{id}/ratings
// @Summary Ratings given by a user
// @Tags ratings
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /api/users/{id}/ratings [get]
func (h *HTTPHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.InvalidID(w, r, "user id")
		return
	}
	ratings, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, ratings, map[string]any{"count": len(ratings)})
}

// Mine handles GET /api/books/{id}/my-rating
// @Summary Get the caller's rating of a book
// @Tags ratings
// @Produce json
// @Security Bearer
// @Param id path int true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /api/books/{id}/my-rating [get]
func (h *HTTPHandler) Mine(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == 0 {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}
	bookID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.InvalidID(w, r, "book id")
		return
	}
	rt, err := h.service.Get(r.Context(), userID, bookID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, rt, nil)
}
