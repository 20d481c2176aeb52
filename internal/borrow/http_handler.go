package borrow

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

type borrowReq struct {
	BookID int64 `json:"book_id" validate:"required,gt=0"`
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, book.ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Borrow record not found", nil)
	case errors.Is(err, ErrUserNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
	case errors.Is(err, book.ErrNoAvailableCopies):
		httpx.JSONError(w, r, http.StatusConflict, "NO_AVAILABLE_COPIES", "No copies available", nil)
	case errors.Is(err, ErrAlreadyReturned):
		httpx.JSONError(w, r, http.StatusConflict, "ALREADY_RETURNED", "Book already returned", nil)
	case errors.Is(err, ErrBorrowLimit):
		httpx.JSONError(w, r, http.StatusConflict, "BORROW_LIMIT", "Active borrow limit reached", nil)
	default:
		httpx.InternalError(w, r, err)
	}
}

// Borrow handles POST /api/borrows
// @Summary Borrow a book
// @Tags borrows
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body borrowReq true "Book to borrow"
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /api/borrows [post]
func (h *HTTPHandler) Borrow(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == 0 {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	var req borrowReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadJSON(w, r, err)
		return
	}
	if errs := httpx.ValidateStruct(req); errs != nil {
		httpx.ValidationFailed(w, r, errs)
		return
	}

	rec, err := h.service.Borrow(r.Context(), userID, req.BookID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONCreated(w, r, rec)
}

// Return handles POST /api/borrows/{id}/return
// @Summary Return a borrowed book
// @Tags borrows
// @Produce json
// @Security Bearer
// @Param id path int true "Borrow record ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /api/borrows/{id}/return [post]
func (h *HTTPHandler) Return(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == 0 {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}
	recordID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.InvalidID(w, r, "borrow id")
		return
	}

	rec, err := h.service.Return(r.Context(), recordID, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, rec, nil)
}

// History handles GET /api/me/borrows
// @Summary Caller's borrow history
// @Tags borrows
// @Produce json
// @Security Bearer
// @Success 200 {object} httpx.SuccessResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Router /api/me/borrows [get]
func (h *HTTPHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == 0 {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}
	records, err := h.service.History(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, records, map[string]any{"count": len(records)})
}

// Overdue handles GET /api/borrows/overdue
// @Summary Records past their due date
// @Tags borrows
// @Produce json
// @Security Bearer
// @Success 200 {object} httpx.SuccessResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Router /api/borrows/overdue [get]
func (h *HTTPHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.Overdue(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, records, map[string]any{"count": len(records)})
}
