package book

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"smartlibrary/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type bookRequest struct {
	Title           string `json:"title" validate:"required,max=255"`
	Author          string `json:"author" validate:"required,max=255"`
	ISBN            string `json:"isbn" validate:"required,isbn"`
	Description     string `json:"description" validate:"max=2000"`
	Category        string `json:"category" validate:"max=100"`
	Publisher       string `json:"publisher" validate:"max=255"`
	Language        string `json:"language" validate:"max=50"`
	CoverImageURL   string `json:"cover_image_url" validate:"omitempty,url,max=500"`
	PublicationYear *int   `json:"publication_year" validate:"omitempty,gte=0,lte=2100"`
	PageCount       *int   `json:"page_count" validate:"omitempty,gte=1"`
	TotalCopies     int    `json:"total_copies" validate:"gte=0"`
	AvailableCopies *int   `json:"available_copies" validate:"omitempty,gte=0"`
}

// toBook defaults available copies to the total when omitted.
func (req bookRequest) toBook() Book {
	available := req.TotalCopies
	if req.AvailableCopies != nil {
		available = *req.AvailableCopies
	}
	return Book{
		Title:           strings.TrimSpace(req.Title),
		Author:          strings.TrimSpace(req.Author),
		ISBN:            httpx.NormalizeISBN(req.ISBN),
		Description:     req.Description,
		Category:        strings.TrimSpace(req.Category),
		Publisher:       strings.TrimSpace(req.Publisher),
		Language:        strings.TrimSpace(req.Language),
		CoverImageURL:   req.CoverImageURL,
		PublicationYear: req.PublicationYear,
		PageCount:       req.PageCount,
		AvailableCopies: available,
		TotalCopies:     req.TotalCopies,
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
	case errors.Is(err, ErrAlreadyExists):
		httpx.JSONError(w, r, http.StatusConflict, "ALREADY_EXISTS", "A book with this ISBN already exists", nil)
	case errors.Is(err, ErrNoAvailableCopies):
		httpx.JSONError(w, r, http.StatusConflict, "NO_AVAILABLE_COPIES", "No copies available", nil)
	case errors.Is(err, ErrInvalidCopies):
		httpx.ValidationFailed(w, r, []httpx.ErrorDetail{{Field: "available_copies", Message: err.Error()}})
	default:
		httpx.InternalError(w, r, err)
	}
}

func pageParams(r *http.Request) (int, int) {
	return httpx.QueryInt(r, "page", 1), httpx.QueryInt(r, "size", DefaultPageSize)
}

func sortParams(r *http.Request, q *Query) {
	values := r.URL.Query()
	q.SortBy = values.Get("sortBy")
	q.SortDir = strings.ToLower(values.Get("sortDir"))
}

// List handles GET /api/books
// @Summary List books
// @Tags books
// @Produce json
// @Param page query int false "Page number"
// @Param size query int false "Page size (1-50)"
// @Param sortBy query string false "Sort column"
// @Param sortDir query string false "asc or desc"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /api/books [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r)
	q := Query{Page: page, Size: size}
	sortParams(r, &q)
	h.respondList(w, r, q)
}

// Search handles GET /api/books/search
// @Summary Search books by text or field filters
// @Tags books
// @Produce json
// @Param q query string false "Free text over title, author, description and category"
// @Param page query int false "Page number"
// @Param size query int false "Page size (1-50)"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /api/books/search [get]
func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	page, size := pageParams(r)

	q := Query{
		Q:             values.Get("q"),
		Title:         values.Get("title"),
		Author:        values.Get("author"),
		Category:      values.Get("category"),
		Language:      values.Get("language"),
		ISBN:          httpx.NormalizeISBN(values.Get("isbn")),
		Publisher:     values.Get("publisher"),
		AvailableOnly: values.Get("availableOnly") == "true",
		Page:          page,
		Size:          size,
	}
	sortParams(r, &q)

	var details []httpx.ErrorDetail
	q.MinYear = parseIntParam(values.Get("minYear"), "minYear", &details)
	q.MaxYear = parseIntParam(values.Get("maxYear"), "maxYear", &details)
	q.MinRating = parseFloatParam(values.Get("minRating"), "minRating", &details)
	q.MaxRating = parseFloatParam(values.Get("maxRating"), "maxRating", &details)
	if len(details) > 0 {
		httpx.ValidationFailed(w, r, details)
		return
	}

	h.respondList(w, r, q)
}

func parseIntParam(raw, name string, details *[]httpx.ErrorDetail) *int {
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*details = append(*details, httpx.ErrorDetail{Field: name, Message: name + " must be an integer"})
		return nil
	}
	return &v
}

func parseFloatParam(raw, name string, details *[]httpx.ErrorDetail) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*details = append(*details, httpx.ErrorDetail{Field: name, Message: name + " must be a number"})
		return nil
	}
	return &v
}

func (h *HTTPHandler) respondList(w http.ResponseWriter, r *http.Request, q Query) {
	q = q.Normalize()
	books, total, err := h.service.List(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, books, httpx.NewPageMeta(q.Page, q.Size, total))
}

// Available handles GET /api/books/available
// @Summary Books with copies on the shelf
// @Tags books
// @Produce json
// @Param page query int false "Page number"
// @Param size query int false "Page size (1-50)"
// @Success 200 {object} httpx.SuccessResponse
// @Router /api/books/available [get]
func (h *HTTPHandler) Available(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r)
	q := Query{Page: page, Size: size}.Normalize()
	books, total, err := h.service.Available(r.Context(), q.Page, q.Size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, books, httpx.NewPageMeta(q.Page, q.Size, total))
}

// TopRated handles GET /api/books/top-rated
// @Summary Books by average rating
// @Tags books
// @Produce json
// @Param page query int false "Page number"
// @Param size query int false "Page size (1-50)"
// @Success 200 {object} httpx.SuccessResponse
// @Router /api/books/top-rated [get]
func (h *HTTPHandler) TopRated(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r)
	q := Query{Page: page, Size: size}.Normalize()
	books, total, err := h.service.TopRated(r.Context(), q.Page, q.Size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, books, httpx.NewPageMeta(q.Page, q.Size, total))
}

// Categories handles GET /api/books/categories
// @Summary Distinct categories
// @Tags books
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Router /api/books/categories [get]
func (h *HTTPHandler) Categories(w http.ResponseWriter, r *http.Request) {
	h.respondDistinct(w, r, h.service.Categories)
}

// Languages handles GET /api/books/languages
// @Summary Distinct languages
// @Tags books
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Router /api/books/languages [get]
func (h *HTTPHandler) Languages(w http.ResponseWriter, r *http.Request) {
	h.respondDistinct(w, r, h.service.Languages)
}

// Publishers handles GET /api/books/publishers
// @Summary Distinct publishers
// @Tags books
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Router /api/books/publishers [get]
func (h *HTTPHandler) Publishers(w http.ResponseWriter, r *http.Request) {
	h.respondDistinct(w, r, h.service.Publishers)
}

func (h *HTTPHandler) respondDistinct(w http.ResponseWriter, r *http.Request, fetch func(ctx context.Context) ([]string, error)) {
	values, err := fetch(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, values, nil)
}

// ByCategory handles GET /api/books/category/{category}
// @Summary Top rated books in a category
// @Tags books
// @Produce json
// @Param category path string true "Category"
// @Param limit query int false "Max results (1-50)"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /api/books/category/{category} [get]
func (h *HTTPHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	books, err := h.service.ByCategory(r.Context(), category, httpx.QueryInt(r, "limit", MaxPageSize))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, books, nil)
}

// GetByISBN handles GET /api/books/isbn/{isbn}
// @Summary Get a book by ISBN
// @Tags books
// @Produce json
// @Param isbn path string true "ISBN-10 or ISBN-13"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /api/books/isbn/{isbn} [get]
func (h *HTTPHandler) GetByISBN(w http.ResponseWriter, r *http.Request) {
	isbn := httpx.NormalizeISBN(r.PathValue("isbn"))
	if isbn == "" {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_ISBN", "ISBN is required", nil)
		return
	}

	book, err := h.service.GetByISBN(r.Context(), isbn)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, book, nil)
}

// GetByID handles GET /api/books/{id}
// @Summary Get a book
// @Tags books
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /api/books/{id} [get]
func (h *HTTPHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.InvalidID(w, r, "book id")
		return
	}
	book, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, book, nil)
}

// Availability handles GET /api/books/{id}/availability
// @Summary Whether a book can be borrowed
// @Tags books
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /api/books/{id}/availability [get]
func (h *HTTPHandler) Availability(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.InvalidID(w, r, "book id")
		return
	}
	available, err := h.service.IsAvailable(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, map[string]any{"book_id": id, "available": available}, nil)
}

func decodeBook(w http.ResponseWriter, r *http.Request) (Book, bool) {
	var req bookRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadJSON(w, r, err)
		return Book{}, false
	}
	if errs := httpx.ValidateStruct(req); errs != nil {
		httpx.ValidationFailed(w, r, errs)
		return Book{}, false
	}
	return req.toBook(), true
}

// Create handles POST /api/books
// @Summary Add a book
// @Tags books
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body bookRequest true "Book"
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /api/books [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	b, ok := decodeBook(w, r)
	if !ok {
		return
	}
	if err := h.service.Create(r.Context(), &b); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONCreated(w, r, b)
}

// Update handles PUT /api/books/{id}
// @Summary Replace a book
// @Tags books
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "Book ID"
// @Param request body bookRequest true "Book"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /api/books/{id} [put]
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.InvalidID(w, r, "book id")
		return
	}
	b, ok := decodeBook(w, r)
	if !ok {
		return
	}
	updated, err := h.service.Update(r.Context(), id, b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, updated, nil)
}

// Delete handles DELETE /api/books/{id}
// @Summary Delete a book
// @Tags books
// @Produce json
// @Security Bearer
// @Param id path int true "Book ID"
// @Success 204
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /api/books/{id} [delete]
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.InvalidID(w, r, "book id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONNoContent(w)
}

// DecreaseCopies handles POST /api/books/{id}/copies/decrease
// @Summary Take one copy off the shelf
// @Tags books
// @Produce json
// @Security Bearer
// @Param id path int true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /api/books/{id}/copies/decrease [post]
func (h *HTTPHandler) DecreaseCopies(w http.ResponseWriter, r *http.Request) {
	h.changeCopies(w, r, h.service.DecreaseAvailableCopies)
}

// IncreaseCopies handles POST /api/books/{id}/copies/increase
// @Summary Put one copy back on the shelf
// @Tags books
// @Produce json
// @Security Bearer
// @Param id path int true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /api/books/{id}/copies/increase [post]
func (h *HTTPHandler) IncreaseCopies(w http.ResponseWriter, r *http.Request) {
	h.changeCopies(w, r, h.service.IncreaseAvailableCopies)
}

func (h *HTTPHandler) changeCopies(w http.ResponseWriter, r *http.Request, change func(ctx context.Context, id int64) error) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.InvalidID(w, r, "book id")
		return
	}
	if err := change(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	book, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, book, nil)
}
