package borrow

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartlibrary/internal/book"
	"smartlibrary/internal/httpx"
)

func newTestHandler(t *testing.T) (*HTTPHandler, *MockRepository) {
	svc, repo := newTestService(t, DefaultRules)
	return NewHTTPHandler(svc), repo
}

func asUser(r *http.Request, id int64) *http.Request {
	return r.WithContext(httpx.ContextWithUser(r.Context(), id, "USER"))
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestHTTPHandler_Borrow(t *testing.T) {
	handler, repo := newTestHandler(t)

	t.Run("created", func(t *testing.T) {
		repo.EXPECT().Checkout(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, rec *Record, _ int) error {
			rec.ID = 3
			return nil
		})

		w := httptest.NewRecorder()
		r := asUser(httptest.NewRequest(http.MethodPost, "/api/borrows", strings.NewReader(`{"book_id":2}`)), 1)
		handler.Borrow(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"BORROWED"`)
	})

	t.Run("anonymous", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/borrows", strings.NewReader(`{"book_id":2}`))
		handler.Borrow(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing book id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := asUser(httptest.NewRequest(http.MethodPost, "/api/borrows", strings.NewReader(`{}`)), 1)
		handler.Borrow(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"book missing", book.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"no copies", book.ErrNoAvailableCopies, http.StatusConflict, "NO_AVAILABLE_COPIES"},
		{"limit", ErrBorrowLimit, http.StatusConflict, "BORROW_LIMIT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo.EXPECT().Checkout(gomock.Any(), gomock.Any(), gomock.Any()).Return(tt.err)

			w := httptest.NewRecorder()
			r := asUser(httptest.NewRequest(http.MethodPost, "/api/borrows", strings.NewReader(`{"book_id":2}`)), 1)
			handler.Borrow(w, r)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestHTTPHandler_Return(t *testing.T) {
	handler, repo := newTestHandler(t)

	t.Run("ok", func(t *testing.T) {
		repo.EXPECT().Return(gomock.Any(), int64(4), int64(1), gomock.Any()).Return(Record{ID: 4, Status: StatusReturned}, nil)

		w := httptest.NewRecorder()
		r := asUser(httptest.NewRequest(http.MethodPost, "/api/borrows/4/return", nil), 1)
		r.SetPathValue("id", "4")
		handler.Return(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("already returned", func(t *testing.T) {
		repo.EXPECT().Return(gomock.Any(), int64(4), int64(1), gomock.Any()).Return(Record{}, ErrAlreadyReturned)

		w := httptest.NewRecorder()
		r := asUser(httptest.NewRequest(http.MethodPost, "/api/borrows/4/return", nil), 1)
		r.SetPathValue("id", "4")
		handler.Return(w, r)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "ALREADY_RETURNED", errorCode(t, w))
	})

	t.Run("not owner", func(t *testing.T) {
		repo.EXPECT().Return(gomock.Any(), int64(4), int64(9), gomock.Any()).Return(Record{}, ErrNotFound)

		w := httptest.NewRecorder()
		r := asUser(httptest.NewRequest(http.MethodPost, "/api/borrows/4/return", nil), 9)
		r.SetPathValue("id", "4")
		handler.Return(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := asUser(httptest.NewRequest(http.MethodPost, "/api/borrows/x/return", nil), 1)
		r.SetPathValue("id", "x")
		handler.Return(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHTTPHandler_HistoryAndOverdue(t *testing.T) {
	handler, repo := newTestHandler(t)

	repo.EXPECT().History(gomock.Any(), int64(1)).Return([]Record{{ID: 1, Status: StatusBorrowed}}, nil)
	w := httptest.NewRecorder()
	handler.History(w, asUser(httptest.NewRequest(http.MethodGet, "/api/me/borrows", nil), 1))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
	assert.Contains(t, w.Body.String(), `"overdue":true`)

	repo.EXPECT().Overdue(gomock.Any(), gomock.Any()).Return([]Record{}, nil)
	w = httptest.NewRecorder()
	handler.Overdue(w, httptest.NewRequest(http.MethodGet, "/api/borrows/overdue", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
