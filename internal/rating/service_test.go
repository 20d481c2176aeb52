package rating

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"smartlibrary/internal/book"
	"smartlibrary/internal/httpx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Upsert(ctx context.Context, r *Rating) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *mockRepo) Get(ctx context.Context, userID, bookID int64) (Rating, error) {
	args := m.Called(ctx, userID, bookID)
	return args.Get(0).(Rating), args.Error(1)
}

func (m *mockRepo) ListByBook(ctx context.Context, bookID int64) ([]Rating, error) {
	args := m.Called(ctx, bookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Rating), args.Error(1)
}

func (m *mockRepo) ListByUser(ctx context.Context, userID int64) ([]Rating, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Rating), args.Error(1)
}

func (m *mockRepo) Reviews(ctx context.Context, bookID int64) ([]Rating, error) {
	args := m.Called(ctx, bookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Rating), args.Error(1)
}

func (m *mockRepo) Aggregate(ctx context.Context, bookID int64) (*float64, int, error) {
	args := m.Called(ctx, bookID)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).(*float64), args.Int(1), args.Error(2)
}

type mockBooks struct {
	mock.Mock
}

func (m *mockBooks) GetByID(ctx context.Context, id int64) (book.Book, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(book.Book), args.Error(1)
}

func (m *mockBooks) UpdateRating(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestService_Rate(t *testing.T) {
	ctx := context.Background()

	t.Run("upserts then recomputes", func(t *testing.T) {
		repo := new(mockRepo)
		books := new(mockBooks)
		svc := NewService(repo, books)

		books.On("GetByID", ctx, int64(3)).Return(book.Book{ID: 3}, nil)
		repo.On("Upsert", ctx, mock.MatchedBy(func(r *Rating) bool {
			return r.UserID == 1 && r.BookID == 3 && r.Score == 5 && r.Review == "Loved it"
		})).Return(nil)
		books.On("UpdateRating", ctx, int64(3)).Return(nil)

		r, err := svc.Rate(ctx, 1, 3, 5, "  Loved it ")
		require.NoError(t, err)
		assert.Equal(t, 5, r.Score)
		repo.AssertExpectations(t)
		books.AssertExpectations(t)
	})

	t.Run("score out of range", func(t *testing.T) {
		svc := NewService(new(mockRepo), new(mockBooks))
		_, err := svc.Rate(ctx, 1, 3, 6, "")
		assert.ErrorIs(t, err, ErrInvalidScore)
		_, err = svc.Rate(ctx, 1, 3, 0, "")
		assert.ErrorIs(t, err, ErrInvalidScore)
	})

	t.Run("unknown book", func(t *testing.T) {
		repo := new(mockRepo)
		books := new(mockBooks)
		svc := NewService(repo, books)

		books.On("GetByID", ctx, int64(99)).Return(book.Book{}, book.ErrNotFound)

		_, err := svc.Rate(ctx, 1, 99, 4, "")
		assert.ErrorIs(t, err, book.ErrNotFound)
		repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("recompute failure is reported", func(t *testing.T) {
		repo := new(mockRepo)
		books := new(mockBooks)
		svc := NewService(repo, books)

		books.On("GetByID", ctx, int64(3)).Return(book.Book{ID: 3}, nil)
		repo.On("Upsert", ctx, mock.Anything).Return(nil)
		books.On("UpdateRating", ctx, int64(3)).Return(errors.New("db down"))

		_, err := svc.Rate(ctx, 1, 3, 4, "")
		assert.Error(t, err)
	})
}

func TestHTTPHandler_Rate(t *testing.T) {
	repo := new(mockRepo)
	books := new(mockBooks)
	handler := NewHTTPHandler(NewService(repo, books))

	t.Run("unauthenticated", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/books/3/ratings", strings.NewReader(`{"score":4}`))
		r.SetPathValue("id", "3")
		handler.Rate(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("validation", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/books/3/ratings", strings.NewReader(`{"score":9}`))
		r.SetPathValue("id", "3")
		r = r.WithContext(httpx.ContextWithUser(r.Context(), 1, "USER"))
		handler.Rate(w, r)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("book not found", func(t *testing.T) {
		books.On("GetByID", mock.Anything, int64(404)).Return(book.Book{}, book.ErrNotFound)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/books/404/ratings", strings.NewReader(`{"score":4}`))
		r.SetPathValue("id", "404")
		r = r.WithContext(httpx.ContextWithUser(r.Context(), 1, "USER"))
		handler.Rate(w, r)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("success", func(t *testing.T) {
		books.On("GetByID", mock.Anything, int64(3)).Return(book.Book{ID: 3}, nil)
		repo.On("Upsert", mock.Anything, mock.Anything).Return(nil)
		books.On("UpdateRating", mock.Anything, int64(3)).Return(nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/books/3/ratings", strings.NewReader(`{"score":4,"review":"Solid"}`))
		r.SetPathValue("id", "3")
		r = r.WithContext(httpx.ContextWithUser(r.Context(), 1, "USER"))
		handler.Rate(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestHTTPHandler_Lists(t *testing.T) {
	repo := new(mockRepo)
	handler := NewHTTPHandler(NewService(repo, new(mockBooks)))

	repo.On("ListByBook", mock.Anything, int64(3)).Return([]Rating{{ID: 1, Score: 5}}, nil)
	repo.On("Reviews", mock.Anything, int64(3)).Return([]Rating{}, nil)
	repo.On("ListByUser", mock.Anything, int64(8)).Return(nil, errors.New("db down"))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/books/3/ratings", nil)
	r.SetPathValue("id", "3")
	handler.ListByBook(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/api/books/3/reviews", nil)
	r.SetPathValue("id", "3")
	handler.Reviews(w, r)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/api/users/8/ratings", nil)
	r.SetPathValue("id", "8")
	handler.ListByUser(w, r)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHTTPHandler_Mine(t *testing.T) {
	repo := new(mockRepo)
	handler := NewHTTPHandler(NewService(repo, new(mockBooks)))

	repo.On("Get", mock.Anything, int64(1), int64(3)).Return(Rating{ID: 7, UserID: 1, BookID: 3, Score: 4}, nil)
	repo.On("Get", mock.Anything, int64(1), int64(5)).Return(Rating{}, ErrNotFound)

	tests := []struct {
		name     string
		bookID   string
		userID   int64
		wantCode int
	}{
		{"unauthenticated", "3", 0, http.StatusUnauthorized},
		{"invalid id", "abc", 1, http.StatusBadRequest},
		{"found", "3", 1, http.StatusOK},
		{"not rated yet", "5", 1, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/books/"+tt.bookID+"/my-rating", nil)
			r.SetPathValue("id", tt.bookID)
			if tt.userID != 0 {
				r = r.WithContext(httpx.ContextWithUser(r.Context(), tt.userID, "USER"))
			}
			handler.Mine(w, r)
			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusOK {
				assert.Contains(t, w.Body.String(), `"score":4`)
			}
		})
	}
}
