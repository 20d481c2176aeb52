package httpx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONSuccess_IncludesRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(ContextWithRequestID(req.Context(), "rid-1"))
	w := httptest.NewRecorder()

	JSONSuccess(w, req, map[string]string{"hello": "world"}, NewPageMeta(2, 10, 25))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	meta := body["meta"].(map[string]any)
	assert.Equal(t, "rid-1", meta["request_id"])
	assert.Equal(t, float64(3), meta["total_pages"])
}

func TestJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	JSONError(w, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusNotFound, "NOT_FOUND", "Book not found", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
	assert.Nil(t, body.Meta)
}

func TestNewPageMeta(t *testing.T) {
	assert.Equal(t, PageMeta{Page: 1, PageSize: 12, Total: 0, TotalPages: 0}, NewPageMeta(1, 12, 0))
	assert.Equal(t, 2, NewPageMeta(1, 12, 13).TotalPages)
	assert.Equal(t, 0, NewPageMeta(1, 0, 13).TotalPages)
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	require.NoError(t, DecodeJSON(req, &dst))
	assert.Equal(t, "x", dst.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	assert.True(t, errors.Is(DecodeJSON(req, &dst), ErrEmptyBody))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"unknown":1}`))
	assert.Error(t, DecodeJSON(req, &dst))
}

func TestQueryLimit(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 10},
		{"?limit=5", 5},
		{"?limit=0", 1},
		{"?limit=-3", 1},
		{"?limit=500", 50},
		{"?limit=abc", 10},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/x"+tt.query, nil)
		assert.Equal(t, tt.want, QueryLimit(r, 10), tt.query)
	}
}

func TestPathID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/books/12", nil)
	r.SetPathValue("id", "12")
	id, err := PathID(r, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	r.SetPathValue("id", "nope")
	_, err = PathID(r, "id")
	assert.ErrorIs(t, err, ErrInvalidID)

	r.SetPathValue("id", "0")
	_, err = PathID(r, "id")
	assert.ErrorIs(t, err, ErrInvalidID)
}
