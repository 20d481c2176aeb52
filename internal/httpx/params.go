package httpx

import (
	"errors"
	"net/http"
	"strconv"
)

var ErrInvalidID = errors.New("invalid id")

// PathID parses a positive int64 path value.
func PathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// QueryInt returns the integer query parameter or def when absent or malformed.
func QueryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Limit bounds for recommendation style endpoints.
const (
	MinLimit = 1
	MaxLimit = 50
)

// QueryLimit reads ?limit= with a default and clamps it to [MinLimit, MaxLimit].
func QueryLimit(r *http.Request, def int) int {
	return ClampLimit(QueryInt(r, "limit", def))
}

func ClampLimit(n int) int {
	if n < MinLimit {
		return MinLimit
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}

// InvalidID writes the 400 used for malformed path ids.
func InvalidID(w http.ResponseWriter, r *http.Request, name string) {
	JSONError(w, r, http.StatusBadRequest, "INVALID_ID", "Invalid "+name, nil)
}
