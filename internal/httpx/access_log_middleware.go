package httpx

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// userSlot lets handlers deeper in the chain report the authenticated user
// back to the access log.
type userSlot struct{ id int64 }

const userSlotKey contextKey = "userSlot"

func AccessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := wrapResponseWriter(w)
		slot := &userSlot{}
		r = r.WithContext(contextWithUserSlot(r.Context(), slot))

		next.ServeHTTP(rw, r)

		ev := zerolog.Ctx(r.Context()).Info()
		if rw.statusCode >= http.StatusInternalServerError {
			ev = zerolog.Ctx(r.Context()).Warn()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.statusCode).
			Int64("bytes", rw.bytesWritten).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Int64("user_id", slot.id).
			Msg("access")
	})
}
