package transport

import (
	"net/http"
	"strconv"
	"time"
)

// HeaderProcessTime reports handler wall time in seconds.
const HeaderProcessTime = "X-Process-Time"

// SecurityHeaders returns middleware that sets the standard security
// response headers on every response.
func SecurityHeaders() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-XSS-Protection", "1; mode=block")
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			next.ServeHTTP(w, r)
		})
	}
}

// processTimeWriter injects the X-Process-Time header at the moment the
// status line is committed, so the measurement covers the full handler
// (including any buffering stages beneath it).
type processTimeWriter struct {
	http.ResponseWriter
	start time.Time
	wrote bool
}

func (w *processTimeWriter) WriteHeader(code int) {
	if !w.wrote {
		w.wrote = true
		elapsed := time.Since(w.start).Seconds()
		w.Header().Set(HeaderProcessTime, strconv.FormatFloat(elapsed, 'f', -1, 64))
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *processTimeWriter) Write(b []byte) (int, error) {
	if !w.wrote {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// ProcessTime returns middleware that reports request processing time
// in the X-Process-Time response header.
func ProcessTime() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(&processTimeWriter{ResponseWriter: w, start: time.Now()}, r)
		})
	}
}
