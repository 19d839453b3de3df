package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// MetricsMiddleware wraps an HTTP handler to record request metrics.
//
// It captures:
//   - voucherpay_requests_total (counter): incremented per request with method, path group, and status class labels
//   - voucherpay_request_duration_seconds (histogram): request duration with method and path group labels
//   - voucherpay_assistive_requests_total (counter): incremented per assistive technology preference header
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		recordAssistiveHeaders(r)

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		group := pathGroup(r.URL.Path)

		// Build a status class label like "2xx", "4xx", "5xx".
		statusStr := strconv.Itoa(sw.status/100) + "xx"

		RequestsTotal.WithLabelValues(r.Method, group, statusStr).Inc()
		RequestDuration.WithLabelValues(r.Method, group).Observe(duration)
	})
}

// pathGroup reduces a request path to its module group so metric
// cardinality stays bounded: /api/v1/jobs/search -> "jobs".
func pathGroup(path string) string {
	const prefix = "/api/v1/"
	if !strings.HasPrefix(path, prefix) {
		return "root"
	}
	rest := strings.TrimPrefix(path, prefix)
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	if rest == "" {
		return "root"
	}
	return rest
}

// recordAssistiveHeaders counts assistive technology preference headers.
func recordAssistiveHeaders(r *http.Request) {
	for header, tech := range map[string]string{
		"X-Screen-Reader":       "screen_reader",
		"X-High-Contrast":       "high_contrast",
		"X-Reduced-Motion":      "reduced_motion",
		"X-Keyboard-Navigation": "keyboard_navigation",
	} {
		if r.Header.Get(header) == "true" {
			AssistiveRequestsTotal.WithLabelValues(tech).Inc()
		}
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

// WriteHeader captures the status code and delegates to the underlying writer.
func (w *statusWriter) WriteHeader(status int) {
	if !w.written {
		w.status = status
		w.written = true
	}
	w.ResponseWriter.WriteHeader(status)
}

// Write delegates to the underlying writer and marks the status as written.
func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap returns the underlying ResponseWriter, enabling http.ResponseController
// and similar utilities to access the original writer.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
