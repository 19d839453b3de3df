// Package transport provides the HTTP layer: middleware composition,
// the accessibility processing pipeline, JSON response helpers, and the
// server lifecycle with graceful shutdown.
//
// The pipeline buffers each response so it can be enriched with
// accessibility metadata after the handler runs but before any bytes
// reach the client. Analytics derivation happens after the flush and
// never delays or fails a response.
//
// # Middleware
//
// Middleware wraps http.Handler with cross-cutting concerns. Built-in
// middleware provides panic recovery, request ID assignment
// (X-Request-ID), security headers, response timing (X-Process-Time),
// and structured logging via log/slog. HTTP serving uses net/http with
// Go 1.22+ ServeMux routing patterns.
package transport
