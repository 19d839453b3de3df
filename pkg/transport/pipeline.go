package transport

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/voucherpay/enterprise/pkg/accessibility"
	"github.com/voucherpay/enterprise/pkg/analytics"
)

// captureWriter buffers the response so post-handler stages can rewrite
// the body and headers before anything reaches the client. Header
// mutations go straight to the underlying writer's header map, which is
// safe until flush commits the status line.
type captureWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *captureWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
}

func (w *captureWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(b)
}

// flush writes the buffered response to the client. Content-Length is
// recomputed because enrichment may have changed the body.
func (w *captureWriter) flush(body []byte) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	if len(body) > 0 {
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	} else {
		w.Header().Del("Content-Length")
	}
	w.ResponseWriter.WriteHeader(w.status)
	if len(body) > 0 {
		w.ResponseWriter.Write(body)
	}
}

// PrincipalFunc resolves the authenticated subject and tenant for
// analytics attribution. Wired at startup to avoid coupling the
// transport layer to the auth package.
type PrincipalFunc func(ctx context.Context) (subject, tenant string)

// Pipeline runs every request through three stages around the handler:
//
//  1. extract: parse accessibility preference headers into the context
//  2. enrich: after the handler, inject accessibility metadata into JSON
//     object bodies and set accessibility response headers
//  3. observe: derive one analytics event and hand it to the emitter
//
// A fault in any post-handler stage degrades that stage only; the
// client always receives the handler's response.
type Pipeline struct {
	enricher  *accessibility.Enricher
	emitter   *analytics.Emitter
	principal PrincipalFunc
	seed      func(context.Context) context.Context
	logger    *slog.Logger
	clock     func() time.Time
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithPrincipalFunc sets the principal resolver for analytics attribution.
func WithPrincipalFunc(fn PrincipalFunc) PipelineOption {
	return func(p *Pipeline) { p.principal = fn }
}

// WithContextSeed installs a function that prepares the request context
// before inner middleware runs. The pipeline wraps the auth layer so
// that rejected requests are still enriched and observed; the seed lets
// inner stages publish the resolved identity back out for attribution.
func WithContextSeed(fn func(context.Context) context.Context) PipelineOption {
	return func(p *Pipeline) { p.seed = fn }
}

// WithClock overrides the pipeline's time source.
func WithClock(clock func() time.Time) PipelineOption {
	return func(p *Pipeline) { p.clock = clock }
}

// NewPipeline creates a pipeline. The emitter may be nil to disable
// analytics derivation.
func NewPipeline(enricher *accessibility.Enricher, emitter *analytics.Emitter, logger *slog.Logger, opts ...PipelineOption) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		enricher: enricher,
		emitter:  emitter,
		logger:   logger,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Middleware returns the pipeline as composable middleware.
func (p *Pipeline) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := p.clock()

			ac := accessibility.FromRequest(r)
			ctx := accessibility.NewContext(r.Context(), ac)
			if p.seed != nil {
				ctx = p.seed(ctx)
			}
			r = r.WithContext(ctx)

			cw := &captureWriter{ResponseWriter: w}
			next.ServeHTTP(cw, r)

			// A cancelled request gets its buffered bytes as-is:
			// the client is gone, enrichment and analytics would
			// be wasted work.
			if ctx.Err() != nil {
				cw.flush(cw.body.Bytes())
				return
			}

			body := p.enrich(cw, ac)
			cw.flush(body)

			p.observe(r, ac, cw.status, p.clock().Sub(start))
		})
	}
}

// enrich applies body enrichment and accessibility headers. A panic in
// the enricher falls back to the unmodified body.
func (p *Pipeline) enrich(cw *captureWriter, ac accessibility.Context) (body []byte) {
	body = cw.body.Bytes()
	if p.enricher == nil {
		return body
	}
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Error("enrichment stage panicked", "panic", rec)
			body = cw.body.Bytes()
		}
	}()

	p.enricher.ApplyHeaders(cw.Header(), ac)
	if enriched, changed := p.enricher.EnrichBody(body, ac); changed {
		body = enriched
	}
	return body
}

// observe derives the analytics event for a completed request.
func (p *Pipeline) observe(r *http.Request, ac accessibility.Context, status int, elapsed time.Duration) {
	if p.emitter == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Error("analytics stage panicked", "panic", rec)
		}
	}()

	ev := analytics.Derive(r.Method, r.URL.Path, r.URL.RawQuery, ac, status, elapsed, p.clock())
	ev.RequestID = RequestIDFromContext(r.Context())
	ev.SessionID = r.Header.Get(accessibility.HeaderSessionID)
	ev.RemoteAddr = r.RemoteAddr
	if p.principal != nil {
		ev.Subject, ev.TenantID = p.principal(r.Context())
	}
	p.emitter.Emit(ev)
}
