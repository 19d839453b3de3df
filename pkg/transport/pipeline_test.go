package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/voucherpay/enterprise/pkg/accessibility"
	"github.com/voucherpay/enterprise/pkg/analytics"
)

type recordingSink struct {
	events chan analytics.Event
}

func newRecordingSink() *recordingSink {
	return &recordingSink{events: make(chan analytics.Event, 16)}
}

func (s *recordingSink) Emit(_ context.Context, ev analytics.Event) error {
	s.events <- ev
	return nil
}

func (s *recordingSink) Close() error { return nil }

func (s *recordingSink) next(t *testing.T) analytics.Event {
	t.Helper()
	select {
	case ev := <-s.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for analytics event")
		return analytics.Event{}
	}
}

func newTestPipeline(t *testing.T, opts ...PipelineOption) (*Pipeline, *recordingSink) {
	t.Helper()
	sink := newRecordingSink()
	emitter := analytics.NewEmitter(sink, slog.Default(), 0)
	enricher := accessibility.NewEnricher("AA", slog.Default())
	return NewPipeline(enricher, emitter, slog.Default(), opts...), sink
}

func jsonHandler(status int, payload string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(payload))
	})
}

func TestPipelineEnrichesJSONObject(t *testing.T) {
	p, sink := newTestPipeline(t)
	h := p.Middleware()(jsonHandler(http.StatusOK, `{"items":[]}`))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/search", nil)
	req.Header.Set(accessibility.HeaderScreenReader, "true")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if _, ok := body["_accessibility"]; !ok {
		t.Error("response missing _accessibility block")
	}
	if got := rec.Header().Get(accessibility.HeaderCompliant); got != "WCAG-2.1-AA" {
		t.Errorf("%s = %q", accessibility.HeaderCompliant, got)
	}
	if cl := rec.Header().Get("Content-Length"); cl != strconv.Itoa(rec.Body.Len()) {
		t.Errorf("Content-Length %s does not match body length %d", cl, rec.Body.Len())
	}

	ev := sink.next(t)
	if !ev.Features.Jobs {
		t.Errorf("event features = %+v", ev.Features)
	}
	if !ev.BarrierReduced || !ev.OpportunityAccessed {
		t.Errorf("impact indicators: barrier=%v opportunity=%v", ev.BarrierReduced, ev.OpportunityAccessed)
	}
	if ev.Status != http.StatusOK {
		t.Errorf("event status = %d", ev.Status)
	}
}

func TestPipelinePassesNonObjectBodiesThrough(t *testing.T) {
	p, sink := newTestPipeline(t)
	const payload = `[1,2,3]`
	h := p.Middleware()(jsonHandler(http.StatusOK, payload))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users", nil))

	if rec.Body.String() != payload {
		t.Errorf("body rewritten: %q", rec.Body.String())
	}
	sink.next(t)
}

func TestPipelinePreservesStatusCode(t *testing.T) {
	p, sink := newTestPipeline(t)
	h := p.Middleware()(jsonHandler(http.StatusUnprocessableEntity, `{"error":{"message":"Validation error: bad field"}}`))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", nil))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	var errObj map[string]any
	if err := json.Unmarshal(body["error"], &errObj); err != nil {
		t.Fatalf("decoding error object: %v", err)
	}
	if _, ok := errObj["screen_reader_message"]; !ok {
		t.Error("error object missing screen_reader_message")
	}

	ev := sink.next(t)
	if ev.Success {
		t.Error("422 marked as success")
	}
}

func TestPipelineSkipsPostStagesOnCancelledRequest(t *testing.T) {
	p, sink := newTestPipeline(t)
	h := p.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"partial":true}`))
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Body.String() != `{"partial":true}` {
		t.Errorf("cancelled request body rewritten: %q", rec.Body.String())
	}
	select {
	case ev := <-sink.events:
		t.Errorf("unexpected analytics event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPipelineAttributesPrincipal(t *testing.T) {
	principal := func(context.Context) (string, string) { return "user-42", "tenant-a" }
	p, sink := newTestPipeline(t, WithPrincipalFunc(principal))
	h := p.Middleware()(jsonHandler(http.StatusOK, `{}`))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil))

	ev := sink.next(t)
	if ev.Subject != "user-42" || ev.TenantID != "tenant-a" {
		t.Errorf("attribution: subject=%q tenant=%q", ev.Subject, ev.TenantID)
	}
}

func TestPipelineRecordsSessionAndRequestID(t *testing.T) {
	p, sink := newTestPipeline(t)
	h := Chain(RequestID(), p.Middleware())(jsonHandler(http.StatusOK, `{}`))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ai/recommendations", nil)
	req.Header.Set(accessibility.HeaderSessionID, "sess-7")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	ev := sink.next(t)
	if ev.SessionID != "sess-7" {
		t.Errorf("SessionID = %q", ev.SessionID)
	}
	if ev.RequestID == "" {
		t.Error("RequestID not propagated to event")
	}
	if !ev.SupportProvided {
		t.Error("expected support_provided for AI path")
	}
}

func TestPipelineWithoutEmitter(t *testing.T) {
	enricher := accessibility.NewEnricher("AA", slog.Default())
	p := NewPipeline(enricher, nil, slog.Default())
	h := p.Middleware()(jsonHandler(http.StatusOK, `{"ok":true}`))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
