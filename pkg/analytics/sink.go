package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/voucherpay/enterprise/pkg/observability"
)

// Sink receives derived events. Implementations must be safe for
// concurrent use.
type Sink interface {
	Emit(ctx context.Context, ev Event) error
	Close() error
}

// LogSink writes events to the structured logger. It is the default
// sink when no external pipeline is configured.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink that logs events at info level.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(_ context.Context, ev Event) error {
	s.logger.Info("analytics event",
		"event_type", ev.EventType,
		"method", ev.Method,
		"path", ev.Path,
		"status", ev.Status,
		"duration_ms", ev.Duration.Milliseconds(),
		"assistive_technology", ev.Accessibility.AssistiveTechnology(),
		"features", ev.Features.Count(),
		"barrier_reduced", ev.BarrierReduced,
		"opportunity_accessed", ev.OpportunityAccessed,
		"support_provided", ev.SupportProvided,
	)
	return nil
}

func (s *LogSink) Close() error { return nil }

// DefaultEmitTimeout bounds how long a single emission may take.
const DefaultEmitTimeout = 2 * time.Second

// Emitter dispatches events to a sink asynchronously. Emission failures
// are logged and the event dropped; the request path is never blocked
// or failed by analytics.
type Emitter struct {
	sink    Sink
	logger  *slog.Logger
	timeout time.Duration
}

// NewEmitter wraps a sink. A zero timeout selects DefaultEmitTimeout.
func NewEmitter(sink Sink, logger *slog.Logger, timeout time.Duration) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultEmitTimeout
	}
	return &Emitter{sink: sink, logger: logger, timeout: timeout}
}

// Emit hands the event to the sink in a new goroutine. A panicking sink
// is contained and logged.
func (e *Emitter) Emit(ev Event) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("analytics sink panicked", "panic", r, "path", ev.Path)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()

		if err := e.sink.Emit(ctx, ev); err != nil {
			e.logger.Warn("analytics emit failed", "error", err, "path", ev.Path)
			observability.AnalyticsEventsTotal.WithLabelValues("dropped").Inc()
			return
		}
		observability.AnalyticsEventsTotal.WithLabelValues("emitted").Inc()
	}()
}

// Close releases the underlying sink.
func (e *Emitter) Close() error {
	return e.sink.Close()
}
