// Package telemetry provides the ambient logging, metrics, and tracing
// interfaces shared by every component of the dialogue runtime. Implementations
// are intentionally small so production code can delegate to Clue/OpenTelemetry
// while tests substitute lightweight no-op stubs.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Logger captures structured logging used throughout the runtime.
type Logger interface {
	Debug(ctx context.Context, msg string, keyvals ...any)
	Info(ctx context.Context, msg string, keyvals ...any)
	Warn(ctx context.Context, msg string, keyvals ...any)
	Error(ctx context.Context, msg string, keyvals ...any)
}

// Metrics exposes counter, timer, and gauge helpers for runtime instrumentation.
type Metrics interface {
	IncCounter(name string, value float64, tags ...string)
	RecordTimer(name string, duration time.Duration, tags ...string)
	RecordGauge(name string, value float64, tags ...string)
}

// Tracer abstracts span creation so runtime code stays agnostic of the
// underlying OpenTelemetry provider.
type Tracer interface {
	Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span)
	Span(ctx context.Context) Span
}

// Span represents an in-flight tracing span.
type Span interface {
	End(opts ...trace.SpanEndOption)
	AddEvent(name string, attrs ...any)
	SetStatus(code codes.Code, description string)
	RecordError(err error, opts ...trace.EventOption)
}

// Bundle groups the three ambient facilities so components can accept a
// single argument instead of three. A zero Bundle is not valid; use
// NewNoopBundle for tests.
type Bundle struct {
	Logger  Logger
	Metrics Metrics
	Tracer  Tracer
}

// NewNoopBundle returns a Bundle wired to the no-op implementations, suitable
// for unit tests and command-line tools that do not export telemetry.
func NewNoopBundle() Bundle {
	return Bundle{Logger: NewNoopLogger(), Metrics: NewNoopMetrics(), Tracer: NewNoopTracer()}
}
