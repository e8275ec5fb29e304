package audit

import (
	"context"
	"sync"

	"github.com/taskforge-ai/dialoguebot/telemetry"
)

// Log is the Audit Log component: every call to LogAction fans out to all
// registered sinks. Unlike the teacher's fail-fast hooks.Bus (stops at the
// first subscriber error, spec.md deviation documented in DESIGN.md), Log
// always tries every sink and swallows individual failures — spec.md §4.7:
// "Failures in either sink never raise."
type Log struct {
	mu     sync.RWMutex
	sinks  []Sink
	bundle telemetry.Bundle
}

// Options configures a Log.
type Options struct {
	Sinks     []Sink
	Telemetry telemetry.Bundle
}

// New constructs a Log with the given sinks, all written best-effort on
// every LogAction call.
func New(opts Options) *Log {
	bundle := opts.Telemetry
	if bundle.Logger == nil {
		bundle = telemetry.NewNoopBundle()
	}
	sinks := make([]Sink, len(opts.Sinks))
	copy(sinks, opts.Sinks)
	return &Log{sinks: sinks, bundle: bundle}
}

// RegisterSink adds an additional sink at runtime, guarded by a write lock
// since registration is rare relative to LogAction calls.
func (l *Log) RegisterSink(sink Sink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sinks = append(l.sinks, sink)
}

// LogAction sanitizes metadata and writes the resulting Event to every
// registered sink, logging (but never propagating) individual sink errors
// (spec.md §4.7).
func (l *Log) LogAction(ctx context.Context, event Event) {
	event.Metadata = SanitizeMetadata(event.Metadata)

	l.mu.RLock()
	sinks := make([]Sink, len(l.sinks))
	copy(sinks, l.sinks)
	l.mu.RUnlock()

	for _, sink := range sinks {
		if err := sink.Write(ctx, event); err != nil {
			l.bundle.Logger.Warn(ctx, "audit sink write failed", "action", event.Action, "error", err.Error())
			l.bundle.Metrics.IncCounter("audit_sink_write_failure_total", 1)
		}
	}
}
