package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/taskforge-ai/dialoguebot/telemetry"
)

// Sink receives a sanitized Event. Implementations must not retain raw PII;
// sanitization happens once, upstream, in Log.LogAction.
type Sink interface {
	Write(ctx context.Context, event Event) error
}

// FileSink appends one JSON line per event to an io.Writer, grounded on
// spec.md §6's "durable append (database or file)" option — a file is the
// simplest durable backing that needs no extra infrastructure dependency.
type FileSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewFileSink wraps an io.Writer (typically an *os.File opened for append)
// as a durable Sink.
func NewFileSink(w io.Writer) *FileSink {
	return &FileSink{w: w}
}

func (f *FileSink) Write(_ context.Context, event Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	enc := json.NewEncoder(f.w)
	if err := enc.Encode(event); err != nil {
		return fmt.Errorf("audit: file sink write: %w", err)
	}
	return nil
}

// LoggerSink writes each event through the ambient structured logger as the
// "process logger" sink from spec.md §4.7.
type LoggerSink struct {
	logger telemetry.Logger
}

// NewLoggerSink wraps a telemetry.Logger as a Sink.
func NewLoggerSink(logger telemetry.Logger) *LoggerSink {
	return &LoggerSink{logger: logger}
}

func (l *LoggerSink) Write(ctx context.Context, event Event) error {
	l.logger.Info(ctx, "audit event",
		"action", event.Action,
		"conversation_id", event.ConversationID,
		"status", string(event.Status),
		"booking_id", event.BookingID,
		"meeting_id", event.MeetingID,
		"data_hash", event.DataHash,
		"error", event.Error,
	)
	return nil
}
