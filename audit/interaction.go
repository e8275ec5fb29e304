package audit

import (
	"context"

	"github.com/taskforge-ai/dialoguebot/telemetry"
)

// InteractionSink receives InteractionEvents. Kept separate from Sink so a
// high-volume path (every turn) never shares storage or failure modes with
// the lower-volume action audit path (spec.md §4.7).
type InteractionSink interface {
	WriteInteraction(ctx context.Context, event InteractionEvent) error
}

// InteractionLog is the high-volume companion to Log: one record per turn,
// shape-only, no content (spec.md §4.7).
type InteractionLog struct {
	sink   InteractionSink
	bundle telemetry.Bundle
}

// NewInteractionLog constructs an InteractionLog writing to sink.
func NewInteractionLog(sink InteractionSink, bundle telemetry.Bundle) *InteractionLog {
	if bundle.Logger == nil {
		bundle = telemetry.NewNoopBundle()
	}
	return &InteractionLog{sink: sink, bundle: bundle}
}

// LogInteraction rounds confidence to three decimals and writes the record,
// best-effort like the action audit path.
func (l *InteractionLog) LogInteraction(ctx context.Context, event InteractionEvent) {
	event.Confidence = RoundConfidence(event.Confidence)
	if l.sink == nil {
		return
	}
	if err := l.sink.WriteInteraction(ctx, event); err != nil {
		l.bundle.Logger.Warn(ctx, "interaction log write failed", "error", err.Error())
	}
}

// LoggerInteractionSink writes interaction events through the ambient
// structured logger, for deployments without a dedicated interaction store.
type LoggerInteractionSink struct {
	logger telemetry.Logger
}

// NewLoggerInteractionSink wraps a telemetry.Logger as an InteractionSink.
func NewLoggerInteractionSink(logger telemetry.Logger) *LoggerInteractionSink {
	return &LoggerInteractionSink{logger: logger}
}

func (s *LoggerInteractionSink) WriteInteraction(ctx context.Context, event InteractionEvent) error {
	s.logger.Info(ctx, "interaction",
		"conversation_id", event.ConversationID,
		"intent", event.Intent,
		"confidence", event.Confidence,
		"entity_count", event.EntityCount,
		"filled_important_slots", event.FilledImportantSlots,
	)
	return nil
}
