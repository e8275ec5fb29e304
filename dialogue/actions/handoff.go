package actions

import (
	"context"

	"github.com/taskforge-ai/dialoguebot/audit"
	"github.com/taskforge-ai/dialoguebot/dialogue"
)

// Handoff implements spec.md §4.1 "Handoff": logs an audit event, emits a
// structured channel-side event for transports that support side-channel
// data, and always returns a human-readable message with contact options.
type Handoff struct {
	Audit *audit.Log
}

func (a *Handoff) Run(ctx context.Context, rc *dialogue.RunContext) (dialogue.Result, error) {
	botCfg := rc.BotConfig(ctx)

	if a.Audit != nil {
		a.Audit.LogAction(ctx, audit.Event{
			Timestamp:      rc.Now(),
			Action:         "handoff",
			ConversationID: rc.Conversation.ID,
			Status:         audit.StatusLogged,
			Metadata:       map[string]any{"intent": rc.Intent.Name},
		})
	}

	return dialogue.Result{
		Messages: []dialogue.Message{
			dialogue.JSONMessage(map[string]any{
				"event":           "handoff_request",
				"conversation_id": rc.Conversation.ID,
				"context":         rc.Text,
			}),
			dialogue.TextMessage(botCfg.HandoffText),
		},
	}, nil
}

// Reset implements spec.md §4.1 "Reset": clears the explicit list of known
// task/conversation slots to null.
type Reset struct {
	Slots []string
}

var defaultResetSlots = []string{
	"service_type", "booking_date", "booking_time", "customer_name", "customer_email",
	"customer_phone", "booking_id", "current_booking", "meeting_type", "current_meeting",
	"meeting_duration", "party_size", "notes",
}

func (a *Reset) Run(ctx context.Context, rc *dialogue.RunContext) (dialogue.Result, error) {
	slots := a.Slots
	if len(slots) == 0 {
		slots = defaultResetSlots
	}
	events := make([]dialogue.Event, 0, len(slots)+1)
	for _, s := range slots {
		events = append(events, dialogue.ClearSlot(s))
	}
	events = append(events, dialogue.DeactivateForm())
	return dialogue.Result{
		Events:   events,
		Messages: []dialogue.Message{dialogue.TextMessage("Okay, I've cleared what we had going. What would you like to do?")},
	}, nil
}
