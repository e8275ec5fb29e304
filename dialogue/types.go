// Package dialogue implements the dialogue action runtime: the form/slot
// state machine, the action registry, and the task-enablement gate that
// drives a conversation to completion turn by turn.
package dialogue

import "time"

// SlotSource records where a slot value came from.
type SlotSource string

const (
	SlotSourceUser   SlotSource = "user"
	SlotSourceEntity SlotSource = "entity"
	SlotSourceAction SlotSource = "action"
)

// Slot is a single named, typed value tracked for a conversation.
type Slot struct {
	Name   string
	Value  any
	Source SlotSource
}

// Conversation is the external caller's view of conversation state: an
// opaque id, the active form (if any), and the ordered slot map. The
// Dialogue Runtime owns this struct for the duration of one turn only; the
// NLU front-end is the system of record across turns (spec.md §3, §5).
type Conversation struct {
	ID         string
	ActiveForm string // empty means no active form
	Slots      map[string]Slot
}

// Clone returns a deep-enough copy of the conversation so validators and
// actions never mutate the caller's state directly; they return events
// instead (spec.md §3 Ownership).
func (c Conversation) Clone() Conversation {
	cp := Conversation{ID: c.ID, ActiveForm: c.ActiveForm, Slots: make(map[string]Slot, len(c.Slots))}
	for k, v := range c.Slots {
		cp.Slots[k] = v
	}
	return cp
}

// SlotValue returns the slot's value and whether it is set.
func (c Conversation) SlotValue(name string) (any, bool) {
	s, ok := c.Slots[name]
	if !ok {
		return nil, false
	}
	return s.Value, true
}

// Entity is a single NLU-extracted entity for the current turn.
type Entity struct {
	Name  string
	Value any
}

// Intent is the NLU classifier's output for the current turn.
type Intent struct {
	Name       string
	Confidence float64
}

// TurnInput is the upstream event delivered by the NLU front-end for one
// conversation turn (spec.md §6 Upstream).
type TurnInput struct {
	SenderID     string
	Text         string
	Intent       Intent
	Entities     []Entity
	Conversation Conversation
	Channel      string
}

// TurnOutput is the ordered list of user-facing messages plus the event log
// produced by resolving one turn, and the conversation snapshot after those
// events have been folded in. The NLU front-end persists Conversation as the
// system of record for the next turn (spec.md §5).
type TurnOutput struct {
	Messages     []Message
	Events       []Event
	Conversation Conversation
}

// MessageKind distinguishes plain text from structured side-channel blobs
// (used by the handoff action, spec.md §4.1).
type MessageKind string

const (
	MessageKindText MessageKind = "text"
	MessageKindJSON MessageKind = "json"
)

// Message is a single unit of output returned to the NLU front-end.
type Message struct {
	Kind MessageKind
	Text string
	JSON map[string]any
}

// TextMessage builds a plain-text Message.
func TextMessage(text string) Message { return Message{Kind: MessageKindText, Text: text} }

// JSONMessage builds a structured side-channel Message.
func JSONMessage(payload map[string]any) Message { return Message{Kind: MessageKindJSON, JSON: payload} }

// BookingStatus enumerates the lifecycle states of a booking or meeting as
// reported by the backend.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking mirrors the backend's booking/meeting resource (spec.md §3).
type Booking struct {
	ID       string
	Status   BookingStatus
	Date     string // YYYY-MM-DD
	Time     string // HH:MM
	Service  string
	Contact  string
	Created  time.Time
}
