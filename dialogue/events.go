package dialogue

// EventType discriminates the closed set of events an action may produce.
// Events are modeled as a tagged struct rather than an interface hierarchy
// (grounded on the teacher's hooks.Event) so a turn's event log can be
// diffed, serialized, and replayed for the idempotence property in
// spec.md §8: applying the same event list twice must yield the same state.
type EventType string

const (
	EventSetSlot        EventType = "set_slot"
	EventResetAllSlots  EventType = "reset_all_slots"
	EventFollowupAction EventType = "followup_action"
	EventActivateForm   EventType = "activate_form"
	EventDeactivateForm EventType = "deactivate_form"
)

// Event is a single state transition emitted by an Action. The runtime
// applies a turn's events atomically, in list order, at turn end.
type Event struct {
	Type EventType

	// SlotName / SlotValue / SlotSource apply to EventSetSlot. A nil SlotValue
	// clears the slot.
	SlotName   string
	SlotValue  any
	SlotSource SlotSource

	// FormName applies to EventActivateForm.
	FormName string

	// ActionName applies to EventFollowupAction.
	ActionName string
}

// SetSlot builds an event that sets or clears a slot.
func SetSlot(name string, value any, source SlotSource) Event {
	return Event{Type: EventSetSlot, SlotName: name, SlotValue: value, SlotSource: source}
}

// ClearSlot builds an event that clears a slot (value <- nil).
func ClearSlot(name string) Event {
	return Event{Type: EventSetSlot, SlotName: name, SlotValue: nil}
}

// ResetAllSlots builds an event that clears every tracked slot.
func ResetAllSlots() Event { return Event{Type: EventResetAllSlots} }

// FollowupAction builds an event requesting that another action run
// immediately within the same turn (e.g. booking conflict -> availability).
func FollowupAction(name string) Event { return Event{Type: EventFollowupAction, ActionName: name} }

// ActivateForm builds an event that makes the named form the conversation's
// active form.
func ActivateForm(name string) Event { return Event{Type: EventActivateForm, FormName: name} }

// DeactivateForm builds an event that clears the conversation's active form.
func DeactivateForm() Event { return Event{Type: EventDeactivateForm} }

// Apply folds a single event into a conversation, returning the updated
// value. Apply never mutates its argument's Slots map in place.
func Apply(conv Conversation, ev Event) Conversation {
	next := conv.Clone()
	switch ev.Type {
	case EventSetSlot:
		if ev.SlotValue == nil {
			delete(next.Slots, ev.SlotName)
		} else {
			next.Slots[ev.SlotName] = Slot{Name: ev.SlotName, Value: ev.SlotValue, Source: ev.SlotSource}
		}
	case EventResetAllSlots:
		next.Slots = make(map[string]Slot)
	case EventActivateForm:
		next.ActiveForm = ev.FormName
	case EventDeactivateForm:
		next.ActiveForm = ""
	case EventFollowupAction:
		// Followup actions are handled by the turn loop, not by state folding.
	}
	return next
}

// ApplyAll folds a sequence of events into a conversation in order. It is
// the basis for the idempotence property: ApplyAll(ApplyAll(c, evs), evs)
// is not generally idempotent for SetSlot events with differing values, but
// applying the SAME event list twice starting from the SAME initial state
// always yields the same final state, since Apply is a pure function of
// (conversation, event).
func ApplyAll(conv Conversation, evs []Event) Conversation {
	for _, ev := range evs {
		conv = Apply(conv, ev)
	}
	return conv
}
