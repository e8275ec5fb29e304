package dialogue

import (
	"strings"
	"time"

	"github.com/taskforge-ai/dialoguebot/config"
	"github.com/taskforge-ai/dialoguebot/dialogue/validators"
)

// FormState names one point in the form state machine that drives a
// multi-slot task to completion (spec.md §4.1): Inactive (no form running),
// RequestingSlot (a prompt was just sent for a specific slot), ValidatingSlot
// (the user's last reply is being checked against that slot's validator),
// and Completed (every required slot is filled and the terminal action has
// run). The Runtime derives the current FormState from Conversation rather
// than tracking it as separate mutable state, keeping the machine pure.
type FormState string

const (
	FormStateInactive       FormState = "inactive"
	FormStateRequestingSlot FormState = "requesting_slot"
	FormStateValidatingSlot FormState = "validating_slot"
	FormStateCompleted      FormState = "completed"
)

// FormSpec describes one multi-turn, slot-filling form: its terminal action
// and any slots it always needs beyond whatever the active TaskConfig
// requires (spec.md §4.1 Required-slot resolution).
type FormSpec struct {
	Name           string
	TerminalAction string
	MinimumSlots   []string
}

// RequiredSlots computes the full required-slot list for one turn: the
// union of the form's MinimumSlots and the task config's RequiredFields
// mapped through config.RequiredSlotMapping, in a stable order with
// duplicates removed (spec.md §4.1 Required-slot resolution: "the union of
// (a) the form's minimum slots and (b) TaskConfig.RequiredFields mapped via
// RequiredSlotMapping; recomputed every turn, never cached on the
// conversation").
func RequiredSlots(form FormSpec, task config.TaskConfig) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(slot string) {
		if slot == "" {
			return
		}
		if _, ok := seen[slot]; ok {
			return
		}
		seen[slot] = struct{}{}
		out = append(out, slot)
	}
	for _, s := range form.MinimumSlots {
		add(s)
	}
	for _, field := range task.RequiredFields {
		add(config.RequiredSlotMapping[field])
	}
	return out
}

// NextMissingSlot returns the first required slot (in order) not yet set on
// conv, and true. If every required slot is filled, it returns ("", false).
func NextMissingSlot(conv Conversation, required []string) (string, bool) {
	for _, slot := range required {
		if _, ok := conv.SlotValue(slot); !ok {
			return slot, true
		}
	}
	return "", false
}

// CurrentFormState derives the form state machine's current position from
// conv and the form's required-slot list. It never reads or writes
// conversation state beyond Slots and ActiveForm.
func CurrentFormState(conv Conversation, form FormSpec, task config.TaskConfig) (FormState, string) {
	if conv.ActiveForm != form.Name {
		return FormStateInactive, ""
	}
	required := RequiredSlots(form, task)
	if slot, missing := NextMissingSlot(conv, required); missing {
		return FormStateRequestingSlot, slot
	}
	return FormStateCompleted, ""
}

// ValidateSlot runs the spec.md §4.6 validator for slotName against
// candidate, given the form's task config and the current time. The
// meeting form uses the fixed meeting-hours window for booking_time rather
// than the task's business hours; slots with no listed validator pass the
// candidate through unchanged.
func ValidateSlot(form FormSpec, slotName, candidate string, task config.TaskConfig, now time.Time) (string, string) {
	switch slotName {
	case "service_type":
		return validators.ServiceType(candidate, task.Services)
	case "meeting_type":
		return validateMeetingType(candidate, task.MeetingTypes)
	case "booking_date":
		return validators.BookingDate(candidate, now, task.BookingWindowDays, task.BlockedDates)
	case "booking_time":
		if form.Name == formScheduleMeeting {
			return validators.MeetingTime(candidate)
		}
		return validators.BookingTime(candidate, task.BusinessHours)
	case "meeting_duration":
		return validators.MeetingDuration(candidate, nil)
	case "customer_email", "attendee_email":
		return validators.Email(candidate)
	case "customer_phone":
		return validators.Phone(candidate)
	case "customer_name":
		return validators.CustomerName(candidate)
	case "booking_id":
		return validators.BookingID(candidate)
	default:
		return candidate, ""
	}
}

const formScheduleMeeting = "schedule_meeting"

func validateMeetingType(candidate string, types []config.MeetingType) (string, string) {
	c := strings.ToLower(strings.TrimSpace(candidate))
	if c != "" {
		for _, t := range types {
			if strings.Contains(strings.ToLower(t.Name), c) || strings.Contains(strings.ToLower(t.ID), c) {
				return t.Name, ""
			}
		}
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.Name
	}
	return "", "Please choose one of: " + strings.Join(names, ", ")
}

// optionalValidatedSlots lists slots that are never part of a form's
// required-slot set but still get validated and set when the user supplies
// them unprompted this turn (spec.md §4.6 customer_phone row).
var optionalValidatedSlots = []string{"customer_phone", "attendee_email"}

// slotPrompts are the fixed re-prompt texts for slots whose prompt doesn't
// depend on TaskConfig (spec.md §4.1 "prompting for and validating one
// missing slot per turn").
var slotPrompts = map[string]string{
	"booking_date":     "What date works for you?",
	"booking_time":     "What time works for you?",
	"customer_name":    "Can I get your name?",
	"customer_email":   "What's your email address?",
	"customer_phone":   "What's the best phone number to reach you?",
	"booking_id":       "What's your booking ID?",
	"meeting_duration": "How long would you like to meet: 15 minutes, 30 minutes, or 1 hour?",
}

func promptFor(slotName string, task config.TaskConfig) string {
	switch slotName {
	case "service_type":
		names := make([]string, len(task.Services))
		for i, s := range task.Services {
			names[i] = s.Name
		}
		return "Which service would you like: " + strings.Join(names, ", ") + "?"
	case "meeting_type":
		names := make([]string, len(task.MeetingTypes))
		for i, m := range task.MeetingTypes {
			names[i] = m.Name
		}
		return "Which type of meeting: " + strings.Join(names, ", ") + "?"
	}
	if p, ok := slotPrompts[slotName]; ok {
		return p
	}
	return "Could you provide " + slotName + "?"
}

// candidateForSlot looks for a value to try against slotName: an entity
// extracted this turn under that exact name, or, only for the slot
// currently being requested, the raw user text (spec.md §4.1 "one slot at a
// time" — raw text only ever answers the slot that was just asked for,
// while NLU entities can fill several required slots in a single turn, per
// spec.md §8's booking happy-path scenario).
func candidateForSlot(slotName, requestedSlot string, entities []Entity, text string) (string, SlotSource, bool) {
	for _, e := range entities {
		if e.Name != slotName {
			continue
		}
		if s, ok := e.Value.(string); ok && s != "" {
			return s, SlotSourceEntity, true
		}
	}
	if slotName == requestedSlot && strings.TrimSpace(text) != "" {
		return text, SlotSourceUser, true
	}
	return "", "", false
}

// fillResult is one turn's outcome from FillForm: either the form is now
// complete and ready to dispatch to its terminal action, or it carries the
// message and events produced for this turn alone.
type fillResult struct {
	Events   []Event
	Message  string
	Complete bool
}

// FillForm advances form's slot-filling state machine by one turn (spec.md
// §4.1 Form state machine, Required-slot resolution, §4.6 Validators). It
// validates and sets every required slot this turn's entities supply (or,
// for the single slot currently being requested, the raw text), stopping at
// the first invalid candidate and leaving the form RequestingSlot the same
// slot. Any optionalValidatedSlots candidate present this turn is also
// validated and set, invalid ones silently ignored. When every required
// slot ends up filled, it reports Complete so the caller can dispatch to
// form.TerminalAction within the same turn.
func FillForm(conv Conversation, form FormSpec, task config.TaskConfig, entities []Entity, text string, now time.Time) fillResult {
	required := RequiredSlots(form, task)
	_, requestedSlot := CurrentFormState(conv, form, task)

	var events []Event
	working := conv
	for _, slot := range required {
		if _, ok := working.SlotValue(slot); ok {
			continue
		}
		candidate, source, ok := candidateForSlot(slot, requestedSlot, entities, text)
		if !ok {
			continue
		}
		value, errMsg := ValidateSlot(form, slot, candidate, task, now)
		if errMsg != "" {
			if conv.ActiveForm != form.Name {
				events = append(events, ActivateForm(form.Name))
			}
			return fillResult{Events: events, Message: errMsg}
		}
		ev := SetSlot(slot, value, source)
		events = append(events, ev)
		working = Apply(working, ev)
	}

	for _, slot := range optionalValidatedSlots {
		if _, ok := working.SlotValue(slot); ok {
			continue
		}
		candidate, source, ok := candidateForSlot(slot, "", entities, "")
		if !ok {
			continue
		}
		value, errMsg := ValidateSlot(form, slot, candidate, task, now)
		if errMsg != "" {
			continue
		}
		ev := SetSlot(slot, value, source)
		events = append(events, ev)
		working = Apply(working, ev)
	}

	if missing, ok := NextMissingSlot(working, required); ok {
		if conv.ActiveForm != form.Name {
			events = append(events, ActivateForm(form.Name))
		}
		return fillResult{Events: events, Message: promptFor(missing, task)}
	}
	return fillResult{Events: events, Complete: true}
}
