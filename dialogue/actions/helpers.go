// Package actions implements the terminal actions from spec.md §4.1: the
// concrete behaviors the Dialogue Runtime's registry dispatches to by name.
// Each action is a small struct holding the component handles it needs
// (Backend Client, Retrieval Service, LLM Dispatcher, Audit Log) plus a
// function, grounded on the teacher's adapter shape in features/model/* —
// "Options struct + constructor + single capability method".
package actions

import (
	"fmt"

	"github.com/taskforge-ai/dialoguebot/dialogue"
)

func stringEntity(rc *dialogue.RunContext, name string) (string, bool) {
	v, ok := rc.EntityValue(name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func stringSlot(rc *dialogue.RunContext, name string) (string, bool) {
	v, ok := rc.Conversation.SlotValue(name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// firstOf returns the first non-empty of entity[name] and slot[name].
func firstOf(rc *dialogue.RunContext, name string) (string, bool) {
	if v, ok := stringEntity(rc, name); ok && v != "" {
		return v, true
	}
	if v, ok := stringSlot(rc, name); ok && v != "" {
		return v, true
	}
	return "", false
}

func apology(action string, err error) (dialogue.Result, error) {
	return dialogue.Result{}, dialogue.NewActionError(dialogue.ErrorKindUpstreamUnavailable, action, "backend call failed", err)
}

// formatTimesList renders up to six times plus an overflow note, per
// spec.md §4.1 "Get availability": "formats up to the first six times;
// indicates overflow as 'and N more'".
func formatTimesList(times []string) string {
	if len(times) == 0 {
		return "No available times found."
	}
	const max = 6
	shown := times
	overflow := 0
	if len(times) > max {
		shown = times[:max]
		overflow = len(times) - max
	}
	msg := "Available times: " + joinComma(shown)
	if overflow > 0 {
		msg += fmt.Sprintf(", and %d more", overflow)
	}
	return msg
}

func joinComma(xs []string) string {
	out := ""
	for i, x := range xs {
		if i > 0 {
			out += ", "
		}
		out += x
	}
	return out
}
