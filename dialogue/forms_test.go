package dialogue_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taskforge-ai/dialoguebot/config"
	"github.com/taskforge-ai/dialoguebot/dialogue"
)

func TestRequiredSlotsUnionsFormAndTaskConfig(t *testing.T) {
	form := dialogue.FormSpec{Name: "book_service", TerminalAction: "create_booking", MinimumSlots: []string{"service_type"}}
	task := config.TaskConfig{RequiredFields: []string{"date", "time", "name", "email"}}

	got := dialogue.RequiredSlots(form, task)
	require.Equal(t, []string{"service_type", "booking_date", "booking_time", "customer_name", "customer_email"}, got)
}

func TestRequiredSlotsDeduplicates(t *testing.T) {
	form := dialogue.FormSpec{Name: "book_service", MinimumSlots: []string{"booking_date"}}
	task := config.TaskConfig{RequiredFields: []string{"date"}}
	got := dialogue.RequiredSlots(form, task)
	require.Equal(t, []string{"booking_date"}, got)
}

func TestNextMissingSlotReturnsFirstUnfilled(t *testing.T) {
	conv := dialogue.Conversation{Slots: map[string]dialogue.Slot{
		"service_type": {Name: "service_type", Value: "Demo"},
	}}
	slot, ok := dialogue.NextMissingSlot(conv, []string{"service_type", "booking_date", "booking_time"})
	require.True(t, ok)
	require.Equal(t, "booking_date", slot)
}

func TestNextMissingSlotReturnsFalseWhenComplete(t *testing.T) {
	conv := dialogue.Conversation{Slots: map[string]dialogue.Slot{
		"service_type": {Value: "Demo"},
	}}
	_, ok := dialogue.NextMissingSlot(conv, []string{"service_type"})
	require.False(t, ok)
}

func TestCurrentFormStateInactiveWhenNoMatch(t *testing.T) {
	conv := dialogue.Conversation{ActiveForm: "", Slots: map[string]dialogue.Slot{}}
	form := dialogue.FormSpec{Name: "book_service"}
	state, _ := dialogue.CurrentFormState(conv, form, config.TaskConfig{})
	require.Equal(t, dialogue.FormStateInactive, state)
}

func TestCurrentFormStateRequestingSlot(t *testing.T) {
	conv := dialogue.Conversation{ActiveForm: "book_service", Slots: map[string]dialogue.Slot{}}
	form := dialogue.FormSpec{Name: "book_service", MinimumSlots: []string{"service_type"}}
	state, slot := dialogue.CurrentFormState(conv, form, config.TaskConfig{})
	require.Equal(t, dialogue.FormStateRequestingSlot, state)
	require.Equal(t, "service_type", slot)
}

func TestCurrentFormStateCompleted(t *testing.T) {
	conv := dialogue.Conversation{ActiveForm: "book_service", Slots: map[string]dialogue.Slot{
		"service_type": {Value: "Demo"},
	}}
	form := dialogue.FormSpec{Name: "book_service", MinimumSlots: []string{"service_type"}}
	state, _ := dialogue.CurrentFormState(conv, form, config.TaskConfig{})
	require.Equal(t, dialogue.FormStateCompleted, state)
}
