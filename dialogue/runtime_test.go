package dialogue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taskforge-ai/dialoguebot/dialogue"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestHandleTurnRunsRegisteredAction(t *testing.T) {
	rt := dialogue.New(dialogue.Options{Clock: fixedClock(time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC))})
	rt.RegisterAction("greet", dialogue.ActionFunc(func(ctx context.Context, rc *dialogue.RunContext) (dialogue.Result, error) {
		return dialogue.Result{Messages: []dialogue.Message{dialogue.TextMessage("hi")}}, nil
	}))

	out, err := rt.HandleTurn(context.Background(), dialogue.TurnInput{
		Intent:       dialogue.Intent{Name: "greet"},
		Conversation: dialogue.Conversation{ID: "c1", Slots: map[string]dialogue.Slot{}},
	})
	require.NoError(t, err)
	require.Len(t, out.Messages, 1)
	require.Equal(t, "hi", out.Messages[0].Text)
}

func TestHandleTurnAppliesEvents(t *testing.T) {
	rt := dialogue.New(dialogue.Options{Clock: fixedClock(time.Now())})
	rt.RegisterAction("set_name", dialogue.ActionFunc(func(ctx context.Context, rc *dialogue.RunContext) (dialogue.Result, error) {
		return dialogue.Result{Events: []dialogue.Event{dialogue.SetSlot("customer_name", "Jane", dialogue.SlotSourceUser)}}, nil
	}))

	out, err := rt.HandleTurn(context.Background(), dialogue.TurnInput{
		Intent:       dialogue.Intent{Name: "set_name"},
		Conversation: dialogue.Conversation{ID: "c1", Slots: map[string]dialogue.Slot{}},
	})
	require.NoError(t, err)
	v, ok := out.Conversation.SlotValue("customer_name")
	require.True(t, ok)
	require.Equal(t, "Jane", v)
}

func TestHandleTurnUnknownActionProducesApologyNotError(t *testing.T) {
	rt := dialogue.New(dialogue.Options{Clock: fixedClock(time.Now())})
	out, err := rt.HandleTurn(context.Background(), dialogue.TurnInput{
		Intent:       dialogue.Intent{Name: "nope"},
		Conversation: dialogue.Conversation{ID: "c1", Slots: map[string]dialogue.Slot{}},
	})
	require.NoError(t, err)
	require.Len(t, out.Messages, 1)
	require.Contains(t, out.Messages[0].Text, "Sorry")
}

func TestHandleTurnRecoversFromPanic(t *testing.T) {
	rt := dialogue.New(dialogue.Options{Clock: fixedClock(time.Now())})
	rt.RegisterAction("boom", dialogue.ActionFunc(func(ctx context.Context, rc *dialogue.RunContext) (dialogue.Result, error) {
		panic("kaboom")
	}))
	out, err := rt.HandleTurn(context.Background(), dialogue.TurnInput{
		Intent:       dialogue.Intent{Name: "boom"},
		Conversation: dialogue.Conversation{ID: "c1", Slots: map[string]dialogue.Slot{}},
	})
	require.NoError(t, err)
	require.Contains(t, out.Messages[0].Text, "Sorry")
}

func TestHandleTurnChainsFollowupAction(t *testing.T) {
	rt := dialogue.New(dialogue.Options{Clock: fixedClock(time.Now())})
	rt.RegisterAction("book", dialogue.ActionFunc(func(ctx context.Context, rc *dialogue.RunContext) (dialogue.Result, error) {
		return dialogue.Result{
			Events:   []dialogue.Event{dialogue.FollowupAction("availability")},
			Messages: []dialogue.Message{dialogue.TextMessage("conflict")},
		}, nil
	}))
	rt.RegisterAction("availability", dialogue.ActionFunc(func(ctx context.Context, rc *dialogue.RunContext) (dialogue.Result, error) {
		return dialogue.Result{Messages: []dialogue.Message{dialogue.TextMessage("9am, 10am")}}, nil
	}))

	out, err := rt.HandleTurn(context.Background(), dialogue.TurnInput{
		Intent:       dialogue.Intent{Name: "book"},
		Conversation: dialogue.Conversation{ID: "c1", Slots: map[string]dialogue.Slot{}},
	})
	require.NoError(t, err)
	require.Len(t, out.Messages, 2)
	require.Equal(t, "conflict", out.Messages[0].Text)
	require.Equal(t, "9am, 10am", out.Messages[1].Text)
}

func TestResolveActionNameUsesActiveFormTerminalAction(t *testing.T) {
	rt := dialogue.New(dialogue.Options{Clock: fixedClock(time.Now())})
	rt.RegisterForm(dialogue.FormSpec{Name: "book_service", TerminalAction: "create_booking"})
	rt.RegisterAction("create_booking", dialogue.ActionFunc(func(ctx context.Context, rc *dialogue.RunContext) (dialogue.Result, error) {
		return dialogue.Result{Messages: []dialogue.Message{dialogue.TextMessage("booked")}}, nil
	}))

	conv := dialogue.Conversation{ID: "c1", ActiveForm: "book_service", Slots: map[string]dialogue.Slot{
		"booking_date":   {Name: "booking_date", Value: "2025-06-11"},
		"booking_time":   {Name: "booking_time", Value: "14:00"},
		"customer_name":  {Name: "customer_name", Value: "Jane Doe"},
		"customer_email": {Name: "customer_email", Value: "jane@example.com"},
	}}

	out, err := rt.HandleTurn(context.Background(), dialogue.TurnInput{
		Intent:       dialogue.Intent{Name: "inform"},
		Conversation: conv,
	})
	require.NoError(t, err)
	require.Equal(t, "booked", out.Messages[0].Text)
	require.Empty(t, out.Conversation.ActiveForm)
}

func TestHandleTurnFillsMultipleSlotsFromOneTurnAndDispatches(t *testing.T) {
	rt := dialogue.New(dialogue.Options{Clock: fixedClock(time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC))})
	rt.RegisterForm(dialogue.FormSpec{Name: "book_service", TerminalAction: "create_booking", MinimumSlots: []string{"service_type"}})
	rt.RegisterAction("create_booking", dialogue.ActionFunc(func(ctx context.Context, rc *dialogue.RunContext) (dialogue.Result, error) {
		return dialogue.Result{Messages: []dialogue.Message{dialogue.TextMessage("booked")}}, nil
	}))

	out, err := rt.HandleTurn(context.Background(), dialogue.TurnInput{
		Intent: dialogue.Intent{Name: "book_service"},
		Entities: []dialogue.Entity{
			{Name: "service_type", Value: "Demo"},
			{Name: "booking_date", Value: "2025-06-11"},
			{Name: "booking_time", Value: "14:00"},
			{Name: "customer_name", Value: "Jane Doe"},
			{Name: "customer_email", Value: "jane@example.com"},
			{Name: "customer_phone", Value: "555-123-4567"},
		},
		Conversation: dialogue.Conversation{ID: "c1", Slots: map[string]dialogue.Slot{}},
	})
	require.NoError(t, err)
	require.Equal(t, "booked", out.Messages[0].Text)

	var setSlots []string
	for _, ev := range out.Events {
		if ev.Type == dialogue.EventSetSlot {
			setSlots = append(setSlots, ev.SlotName)
		}
	}
	require.Equal(t, []string{"service_type", "booking_date", "booking_time", "customer_name", "customer_email", "customer_phone"}, setSlots)

	v, ok := out.Conversation.SlotValue("customer_phone")
	require.True(t, ok)
	require.Equal(t, "(555) 123-4567", v)
}

func TestHandleTurnRepromptsForSingleMissingSlot(t *testing.T) {
	rt := dialogue.New(dialogue.Options{Clock: fixedClock(time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC))})
	rt.RegisterForm(dialogue.FormSpec{Name: "book_service", TerminalAction: "create_booking", MinimumSlots: []string{"service_type"}})
	rt.RegisterAction("create_booking", dialogue.ActionFunc(func(ctx context.Context, rc *dialogue.RunContext) (dialogue.Result, error) {
		t.Fatal("create_booking should not run while a required slot is missing")
		return dialogue.Result{}, nil
	}))

	conv := dialogue.Conversation{ID: "c1", ActiveForm: "book_service", Slots: map[string]dialogue.Slot{
		"service_type":   {Name: "service_type", Value: "Demo"},
		"booking_date":   {Name: "booking_date", Value: "2025-06-11"},
		"booking_time":   {Name: "booking_time", Value: "14:00"},
		"customer_email": {Name: "customer_email", Value: "jane@example.com"},
	}}

	out, err := rt.HandleTurn(context.Background(), dialogue.TurnInput{
		Intent:       dialogue.Intent{Name: "inform"},
		Conversation: conv,
	})
	require.NoError(t, err)
	require.Equal(t, "book_service", out.Conversation.ActiveForm)
	require.Contains(t, out.Messages[0].Text, "name")
}

func TestHandleTurnRejectsInvalidSlotAndKeepsReprompting(t *testing.T) {
	rt := dialogue.New(dialogue.Options{Clock: fixedClock(time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC))})
	rt.RegisterForm(dialogue.FormSpec{Name: "book_service", TerminalAction: "create_booking", MinimumSlots: []string{"service_type"}})
	rt.RegisterAction("create_booking", dialogue.ActionFunc(func(ctx context.Context, rc *dialogue.RunContext) (dialogue.Result, error) {
		t.Fatal("create_booking should not run against an invalid slot candidate")
		return dialogue.Result{}, nil
	}))

	conv := dialogue.Conversation{ID: "c1", ActiveForm: "book_service", Slots: map[string]dialogue.Slot{
		"service_type":  {Name: "service_type", Value: "Demo"},
		"booking_date":  {Name: "booking_date", Value: "2025-06-11"},
		"booking_time":  {Name: "booking_time", Value: "14:00"},
		"customer_name": {Name: "customer_name", Value: "Jane Doe"},
	}}

	out, err := rt.HandleTurn(context.Background(), dialogue.TurnInput{
		Intent:       dialogue.Intent{Name: "inform"},
		Text:         "not an email",
		Conversation: conv,
	})
	require.NoError(t, err)
	require.Equal(t, "book_service", out.Conversation.ActiveForm)
	_, ok := out.Conversation.SlotValue("customer_email")
	require.False(t, ok)
	require.Contains(t, out.Messages[0].Text, "email")
}

func TestOverrideIntentInterruptsActiveForm(t *testing.T) {
	rt := dialogue.New(dialogue.Options{Clock: fixedClock(time.Now())})
	rt.RegisterForm(dialogue.FormSpec{Name: "book_service", TerminalAction: "create_booking"})
	rt.RegisterAction("cancel_booking", dialogue.ActionFunc(func(ctx context.Context, rc *dialogue.RunContext) (dialogue.Result, error) {
		return dialogue.Result{Messages: []dialogue.Message{dialogue.TextMessage("cancelled")}}, nil
	}))

	out, err := rt.HandleTurn(context.Background(), dialogue.TurnInput{
		Intent:       dialogue.Intent{Name: "cancel_booking"},
		Conversation: dialogue.Conversation{ID: "c1", ActiveForm: "book_service", Slots: map[string]dialogue.Slot{}},
	})
	require.NoError(t, err)
	require.Equal(t, "cancelled", out.Messages[0].Text)
}

func TestTaskGateRejectsOutsideBusinessHours(t *testing.T) {
	rt := dialogue.New(dialogue.Options{Clock: fixedClock(time.Date(2025, 6, 10, 3, 0, 0, 0, time.UTC))})
	_, ok, msg := rt.TaskGate(context.Background(), "book_service", time.Date(2025, 6, 10, 3, 0, 0, 0, time.UTC))
	require.False(t, ok)
	require.Contains(t, msg, "closed")
}

func TestDispatchRunsActionInline(t *testing.T) {
	rt := dialogue.New(dialogue.Options{Clock: fixedClock(time.Now())})
	rt.RegisterAction("helper", dialogue.ActionFunc(func(ctx context.Context, rc *dialogue.RunContext) (dialogue.Result, error) {
		return dialogue.Result{Messages: []dialogue.Message{dialogue.TextMessage("helped")}}, nil
	}))
	rt.RegisterAction("caller", dialogue.ActionFunc(func(ctx context.Context, rc *dialogue.RunContext) (dialogue.Result, error) {
		inner, err := rc.Dispatch(ctx, "helper")
		require.NoError(t, err)
		return inner, nil
	}))

	out, err := rt.HandleTurn(context.Background(), dialogue.TurnInput{
		Intent:       dialogue.Intent{Name: "caller"},
		Conversation: dialogue.Conversation{ID: "c1", Slots: map[string]dialogue.Slot{}},
	})
	require.NoError(t, err)
	require.Equal(t, "helped", out.Messages[0].Text)
}

func TestUpstreamUnavailableErrorApologizes(t *testing.T) {
	rt := dialogue.New(dialogue.Options{Clock: fixedClock(time.Now())})
	rt.RegisterAction("fails", dialogue.ActionFunc(func(ctx context.Context, rc *dialogue.RunContext) (dialogue.Result, error) {
		return dialogue.Result{}, dialogue.NewActionError(dialogue.ErrorKindUpstreamUnavailable, "fails", "boom", errors.New("conn refused"))
	}))

	out, err := rt.HandleTurn(context.Background(), dialogue.TurnInput{
		Intent:       dialogue.Intent{Name: "fails"},
		Conversation: dialogue.Conversation{ID: "c1", Slots: map[string]dialogue.Slot{}},
	})
	require.NoError(t, err)
	require.Contains(t, out.Messages[0].Text, "Sorry")
}
