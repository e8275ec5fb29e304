package actions

import (
	"context"

	"github.com/taskforge-ai/dialoguebot/backend"
	"github.com/taskforge-ai/dialoguebot/dialogue"
	"github.com/taskforge-ai/dialoguebot/dialogue/validators"
)

const taskBookService = "book_service"

// CreateBooking implements spec.md §4.1 "Create booking": requires the
// booking slots set, calls BC, and on success sets current_booking and
// booking_id.
type CreateBooking struct {
	Client *backend.Client
}

func (a *CreateBooking) Run(ctx context.Context, rc *dialogue.RunContext) (dialogue.Result, error) {
	_, ok, msg := rc.TaskGate(ctx, taskBookService)
	if !ok {
		return dialogue.Result{Messages: []dialogue.Message{dialogue.TextMessage(msg)}}, nil
	}

	service, _ := stringSlot(rc, "service_type")
	date, _ := stringSlot(rc, "booking_date")
	clock, _ := stringSlot(rc, "booking_time")
	name, _ := stringSlot(rc, "customer_name")
	email, _ := stringSlot(rc, "customer_email")
	phone, _ := stringSlot(rc, "customer_phone")

	result, err := a.Client.CreateBooking(ctx, backend.CreateBookingRequest{
		Service: service, Date: date, Time: clock, Name: name, Email: email, Phone: phone,
	})
	if err != nil {
		return apology("create_booking", err)
	}
	if !result.Success {
		return dialogue.Result{Messages: []dialogue.Message{dialogue.TextMessage(bookingFailureMessage(result.Error))}}, nil
	}

	return dialogue.Result{
		Events: []dialogue.Event{
			dialogue.SetSlot("current_booking", result.BookingID, dialogue.SlotSourceAction),
			dialogue.SetSlot("booking_id", result.BookingID, dialogue.SlotSourceAction),
			dialogue.DeactivateForm(),
		},
		Messages: []dialogue.Message{dialogue.TextMessage("You're all set — your booking ID is " + result.BookingID + ".")},
	}, nil
}

func bookingFailureMessage(serverErr string) string {
	if serverErr != "" {
		return "Sorry, I couldn't complete that booking: " + serverErr
	}
	return "Sorry, I couldn't complete that booking. Please try again."
}

// CancelBooking implements spec.md §4.1 "Cancel booking": requires
// booking_id; otherwise activates the lookup form first.
type CancelBooking struct {
	Client *backend.Client
}

const formLookupBooking = "lookup_booking"

func (a *CancelBooking) Run(ctx context.Context, rc *dialogue.RunContext) (dialogue.Result, error) {
	id, ok := firstOf(rc, "booking_id")
	if !ok {
		return dialogue.Result{
			Events:   []dialogue.Event{dialogue.ActivateForm(formLookupBooking)},
			Messages: []dialogue.Message{dialogue.TextMessage("What's your booking ID?")},
		}, nil
	}

	normalized, errMsg := validators.BookingID(id)
	if errMsg != "" {
		return dialogue.Result{Messages: []dialogue.Message{dialogue.TextMessage(errMsg)}}, nil
	}

	result, err := a.Client.CancelBooking(ctx, normalized)
	if err != nil {
		return apology("cancel_booking", err)
	}
	if !result.Success {
		return dialogue.Result{Messages: []dialogue.Message{dialogue.TextMessage(bookingFailureMessage(result.Error))}}, nil
	}
	return dialogue.Result{
		Events:   []dialogue.Event{dialogue.ClearSlot("booking_id")},
		Messages: []dialogue.Message{dialogue.TextMessage("Booking " + normalized + " has been cancelled.")},
	}, nil
}

// RescheduleBooking implements spec.md §4.1 "Reschedule": requires
// booking_id plus new date/time; revalidates against business hours and
// blocked dates before calling BC.
type RescheduleBooking struct {
	Client *backend.Client
}

func (a *RescheduleBooking) Run(ctx context.Context, rc *dialogue.RunContext) (dialogue.Result, error) {
	cfg, ok, msg := rc.TaskGate(ctx, taskBookService)
	if !ok {
		return dialogue.Result{Messages: []dialogue.Message{dialogue.TextMessage(msg)}}, nil
	}

	id, ok := firstOf(rc, "booking_id")
	if !ok {
		return dialogue.Result{
			Events:   []dialogue.Event{dialogue.ActivateForm(formLookupBooking)},
			Messages: []dialogue.Message{dialogue.TextMessage("What's your booking ID?")},
		}, nil
	}
	normalizedID, errMsg := validators.BookingID(id)
	if errMsg != "" {
		return dialogue.Result{Messages: []dialogue.Message{dialogue.TextMessage(errMsg)}}, nil
	}

	rawDate, _ := firstOf(rc, "booking_date")
	date, errMsg := validators.BookingDate(rawDate, rc.Now(), cfg.BookingWindowDays, cfg.BlockedDates)
	if errMsg != "" {
		return dialogue.Result{Messages: []dialogue.Message{dialogue.TextMessage(errMsg)}}, nil
	}
	rawTime, _ := firstOf(rc, "booking_time")
	clock, errMsg := validators.BookingTime(rawTime, cfg.BusinessHours)
	if errMsg != "" {
		return dialogue.Result{Messages: []dialogue.Message{dialogue.TextMessage(errMsg)}}, nil
	}

	result, err := a.Client.RescheduleBooking(ctx, normalizedID, backend.RescheduleBookingRequest{Date: date, Time: clock})
	if err != nil {
		return apology("reschedule_booking", err)
	}
	if !result.Success {
		return dialogue.Result{Messages: []dialogue.Message{dialogue.TextMessage(bookingFailureMessage(result.Error))}}, nil
	}
	return dialogue.Result{
		Messages: []dialogue.Message{dialogue.TextMessage("Booking " + normalizedID + " has been moved to " + date + " at " + clock + ".")},
	}, nil
}

// CheckStatus implements spec.md §4.1 "Check status": accepts booking_id
// from slot or entity, populates slots from the retrieved record on
// success, and offers reschedule/cancel.
type CheckStatus struct {
	Client *backend.Client
}

func (a *CheckStatus) Run(ctx context.Context, rc *dialogue.RunContext) (dialogue.Result, error) {
	id, ok := firstOf(rc, "booking_id")
	if !ok {
		return dialogue.Result{
			Events:   []dialogue.Event{dialogue.ActivateForm(formLookupBooking)},
			Messages: []dialogue.Message{dialogue.TextMessage("What's your booking ID?")},
		}, nil
	}
	normalized, errMsg := validators.BookingID(id)
	if errMsg != "" {
		return dialogue.Result{Messages: []dialogue.Message{dialogue.TextMessage(errMsg)}}, nil
	}

	result, err := a.Client.GetBooking(ctx, normalized)
	if err != nil {
		return apology("check_status", err)
	}
	if !result.Success {
		return dialogue.Result{Messages: []dialogue.Message{dialogue.TextMessage(bookingFailureMessage(result.Error))}}, nil
	}

	return dialogue.Result{
		Events: []dialogue.Event{
			dialogue.SetSlot("booking_id", result.BookingID, dialogue.SlotSourceAction),
			dialogue.SetSlot("booking_date", result.Date, dialogue.SlotSourceAction),
			dialogue.SetSlot("booking_time", result.Time, dialogue.SlotSourceAction),
			dialogue.SetSlot("service_type", result.Service, dialogue.SlotSourceAction),
			dialogue.DeactivateForm(),
		},
		Messages: []dialogue.Message{dialogue.TextMessage(
			"Booking " + result.BookingID + " is " + result.Status + " for " + result.Date + " at " + result.Time +
				". Want to reschedule or cancel it?")},
	}, nil
}

// GetAvailableSlots implements spec.md §4.1 "Get availability": queries BC
// and formats up to the first six times.
type GetAvailableSlots struct {
	Client *backend.Client
}

func (a *GetAvailableSlots) Run(ctx context.Context, rc *dialogue.RunContext) (dialogue.Result, error) {
	_, ok, msg := rc.TaskGate(ctx, taskBookService)
	if !ok {
		return dialogue.Result{Messages: []dialogue.Message{dialogue.TextMessage(msg)}}, nil
	}
	service, _ := firstOf(rc, "service_type")
	date, _ := firstOf(rc, "booking_date")

	result, err := a.Client.GetAvailableSlots(ctx, service, date)
	if err != nil {
		return apology("get_available_slots", err)
	}
	if !result.Success {
		return dialogue.Result{Messages: []dialogue.Message{dialogue.TextMessage(bookingFailureMessage(result.Error))}}, nil
	}
	return dialogue.Result{Messages: []dialogue.Message{dialogue.TextMessage(formatTimesList(result.Times))}}, nil
}
