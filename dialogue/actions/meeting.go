package actions

import (
	"context"
	"strconv"
	"strings"

	"github.com/taskforge-ai/dialoguebot/backend"
	"github.com/taskforge-ai/dialoguebot/dialogue"
)

const taskScheduleMeeting = "schedule_meeting"

// ScheduleMeeting implements spec.md §4.1 "Schedule meeting": same shape as
// booking; on a backend conflict/unavailable response, performs a followup
// to get_available_meeting_times instead of a flat failure.
type ScheduleMeeting struct {
	Client *backend.Client
}

func (a *ScheduleMeeting) Run(ctx context.Context, rc *dialogue.RunContext) (dialogue.Result, error) {
	_, ok, msg := rc.TaskGate(ctx, taskScheduleMeeting)
	if !ok {
		return dialogue.Result{Messages: []dialogue.Message{dialogue.TextMessage(msg)}}, nil
	}

	meetingType, _ := stringSlot(rc, "meeting_type")
	date, _ := stringSlot(rc, "booking_date")
	clock, _ := stringSlot(rc, "booking_time")
	name, _ := stringSlot(rc, "customer_name")
	email, _ := stringSlot(rc, "customer_email")
	duration := parseDurationMinutes(rc)

	result, err := a.Client.ScheduleMeeting(ctx, backend.ScheduleMeetingRequest{
		Type: meetingType, Date: date, Time: clock, Duration: duration, Name: name, Email: email,
	})
	if err != nil {
		return apology("schedule_meeting", err)
	}
	if !result.Success {
		if isConflict(result.Error) {
			return dialogue.Result{
				Events:   []dialogue.Event{dialogue.FollowupAction("get_available_meeting_times")},
				Messages: []dialogue.Message{dialogue.TextMessage("That time isn't available. Here's what's open instead:")},
			}, nil
		}
		return dialogue.Result{Messages: []dialogue.Message{dialogue.TextMessage(bookingFailureMessage(result.Error))}}, nil
	}

	return dialogue.Result{
		Events: []dialogue.Event{
			dialogue.SetSlot("current_meeting", result.MeetingID, dialogue.SlotSourceAction),
			dialogue.DeactivateForm(),
		},
		Messages: []dialogue.Message{dialogue.TextMessage("Your meeting is booked — confirmation " + result.MeetingID + ".")},
	}, nil
}

func isConflict(serverErr string) bool {
	low := strings.ToLower(serverErr)
	return strings.Contains(low, "conflict") || strings.Contains(low, "unavailable")
}

func parseDurationMinutes(rc *dialogue.RunContext) int {
	raw, ok := stringSlot(rc, "meeting_duration")
	if !ok {
		return 0
	}
	low := strings.ToLower(strings.TrimSpace(raw))
	if low == "1 hour" {
		return 60
	}
	fields := strings.Fields(low)
	if len(fields) == 0 {
		return 0
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0
	}
	return n
}

// GetAvailableMeetingTimes implements spec.md §4.1 availability lookup for
// meetings, and serves as the followup target from ScheduleMeeting on
// conflict.
type GetAvailableMeetingTimes struct {
	Client *backend.Client
}

func (a *GetAvailableMeetingTimes) Run(ctx context.Context, rc *dialogue.RunContext) (dialogue.Result, error) {
	_, ok, msg := rc.TaskGate(ctx, taskScheduleMeeting)
	if !ok {
		return dialogue.Result{Messages: []dialogue.Message{dialogue.TextMessage(msg)}}, nil
	}
	meetingType, _ := firstOf(rc, "meeting_type")
	date, _ := firstOf(rc, "booking_date")
	duration := parseDurationMinutes(rc)

	result, err := a.Client.GetAvailableMeetingTimes(ctx, meetingType, date, duration)
	if err != nil {
		return apology("get_available_meeting_times", err)
	}
	if !result.Success {
		return dialogue.Result{Messages: []dialogue.Message{dialogue.TextMessage(bookingFailureMessage(result.Error))}}, nil
	}
	return dialogue.Result{Messages: []dialogue.Message{dialogue.TextMessage(formatTimesList(result.Times))}}, nil
}
