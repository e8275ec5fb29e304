package validators_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taskforge-ai/dialoguebot/config"
	"github.com/taskforge-ai/dialoguebot/dialogue/validators"
)

var services = []config.ServiceOption{
	{ID: "consultation", Name: "Consultation"},
	{ID: "demo", Name: "Demo"},
	{ID: "support", Name: "Support"},
}

func TestServiceTypeMatchesSubstring(t *testing.T) {
	v, errMsg := validators.ServiceType("i want a demo please", services)
	require.Empty(t, errMsg)
	require.Equal(t, "Demo", v)
}

func TestServiceTypeRejectsUnknown(t *testing.T) {
	_, errMsg := validators.ServiceType("massage", services)
	require.NotEmpty(t, errMsg)
	require.Contains(t, errMsg, "Consultation")
}

func TestBookingDateTomorrow(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	v, errMsg := validators.BookingDate("tomorrow", now, 90, nil)
	require.Empty(t, errMsg)
	require.Equal(t, "2025-06-11", v)
}

func TestBookingDateRejectsPast(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	_, errMsg := validators.BookingDate("2025-06-01", now, 90, nil)
	require.NotEmpty(t, errMsg)
}

func TestBookingDateRejectsBeyondWindow(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	_, errMsg := validators.BookingDate("2025-12-25", now, 90, nil)
	require.NotEmpty(t, errMsg)
}

func TestBookingDateRejectsBlocked(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	_, errMsg := validators.BookingDate("2025-12-25", now, 365, []string{"2025-12-25"})
	require.Contains(t, errMsg, "December 25, 2025")
}

func TestResolveRelativeDateNextWeekdaySkipsToday(t *testing.T) {
	// 2025-06-10 is a Tuesday.
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	got, ok := validators.ResolveRelativeDate("next tuesday", now)
	require.True(t, ok)
	require.Equal(t, "2025-06-17", got.Format("2006-01-02"))
}

func TestResolveRelativeDateThisWeekdayIncludesToday(t *testing.T) {
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	got, ok := validators.ResolveRelativeDate("this tuesday", now)
	require.True(t, ok)
	require.Equal(t, "2025-06-10", got.Format("2006-01-02"))
}

func TestBookingTimeParsesAndValidates(t *testing.T) {
	hours := config.BusinessHours{Start: "09:00", End: "18:00"}
	v, errMsg := validators.BookingTime("2pm", hours)
	require.Empty(t, errMsg)
	require.Equal(t, "14:00", v)
}

func TestBookingTimeRejectsOutsideHours(t *testing.T) {
	hours := config.BusinessHours{Start: "09:00", End: "18:00"}
	_, errMsg := validators.BookingTime("7am", hours)
	require.NotEmpty(t, errMsg)
}

func TestMeetingTimeUsesFixedWindow(t *testing.T) {
	_, errMsg := validators.MeetingTime("6pm")
	require.NotEmpty(t, errMsg)
	v, errMsg2 := validators.MeetingTime("10:30")
	require.Empty(t, errMsg2)
	require.Equal(t, "10:30", v)
}

func TestMeetingDurationCanonicalizes(t *testing.T) {
	v, errMsg := validators.MeetingDuration("half an hour", []int{15, 30})
	require.Empty(t, errMsg)
	require.Equal(t, "30 minutes", v)
}

func TestMeetingDurationRejectsDisallowed(t *testing.T) {
	_, errMsg := validators.MeetingDuration("an hour", []int{15, 30})
	require.NotEmpty(t, errMsg)
}

func TestEmailNormalizes(t *testing.T) {
	v, errMsg := validators.Email("  Jane@Example.COM ")
	require.Empty(t, errMsg)
	require.Equal(t, "jane@example.com", v)
}

func TestEmailRejectsInvalid(t *testing.T) {
	_, errMsg := validators.Email("not-an-email")
	require.Equal(t, "That doesn't look like a valid email address.", errMsg)
}

func TestPhoneFormatsTenDigit(t *testing.T) {
	v, errMsg := validators.Phone("555-123-4567")
	require.Empty(t, errMsg)
	require.Equal(t, "(555) 123-4567", v)
}

func TestPhoneFormatsElevenDigitWithLeadingOne(t *testing.T) {
	v, errMsg := validators.Phone("1 (555) 123-4567")
	require.Empty(t, errMsg)
	require.Equal(t, "+1 (555) 123-4567", v)
}

func TestPhoneRejectsTooShort(t *testing.T) {
	_, errMsg := validators.Phone("123")
	require.NotEmpty(t, errMsg)
}

func TestCustomerNameTrims(t *testing.T) {
	v, errMsg := validators.CustomerName("  Jane Doe  ")
	require.Empty(t, errMsg)
	require.Equal(t, "Jane Doe", v)
}

func TestCustomerNameRejectsSingleChar(t *testing.T) {
	_, errMsg := validators.CustomerName("J")
	require.NotEmpty(t, errMsg)
}

func TestBookingIDNormalizes(t *testing.T) {
	v, errMsg := validators.BookingID("bk00010002")
	require.Empty(t, errMsg)
	require.Equal(t, "BK-0001-0002", v)
}

func TestBookingIDRejectsBadFormat(t *testing.T) {
	_, errMsg := validators.BookingID("12345")
	require.NotEmpty(t, errMsg)
}
