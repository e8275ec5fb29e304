// Package validators implements the per-slot pure validation functions from
// spec.md §4.6: each takes a candidate value and returns a normalized value
// or a human-readable rejection reason. Grounded on the teacher's
// translate/encode helper style in features/model/* — small, independently
// testable functions with no hidden state.
package validators

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/taskforge-ai/dialoguebot/config"
)

const dateLayout = "2006-01-02"

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
}

// ServiceType matches candidate against task config's enabled services,
// case-insensitively, by substring in either direction against name or id
// (the candidate inside the name or id, or the name or id inside the
// candidate) (spec.md §4.6). Returns the canonical service name on match.
func ServiceType(candidate string, services []config.ServiceOption) (string, string) {
	c := strings.ToLower(strings.TrimSpace(candidate))
	if c == "" {
		return "", serviceListMessage(services)
	}
	for _, s := range services {
		name, id := strings.ToLower(s.Name), strings.ToLower(s.ID)
		if strings.Contains(name, c) || strings.Contains(id, c) ||
			(name != "" && strings.Contains(c, name)) || (id != "" && strings.Contains(c, id)) {
			return s.Name, ""
		}
	}
	return "", serviceListMessage(services)
}

func serviceListMessage(services []config.ServiceOption) string {
	names := make([]string, len(services))
	for i, s := range services {
		names[i] = s.Name
	}
	return "Please choose one of: " + strings.Join(names, ", ")
}

// BookingDate parses candidate (ISO date or a natural phrase) relative to
// now, rejects past dates, dates beyond windowDays, and blocked dates
// (spec.md §4.6).
func BookingDate(candidate string, now time.Time, windowDays int, blockedDates []string) (string, string) {
	parsed, ok := ResolveRelativeDate(candidate, now)
	if !ok {
		return "", "I couldn't understand that date. Try a format like 2025-12-25, \"tomorrow\", or \"next Friday\"."
	}
	today := truncateToDay(now)
	parsedDay := truncateToDay(parsed)
	if parsedDay.Before(today) {
		return "", "That date is in the past. Please choose a future date."
	}
	if windowDays > 0 && parsedDay.After(today.AddDate(0, 0, windowDays)) {
		return "", fmt.Sprintf("We only book up to %d days in advance.", windowDays)
	}
	iso := parsedDay.Format(dateLayout)
	for _, blocked := range blockedDates {
		if blocked == iso {
			return "", fmt.Sprintf("Sorry, we're not available on %s.", parsedDay.Format("January 2, 2006"))
		}
	}
	return iso, ""
}

// ResolveRelativeDate resolves an ISO date or one of the natural phrases
// from spec.md §4.6 ("today", "tomorrow", "yesterday", "next <weekday>",
// "this <weekday>", "next week") relative to now.
//
// "next <weekday>" is the coming occurrence strictly more than 0 days away;
// "this <weekday>" is the occurrence in the current Monday-starting week
// (today counts).
func ResolveRelativeDate(candidate string, now time.Time) (time.Time, bool) {
	c := strings.ToLower(strings.TrimSpace(candidate))
	switch c {
	case "today":
		return now, true
	case "tomorrow":
		return now.AddDate(0, 0, 1), true
	case "yesterday":
		return now.AddDate(0, 0, -1), true
	case "next week":
		return now.AddDate(0, 0, 7), true
	}
	if rest, ok := strings.CutPrefix(c, "next "); ok {
		if wd, ok := weekdayNames[rest]; ok {
			return nextWeekday(now, wd, true), true
		}
	}
	if rest, ok := strings.CutPrefix(c, "this "); ok {
		if wd, ok := weekdayNames[rest]; ok {
			return nextWeekday(now, wd, false), true
		}
	}
	if t, err := time.Parse(dateLayout, strings.TrimSpace(candidate)); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// nextWeekday resolves wd relative to now. When strictlyFuture is true
// ("next <weekday>"), it is the coming occurrence, and an exact match on
// today is pushed a full week forward. Otherwise ("this <weekday>"), it is
// the occurrence in now's Monday-starting week (today counts), which is
// earlier than today when wd has already passed this week.
func nextWeekday(now time.Time, wd time.Weekday, strictlyFuture bool) time.Time {
	today := truncateToDay(now)
	if !strictlyFuture {
		// Monday-based day indices: Monday=0 ... Sunday=6.
		return today.AddDate(0, 0, (int(wd)+6)%7-(int(today.Weekday())+6)%7)
	}
	delta := (int(wd) - int(today.Weekday()) + 7) % 7
	if delta == 0 && strictlyFuture {
		delta = 7
	}
	return today.AddDate(0, 0, delta)
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

var timePattern = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)

// parseClockTime parses the loose time formats from spec.md §4.6 ("HH:MM",
// "Hpm", "H:MM pm", 12-hour variants) into 24-hour "HH:MM".
func parseClockTime(candidate string) (string, bool) {
	c := strings.ToLower(strings.TrimSpace(candidate))
	c = strings.ReplaceAll(c, " ", "")
	m := timePattern.FindStringSubmatch(c)
	if m == nil {
		return "", false
	}
	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return "", false
	}
	minute := 0
	if m[2] != "" {
		minute, err = strconv.Atoi(m[2])
		if err != nil {
			return "", false
		}
	}
	if minute < 0 || minute > 59 {
		return "", false
	}
	meridiem := m[3]
	switch meridiem {
	case "am":
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour != 12 {
			hour += 12
		}
	}
	if hour < 0 || hour > 23 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}

// BookingTime parses candidate into 24-hour HH:MM and rejects values outside
// [hours.Start, hours.End) (spec.md §4.6).
func BookingTime(candidate string, hours config.BusinessHours) (string, string) {
	t, ok := parseClockTime(candidate)
	if !ok {
		return "", "I couldn't understand that time. Try something like \"2pm\" or \"14:00\"."
	}
	if t < hours.Start || t >= hours.End {
		return "", fmt.Sprintf("We're open %s to %s. Please pick a time in that window.", hours.Start, hours.End)
	}
	return t, ""
}

// MeetingTime is BookingTime with the fixed [09:00, 17:00) meeting window
// (spec.md §4.6).
func MeetingTime(candidate string) (string, string) {
	return BookingTime(candidate, config.BusinessHours{Start: "09:00", End: "17:00"})
}

var durationAliases = map[string]int{
	"15": 15, "15 minutes": 15, "15 min": 15, "quarter hour": 15,
	"30": 30, "30 minutes": 30, "30 min": 30, "half hour": 30, "half an hour": 30,
	"60": 60, "60 minutes": 60, "60 min": 60, "an hour": 60, "one hour": 60, "1 hour": 60, "hour": 60,
}

// MeetingDuration canonicalizes candidate into "15 minutes" / "30 minutes" /
// "1 hour", restricted to allowedMinutes when non-empty (spec.md §4.6).
func MeetingDuration(candidate string, allowedMinutes []int) (string, string) {
	c := strings.ToLower(strings.TrimSpace(candidate))
	minutes, ok := durationAliases[c]
	if !ok {
		return "", "Please choose a duration: 15 minutes, 30 minutes, or 1 hour."
	}
	if len(allowedMinutes) > 0 && !containsInt(allowedMinutes, minutes) {
		return "", fmt.Sprintf("That duration isn't offered for this meeting type. Choices: %s.", durationsLabel(allowedMinutes))
	}
	return canonicalDuration(minutes), ""
}

func canonicalDuration(minutes int) string {
	if minutes == 60 {
		return "1 hour"
	}
	return fmt.Sprintf("%d minutes", minutes)
}

func durationsLabel(minutes []int) string {
	labels := make([]string, len(minutes))
	for i, m := range minutes {
		labels[i] = canonicalDuration(m)
	}
	return strings.Join(labels, ", ")
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// emailPattern is an RFC-5322-lite check, sufficient for user-facing
// validation without chasing the full grammar (spec.md §4.6).
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Email lowercases, trims, and validates candidate against a loose RFC-5322
// pattern (spec.md §4.6; used for both customer_email and attendee_email).
func Email(candidate string) (string, string) {
	c := strings.ToLower(strings.TrimSpace(candidate))
	if !emailPattern.MatchString(c) {
		return "", "That doesn't look like a valid email address."
	}
	return c, ""
}

var nonDigit = regexp.MustCompile(`\D`)

// Phone strips separators, requires 7-15 remaining digits, and formats
// 10-digit numbers as "(DDD) DDD-DDDD" or 11-digit numbers with a leading 1
// as "+1 (DDD) DDD-DDDD"; otherwise returns the bare digits (spec.md §4.6,
// §8 "for length 11 starting with 1, matches +1 (DDD) DDD-DDDD").
func Phone(candidate string) (string, string) {
	digits := nonDigit.ReplaceAllString(candidate, "")
	if len(digits) < 7 || len(digits) > 15 {
		return "", "That doesn't look like a valid phone number."
	}
	switch len(digits) {
	case 10:
		return fmt.Sprintf("(%s) %s-%s", digits[0:3], digits[3:6], digits[6:10]), ""
	case 11:
		if digits[0] == '1' {
			return fmt.Sprintf("+1 (%s) %s-%s", digits[1:4], digits[4:7], digits[7:11]), ""
		}
	}
	return digits, ""
}

// CustomerName requires at least two non-whitespace characters and trims
// the result (spec.md §4.6).
func CustomerName(candidate string) (string, string) {
	trimmed := strings.TrimSpace(candidate)
	if nonWhitespaceLen(trimmed) < 2 {
		return "", "Please provide your full name."
	}
	return trimmed, ""
}

func nonWhitespaceLen(s string) int {
	n := 0
	for _, r := range s {
		if !strings.ContainsRune(" \t\n\r", r) {
			n++
		}
	}
	return n
}

var bookingIDPattern = regexp.MustCompile(`^BK-?(\d{4})-?(\d{4})$`)

// BookingID normalizes candidate into "BK-DDDD-DDDD" (spec.md §4.6); the
// hyphens around each digit group are optional in the input.
func BookingID(candidate string) (string, string) {
	c := strings.ToUpper(strings.TrimSpace(candidate))
	m := bookingIDPattern.FindStringSubmatch(c)
	if m == nil {
		return "", "Booking IDs look like BK-1234-5678."
	}
	return "BK-" + m[1] + "-" + m[2], ""
}
