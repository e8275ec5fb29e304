package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/taskforge-ai/dialoguebot/telemetry"
)

// Client implements the Backend Client contract from spec.md §4.3: one
// method per backend verb, each returning a typed envelope. It is grounded
// on the teacher's runtime/a2a/httpclient JSON-over-HTTP Client, adapted
// with the spec's concrete retry/backoff/auth policy.
type Client struct {
	baseURL string
	http    *http.Client
	retry   RetryConfig
	jwt     string
	apiKey  string
	bundle  telemetry.Bundle
}

// Options configures a Client.
type Options struct {
	BaseURL string
	// JWT, when set, is sent as "Authorization: Bearer <JWT>". Takes
	// precedence over APIKey (spec.md §4.3 Headers).
	JWT string
	// APIKey, when set and JWT is empty, is sent as "X-API-Key".
	APIKey string
	// HTTPClient overrides the default 30s-timeout client.
	HTTPClient *http.Client
	// Retry overrides the default retry policy.
	Retry RetryConfig
	// Telemetry supplies ambient logging/metrics; NewNoopBundle if omitted.
	Telemetry telemetry.Bundle
}

// New constructs a backend Client. BaseURL is required.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("backend: base url is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	retry := opts.Retry
	if retry.MaxAttempts == 0 {
		retry = DefaultRetryConfig()
	}
	bundle := opts.Telemetry
	if bundle.Logger == nil {
		bundle = telemetry.NewNoopBundle()
	}
	return &Client{
		baseURL: opts.BaseURL,
		http:    httpClient,
		retry:   retry,
		jwt:     opts.JWT,
		apiKey:  opts.APIKey,
		bundle:  bundle,
	}, nil
}

// CreateBooking calls POST /bookings.
func (c *Client) CreateBooking(ctx context.Context, req CreateBookingRequest) (BookingResult, error) {
	var out BookingResult
	err := c.doJSON(ctx, "create_booking", http.MethodPost, "/bookings", req, &out)
	return out, err
}

// CreateBookingRequest is the body of POST /bookings.
type CreateBookingRequest struct {
	Service string `json:"service"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
}

// GetBooking calls GET /bookings/{id}.
func (c *Client) GetBooking(ctx context.Context, id string) (BookingResult, error) {
	var out BookingResult
	err := c.doJSON(ctx, "get_booking", http.MethodGet, "/bookings/"+url.PathEscape(id), nil, &out)
	return out, err
}

// CancelBooking calls DELETE /bookings/{id}. Per spec.md §9 Open Question,
// no local pre-check of id plausibility is performed; a backend "not found"
// for an unknown-but-well-formed id is surfaced to the user unchanged.
func (c *Client) CancelBooking(ctx context.Context, id string) (BookingResult, error) {
	var out BookingResult
	err := c.doJSON(ctx, "cancel_booking", http.MethodDelete, "/bookings/"+url.PathEscape(id), nil, &out)
	return out, err
}

// RescheduleBookingRequest is the body of PUT /bookings/{id}.
type RescheduleBookingRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// RescheduleBooking calls PUT /bookings/{id}.
func (c *Client) RescheduleBooking(ctx context.Context, id string, req RescheduleBookingRequest) (BookingResult, error) {
	var out BookingResult
	err := c.doJSON(ctx, "reschedule_booking", http.MethodPut, "/bookings/"+url.PathEscape(id), req, &out)
	return out, err
}

// GetAvailableSlots calls GET /bookings/availability?service=&date=.
func (c *Client) GetAvailableSlots(ctx context.Context, service, date string) (AvailabilityResult, error) {
	q := url.Values{"service": {service}, "date": {date}}
	var out AvailabilityResult
	err := c.doJSON(ctx, "get_available_slots", http.MethodGet, "/bookings/availability?"+q.Encode(), nil, &out)
	return out, err
}

// ScheduleMeetingRequest is the body of POST /meetings.
type ScheduleMeetingRequest struct {
	Type     string `json:"type"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Duration int    `json:"duration_minutes"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// ScheduleMeeting calls POST /meetings.
func (c *Client) ScheduleMeeting(ctx context.Context, req ScheduleMeetingRequest) (MeetingResult, error) {
	var out MeetingResult
	err := c.doJSON(ctx, "schedule_meeting", http.MethodPost, "/meetings", req, &out)
	return out, err
}

// GetAvailableMeetingTimes calls GET /meetings/availability?type=&date=&duration=.
func (c *Client) GetAvailableMeetingTimes(ctx context.Context, meetingType, date string, durationMinutes int) (AvailabilityResult, error) {
	q := url.Values{"type": {meetingType}, "date": {date}, "duration": {strconv.Itoa(durationMinutes)}}
	var out AvailabilityResult
	err := c.doJSON(ctx, "get_available_meeting_times", http.MethodGet, "/meetings/availability?"+q.Encode(), nil, &out)
	return out, err
}

// HealthCheck calls GET /health.
func (c *Client) HealthCheck(ctx context.Context) (HealthResult, error) {
	var out HealthResult
	err := c.doJSON(ctx, "health_check", http.MethodGet, "/health", nil, &out)
	return out, err
}

// doJSON executes one logical backend call with the spec.md §4.3 retry
// policy: up to 3 attempts total, exponential backoff base*2^attempt on
// timeout/connection errors and 5xx, Retry-After honored on 429 (the sleep
// does not consume an attempt), no retry on 404/401.
func (c *Client) doJSON(ctx context.Context, op, method, path string, body any, out any) error {
	var bodyBytes []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyBytes = b
	}

	// A mutating call keeps the same idempotency key across every retry
	// attempt, so a timed-out request that actually succeeded upstream
	// isn't double-applied when the client retries it (spec.md §4.3).
	var idempotencyKey string
	if method == http.MethodPost {
		idempotencyKey = uuid.NewString()
	}

	attempt := 0
	rateLimitWaits := 0
	for {
		status, respBody, err := c.attempt(ctx, method, path, bodyBytes, idempotencyKey)
		if err != nil {
			if attempt+1 >= c.retry.MaxAttempts || !isRetryableErr(err) {
				return fmt.Errorf("backend: %s: %w", op, err)
			}
			c.sleep(ctx, c.retry.backoff(attempt))
			attempt++
			continue
		}

		switch {
		case status == http.StatusTooManyRequests:
			// Retry-After sleep never consumes an attempt (spec.md §4.3), but is
			// bounded to avoid waiting forever on a misbehaving server.
			if rateLimitWaits >= 5 {
				return decodeServerError(respBody.json, out, status)
			}
			wait := retryAfterSeconds(respHeaderFrom(respBody))
			c.sleep(ctx, wait)
			rateLimitWaits++
			continue
		case status == http.StatusNotFound:
			return setNotFound(out)
		case status == http.StatusUnauthorized:
			return setAuthFailed(out)
		case status >= 200 && status < 300:
			if len(respBody.json) == 0 {
				return nil
			}
			return json.Unmarshal(respBody.json, out)
		default:
			if attempt+1 >= c.retry.MaxAttempts || !statusRetryable(status) {
				return decodeServerError(respBody.json, out, status)
			}
			c.sleep(ctx, c.retry.backoff(attempt))
			attempt++
		}
	}
}

type rawResponse struct {
	header http.Header
	json   []byte
}

func respHeaderFrom(r rawResponse) http.Header { return r.header }

func (c *Client) attempt(ctx context.Context, method, path string, body []byte, idempotencyKey string) (int, rawResponse, error) {
	reqCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, rawResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Source", "chatbot")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	switch {
	case c.jwt != "":
		req.Header.Set("Authorization", "Bearer "+c.jwt)
	case c.apiKey != "":
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, rawResponse{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, rawResponse{}, err
	}
	return resp.StatusCode, rawResponse{header: resp.Header, json: data}, nil
}

func (c *Client) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// resultSetter lets doJSON set success/error fields generically across the
// four typed result structs without reflection.
type resultSetter interface {
	setNotFound()
	setAuthFailed()
}

func setNotFound(out any) error {
	if rs, ok := out.(resultSetter); ok {
		rs.setNotFound()
		return nil
	}
	return errNotFound
}

func setAuthFailed(out any) error {
	if rs, ok := out.(resultSetter); ok {
		rs.setAuthFailed()
		return nil
	}
	return errAuthFailed
}

func decodeServerError(raw []byte, out any, status int) error {
	var probe struct {
		Error string `json:"error"`
	}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &probe)
	}
	if probe.Error == "" {
		probe.Error = fmt.Sprintf("unexpected status %d", status)
	}
	if rs, ok := out.(interface{ setError(string) }); ok {
		rs.setError(probe.Error)
		return nil
	}
	return fmt.Errorf("backend: %s", probe.Error)
}
