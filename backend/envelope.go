package backend

// BookingResult is the decoded payload of create_booking / get_booking /
// reschedule_booking responses.
type BookingResult struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	BookingID string `json:"booking_id,omitempty"`
	Status    string `json:"status,omitempty"`
	Date      string `json:"date,omitempty"`
	Time      string `json:"time,omitempty"`
	Service   string `json:"service,omitempty"`
	Contact   string `json:"contact,omitempty"`
}

// MeetingResult is the decoded payload of schedule_meeting responses.
type MeetingResult struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	MeetingID string `json:"meeting_id,omitempty"`
	Status    string `json:"status,omitempty"`
	Date      string `json:"date,omitempty"`
	Time      string `json:"time,omitempty"`
	Type      string `json:"type,omitempty"`
	Duration  int    `json:"duration_minutes,omitempty"`
}

// AvailabilityResult is the decoded payload of get_available_slots /
// get_available_meeting_times responses.
type AvailabilityResult struct {
	Success bool     `json:"success"`
	Error   string   `json:"error,omitempty"`
	Times   []string `json:"times,omitempty"`
}

// HealthResult is the decoded payload of health_check.
type HealthResult struct {
	Success bool   `json:"success"`
	Status  string `json:"status,omitempty"`
}

// The setNotFound/setAuthFailed/setError methods below let doJSON populate
// the spec.md §4.3 canned envelopes ({success:false, error:"Resource not
// found"} / {success:false, error:"Authentication failed"} / the server's
// error field) generically across every typed result.

func (r *BookingResult) setNotFound()     { r.Success, r.Error = false, "Resource not found" }
func (r *BookingResult) setAuthFailed()   { r.Success, r.Error = false, "Authentication failed" }
func (r *BookingResult) setError(msg string) { r.Success, r.Error = false, msg }

func (r *MeetingResult) setNotFound()     { r.Success, r.Error = false, "Resource not found" }
func (r *MeetingResult) setAuthFailed()   { r.Success, r.Error = false, "Authentication failed" }
func (r *MeetingResult) setError(msg string) { r.Success, r.Error = false, msg }

func (r *AvailabilityResult) setNotFound()     { r.Success, r.Error = false, "Resource not found" }
func (r *AvailabilityResult) setAuthFailed()   { r.Success, r.Error = false, "Authentication failed" }
func (r *AvailabilityResult) setError(msg string) { r.Success, r.Error = false, msg }

func (r *HealthResult) setNotFound()     { r.Success = false }
func (r *HealthResult) setAuthFailed()   { r.Success = false }
func (r *HealthResult) setError(string)  { r.Success = false }
