package config

// DefaultTaskConfig returns the built-in fallback used when no layer of the
// cache has a snapshot for the named task (spec.md §4.2 step 4, §4.1 "A
// missing config defaults to enabled = true").
func DefaultTaskConfig(name string) TaskConfig {
	cfg := TaskConfig{
		Name:              name,
		Enabled:           true,
		BusinessHours:     BusinessHours{Start: "09:00", End: "18:00"},
		BookingWindowDays: 90,
		MaxReschedules:    3,
	}
	switch name {
	case "book_service":
		cfg.Services = []ServiceOption{
			{ID: "consultation", Name: "Consultation"},
			{ID: "demo", Name: "Demo"},
			{ID: "support", Name: "Support"},
		}
		cfg.RequiredFields = []string{"date", "time", "name", "email"}
	case "schedule_meeting":
		cfg.MeetingTypes = []MeetingType{
			{ID: "intro", Name: "Intro Call", DurationsMinutes: []int{15, 30}},
			{ID: "working_session", Name: "Working Session", DurationsMinutes: []int{30, 60}},
		}
		cfg.BusinessHours = BusinessHours{Start: "09:00", End: "17:00"}
		cfg.RequiredFields = []string{"date", "time", "name", "email"}
	}
	cfg.OptionalFields = []string{"party_size", "notes"}
	return cfg
}

// DefaultBotConfig returns the built-in fallback bot identity.
func DefaultBotConfig() BotConfig {
	return BotConfig{
		Name:                 "Assistant",
		WelcomeText:          "Hi! How can I help you today?",
		FallbackText:         "Sorry, I didn't quite catch that — could you rephrase?",
		HandoffText:          "I'll connect you with a team member shortly.",
		BusinessName:         "Our Business",
		Timezone:             "UTC",
		DefaultBusinessHours: BusinessHours{Start: "09:00", End: "18:00"},
	}
}

// DefaultLLMConfig returns the built-in fallback LLM configuration: disabled
// fallback, conservative confidence threshold, no provider credentials.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider:            LLMProviderOpenAI,
		Model:               "gpt-4o-mini",
		Temperature:         0.3,
		MaxTokens:           512,
		SystemPrompt:        "You are a helpful assistant for a small business. Answer concisely.",
		UseKnowledgeBase:    true,
		FallbackToLLM:       false,
		ConfidenceThreshold: 0.6,
	}
}

// RequiredSlotMapping maps a spec.md TaskConfig.RequiredFields entry to the
// concrete slot name the form resolver fills (spec.md §4.1 Required-slot
// resolution). Fields absent from this map are ignored.
var RequiredSlotMapping = map[string]string{
	"date":    "booking_date",
	"time":    "booking_time",
	"name":    "customer_name",
	"email":   "customer_email",
	"phone":   "customer_phone",
	"service": "service_type",
}
