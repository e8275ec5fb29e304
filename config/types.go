// Package config implements the layered Config Cache (CC): a process-local
// map over a shared cache over an authoritative admin read API, falling
// back to built-in defaults, per spec.md §4.2. Snapshots returned by the
// cache are immutable; callers that need a derived value copy first.
package config

import "time"

// BusinessHours is a local-clock HH:MM interval. Start must be strictly
// before End (spec.md §3 invariants).
type BusinessHours struct {
	Start string // "HH:MM"
	End   string // "HH:MM"
}

// ServiceOption is one bookable service offered by the business.
type ServiceOption struct {
	ID   string
	Name string
}

// MeetingType is one schedulable meeting kind with its allowed durations.
type MeetingType struct {
	ID               string
	Name             string
	DurationsMinutes []int
}

// TaskConfig is the per-task snapshot consumed by the Dialogue Runtime's
// task-enablement gate and required-slot resolution (spec.md §3, §4.1). A
// single typed struct per task kind (booking, meeting, cancel, lookup) is
// used rather than a free-form map, per spec.md Design Note §9 — callers
// never touch raw JSON.
type TaskConfig struct {
	Name          string
	Enabled       bool
	RequiredFields []string
	OptionalFields []string
	BusinessHours BusinessHours
	BlockedDates  []string // ISO dates, YYYY-MM-DD

	// Booking-specific.
	Services         []ServiceOption
	BookingWindowDays int

	// Meeting-specific.
	MeetingTypes []MeetingType

	// Cancel/reschedule-specific.
	MaxReschedules      int
	CancellationPolicy  string
}

// BotConfig is the top-level bot identity/copy configuration (spec.md §3).
type BotConfig struct {
	Name                string
	WelcomeText         string
	FallbackText        string
	HandoffText         string
	BusinessName        string
	Timezone            string
	DefaultBusinessHours BusinessHours
}

// LLMProvider enumerates the supported LLM provider families (spec.md §4.5).
type LLMProvider string

const (
	LLMProviderOpenAI    LLMProvider = "openai"
	LLMProviderAzure     LLMProvider = "azure"
	LLMProviderAnthropic LLMProvider = "anthropic"
	LLMProviderGoogle    LLMProvider = "google"
	LLMProviderOllama    LLMProvider = "ollama"
	LLMProviderCustom    LLMProvider = "custom"
)

// LLMConfig is the runtime-configurable LLM dispatch configuration
// (spec.md §3). APIKey is never empty-masked in-process; Mask returns a copy
// with it masked for any read path that feeds an external consumer.
type LLMConfig struct {
	Provider            LLMProvider
	Model               string
	APIKey              string
	BaseURL             string
	Temperature         float64
	MaxTokens           int
	SystemPrompt        string
	UseKnowledgeBase    bool
	FallbackToLLM       bool
	ConfidenceThreshold float64

	// Azure-specific.
	AzureEndpoint   string
	AzureAPIVersion string

	// Custom-provider-specific (e.g. Bedrock region/ARN).
	Region string
}

// MaskedLLMConfig is the read-path view of LLMConfig with the API key
// replaced per spec.md §4.2: first4 + "*"×(len-8) + last4.
type MaskedLLMConfig struct {
	Provider            LLMProvider
	Model               string
	APIKeyMasked        string
	APIKeySet           bool
	BaseURL             string
	Temperature         float64
	MaxTokens           int
	SystemPrompt        string
	UseKnowledgeBase    bool
	FallbackToLLM       bool
	ConfidenceThreshold float64
}

// Mask returns the read-path view of cfg with the API key masked.
func (cfg LLMConfig) Mask() MaskedLLMConfig {
	return MaskedLLMConfig{
		Provider:            cfg.Provider,
		Model:               cfg.Model,
		APIKeyMasked:        maskAPIKey(cfg.APIKey),
		APIKeySet:           cfg.APIKey != "",
		BaseURL:             cfg.BaseURL,
		Temperature:         cfg.Temperature,
		MaxTokens:           cfg.MaxTokens,
		SystemPrompt:        cfg.SystemPrompt,
		UseKnowledgeBase:    cfg.UseKnowledgeBase,
		FallbackToLLM:       cfg.FallbackToLLM,
		ConfidenceThreshold: cfg.ConfidenceThreshold,
	}
}

func maskAPIKey(key string) string {
	const visible = 4
	if len(key) <= visible*2 {
		if key == "" {
			return ""
		}
		return repeat('*', len(key))
	}
	first := key[:visible]
	last := key[len(key)-visible:]
	return first + repeat('*', len(key)-2*visible) + last
}

func repeat(r rune, n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]rune, n)
	for i := range out {
		out[i] = r
	}
	return string(out)
}

// entryTTL is the default freshness window for a process-local cache entry.
const entryTTL = 5 * time.Minute
