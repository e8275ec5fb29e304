package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPAdminFetcher implements AdminFetcher over the read-only admin REST
// surface described in spec.md §6: GET /api/admin/config/tasks/{name} and
// GET /api/llm/config. It is deliberately narrow — only the read contract is
// consumed, never the edit surface, which is out of scope (spec.md §1).
type HTTPAdminFetcher struct {
	baseURL string
	client  *http.Client
}

// NewHTTPAdminFetcher constructs an AdminFetcher against the given base URL
// (for example "https://admin.internal.example.com").
func NewHTTPAdminFetcher(baseURL string) *HTTPAdminFetcher {
	return &HTTPAdminFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type taskConfigEnvelope struct {
	Enabled           bool          `json:"enabled"`
	RequiredFields    []string      `json:"required_fields"`
	OptionalFields    []string      `json:"optional_fields"`
	BusinessHours     BusinessHours `json:"business_hours"`
	BlockedDates      []string      `json:"blocked_dates"`
	Services          []ServiceOption `json:"services,omitempty"`
	BookingWindowDays int           `json:"booking_window_days,omitempty"`
	MeetingTypes      []MeetingType `json:"meeting_types,omitempty"`
	MaxReschedules    int           `json:"max_reschedules,omitempty"`
	CancellationPolicy string       `json:"cancellation_policy,omitempty"`
}

// FetchTask issues GET /api/admin/config/tasks/{name}. A 404 response is
// reported as (zero, false, nil): no error, simply no snapshot at this layer.
func (f *HTTPAdminFetcher) FetchTask(ctx context.Context, name string) (TaskConfig, bool, error) {
	u := fmt.Sprintf("%s/api/admin/config/tasks/%s", f.baseURL, url.PathEscape(name))
	var env taskConfigEnvelope
	ok, err := f.getJSON(ctx, u, &env)
	if err != nil || !ok {
		return TaskConfig{}, ok, err
	}
	return TaskConfig{
		Name:               name,
		Enabled:            env.Enabled,
		RequiredFields:     env.RequiredFields,
		OptionalFields:     env.OptionalFields,
		BusinessHours:      env.BusinessHours,
		BlockedDates:       env.BlockedDates,
		Services:           env.Services,
		BookingWindowDays:  env.BookingWindowDays,
		MeetingTypes:       env.MeetingTypes,
		MaxReschedules:     env.MaxReschedules,
		CancellationPolicy: env.CancellationPolicy,
	}, true, nil
}

type llmConfigEnvelope struct {
	Config struct {
		Provider            LLMProvider `json:"provider"`
		Model               string      `json:"model"`
		APIKey              string      `json:"api_key"`
		BaseURL             string      `json:"base_url"`
		Temperature         float64     `json:"temperature"`
		MaxTokens           int         `json:"max_tokens"`
		SystemPrompt        string      `json:"system_prompt"`
		UseKnowledgeBase    bool        `json:"use_knowledge_base"`
		FallbackToLLM       bool        `json:"fallback_to_llm"`
		ConfidenceThreshold float64     `json:"confidence_threshold"`
		AzureEndpoint       string      `json:"azure_endpoint"`
		AzureAPIVersion     string      `json:"azure_api_version"`
		Region              string      `json:"region"`
	} `json:"config"`
}

// FetchLLM issues GET /api/llm/config.
func (f *HTTPAdminFetcher) FetchLLM(ctx context.Context) (LLMConfig, bool, error) {
	u := f.baseURL + "/api/llm/config"
	var env llmConfigEnvelope
	ok, err := f.getJSON(ctx, u, &env)
	if err != nil || !ok {
		return LLMConfig{}, ok, err
	}
	c := env.Config
	return LLMConfig{
		Provider:            c.Provider,
		Model:               c.Model,
		APIKey:              c.APIKey,
		BaseURL:             c.BaseURL,
		Temperature:         c.Temperature,
		MaxTokens:           c.MaxTokens,
		SystemPrompt:        c.SystemPrompt,
		UseKnowledgeBase:    c.UseKnowledgeBase,
		FallbackToLLM:       c.FallbackToLLM,
		ConfidenceThreshold: c.ConfidenceThreshold,
		AzureEndpoint:       c.AzureEndpoint,
		AzureAPIVersion:     c.AzureAPIVersion,
		Region:              c.Region,
	}, true, nil
}

// FetchBot issues GET /api/admin/config/bot.
func (f *HTTPAdminFetcher) FetchBot(ctx context.Context) (BotConfig, bool, error) {
	u := f.baseURL + "/api/admin/config/bot"
	var cfg BotConfig
	ok, err := f.getJSON(ctx, u, &cfg)
	return cfg, ok, err
}

func (f *HTTPAdminFetcher) getJSON(ctx context.Context, u string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := f.client.Do(req)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("config: admin api %s returned status %d", u, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("config: decode admin response from %s: %w", u, err)
	}
	return true, nil
}
