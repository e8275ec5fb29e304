// Package google adapts the unified llm.Client contract to Gemini via
// google.golang.org/genai.
package google

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"

	"github.com/taskforge-ai/dialoguebot/llm"
)

// ModelsClient captures the subset of the genai client used by the adapter.
type ModelsClient interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Options configures the adapter.
type Options struct {
	Client       ModelsClient
	DefaultModel string
}

// Client implements llm.Client on top of the Gemini Generate Content API.
type Client struct {
	models ModelsClient
	model  string
}

// New builds a Gemini-backed client from the provided options.
func New(opts Options) (*Client, error) {
	if opts.Client == nil {
		return nil, errors.New("google: client is required")
	}
	if strings.TrimSpace(opts.DefaultModel) == "" {
		return nil, errors.New("google: default model is required")
	}
	return &Client{models: opts.Client, model: opts.DefaultModel}, nil
}

// NewFromAPIKey constructs a client using the default genai HTTP backend.
func NewFromAPIKey(ctx context.Context, apiKey, defaultModel string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("google: api key is required")
	}
	cl, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	return New(Options{Client: cl.Models, DefaultModel: defaultModel})
}

// Generate converts the unified 3-role sequence into Gemini's
// systemInstruction + contents split (spec.md §4.5: system messages collapse
// into a single systemInstruction, conversation turns become contents).
func (c *Client) Generate(ctx context.Context, req llm.Request) llm.Response {
	modelID := req.Model
	if modelID == "" {
		modelID = c.model
	}
	if len(req.Messages) == 0 {
		return llm.ToResponse(modelID, errors.New("google: messages are required"))
	}

	ctx, cancel := context.WithTimeout(ctx, llm.HostedTimeout)
	defer cancel()

	var system strings.Builder
	var contents []*genai.Content
	for _, m := range req.Messages {
		switch m.Role {
		case llm.RoleSystem:
			if system.Len() > 0 {
				system.WriteString("\n\n")
			}
			system.WriteString(m.Content)
		case llm.RoleAssistant:
			contents = append(contents, &genai.Content{Role: "model", Parts: []*genai.Part{{Text: m.Content}}})
		default:
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: m.Content}}})
		}
	}
	if len(contents) == 0 {
		return llm.ToResponse(modelID, errors.New("google: at least one user message is required"))
	}

	config := &genai.GenerateContentConfig{}
	if system.Len() > 0 {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system.String()}}}
	}
	if req.Temperature > 0 {
		temp := float32(req.Temperature)
		config.Temperature = &temp
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := c.models.GenerateContent(ctx, modelID, contents, config)
	if err != nil {
		return llm.ToResponse(modelID, classifyErr(err))
	}
	return translateResponse(modelID, resp)
}

func translateResponse(modelID string, resp *genai.GenerateContentResponse) llm.Response {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return llm.ToResponse(modelID, errors.New("google: empty response"))
	}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	usage := llm.Usage{}
	if resp.UsageMetadata != nil {
		usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	return llm.Response{Success: true, Response: text.String(), Model: modelID, Usage: usage}
}

func classifyErr(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		kind := llm.ProviderErrorUnknown
		switch {
		case apiErr.Code == 401 || apiErr.Code == 403:
			kind = llm.ProviderErrorAuth
		case apiErr.Code == 429:
			kind = llm.ProviderErrorRateLimited
		case apiErr.Code >= 500:
			kind = llm.ProviderErrorUnavailable
		case apiErr.Code >= 400:
			kind = llm.ProviderErrorInvalidRequest
		}
		return llm.NewProviderError("google", "generate_content", apiErr.Code, kind, "", apiErr.Message, kind == llm.ProviderErrorRateLimited || kind == llm.ProviderErrorUnavailable, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return llm.NewProviderError("google", "generate_content", 0, llm.ProviderErrorTimeout, "", "request timed out", true, err)
	}
	return llm.NewProviderError("google", "generate_content", 0, llm.ProviderErrorUnknown, "", err.Error(), false, err)
}
