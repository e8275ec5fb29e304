// Package anthropic adapts the unified llm.Client contract to the Anthropic
// Claude Messages API via github.com/anthropics/anthropic-sdk-go.
package anthropic

import (
	"context"
	"errors"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/taskforge-ai/dialoguebot/llm"
)

// MessagesClient captures the subset of the Anthropic SDK client used by the
// adapter, satisfied by *sdk.MessageService so tests can substitute a fake.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Options configures the Anthropic adapter.
type Options struct {
	Client       MessagesClient
	DefaultModel string
	MaxTokens    int // default completion cap when Request.MaxTokens is unset
}

// Client implements llm.Client on top of Anthropic Claude Messages.
type Client struct {
	msg    MessagesClient
	model  string
	maxTok int
}

// New builds an Anthropic-backed client from the provided options.
func New(opts Options) (*Client, error) {
	if opts.Client == nil {
		return nil, errors.New("anthropic: client is required")
	}
	if opts.DefaultModel == "" {
		return nil, errors.New("anthropic: default model is required")
	}
	maxTok := opts.MaxTokens
	if maxTok <= 0 {
		maxTok = 1024
	}
	return &Client{msg: opts.Client, model: opts.DefaultModel, maxTok: maxTok}, nil
}

// NewFromAPIKey constructs a client using the default Anthropic HTTP client.
func NewFromAPIKey(apiKey, defaultModel string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	ac := sdk.NewClient(option.WithAPIKey(apiKey))
	return New(Options{Client: &ac.Messages, DefaultModel: defaultModel})
}

// Generate issues a Messages.New request, translating the unified 3-role
// sequence into Anthropic's system/messages split (spec.md §4.5: Anthropic
// takes "system" out of the message list as a top-level parameter).
func (c *Client) Generate(ctx context.Context, req llm.Request) llm.Response {
	modelID := req.Model
	if modelID == "" {
		modelID = c.model
	}
	if len(req.Messages) == 0 {
		return llm.ToResponse(modelID, errors.New("anthropic: messages are required"))
	}

	ctx, cancel := context.WithTimeout(ctx, llm.HostedTimeout)
	defer cancel()

	params, err := c.prepareRequest(modelID, req)
	if err != nil {
		return llm.ToResponse(modelID, err)
	}

	msg, err := c.msg.New(ctx, *params)
	if err != nil {
		return llm.ToResponse(modelID, classifyErr(err))
	}
	return translateResponse(modelID, msg)
}

func (c *Client) prepareRequest(modelID string, req llm.Request) (*sdk.MessageNewParams, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTok
	}

	var system []sdk.TextBlockParam
	var conversation []sdk.MessageParam
	for _, m := range req.Messages {
		switch m.Role {
		case llm.RoleSystem:
			system = append(system, sdk.TextBlockParam{Text: m.Content})
		case llm.RoleAssistant:
			conversation = append(conversation, sdk.NewAssistantMessage(sdk.NewTextBlock(m.Content)))
		default:
			conversation = append(conversation, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		}
	}
	if len(conversation) == 0 {
		return nil, errors.New("anthropic: at least one user message is required")
	}

	params := sdk.MessageNewParams{
		MaxTokens: int64(maxTokens),
		Messages:  conversation,
		Model:     sdk.Model(modelID),
	}
	if len(system) > 0 {
		params.System = system
	}
	if req.Temperature > 0 {
		params.Temperature = sdk.Float(req.Temperature)
	}
	return &params, nil
}

func translateResponse(modelID string, msg *sdk.Message) llm.Response {
	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return llm.Response{
		Success:  true,
		Response: text.String(),
		Model:    modelID,
		Usage: llm.Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
			TotalTokens:  int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}
}

// classifyErr wraps an Anthropic SDK error into an llm.ProviderError.
func classifyErr(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		kind := llm.ProviderErrorUnknown
		switch {
		case apiErr.StatusCode == 401:
			kind = llm.ProviderErrorAuth
		case apiErr.StatusCode == 429:
			kind = llm.ProviderErrorRateLimited
		case apiErr.StatusCode >= 500:
			kind = llm.ProviderErrorUnavailable
		case apiErr.StatusCode >= 400:
			kind = llm.ProviderErrorInvalidRequest
		}
		return llm.NewProviderError("anthropic", "messages.new", apiErr.StatusCode, kind, "", apiErr.Message, kind == llm.ProviderErrorRateLimited || kind == llm.ProviderErrorUnavailable, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return llm.NewProviderError("anthropic", "messages.new", 0, llm.ProviderErrorTimeout, "", "request timed out", true, err)
	}
	return llm.NewProviderError("anthropic", "messages.new", 0, llm.ProviderErrorUnknown, "", err.Error(), false, err)
}
