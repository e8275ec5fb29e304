// Package openai adapts the unified llm.Client contract to the OpenAI Chat
// Completions API via github.com/sashabaranov/go-openai.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/taskforge-ai/dialoguebot/llm"
)

// ChatClient captures the subset of the go-openai client used by the adapter.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Options configures the adapter.
type Options struct {
	Client       ChatClient
	DefaultModel string
}

// Client implements llm.Client via OpenAI Chat Completions.
type Client struct {
	chat  ChatClient
	model string
}

// New builds an OpenAI-backed client from the provided options.
func New(opts Options) (*Client, error) {
	if opts.Client == nil {
		return nil, errors.New("openai: client is required")
	}
	modelID := strings.TrimSpace(opts.DefaultModel)
	if modelID == "" {
		return nil, errors.New("openai: default model is required")
	}
	return &Client{chat: opts.Client, model: modelID}, nil
}

// NewFromAPIKey constructs a client using the default go-openai HTTP client.
func NewFromAPIKey(apiKey, defaultModel string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("openai: api key is required")
	}
	return New(Options{Client: openai.NewClient(apiKey), DefaultModel: defaultModel})
}

// Generate renders a chat completion, never letting a provider error escape
// as a Go error (spec.md §4.5 Failure semantics).
func (c *Client) Generate(ctx context.Context, req llm.Request) llm.Response {
	modelID := strings.TrimSpace(req.Model)
	if modelID == "" {
		modelID = c.model
	}
	if len(req.Messages) == 0 {
		return llm.ToResponse(modelID, errors.New("openai: messages are required"))
	}

	ctx, cancel := context.WithTimeout(ctx, llm.HostedTimeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{Role: string(msg.Role), Content: msg.Content}
	}
	request := openai.ChatCompletionRequest{
		Model:       modelID,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	}

	resp, err := c.chat.CreateChatCompletion(ctx, request)
	if err != nil {
		return llm.ToResponse(modelID, classifyErr(modelID, err))
	}
	return translateResponse(modelID, resp)
}

func translateResponse(modelID string, resp openai.ChatCompletionResponse) llm.Response {
	if len(resp.Choices) == 0 {
		return llm.ToResponse(modelID, errors.New("openai: empty choices"))
	}
	return llm.Response{
		Success:  true,
		Response: resp.Choices[0].Message.Content,
		Model:    modelID,
		Usage: llm.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
	}
}

// classifyErr wraps a go-openai error into an llm.ProviderError so
// llm.ToResponse can surface a stable Error string.
func classifyErr(modelID string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		kind := llm.ProviderErrorUnknown
		switch {
		case apiErr.HTTPStatusCode == 401:
			kind = llm.ProviderErrorAuth
		case apiErr.HTTPStatusCode == 429:
			kind = llm.ProviderErrorRateLimited
		case apiErr.HTTPStatusCode >= 500:
			kind = llm.ProviderErrorUnavailable
		case apiErr.HTTPStatusCode >= 400:
			kind = llm.ProviderErrorInvalidRequest
		}
		code := ""
		if apiErr.Code != nil {
			code = fmt.Sprint(apiErr.Code)
		}
		return llm.NewProviderError("openai", "chat_completion", apiErr.HTTPStatusCode, kind, code, apiErr.Message, kind == llm.ProviderErrorRateLimited || kind == llm.ProviderErrorUnavailable, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return llm.NewProviderError("openai", "chat_completion", 0, llm.ProviderErrorTimeout, "", "request timed out", true, err)
	}
	return llm.NewProviderError("openai", "chat_completion", 0, llm.ProviderErrorUnknown, "", err.Error(), false, err)
}
