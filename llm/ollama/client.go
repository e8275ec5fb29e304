// Package ollama adapts the unified llm.Client contract to a local Ollama
// server's /api/chat endpoint. No Go SDK for Ollama appeared in the example
// corpus, so this adapter speaks the documented JSON-over-HTTP protocol
// directly with net/http, in the style of the teacher's runtime/a2a/httpclient
// client (spec.md §4.5: local models get longer timeouts and no retry-on-429
// since Ollama has no rate limiting).
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/taskforge-ai/dialoguebot/llm"
)

// Client implements llm.Client against a local Ollama server.
type Client struct {
	baseURL string
	http    *http.Client
	model   string
}

// Options configures the adapter.
type Options struct {
	BaseURL      string // e.g. http://localhost:11434
	DefaultModel string
	HTTPClient   *http.Client
}

// New builds an Ollama-backed client. BaseURL and DefaultModel are required.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("ollama: base url is required")
	}
	if strings.TrimSpace(opts.DefaultModel) == "" {
		return nil, errors.New("ollama: default model is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: llm.LocalTimeout}
	}
	return &Client{baseURL: strings.TrimRight(opts.BaseURL, "/"), http: httpClient, model: opts.DefaultModel}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  chatOptions   `json:"options,omitempty"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatResponse struct {
	Model           string      `json:"model"`
	Message         chatMessage `json:"message"`
	Done            bool        `json:"done"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
	Error           string      `json:"error"`
}

// Generate issues a non-streaming chat completion against /api/chat.
func (c *Client) Generate(ctx context.Context, req llm.Request) llm.Response {
	modelID := req.Model
	if modelID == "" {
		modelID = c.model
	}
	if len(req.Messages) == 0 {
		return llm.ToResponse(modelID, errors.New("ollama: messages are required"))
	}

	ctx, cancel := context.WithTimeout(ctx, llm.LocalTimeout)
	defer cancel()

	messages := make([]chatMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = chatMessage{Role: string(m.Role), Content: m.Content}
	}
	body, err := json.Marshal(chatRequest{
		Model:    modelID,
		Messages: messages,
		Stream:   false,
		Options:  chatOptions{Temperature: req.Temperature, NumPredict: req.MaxTokens},
	})
	if err != nil {
		return llm.ToResponse(modelID, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return llm.ToResponse(modelID, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return llm.ToResponse(modelID, classifyErr(err))
	}
	defer resp.Body.Close()

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return llm.ToResponse(modelID, fmt.Errorf("ollama: decode response: %w", err))
	}
	if resp.StatusCode != http.StatusOK || parsed.Error != "" {
		msg := parsed.Error
		if msg == "" {
			msg = resp.Status
		}
		kind := llm.ProviderErrorUnknown
		switch {
		case resp.StatusCode == 404:
			kind = llm.ProviderErrorInvalidRequest
		case resp.StatusCode >= 500:
			kind = llm.ProviderErrorUnavailable
		}
		return llm.ToResponse(modelID, llm.NewProviderError("ollama", "chat", resp.StatusCode, kind, "", msg, kind == llm.ProviderErrorUnavailable, nil))
	}

	return llm.Response{
		Success:  true,
		Response: parsed.Message.Content,
		Model:    modelID,
		Usage: llm.Usage{
			InputTokens:  parsed.PromptEvalCount,
			OutputTokens: parsed.EvalCount,
			TotalTokens:  parsed.PromptEvalCount + parsed.EvalCount,
		},
	}
}

func classifyErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return llm.NewProviderError("ollama", "chat", 0, llm.ProviderErrorTimeout, "", "request timed out", true, err)
	}
	return llm.NewProviderError("ollama", "chat", 0, llm.ProviderErrorUnavailable, "", err.Error(), true, err)
}
