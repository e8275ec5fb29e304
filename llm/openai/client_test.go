package openai_test

import (
	"context"
	"testing"

	openaisdk "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"

	"github.com/taskforge-ai/dialoguebot/llm"
	openaiadapter "github.com/taskforge-ai/dialoguebot/llm/openai"
)

type mockChatClient struct {
	response openaisdk.ChatCompletionResponse
	err      error
	captured openaisdk.ChatCompletionRequest
}

func (m *mockChatClient) CreateChatCompletion(_ context.Context, request openaisdk.ChatCompletionRequest) (openaisdk.ChatCompletionResponse, error) {
	m.captured = request
	return m.response, m.err
}

func TestGenerateTranslatesResponse(t *testing.T) {
	mock := &mockChatClient{
		response: openaisdk.ChatCompletionResponse{
			Choices: []openaisdk.ChatCompletionChoice{
				{Message: openaisdk.ChatCompletionMessage{Role: "assistant", Content: "hi there"}},
			},
			Usage: openaisdk.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		},
	}
	client, err := openaiadapter.New(openaiadapter.Options{Client: mock, DefaultModel: "gpt-4o"})
	require.NoError(t, err)

	resp := client.Generate(context.Background(), llm.Request{
		Messages: llm.BuildMessages("be helpful", "", "hello"),
	})
	require.True(t, resp.Success)
	require.Equal(t, "hi there", resp.Response)
	require.Equal(t, 15, resp.Usage.TotalTokens)
	require.Equal(t, "gpt-4o", mock.captured.Model)
	require.Len(t, mock.captured.Messages, 2)
}

func TestGenerateRequiresMessages(t *testing.T) {
	client, err := openaiadapter.New(openaiadapter.Options{Client: &mockChatClient{}, DefaultModel: "gpt-4o"})
	require.NoError(t, err)

	resp := client.Generate(context.Background(), llm.Request{})
	require.False(t, resp.Success)
}

func TestNewRequiresDefaultModel(t *testing.T) {
	_, err := openaiadapter.New(openaiadapter.Options{Client: &mockChatClient{}})
	require.Error(t, err)
}

func TestGenerateClassifiesAPIError(t *testing.T) {
	mock := &mockChatClient{err: &openaisdk.APIError{HTTPStatusCode: 429, Message: "rate limited"}}
	client, err := openaiadapter.New(openaiadapter.Options{Client: mock, DefaultModel: "gpt-4o"})
	require.NoError(t, err)

	resp := client.Generate(context.Background(), llm.Request{Messages: llm.BuildMessages("", "", "hi")})
	require.False(t, resp.Success)
	require.Contains(t, resp.Error, "rate_limited")
}
