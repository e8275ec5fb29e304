package llm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taskforge-ai/dialoguebot/llm"
)

func TestBuildMessagesWithContext(t *testing.T) {
	msgs := llm.BuildMessages("You are a helpful bot.", "Open 9-6 Mon-Fri.", "When do you open?")
	require.Len(t, msgs, 3)
	require.Equal(t, llm.RoleSystem, msgs[0].Role)
	require.Equal(t, "You are a helpful bot.", msgs[0].Content)
	require.Equal(t, llm.RoleSystem, msgs[1].Role)
	require.Contains(t, msgs[1].Content, "Open 9-6 Mon-Fri.")
	require.Equal(t, llm.RoleUser, msgs[2].Role)
	require.Equal(t, "When do you open?", msgs[2].Content)
}

func TestBuildMessagesWithoutContext(t *testing.T) {
	msgs := llm.BuildMessages("system prompt", "", "hello")
	require.Len(t, msgs, 2)
	require.Equal(t, llm.RoleSystem, msgs[0].Role)
	require.Equal(t, llm.RoleUser, msgs[1].Role)
}

func TestBuildMessagesNoSystemPrompt(t *testing.T) {
	msgs := llm.BuildMessages("", "", "hello")
	require.Len(t, msgs, 1)
	require.Equal(t, llm.RoleUser, msgs[0].Role)
}

func TestToResponseWrapsProviderError(t *testing.T) {
	err := llm.NewProviderError("openai", "chat", 429, llm.ProviderErrorRateLimited, "rate_limit", "slow down", true, nil)
	resp := llm.ToResponse("gpt-4o", err)
	require.False(t, resp.Success)
	require.Contains(t, resp.Error, "rate_limited")
	require.Equal(t, "gpt-4o", resp.Model)
}
