package config_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taskforge-ai/dialoguebot/config"
)

type fakeAdmin struct {
	calls   int32
	task    config.TaskConfig
	taskOK  bool
	llm     config.LLMConfig
	llmOK   bool
}

func (f *fakeAdmin) FetchTask(context.Context, string) (config.TaskConfig, bool, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.task, f.taskOK, nil
}

func (f *fakeAdmin) FetchLLM(context.Context) (config.LLMConfig, bool, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.llm, f.llmOK, nil
}

func (f *fakeAdmin) FetchBot(context.Context) (config.BotConfig, bool, error) {
	return config.BotConfig{}, false, nil
}

func TestGetTaskConfigFallsBackToDefault(t *testing.T) {
	c := config.New(config.Options{})
	got, err := c.GetTaskConfig(context.Background(), "book_service")
	require.NoError(t, err)
	require.True(t, got.Enabled)
	require.NotEmpty(t, got.Services)
}

func TestGetTaskConfigCachesWithinTTL(t *testing.T) {
	admin := &fakeAdmin{
		task:   config.TaskConfig{Name: "book_service", Enabled: true, BookingWindowDays: 30},
		taskOK: true,
	}
	c := config.New(config.Options{Admin: admin, TTL: time.Minute})

	for i := 0; i < 5; i++ {
		got, err := c.GetTaskConfig(context.Background(), "book_service")
		require.NoError(t, err)
		require.Equal(t, 30, got.BookingWindowDays)
	}
	require.EqualValues(t, 1, atomic.LoadInt32(&admin.calls), "repeated reads within TTL must not hit the admin API again")
}

func TestInvalidateForcesRefetch(t *testing.T) {
	admin := &fakeAdmin{
		task:   config.TaskConfig{Name: "book_service", Enabled: true, BookingWindowDays: 30},
		taskOK: true,
	}
	c := config.New(config.Options{Admin: admin, TTL: time.Minute})

	_, err := c.GetTaskConfig(context.Background(), "book_service")
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(context.Background(), "book_service"))

	admin.task.BookingWindowDays = 45
	got, err := c.GetTaskConfig(context.Background(), "book_service")
	require.NoError(t, err)
	require.Equal(t, 45, got.BookingWindowDays)
	require.EqualValues(t, 2, atomic.LoadInt32(&admin.calls))
}

func TestLLMConfigMaskingHidesAPIKey(t *testing.T) {
	cfg := config.LLMConfig{APIKey: "sk-abcdefghijklmnop"}
	masked := cfg.Mask()
	require.True(t, masked.APIKeySet)
	require.NotContains(t, masked.APIKeyMasked, "abcdefghijkl")
	require.True(t, len(masked.APIKeyMasked) == len(cfg.APIKey))

	empty := config.LLMConfig{}.Mask()
	require.False(t, empty.APIKeySet)
	require.Empty(t, empty.APIKeyMasked)
}
