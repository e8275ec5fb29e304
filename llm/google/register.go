package google

import (
	"context"

	"github.com/taskforge-ai/dialoguebot/config"
	"github.com/taskforge-ai/dialoguebot/llm"
)

func init() {
	llm.RegisterFactory(config.LLMProviderGoogle, func(cfg config.LLMConfig) (llm.Client, error) {
		return NewFromAPIKey(context.Background(), cfg.APIKey, cfg.Model)
	})
}
