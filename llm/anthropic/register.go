package anthropic

import (
	"github.com/taskforge-ai/dialoguebot/config"
	"github.com/taskforge-ai/dialoguebot/llm"
)

func init() {
	llm.RegisterFactory(config.LLMProviderAnthropic, func(cfg config.LLMConfig) (llm.Client, error) {
		return NewFromAPIKey(cfg.APIKey, cfg.Model)
	})
}
