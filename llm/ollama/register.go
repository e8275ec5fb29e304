package ollama

import (
	"github.com/taskforge-ai/dialoguebot/config"
	"github.com/taskforge-ai/dialoguebot/llm"
)

func init() {
	llm.RegisterFactory(config.LLMProviderOllama, func(cfg config.LLMConfig) (llm.Client, error) {
		return New(Options{BaseURL: cfg.BaseURL, DefaultModel: cfg.Model})
	})
}
