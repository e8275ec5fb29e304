package azure

import (
	"github.com/taskforge-ai/dialoguebot/config"
	"github.com/taskforge-ai/dialoguebot/llm"
)

func init() {
	llm.RegisterFactory(config.LLMProviderAzure, func(cfg config.LLMConfig) (llm.Client, error) {
		return New(Config{
			APIKey:         cfg.APIKey,
			Endpoint:       cfg.AzureEndpoint,
			DeploymentName: cfg.Model,
			APIVersion:     cfg.AzureAPIVersion,
		})
	})
}
