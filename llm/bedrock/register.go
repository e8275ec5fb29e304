package bedrock

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/taskforge-ai/dialoguebot/config"
	"github.com/taskforge-ai/dialoguebot/llm"
)

func init() {
	llm.RegisterFactory(config.LLMProviderCustom, func(cfg config.LLMConfig) (llm.Client, error) {
		optFns := []func(*awsconfig.LoadOptions) error{}
		if cfg.Region != "" {
			optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), optFns...)
		if err != nil {
			return nil, err
		}
		return New(Options{Client: bedrockruntime.NewFromConfig(awsCfg), ModelID: cfg.Model})
	})
}
