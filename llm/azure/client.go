// Package azure adapts the unified llm.Client contract to Azure OpenAI
// Service, reusing github.com/sashabaranov/go-openai's Azure configuration
// mode (spec.md §4.5: "azure" is an OpenAI-compatible deployment reached via
// a tenant-specific endpoint and deployment name instead of a model name).
package azure

import (
	"context"
	"errors"
	"strings"

	openaisdk "github.com/sashabaranov/go-openai"

	"github.com/taskforge-ai/dialoguebot/llm"
	openaiadapter "github.com/taskforge-ai/dialoguebot/llm/openai"
)

// Config holds the Azure-specific connection parameters.
type Config struct {
	APIKey         string
	Endpoint       string // e.g. https://<resource>.openai.azure.com
	DeploymentName string // used as the model ID in requests
	APIVersion     string // defaults to "2024-06-01" when empty
}

// New builds an llm.Client backed by an Azure OpenAI deployment.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("azure: api key is required")
	}
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("azure: endpoint is required")
	}
	if strings.TrimSpace(cfg.DeploymentName) == "" {
		return nil, errors.New("azure: deployment name is required")
	}
	azCfg := openaisdk.DefaultAzureConfig(cfg.APIKey, cfg.Endpoint)
	if cfg.APIVersion != "" {
		azCfg.APIVersion = cfg.APIVersion
	}
	azCfg.AzureModelMapperFunc = func(string) string { return cfg.DeploymentName }

	inner, err := openaiadapter.New(openaiadapter.Options{
		Client:       openaisdk.NewClientWithConfig(azCfg),
		DefaultModel: cfg.DeploymentName,
	})
	if err != nil {
		return nil, err
	}
	return &Client{inner: inner}, nil
}

// Client implements llm.Client by delegating to the OpenAI adapter
// configured for Azure, so request translation and error classification are shared rather than
// duplicated (spec.md §9 Design Notes).
type Client struct {
	inner *openaiadapter.Client
}

func (c *Client) Generate(ctx context.Context, req llm.Request) llm.Response {
	return c.inner.Generate(ctx, req)
}
