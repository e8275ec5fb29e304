// Package bedrock adapts the unified llm.Client contract to AWS Bedrock's
// Converse API via github.com/aws/aws-sdk-go-v2/service/bedrockruntime,
// serving spec.md §4.5's open-ended "custom" provider slot for a
// self-hosted or BYO-model deployment reached through Bedrock.
package bedrock

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"

	"github.com/taskforge-ai/dialoguebot/llm"
)

// ConverseClient captures the subset of the Bedrock runtime client used by
// the adapter, satisfied by *bedrockruntime.Client so tests can substitute a fake.
type ConverseClient interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Options configures the adapter.
type Options struct {
	Client  ConverseClient
	ModelID string // Bedrock inference profile or model ARN/ID
}

// Client implements llm.Client on top of Bedrock Converse.
type Client struct {
	conv    ConverseClient
	modelID string
}

// New builds a Bedrock-backed client. ModelID is required.
func New(opts Options) (*Client, error) {
	if opts.Client == nil {
		return nil, errors.New("bedrock: client is required")
	}
	if strings.TrimSpace(opts.ModelID) == "" {
		return nil, errors.New("bedrock: model id is required")
	}
	return &Client{conv: opts.Client, modelID: opts.ModelID}, nil
}

// Generate converts the unified 3-role sequence into Bedrock Converse's
// system blocks + message list split.
func (c *Client) Generate(ctx context.Context, req llm.Request) llm.Response {
	modelID := req.Model
	if modelID == "" {
		modelID = c.modelID
	}
	if len(req.Messages) == 0 {
		return llm.ToResponse(modelID, errors.New("bedrock: messages are required"))
	}

	ctx, cancel := context.WithTimeout(ctx, llm.HostedTimeout)
	defer cancel()

	var system []types.SystemContentBlock
	var messages []types.Message
	for _, m := range req.Messages {
		block := types.ContentBlockMemberText{Value: m.Content}
		switch m.Role {
		case llm.RoleSystem:
			system = append(system, &types.SystemContentBlockMemberText{Value: m.Content})
		case llm.RoleAssistant:
			messages = append(messages, types.Message{Role: types.ConversationRoleAssistant, Content: []types.ContentBlock{&block}})
		default:
			messages = append(messages, types.Message{Role: types.ConversationRoleUser, Content: []types.ContentBlock{&block}})
		}
	}
	if len(messages) == 0 {
		return llm.ToResponse(modelID, errors.New("bedrock: at least one user message is required"))
	}

	inferCfg := &types.InferenceConfiguration{}
	if req.Temperature > 0 {
		t := float32(req.Temperature)
		inferCfg.Temperature = &t
	}
	if req.MaxTokens > 0 {
		max := int32(req.MaxTokens)
		inferCfg.MaxTokens = &max
	}

	out, err := c.conv.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId:         aws.String(modelID),
		Messages:        messages,
		System:          system,
		InferenceConfig: inferCfg,
	})
	if err != nil {
		return llm.ToResponse(modelID, classifyErr(err))
	}
	return translateResponse(modelID, out)
}

func translateResponse(modelID string, out *bedrockruntime.ConverseOutput) llm.Response {
	msgOut, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return llm.ToResponse(modelID, errors.New("bedrock: unexpected output shape"))
	}
	var text strings.Builder
	for _, block := range msgOut.Value.Content {
		if tb, ok := block.(*types.ContentBlockMemberText); ok {
			text.WriteString(tb.Value)
		}
	}
	usage := llm.Usage{}
	if out.Usage != nil {
		usage.InputTokens = int(aws.ToInt32(out.Usage.InputTokens))
		usage.OutputTokens = int(aws.ToInt32(out.Usage.OutputTokens))
		usage.TotalTokens = int(aws.ToInt32(out.Usage.TotalTokens))
	}
	return llm.Response{Success: true, Response: text.String(), Model: modelID, Usage: usage}
}

func classifyErr(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		kind := llm.ProviderErrorUnknown
		switch apiErr.ErrorCode() {
		case "AccessDeniedException", "UnrecognizedClientException":
			kind = llm.ProviderErrorAuth
		case "ThrottlingException", "ServiceQuotaExceededException":
			kind = llm.ProviderErrorRateLimited
		case "ModelTimeoutException", "InternalServerException", "ServiceUnavailableException":
			kind = llm.ProviderErrorUnavailable
		case "ValidationException", "ModelErrorException":
			kind = llm.ProviderErrorInvalidRequest
		}
		retryable := kind == llm.ProviderErrorRateLimited || kind == llm.ProviderErrorUnavailable
		return llm.NewProviderError("bedrock", "converse", 0, kind, apiErr.ErrorCode(), apiErr.ErrorMessage(), retryable, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return llm.NewProviderError("bedrock", "converse", 0, llm.ProviderErrorTimeout, "", "request timed out", true, err)
	}
	return llm.NewProviderError("bedrock", "converse", 0, llm.ProviderErrorUnknown, "", err.Error(), false, err)
}
