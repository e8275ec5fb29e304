package llm

import (
	"context"
	"fmt"

	"github.com/taskforge-ai/dialoguebot/config"
)

// Factory constructs a provider Client from its LLMConfig. Each provider
// subpackage supplies one via RegisterFactory at init time, so the
// dispatcher never imports a concrete SDK directly (spec.md §9: "a tagged
// variant over adapters with a single generate capability").
type Factory func(cfg config.LLMConfig) (Client, error)

var factories = map[config.LLMProvider]Factory{}

// RegisterFactory wires a provider family's constructor into the
// dispatcher. Intended to be called from each adapter subpackage's init(),
// mirroring the teacher's registration-at-init pattern for generated
// clients.
func RegisterFactory(provider config.LLMProvider, f Factory) {
	factories[provider] = f
}

// Dispatcher resolves a config.LLMConfig's provider to a concrete Client and
// issues the unified generate call, building the 3-role message sequence
// from spec.md §4.5 on every invocation so callers never construct
// llm.Request by hand.
type Dispatcher struct {
	cfg    config.LLMConfig
	client Client
}

// NewDispatcher builds a Dispatcher for the given LLM configuration. The
// provider named by cfg.Provider must have a registered Factory.
func NewDispatcher(cfg config.LLMConfig) (*Dispatcher, error) {
	factory, ok := factories[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("llm: no adapter registered for provider %q", cfg.Provider)
	}
	client, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("llm: build %s client: %w", cfg.Provider, err)
	}
	return &Dispatcher{cfg: cfg, client: client}, nil
}

// Generate builds the unified message sequence for userText/context per the
// configured system prompt and dispatches to the resolved provider client.
// It never returns a Go error: provider failures surface as
// Response.Success == false (spec.md §4.5 Failure semantics).
func (d *Dispatcher) Generate(ctx context.Context, userText, retrievedContext string) Response {
	req := Request{
		Messages:    BuildMessages(d.cfg.SystemPrompt, retrievedContext, userText),
		Model:       d.cfg.Model,
		Temperature: d.cfg.Temperature,
		MaxTokens:   d.cfg.MaxTokens,
	}
	return d.client.Generate(ctx, req)
}
