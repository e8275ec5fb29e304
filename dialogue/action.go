package dialogue

import (
	"context"
	"time"

	"github.com/taskforge-ai/dialoguebot/config"
)

// RunContext is the read-only view an Action receives: the conversation
// snapshot at turn start, the NLU-supplied intent/entities/text, and the
// component handles it may call out to (spec.md §4.1 "run(conversation,
// intent, entities, slots, dispatcher)"). "dispatcher" from spec.md is this
// runtime itself, reached via Dispatch for followup actions.
type RunContext struct {
	Conversation Conversation
	Intent       Intent
	Entities     []Entity
	Text         string
	Channel      string

	runtime *Runtime
}

// Dispatch runs another registered action inline within the same turn,
// implementing the FollowupAction event (spec.md §4.1, e.g. booking
// conflict -> get_available_meeting_times).
func (rc *RunContext) Dispatch(ctx context.Context, actionName string) (Result, error) {
	return rc.runtime.run(ctx, actionName, rc.Conversation, rc.Intent, rc.Entities, rc.Text, rc.Channel)
}

// TaskGate consults the Config Cache for taskName and reports whether the
// action should proceed (spec.md §4.1 Task-enablement gate): enabled and
// within business hours. When !ok, callers return msg as the action's sole
// output message and emit no events.
func (rc *RunContext) TaskGate(ctx context.Context, taskName string) (config.TaskConfig, bool, string) {
	return rc.runtime.TaskGate(ctx, taskName, rc.runtime.clock())
}

// BotConfig returns the current bot identity/copy configuration, falling
// back to defaults if no Config Cache is wired.
func (rc *RunContext) BotConfig(ctx context.Context) config.BotConfig {
	if rc.runtime.cc == nil {
		return config.DefaultBotConfig()
	}
	cfg, _ := rc.runtime.cc.GetBotConfig(ctx)
	return cfg
}

// LLMConfig returns the current LLM dispatch configuration, falling back to
// defaults if no Config Cache is wired.
func (rc *RunContext) LLMConfig(ctx context.Context) config.LLMConfig {
	if rc.runtime.cc == nil {
		return config.DefaultLLMConfig()
	}
	cfg, _ := rc.runtime.cc.GetLLMConfig(ctx)
	return cfg
}

// Now returns the runtime's current time, honoring a test clock override.
func (rc *RunContext) Now() time.Time { return rc.runtime.clock() }

// EntityValue returns the first entity with the given name, if any.
func (rc *RunContext) EntityValue(name string) (any, bool) {
	for _, e := range rc.Entities {
		if e.Name == name {
			return e.Value, true
		}
	}
	return nil, false
}

// Result is what an Action produces for one invocation: the events to fold
// into the conversation at turn end, and the messages to return to the
// caller (spec.md §4.1 Action registry).
type Result struct {
	Events   []Event
	Messages []Message
}

// Action is one named, stable behavior in the registry (spec.md §4.1).
type Action interface {
	Run(ctx context.Context, rc *RunContext) (Result, error)
}

// ActionFunc adapts a plain function to the Action interface.
type ActionFunc func(ctx context.Context, rc *RunContext) (Result, error)

func (f ActionFunc) Run(ctx context.Context, rc *RunContext) (Result, error) { return f(ctx, rc) }
