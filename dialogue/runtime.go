package dialogue

import (
	"context"
	"sync"
	"time"

	"github.com/taskforge-ai/dialoguebot/audit"
	"github.com/taskforge-ai/dialoguebot/config"
	"github.com/taskforge-ai/dialoguebot/telemetry"
)

// Runtime is the Dialogue Runtime (DR): the action registry, form state
// machine, and task-enablement gate that resolves one turn at a time.
// Grounded on the teacher's runtime.Runtime agent/toolset registry
// (map[string]Action guarded by sync.RWMutex); like the teacher, Runtime is
// "thread-safe and can be used concurrently" across conversations (spec.md
// §5: no per-conversation locks, each turn is an independent unit of work).
type Runtime struct {
	mu      sync.RWMutex
	actions map[string]Action
	forms   map[string]FormSpec

	cc     *config.Cache
	al     *audit.Log
	bundle telemetry.Bundle
	clock  func() time.Time
}

// Options configures a Runtime.
type Options struct {
	Config    *config.Cache
	Audit     *audit.Log
	Telemetry telemetry.Bundle
	// Clock overrides time.Now, for deterministic tests.
	Clock func() time.Time
}

// New constructs a Runtime with an empty action/form registry; call
// RegisterAction and RegisterForm before the first HandleTurn.
func New(opts Options) *Runtime {
	bundle := opts.Telemetry
	if bundle.Logger == nil {
		bundle = telemetry.NewNoopBundle()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Runtime{
		actions: make(map[string]Action),
		forms:   make(map[string]FormSpec),
		cc:      opts.Config,
		al:      opts.Audit,
		bundle:  bundle,
		clock:   clock,
	}
}

// RegisterAction adds an action under a stable name (spec.md §4.1). Safe to
// call concurrently with HandleTurn, though registration is expected to
// happen once at startup, before traffic.
func (rt *Runtime) RegisterAction(name string, action Action) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.actions[name] = action
}

// RegisterForm adds a FormSpec under its Name.
func (rt *Runtime) RegisterForm(form FormSpec) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.forms[form.Name] = form
}

func (rt *Runtime) action(name string) (Action, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	a, ok := rt.actions[name]
	return a, ok
}

func (rt *Runtime) form(name string) (FormSpec, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	f, ok := rt.forms[name]
	return f, ok
}

// HandleTurn resolves one user turn to completion: it consults the active
// form (if any) or resolves an action by intent, applies the resulting
// events atomically, and returns the accumulated messages (spec.md §4.1,
// §5). HandleTurn never panics or returns an error to the caller for
// action-internal failures; those are captured as a generic apology message
// plus an audit record (spec.md §4.1 "Policy on partial failures").
//
// Before dispatching to an action, a form in play (the active form, or a
// form registered under the incoming intent's own name) gets one pass
// through its slot state machine: RequiredSlots/NextMissingSlot/
// CurrentFormState decide whether the turn re-prompts for a missing slot or
// proceeds straight through to the terminal action (spec.md §4.1 Form state
// machine). Override intents bypass this entirely, interrupting an
// in-progress form rather than re-prompting.
func (rt *Runtime) HandleTurn(ctx context.Context, in TurnInput) (TurnOutput, error) {
	conv := in.Conversation

	if !isOverrideIntent(in.Intent.Name) {
		if form, ok := rt.formInPlay(conv, in.Intent); ok {
			task := rt.taskConfig(ctx, form.Name)
			fill := FillForm(conv, form, task, in.Entities, in.Text, rt.clock())
			conv = ApplyAll(conv, fill.Events)

			if !fill.Complete {
				return TurnOutput{Messages: []Message{TextMessage(fill.Message)}, Events: fill.Events, Conversation: conv}, nil
			}

			deactivate := DeactivateForm()
			conv = Apply(conv, deactivate)
			return rt.dispatch(ctx, form.TerminalAction, conv, in, append(fill.Events, deactivate))
		}
	}

	return rt.dispatch(ctx, rt.resolveActionName(conv, in.Intent), conv, in, nil)
}

// formInPlay returns the FormSpec that should drive this turn's slot
// filling: the active form if one is already in progress, otherwise a form
// registered under the intent's own name (starting a fresh form-driven
// turn). Intents with no matching form (and no active form) fall through
// to plain action dispatch, unchanged from before forms existed.
func (rt *Runtime) formInPlay(conv Conversation, intent Intent) (FormSpec, bool) {
	if conv.ActiveForm != "" {
		return rt.form(conv.ActiveForm)
	}
	return rt.form(intent.Name)
}

// dispatch runs actionName against conv, reporting errors the same way
// HandleTurn always has, and prepends priorEvents (e.g. this turn's
// slot-fill events) to the reported event log.
func (rt *Runtime) dispatch(ctx context.Context, actionName string, conv Conversation, in TurnInput, priorEvents []Event) (TurnOutput, error) {
	result, err := rt.run(ctx, actionName, conv, in.Intent, in.Entities, in.Text, in.Channel)
	if err != nil {
		msg := rt.handleActionError(ctx, actionName, conv.ID, err)
		return TurnOutput{Messages: []Message{TextMessage(msg)}, Events: priorEvents, Conversation: conv}, nil
	}

	final := ApplyAll(conv, result.Events)
	events := make([]Event, 0, len(priorEvents)+len(result.Events))
	events = append(events, priorEvents...)
	events = append(events, result.Events...)
	return TurnOutput{Messages: result.Messages, Events: events, Conversation: final}, nil
}

const genericApology = "Sorry, something went wrong on our end. Please try again in a moment."

// handleActionError converts an action failure into the single user-facing
// message and audit record its ErrorKind prescribes (spec.md §7): each kind
// gets its own message and audit status, rather than one blanket apology —
// only ErrorKindInternal (including a panic recovered by run, which arrives
// as ErrorKindInternal) and any error that isn't a classified ActionError
// get the generic apology with status=exception.
func (rt *Runtime) handleActionError(ctx context.Context, action, conversationID string, err error) string {
	ae, ok := AsActionError(err)
	if !ok {
		rt.auditStatus(ctx, action, conversationID, audit.StatusException, err.Error())
		return genericApology
	}

	switch ae.Kind {
	case ErrorKindValidation:
		// Surfaced verbatim as a re-prompt; no audit beyond the interaction log.
		return ae.Message
	case ErrorKindConfigMiss:
		// config.Cache already falls back to defaults and logs its own
		// warning; reaching here is defensive and stays silent to the user.
		return genericApology
	case ErrorKindUpstreamUnavailable:
		rt.auditStatus(ctx, action, conversationID, audit.StatusFailed, ae.Error())
		return "Sorry, our systems are temporarily unavailable. Please try again in a few minutes."
	case ErrorKindUpstreamConflict:
		rt.auditStatus(ctx, action, conversationID, audit.StatusFailed, ae.Error())
		return "That time is no longer available."
	case ErrorKindAuthFailure:
		rt.auditStatus(ctx, action, conversationID, audit.StatusFailed, ae.Error())
		return "Sorry, I couldn't reach our booking system right now. Please try again later."
	case ErrorKindNotFound:
		rt.auditStatus(ctx, action, conversationID, audit.StatusFailed, ae.Error())
		return "I couldn't find that. " + ae.Message
	case ErrorKindGuardrail:
		rt.auditGuardrail(ctx, action, conversationID, ae)
		return guardrailMessage(ae)
	default: // ErrorKindInternal
		rt.auditStatus(ctx, action, conversationID, audit.StatusException, ae.Error())
		return genericApology
	}
}

// guardrailMessage picks the user-facing refusal text for a guardrail
// ActionError by its sub-kind (spec.md §4.4 Guardrails, §7).
func guardrailMessage(ae *ActionError) string {
	kind, _ := GuardrailKind(ae)
	switch kind {
	case "injection", "sensitive_data":
		return "Sorry, I'm not able to help with that request."
	case "relevance":
		return "I don't have information specific to that. Could you clarify your question?"
	default: // "not_found", "low_confidence", or unclassified
		return "I'm not confident I have the right answer — could you rephrase or provide more detail?"
	}
}

// run resolves and executes one action by name, including any chained
// FollowupAction events it produces, without applying state (the caller
// folds events at turn end). Unknown action names and internal panics are
// converted to ErrorKindInternal, never escaping as a Go panic (spec.md
// §4.1 Policy on partial failures).
func (rt *Runtime) run(ctx context.Context, actionName string, conv Conversation, intent Intent, entities []Entity, text, channel string) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewActionError(ErrorKindInternal, actionName, "action panicked", nil)
		}
	}()

	action, ok := rt.action(actionName)
	if !ok {
		return Result{}, NewActionError(ErrorKindInternal, actionName, "no such action registered", nil)
	}

	rc := &RunContext{Conversation: conv, Intent: intent, Entities: entities, Text: text, Channel: channel, runtime: rt}
	out, err := action.Run(ctx, rc)
	if err != nil {
		return Result{}, err
	}

	// Chain any FollowupAction events inline, within the same turn (spec.md
	// §4.1 e.g. booking conflict -> get_available_meeting_times).
	merged := Result{Events: append([]Event{}, out.Events...), Messages: append([]Message{}, out.Messages...)}
	working := ApplyAll(conv, out.Events)
	for _, ev := range out.Events {
		if ev.Type != EventFollowupAction {
			continue
		}
		followup, ferr := rt.run(ctx, ev.ActionName, working, intent, entities, text, channel)
		if ferr != nil {
			return Result{}, ferr
		}
		merged.Events = append(merged.Events, followup.Events...)
		merged.Messages = append(merged.Messages, followup.Messages...)
		working = ApplyAll(working, followup.Events)
	}
	return merged, nil
}

// resolveActionName maps the current state to an action name: the active
// form's terminal action if a form is in progress, otherwise the intent
// name directly (spec.md §4.1 "resolve action by (intent, active form, user
// text)"). High-priority override intents (cancel, handoff, restart)
// interrupt an in-progress form rather than re-prompting.
func (rt *Runtime) resolveActionName(conv Conversation, intent Intent) string {
	if isOverrideIntent(intent.Name) {
		return intent.Name
	}
	if conv.ActiveForm != "" {
		if form, ok := rt.form(conv.ActiveForm); ok {
			return form.TerminalAction
		}
	}
	return intent.Name
}

var overrideIntents = map[string]struct{}{"cancel_booking": {}, "handoff": {}, "reset": {}}

func isOverrideIntent(name string) bool {
	_, ok := overrideIntents[name]
	return ok
}

// auditStatus writes one audit record for a failed action (spec.md §7: each
// error kind names its own audit status). A nil Audit Log is a valid,
// silent no-op (e.g. in tests that don't wire one).
func (rt *Runtime) auditStatus(ctx context.Context, action, conversationID string, status audit.Status, errMsg string) {
	if rt.al == nil {
		return
	}
	rt.al.LogAction(ctx, audit.Event{
		Timestamp:      rt.clock(),
		Action:         action,
		ConversationID: conversationID,
		Status:         status,
		Error:          errMsg,
	})
}

// auditGuardrail writes a guardrail refusal's audit record with
// error="guardrail:<kind>" (spec.md §7 "audit as status=failed,
// error=guardrail:<kind>").
func (rt *Runtime) auditGuardrail(ctx context.Context, action, conversationID string, ae *ActionError) {
	kind, _ := GuardrailKind(ae)
	rt.auditStatus(ctx, action, conversationID, audit.StatusFailed, "guardrail:"+kind)
}

// taskConfig fetches taskName's current snapshot from the Config Cache,
// falling back to config.DefaultTaskConfig when no cache is wired or the
// fetch fails. Shared by TaskGate and the form slot-filling pre-step, which
// deliberately does NOT apply TaskGate's enabled/hours check itself — that
// stays a separate, action-owned gate (spec.md §4.1 Task-enablement gate is
// listed apart from Required-slot resolution).
func (rt *Runtime) taskConfig(ctx context.Context, taskName string) config.TaskConfig {
	cfg := config.DefaultTaskConfig(taskName)
	if rt.cc != nil {
		if fetched, err := rt.cc.GetTaskConfig(ctx, taskName); err == nil {
			cfg = fetched
		}
	}
	return cfg
}

// TaskGate consults the Config Cache for the named task and reports whether
// the runtime should proceed: enabled and within business hours (spec.md
// §4.1 Task-enablement gate). A missing config defaults to enabled=true,
// already handled by config.Cache.GetTaskConfig.
func (rt *Runtime) TaskGate(ctx context.Context, taskName string, now time.Time) (config.TaskConfig, bool, string) {
	cfg := rt.taskConfig(ctx, taskName)
	if !cfg.Enabled {
		return cfg, false, "Sorry, that's not available right now."
	}
	if !withinBusinessHours(now, cfg.BusinessHours) {
		return cfg, false, "We're currently closed. Our hours are " + cfg.BusinessHours.Start + " to " + cfg.BusinessHours.End + "."
	}
	return cfg, true, ""
}

func withinBusinessHours(now time.Time, hours config.BusinessHours) bool {
	clock := now.Format("15:04")
	return clock >= hours.Start && clock < hours.End
}
