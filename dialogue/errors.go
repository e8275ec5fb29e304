package dialogue

import (
	"errors"
	"fmt"
)

// ErrorKind classifies action failures into the taxonomy from spec.md §7.
// The kind (not the Go type) drives retry and user-messaging decisions,
// grounded on the teacher's model.ProviderErrorKind.
type ErrorKind string

const (
	// ErrorKindValidation marks bad user input, surfaced verbatim as a re-prompt.
	ErrorKindValidation ErrorKind = "validation"
	// ErrorKindConfigMiss marks an unreachable task config; callers fall back to defaults.
	ErrorKindConfigMiss ErrorKind = "config_miss"
	// ErrorKindUpstreamUnavailable marks a retried-and-failed backend/vector/LLM call.
	ErrorKindUpstreamUnavailable ErrorKind = "upstream_unavailable"
	// ErrorKindUpstreamConflict marks a backend "conflict"/"unavailable" scheduling response.
	ErrorKindUpstreamConflict ErrorKind = "upstream_conflict"
	// ErrorKindAuthFailure marks a backend 401.
	ErrorKindAuthFailure ErrorKind = "auth_failure"
	// ErrorKindNotFound marks a backend 404 or empty vector result.
	ErrorKindNotFound ErrorKind = "not_found"
	// ErrorKindGuardrail marks a relevance/safety refusal from retrieval.
	ErrorKindGuardrail ErrorKind = "guardrail"
	// ErrorKindInternal marks any unexpected exception.
	ErrorKindInternal ErrorKind = "internal"
)

// ActionError wraps a failure inside an action with its taxonomy kind so the
// runtime can decide the audit status and user-facing message without
// inspecting Go types. It mirrors model.ProviderError's shape (kind + cause +
// Unwrap) from the teacher pack.
type ActionError struct {
	Kind    ErrorKind
	Action  string
	Message string
	Cause   error
}

// NewActionError constructs an ActionError. kind and action are required.
func NewActionError(kind ErrorKind, action, message string, cause error) *ActionError {
	return &ActionError{Kind: kind, Action: action, Message: message, Cause: cause}
}

func (e *ActionError) Error() string {
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if msg == "" {
		msg = "action error"
	}
	return fmt.Sprintf("%s(%s): %s", e.Action, e.Kind, msg)
}

// Unwrap exposes the wrapped cause so errors.Is/As traverse the chain.
func (e *ActionError) Unwrap() error { return e.Cause }

// AsActionError returns the first ActionError in err's chain, if any.
func AsActionError(err error) (*ActionError, bool) {
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// GuardrailKind returns the refusal sub-kind ("injection", "sensitive_data",
// "relevance", "not_found") carried in an ActionError's Message when
// Kind is ErrorKindGuardrail, by convention "guardrail:<kind>" (spec.md §7).
func GuardrailKind(err error) (string, bool) {
	ae, ok := AsActionError(err)
	if !ok || ae.Kind != ErrorKindGuardrail {
		return "", false
	}
	const prefix = "guardrail:"
	if len(ae.Message) > len(prefix) && ae.Message[:len(prefix)] == prefix {
		return ae.Message[len(prefix):], true
	}
	return ae.Message, true
}
