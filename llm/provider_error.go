package llm

import (
	"errors"
	"fmt"
)

// ProviderErrorKind classifies provider failures into a small set of
// categories suitable for retry and fallback decisions (spec.md §4.5
// Failure semantics).
type ProviderErrorKind string

const (
	ProviderErrorAuth           ProviderErrorKind = "auth"
	ProviderErrorInvalidRequest ProviderErrorKind = "invalid_request"
	ProviderErrorRateLimited    ProviderErrorKind = "rate_limited"
	ProviderErrorUnavailable    ProviderErrorKind = "unavailable"
	ProviderErrorTimeout        ProviderErrorKind = "timeout"
	ProviderErrorUnknown        ProviderErrorKind = "unknown"
)

// ProviderError describes a failure returned by an LLM provider adapter. It
// never crosses the unified Client.Generate boundary as a Go error — every
// adapter converts it into a Response with Success=false — but it is kept
// internally so callers that need structured detail can unwrap it from a
// wrapped error during adapter construction/config validation.
type ProviderError struct {
	Provider  string
	Operation string
	HTTP      int
	Kind      ProviderErrorKind
	Code      string
	Message   string
	Retryable bool
	cause     error
}

// NewProviderError constructs a ProviderError. provider and kind are required.
func NewProviderError(provider, operation string, httpStatus int, kind ProviderErrorKind, code, message string, retryable bool, cause error) *ProviderError {
	if provider == "" {
		panic("llm: provider is required")
	}
	if kind == "" {
		panic("llm: provider error kind is required")
	}
	return &ProviderError{
		Provider:  provider,
		Operation: operation,
		HTTP:      httpStatus,
		Kind:      kind,
		Code:      code,
		Message:   message,
		Retryable: retryable,
		cause:     cause,
	}
}

func (e *ProviderError) Error() string {
	op := e.Operation
	if op == "" {
		op = "generate"
	}
	status := ""
	if e.HTTP > 0 {
		status = fmt.Sprintf("%d ", e.HTTP)
	}
	code := ""
	if e.Code != "" {
		code = e.Code + ": "
	}
	msg := e.Message
	if msg == "" && e.cause != nil {
		msg = e.cause.Error()
	}
	if msg == "" {
		msg = "provider error"
	}
	return fmt.Sprintf("%s %s %s(%s): %s", e.Provider, e.Kind, status, op, code+msg)
}

// Unwrap returns the underlying provider SDK error to preserve the original chain.
func (e *ProviderError) Unwrap() error { return e.cause }

// AsProviderError returns the first ProviderError in err's chain, if any.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// ToResponse converts any error into a failed unified Response, classifying
// it as a ProviderError when possible (spec.md §4.5: the dispatcher never
// lets a provider error escape as a Go error to the dialogue runtime).
func ToResponse(model string, err error) Response {
	if pe, ok := AsProviderError(err); ok {
		return Response{Success: false, Model: model, Error: pe.Error()}
	}
	return Response{Success: false, Model: model, Error: err.Error()}
}
