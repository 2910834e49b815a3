// Package apperr implements the error taxonomy from spec §7 as typed,
// wrapped errors composed with errors.Is/errors.As, following the teacher's
// pattern of small sentinel errors returned from repositories
// (repository.ErrCustomAgentNotFound) rather than string matching.
package apperr

import "fmt"

// Kind is one of the five error kinds named in spec §7.
type Kind string

const (
	KindConfiguration   Kind = "ConfigurationError"
	KindStoreTransport  Kind = "StoreTransportError"
	KindLLMTransport    Kind = "LLMTransportError"
	KindInvariant       Kind = "InvariantViolation"
	KindSearchTimeout   Kind = "SearchTimeout"
)

// HTTPStatus returns the HTTP-equivalent status named in spec §7.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindConfiguration:
		return 400
	case KindSearchTimeout:
		return 504
	case KindInvariant:
		return 500
	default:
		return 502
	}
}

// Error is the core's structured error payload: {code, message, details}
// (spec §6.1 error envelope).
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func new_(kind Kind, msg string, cause error, details map[string]any) *Error {
	return &Error{Kind: kind, Message: msg, Details: details, Cause: cause}
}

// Configuration wraps a request validation failure (spec §7).
func Configuration(msg string) *Error { return new_(KindConfiguration, msg, nil, nil) }

// StoreTransport wraps a SQL/vector store transport failure (spec §7).
func StoreTransport(msg string, cause error) *Error {
	return new_(KindStoreTransport, msg, cause, nil)
}

// LLMTransport wraps an embedding/completion transport failure (spec §7).
func LLMTransport(msg string, cause error) *Error {
	return new_(KindLLMTransport, msg, cause, nil)
}

// Invariant wraps a programming-error bug: fatal, must be logged (spec §7,
// spec §4.1 "duplicate (type, id) with conflicting content").
func Invariant(msg string, details map[string]any) *Error {
	return new_(KindInvariant, msg, nil, details)
}

// Timeout wraps a global search deadline exceeded, recording the stage
// reached in Details["stage"] (spec §7).
func Timeout(stageReached string) *Error {
	return new_(KindSearchTimeout, "search deadline exceeded", nil, map[string]any{"stage": stageReached})
}

// SearchFailure wraps a Recall-stage fatal StoreTransportError, the only
// stage whose transport failures must propagate rather than degrade
// (spec §4.4 "Failure semantics").
func SearchFailure(cause error) *Error {
	return new_(KindStoreTransport, "search failed", cause, nil)
}
