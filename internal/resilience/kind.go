package resilience

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failure at a collaborator or request boundary.
type Kind string

// Error kinds surfaced by the discovery pipeline.
const (
	KindUnavailable Kind = "collaborator_unavailable"
	KindTimeout     Kind = "collaborator_timeout"
	KindMalformed   Kind = "collaborator_malformed_response"
	KindFetchFailed Kind = "fetch_failed"
	KindValidation  Kind = "validation_error"
)

// Error is a classified error. Op names the failing operation, e.g.
// "relevance.classify" or "fetch".
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op == "" && e.Err == nil:
		return string(e.Kind)
	case e.Op == "":
		return e.Err.Error()
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError classifies err under kind for operation op.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Validationf builds a validation error whose message is shown to callers verbatim.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of err. Unclassified deadline errors map to
// KindTimeout and an open circuit maps to KindUnavailable; anything else
// unclassified returns "".
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrCircuitOpen):
		return KindUnavailable
	}
	return ""
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
