package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a reconciliation failure.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindInvariant           Kind = "invariant"
	KindPrecondition        Kind = "precondition"
	KindUnregisteredHandler Kind = "unregistered-handler"
	KindHandlerFailure      Kind = "handler-failure"
)

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrValidation          = &Error{Kind: KindValidation}
	ErrInvariant           = &Error{Kind: KindInvariant}
	ErrPrecondition        = &Error{Kind: KindPrecondition}
	ErrUnregisteredHandler = &Error{Kind: KindUnregisteredHandler}
	ErrHandlerFailure      = &Error{Kind: KindHandlerFailure}
)

// Error is a failure of a named operation.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Validation reports a missing or malformed input.
func Validation(op, format string, args ...any) *Error {
	return newf(KindValidation, op, format, args...)
}

// Invariant reports an attempted mutation that would break a record invariant.
func Invariant(op, format string, args ...any) *Error {
	return newf(KindInvariant, op, format, args...)
}

// Precondition reports an operation on a field that was never initialised.
func Precondition(op, format string, args ...any) *Error {
	return newf(KindPrecondition, op, format, args...)
}

// Unregistered reports that nothing handles the requested category or action.
func Unregistered(op, format string, args ...any) *Error {
	return newf(KindUnregisteredHandler, op, format, args...)
}

// HandlerFailure wraps err as a handler failure.
func HandlerFailure(op string, err error) *Error {
	return &Error{Kind: KindHandlerFailure, Op: op, Msg: "handler failed", Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
