/*
Package errors defines the error kinds surfaced by flatql.

Every failure is reported as an *Error carrying one of four kinds:
  - CONNECTION: a resource is missing or cannot be created, or I/O failed
  - VALIDATION: configuration or schema shape was rejected
  - QUERY: malformed predicate input, unknown column, unsupported construct
  - TRANSACTION: nested or mismatched begin/commit/rollback

Callers branch on kind with the standard library:

	if errors.Is(err, dberrors.ErrQuery) { ... }
*/
package errors

import (
	"fmt"
)

// Kind classifies an error.
type Kind string

const (
	KindConnection  Kind = "CONNECTION"
	KindValidation  Kind = "VALIDATION"
	KindQuery       Kind = "QUERY"
	KindTransaction Kind = "TRANSACTION"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrConnection  = &Error{Kind: KindConnection}
	ErrValidation  = &Error{Kind: KindValidation}
	ErrQuery       = &Error{Kind: KindQuery}
	ErrTransaction = &Error{Kind: KindTransaction}
)

// Error is the structured error returned by every flatql package.
type Error struct {
	Kind    Kind
	Op      string // operation that failed, e.g. "store.save"
	Message string
	Hint    string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Kind) + " ERROR"
	if e.Op != "" {
		msg += " [" + e.Op + "]"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message == "" && t.Op == "" && t.Cause == nil {
		return t.Kind == e.Kind
	}
	return t == e
}

// WithHint attaches a user-facing suggestion.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// WithCause attaches the underlying error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// ============================================================================
// CONSTRUCTORS
// ============================================================================

// NewConnectionError reports an I/O or resource failure.
func NewConnectionError(op string, cause error, format string, args ...any) *Error {
	return &Error{Kind: KindConnection, Op: op, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// NewValidationError reports a rejected configuration or schema shape.
func NewValidationError(op string, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: fmt.Sprintf(format, args...)}
}

// NewQueryError reports a malformed or unexecutable query.
func NewQueryError(op string, format string, args ...any) *Error {
	return &Error{Kind: KindQuery, Op: op, Message: fmt.Sprintf(format, args...)}
}

// NewTransactionError reports a transaction misuse.
func NewTransactionError(op string, format string, args ...any) *Error {
	return &Error{Kind: KindTransaction, Op: op, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or "" when err is not a flatql error.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
