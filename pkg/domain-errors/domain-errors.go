// Package domainerrors carries the failure categories of the registry and
// export pipeline. Handlers translate them to HTTP; stores and services only
// pick a code.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code names a failure category in registry terms.
type Code string

const (
	CodeNotFound    Code = "not_found"         // no record with that id
	CodeBadRequest  Code = "bad_request"       // malformed id, query or body
	CodeValidation  Code = "validation_failed" // record fails its field rules
	CodeConflict    Code = "conflict"
	CodeTooLarge    Code = "payload_too_large" // upload over the body limit
	CodeTimeout     Code = "timeout"
	CodeUnavailable Code = "unavailable" // backing store or asset backend down
	CodeInternal    Code = "internal_error"

	CodeNoMatches    Code = "no_matches"    // filtered list is empty
	CodeEmptyArchive Code = "empty_archive" // every record of the lot failed to render
)

// Error is a coded failure. Message is safe to show to the operator using
// the registry; Err keeps the underlying cause for logs.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Code, so errors.Is(err, &Error{Code: CodeNotFound}) works
// through wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Newf is New with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches msg to err. A code already present in the chain wins over
// code, so a store's not_found survives a service-level wrap.
func Wrap(err error, code Code, msg string) error {
	if c, ok := codeOf(err); ok {
		code = c
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf returns the first code found in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	if c, ok := codeOf(err); ok {
		return c
	}
	return CodeInternal
}

func HasCode(err error, code Code) bool {
	c, ok := codeOf(err)
	return ok && c == code
}

func codeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}
