// Package domainerrors defines the coded error type shared by services and transport.
//
// Services return *Error values (via New or Wrap) so handlers can map a failure to an
// HTTP status without inspecting messages. Stores never build these directly; they return
// sentinel errors which services translate.
package domainerrors

import (
	"errors"
	"fmt"
	"time"
)

// Code is a stable, client-facing error identifier.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_error"
	CodeInvalidInput       Code = "invalid_input"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeUniqueness         Code = "uniqueness_violation"
	CodeUnavailable        Code = "unavailable"
	CodeIneligibleMember   Code = "ineligible_member"
	CodeInvalidAmount      Code = "invalid_amount"
	CodeCooldown           Code = "cooldown"
	CodeInvariantViolation Code = "invariant_violation"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"
)

// Error is a domain error carrying a Code and a human-readable message.
// RetryAfter is only set for CodeCooldown.
type Error struct {
	Code       Code
	Message    string
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// Cooldown reports an operation attempted before its minimum interval elapsed.
func Cooldown(msg string, remaining time.Duration) *Error {
	if remaining < 0 {
		remaining = 0
	}
	return &Error{Code: CodeCooldown, Message: msg, RetryAfter: remaining}
}

// From extracts the outermost *Error in the chain.
func From(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether any *Error in the chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// Is is shorthand for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// GetCode returns the outermost code, or CodeInternal for uncoded errors.
func GetCode(err error) Code {
	if de, ok := From(err); ok {
		return de.Code
	}
	return CodeInternal
}
