// Package aierr defines the error taxonomy shared by the interpreter,
// the conversation state machine and the action executor.
package aierr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Code represents a specific error type.
type Code string

const (
	// CodeBackendUnavailable indicates the LLM backend is unconfigured or unreachable.
	CodeBackendUnavailable Code = "BACKEND_UNAVAILABLE"
	// CodeMalformedBackendResponse indicates the backend answered with an unusable body.
	CodeMalformedBackendResponse Code = "MALFORMED_BACKEND_RESPONSE"
	// CodeValidationFailure indicates an action is missing a required field.
	CodeValidationFailure Code = "VALIDATION_FAILURE"
	// CodeNotificationSchedulingFailure indicates a local notification could not be scheduled.
	CodeNotificationSchedulingFailure Code = "NOTIFICATION_SCHEDULING_FAILURE"
	// CodeExecutionFailure indicates a collaborator write failed.
	CodeExecutionFailure Code = "EXECUTION_FAILURE"
	// CodeMissingResponse indicates the user gave no answer to a reminder suggestion.
	CodeMissingResponse Code = "MISSING_RESPONSE"
)

// SubCause refines a Code for user-facing messages.
type SubCause string

const (
	SubCauseUnknown       SubCause = "unknown"
	SubCauseConnectivity  SubCause = "connectivity"
	SubCauseParse         SubCause = "parse"
	SubCauseConfiguration SubCause = "configuration"
)

// Error is the structured error carried across component boundaries.
type Error struct {
	Code     Code
	SubCause SubCause
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// BackendUnavailable creates a backend unavailable error.
func BackendUnavailable(msg string, cause error) *Error {
	return &Error{Code: CodeBackendUnavailable, SubCause: ClassifySubCause(cause), Message: msg, Cause: cause}
}

// MalformedBackendResponse creates a malformed response error.
func MalformedBackendResponse(msg string, cause error) *Error {
	return &Error{Code: CodeMalformedBackendResponse, SubCause: SubCauseParse, Message: msg, Cause: cause}
}

// ValidationFailure creates a validation error.
func ValidationFailure(msg string) *Error {
	return &Error{Code: CodeValidationFailure, SubCause: SubCauseParse, Message: msg}
}

// NotificationSchedulingFailure creates a notification scheduling error.
func NotificationSchedulingFailure(msg string, cause error) *Error {
	return &Error{Code: CodeNotificationSchedulingFailure, SubCause: ClassifySubCause(cause), Message: msg, Cause: cause}
}

// ExecutionFailure creates an execution error, deriving the sub-cause from cause.
func ExecutionFailure(msg string, cause error) *Error {
	return &Error{Code: CodeExecutionFailure, SubCause: ClassifySubCause(cause), Message: msg, Cause: cause}
}

// MissingResponse creates a missing response error.
func MissingResponse(msg string) *Error {
	return &Error{Code: CodeMissingResponse, SubCause: SubCauseUnknown, Message: msg}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf extracts the code from err, or def when err is not an *Error.
func CodeOf(err error, def Code) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return def
}

// SubCauseOf extracts the sub-cause from err, classifying plain errors.
func SubCauseOf(err error) SubCause {
	var e *Error
	if errors.As(err, &e) && e.SubCause != "" {
		return e.SubCause
	}
	return ClassifySubCause(err)
}

// ClassifySubCause guesses the sub-cause of an arbitrary error.
func ClassifySubCause(err error) SubCause {
	if err == nil {
		return SubCauseUnknown
	}

	var e *Error
	if errors.As(err, &e) && e.SubCause != "" {
		return e.SubCause
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return SubCauseConnectivity
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return SubCauseParse
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "connection refused", "no such host", "timeout", "network", "unreachable"):
		return SubCauseConnectivity
	case containsAny(msg, "unmarshal", "parse", "invalid character", "unexpected end"):
		return SubCauseParse
	case containsAny(msg, "api key", "unauthorized", "401", "not configured", "no such table"):
		return SubCauseConfiguration
	}
	return SubCauseUnknown
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
