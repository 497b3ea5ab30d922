// Package apperror defines the error taxonomy shared by the services and
// the HTTP layer, and its projection onto HTTP status codes.
package apperror

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Code identifies a class of failure.
type Code string

const (
	// CodeScenarioNotFound indicates the client referenced an unknown scenario.
	CodeScenarioNotFound Code = "scenario_not_found"
	// CodeInvalidRequest indicates a malformed or incomplete request body.
	CodeInvalidRequest Code = "invalid_request"
	// CodeScenarioMisconfigured indicates a scenario lacks a required field.
	CodeScenarioMisconfigured Code = "scenario_misconfigured"
	// CodeUpstream indicates the completion service failed.
	CodeUpstream Code = "upstream"
	// CodeOutputParse indicates model output was not the required JSON.
	CodeOutputParse Code = "output_parse"
	// CodeInternal covers everything else.
	CodeInternal Code = "internal"
)

// Client-facing messages.  Upstream details never reach the client.
const (
	DetailInternal        = "Internal server error."
	DetailFeedbackFailed  = "Error generating feedback."
	DetailExamFailed      = "Error generating physical exam."
	DetailDiagnosticsFail = "Error generating diagnostic tests."
	DetailOutputParse     = "AI response JSON decode error."
)

// Error is a classified failure.  Detail is safe to show to clients; Cause
// is only for logs.
type Error struct {
	Code   Code
	Detail string
	Cause  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Detail, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Detail)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Status maps the error code to an HTTP status.
func (e *Error) Status() int {
	switch e.Code {
	case CodeScenarioNotFound:
		return http.StatusBadRequest
	case CodeInvalidRequest:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ScenarioNotFound creates a client error for an unknown scenario id.
func ScenarioNotFound(id string) *Error {
	return &Error{Code: CodeScenarioNotFound, Detail: fmt.Sprintf("Scenario '%s' not found.", id)}
}

// InvalidRequest creates a validation error.
func InvalidRequest(detail string, cause error) *Error {
	return &Error{Code: CodeInvalidRequest, Detail: detail, Cause: cause}
}

// MissingField creates a configuration error for a scenario lacking field.
func MissingField(id, field string) *Error {
	return &Error{
		Code:   CodeScenarioMisconfigured,
		Detail: fmt.Sprintf("Scenario '%s' missing '%s'.", id, field),
	}
}

// Upstream wraps a completion failure behind a generic client message.
func Upstream(cause error, detail string) *Error {
	if detail == "" {
		detail = DetailInternal
	}
	return &Error{Code: CodeUpstream, Detail: detail, Cause: cause}
}

// OutputParse wraps a structured-output decoding failure.
func OutputParse(cause error) *Error {
	return &Error{Code: CodeOutputParse, Detail: DetailOutputParse, Cause: cause}
}

// IsCode reports whether err, or anything it wraps, carries code.
func IsCode(err error, code Code) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Project returns the HTTP status and client detail for any error.
// Unclassified errors become a generic 500.
func Project(err error) (int, string) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status(), appErr.Detail
	}
	return http.StatusInternalServerError, DetailInternal
}
