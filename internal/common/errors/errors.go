// Package errors provides standardized error handling for the prompt server.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeRoleNotFound      ErrorCode = "ROLE_NOT_FOUND"
	ErrCodeModelUnavailable  ErrorCode = "MODEL_UNAVAILABLE"
	ErrCodeGenerationError   ErrorCode = "GENERATION_ERROR"
	ErrCodeReportRenderError ErrorCode = "REPORT_RENDER_ERROR"
	ErrCodeValidationError   ErrorCode = "VALIDATION_ERROR"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "DATABASE_QUERY_FAILED"
	ErrCodeImportFailed             ErrorCode = "IMPORT_FAILED"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches another StandardError by code, so errors.Is(err, &StandardError{Code: X}) works.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMetadata returns the error with a metadata key set.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// ==========================
// 2. Error Constructors
// ==========================

// NewRoleNotFoundError reports a role title absent from the store.
func NewRoleNotFoundError(role string) *StandardError {
	return newError(ErrCodeRoleNotFound, "Role not found", fmt.Sprintf("role: %s", role), nil).
		WithMetadata("role", role)
}

// NewModelUnavailableError reports a model endpoint that could not be reached in time.
func NewModelUnavailableError(model string, err error) *StandardError {
	return newError(ErrCodeModelUnavailable, "Model is unavailable", detailsOf(err), err).
		WithMetadata("model", model)
}

// NewGenerationError reports a model that answered but produced no usable output.
func NewGenerationError(model string, err error) *StandardError {
	return newError(ErrCodeGenerationError, "Model generation failed", detailsOf(err), err).
		WithMetadata("model", model)
}

// NewReportRenderError reports a failed document render.
func NewReportRenderError(format string, err error) *StandardError {
	return newError(ErrCodeReportRenderError, "Report rendering failed", detailsOf(err), err).
		WithMetadata("format", format)
}

// NewValidationError reports malformed or incomplete input.
func NewValidationError(details string) *StandardError {
	return newError(ErrCodeValidationError, "Request validation failed", details, nil)
}

// NewDatabaseConnectionFailedError creates a database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", detailsOf(err), err)
}

// NewQueryExecutionFailedError creates a query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, detailsOf(err)), err)
}

// NewImportFailedError reports a spreadsheet that could not be imported.
func NewImportFailedError(source string, err error) *StandardError {
	return newError(ErrCodeImportFailed, "Role import failed", detailsOf(err), err).
		WithMetadata("source", source)
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", detailsOf(err), err)
}

func detailsOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 3. Inspection helpers
// ==========================

// AsStandardError extracts a StandardError from an error chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf returns the error code of err, or INTERNAL_ERROR for foreign errors.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

// ==========================
// 4. HTTP mapping
// ==========================

var httpStatusMapping = map[ErrorCode]int{
	ErrCodeRoleNotFound:             http.StatusNotFound,
	ErrCodeModelUnavailable:         http.StatusServiceUnavailable,
	ErrCodeGenerationError:          http.StatusBadGateway,
	ErrCodeReportRenderError:        http.StatusServiceUnavailable,
	ErrCodeValidationError:          http.StatusBadRequest,
	ErrCodeDatabaseConnectionFailed: http.StatusServiceUnavailable,
	ErrCodeQueryExecutionFailed:     http.StatusInternalServerError,
	ErrCodeImportFailed:             http.StatusUnprocessableEntity,
	ErrCodeInternal:                 http.StatusInternalServerError,
}

// ToHTTPStatus converts an error code to an HTTP status code.
func ToHTTPStatus(code ErrorCode) int {
	if status, ok := httpStatusMapping[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FromHTTPStatus maps a framework-level HTTP status back to an error code.
func FromHTTPStatus(status int) ErrorCode {
	switch status {
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case http.StatusUnsupportedMediaType, http.StatusBadRequest:
		return ErrCodeValidationError
	case http.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	default:
		if status >= 400 && status < 500 {
			return ErrCodeValidationError
		}
		return ErrCodeInternal
	}
}
