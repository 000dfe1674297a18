// internal/common/errors/handler.go
package errors

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// ErrorHandler turns handler errors into JSON responses.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Response is the JSON body written for every failed request.
type Response struct {
	Code     ErrorCode              `json:"code"`
	Message  string                 `json:"message"`
	Details  string                 `json:"details,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// HandleHTTPError is installed as echo's HTTPErrorHandler.
func (h *ErrorHandler) HandleHTTPError(err error, c echo.Context) {
	// already written by an earlier pass, e.g. the request logger
	if c.Response().Committed {
		return
	}

	stdErr, status := h.normalizeError(err)
	h.logError(c, stdErr, status)

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, Response{
			Code:     stdErr.Code,
			Message:  stdErr.Message,
			Details:  stdErr.Details,
			Metadata: stdErr.Metadata,
		})
	}
	if writeErr != nil {
		h.logger.Error("failed to send error response", map[string]interface{}{
			"error": writeErr.Error(),
		})
	}
}

// normalizeError ensures we always have a StandardError and a status code.
func (h *ErrorHandler) normalizeError(err error) (*StandardError, int) {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr, ToHTTPStatus(stdErr.Code)
	}

	if he, ok := err.(*echo.HTTPError); ok {
		message := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			message = m
		}
		return &StandardError{
			Code:      FromHTTPStatus(he.Code),
			Message:   message,
			Timestamp: time.Now().UTC(),
			cause:     err,
		}, he.Code
	}

	return NewInternalError(err), http.StatusInternalServerError
}

func (h *ErrorHandler) logError(c echo.Context, stdErr *StandardError, status int) {
	fields := map[string]interface{}{
		"errorCode": string(stdErr.Code),
		"status":    status,
		"message":   stdErr.Message,
		"details":   stdErr.Details,
		"method":    c.Request().Method,
		"path":      c.Request().URL.Path,
	}
	for k, v := range stdErr.Metadata {
		fields[fmt.Sprintf("meta.%s", k)] = v
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields)
		return
	}
	h.logger.Warn("request rejected", fields)
}
