// Package modelclient sends prompts to locally hosted language models.
package modelclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	apperrors "art-of-prompting/internal/common/errors"
	"art-of-prompting/internal/common/logger"
	"art-of-prompting/internal/common/metrics"
)

// Generator produces text for a prompt with one model. Errors carry the
// MODEL_UNAVAILABLE or GENERATION_ERROR code.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// ModelLister is implemented by backends that can report installed models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// New returns the Generator for the configured backend.
func New(cfg *Config, log logger.Logger) (Generator, error) {
	switch cfg.Backend {
	case BackendOllama, "":
		return NewOllamaClient(cfg, log), nil
	case BackendEino:
		return NewEinoClient(cfg, log), nil
	default:
		return nil, fmt.Errorf("unknown inference backend %q", cfg.Backend)
	}
}

// instrument wraps a single generate call with the shared metrics.
func instrument(model string, call func() (string, error)) (string, error) {
	active := metrics.ModelGenerationsActive.WithLabelValues(model)
	active.Inc()
	defer active.Dec()

	start := time.Now()
	text, err := call()
	metrics.ModelGenerationDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())
	metrics.ModelGenerationsTotal.WithLabelValues(model, metrics.Outcome(err)).Inc()
	return text, err
}

// classifyCallError maps a failed call to MODEL_UNAVAILABLE when the model could
// not be reached in time, GENERATION_ERROR otherwise.
func classifyCallError(ctx context.Context, model string, timeout time.Duration, err error) error {
	if _, ok := apperrors.AsStandardError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return apperrors.NewModelUnavailableError(model, fmt.Errorf("no response within %s", timeout))
	case errors.Is(err, context.Canceled):
		return apperrors.NewModelUnavailableError(model, errors.New("request canceled"))
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return apperrors.NewModelUnavailableError(model, err)
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "not found") {
		return apperrors.NewModelUnavailableError(model, err)
	}

	return apperrors.NewGenerationError(model, err)
}
