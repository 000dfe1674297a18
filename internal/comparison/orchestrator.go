// Package comparison runs one prompt against every configured model.
package comparison

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	apperrors "art-of-prompting/internal/common/errors"
	"art-of-prompting/internal/common/logger"
	"art-of-prompting/internal/modelclient"
	"art-of-prompting/internal/models"
)

// Recorder receives comparison-level measurements.
type Recorder interface {
	RecordComparison(ctx context.Context, status string, duration time.Duration)
	RecordModelFailure(ctx context.Context, model, code string)
}

type noopRecorder struct{}

func (noopRecorder) RecordComparison(context.Context, string, time.Duration) {}
func (noopRecorder) RecordModelFailure(context.Context, string, string)      {}

// Orchestrator fans a prompt out to a fixed list of models.
type Orchestrator struct {
	generator      modelclient.Generator
	models         []models.ModelInfo
	maxConcurrency int
	recorder       Recorder
	logger         logger.Logger
	now            func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRecorder reports comparison outcomes to r. A nil r is ignored.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithMaxConcurrency caps the number of in-flight model calls. Zero or less
// means one goroutine per model.
func WithMaxConcurrency(n int) Option {
	return func(o *Orchestrator) { o.maxConcurrency = n }
}

// WithClock replaces time.Now for timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator returns an Orchestrator that compares modelList, in order, through generator.
func NewOrchestrator(generator modelclient.Generator, modelList []models.ModelInfo, log logger.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		generator: generator,
		models:    append([]models.ModelInfo(nil), modelList...),
		recorder:  noopRecorder{},
		logger:    log.With(map[string]interface{}{"component": "comparison"}),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Models returns the configured model list in order.
func (o *Orchestrator) Models() []models.ModelInfo {
	return append([]models.ModelInfo(nil), o.models...)
}

// Compare calls every model with the same prompt. A model failure is stored
// on its result; Compare itself only fails when no model is configured.
func (o *Orchestrator) Compare(ctx context.Context, prompt string) (*models.Comparison, error) {
	if len(o.models) == 0 {
		return nil, apperrors.NewValidationError("no models configured")
	}

	id := uuid.New().String()
	start := o.now()
	results := make([]models.ModelResult, len(o.models))

	g, gctx := errgroup.WithContext(ctx)
	if o.maxConcurrency > 0 {
		g.SetLimit(o.maxConcurrency)
	}
	for i, m := range o.models {
		g.Go(func() error {
			results[i] = o.run(gctx, m, prompt)
			return nil
		})
	}
	_ = g.Wait()

	status := models.ComputeStatus(results)
	elapsed := o.now().Sub(start)
	o.recorder.RecordComparison(ctx, status, elapsed)

	o.logger.Info("comparison finished", map[string]interface{}{
		"comparisonId": id,
		"status":       status,
		"models":       len(results),
		"durationMs":   elapsed.Milliseconds(),
	})

	return &models.Comparison{
		ID:        id,
		Prompt:    prompt,
		Status:    status,
		Results:   results,
		CreatedAt: start.UTC(),
	}, nil
}

func (o *Orchestrator) run(ctx context.Context, m models.ModelInfo, prompt string) models.ModelResult {
	result := models.ModelResult{Model: m.ID, Label: m.Label}
	if result.Label == "" {
		result.Label = m.ID
	}

	start := o.now()
	text, err := o.generator.Generate(ctx, m.ID, prompt)
	result.DurationMs = o.now().Sub(start).Milliseconds()

	if err != nil {
		code := apperrors.CodeOf(err)
		message := err.Error()
		if stdErr, ok := apperrors.AsStandardError(err); ok {
			message = stdErr.Message
			if stdErr.Details != "" {
				message += ": " + stdErr.Details
			}
		}
		result.Error = &models.ResultError{Code: string(code), Message: message}
		o.recorder.RecordModelFailure(ctx, m.ID, string(code))
		return result
	}

	result.Text = text
	return result
}
