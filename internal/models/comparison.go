// internal/models/comparison.go
package models

import "time"

// Comparison status values.
const (
	ComparisonComplete = "complete"
	ComparisonPartial  = "partial"
	ComparisonFailed   = "failed"
)

// ResultError is the per-model error marker shown next to a missing output.
type ResultError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ModelResult is the outcome of one model call inside a comparison.
type ModelResult struct {
	Model      string       `json:"model"`
	Label      string       `json:"label"`
	Text       string       `json:"text"`
	Error      *ResultError `json:"error,omitempty"`
	DurationMs int64        `json:"durationMs"`
}

// OK reports whether the model produced text.
func (r ModelResult) OK() bool {
	return r.Error == nil
}

// Comparison is the response of the generate endpoint.
type Comparison struct {
	ID        string        `json:"id"`
	Prompt    string        `json:"prompt"`
	Status    string        `json:"status"`
	Results   []ModelResult `json:"results"`
	CreatedAt time.Time     `json:"createdAt"`
}

// ComputeStatus derives the status from the individual results.
func ComputeStatus(results []ModelResult) string {
	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}
	switch {
	case failed == 0:
		return ComparisonComplete
	case failed == len(results):
		return ComparisonFailed
	default:
		return ComparisonPartial
	}
}
