// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aop_http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aop_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	ModelGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aop_model_generations_total",
			Help: "Total number of model generation calls by outcome",
		},
		[]string{"model", "outcome"},
	)

	ModelGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aop_model_generation_duration_seconds",
			Help:    "Duration of model generation calls in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
		[]string{"model"},
	)

	ModelGenerationsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "aop_model_generations_active",
			Help: "Number of in-flight generation calls per model",
		},
		[]string{"model"},
	)

	ReportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aop_reports_total",
			Help: "Total number of reports rendered by format and outcome",
		},
		[]string{"format", "outcome"},
	)

	RoleLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aop_role_lookups_total",
			Help: "Total number of role context lookups by source",
		},
		[]string{"source"},
	)

	RolesImportedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aop_roles_imported_total",
			Help: "Total number of role rows written by the importer",
		},
	)
)

// Outcome labels shared by the counters above.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Outcome returns the outcome label for err.
func Outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
