package observability

import (
	"context"
	"log"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability records comparison-level metrics through OpenTelemetry.
type Observability struct {
	meterProvider      *metric.MeterProvider
	meter              otelmetric.Meter
	comparisonCounter  otelmetric.Int64Counter
	comparisonDuration otelmetric.Float64Histogram
	modelFailures      otelmetric.Int64Counter
}

// New registers the exporter with the default Prometheus registry, so the
// instruments show up on the same /metrics endpoint as promauto metrics.
func New(serviceName string) *Observability {
	return NewWithRegisterer(serviceName, promclient.DefaultRegisterer)
}

// NewWithRegisterer is New with an explicit registry.
func NewWithRegisterer(serviceName string, reg promclient.Registerer) *Observability {
	exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	comparisonCounter, _ := meter.Int64Counter(
		"comparisons.processed",
		otelmetric.WithDescription("Number of prompt comparisons processed"),
	)

	comparisonDuration, _ := meter.Float64Histogram(
		"comparisons.duration",
		otelmetric.WithDescription("Wall-clock duration of a prompt comparison"),
		otelmetric.WithUnit("ms"),
	)

	modelFailures, _ := meter.Int64Counter(
		"comparisons.model_failures",
		otelmetric.WithDescription("Number of per-model failures inside comparisons"),
	)

	return &Observability{
		meterProvider:      provider,
		meter:              meter,
		comparisonCounter:  comparisonCounter,
		comparisonDuration: comparisonDuration,
		modelFailures:      modelFailures,
	}
}

// RecordComparison counts one comparison. status is "complete", "partial" or "failed".
func (o *Observability) RecordComparison(ctx context.Context, status string, duration time.Duration) {
	attrs := otelmetric.WithAttributes(attribute.String("status", status))
	if o.comparisonCounter != nil {
		o.comparisonCounter.Add(ctx, 1, attrs)
	}
	if o.comparisonDuration != nil {
		o.comparisonDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

// RecordModelFailure counts a failed model call by model and error code.
func (o *Observability) RecordModelFailure(ctx context.Context, model, code string) {
	if o.modelFailures != nil {
		o.modelFailures.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("model", model),
			attribute.String("code", code),
		))
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = o.meterProvider.Shutdown(ctx)
	}
}
