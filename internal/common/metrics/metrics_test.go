package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, Outcome(nil))
	assert.Equal(t, OutcomeFailure, Outcome(errors.New("x")))
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(ModelGenerationsTotal.WithLabelValues("test-model", OutcomeSuccess))
	ModelGenerationsTotal.WithLabelValues("test-model", OutcomeSuccess).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(ModelGenerationsTotal.WithLabelValues("test-model", OutcomeSuccess)))

	ReportsTotal.WithLabelValues("txt", OutcomeSuccess).Inc()
	assert.GreaterOrEqual(t, testutil.ToFloat64(ReportsTotal.WithLabelValues("txt", OutcomeSuccess)), 1.0)
}
