package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservability_RecordsComparisons(t *testing.T) {
	reg := promclient.NewRegistry()
	obs := NewWithRegisterer("art-of-prompting-test", reg)
	t.Cleanup(obs.Shutdown)

	ctx := context.Background()
	obs.RecordComparison(ctx, "partial", 1500*time.Millisecond)
	obs.RecordModelFailure(ctx, "qwen3:4b", "MODEL_UNAVAILABLE")

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	joined := strings.Join(names, ",")
	assert.Contains(t, joined, "comparisons_processed")
	assert.Contains(t, joined, "comparisons_duration")
	assert.Contains(t, joined, "comparisons_model_failures")
}

func TestObservability_ZeroValueIsSafe(t *testing.T) {
	var obs Observability
	obs.RecordComparison(context.Background(), "complete", time.Second)
	obs.RecordModelFailure(context.Background(), "m", "GENERATION_ERROR")
	obs.Shutdown()
}
