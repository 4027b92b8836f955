package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMetricsRegistered verifies that every collector is visible through the
// default gatherer once it has been observed.
func TestMetricsRegistered(t *testing.T) {
	MovesTotal.WithLabelValues("move_up", OutcomeApplied).Inc()
	PositionWritesTotal.WithLabelValues("move_up").Add(2)
	MoveDuration.WithLabelValues("move_up").Observe(0.002)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	expected := map[string]bool{
		"treeorder_moves_total":           false,
		"treeorder_position_writes_total": false,
		"treeorder_move_duration_seconds": false,
	}
	for _, mf := range families {
		if _, ok := expected[mf.GetName()]; ok {
			expected[mf.GetName()] = true
		}
	}

	for name, found := range expected {
		assert.True(t, found, "metric %s not registered", name)
	}
}

func TestCounterValues(t *testing.T) {
	before := counterValue(t, PositionWritesTotal.WithLabelValues("move_below"))
	PositionWritesTotal.WithLabelValues("move_below").Add(3)
	after := counterValue(t, PositionWritesTotal.WithLabelValues("move_below"))

	assert.Equal(t, before+3, after)
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}
