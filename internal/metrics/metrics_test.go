package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countSamples(t *testing.T, r *Registry, name string) int {
	t.Helper()
	families, err := r.reg.Gather()
	require.NoError(t, err)
	for _, fam := range families {
		if fam.GetName() == name {
			return len(fam.GetMetric())
		}
	}
	return 0
}

func counterValue(t *testing.T, r *Registry, name string) float64 {
	t.Helper()
	families, err := r.reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, m := range fam.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestObserveToolCallIncrementsCounter(t *testing.T) {
	r := New()
	r.ObserveToolCall("get_entity", OutcomeOK, 10*time.Millisecond)
	r.ObserveToolCall("get_entity", OutcomeError, 5*time.Millisecond)

	assert.Equal(t, float64(2), counterValue(t, r, "orgtwin_tool_calls_total"))
}

func TestObserveGenerationLayerRecordsDuration(t *testing.T) {
	r := New()
	r.ObserveGenerationLayer("organisation", 50*time.Millisecond)

	assert.Equal(t, 1, countSamples(t, r, "orgtwin_generation_duration_seconds"))
}

func TestRegistryIsPrivateNotGlobal(t *testing.T) {
	a := New()
	b := New()
	a.ObserveToolCall("search_entities", OutcomeOK, time.Millisecond)

	assert.Equal(t, float64(1), counterValue(t, a, "orgtwin_tool_calls_total"))
	assert.Equal(t, float64(0), counterValue(t, b, "orgtwin_tool_calls_total"))
}

func TestTimerMeasuresElapsed(t *testing.T) {
	elapsed := Timer()
	time.Sleep(5 * time.Millisecond)
	d := elapsed()
	assert.Greater(t, d, time.Duration(0))
}
