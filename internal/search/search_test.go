package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergent-company/orgtwin/internal/engine"
	"github.com/emergent-company/orgtwin/internal/model"
)

func seedEngine(t *testing.T, names ...string) engine.Engine {
	t.Helper()
	eng := engine.New()
	for _, n := range names {
		e := model.NewEntity(model.TypeSystem, n)
		e.Fields = map[string]any{"criticality": "medium", "hosting_type": "cloud"}
		_, err := eng.AddEntity(e)
		require.NoError(t, err)
	}
	return eng
}

func TestWeightedRatioExactMatchScoresMax(t *testing.T) {
	assert.Equal(t, 100, WeightedRatio("Payment Gateway", "Payment Gateway"))
}

func TestWeightedRatioCaseInsensitive(t *testing.T) {
	assert.Equal(t, 100, WeightedRatio("payment gateway", "PAYMENT GATEWAY"))
}

func TestWeightedRatioRewardsSubstring(t *testing.T) {
	score := WeightedRatio("Gateway", "Customer Payment Gateway Service")
	assert.GreaterOrEqual(t, score, MinScore)
}

func TestWeightedRatioRewardsReorderedTokens(t *testing.T) {
	score := WeightedRatio("Gateway Payment", "Payment Gateway")
	assert.GreaterOrEqual(t, score, 90)
}

func TestWeightedRatioUnrelatedStringsScoreLow(t *testing.T) {
	score := WeightedRatio("Payment Gateway", "Quarterly Tax Filing Service")
	assert.Less(t, score, MinScore)
}

func TestSearchFiltersBelowThreshold(t *testing.T) {
	eng := seedEngine(t, "Payment Gateway", "Totally Unrelated Thing", "Payment Processor")
	results := Search(eng, "Payment Gateway", "", 10)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, MinScore)
	}
	assert.NotEmpty(t, results)
}

func TestSearchOrdersByScoreDescending(t *testing.T) {
	eng := seedEngine(t, "Payment Gateway", "Payment Gateway Service")
	results := Search(eng, "Payment Gateway", "", 10)
	require.Len(t, results, 2)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i].Score, results[i-1].Score)
	}
}

func TestSearchRespectsLimit(t *testing.T) {
	eng := seedEngine(t, "Payment Gateway", "Payment Gateway Two", "Payment Gateway Three")
	results := Search(eng, "Payment Gateway", "", 2)
	assert.Len(t, results, 2)
}

func TestSearchFiltersByKind(t *testing.T) {
	eng := seedEngine(t, "Payment Gateway")
	risk := model.NewEntity(model.TypeRisk, "Payment Gateway Risk")
	risk.Fields = map[string]any{
		"likelihood": "medium", "impact": "medium",
		"inherent_risk_level": "medium", "residual_risk_level": "medium",
		"category": "operational",
	}
	_, err := eng.AddEntity(risk)
	require.NoError(t, err)

	results := Search(eng, "Payment Gateway", model.TypeSystem, 10)
	for _, r := range results {
		assert.Equal(t, model.TypeSystem, r.Entity.Type)
	}
}
