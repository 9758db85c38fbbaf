package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergent-company/orgtwin/internal/engine"
	"github.com/emergent-company/orgtwin/internal/generator"
	"github.com/emergent-company/orgtwin/internal/model"
	"github.com/emergent-company/orgtwin/internal/scaling"
	"github.com/emergent-company/orgtwin/internal/weaver"
)

func generatedGraph(t *testing.T, seed int64) engine.Engine {
	t.Helper()
	eng := engine.New()
	ctx := generator.NewContext(eng, scaling.OrgProfile{Industry: scaling.Technology, EmployeeCount: 300}, seed)
	require.NoError(t, (&generator.Orchestrator{}).Run(ctx))
	require.NoError(t, (&weaver.Weaver{}).WeaveAll(ctx))
	return eng
}

func TestAssessOnGeneratedGraphScoresHigh(t *testing.T) {
	eng := generatedGraph(t, 1)
	report := Assess(eng)
	assert.GreaterOrEqual(t, report.Overall, 0.70, "warnings: %v", report.Warnings)
	for metric, score := range report.PerMetric {
		assert.GreaterOrEqual(t, score, 0.0, metric)
		assert.LessOrEqual(t, score, 1.0, metric)
	}
}

func TestDescriptionsMetricCatchesPlaceholderText(t *testing.T) {
	eng := engine.New()
	e := model.NewEntity(model.TypeLocation, "Test Location")
	e.Description = "TODO: write a real description"
	_, err := eng.AddEntity(e)
	require.NoError(t, err)
	assert.Less(t, descriptions(eng), 1.0)
}

func TestMatchesLoremCoversSpecLiteralSet(t *testing.T) {
	for _, desc := range []string{
		"lorem ipsum dolor sit amet",
		"Lorem",
		"ipsum",
		"dolor",
		"consectetur adipiscing elit",
		"sit amet something",
	} {
		assert.True(t, matchesLorem(desc), "expected %q to match the lorem-ipsum set", desc)
	}
	assert.False(t, matchesLorem("Enforces perimeter segmentation between zones."))
}

func TestTechCoherenceFlagsWebFrameworkOnApplianceSystem(t *testing.T) {
	eng := engine.New()
	e := model.NewEntity(model.TypeSystem, "Firewall Appliance")
	e.Fields = map[string]any{
		"criticality": "high", "os": "linux", "tech_stack": []string{"react"},
		"hosting_type": "on_prem", "appliance_type": "system",
	}
	_, err := eng.AddEntity(e)
	require.NoError(t, err)
	assert.Less(t, techCoherence(eng), 1.0)
}

func TestEncryptionMetricRequiresEncryptedRestrictedFlows(t *testing.T) {
	eng := engine.New()
	e := model.NewEntity(model.TypeDataFlow, "Unencrypted Restricted Flow")
	e.Fields = map[string]any{
		"classification": "restricted", "encryption_in_transit": false,
		"source_id": "a", "target_id": "b", "frequency": "realtime",
	}
	_, err := eng.AddEntity(e)
	require.NoError(t, err)
	assert.Less(t, encryption(eng), 1.0)
}

func TestRiskMathFlagsMismatchedInherentLevel(t *testing.T) {
	eng := engine.New()
	e := model.NewEntity(model.TypeRisk, "Bad Risk")
	e.Fields = map[string]any{
		"likelihood": "very_high", "impact": "very_high",
		"inherent_risk_level": "very_low", "residual_risk_level": "very_low",
		"category": "operational",
	}
	_, err := eng.AddEntity(e)
	require.NoError(t, err)
	assert.Less(t, riskMath(eng), 1.0)
}
