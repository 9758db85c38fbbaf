package weaver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergent-company/orgtwin/internal/engine"
	"github.com/emergent-company/orgtwin/internal/generator"
	"github.com/emergent-company/orgtwin/internal/model"
	"github.com/emergent-company/orgtwin/internal/scaling"
)

func smallProfile() scaling.OrgProfile {
	return scaling.OrgProfile{Industry: scaling.Technology, EmployeeCount: 300}
}

func woven(t *testing.T, profile scaling.OrgProfile, seed int64) *generator.GenerationContext {
	t.Helper()
	eng := engine.New()
	ctx := generator.NewContext(eng, profile, seed)
	require.NoError(t, (&generator.Orchestrator{}).Run(ctx))
	require.NoError(t, (&Weaver{}).WeaveAll(ctx))
	return ctx
}

func TestWeaveAllProducesRepresentativeRelationshipTypes(t *testing.T) {
	ctx := woven(t, smallProfile(), 1)
	stats := ctx.Engine.Statistics()
	assert.Greater(t, stats.RelationshipCount, 0)

	seen := map[model.RelationshipType]bool{}
	for typ := range stats.CountsByRelType {
		seen[typ] = true
	}
	// spot-check a representative edge from each weave step rather than
	// every one of the ~50 catalog entries.
	for _, typ := range []model.RelationshipType{
		model.RelWorksIn, model.RelDependsOn, model.RelGoverns, model.RelClassifiedIn,
		model.RelSiteIn, model.RelRegulatedBy, model.RelEnables, model.RelSupplies,
		model.RelImpacts,
	} {
		assert.True(t, seen[typ], "expected at least one %s edge", typ)
	}
}

func TestEveryEmittedEdgeRespectsItsDomainAndRange(t *testing.T) {
	ctx := woven(t, smallProfile(), 2)
	byID := map[string]*model.Entity{}
	for _, kind := range model.AllEntityTypes {
		for _, e := range ctx.Of(kind) {
			byID[e.ID] = e
		}
	}
	// Walk every entity's outgoing edges and validate each against the catalog.
	checked := 0
	for _, e := range byID {
		for _, r := range ctx.Engine.Relationships(e.ID, engine.DirOut, engine.NeighborFilter{}) {
			tgt, ok := byID[r.TargetID]
			if !ok {
				continue
			}
			verr := model.ValidateRelationshipCandidate(model.RelationshipCandidate{
				Type: r.Type, SourceID: r.SourceID, SourceKind: e.Type,
				TargetID: r.TargetID, TargetKind: tgt.Type,
				Weight: r.Weight, Confidence: r.Confidence,
			})
			assert.Nil(t, verr, "%s: %s -> %s", r.Type, e.Type, tgt.Type)
			checked++
		}
	}
	assert.Greater(t, checked, 0)
}

func TestRegulationJurisdictionResolvedByWeaver(t *testing.T) {
	ctx := woven(t, smallProfile(), 3)
	for _, reg := range ctx.Of(model.TypeRegulation) {
		assert.NotEmpty(t, reg.GetString("jurisdiction_id"), "regulation %s missing jurisdiction_id", reg.ID)
	}
}

func TestVulnerabilityAffectedSystemResolvedByWeaver(t *testing.T) {
	ctx := woven(t, smallProfile(), 4)
	for _, v := range ctx.Of(model.TypeVulnerability) {
		assert.NotEmpty(t, v.GetString("affected_system_id"))
	}
}

func TestIncidentAffectedSystemsResolvedByWeaver(t *testing.T) {
	ctx := woven(t, smallProfile(), 5)
	for _, inc := range ctx.Of(model.TypeIncident) {
		assert.NotEmpty(t, inc.GetStringSlice("affected_system_ids"))
	}
}

func TestOwnerDepartmentForwardReferencesResolved(t *testing.T) {
	ctx := woven(t, smallProfile(), 6)
	for _, kind := range []model.EntityType{model.TypeSystem, model.TypeDataAsset, model.TypeBusinessCapability, model.TypeProduct, model.TypePolicy} {
		for _, e := range ctx.Of(kind) {
			assert.NotEmpty(t, e.GetString("owner_department_id"), "%s %s missing owner_department_id", kind, e.ID)
		}
	}
}

func TestMirrorFieldsPopulated(t *testing.T) {
	ctx := woven(t, smallProfile(), 7)

	for _, sys := range ctx.Of(model.TypeSystem) {
		assert.NotEmpty(t, sys.GetString("hosted_at_site"))
	}
	for _, p := range ctx.Of(model.TypePerson) {
		assert.NotEmpty(t, p.GetString("located_at"))
	}
	for _, v := range ctx.Of(model.TypeVendor) {
		assert.NotEmpty(t, v.GetStringSlice("contract_ids"))
	}
	var sawStaffedDepartment bool
	for _, d := range ctx.Of(model.TypeDepartment) {
		if d.GetFloat("actual_headcount") > 0 {
			sawStaffedDepartment = true
		}
	}
	assert.True(t, sawStaffedDepartment)
}

func TestResidualRiskNeverExceedsInherentRisk(t *testing.T) {
	ctx := woven(t, smallProfile(), 8)
	levelIndex := map[model.RiskLevel]int{
		model.RiskVeryLow: 0, model.RiskLow: 1, model.RiskMedium: 2, model.RiskHigh: 3, model.RiskVeryHigh: 4,
	}
	for _, risk := range ctx.Of(model.TypeRisk) {
		inherent := model.RiskLevel(risk.GetString("inherent_risk_level"))
		residual := model.RiskLevel(risk.GetString("residual_risk_level"))
		assert.True(t, levelIndex[residual] <= levelIndex[inherent],
			"risk %s: residual %s exceeds inherent %s", risk.ID, residual, inherent)
	}
}

func TestResidualRiskLowerThanInherentWhenMitigated(t *testing.T) {
	ctx := woven(t, smallProfile(), 9)
	levelIndex := map[model.RiskLevel]int{
		model.RiskVeryLow: 0, model.RiskLow: 1, model.RiskMedium: 2, model.RiskHigh: 3, model.RiskVeryHigh: 4,
	}
	var sawReduction bool
	for _, risk := range ctx.Of(model.TypeRisk) {
		controls := targetIDs(ctx, risk.ID, engine.DirIn, model.RelMitigates)
		if len(controls) == 0 {
			continue
		}
		inherent := model.RiskLevel(risk.GetString("inherent_risk_level"))
		residual := model.RiskLevel(risk.GetString("residual_risk_level"))
		if levelIndex[residual] < levelIndex[inherent] {
			sawReduction = true
		}
	}
	assert.True(t, sawReduction, "expected at least one mitigated risk to step down")
}

func TestEveryEdgeHasNonEmptyProperties(t *testing.T) {
	ctx := woven(t, smallProfile(), 10)
	for _, kind := range model.AllEntityTypes {
		for _, e := range ctx.Of(kind) {
			for _, r := range ctx.Engine.Relationships(e.ID, engine.DirOut, engine.NeighborFilter{}) {
				assert.NotEmpty(t, r.Properties, "%s edge from %s has no properties", r.Type, e.ID)
				assert.GreaterOrEqual(t, r.Weight, 0.0)
				assert.LessOrEqual(t, r.Weight, 1.0)
				assert.GreaterOrEqual(t, r.Confidence, 0.0)
				assert.LessOrEqual(t, r.Confidence, 1.0)
			}
		}
	}
}
