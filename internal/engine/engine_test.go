package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergent-company/orgtwin/internal/model"
)

func mustEntity(t *testing.T, e Engine, kind model.EntityType, name string) *model.Entity {
	t.Helper()
	ent := model.NewEntity(kind, name)
	_, err := e.AddEntity(ent)
	require.NoError(t, err)
	return ent
}

func TestAddEntityRejectsDuplicateID(t *testing.T) {
	e := New()
	ent := mustEntity(t, e, model.TypeSystem, "CRM")
	_, err := e.AddEntity(ent)
	require.Error(t, err)
}

func TestAddRelationshipValidatesDomainRange(t *testing.T) {
	e := New()
	policy := mustEntity(t, e, model.TypePolicy, "Data Retention Policy")
	person := mustEntity(t, e, model.TypePerson, "A. Chen")

	r := model.NewRelationship(model.RelGoverns, policy.ID, person.ID, 0.9, 0.9, nil)
	_, err := e.AddRelationship(r)
	require.Error(t, err)
	var merr *model.Error
	require.True(t, model.As(err, &merr))
	assert.Equal(t, model.ErrSchemaViolation, merr.Kind)
}

func TestAddRelationshipsBulkAtomic(t *testing.T) {
	e := New()
	sysA := mustEntity(t, e, model.TypeSystem, "Sys A")
	sysB := mustEntity(t, e, model.TypeSystem, "Sys B")

	good := model.NewRelationship(model.RelDependsOn, sysA.ID, sysB.ID, 0.5, 0.5, nil)
	bad := model.NewRelationship(model.RelDependsOn, sysA.ID, "missing", 0.5, 0.5, nil)

	_, err := e.AddRelationshipsBulk([]*model.Relationship{good, bad})
	require.Error(t, err)

	_, getErr := e.GetRelationship(good.ID)
	require.Error(t, getErr, "partial batch must not commit any relationship")
}

func TestRemoveEntityCascadesRelationships(t *testing.T) {
	e := New()
	sysA := mustEntity(t, e, model.TypeSystem, "Sys A")
	sysB := mustEntity(t, e, model.TypeSystem, "Sys B")
	r := model.NewRelationship(model.RelDependsOn, sysA.ID, sysB.ID, 0.5, 0.5, nil)
	_, err := e.AddRelationship(r)
	require.NoError(t, err)

	removed, err := e.RemoveEntity(sysA.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = e.GetRelationship(r.ID)
	require.Error(t, err)
}

func TestShortestPathUndirected(t *testing.T) {
	e := New()
	a := mustEntity(t, e, model.TypeSystem, "A")
	b := mustEntity(t, e, model.TypeSystem, "B")
	c := mustEntity(t, e, model.TypeSystem, "C")
	_, err := e.AddRelationship(model.NewRelationship(model.RelDependsOn, a.ID, b.ID, 0.5, 0.5, nil))
	require.NoError(t, err)
	_, err = e.AddRelationship(model.NewRelationship(model.RelDependsOn, b.ID, c.ID, 0.5, 0.5, nil))
	require.NoError(t, err)

	path, ok := e.ShortestPath(c.ID, a.ID)
	require.True(t, ok, "path must be found even against edge direction")
	assert.Equal(t, []string{c.ID, b.ID, a.ID}, path)

	_, ok = e.ShortestPath(a.ID, "missing")
	assert.False(t, ok)
}

func TestBlastRadiusDepthZeroIsSourceOnly(t *testing.T) {
	e := New()
	a := mustEntity(t, e, model.TypeSystem, "A")
	b := mustEntity(t, e, model.TypeSystem, "B")
	_, err := e.AddRelationship(model.NewRelationship(model.RelDependsOn, a.ID, b.ID, 0.5, 0.5, nil))
	require.NoError(t, err)

	layers, err := e.BlastRadius(a.ID, 0)
	require.NoError(t, err)
	require.Len(t, layers[0], 1)
	assert.Equal(t, a.ID, layers[0][0].ID)
	assert.Empty(t, layers[1])

	layers, err = e.BlastRadius(a.ID, 1)
	require.NoError(t, err)
	require.Len(t, layers[1], 1)
	assert.Equal(t, b.ID, layers[1][0].ID)
}

func TestStatisticsDensityAndComponents(t *testing.T) {
	e := New()
	a := mustEntity(t, e, model.TypeSystem, "A")
	b := mustEntity(t, e, model.TypeSystem, "B")
	_ = mustEntity(t, e, model.TypeSystem, "C") // isolated

	_, err := e.AddRelationship(model.NewRelationship(model.RelDependsOn, a.ID, b.ID, 0.5, 0.5, nil))
	require.NoError(t, err)

	stats := e.Statistics()
	assert.Equal(t, 3, stats.EntityCount)
	assert.Equal(t, 1, stats.RelationshipCount)
	assert.Equal(t, 2, stats.ConnectedComponents)
	assert.False(t, stats.WeaklyConnected)
}

func TestPageRankSumsToApproximatelyOne(t *testing.T) {
	e := New()
	a := mustEntity(t, e, model.TypeSystem, "A")
	b := mustEntity(t, e, model.TypeSystem, "B")
	c := mustEntity(t, e, model.TypeSystem, "C")
	_, err := e.AddRelationship(model.NewRelationship(model.RelDependsOn, a.ID, b.ID, 0.5, 0.5, nil))
	require.NoError(t, err)
	_, err = e.AddRelationship(model.NewRelationship(model.RelDependsOn, b.ID, c.ID, 0.5, 0.5, nil))
	require.NoError(t, err)

	ranks := e.PageRank()
	sum := 0.0
	for _, v := range ranks {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-3)
}

func TestMostConnectedOrdering(t *testing.T) {
	e := New()
	hub := mustEntity(t, e, model.TypeSystem, "Hub")
	leaf1 := mustEntity(t, e, model.TypeSystem, "Leaf1")
	leaf2 := mustEntity(t, e, model.TypeSystem, "Leaf2")
	_, err := e.AddRelationship(model.NewRelationship(model.RelDependsOn, hub.ID, leaf1.ID, 0.5, 0.5, nil))
	require.NoError(t, err)
	_, err = e.AddRelationship(model.NewRelationship(model.RelDependsOn, hub.ID, leaf2.ID, 0.5, 0.5, nil))
	require.NoError(t, err)

	top := e.MostConnected(1)
	require.Len(t, top, 1)
	assert.Equal(t, hub.ID, top[0].ID)
	assert.Equal(t, 2, top[0].Degree)
}

func TestRiskScoreCountsVulnerabilitiesAndInternetEdges(t *testing.T) {
	e := New()
	sys := mustEntity(t, e, model.TypeSystem, "Ledger")

	critVuln := mustEntity(t, e, model.TypeVulnerability, "CVE-critical")
	require.NoError(t, critVuln.Set("severity", "critical"))
	medVuln := mustEntity(t, e, model.TypeVulnerability, "CVE-medium")
	require.NoError(t, medVuln.Set("severity", "medium"))

	exposed := mustEntity(t, e, model.TypeSystem, "Public API")
	require.NoError(t, exposed.Set("internet_facing", true))

	_, err := e.AddRelationship(model.NewRelationship(model.RelVulnerableTo, sys.ID, critVuln.ID, 0.5, 0.5, nil))
	require.NoError(t, err)
	_, err = e.AddRelationship(model.NewRelationship(model.RelVulnerableTo, sys.ID, medVuln.ID, 0.5, 0.5, nil))
	require.NoError(t, err)
	_, err = e.AddRelationship(model.NewRelationship(model.RelDependsOn, sys.ID, exposed.ID, 0.5, 0.5, nil))
	require.NoError(t, err)

	score, err := e.RiskScore(sys.ID)
	require.NoError(t, err)
	// v=2, crit_v=1, deg=3, internet_edges=1 -> 20 + 25 + 6 + 20 = 71
	assert.Equal(t, 71.0, score)
}

func TestRiskScoreClampsToOneHundred(t *testing.T) {
	e := New()
	sys := mustEntity(t, e, model.TypeSystem, "Ledger")
	for i := 0; i < 6; i++ {
		vuln := mustEntity(t, e, model.TypeVulnerability, fmt.Sprintf("CVE-%d", i))
		require.NoError(t, vuln.Set("severity", "critical"))
		_, err := e.AddRelationship(model.NewRelationship(model.RelVulnerableTo, sys.ID, vuln.ID, 0.5, 0.5, nil))
		require.NoError(t, err)
	}

	score, err := e.RiskScore(sys.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, score)
}

func TestRiskScoreUnknownEntity(t *testing.T) {
	e := New()
	_, err := e.RiskScore("missing")
	require.Error(t, err)
	var merr *model.Error
	require.True(t, model.As(err, &merr))
	assert.Equal(t, model.ErrNotFound, merr.Kind)
}

func TestNewBackendUnknownName(t *testing.T) {
	_, err := NewBackend("does-not-exist")
	require.Error(t, err)
}

func TestNewBackendMemory(t *testing.T) {
	e, err := NewBackend("memory")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Contains(t, Names(), "memory")
}
