package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergent-company/orgtwin/internal/scaling"
)

func TestSplitCommaListParsesAndTrimsEmpties(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitCommaList("a,b,c"))
	assert.Nil(t, splitCommaList(""))
	assert.Equal(t, []string{"a", "b"}, splitCommaList("a,,b,"))
}

func TestBuildOrgProducesNonEmptyGraph(t *testing.T) {
	profile := scaling.OrgProfile{Industry: scaling.Technology, EmployeeCount: 120}
	eng, err := buildOrg(profile, 7, "memory", nil)
	require.NoError(t, err)
	stats := eng.Statistics()
	assert.Greater(t, stats.EntityCount, 0)
	assert.Greater(t, stats.RelationshipCount, 0)
}

func TestTopRiskEntitiesOrdersDescendingAndCaps(t *testing.T) {
	profile := scaling.OrgProfile{Industry: scaling.Technology, EmployeeCount: 120}
	eng, err := buildOrg(profile, 7, "memory", nil)
	require.NoError(t, err)

	top := topRiskEntities(eng, 5)
	require.LessOrEqual(t, len(top), 5)
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1]["risk_score"], top[i]["risk_score"])
	}
	if len(top) > 0 {
		assert.NotEmpty(t, top[0]["id"])
		assert.Contains(t, top[0], "entity_type")
	}
}

func TestParseLogLevelRecognisesAllLevels(t *testing.T) {
	assert.Equal(t, -4, int(parseLogLevel("debug")))
	assert.Equal(t, 4, int(parseLogLevel("warn")))
	assert.Equal(t, 8, int(parseLogLevel("error")))
	assert.Equal(t, 0, int(parseLogLevel("")))
}
