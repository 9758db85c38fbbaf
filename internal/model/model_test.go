package model

import "testing"

import "github.com/stretchr/testify/assert"
import "github.com/stretchr/testify/require"

func TestClampRound(t *testing.T) {
	assert.Equal(t, 1.0, ClampRound(1.4))
	assert.Equal(t, 0.0, ClampRound(-0.2))
	assert.Equal(t, 0.33, ClampRound(0.3333))
}

func TestDomainRangeOK(t *testing.T) {
	assert.True(t, DomainRangeOK(RelGoverns, TypePolicy, TypeSystem))
	assert.False(t, DomainRangeOK(RelGoverns, TypePerson, TypeSystem))
	assert.False(t, DomainRangeOK(RelationshipType("not_a_type"), TypePolicy, TypeSystem))
}

func TestValidateRelationshipCandidate(t *testing.T) {
	ok := RelationshipCandidate{
		Type: RelDependsOn, SourceID: "sys-1", SourceKind: TypeSystem,
		TargetID: "sys-2", TargetKind: TypeSystem, Weight: 0.5, Confidence: 0.8,
	}
	require.Nil(t, ValidateRelationshipCandidate(ok))

	bad := ok
	bad.TargetKind = TypePerson
	err := ValidateRelationshipCandidate(bad)
	require.NotNil(t, err)
	assert.Equal(t, ErrSchemaViolation, err.Kind)

	badWeight := ok
	badWeight.Weight = 1.5
	err = ValidateRelationshipCandidate(badWeight)
	require.NotNil(t, err)
	assert.Equal(t, ErrValidation, err.Kind)
}

func TestRiskMatrixMonotonic(t *testing.T) {
	for _, l := range RiskLevels {
		for _, i := range RiskLevels {
			level := InherentLevel(l, i)
			assert.Contains(t, RiskLevels, level)
		}
	}
	assert.Equal(t, RiskVeryHigh, InherentLevel(RiskVeryHigh, RiskVeryHigh))
	assert.True(t, LevelAtMost(StepDown(RiskHigh, 2), RiskHigh))
}

func TestEntitySetSchemaEnforced(t *testing.T) {
	e := NewEntity(TypeRisk, "Vendor breach risk")
	require.NoError(t, e.Set("likelihood", string(RiskHigh)))
	err := e.Set("not_a_field", "x")
	require.Error(t, err)
}
