package scaling

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergent-company/orgtwin/internal/model"
)

func TestUnknownIndustryFallsBackToTechnology(t *testing.T) {
	got := CoefficientsFor(Industry("not-a-real-industry"))
	assert.Same(t, defaultTables[Technology], got)
}

func TestScaledRangeMonotonicWithEmployeeCount(t *testing.T) {
	lowSmall, highSmall := ScaledRange(100, 15, 10, 2500)
	lowBig, highBig := ScaledRange(20000, 15, 10, 2500)
	assert.LessOrEqual(t, lowSmall, highSmall)
	assert.LessOrEqual(t, lowBig, highBig)
	assert.Less(t, highSmall, highBig)
}

func TestScaledRangeRespectsFloorAndCeiling(t *testing.T) {
	low, high := ScaledRange(10, 15, 10, 2500)
	assert.GreaterOrEqual(t, low, 10)
	low, high = ScaledRange(10_000_000, 15, 10, 2500)
	assert.LessOrEqual(t, high, 2500)
}

func TestCountForWithinRange(t *testing.T) {
	profile := OrgProfile{Industry: Technology, EmployeeCount: 3000}
	rng := rand.New(rand.NewSource(1))
	coeffs := CoefficientsFor(Technology)
	low, high := ScaledRange(3000, coeffs.Coeff[model.TypeSystem], coeffs.Floor[model.TypeSystem], coeffs.Ceiling[model.TypeSystem])
	for i := 0; i < 50; i++ {
		n := CountFor(model.TypeSystem, profile, rng)
		assert.GreaterOrEqual(t, n, low)
		assert.LessOrEqual(t, n, high)
	}
}

func TestCountForHonoursOverride(t *testing.T) {
	profile := OrgProfile{
		Industry: Technology, EmployeeCount: 3000,
		Overrides: map[model.EntityType]int{model.TypeSystem: 42},
	}
	rng := rand.New(rand.NewSource(1))
	assert.Equal(t, 42, CountFor(model.TypeSystem, profile, rng))
}

func TestCountForIgnoresOverrideOnDerivedKind(t *testing.T) {
	require.True(t, IsDerived(model.TypeDepartment))
	profile := OrgProfile{
		Industry: Technology, EmployeeCount: 3000,
		Overrides: map[model.EntityType]int{model.TypeDepartment: 7},
	}
	rng := rand.New(rand.NewSource(1))
	n := CountFor(model.TypeDepartment, profile, rng)
	assert.NotEqual(t, 7, n, "department has no Coeff entry and is never overridable")
}

func TestSiteCountUsesIndustryDivisor(t *testing.T) {
	tech := OrgProfile{Industry: Technology, EmployeeCount: 4000}
	fin := OrgProfile{Industry: Financial, EmployeeCount: 4000}
	assert.Equal(t, 4000/400+1, SiteCount(tech, 100))
	assert.Equal(t, 4000/300+1, SiteCount(fin, 100))
}

func TestSiteCountClampedByCeilingAndFloor(t *testing.T) {
	profile := OrgProfile{Industry: Technology, EmployeeCount: 1_000_000}
	assert.Equal(t, 50, SiteCount(profile, 50))
	tiny := OrgProfile{Industry: Technology, EmployeeCount: 0}
	assert.Equal(t, 1, SiteCount(tiny, 50))
}
