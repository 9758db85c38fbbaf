// Package scaling translates an organisation profile (industry, headcount,
// overrides) into per-kind entity counts, following spec.md §4.2.
package scaling

import (
	"math"
	"math/rand"

	"github.com/emergent-company/orgtwin/internal/model"
)

// Industry is the closed set of coefficient tables the generator ships with.
// An unrecognised industry falls back to Technology (spec.md §4.2 step 1).
type Industry string

const (
	Technology Industry = "technology"
	Financial  Industry = "financial"
	Healthcare Industry = "healthcare"
)

// OrgProfile is the generator's single input: an industry, an employee
// count, and optional per-kind overrides.
type OrgProfile struct {
	Industry      Industry
	EmployeeCount int
	Coefficients  *ScalingCoefficients // nil uses the industry default table
	Overrides     map[model.EntityType]int
}

// ScalingCoefficients holds one divisor per non-derived entity kind: the
// generator divides employee count by the coefficient to get a base count
// before the size-tier multiplier and floor/ceiling clamps apply.
type ScalingCoefficients struct {
	Coeff   map[model.EntityType]int
	Floor   map[model.EntityType]int
	Ceiling map[model.EntityType]int
}

// derivedKinds are never overridable and never looked up via scaledRange —
// their counts fall out of other layers (department split, role expansion,
// network-per-system, vulnerability-per-system, person-per-department).
var derivedKinds = map[model.EntityType]bool{
	model.TypeDepartment:    true,
	model.TypeRole:          true,
	model.TypeNetwork:       true,
	model.TypeVulnerability: true,
	model.TypePerson:        true,
}

// IsDerived reports whether a kind's count is computed downstream rather
// than drawn directly from scaledRange.
func IsDerived(kind model.EntityType) bool { return derivedKinds[kind] }

func table(coeff, floor, ceiling map[model.EntityType]int) *ScalingCoefficients {
	return &ScalingCoefficients{Coeff: coeff, Floor: floor, Ceiling: ceiling}
}

// defaultTables holds the three hand-authored industry constants. Kinds
// absent from Coeff are not scaled directly by this model (sites use the
// dynamic location formula below; derived kinds are computed elsewhere).
var defaultTables = map[Industry]*ScalingCoefficients{
	Technology: table(
		map[model.EntityType]int{
			model.TypePolicy: 120, model.TypeRegulation: 400, model.TypeControl: 60,
			model.TypeRisk: 80, model.TypeThreat: 150, model.TypeThreatActor: 2000,
			model.TypeIncident: 300,
			model.TypeSystem:   15, model.TypeIntegration: 40,
			model.TypeDataAsset: 10, model.TypeDataDomain: 250, model.TypeDataFlow: 8,
			model.TypeOrganizationalUnit: 200,
			model.TypeBusinessCapability: 90,
			model.TypeGeography:          350, model.TypeJurisdiction: 500,
			model.TypeProductPortfolio: 600, model.TypeProduct: 60,
			model.TypeMarketSegment: 300, model.TypeCustomer: 25,
			model.TypeVendor: 70, model.TypeContract: 35,
			model.TypeInitiative: 90, model.TypeLocation: 180,
		},
		map[model.EntityType]int{
			model.TypePolicy: 5, model.TypeRegulation: 3, model.TypeControl: 8,
			model.TypeRisk: 6, model.TypeThreat: 4, model.TypeThreatActor: 1,
			model.TypeIncident: 2,
			model.TypeSystem:   10, model.TypeIntegration: 4,
			model.TypeDataAsset: 8, model.TypeDataDomain: 3, model.TypeDataFlow: 6,
			model.TypeOrganizationalUnit: 2,
			model.TypeBusinessCapability: 5,
			model.TypeGeography:          1, model.TypeJurisdiction: 1,
			model.TypeProductPortfolio: 1, model.TypeProduct: 3,
			model.TypeMarketSegment: 2, model.TypeCustomer: 10,
			model.TypeVendor: 5, model.TypeContract: 3,
			model.TypeInitiative: 3, model.TypeLocation: 1,
		},
		map[model.EntityType]int{
			model.TypePolicy: 200, model.TypeRegulation: 60, model.TypeControl: 400,
			model.TypeRisk: 500, model.TypeThreat: 300, model.TypeThreatActor: 12,
			model.TypeIncident: 800,
			model.TypeSystem:   2500, model.TypeIntegration: 1200,
			model.TypeDataAsset: 3000, model.TypeDataDomain: 80, model.TypeDataFlow: 4000,
			model.TypeOrganizationalUnit: 400,
			model.TypeBusinessCapability: 150,
			model.TypeGeography:          60, model.TypeJurisdiction: 100,
			model.TypeProductPortfolio: 40, model.TypeProduct: 600,
			model.TypeMarketSegment: 80, model.TypeCustomer: 4000,
			model.TypeVendor: 900, model.TypeContract: 1500,
			model.TypeInitiative: 200, model.TypeLocation: 120,
		},
	),
	Financial: table(
		map[model.EntityType]int{
			model.TypePolicy: 80, model.TypeRegulation: 150, model.TypeControl: 35,
			model.TypeRisk: 50, model.TypeThreat: 130, model.TypeThreatActor: 2000,
			model.TypeIncident: 250,
			model.TypeSystem:   20, model.TypeIntegration: 50,
			model.TypeDataAsset: 12, model.TypeDataDomain: 220, model.TypeDataFlow: 10,
			model.TypeOrganizationalUnit: 180,
			model.TypeBusinessCapability: 80,
			model.TypeGeography:          400, model.TypeJurisdiction: 250,
			model.TypeProductPortfolio: 500, model.TypeProduct: 45,
			model.TypeMarketSegment: 250, model.TypeCustomer: 15,
			model.TypeVendor: 90, model.TypeContract: 25,
			model.TypeInitiative: 110, model.TypeLocation: 250,
		},
		map[model.EntityType]int{
			model.TypePolicy: 8, model.TypeRegulation: 6, model.TypeControl: 15,
			model.TypeRisk: 8, model.TypeThreat: 5, model.TypeThreatActor: 1,
			model.TypeIncident: 2,
			model.TypeSystem:   12, model.TypeIntegration: 5,
			model.TypeDataAsset: 10, model.TypeDataDomain: 4, model.TypeDataFlow: 8,
			model.TypeOrganizationalUnit: 2,
			model.TypeBusinessCapability: 6,
			model.TypeGeography:          1, model.TypeJurisdiction: 2,
			model.TypeProductPortfolio: 1, model.TypeProduct: 3,
			model.TypeMarketSegment: 3, model.TypeCustomer: 20,
			model.TypeVendor: 6, model.TypeContract: 4,
			model.TypeInitiative: 3, model.TypeLocation: 1,
		},
		map[model.EntityType]int{
			model.TypePolicy: 260, model.TypeRegulation: 150, model.TypeControl: 550,
			model.TypeRisk: 600, model.TypeThreat: 320, model.TypeThreatActor: 12,
			model.TypeIncident: 700,
			model.TypeSystem:   2000, model.TypeIntegration: 1000,
			model.TypeDataAsset: 3400, model.TypeDataDomain: 90, model.TypeDataFlow: 4200,
			model.TypeOrganizationalUnit: 420,
			model.TypeBusinessCapability: 160,
			model.TypeGeography:          55, model.TypeJurisdiction: 140,
			model.TypeProductPortfolio: 45, model.TypeProduct: 500,
			model.TypeMarketSegment: 70, model.TypeCustomer: 5000,
			model.TypeVendor: 850, model.TypeContract: 2000,
			model.TypeInitiative: 220, model.TypeLocation: 90,
		},
	),
	Healthcare: table(
		map[model.EntityType]int{
			model.TypePolicy: 90, model.TypeRegulation: 120, model.TypeControl: 45,
			model.TypeRisk: 60, model.TypeThreat: 160, model.TypeThreatActor: 2000,
			model.TypeIncident: 280,
			model.TypeSystem:   18, model.TypeIntegration: 45,
			model.TypeDataAsset: 9, model.TypeDataDomain: 200, model.TypeDataFlow: 7,
			model.TypeOrganizationalUnit: 190,
			model.TypeBusinessCapability: 85,
			model.TypeGeography:          380, model.TypeJurisdiction: 300,
			model.TypeProductPortfolio: 700, model.TypeProduct: 70,
			model.TypeMarketSegment: 320, model.TypeCustomer: 20,
			model.TypeVendor: 80, model.TypeContract: 30,
			model.TypeInitiative: 100, model.TypeLocation: 160,
		},
		map[model.EntityType]int{
			model.TypePolicy: 10, model.TypeRegulation: 8, model.TypeControl: 20,
			model.TypeRisk: 8, model.TypeThreat: 5, model.TypeThreatActor: 1,
			model.TypeIncident: 3,
			model.TypeSystem:   10, model.TypeIntegration: 4,
			model.TypeDataAsset: 8, model.TypeDataDomain: 3, model.TypeDataFlow: 6,
			model.TypeOrganizationalUnit: 2,
			model.TypeBusinessCapability: 5,
			model.TypeGeography:          1, model.TypeJurisdiction: 2,
			model.TypeProductPortfolio: 1, model.TypeProduct: 3,
			model.TypeMarketSegment: 2, model.TypeCustomer: 12,
			model.TypeVendor: 5, model.TypeContract: 3,
			model.TypeInitiative: 3, model.TypeLocation: 1,
		},
		map[model.EntityType]int{
			model.TypePolicy: 230, model.TypeRegulation: 120, model.TypeControl: 480,
			model.TypeRisk: 550, model.TypeThreat: 330, model.TypeThreatActor: 12,
			model.TypeIncident: 750,
			model.TypeSystem:   2200, model.TypeIntegration: 1100,
			model.TypeDataAsset: 3200, model.TypeDataDomain: 85, model.TypeDataFlow: 4100,
			model.TypeOrganizationalUnit: 410,
			model.TypeBusinessCapability: 155,
			model.TypeGeography:          58, model.TypeJurisdiction: 120,
			model.TypeProductPortfolio: 42, model.TypeProduct: 550,
			model.TypeMarketSegment: 75, model.TypeCustomer: 4500,
			model.TypeVendor: 870, model.TypeContract: 1700,
			model.TypeInitiative: 210, model.TypeLocation: 100,
		},
	),
}

// CoefficientsFor returns the named industry's table, falling back to
// Technology for an unrecognised industry (spec.md §4.2 step 1).
func CoefficientsFor(industry Industry) *ScalingCoefficients {
	if t, ok := defaultTables[industry]; ok {
		return t
	}
	return defaultTables[Technology]
}

// tierMultiplier implements the four-bracket size-tier ladder.
func tierMultiplier(employees int) float64 {
	switch {
	case employees < 250:
		return 0.7
	case employees < 2000:
		return 1.0
	case employees < 10000:
		return 1.2
	default:
		return 1.4
	}
}

// ScaledRange computes the [low, high] draw range for one kind, per the
// formula in spec.md §4.2 step 2.
func ScaledRange(employees, coeff, floor, ceiling int) (low, high int) {
	tier := tierMultiplier(employees)
	base := int(math.Max(float64(floor), float64(employees)/float64(coeff)*tier))
	low = clampInt(int(float64(base)*0.8), floor, ceiling-1)
	high = clampInt(int(float64(base)*1.2), low+1, ceiling)
	return low, high
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}

// CountFor draws the final count for kind from its scaled range, honouring
// overrides (rejected for derived kinds) and the kind's floor/ceiling clamp.
func CountFor(kind model.EntityType, profile OrgProfile, rng *rand.Rand) int {
	if v, ok := profile.Overrides[kind]; ok && !IsDerived(kind) {
		coeffs := coefficientsOf(profile)
		floor, ceiling := coeffs.Floor[kind], coeffs.Ceiling[kind]
		return clampInt(v, floor, ceiling)
	}
	coeffs := coefficientsOf(profile)
	coeff, ok := coeffs.Coeff[kind]
	if !ok {
		return 0
	}
	floor, ceiling := coeffs.Floor[kind], coeffs.Ceiling[kind]
	low, high := ScaledRange(profile.EmployeeCount, coeff, floor, ceiling)
	if high <= low {
		return low
	}
	return low + rng.Intn(high-low+1)
}

func coefficientsOf(profile OrgProfile) *ScalingCoefficients {
	if profile.Coefficients != nil {
		return profile.Coefficients
	}
	return CoefficientsFor(profile.Industry)
}

// siteDivisor is N in spec.md §4.2 step 5's location-count dynamic formula.
var siteDivisor = map[Industry]int{
	Technology: 400,
	Financial:  300,
	Healthcare: 200,
}

// SiteCount implements the profile-specific dynamic formula for site count,
// which bypasses the general scaledRange model entirely.
func SiteCount(profile OrgProfile, ceilingSites int) int {
	n, ok := siteDivisor[profile.Industry]
	if !ok {
		n = siteDivisor[Technology]
	}
	count := profile.EmployeeCount/n + 1
	if count > ceilingSites {
		count = ceilingSites
	}
	if count < 1 {
		count = 1
	}
	return count
}
