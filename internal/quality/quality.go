// Package quality implements the quality assessor (C6): five metrics in
// [0, 1] over a generated graph, composited into one QualityReport
// (spec.md §4.5).
package quality

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/emergent-company/orgtwin/internal/engine"
	"github.com/emergent-company/orgtwin/internal/model"
)

// loremPatterns flags placeholder description text a real generator
// should never emit; any entity whose description matches one fails the
// descriptions metric. The first five match spec.md §4.3's literal
// `lorem|ipsum|dolor|sit amet|consectetur` set; the rest are additions
// for placeholder text that set would miss.
var loremPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\blorem\b`),
	regexp.MustCompile(`(?i)\bipsum\b`),
	regexp.MustCompile(`(?i)\bdolor\b`),
	regexp.MustCompile(`(?i)sit amet`),
	regexp.MustCompile(`(?i)consectetur`),
	regexp.MustCompile(`(?i)\btodo\b`),
	regexp.MustCompile(`(?i)\btbd\b`),
	regexp.MustCompile(`(?i)placeholder`),
	regexp.MustCompile(`(?i)\bxxx\b`),
}

// webFrameworks lists tech-stack entries that do not belong on an
// appliance-type system (spec.md §4.5 tech coherence check).
var webFrameworks = map[string]bool{
	"react": true, "vue": true, "angular": true, "django": true,
	"rails": true, "express": true, "spring": true, "next.js": true,
}

// Report is the composite result of assessing one graph (spec.md §4.5).
type Report struct {
	Overall   float64            `json:"overall"`
	PerMetric map[string]float64 `json:"per_metric"`
	Warnings  []string           `json:"warnings"`
}

// Assess runs all five metrics against eng and returns the composite
// report. It neither logs nor errors on a low Overall score; the
// cmd/orgtwin callers print the report as returned.
func Assess(eng engine.Engine) Report {
	metrics := map[string]float64{
		"risk_math":         riskMath(eng),
		"descriptions":      descriptions(eng),
		"tech_coherence":    techCoherence(eng),
		"field_correlation": fieldCorrelation(eng),
		"encryption":        encryption(eng),
	}

	var sum float64
	for _, v := range metrics {
		sum += v
	}
	overall := sum / float64(len(metrics))

	var warnings []string
	for name, v := range metrics {
		if v < 1.0 {
			warnings = append(warnings, fmt.Sprintf("%s scored %.2f", name, v))
		}
	}

	return Report{Overall: overall, PerMetric: metrics, Warnings: warnings}
}

// riskMath checks inherent_risk_level == RiskMatrix[likelihood][impact]
// and residual_risk_level <= inherent_risk_level for every risk.
func riskMath(eng engine.Engine) float64 {
	risks := eng.ListEntities(model.TypeRisk, 0)
	if len(risks) == 0 {
		return 1.0
	}
	var ok int
	for _, r := range risks {
		likelihood := model.RiskLevel(r.GetString("likelihood"))
		impact := model.RiskLevel(r.GetString("impact"))
		inherent := model.RiskLevel(r.GetString("inherent_risk_level"))
		residual := model.RiskLevel(r.GetString("residual_risk_level"))
		if inherent == model.InherentLevel(likelihood, impact) && model.LevelAtMost(residual, inherent) {
			ok++
		}
	}
	return float64(ok) / float64(len(risks))
}

// descriptions checks that no entity's description matches a lorem-ipsum
// placeholder pattern.
func descriptions(eng engine.Engine) float64 {
	var total, clean int
	for _, kind := range model.AllEntityTypes {
		for _, e := range eng.ListEntities(kind, 0) {
			total++
			if !matchesLorem(e.Description) {
				clean++
			}
		}
	}
	if total == 0 {
		return 1.0
	}
	return float64(clean) / float64(total)
}

func matchesLorem(desc string) bool {
	for _, re := range loremPatterns {
		if re.MatchString(desc) {
			return true
		}
	}
	return false
}

// techCoherence checks that no system with appliance_type "system" (a
// general-purpose application, as opposed to a network appliance) carries
// a web framework in tech_stack.
func techCoherence(eng engine.Engine) float64 {
	systems := eng.ListEntities(model.TypeSystem, 0)
	if len(systems) == 0 {
		return 1.0
	}
	var ok int
	for _, sys := range systems {
		if sys.GetString("appliance_type") != "system" {
			ok++
			continue
		}
		if !hasWebFramework(sys.GetStringSlice("tech_stack")) {
			ok++
		}
	}
	return float64(ok) / float64(len(systems))
}

func hasWebFramework(stack []string) bool {
	for _, t := range stack {
		if webFrameworks[strings.ToLower(t)] {
			return true
		}
	}
	return false
}

// fieldCorrelation checks patch_available against status for every
// vulnerability, and the data-centre/restricted-tier correlation for
// every site.
func fieldCorrelation(eng engine.Engine) float64 {
	var total, ok int

	for _, v := range eng.ListEntities(model.TypeVulnerability, 0) {
		total++
		patchAvailable, _ := v.Get("patch_available")
		status := v.GetString("status")
		available, _ := patchAvailable.(bool)
		if status == "patched" && !available {
			continue // inconsistent: can't be patched without an available patch
		}
		ok++
	}

	for _, site := range eng.ListEntities(model.TypeSite, 0) {
		total++
		isDC, _ := site.Get("is_data_center")
		dc, _ := isDC.(bool)
		if dc && site.GetString("physical_security_tier") != "restricted" {
			continue
		}
		ok++
	}

	if total == 0 {
		return 1.0
	}
	return float64(ok) / float64(total)
}

// encryption checks that every restricted/confidential data_flow has
// encryption_in_transit = true.
func encryption(eng engine.Engine) float64 {
	flows := eng.ListEntities(model.TypeDataFlow, 0)
	if len(flows) == 0 {
		return 1.0
	}
	var total, ok int
	for _, f := range flows {
		classification := f.GetString("classification")
		if classification != "restricted" && classification != "confidential" {
			continue
		}
		total++
		encrypted, _ := f.Get("encryption_in_transit")
		if v, isBool := encrypted.(bool); isBool && v {
			ok++
		}
	}
	if total == 0 {
		return 1.0
	}
	return float64(ok) / float64(total)
}
