// Package weaver implements the relationship weaver (C5): a single
// WeaveAll pass that runs after every generator layer has committed its
// entities (spec.md §3.4 invariant 8), connecting them with the ~52-type
// relationship catalog and then sweeping the graph once to populate the
// declared mirror fields (spec.md §4.4).
package weaver

import (
	"fmt"

	"github.com/emergent-company/orgtwin/internal/generator"
	"github.com/emergent-company/orgtwin/internal/model"
)

// confidenceBand is a relationship-type-specific draw range for
// Relationship.Confidence (spec.md §4.4).
type confidenceBand struct{ low, high float64 }

var (
	bandOrganisational = confidenceBand{0.90, 0.95} // org-structure facts: works_in, manages, owns, ...
	bandDependency      = confidenceBand{0.80, 0.90} // system/data dependency inferences
	bandAttribution     = confidenceBand{0.70, 0.75} // threat attribution and exploitation
)

// severityWeight is the fixed table for severity-derived weights
// (spec.md §4.4). Used by any weave method whose relationship is driven
// by a severity field on the source or target entity.
var severityWeight = map[string]float64{"low": 0.3, "medium": 0.5, "high": 0.8, "critical": 1.0}

func weightFromSeverity(severity string) float64 {
	if w, ok := severityWeight[severity]; ok {
		return w
	}
	return 0.6
}

// randomWeight draws a weight with variance in [lo, hi] — the "non-severity
// weights" case from spec.md §4.4.
func randomWeight(ctx *generator.GenerationContext, lo, hi float64) float64 {
	return lo + ctx.Rng.Float64()*(hi-lo)
}

func randomConfidence(ctx *generator.GenerationContext, band confidenceBand) float64 {
	return band.low + ctx.Rng.Float64()*(band.high-band.low)
}

// emit builds and commits one relationship through the engine, rounding
// weight/confidence per the clamping invariant. props must describe the
// edge's typed context (spec.md §4.4: "never empty").
func emit(ctx *generator.GenerationContext, typ model.RelationshipType, src, tgt *model.Entity, weight, confidence float64, props map[string]string) error {
	r := model.NewRelationship(typ, src.ID, tgt.ID, weight, confidence, props)
	_, err := ctx.Engine.AddRelationship(r)
	if err != nil {
		return fmt.Errorf("weaver: %s %s->%s: %w", typ, src.Type, tgt.Type, err)
	}
	return nil
}

// WeaveError reports the weave step under way when a weave method fails;
// the pipeline does not catch and continue, matching the generator's
// propagation policy (spec.md §7).
type WeaveError struct {
	Step string
	Err  error
}

func (e *WeaveError) Error() string { return fmt.Sprintf("weaver: %s: %v", e.Step, e.Err) }
func (e *WeaveError) Unwrap() error { return e.Err }

// Weaver runs the single weaveAll pass described in spec.md §4.4.
type Weaver struct{}

// WeaveAll wires every relationship type in the catalog, resolves the
// forward-referencing id fields the generator deliberately left unset,
// recomputes each risk's residual level from the controls that now
// mitigate it, and finishes with one populateMirrorFields sweep.
func (w *Weaver) WeaveAll(ctx *generator.GenerationContext) error {
	steps := []struct {
		name string
		fn   func(*generator.GenerationContext) error
	}{
		{"org_structure", weaveOrgStructure},
		{"technology", weaveTechnology},
		{"compliance", weaveCompliance},
		{"data", weaveData},
		{"geography", weaveGeography},
		{"capabilities_and_products", weaveCapabilitiesAndProducts},
		{"vendors_and_initiatives", weaveVendorsAndInitiatives},
		{"residual_risk", recomputeResidualRisk},
		{"mirror_fields", populateMirrorFields},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return &WeaveError{Step: step.name, Err: err}
		}
	}
	return nil
}
