package weaver

import (
	"github.com/emergent-company/orgtwin/internal/engine"
	"github.com/emergent-company/orgtwin/internal/generator"
	"github.com/emergent-company/orgtwin/internal/model"
)

// populateMirrorFields sweeps every entity kind with at least one
// mirror field (model.MirrorFieldsFor) and derives each one from the
// edges the earlier weave steps just committed. This is the last step
// of WeaveAll, run once the full relationship set exists (spec.md §3.2,
// §4.4).
func populateMirrorFields(ctx *generator.GenerationContext) error {
	for _, kind := range model.AllEntityTypes {
		mirrors := model.MirrorFieldsFor(kind)
		if len(mirrors) == 0 {
			continue
		}
		for _, e := range ctx.Of(kind) {
			patch, err := mirrorPatchFor(ctx, e)
			if err != nil {
				return err
			}
			if len(patch) == 0 {
				continue
			}
			if _, err := ctx.Engine.UpdateEntity(e.ID, patch); err != nil {
				return err
			}
		}
	}
	return nil
}

// mirrorPatchFor computes the mirror-field patch for one entity, keyed by
// kind. Each case reads the relevant incident edges through ctx.Engine and
// derives the field the generator deliberately left zero-valued.
func mirrorPatchFor(ctx *generator.GenerationContext, e *model.Entity) (map[string]any, error) {
	switch e.Type {
	case model.TypeRisk:
		ids := targetIDs(ctx, e.ID, engine.DirIn, model.RelMitigates)
		return map[string]any{"mitigated_by_controls": ids}, nil

	case model.TypeVulnerability:
		ids := targetIDs(ctx, e.ID, engine.DirOut, model.RelAffects)
		return map[string]any{"affects_systems": ids}, nil

	case model.TypeSystem:
		ids := targetIDs(ctx, e.ID, engine.DirOut, model.RelHostedAt)
		if len(ids) == 0 {
			return nil, nil
		}
		return map[string]any{"hosted_at_site": ids[0]}, nil

	case model.TypeDataAsset:
		ids := targetIDs(ctx, e.ID, engine.DirIn, model.RelStores)
		return map[string]any{"stored_in_systems": ids}, nil

	case model.TypePerson:
		ids := targetIDs(ctx, e.ID, engine.DirOut, model.RelLocatedAt)
		if len(ids) == 0 {
			return nil, nil
		}
		return map[string]any{"located_at": ids[0]}, nil

	case model.TypeRole:
		holders := targetIDs(ctx, e.ID, engine.DirIn, model.RelHoldsRole)
		return map[string]any{
			"headcount_filled":  float64(len(holders)),
			"filled_by_persons": holders,
		}, nil

	case model.TypeVendor:
		ids := targetIDs(ctx, e.ID, engine.DirOut, model.RelContractedUnder)
		return map[string]any{"contract_ids": ids}, nil

	case model.TypeDepartment:
		members := targetIDs(ctx, e.ID, engine.DirIn, model.RelWorksIn)
		return map[string]any{"actual_headcount": float64(len(members))}, nil

	default:
		return nil, nil
	}
}

// targetIDs collects the neighbor id on the far side of every edge of typ
// incident on id in direction dir: for DirOut that's TargetID, for DirIn
// that's SourceID.
func targetIDs(ctx *generator.GenerationContext, id string, dir engine.Direction, typ model.RelationshipType) []string {
	rels := ctx.Engine.Relationships(id, dir, engine.NeighborFilter{RelType: string(typ)})
	out := make([]string, 0, len(rels))
	for _, r := range rels {
		if dir == engine.DirOut {
			out = append(out, r.TargetID)
		} else {
			out = append(out, r.SourceID)
		}
	}
	return out
}

// recomputeResidualRisk lowers each risk's residual_risk_level from its
// generator-assigned inherent level by one step per distinct control that
// now mitigates it, per spec.md §4.4 — once at least one control applies,
// residual risk is strictly lower than inherent, except that a very_low
// inherent level stays very_low (StepDown clamps at the lowest level).
func recomputeResidualRisk(ctx *generator.GenerationContext) error {
	for _, risk := range ctx.Of(model.TypeRisk) {
		controls := targetIDs(ctx, risk.ID, engine.DirIn, model.RelMitigates)
		if len(controls) == 0 {
			continue
		}
		inherent := model.RiskLevel(risk.GetString("inherent_risk_level"))
		residual := model.StepDown(inherent, len(controls))
		if _, err := ctx.Engine.UpdateEntity(risk.ID, map[string]any{"residual_risk_level": string(residual)}); err != nil {
			return err
		}
	}
	return nil
}
