package weaver

import (
	"github.com/emergent-company/orgtwin/internal/generator"
	"github.com/emergent-company/orgtwin/internal/model"
)

// weaveData wires classified_in (data_asset -> data_domain, mirroring the
// data_domain_id the generator already set) and flows_to (data_flow ->
// the system or data_asset its target_id names).
func weaveData(ctx *generator.GenerationContext) error {
	domains := byID(ctx.Of(model.TypeDataDomain))
	for _, asset := range ctx.Of(model.TypeDataAsset) {
		domain, ok := domains[asset.GetString("data_domain_id")]
		if !ok {
			continue
		}
		if err := emit(ctx, model.RelClassifiedIn, asset, domain,
			randomWeight(ctx, 0.85, 1.0), randomConfidence(ctx, bandOrganisational),
			map[string]string{"classification": asset.GetString("classification")}); err != nil {
			return err
		}
	}

	systems := byID(ctx.Of(model.TypeSystem))
	assets := byID(ctx.Of(model.TypeDataAsset))
	for _, flow := range ctx.Of(model.TypeDataFlow) {
		targetID := flow.GetString("target_id")
		target, ok := systems[targetID]
		if !ok {
			target, ok = assets[targetID]
		}
		if !ok {
			continue
		}
		if err := emit(ctx, model.RelFlowsTo, flow, target,
			randomWeight(ctx, 0.6, 1.0), randomConfidence(ctx, bandDependency),
			map[string]string{"frequency": flow.GetString("frequency"), "encrypted": boolString(flow.Fields["encryption_in_transit"])}); err != nil {
			return err
		}
	}
	return nil
}

func boolString(v any) string {
	if b, ok := v.(bool); ok && b {
		return "true"
	}
	return "false"
}
