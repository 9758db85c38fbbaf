package weaver

import (
	"github.com/emergent-company/orgtwin/internal/generator"
	"github.com/emergent-company/orgtwin/internal/model"
)

// weaveCompliance wires the governance/risk/security subgraph: governs
// (policy -> system/data_asset), implements, mitigates, subject_to,
// certifies, affects, vulnerable_to, exploits, attributed_to, targets,
// threatens, remediates. It also resolves vulnerability.affected_system_id
// and incident.affected_system_ids, the two remaining forward references
// from L01 into L02.
func weaveCompliance(ctx *generator.GenerationContext) error {
	if err := weaveGovernsSystemsAndAssets(ctx); err != nil {
		return err
	}
	if err := weaveImplementsAndCertifies(ctx); err != nil {
		return err
	}
	if err := weaveMitigates(ctx); err != nil {
		return err
	}
	if err := weaveSubjectTo(ctx); err != nil {
		return err
	}
	if err := weaveVulnerabilitiesAndThreats(ctx); err != nil {
		return err
	}
	return weaveIncidents(ctx)
}

func weaveGovernsSystemsAndAssets(ctx *generator.GenerationContext) error {
	policies := ctx.Of(model.TypePolicy)
	systems := ctx.Of(model.TypeSystem)
	assets := ctx.Of(model.TypeDataAsset)
	for i, p := range policies {
		if len(systems) > 0 {
			sys := systems[i%len(systems)]
			if err := emit(ctx, model.RelGoverns, p, sys,
				randomWeight(ctx, 0.7, 1.0), randomConfidence(ctx, bandOrganisational),
				map[string]string{"enforcement": p.GetString("enforcement")}); err != nil {
				return err
			}
		}
		if len(assets) > 0 {
			asset := assets[ctx.Rng.Intn(len(assets))]
			if err := emit(ctx, model.RelGoverns, p, asset,
				randomWeight(ctx, 0.7, 1.0), randomConfidence(ctx, bandOrganisational),
				map[string]string{"enforcement": p.GetString("enforcement")}); err != nil {
				return err
			}
		}
	}
	return nil
}

func weaveImplementsAndCertifies(ctx *generator.GenerationContext) error {
	controls := ctx.Of(model.TypeControl)
	policies := ctx.Of(model.TypePolicy)
	regulations := ctx.Of(model.TypeRegulation)
	for i, c := range controls {
		if len(regulations) > 0 && i%2 == 0 {
			reg := regulations[i%len(regulations)]
			if err := emit(ctx, model.RelImplements, c, reg,
				randomWeight(ctx, 0.7, 1.0), randomConfidence(ctx, bandOrganisational),
				map[string]string{"automation_level": c.GetString("automation_level")}); err != nil {
				return err
			}
			if err := emit(ctx, model.RelCertifies, reg, c,
				randomWeight(ctx, 0.8, 1.0), randomConfidence(ctx, bandOrganisational),
				map[string]string{"scope": reg.GetString("regulation_code")}); err != nil {
				return err
			}
		}
		if len(policies) > 0 && i%2 == 1 {
			pol := policies[i%len(policies)]
			if err := emit(ctx, model.RelImplements, c, pol,
				randomWeight(ctx, 0.7, 1.0), randomConfidence(ctx, bandOrganisational),
				map[string]string{"automation_level": c.GetString("automation_level")}); err != nil {
				return err
			}
		}
	}
	return nil
}

// weaveMitigates is also the source of the risk.mitigated_by_controls
// mirror field, populated in the mirror sweep from these edges.
func weaveMitigates(ctx *generator.GenerationContext) error {
	controls := ctx.Of(model.TypeControl)
	if len(controls) == 0 {
		return nil
	}
	targets := [][]*model.Entity{ctx.Of(model.TypeRisk), ctx.Of(model.TypeVulnerability), ctx.Of(model.TypeThreat)}
	for _, group := range targets {
		for i, t := range group {
			control := controls[(i*7)%len(controls)] // spread deterministically across the control set
			if err := emit(ctx, model.RelMitigates, control, t,
				randomWeight(ctx, 0.5, 0.9), randomConfidence(ctx, bandDependency),
				map[string]string{"control_family": control.GetString("control_family")}); err != nil {
				return err
			}
		}
	}
	return nil
}

func weaveSubjectTo(ctx *generator.GenerationContext) error {
	regulations := ctx.Of(model.TypeRegulation)
	jurisdictions := ctx.Of(model.TypeJurisdiction)
	sources := [][]*model.Entity{ctx.Of(model.TypeSystem), ctx.Of(model.TypeVendor), ctx.Of(model.TypeDataAsset), ctx.Of(model.TypeProduct)}
	for _, group := range sources {
		for i, src := range group {
			if len(regulations) > 0 && i%2 == 0 {
				reg := regulations[i%len(regulations)]
				if err := emit(ctx, model.RelSubjectTo, src, reg,
					randomWeight(ctx, 0.6, 1.0), randomConfidence(ctx, bandDependency),
					map[string]string{"obligation": reg.GetString("category")}); err != nil {
					return err
				}
			} else if len(jurisdictions) > 0 {
				j := jurisdictions[i%len(jurisdictions)]
				if err := emit(ctx, model.RelSubjectTo, src, j,
					randomWeight(ctx, 0.6, 1.0), randomConfidence(ctx, bandDependency),
					map[string]string{"obligation": "jurisdictional"}); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// weaveVulnerabilitiesAndThreats resolves vulnerability.affected_system_id
// (the last L01->L02 forward reference besides incident's) alongside the
// affects/vulnerable_to edge pair, then wires exploits/targets/threatens.
func weaveVulnerabilitiesAndThreats(ctx *generator.GenerationContext) error {
	systems := ctx.Of(model.TypeSystem)
	assets := ctx.Of(model.TypeDataAsset)
	if len(systems) == 0 {
		return nil
	}
	for i, v := range ctx.Of(model.TypeVulnerability) {
		sys := systems[i%len(systems)]
		if err := emit(ctx, model.RelAffects, v, sys,
			weightFromSeverity(v.GetString("severity")), randomConfidence(ctx, bandDependency),
			map[string]string{"exploit_maturity": exploitMaturityFor(v)}); err != nil {
			return err
		}
		if err := emit(ctx, model.RelVulnerableTo, sys, v,
			weightFromSeverity(v.GetString("severity")), randomConfidence(ctx, bandDependency),
			map[string]string{"status": v.GetString("status")}); err != nil {
			return err
		}
		if _, err := ctx.Engine.UpdateEntity(v.ID, map[string]any{"affected_system_id": sys.ID}); err != nil {
			return err
		}
	}

	actors := ctx.Of(model.TypeThreatActor)
	vulns := ctx.Of(model.TypeVulnerability)
	if len(actors) > 0 && len(vulns) > 0 {
		for i, v := range vulns {
			if i%4 != 0 { // not every vulnerability is actively exploited
				continue
			}
			actor := actors[i%len(actors)]
			if err := emit(ctx, model.RelExploits, actor, v,
				randomWeight(ctx, 0.5, 0.9), randomConfidence(ctx, bandAttribution),
				map[string]string{"exploit_maturity": exploitMaturityFor(v)}); err != nil {
				return err
			}
			if len(systems) > 0 {
				if err := emit(ctx, model.RelThreatens, actor, systems[i%len(systems)],
					randomWeight(ctx, 0.4, 0.8), randomConfidence(ctx, bandAttribution),
					map[string]string{"motivation": actor.GetString("motivation")}); err != nil {
					return err
				}
			}
		}
	}

	for i, threat := range ctx.Of(model.TypeThreat) {
		if len(systems) > 0 && i%2 == 0 {
			if err := emit(ctx, model.RelTargets, threat, systems[i%len(systems)],
				weightFromSeverity(threat.GetString("severity")), randomConfidence(ctx, bandAttribution),
				map[string]string{"threat_category": threat.GetString("threat_category")}); err != nil {
				return err
			}
		} else if len(assets) > 0 {
			if err := emit(ctx, model.RelTargets, threat, assets[i%len(assets)],
				weightFromSeverity(threat.GetString("severity")), randomConfidence(ctx, bandAttribution),
				map[string]string{"threat_category": threat.GetString("threat_category")}); err != nil {
				return err
			}
		}
	}
	return nil
}

func exploitMaturityFor(v *model.Entity) string {
	switch v.GetString("status") {
	case "patched":
		return "theoretical"
	case "mitigating":
		return "poc"
	default:
		return "weaponized"
	}
}

// weaveIncidents resolves attributed_to, remediates, and the
// incident.affected_system_ids forward reference (no dedicated
// relationship type targets incident->system directly; the field is
// derived from the vulnerability the incident remediates).
func weaveIncidents(ctx *generator.GenerationContext) error {
	actors := ctx.Of(model.TypeThreatActor)
	vulns := ctx.Of(model.TypeVulnerability)
	if len(actors) == 0 {
		return nil
	}
	for i, inc := range ctx.Of(model.TypeIncident) {
		actor := actors[i%len(actors)]
		if err := emit(ctx, model.RelAttributedTo, inc, actor,
			randomWeight(ctx, 0.4, 0.8), randomConfidence(ctx, bandAttribution),
			map[string]string{"attribution_basis": "ttp_overlap"}); err != nil {
			return err
		}
		if len(vulns) == 0 {
			continue
		}
		v := vulns[i%len(vulns)]
		if err := emit(ctx, model.RelRemediates, inc, v,
			weightFromSeverity(inc.GetString("severity")), randomConfidence(ctx, bandDependency),
			map[string]string{"remediation_status": inc.GetString("status")}); err != nil {
			return err
		}
		if sysID := v.GetString("affected_system_id"); sysID != "" {
			if _, err := ctx.Engine.UpdateEntity(inc.ID, map[string]any{"affected_system_ids": []string{sysID}}); err != nil {
				return err
			}
		}
	}
	return nil
}
