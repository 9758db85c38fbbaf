package weaver

import (
	"github.com/emergent-company/orgtwin/internal/generator"
	"github.com/emergent-company/orgtwin/internal/model"
)

// weaveTechnology wires the system/network/data-asset dependency graph:
// depends_on, integrates_with, stores, hosted_at, monitors, authenticates,
// builds_on, provides_data_to, consumes_data_from, processes.
func weaveTechnology(ctx *generator.GenerationContext) error {
	if err := weaveSystemPairs(ctx); err != nil {
		return err
	}
	if err := weaveIntegrationEdges(ctx); err != nil {
		return err
	}
	if err := weaveHostedAt(ctx); err != nil {
		return err
	}
	return weaveDataAccess(ctx)
}

// systemPairRel gives each system-to-system relationship type a
// dependency_type tag and a rough fraction of systems it touches.
var systemPairRel = []struct {
	typ    model.RelationshipType
	tag    string
	chance int // 1-in-N systems gets an outgoing edge of this type
}{
	{model.RelDependsOn, "runtime", 2},
	{model.RelIntegratesWith, "data", 4},
	{model.RelMonitors, "monitoring", 5},
	{model.RelAuthenticates, "auth", 6},
	{model.RelBuildsOn, "build", 8},
}

func weaveSystemPairs(ctx *generator.GenerationContext) error {
	systems := ctx.Of(model.TypeSystem)
	if len(systems) < 2 {
		return nil
	}
	for i, src := range systems {
		for _, rel := range systemPairRel {
			if i%rel.chance != 0 {
				continue
			}
			tgt := systems[ctx.Rng.Intn(len(systems))]
			if tgt.ID == src.ID {
				continue
			}
			if err := emit(ctx, rel.typ, src, tgt,
				randomWeight(ctx, 0.5, 1.0), randomConfidence(ctx, bandDependency),
				map[string]string{"dependency_type": rel.tag}); err != nil {
				return err
			}
		}
	}
	return nil
}

// weaveIntegrationEdges turns each generated integration entity into the
// provides_data_to/consumes_data_from edges it represents (its
// source_system_id/target_system_id were set directly by the generator,
// both systems existing in the same L02 layer).
func weaveIntegrationEdges(ctx *generator.GenerationContext) error {
	systems := byID(ctx.Of(model.TypeSystem))
	for _, integ := range ctx.Of(model.TypeIntegration) {
		src, srcOK := systems[integ.GetString("source_system_id")]
		tgt, tgtOK := systems[integ.GetString("target_system_id")]
		if !srcOK || !tgtOK {
			continue
		}
		props := map[string]string{"integration_type": integ.GetString("integration_type"), "protocol": integ.GetString("protocol")}
		if err := emit(ctx, model.RelProvidesDataTo, integ, tgt,
			randomWeight(ctx, 0.6, 1.0), randomConfidence(ctx, bandDependency), props); err != nil {
			return err
		}
		if err := emit(ctx, model.RelConsumesDataFrom, integ, src,
			randomWeight(ctx, 0.6, 1.0), randomConfidence(ctx, bandDependency), props); err != nil {
			return err
		}
	}
	return nil
}

// weaveHostedAt places every system at a random site; the mirror sweep
// later derives system.hosted_at_site from these edges.
func weaveHostedAt(ctx *generator.GenerationContext) error {
	sites := ctx.Of(model.TypeSite)
	if len(sites) == 0 {
		return nil
	}
	for _, sys := range ctx.Of(model.TypeSystem) {
		site := sites[ctx.Rng.Intn(len(sites))]
		if err := emit(ctx, model.RelHostedAt, sys, site,
			randomWeight(ctx, 0.8, 1.0), randomConfidence(ctx, bandOrganisational),
			map[string]string{"hosting_type": sys.GetString("hosting_type")}); err != nil {
			return err
		}
	}
	return nil
}

// weaveDataAccess wires stores and processes (system -> data_asset).
func weaveDataAccess(ctx *generator.GenerationContext) error {
	systems := ctx.Of(model.TypeSystem)
	assets := ctx.Of(model.TypeDataAsset)
	if len(systems) == 0 || len(assets) == 0 {
		return nil
	}
	for i, asset := range assets {
		sys := systems[i%len(systems)]
		if err := emit(ctx, model.RelStores, sys, asset,
			randomWeight(ctx, 0.7, 1.0), randomConfidence(ctx, bandDependency),
			map[string]string{"classification": asset.GetString("classification")}); err != nil {
			return err
		}
		if i%2 == 0 {
			processor := systems[(i+1)%len(systems)]
			if err := emit(ctx, model.RelProcesses, processor, asset,
				randomWeight(ctx, 0.6, 0.9), randomConfidence(ctx, bandDependency),
				map[string]string{"operation": "read_write"}); err != nil {
				return err
			}
		}
	}
	return nil
}
