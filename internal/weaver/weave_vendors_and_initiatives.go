package weaver

import (
	"sort"

	"github.com/emergent-company/orgtwin/internal/generator"
	"github.com/emergent-company/orgtwin/internal/model"
)

// weaveVendorsAndInitiatives wires supplies (vendor -> system/data_asset),
// contracted_under (mirroring the generator's vendor_id), succeeds
// (contract -> contract, a simple chronological chain per vendor), and
// impacts/delivers (initiative -> system/product/capability/risk).
func weaveVendorsAndInitiatives(ctx *generator.GenerationContext) error {
	if err := weaveVendorSupply(ctx); err != nil {
		return err
	}
	if err := weaveContractSuccession(ctx); err != nil {
		return err
	}
	return weaveInitiativeImpact(ctx)
}

func weaveVendorSupply(ctx *generator.GenerationContext) error {
	vendors := ctx.Of(model.TypeVendor)
	systems := ctx.Of(model.TypeSystem)
	assets := ctx.Of(model.TypeDataAsset)
	if len(vendors) == 0 {
		return nil
	}
	for i, v := range vendors {
		if len(systems) > 0 {
			sys := systems[i%len(systems)]
			if err := emit(ctx, model.RelSupplies, v, sys,
				randomWeight(ctx, 0.5, 0.9), randomConfidence(ctx, bandDependency),
				map[string]string{"risk_tier": v.GetString("risk_tier")}); err != nil {
				return err
			}
		}
		if len(assets) > 0 && i%3 == 0 {
			asset := assets[i%len(assets)]
			if err := emit(ctx, model.RelSupplies, v, asset,
				randomWeight(ctx, 0.4, 0.8), randomConfidence(ctx, bandDependency),
				map[string]string{"risk_tier": v.GetString("risk_tier")}); err != nil {
				return err
			}
		}
	}
	return nil
}

// weaveContractSuccession mirrors each contract's vendor_id as a
// contracted_under edge, then chains contracts sharing a vendor into a
// succeeds sequence ordered by start_date.
func weaveContractSuccession(ctx *generator.GenerationContext) error {
	vendors := byID(ctx.Of(model.TypeVendor))
	byVendor := map[string][]*model.Entity{}
	for _, c := range ctx.Of(model.TypeContract) {
		vendorID := c.GetString("vendor_id")
		v, ok := vendors[vendorID]
		if !ok {
			continue
		}
		if err := emit(ctx, model.RelContractedUnder, v, c,
			randomWeight(ctx, 0.8, 1.0), randomConfidence(ctx, bandOrganisational),
			map[string]string{"contract_type": c.GetString("contract_type")}); err != nil {
			return err
		}
		byVendor[vendorID] = append(byVendor[vendorID], c)
	}
	for _, contracts := range byVendor {
		sort.SliceStable(contracts, func(i, j int) bool {
			return contracts[i].GetString("start_date") < contracts[j].GetString("start_date")
		})
		for i := 1; i < len(contracts); i++ {
			if err := emit(ctx, model.RelSucceeds, contracts[i], contracts[i-1],
				randomWeight(ctx, 0.9, 1.0), randomConfidence(ctx, bandOrganisational),
				map[string]string{"renewal": "true"}); err != nil {
				return err
			}
		}
	}
	return nil
}

func weaveInitiativeImpact(ctx *generator.GenerationContext) error {
	initiatives := ctx.Of(model.TypeInitiative)
	systems := ctx.Of(model.TypeSystem)
	products := ctx.Of(model.TypeProduct)
	caps := ctx.Of(model.TypeBusinessCapability)
	risks := ctx.Of(model.TypeRisk)
	for i, init := range initiatives {
		if len(systems) > 0 {
			if err := emit(ctx, model.RelImpacts, init, systems[i%len(systems)],
				randomWeight(ctx, 0.5, 0.9), randomConfidence(ctx, bandOrganisational),
				map[string]string{"priority": init.GetString("priority")}); err != nil {
				return err
			}
		}
		if len(risks) > 0 && i%2 == 0 {
			if err := emit(ctx, model.RelImpacts, init, risks[i%len(risks)],
				randomWeight(ctx, 0.4, 0.8), randomConfidence(ctx, bandOrganisational),
				map[string]string{"priority": init.GetString("priority")}); err != nil {
				return err
			}
		}
		if len(caps) > 0 {
			if err := emit(ctx, model.RelDelivers, init, caps[i%len(caps)],
				randomWeight(ctx, 0.6, 1.0), randomConfidence(ctx, bandOrganisational),
				map[string]string{"status": init.GetString("status")}); err != nil {
				return err
			}
		}
		if len(products) > 0 && i%2 == 1 {
			if err := emit(ctx, model.RelDelivers, init, products[i%len(products)],
				randomWeight(ctx, 0.5, 0.9), randomConfidence(ctx, bandOrganisational),
				map[string]string{"status": init.GetString("status")}); err != nil {
				return err
			}
		}
	}
	return nil
}
