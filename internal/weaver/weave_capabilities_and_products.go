package weaver

import (
	"github.com/emergent-company/orgtwin/internal/generator"
	"github.com/emergent-company/orgtwin/internal/model"
)

// weaveCapabilitiesAndProducts wires enables (capability -> capability),
// supports_capability (system -> capability), offers (portfolio -> product),
// serves_segment and segmented_in (product/customer -> market_segment), and
// purchases (customer -> product).
func weaveCapabilitiesAndProducts(ctx *generator.GenerationContext) error {
	if err := weaveCapabilityHierarchy(ctx); err != nil {
		return err
	}
	if err := weaveProductCatalog(ctx); err != nil {
		return err
	}
	return weaveCustomers(ctx)
}

func weaveCapabilityHierarchy(ctx *generator.GenerationContext) error {
	caps := ctx.Of(model.TypeBusinessCapability)
	for i, c := range caps {
		if len(caps) < 2 {
			break
		}
		other := caps[(i+1)%len(caps)]
		if other.ID == c.ID {
			continue
		}
		if err := emit(ctx, model.RelEnables, c, other,
			randomWeight(ctx, 0.5, 0.9), randomConfidence(ctx, bandOrganisational),
			map[string]string{"maturity": c.GetString("maturity_level")}); err != nil {
			return err
		}
	}

	systems := ctx.Of(model.TypeSystem)
	if len(caps) == 0 {
		return nil
	}
	for i, sys := range systems {
		cap := caps[i%len(caps)]
		if err := emit(ctx, model.RelSupportsCapability, sys, cap,
			randomWeight(ctx, 0.6, 1.0), randomConfidence(ctx, bandDependency),
			map[string]string{"criticality": sys.GetString("criticality")}); err != nil {
			return err
		}
	}
	return nil
}

// weaveProductCatalog mirrors the generator's portfolio_id assignment as an
// offers edge, and spreads each product across a market segment.
func weaveProductCatalog(ctx *generator.GenerationContext) error {
	portfolios := byID(ctx.Of(model.TypeProductPortfolio))
	products := ctx.Of(model.TypeProduct)
	segments := ctx.Of(model.TypeMarketSegment)
	for i, p := range products {
		if portfolio, ok := portfolios[p.GetString("portfolio_id")]; ok {
			if err := emit(ctx, model.RelOffers, portfolio, p,
				randomWeight(ctx, 0.7, 1.0), randomConfidence(ctx, bandOrganisational),
				map[string]string{"lifecycle_stage": p.GetString("lifecycle_stage")}); err != nil {
				return err
			}
		}
		if len(segments) == 0 {
			continue
		}
		seg := segments[i%len(segments)]
		if err := emit(ctx, model.RelServesSegment, p, seg,
			randomWeight(ctx, 0.6, 1.0), randomConfidence(ctx, bandDependency),
			map[string]string{"region": seg.GetString("region")}); err != nil {
			return err
		}
	}
	return nil
}

// weaveCustomers mirrors the generator's segment_id assignment as a
// segmented_in edge, and spreads purchases across the product catalog.
func weaveCustomers(ctx *generator.GenerationContext) error {
	customers := ctx.Of(model.TypeCustomer)
	products := ctx.Of(model.TypeProduct)
	segments := byID(ctx.Of(model.TypeMarketSegment))
	for i, cust := range customers {
		if len(products) > 0 {
			p := products[i%len(products)]
			if err := emit(ctx, model.RelPurchases, cust, p,
				randomWeight(ctx, 0.5, 1.0), randomConfidence(ctx, bandDependency),
				map[string]string{"tier": cust.GetString("tier")}); err != nil {
				return err
			}
		}
		seg, ok := segments[cust.GetString("segment_id")]
		if !ok {
			continue
		}
		if err := emit(ctx, model.RelSegmentedIn, cust, seg,
			randomWeight(ctx, 0.8, 1.0), randomConfidence(ctx, bandOrganisational),
			map[string]string{"region": seg.GetString("region")}); err != nil {
			return err
		}
	}
	return nil
}
