package weaver

import (
	"github.com/emergent-company/orgtwin/internal/generator"
	"github.com/emergent-company/orgtwin/internal/model"
)

// weaveGeography wires site_in (mirroring the generator's site.location_id),
// part_of_geography, under_jurisdiction, regulated_by, and located_in
// (department -> site). regulated_by also resolves the
// regulation.jurisdiction_id forward reference (regulation is L01,
// jurisdiction is L07).
func weaveGeography(ctx *generator.GenerationContext) error {
	if err := weaveSiteHierarchy(ctx); err != nil {
		return err
	}
	if err := weaveRegulatedBy(ctx); err != nil {
		return err
	}
	return weaveDepartmentSites(ctx)
}

func weaveSiteHierarchy(ctx *generator.GenerationContext) error {
	locations := byID(ctx.Of(model.TypeLocation))
	geographies := ctx.Of(model.TypeGeography)
	jurisdictions := ctx.Of(model.TypeJurisdiction)

	for i, site := range ctx.Of(model.TypeSite) {
		if loc, ok := locations[site.GetString("location_id")]; ok {
			if err := emit(ctx, model.RelSiteIn, site, loc,
				randomWeight(ctx, 0.9, 1.0), randomConfidence(ctx, bandOrganisational),
				map[string]string{"site_type": site.GetString("site_type")}); err != nil {
				return err
			}
		}
		if len(geographies) > 0 {
			geo := geographies[i%len(geographies)]
			if err := emit(ctx, model.RelPartOfGeography, site, geo,
				randomWeight(ctx, 0.8, 1.0), randomConfidence(ctx, bandOrganisational),
				map[string]string{"region": geo.GetString("region")}); err != nil {
				return err
			}
		}
		if len(jurisdictions) > 0 {
			j := jurisdictions[i%len(jurisdictions)]
			if err := emit(ctx, model.RelUnderJurisdiction, site, j,
				randomWeight(ctx, 0.8, 1.0), randomConfidence(ctx, bandOrganisational),
				map[string]string{"regulatory_body": j.GetString("regulatory_body")}); err != nil {
				return err
			}
		}
	}
	return nil
}

func weaveRegulatedBy(ctx *generator.GenerationContext) error {
	jurisdictions := ctx.Of(model.TypeJurisdiction)
	regulations := ctx.Of(model.TypeRegulation)
	if len(jurisdictions) == 0 {
		return nil
	}
	for i, reg := range regulations {
		j := jurisdictions[i%len(jurisdictions)]
		if err := emit(ctx, model.RelRegulatedBy, j, reg,
			randomWeight(ctx, 0.85, 1.0), randomConfidence(ctx, bandOrganisational),
			map[string]string{"category": reg.GetString("category")}); err != nil {
			return err
		}
		if _, err := ctx.Engine.UpdateEntity(reg.ID, map[string]any{"jurisdiction_id": j.ID}); err != nil {
			return err
		}
	}
	return nil
}

func weaveDepartmentSites(ctx *generator.GenerationContext) error {
	sites := ctx.Of(model.TypeSite)
	if len(sites) == 0 {
		return nil
	}
	for i, dept := range ctx.Of(model.TypeDepartment) {
		site := sites[i%len(sites)]
		if err := emit(ctx, model.RelLocatedIn, dept, site,
			randomWeight(ctx, 0.8, 1.0), randomConfidence(ctx, bandOrganisational),
			map[string]string{"primary": "true"}); err != nil {
			return err
		}
	}
	return nil
}
