package generator

import (
	"fmt"

	"github.com/emergent-company/orgtwin/internal/model"
	"github.com/emergent-company/orgtwin/internal/scaling"
)

func siteCountFor(ctx *GenerationContext) int {
	return scaling.SiteCount(ctx.Profile, siteCeiling)
}

var siteTypes = []string{"office", "data_center", "warehouse", "retail_branch"}
var regions = []string{"North America", "EMEA", "APAC", "LATAM"}

// siteCeiling bounds the dynamic site-count formula (spec.md §4.2 step 5);
// the spec names the parameter but leaves its numeric value to the
// implementer.
const siteCeiling = 300

func runLocations(ctx *GenerationContext) error {
	if err := genSites(ctx); err != nil {
		return err
	}
	if err := genGeographies(ctx); err != nil {
		return err
	}
	return genJurisdictions(ctx)
}

func genSites(ctx *GenerationContext) error {
	locations := ctx.Of(model.TypeLocation)
	if len(locations) == 0 {
		return nil
	}
	count := siteCountFor(ctx)
	entities := make([]*model.Entity, 0, count)
	for i := 0; i < count; i++ {
		sType := pick(ctx.Rng, siteTypes)
		loc := locations[i%len(locations)]
		isDC := sType == "data_center"
		tier := "standard"
		if isDC {
			tier = "restricted"
		}
		e := model.NewEntity(model.TypeSite, fmt.Sprintf("%s %s %d", loc.GetString("city"), titleCase(sType), i+1))
		e.Description = fmt.Sprintf("A %s facility located at %s.", humanize(sType), loc.Name)
		setAll(e, map[string]any{
			"site_type":              sType,
			"location_id":            loc.ID,
			"physical_security_tier": tier,
			"is_data_center":         isDC,
		})
		entities = append(entities, e)
	}
	return ctx.Commit(entities)
}

func genGeographies(ctx *GenerationContext) error {
	entities := make([]*model.Entity, 0, len(regions))
	for _, region := range regions {
		e := model.NewEntity(model.TypeGeography, region)
		e.Description = fmt.Sprintf("The %s macro-region.", region)
		setAll(e, map[string]any{"region": region, "country": ""})
		entities = append(entities, e)
	}
	return ctx.Commit(entities)
}

var jurisdictionCatalog = []struct{ country, body string }{
	{"United States", "SEC"}, {"United Kingdom", "FCA"}, {"European Union", "EDPB"},
	{"Canada", "OSFI"}, {"Singapore", "MAS"}, {"Australia", "APRA"},
}

func genJurisdictions(ctx *GenerationContext) error {
	entities := make([]*model.Entity, 0, len(jurisdictionCatalog))
	for _, j := range jurisdictionCatalog {
		e := model.NewEntity(model.TypeJurisdiction, fmt.Sprintf("%s Jurisdiction", j.country))
		e.Description = fmt.Sprintf("Regulatory jurisdiction overseen by %s.", j.body)
		setAll(e, map[string]any{"country": j.country, "regulatory_body": j.body})
		entities = append(entities, e)
	}
	return ctx.Commit(entities)
}
