package generator

import (
	"fmt"
	"strings"

	"github.com/emergent-company/orgtwin/internal/model"
)

var classifications = []string{"public", "internal", "confidential", "restricted"}
var dataFrequencies = []string{"real_time", "hourly", "daily", "weekly"}

var dataDomainNames = []string{
	"Customer Data", "Financial Data", "Employee Data", "Product Telemetry",
	"Marketing Data", "Clinical Data", "Transaction Data", "Vendor Data",
}

func runData(ctx *GenerationContext) error {
	if err := genDataDomains(ctx); err != nil {
		return err
	}
	if err := genDataAssets(ctx); err != nil {
		return err
	}
	return genDataFlows(ctx)
}

func genDataDomains(ctx *GenerationContext) error {
	count := ctx.Count(model.TypeDataDomain)
	entities := make([]*model.Entity, 0, count)
	for i := 0; i < count; i++ {
		name := dataDomainNames[i%len(dataDomainNames)]
		e := model.NewEntity(model.TypeDataDomain, fmt.Sprintf("%s Domain", name))
		e.Description = fmt.Sprintf("The governance domain covering %s.", strings.ToLower(name))
		entities = append(entities, e)
	}
	return ctx.Commit(entities)
}

func genDataAssets(ctx *GenerationContext) error {
	domains := ctx.Of(model.TypeDataDomain)
	count := ctx.Count(model.TypeDataAsset)
	entities := make([]*model.Entity, 0, count)
	for i := 0; i < count; i++ {
		class := pick(ctx.Rng, classifications)
		e := model.NewEntity(model.TypeDataAsset, fmt.Sprintf("%s Dataset %d", titleCase(class), i+1))
		e.Description = fmt.Sprintf("A %s dataset retained per policy.", class)
		fields := map[string]any{
			"classification":  class,
			"retention_years": float64(1 + ctx.Rng.Intn(10)),
		}
		if len(domains) > 0 {
			fields["data_domain_id"] = domains[ctx.Rng.Intn(len(domains))].ID
		}
		setAll(e, fields)
		entities = append(entities, e)
	}
	return ctx.Commit(entities)
}

// genDataFlows wires the encryption↔classification correlation directly:
// restricted/confidential flows are always encrypted in transit
// (spec.md §4.3 "correlated fields", invariant 7).
func genDataFlows(ctx *GenerationContext) error {
	systems := ctx.Of(model.TypeSystem)
	assets := ctx.Of(model.TypeDataAsset)
	if len(systems) == 0 || len(assets) == 0 {
		return nil
	}
	count := ctx.Count(model.TypeDataFlow)
	entities := make([]*model.Entity, 0, count)
	for i := 0; i < count; i++ {
		class := pick(ctx.Rng, classifications)
		encrypted := class == "restricted" || class == "confidential"
		src := systems[ctx.Rng.Intn(len(systems))]
		tgt := assets[ctx.Rng.Intn(len(assets))]
		e := model.NewEntity(model.TypeDataFlow, fmt.Sprintf("%s Data Flow %d", titleCase(class), i+1))
		e.Description = fmt.Sprintf("A %s-classified data flow from %s.", class, src.Name)
		setAll(e, map[string]any{
			"classification":         class,
			"encryption_in_transit":  encrypted,
			"source_id":              src.ID,
			"target_id":              tgt.ID,
			"frequency":              pick(ctx.Rng, dataFrequencies),
		})
		entities = append(entities, e)
	}
	return ctx.Commit(entities)
}
