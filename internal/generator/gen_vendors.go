package generator

import (
	"fmt"

	"github.com/emergent-company/orgtwin/internal/model"
)

var vendorTypes = []string{"cloud_provider", "software_vendor", "consulting", "hardware_supplier", "payment_processor"}
var riskTiers = []string{"low", "medium", "high"}
var contractTypes = []string{"msa", "sow", "subscription", "license"}

func runVendors(ctx *GenerationContext) error {
	if err := genVendors(ctx); err != nil {
		return err
	}
	return genContracts(ctx)
}

func genVendors(ctx *GenerationContext) error {
	count := ctx.Count(model.TypeVendor)
	entities := make([]*model.Entity, 0, count)
	for i := 0; i < count; i++ {
		vType := pick(ctx.Rng, vendorTypes)
		e := model.NewEntity(model.TypeVendor, fmt.Sprintf("%s Vendor %d", titleCase(vType), i+1))
		e.Description = fmt.Sprintf("A %s vendor under third-party risk review.", humanize(vType))
		setAll(e, map[string]any{
			"vendor_type": vType,
			"risk_tier":   pick(ctx.Rng, riskTiers),
			"country":     pick(ctx.Rng, []string{"United States", "United Kingdom", "Germany", "India", "Singapore"}),
		})
		entities = append(entities, e)
	}
	return ctx.Commit(entities)
}

func genContracts(ctx *GenerationContext) error {
	vendors := ctx.Of(model.TypeVendor)
	if len(vendors) == 0 {
		return nil
	}
	count := ctx.Count(model.TypeContract)
	entities := make([]*model.Entity, 0, count)
	for i := 0; i < count; i++ {
		vendor := vendors[ctx.Rng.Intn(len(vendors))]
		cType := pick(ctx.Rng, contractTypes)
		e := model.NewEntity(model.TypeContract, fmt.Sprintf("%s %s %d", vendor.Name, titleCase(cType), i+1))
		e.Description = fmt.Sprintf("A %s contract with %s.", cType, vendor.Name)
		setAll(e, map[string]any{
			"vendor_id":     vendor.ID,
			"contract_type": cType,
			"start_date":    fmt.Sprintf("20%02d-01-01", 20+ctx.Rng.Intn(5)),
			"end_date":      fmt.Sprintf("20%02d-12-31", 25+ctx.Rng.Intn(5)),
			"value_usd":     float64(10_000 + ctx.Rng.Intn(990_000)),
		})
		entities = append(entities, e)
	}
	return ctx.Commit(entities)
}
