package generator

import (
	"fmt"
	"strings"

	"github.com/emergent-company/orgtwin/internal/model"
)

var capabilityNames = []string{
	"Customer Onboarding", "Order Fulfilment", "Risk Scoring", "Payments Processing",
	"Claims Adjudication", "Clinical Documentation", "Fraud Detection", "Supply Chain Visibility",
	"Workforce Planning", "Regulatory Reporting",
}
var maturityLevels = []string{"ad_hoc", "developing", "defined", "managed", "optimised"}

func runCapabilities(ctx *GenerationContext) error {
	count := ctx.Count(model.TypeBusinessCapability)
	departments := ctx.Of(model.TypeDepartment)
	entities := make([]*model.Entity, 0, count)
	for i := 0; i < count; i++ {
		name := capabilityNames[i%len(capabilityNames)]
		e := model.NewEntity(model.TypeBusinessCapability, fmt.Sprintf("%s Capability", name))
		e.Description = fmt.Sprintf("The organisation's ability to deliver %s.", strings.ToLower(name))
		fields := map[string]any{"maturity_level": pick(ctx.Rng, maturityLevels)}
		if len(departments) > 0 {
			fields["owner_department_id"] = departments[ctx.Rng.Intn(len(departments))].ID
		}
		setAll(e, fields)
		entities = append(entities, e)
	}
	return ctx.Commit(entities)
}
