package generator

import (
	"fmt"

	"github.com/emergent-company/orgtwin/internal/model"
)

var initiativeNames = []string{
	"Cloud Migration", "Zero Trust Rollout", "Data Platform Modernisation",
	"Customer 360 Initiative", "Cost Optimisation Program", "Vendor Consolidation",
}
var initiativeStatuses = []string{"proposed", "in_progress", "on_hold", "completed"}
var initiativePriorities = []string{"low", "medium", "high"}

func runInitiatives(ctx *GenerationContext) error {
	count := ctx.Count(model.TypeInitiative)
	if count < 1 {
		count = 1
	}
	departments := ctx.Of(model.TypeDepartment)
	entities := make([]*model.Entity, 0, count)
	for i := 0; i < count; i++ {
		name := initiativeNames[i%len(initiativeNames)]
		e := model.NewEntity(model.TypeInitiative, fmt.Sprintf("%s %d", name, i+1))
		e.Description = fmt.Sprintf("A strategic initiative: %s.", name)
		fields := map[string]any{
			"status":   pick(ctx.Rng, initiativeStatuses),
			"priority": pick(ctx.Rng, initiativePriorities),
		}
		if len(departments) > 0 {
			fields["sponsor_department_id"] = departments[ctx.Rng.Intn(len(departments))].ID
		}
		setAll(e, fields)
		entities = append(entities, e)
	}
	return ctx.Commit(entities)
}
