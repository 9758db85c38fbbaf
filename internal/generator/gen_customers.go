package generator

import (
	"fmt"

	"github.com/emergent-company/orgtwin/internal/model"
)

var customerTiers = []string{"standard", "premium", "enterprise"}

func runCustomers(ctx *GenerationContext) error {
	if err := genMarketSegments(ctx); err != nil {
		return err
	}
	return genCustomers(ctx)
}

func genMarketSegments(ctx *GenerationContext) error {
	count := ctx.Count(model.TypeMarketSegment)
	if count < 1 {
		count = 1
	}
	entities := make([]*model.Entity, 0, count)
	for i := 0; i < count; i++ {
		region := pick(ctx.Rng, regions)
		e := model.NewEntity(model.TypeMarketSegment, fmt.Sprintf("%s Segment %d", region, i+1))
		e.Description = fmt.Sprintf("A customer segment concentrated in %s.", region)
		setAll(e, map[string]any{"region": region})
		entities = append(entities, e)
	}
	return ctx.Commit(entities)
}

func genCustomers(ctx *GenerationContext) error {
	segments := ctx.Of(model.TypeMarketSegment)
	if len(segments) == 0 {
		return nil
	}
	count := ctx.Count(model.TypeCustomer)
	entities := make([]*model.Entity, 0, count)
	for i := 0; i < count; i++ {
		segment := segments[ctx.Rng.Intn(len(segments))]
		tier := pick(ctx.Rng, customerTiers)
		e := model.NewEntity(model.TypeCustomer, fmt.Sprintf("Customer Account %d", i+1))
		e.Description = fmt.Sprintf("A %s-tier customer in the %s segment.", tier, segment.Name)
		setAll(e, map[string]any{
			"segment_id": segment.ID,
			"tier":       tier,
			"region":     segment.GetString("region"),
		})
		entities = append(entities, e)
	}
	return ctx.Commit(entities)
}
