package generator

import (
	"fmt"

	"github.com/emergent-company/orgtwin/internal/model"
)

var portfolioNames = []string{"Core Platform", "Mobile Experience", "Enterprise Suite", "Data Products"}
var lifecycleStages = []string{"concept", "growth", "maturity", "sunset"}

func runProducts(ctx *GenerationContext) error {
	if err := genProductPortfolios(ctx); err != nil {
		return err
	}
	return genProducts(ctx)
}

func genProductPortfolios(ctx *GenerationContext) error {
	count := ctx.Count(model.TypeProductPortfolio)
	if count < 1 {
		count = 1
	}
	departments := ctx.Of(model.TypeDepartment)
	entities := make([]*model.Entity, 0, count)
	for i := 0; i < count; i++ {
		name := portfolioNames[i%len(portfolioNames)]
		e := model.NewEntity(model.TypeProductPortfolio, fmt.Sprintf("%s Portfolio", name))
		e.Description = fmt.Sprintf("The %s product portfolio.", name)
		fields := map[string]any{}
		if len(departments) > 0 {
			fields["owner_department_id"] = departments[ctx.Rng.Intn(len(departments))].ID
		}
		setAll(e, fields)
		entities = append(entities, e)
	}
	return ctx.Commit(entities)
}

func genProducts(ctx *GenerationContext) error {
	portfolios := ctx.Of(model.TypeProductPortfolio)
	if len(portfolios) == 0 {
		return nil
	}
	count := ctx.Count(model.TypeProduct)
	departments := ctx.Of(model.TypeDepartment)
	entities := make([]*model.Entity, 0, count)
	for i := 0; i < count; i++ {
		portfolio := portfolios[ctx.Rng.Intn(len(portfolios))]
		stage := pick(ctx.Rng, lifecycleStages)
		e := model.NewEntity(model.TypeProduct, fmt.Sprintf("%s Product %d", portfolio.Name[:len(portfolio.Name)-len(" Portfolio")], i+1))
		e.Description = fmt.Sprintf("A %s-stage product in the %s portfolio.", stage, portfolio.Name)
		fields := map[string]any{
			"portfolio_id":     portfolio.ID,
			"lifecycle_stage":  stage,
		}
		if len(departments) > 0 {
			fields["owner_department_id"] = departments[ctx.Rng.Intn(len(departments))].ID
		}
		setAll(e, fields)
		entities = append(entities, e)
	}
	return ctx.Commit(entities)
}
