package generator

import (
	"fmt"

	"github.com/emergent-company/orgtwin/internal/model"
)

var orgUnitTypes = []string{"division", "region", "business_unit"}

func runOrganization(ctx *GenerationContext) error {
	if err := genDepartments(ctx); err != nil {
		return err
	}
	return genOrganizationalUnits(ctx)
}

// genDepartments allocates the profile's employee count across the
// industry's root department templates, then subdivides any root whose
// headcount exceeds 500 (spec.md §4.3 "Department subdivision").
// Department is a derived kind: its count and headcount come from this
// allocation, never from scaledRange (spec.md §4.2).
func genDepartments(ctx *GenerationContext) error {
	templates := DepartmentTemplatesFor(string(ctx.Profile.Industry))
	if len(templates) == 0 {
		return nil
	}
	shares := allocateHeadcount(ctx.Profile.EmployeeCount, len(templates))

	entities := make([]*model.Entity, 0, len(templates)*4)
	for i, tmpl := range templates {
		headcount := shares[i]
		root := model.NewEntity(model.TypeDepartment, tmpl.Name)
		root.Description = fmt.Sprintf("The %s department, headcount %d.", tmpl.Name, headcount)
		setAll(root, map[string]any{
			"headcount":   float64(headcount),
			"cost_center": tmpl.CostCenter,
		})
		entities = append(entities, root)
		ctx.DepartmentRoleCatalog[root.ID] = tmpl.Roles

		if headcount <= 500 {
			continue
		}
		subs := SubdivisionsFor(string(ctx.Profile.Industry), tmpl.Name)
		if len(subs) == 0 {
			continue
		}
		n := headcount / 300
		if n < 2 {
			n = 2
		}
		if n > len(subs) {
			n = len(subs)
		}
		parentHeadcount := int(float64(headcount) * 0.03)
		if err := root.Set("headcount", float64(parentHeadcount)); err != nil {
			return err
		}
		delete(ctx.DepartmentRoleCatalog, root.ID) // root no longer a leaf once subdivided
		remaining := headcount - parentHeadcount
		perSub := remaining / n
		leftover := remaining - perSub*n
		for j := 0; j < n; j++ {
			subHeadcount := perSub
			if j == n-1 {
				subHeadcount += leftover
			}
			sub := model.NewEntity(model.TypeDepartment, subs[j])
			sub.Description = fmt.Sprintf("A sub-department of %s, headcount %d.", tmpl.Name, subHeadcount)
			setAll(sub, map[string]any{
				"headcount":            float64(subHeadcount),
				"cost_center":          fmt.Sprintf("%s-%d", tmpl.CostCenter, j+1),
				"parent_department_id": root.ID,
			})
			entities = append(entities, sub)
			ctx.DepartmentRoleCatalog[sub.ID] = tmpl.Roles
		}
	}
	return ctx.Commit(entities)
}

// allocateHeadcount splits total across n buckets with modest front-loaded
// weighting (earlier templates are larger functions, mirroring a typical
// org's engineering/sales-heavy shape) and exact remainder distribution.
func allocateHeadcount(total, n int) []int {
	if n == 0 {
		return nil
	}
	weights := make([]float64, n)
	sum := 0.0
	for i := range weights {
		w := 1.0 / float64(i+1)
		weights[i] = w
		sum += w
	}
	shares := make([]int, n)
	assigned := 0
	for i, w := range weights {
		shares[i] = int(float64(total) * w / sum)
		assigned += shares[i]
	}
	shares[0] += total - assigned
	for i := range shares {
		if shares[i] < 1 {
			shares[i] = 1
		}
	}
	return shares
}

func genOrganizationalUnits(ctx *GenerationContext) error {
	count := ctx.Count(model.TypeOrganizationalUnit)
	entities := make([]*model.Entity, 0, count)
	var prior *model.Entity
	for i := 0; i < count; i++ {
		uType := pick(ctx.Rng, orgUnitTypes)
		e := model.NewEntity(model.TypeOrganizationalUnit, fmt.Sprintf("%s Unit %d", titleCase(uType), i+1))
		e.Description = fmt.Sprintf("A %s-level organisational grouping.", uType)
		fields := map[string]any{"unit_type": uType}
		if prior != nil && uType != "division" {
			fields["parent_unit_id"] = prior.ID
		}
		setAll(e, fields)
		if uType == "division" {
			prior = e
		}
		entities = append(entities, e)
	}
	return ctx.Commit(entities)
}
