package generator

import (
	"fmt"
	"strings"

	"github.com/emergent-company/orgtwin/internal/model"
)

var managementMarkers = []string{"Manager", "Director", "VP", "Chief"}

func isManagementTitle(title string) bool {
	for _, marker := range managementMarkers {
		if strings.Contains(title, marker) {
			return true
		}
	}
	return false
}

func runPeople(ctx *GenerationContext) error {
	if err := genRoles(ctx); err != nil {
		return err
	}
	return genPersons(ctx)
}

// genRoles expands each leaf department's role catalog per the headcount
// thresholds in spec.md §4.3 ("Role expansion"): >=500 adds Junior/
// Senior/Staff variants, >=300 adds Junior/Senior, >=100 adds Senior.
// Catalog titles and variants that carry a management marker
// (Manager/Director/VP/Chief*) are skipped, so each leaf department's only
// management role is its "<Dept> Manager" role. Role is a derived kind.
func genRoles(ctx *GenerationContext) error {
	ctx.roleAssignments = nil
	entities := make([]*model.Entity, 0, 64)
	departments := ctx.Of(model.TypeDepartment)
	for _, dept := range departments {
		titles, hasCatalog := ctx.DepartmentRoleCatalog[dept.ID]
		if !hasCatalog {
			continue // not a leaf department
		}
		headcount := int(dept.GetFloat("headcount"))

		managerTitle := fmt.Sprintf("%s Manager", dept.Name)
		entities = append(entities, newRole(ctx, dept, managerTitle, true, 1))

		for _, base := range titles {
			variants := []string{""}
			switch {
			case headcount >= 500:
				variants = []string{"", "Junior ", "Senior ", "Staff "}
			case headcount >= 300:
				variants = []string{"", "Junior ", "Senior "}
			case headcount >= 100:
				variants = []string{"", "Senior "}
			}
			for _, prefix := range variants {
				title := prefix + base
				if isManagementTitle(title) {
					continue
				}
				target := allocateRoleTarget(headcount, len(titles)*len(variants))
				entities = append(entities, newRole(ctx, dept, title, false, target))
			}
		}
	}
	return ctx.Commit(entities)
}

func allocateRoleTarget(deptHeadcount, roleSlotCount int) float64 {
	if roleSlotCount == 0 {
		return 1
	}
	target := deptHeadcount / roleSlotCount
	if target < 1 {
		target = 1
	}
	return float64(target)
}

func newRole(ctx *GenerationContext, dept *model.Entity, title string, isManagement bool, target float64) *model.Entity {
	e := model.NewEntity(model.TypeRole, title)
	e.Description = fmt.Sprintf("The %s role within %s.", title, dept.Name)
	setAll(e, map[string]any{
		"title":             title,
		"department_id":     dept.ID,
		"headcount_target":  target,
		"is_management":     isManagement,
	})
	ctx.roleAssignments = append(ctx.roleAssignments, &roleAssignment{
		entity: e, departmentID: dept.ID, seniority: seniorityOf(title),
	})
	return e
}

func seniorityOf(title string) string {
	switch {
	case strings.HasPrefix(title, "Junior "):
		return "junior"
	case strings.HasPrefix(title, "Senior "):
		return "senior"
	case strings.HasPrefix(title, "Staff "):
		return "staff"
	case isManagementTitle(title):
		return "management"
	default:
		return "mid"
	}
}

// genPersons distributes people across leaf departments proportionally to
// headcount, with remainder rounding, and assigns each person a role
// drawn from that department's generated roles (spec.md §4.3 "People
// distribution"). Person is a derived kind.
func genPersons(ctx *GenerationContext) error {
	rolesByDept := make(map[string][]*roleAssignment)
	for _, ra := range ctx.roleAssignments {
		rolesByDept[ra.departmentID] = append(rolesByDept[ra.departmentID], ra)
	}

	entities := make([]*model.Entity, 0, 256)
	for _, dept := range ctx.Of(model.TypeDepartment) {
		if _, isLeaf := ctx.DepartmentRoleCatalog[dept.ID]; !isLeaf {
			continue
		}
		headcount := int(dept.GetFloat("headcount"))
		roles := rolesByDept[dept.ID]
		if len(roles) == 0 || headcount <= 0 {
			continue
		}
		for i := 0; i < headcount; i++ {
			role := roles[ctx.Rng.Intn(len(roles))]
			name := randomPersonName(ctx.Rng)
			e := model.NewEntity(model.TypePerson, name)
			e.Description = fmt.Sprintf("%s on the %s team.", role.entity.GetString("title"), dept.Name)
			setAll(e, map[string]any{
				"title":         role.entity.GetString("title"),
				"email":         emailFor(name),
				"department_id": dept.ID,
				"role_id":       role.entity.ID,
				"seniority":     role.seniority,
			})
			entities = append(entities, e)
		}
	}
	return ctx.Commit(entities)
}

func emailFor(name string) string {
	parts := strings.Fields(strings.ToLower(name))
	if len(parts) < 2 {
		return strings.ToLower(name) + "@example.com"
	}
	return fmt.Sprintf("%s.%s@example.com", parts[0], parts[len(parts)-1])
}
