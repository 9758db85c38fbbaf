package weaver

import (
	"github.com/emergent-company/orgtwin/internal/generator"
	"github.com/emergent-company/orgtwin/internal/model"
)

// weaveOrgStructure wires the people/department/role skeleton: works_in,
// manages, holds_role, has_role, reports_to, belongs_to, located_at,
// approves, audits, escalates_to, owns, sponsors.
func weaveOrgStructure(ctx *generator.GenerationContext) error {
	if err := weaveWorksIn(ctx); err != nil {
		return err
	}
	if err := weaveManages(ctx); err != nil {
		return err
	}
	if err := weaveHoldsRoleAndHasRole(ctx); err != nil {
		return err
	}
	if err := weaveReportsTo(ctx); err != nil {
		return err
	}
	if err := weaveBelongsTo(ctx); err != nil {
		return err
	}
	if err := weaveLocatedAt(ctx); err != nil {
		return err
	}
	if err := weaveApproves(ctx); err != nil {
		return err
	}
	if err := weaveAudits(ctx); err != nil {
		return err
	}
	if err := weaveEscalatesTo(ctx); err != nil {
		return err
	}
	if err := weaveOwns(ctx); err != nil {
		return err
	}
	return weaveSponsors(ctx)
}

func weaveWorksIn(ctx *generator.GenerationContext) error {
	depts := byID(ctx.Of(model.TypeDepartment))
	for _, p := range ctx.Of(model.TypePerson) {
		dept, ok := depts[p.GetString("department_id")]
		if !ok {
			continue
		}
		if err := emit(ctx, model.RelWorksIn, p, dept,
			randomWeight(ctx, 0.8, 1.0), randomConfidence(ctx, bandOrganisational),
			map[string]string{"assignment": "primary"}); err != nil {
			return err
		}
	}
	return nil
}

// weaveManages picks, for every department, the person holding its
// "<Dept> Manager" role (created by the generator with is_management=true)
// and has them manage both the department and the other people in it.
func weaveManages(ctx *generator.GenerationContext) error {
	peopleByDept := make(map[string][]*model.Entity)
	for _, p := range ctx.Of(model.TypePerson) {
		peopleByDept[p.GetString("department_id")] = append(peopleByDept[p.GetString("department_id")], p)
	}
	depts := byID(ctx.Of(model.TypeDepartment))

	for _, r := range ctx.Of(model.TypeRole) {
		isManagement, _ := r.Get("is_management")
		if isManagement != true {
			continue
		}
		dept, ok := depts[r.GetString("department_id")]
		if !ok {
			continue
		}
		managers := findPersonsByRole(ctx, r.ID)
		if len(managers) == 0 {
			continue
		}
		manager := managers[0]
		if err := emit(ctx, model.RelManages, manager, dept,
			randomWeight(ctx, 0.9, 1.0), randomConfidence(ctx, bandOrganisational),
			map[string]string{"scope": "department"}); err != nil {
			return err
		}
		for _, report := range peopleByDept[dept.ID] {
			if report.ID == manager.ID {
				continue
			}
			if err := emit(ctx, model.RelManages, manager, report,
				randomWeight(ctx, 0.8, 1.0), randomConfidence(ctx, bandOrganisational),
				map[string]string{"scope": "direct_report"}); err != nil {
				return err
			}
		}
	}
	return nil
}

func findPersonsByRole(ctx *generator.GenerationContext, roleID string) []*model.Entity {
	var out []*model.Entity
	for _, p := range ctx.Of(model.TypePerson) {
		if p.GetString("role_id") == roleID {
			out = append(out, p)
		}
	}
	return out
}

func weaveHoldsRoleAndHasRole(ctx *generator.GenerationContext) error {
	roles := byID(ctx.Of(model.TypeRole))
	depts := byID(ctx.Of(model.TypeDepartment))
	for _, r := range ctx.Of(model.TypeRole) {
		dept, ok := depts[r.GetString("department_id")]
		if !ok {
			continue
		}
		if err := emit(ctx, model.RelHasRole, dept, r,
			randomWeight(ctx, 0.9, 1.0), randomConfidence(ctx, bandOrganisational),
			map[string]string{"establishment": "headcount_plan"}); err != nil {
			return err
		}
	}
	for _, p := range ctx.Of(model.TypePerson) {
		role, ok := roles[p.GetString("role_id")]
		if !ok {
			continue
		}
		if err := emit(ctx, model.RelHoldsRole, p, role,
			randomWeight(ctx, 0.9, 1.0), randomConfidence(ctx, bandOrganisational),
			map[string]string{"seniority": p.GetString("seniority")}); err != nil {
			return err
		}
	}
	return nil
}

// weaveReportsTo chains non-management roles to the department's manager
// role, and subdivided departments' manager roles up to the parent
// department's manager role.
func weaveReportsTo(ctx *generator.GenerationContext) error {
	managerRoleByDept := make(map[string]*model.Entity)
	for _, r := range ctx.Of(model.TypeRole) {
		if v, _ := r.Get("is_management"); v == true {
			managerRoleByDept[r.GetString("department_id")] = r
		}
	}
	for _, r := range ctx.Of(model.TypeRole) {
		if v, _ := r.Get("is_management"); v == true {
			continue
		}
		manager, ok := managerRoleByDept[r.GetString("department_id")]
		if !ok || manager.ID == r.ID {
			continue
		}
		if err := emit(ctx, model.RelReportsTo, r, manager,
			randomWeight(ctx, 0.85, 1.0), randomConfidence(ctx, bandOrganisational),
			map[string]string{"chain": "department_manager"}); err != nil {
			return err
		}
	}
	for _, dept := range ctx.Of(model.TypeDepartment) {
		parentID := dept.GetString("parent_department_id")
		if parentID == "" {
			continue
		}
		subManager, subOK := managerRoleByDept[dept.ID]
		parentManager, parentOK := managerRoleByDept[parentID]
		if subOK && parentOK {
			if err := emit(ctx, model.RelReportsTo, subManager, parentManager,
				randomWeight(ctx, 0.9, 1.0), randomConfidence(ctx, bandOrganisational),
				map[string]string{"chain": "subdivision_rollup"}); err != nil {
				return err
			}
		}
	}
	return nil
}

func weaveBelongsTo(ctx *generator.GenerationContext) error {
	units := ctx.Of(model.TypeOrganizationalUnit)
	if len(units) == 0 {
		return nil
	}
	for _, dept := range ctx.Of(model.TypeDepartment) {
		unit := units[ctx.Rng.Intn(len(units))]
		if err := emit(ctx, model.RelBelongsTo, dept, unit,
			randomWeight(ctx, 0.7, 0.95), randomConfidence(ctx, bandOrganisational),
			map[string]string{"grouping": unit.GetString("unit_type")}); err != nil {
			return err
		}
	}
	return nil
}

// weaveLocatedAt assigns each person to a random location; the mirror
// sweep later denormalises this onto person.located_at.
func weaveLocatedAt(ctx *generator.GenerationContext) error {
	locations := ctx.Of(model.TypeLocation)
	if len(locations) == 0 {
		return nil
	}
	for _, p := range ctx.Of(model.TypePerson) {
		loc := locations[ctx.Rng.Intn(len(locations))]
		if err := emit(ctx, model.RelLocatedAt, p, loc,
			randomWeight(ctx, 0.8, 1.0), randomConfidence(ctx, bandOrganisational),
			map[string]string{"basis": "home_office"}); err != nil {
			return err
		}
	}
	return nil
}

// weaveApproves has each department's manager role approve a handful of
// policies.
func weaveApproves(ctx *generator.GenerationContext) error {
	policies := ctx.Of(model.TypePolicy)
	if len(policies) == 0 {
		return nil
	}
	for _, r := range ctx.Of(model.TypeRole) {
		if v, _ := r.Get("is_management"); v != true {
			continue
		}
		n := 1 + ctx.Rng.Intn(3)
		for i := 0; i < n && i < len(policies); i++ {
			p := policies[ctx.Rng.Intn(len(policies))]
			if err := emit(ctx, model.RelApproves, r, p,
				randomWeight(ctx, 0.85, 1.0), randomConfidence(ctx, bandOrganisational),
				map[string]string{"authority": "department_manager"}); err != nil {
				return err
			}
		}
	}
	return nil
}

// weaveAudits has a sample of controls audit departments.
func weaveAudits(ctx *generator.GenerationContext) error {
	depts := ctx.Of(model.TypeDepartment)
	controls := ctx.Of(model.TypeControl)
	if len(depts) == 0 || len(controls) == 0 {
		return nil
	}
	for i, c := range controls {
		if i%3 != 0 { // not every control audits a department
			continue
		}
		dept := depts[ctx.Rng.Intn(len(depts))]
		if err := emit(ctx, model.RelAudits, c, dept,
			randomWeight(ctx, 0.6, 0.9), randomConfidence(ctx, bandDependency),
			map[string]string{"cadence": "quarterly"}); err != nil {
			return err
		}
	}
	return nil
}

// weaveEscalatesTo routes every incident to a randomly chosen department.
func weaveEscalatesTo(ctx *generator.GenerationContext) error {
	depts := ctx.Of(model.TypeDepartment)
	incidents := ctx.Of(model.TypeIncident)
	if len(depts) == 0 {
		return nil
	}
	for _, inc := range incidents {
		dept := depts[ctx.Rng.Intn(len(depts))]
		if err := emit(ctx, model.RelEscalatesTo, inc, dept,
			weightFromSeverity(inc.GetString("severity")), randomConfidence(ctx, bandOrganisational),
			map[string]string{"severity": inc.GetString("severity")}); err != nil {
			return err
		}
	}
	return nil
}

// weaveOwns assigns a random owning department to systems, data assets,
// business capabilities, and products, resolving each kind's
// owner_department_id forward reference at the same time.
func weaveOwns(ctx *generator.GenerationContext) error {
	depts := ctx.Of(model.TypeDepartment)
	if len(depts) == 0 {
		return nil
	}
	ownable := [][]*model.Entity{
		ctx.Of(model.TypeSystem), ctx.Of(model.TypeDataAsset),
		ctx.Of(model.TypeBusinessCapability), ctx.Of(model.TypeProduct),
	}
	for _, group := range ownable {
		for _, e := range group {
			if e.GetString("owner_department_id") != "" {
				continue // already assigned (e.g. by generator when it had departments available)
			}
			dept := depts[ctx.Rng.Intn(len(depts))]
			if err := emit(ctx, model.RelOwns, dept, e,
				randomWeight(ctx, 0.85, 1.0), randomConfidence(ctx, bandOrganisational),
				map[string]string{"ownership": "operational"}); err != nil {
				return err
			}
			if _, err := ctx.Engine.UpdateEntity(e.ID, map[string]any{"owner_department_id": dept.ID}); err != nil {
				return err
			}
		}
	}

	// data_domain uses a differently-named owner field.
	for _, dd := range ctx.Of(model.TypeDataDomain) {
		dept := depts[ctx.Rng.Intn(len(depts))]
		if _, err := ctx.Engine.UpdateEntity(dd.ID, map[string]any{"domain_owner_department_id": dept.ID}); err != nil {
			return err
		}
	}
	// policy.owner_department_id is a forward reference left unset by the
	// generator (policy is L01, department is L04). RelOwns' target set
	// does not include policy, so governs — the catalog's actual
	// policy<->department relationship — carries the edge; the steward
	// field is set directly alongside it.
	for _, p := range ctx.Of(model.TypePolicy) {
		dept := depts[ctx.Rng.Intn(len(depts))]
		if err := emit(ctx, model.RelGoverns, p, dept,
			randomWeight(ctx, 0.8, 1.0), randomConfidence(ctx, bandOrganisational),
			map[string]string{"enforcement": p.GetString("enforcement")}); err != nil {
			return err
		}
		if _, err := ctx.Engine.UpdateEntity(p.ID, map[string]any{"owner_department_id": dept.ID}); err != nil {
			return err
		}
	}
	return nil
}

func weaveSponsors(ctx *generator.GenerationContext) error {
	depts := byID(ctx.Of(model.TypeDepartment))
	for _, init := range ctx.Of(model.TypeInitiative) {
		dept, ok := depts[init.GetString("sponsor_department_id")]
		if !ok {
			continue
		}
		if err := emit(ctx, model.RelSponsors, dept, init,
			randomWeight(ctx, 0.85, 1.0), randomConfidence(ctx, bandOrganisational),
			map[string]string{"commitment": "executive_sponsor"}); err != nil {
			return err
		}
	}
	return nil
}

func byID(entities []*model.Entity) map[string]*model.Entity {
	out := make(map[string]*model.Entity, len(entities))
	for _, e := range entities {
		out[e.ID] = e
	}
	return out
}
