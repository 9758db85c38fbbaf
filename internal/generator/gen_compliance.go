package generator

import (
	"fmt"
	"strings"

	"github.com/emergent-company/orgtwin/internal/model"
)

// Forward-referencing ID fields declared on L01 kinds (policy's
// owner_department_id, regulation's jurisdiction_id, vulnerability's
// affected_system_id, incident's affected_system_ids) name entities that
// don't exist until a later layer. The generators below leave those
// fields unset; the weaver (C5) sets them once the referenced layer has
// run, alongside the relationship edge that makes the same fact
// traversable (invariant 8: the weaver only runs after every generator
// layer completes).

var policyTypes = []string{"data_retention", "access_control", "acceptable_use", "incident_response", "vendor_risk", "change_management"}
var enforcementLevels = []string{"mandatory", "recommended"}

var regulationCatalog = []struct{ code, category string }{
	{"GDPR", "privacy"}, {"HIPAA", "privacy"}, {"PCI-DSS", "payments"},
	{"SOX", "financial_reporting"}, {"GLBA", "financial_privacy"}, {"CCPA", "privacy"},
	{"NIST-800-53", "security"}, {"ISO-27001", "security"}, {"FISMA", "security"},
	{"Basel-III", "financial_reporting"},
}

var controlFamilies = []struct{ controlType, family string }{
	{"preventive", "access_control"}, {"detective", "monitoring"},
	{"corrective", "incident_response"}, {"preventive", "encryption"},
	{"detective", "logging"}, {"administrative", "training"},
}
var automationLevels = []string{"manual", "semi_automated", "automated"}

var riskCategories = []string{"operational", "cyber", "compliance", "financial", "reputational", "third_party"}

var threatCategories = []string{"phishing", "ransomware", "insider_threat", "supply_chain", "ddos", "credential_theft"}

func runCompliance(ctx *GenerationContext) error {
	if err := genPolicies(ctx); err != nil {
		return err
	}
	if err := genRegulations(ctx); err != nil {
		return err
	}
	if err := genControls(ctx); err != nil {
		return err
	}
	if err := genRisks(ctx); err != nil {
		return err
	}
	if err := genThreats(ctx); err != nil {
		return err
	}
	if err := genThreatActors(ctx); err != nil {
		return err
	}
	if err := genVulnerabilities(ctx); err != nil {
		return err
	}
	return genIncidents(ctx)
}

func genPolicies(ctx *GenerationContext) error {
	count := ctx.Count(model.TypePolicy)
	entities := make([]*model.Entity, 0, count)
	for i := 0; i < count; i++ {
		pType := pick(ctx.Rng, policyTypes)
		e := model.NewEntity(model.TypePolicy, fmt.Sprintf("%s Policy %d", titleCase(pType), i+1))
		e.Description = fmt.Sprintf("Governs %s practices across the organisation.", humanize(pType))
		setAll(e, map[string]any{
			"policy_type":    pType,
			"enforcement":    pick(ctx.Rng, enforcementLevels),
			"effective_date": fmt.Sprintf("20%02d-01-01", 20+ctx.Rng.Intn(5)),
		})
		entities = append(entities, e)
	}
	return ctx.Commit(entities)
}

func genRegulations(ctx *GenerationContext) error {
	count := ctx.Count(model.TypeRegulation)
	entities := make([]*model.Entity, 0, count)
	for i := 0; i < count; i++ {
		reg := regulationCatalog[i%len(regulationCatalog)]
		e := model.NewEntity(model.TypeRegulation, fmt.Sprintf("%s Compliance Program %d", reg.code, i+1))
		e.Description = fmt.Sprintf("Tracks %s obligations applicable to the organisation.", reg.code)
		setAll(e, map[string]any{
			"regulation_code": reg.code,
			"category":        reg.category,
		})
		entities = append(entities, e)
	}
	return ctx.Commit(entities)
}

func genControls(ctx *GenerationContext) error {
	count := ctx.Count(model.TypeControl)
	entities := make([]*model.Entity, 0, count)
	for i := 0; i < count; i++ {
		cf := controlFamilies[i%len(controlFamilies)]
		e := model.NewEntity(model.TypeControl, fmt.Sprintf("%s Control %d", titleCase(cf.family), i+1))
		e.Description = fmt.Sprintf("A %s control in the %s family.", cf.controlType, cf.family)
		setAll(e, map[string]any{
			"control_type":     cf.controlType,
			"control_family":   cf.family,
			"automation_level": pick(ctx.Rng, automationLevels),
		})
		entities = append(entities, e)
	}
	return ctx.Commit(entities)
}

func genRisks(ctx *GenerationContext) error {
	count := ctx.Count(model.TypeRisk)
	entities := make([]*model.Entity, 0, count)
	for i := 0; i < count; i++ {
		likelihood := pickRisk(ctx.Rng)
		impact := pickRisk(ctx.Rng)
		inherent := model.InherentLevel(likelihood, impact)
		category := pick(ctx.Rng, riskCategories)
		e := model.NewEntity(model.TypeRisk, fmt.Sprintf("%s Risk %d", titleCase(category), i+1))
		e.Description = fmt.Sprintf("A %s risk with %s likelihood and %s impact.", category, likelihood, impact)
		setAll(e, map[string]any{
			"likelihood":          string(likelihood),
			"impact":              string(impact),
			"inherent_risk_level": string(inherent),
			// residual is provisional here; the weaver lowers it once
			// mitigating controls are woven in and recomputes the delta.
			"residual_risk_level": string(inherent),
			"category":            category,
		})
		entities = append(entities, e)
	}
	return ctx.Commit(entities)
}

func genThreats(ctx *GenerationContext) error {
	count := ctx.Count(model.TypeThreat)
	entities := make([]*model.Entity, 0, count)
	for i := 0; i < count; i++ {
		cat := pick(ctx.Rng, threatCategories)
		e := model.NewEntity(model.TypeThreat, fmt.Sprintf("%s Threat %d", titleCase(cat), i+1))
		e.Description = fmt.Sprintf("A %s threat pattern tracked by the security team.", humanize(cat))
		setAll(e, map[string]any{
			"threat_category": cat,
			"severity":        pick(ctx.Rng, severities),
		})
		entities = append(entities, e)
	}
	return ctx.Commit(entities)
}

func genThreatActors(ctx *GenerationContext) error {
	entities := make([]*model.Entity, 0, len(threatActorTemplates))
	for _, t := range threatActorTemplates {
		e := model.NewEntity(model.TypeThreatActor, t.Name)
		e.Description = fmt.Sprintf("Tracked actor with %s sophistication, motivated by %s.", t.Sophistication, t.Motivation)
		setAll(e, map[string]any{
			"sophistication": t.Sophistication,
			"motivation":     t.Motivation,
			"origin_country": t.OriginCountry,
		})
		entities = append(entities, e)
	}
	return ctx.Commit(entities)
}

var vulnStatuses = []string{"open", "mitigating", "patched", "accepted_risk"}

// genVulnerabilities is a derived generator (spec.md §4.2): its count is
// not drawn from scaledRange but anticipates one vulnerability per
// planned system, using the scaling model's own count formula ahead of
// the technology layer actually running.
func genVulnerabilities(ctx *GenerationContext) error {
	plannedSystems := ctx.Count(model.TypeSystem)
	count := plannedSystems
	if count < 5 {
		count = 5
	}
	entities := make([]*model.Entity, 0, count)
	for i := 0; i < count; i++ {
		status := pick(ctx.Rng, vulnStatuses)
		severity := pick(ctx.Rng, severities)
		e := model.NewEntity(model.TypeVulnerability, fmt.Sprintf("CVE Finding %d", i+1))
		e.Description = fmt.Sprintf("A %s-severity finding currently %s.", severity, status)
		setAll(e, map[string]any{
			"cve_id":          fmt.Sprintf("CVE-20%02d-%05d", 20+ctx.Rng.Intn(5), 10000+ctx.Rng.Intn(89999)),
			"severity":        severity,
			"status":          status,
			"patch_available": status == "patched" || status == "mitigating",
		})
		entities = append(entities, e)
	}
	return ctx.Commit(entities)
}

func genIncidents(ctx *GenerationContext) error {
	count := ctx.Count(model.TypeIncident)
	entities := make([]*model.Entity, 0, count)
	for i := 0; i < count; i++ {
		severity := pick(ctx.Rng, severities)
		e := model.NewEntity(model.TypeIncident, fmt.Sprintf("Security Incident %d", i+1))
		e.Description = fmt.Sprintf("A %s-severity incident under investigation.", severity)
		setAll(e, map[string]any{
			"severity":    severity,
			"status":      pick(ctx.Rng, []string{"open", "contained", "resolved"}),
			"detected_at": fmt.Sprintf("20%02d-%02d-%02d", 22+ctx.Rng.Intn(3), 1+ctx.Rng.Intn(12), 1+ctx.Rng.Intn(28)),
		})
		entities = append(entities, e)
	}
	return ctx.Commit(entities)
}

func titleCase(s string) string {
	words := splitWords(humanize(s))
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func splitWords(s string) []string {
	return strings.Fields(s)
}

func humanize(s string) string {
	return strings.NewReplacer("_", " ", "-", " ").Replace(s)
}
