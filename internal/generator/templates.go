package generator

import (
	"embed"

	"gopkg.in/yaml.v3"
)

//go:embed templates/systems.yaml
var systemsYAML []byte

//go:embed templates/threat_actors.yaml
var threatActorsYAML []byte

//go:embed templates/departments.yaml
var departmentsYAML []byte

//go:embed templates/department_subdivisions.yaml
var departmentSubdivisionsYAML []byte

var _ embed.FS // keep the embed import meaningful if file set grows

// SystemTemplate is one coordinated bundle for system generation: name,
// OS, tech stack, criticality, hosting, and description together (spec.md
// §4.3 "Coordinated templates").
type SystemTemplate struct {
	NamePrefix          string   `yaml:"name_prefix"`
	OS                  string   `yaml:"os"`
	TechStack           []string `yaml:"tech_stack"`
	Criticality         string   `yaml:"criticality"`
	HostingType         string   `yaml:"hosting_type"`
	ApplianceType       string   `yaml:"appliance_type"`
	DescriptionTemplate string   `yaml:"description_template"`
}

// ThreatActorTemplate hard-codes attribution for one of the twelve named
// APT actors (spec.md §4.3 "Deterministic derivations").
type ThreatActorTemplate struct {
	Name           string `yaml:"name"`
	Sophistication string `yaml:"sophistication"`
	Motivation     string `yaml:"motivation"`
	OriginCountry  string `yaml:"origin_country"`
}

// DepartmentTemplate bundles a root department's name, cost-center prefix,
// and typical non-management role titles.
type DepartmentTemplate struct {
	Name       string   `yaml:"name"`
	CostCenter string   `yaml:"cost_center"`
	Roles      []string `yaml:"roles"`
}

var (
	systemTemplates             []SystemTemplate
	threatActorTemplates        []ThreatActorTemplate
	departmentTemplatesByIndustry       map[string][]DepartmentTemplate
	departmentSubdivisionsByIndustry    map[string]map[string][]string
)

func init() {
	mustUnmarshal(systemsYAML, &systemTemplates)
	mustUnmarshal(threatActorsYAML, &threatActorTemplates)
	mustUnmarshal(departmentsYAML, &departmentTemplatesByIndustry)
	mustUnmarshal(departmentSubdivisionsYAML, &departmentSubdivisionsByIndustry)
}

func mustUnmarshal(raw []byte, out any) {
	if err := yaml.Unmarshal(raw, out); err != nil {
		panic("generator: malformed embedded template: " + err.Error())
	}
}

// DepartmentTemplatesFor returns the root department bundles for an
// industry, falling back to technology for an unknown industry.
func DepartmentTemplatesFor(industry string) []DepartmentTemplate {
	if t, ok := departmentTemplatesByIndustry[industry]; ok {
		return t
	}
	return departmentTemplatesByIndustry["technology"]
}

// SubdivisionsFor returns the sub-department name list for a root
// department in an industry, or nil if no template set exists.
func SubdivisionsFor(industry, rootDepartmentName string) []string {
	set, ok := departmentSubdivisionsByIndustry[industry]
	if !ok {
		return nil
	}
	return set[rootDepartmentName]
}
