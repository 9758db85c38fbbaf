package model

import "fmt"

// FieldKind is the type a field's value must satisfy.
type FieldKind string

const (
	KindString      FieldKind = "string"
	KindFloat       FieldKind = "float"
	KindBool        FieldKind = "bool"
	KindID          FieldKind = "id"
	KindStringSlice FieldKind = "string_slice"
	KindIDSlice     FieldKind = "id_slice"
)

// FieldSpec declares one field (kind-specific or mirror) on an entity kind.
type FieldSpec struct {
	Name   string
	Kind   FieldKind
	Mirror bool // true if populated by the weaver rather than the generator
}

// Accepts reports whether value is an acceptable Go representation of spec.Kind.
func (spec FieldSpec) Accepts(value any) bool {
	switch spec.Kind {
	case KindString, KindID:
		_, ok := value.(string)
		return ok
	case KindFloat:
		switch value.(type) {
		case float64, int:
			return true
		}
		return false
	case KindBool:
		_, ok := value.(bool)
		return ok
	case KindStringSlice, KindIDSlice:
		switch v := value.(type) {
		case []string:
			return true
		case []any:
			for _, item := range v {
				if _, ok := item.(string); !ok {
					return false
				}
			}
			return true
		}
		return false
	default:
		return false
	}
}

// ValidationError reports a single field or relationship validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func f(name string) FieldSpec        { return FieldSpec{Name: name, Kind: KindFloat} }
func s(name string) FieldSpec        { return FieldSpec{Name: name, Kind: KindString} }
func id(name string) FieldSpec       { return FieldSpec{Name: name, Kind: KindID} }
func b(name string) FieldSpec        { return FieldSpec{Name: name, Kind: KindBool} }
func ss(name string) FieldSpec       { return FieldSpec{Name: name, Kind: KindStringSlice} }
func ids(name string) FieldSpec      { return FieldSpec{Name: name, Kind: KindIDSlice} }
func mirror(spec FieldSpec) FieldSpec { spec.Mirror = true; return spec }

// entitySchemas is the closed per-kind field declaration, generator fields
// and weaver-populated mirror fields together — the mirror-field set is
// fixed at compile time, never a dynamic extra (spec.md §3.2).
var entitySchemas = map[EntityType][]FieldSpec{
	TypeLocation: {s("address"), s("city"), s("country"), s("timezone"), b("is_headquarters")},

	TypePolicy:       {s("policy_type"), s("enforcement"), id("owner_department_id"), s("effective_date")},
	TypeRegulation:    {id("jurisdiction_id"), s("regulation_code"), s("category")},
	TypeControl:       {s("control_type"), s("control_family"), s("automation_level")},
	TypeRisk: {
		s("likelihood"), s("impact"), s("inherent_risk_level"), s("residual_risk_level"),
		s("category"), id("owner_department_id"),
		mirror(ids("mitigated_by_controls")),
	},
	TypeThreat:      {s("threat_category"), s("severity")},
	TypeVulnerability: {
		s("cve_id"), s("severity"), s("status"), b("patch_available"), id("affected_system_id"),
		mirror(ids("affects_systems")),
	},
	TypeThreatActor: {s("sophistication"), s("motivation"), s("origin_country")},
	TypeIncident:    {s("severity"), s("status"), s("detected_at"), ids("affected_system_ids")},

	TypeNetwork:     {s("network_type"), s("cidr"), s("security_zone"), b("internet_facing")},
	TypeSystem: {
		s("criticality"), s("os"), ss("tech_stack"), s("hosting_type"), id("owner_department_id"),
		s("appliance_type"), b("internet_facing"),
		mirror(id("hosted_at_site")),
	},
	TypeIntegration: {s("integration_type"), s("protocol"), id("source_system_id"), id("target_system_id")},

	TypeDataAsset: {
		s("classification"), id("data_domain_id"), id("owner_department_id"), f("retention_years"),
		mirror(ids("stored_in_systems")),
	},
	TypeDataDomain: {id("domain_owner_department_id")},
	TypeDataFlow:   {s("classification"), b("encryption_in_transit"), id("source_id"), id("target_id"), s("frequency")},

	TypeDepartment: {
		f("headcount"), id("parent_department_id"), s("cost_center"),
		mirror(f("actual_headcount")),
	},
	TypeOrganizationalUnit: {s("unit_type"), id("parent_unit_id")},

	TypePerson: {
		s("title"), s("email"), id("department_id"), id("role_id"), s("seniority"),
		mirror(id("located_at")),
	},
	TypeRole: {
		s("title"), id("department_id"), f("headcount_target"), b("is_management"),
		mirror(f("headcount_filled")), mirror(ids("filled_by_persons")),
	},

	TypeBusinessCapability: {s("maturity_level"), id("owner_department_id")},

	TypeSite:        {s("site_type"), id("location_id"), s("physical_security_tier"), b("is_data_center")},
	TypeGeography:   {s("region"), s("country")},
	TypeJurisdiction: {s("country"), s("regulatory_body")},

	TypeProductPortfolio: {id("owner_department_id")},
	TypeProduct:          {id("portfolio_id"), s("lifecycle_stage"), id("owner_department_id")},

	TypeMarketSegment: {s("region")},
	TypeCustomer:      {id("segment_id"), s("tier"), s("region")},

	TypeVendor: {
		s("vendor_type"), s("risk_tier"), s("country"),
		mirror(ids("contract_ids")),
	},
	TypeContract: {id("vendor_id"), s("contract_type"), s("start_date"), s("end_date"), f("value_usd")},

	TypeInitiative: {id("sponsor_department_id"), s("status"), s("priority")},
}

// FieldSpecFor returns the declared spec for name on kind, or a
// *ValidationError if kind or name is not part of the closed catalog.
func FieldSpecFor(kind EntityType, name string) (FieldSpec, error) {
	specs, ok := entitySchemas[kind]
	if !ok {
		return FieldSpec{}, &ValidationError{Field: name, Message: fmt.Sprintf("unknown entity kind %q", kind)}
	}
	for _, spec := range specs {
		if spec.Name == name {
			return spec, nil
		}
	}
	return FieldSpec{}, &ValidationError{Field: name, Message: fmt.Sprintf("field %q is not declared for kind %s", name, kind)}
}

// SchemaFor returns the full declared field set for kind.
func SchemaFor(kind EntityType) []FieldSpec {
	return entitySchemas[kind]
}

// MirrorFieldsFor returns only the weaver-populated fields for kind.
func MirrorFieldsFor(kind EntityType) []FieldSpec {
	all := entitySchemas[kind]
	out := make([]FieldSpec, 0, len(all))
	for _, spec := range all {
		if spec.Mirror {
			out = append(out, spec)
		}
	}
	return out
}
