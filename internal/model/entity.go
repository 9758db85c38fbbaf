// Package model defines the closed entity/relationship catalog that underlies
// the digital-twin graph: identifiers, base fields, the thirty entity kinds,
// the ~52 relationship kinds, and the invariants the write path enforces
// before anything is committed to the engine.
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntityType is the closed discriminant of the entity tagged-variant set.
type EntityType string

// The thirty entity kinds, grouped by the generation layer that produces
// them (see GenerationOrder in the generator package).
const (
	// L00 Foundation
	TypeLocation EntityType = "location"

	// L01 Compliance
	TypePolicy        EntityType = "policy"
	TypeRegulation     EntityType = "regulation"
	TypeControl        EntityType = "control"
	TypeRisk           EntityType = "risk"
	TypeThreat         EntityType = "threat"
	TypeVulnerability  EntityType = "vulnerability"
	TypeThreatActor    EntityType = "threat_actor"
	TypeIncident       EntityType = "incident"

	// L02 Technology
	TypeNetwork     EntityType = "network"
	TypeSystem      EntityType = "system"
	TypeIntegration EntityType = "integration"

	// L03 Data
	TypeDataAsset  EntityType = "data_asset"
	TypeDataDomain EntityType = "data_domain"
	TypeDataFlow   EntityType = "data_flow"

	// L04 Organization
	TypeDepartment           EntityType = "department"
	TypeOrganizationalUnit   EntityType = "organizational_unit"

	// L05 People
	TypePerson EntityType = "person"
	TypeRole   EntityType = "role"

	// L06 Capabilities
	TypeBusinessCapability EntityType = "business_capability"

	// L07 Locations
	TypeSite        EntityType = "site"
	TypeGeography   EntityType = "geography"
	TypeJurisdiction EntityType = "jurisdiction"

	// L08 Products
	TypeProductPortfolio EntityType = "product_portfolio"
	TypeProduct          EntityType = "product"

	// L09 Customers
	TypeMarketSegment EntityType = "market_segment"
	TypeCustomer      EntityType = "customer"

	// L10 Vendors
	TypeVendor   EntityType = "vendor"
	TypeContract EntityType = "contract"

	// L11 Initiatives
	TypeInitiative EntityType = "initiative"
)

// AllEntityTypes lists the closed set in a stable order, used by schema
// validation and export/shard enumeration.
var AllEntityTypes = []EntityType{
	TypeLocation,
	TypePolicy, TypeRegulation, TypeControl, TypeRisk, TypeThreat,
	TypeVulnerability, TypeThreatActor, TypeIncident,
	TypeNetwork, TypeSystem, TypeIntegration,
	TypeDataAsset, TypeDataDomain, TypeDataFlow,
	TypeDepartment, TypeOrganizationalUnit,
	TypePerson, TypeRole,
	TypeBusinessCapability,
	TypeSite, TypeGeography, TypeJurisdiction,
	TypeProductPortfolio, TypeProduct,
	TypeMarketSegment, TypeCustomer,
	TypeVendor, TypeContract,
	TypeInitiative,
}

// IsValid reports whether t is one of the thirty closed entity kinds.
func (t EntityType) IsValid() bool {
	_, ok := entitySchemas[t]
	return ok
}

// Entity is the common representation for every kind in the catalog.
// Kind-specific and mirror fields live in Fields, validated against the
// kind's FieldSpec set (see schema.go) rather than hand-written per-kind
// structs — this keeps the engine, generator, and weaver generic over all
// thirty kinds while still rejecting unknown fields (the re-architecture
// of the permissive extra="allow" models described in the design notes).
type Entity struct {
	ID          string         `json:"id"`
	Type        EntityType     `json:"entity_type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Tags        []string       `json:"tags,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ValidFrom  *time.Time `json:"valid_from,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
	Version    int        `json:"version"`

	// Fields holds kind-specific and mirror-field values, keyed by the
	// FieldSpec.Name declared for Type in the schema catalog.
	Fields map[string]any `json:"fields,omitempty"`

	// Extra carries fields seen on import that are not declared for this
	// kind's schema. Only populated when strict mode is off; in strict
	// mode unknown fields are a validation error (see ioexport package).
	Extra map[string]string `json:"extra,omitempty"`
}

// NewEntity constructs an entity of the given kind with a fresh id and
// creation timestamp. Callers then populate Fields via Set.
func NewEntity(kind EntityType, name string) *Entity {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &Entity{
		ID:        uuid.NewString(),
		Type:      kind,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
		Fields:    make(map[string]any),
	}
}

// Get returns a field value and whether it was present.
func (e *Entity) Get(name string) (any, bool) {
	v, ok := e.Fields[name]
	return v, ok
}

// GetString returns a string field, or "" if absent or wrong type.
func (e *Entity) GetString(name string) string {
	if v, ok := e.Fields[name]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetFloat returns a float64 field, or 0 if absent or wrong type.
func (e *Entity) GetFloat(name string) float64 {
	if v, ok := e.Fields[name]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return 0
}

// GetBool returns a bool field, or false if absent or wrong type.
func (e *Entity) GetBool(name string) bool {
	if v, ok := e.Fields[name]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// GetStringSlice returns a []string field, or nil if absent.
func (e *Entity) GetStringSlice(name string) []string {
	v, ok := e.Fields[name]
	if !ok {
		return nil
	}
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// Set assigns a field value after checking it against the kind's schema.
// It returns a *ValidationError if name is not declared for e.Type or the
// value's kind does not match.
func (e *Entity) Set(name string, value any) error {
	spec, err := FieldSpecFor(e.Type, name)
	if err != nil {
		return err
	}
	if !spec.Accepts(value) {
		return &ValidationError{Field: name, Message: fmt.Sprintf("field %q on %s expects %s, got %T", name, e.Type, spec.Kind, value)}
	}
	e.Fields[name] = value
	return nil
}

// Touch bumps Version and UpdatedAt. Per spec, version increments
// unconditionally on every call to UpdateEntity, including a no-op patch
// (open question #1, resolved in DESIGN.md).
func (e *Entity) Touch(now time.Time) {
	e.UpdatedAt = now.UTC().Truncate(time.Millisecond)
	e.Version++
}

// Clone returns a deep-enough copy for copy-validate-write semantics: the
// engine mutates a clone and only swaps it in on success.
func (e *Entity) Clone() *Entity {
	clone := *e
	clone.Tags = append([]string(nil), e.Tags...)
	clone.Fields = make(map[string]any, len(e.Fields))
	for k, v := range e.Fields {
		clone.Fields[k] = v
	}
	if e.Metadata != nil {
		clone.Metadata = make(map[string]any, len(e.Metadata))
		for k, v := range e.Metadata {
			clone.Metadata[k] = v
		}
	}
	if e.Extra != nil {
		clone.Extra = make(map[string]string, len(e.Extra))
		for k, v := range e.Extra {
			clone.Extra[k] = v
		}
	}
	return &clone
}
