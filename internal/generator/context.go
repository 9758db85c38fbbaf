// Package generator implements the layered synthetic-twin pipeline (C4):
// a fixed twelve-layer generation order, one generator per entity kind,
// coordinated templates for correlated fields, and the department/role/
// people derivation rules (spec.md §4.3).
package generator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/emergent-company/orgtwin/internal/engine"
	"github.com/emergent-company/orgtwin/internal/model"
	"github.com/emergent-company/orgtwin/internal/scaling"
)

// GenerationContext is threaded through every generator: the seeded RNG,
// the org profile, the engine being populated, and read-only access to
// entities already committed by earlier layers.
type GenerationContext struct {
	Engine  engine.Engine
	Profile scaling.OrgProfile
	Rng     *rand.Rand

	// byKind records ids in commit order, not entity pointers: Engine.
	// UpdateEntity clones-and-swaps rather than mutating in place, so a
	// cached pointer goes stale the moment any later layer patches that
	// entity. Of/RandomOf resolve through the engine on every call instead.
	byKind map[model.EntityType][]string

	// plannedCounts memoizes Count's draw per kind: a kind's count is
	// drawn from the scaling model at most once per run, so a layer that
	// anticipates another layer's count (vulnerability anticipating
	// system, spec.md §4.2) sees the same number the later layer acts on.
	plannedCounts map[model.EntityType]int

	// DepartmentRoleCatalog maps a department id to the non-management role
	// titles available in it, populated by genDepartments and consumed by
	// genRoles — the two steps share a root template's role list even
	// after subdivision splits the department into several entities.
	DepartmentRoleCatalog map[string][]string

	// roleAssignments records each generated role alongside its implied
	// seniority tag, consumed by genPersons to match people to roles.
	roleAssignments []*roleAssignment
}

// roleAssignment records a generated role's entity alongside the
// seniority tag implied by its title prefix, so genPersons can match
// people to roles of a compatible seniority.
type roleAssignment struct {
	entity       *model.Entity
	departmentID string
	seniority    string
}

// NewContext builds a fresh context over an empty or pre-seeded engine.
func NewContext(eng engine.Engine, profile scaling.OrgProfile, seed int64) *GenerationContext {
	return &GenerationContext{
		Engine:  eng,
		Profile: profile,
		Rng:     rand.New(rand.NewSource(seed)),
		byKind:  make(map[model.EntityType][]string),

		plannedCounts:         make(map[model.EntityType]int),
		DepartmentRoleCatalog: make(map[string][]string),
	}
}

// Commit bulk-inserts entities into the engine and records them for later
// layers to reference.
func (c *GenerationContext) Commit(entities []*model.Entity) error {
	if len(entities) == 0 {
		return nil
	}
	if _, err := c.Engine.AddEntitiesBulk(entities); err != nil {
		return err
	}
	kind := entities[0].Type
	ids := make([]string, len(entities))
	for i, e := range entities {
		ids[i] = e.ID
	}
	c.byKind[kind] = append(c.byKind[kind], ids...)
	return nil
}

// Of returns every entity of kind generated so far, resolved live through
// the engine so callers always see the latest field values even after an
// earlier layer's UpdateEntity patched one of them.
func (c *GenerationContext) Of(kind model.EntityType) []*model.Entity {
	ids := c.byKind[kind]
	out := make([]*model.Entity, 0, len(ids))
	for _, id := range ids {
		if e, err := c.Engine.GetEntity(id); err == nil {
			out = append(out, e)
		}
	}
	return out
}

// RandomOf returns a uniformly random already-generated entity of kind, or
// nil if none exist yet.
func (c *GenerationContext) RandomOf(kind model.EntityType) *model.Entity {
	ids := c.byKind[kind]
	if len(ids) == 0 {
		return nil
	}
	e, err := c.Engine.GetEntity(ids[c.Rng.Intn(len(ids))])
	if err != nil {
		return nil
	}
	return e
}

// Count draws a kind's generated count from the scaling model. The draw
// is memoized per kind, so a layer that anticipates a later layer's count
// (e.g. vulnerability anticipating system) sees the same number the later
// layer's own Count call returns.
func (c *GenerationContext) Count(kind model.EntityType) int {
	if n, ok := c.plannedCounts[kind]; ok {
		return n
	}
	n := scaling.CountFor(kind, c.Profile, c.Rng)
	c.plannedCounts[kind] = n
	return n
}

// Layer names the twelve generation groups, in the fixed order the
// orchestrator runs them (spec.md §3.2, §4.3).
type Layer string

const (
	LayerFoundation   Layer = "L00_foundation"
	LayerCompliance   Layer = "L01_compliance"
	LayerTechnology   Layer = "L02_technology"
	LayerData         Layer = "L03_data"
	LayerOrganization Layer = "L04_organization"
	LayerPeople       Layer = "L05_people"
	LayerCapabilities Layer = "L06_capabilities"
	LayerLocations    Layer = "L07_locations"
	LayerProducts     Layer = "L08_products"
	LayerCustomers    Layer = "L09_customers"
	LayerVendors      Layer = "L10_vendors"
	LayerInitiatives  Layer = "L11_initiatives"
)

// GenerationOrder is the fixed 12-step list the orchestrator walks
// (spec.md §4.3).
var GenerationOrder = []Layer{
	LayerFoundation, LayerCompliance, LayerTechnology, LayerData,
	LayerOrganization, LayerPeople, LayerCapabilities, LayerLocations,
	LayerProducts, LayerCustomers, LayerVendors, LayerInitiatives,
}

// GenerationError reports the layer under construction when a generator
// fails; the pipeline does not catch and continue (spec.md §7
// propagation policy). Orchestrator.Run sets Layer only, so Kind is empty
// in the errors it returns.
type GenerationError struct {
	Layer Layer
	Kind  model.EntityType
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generator: layer %s kind %s: %v", e.Layer, e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Orchestrator drives the fixed generation pipeline, running each layer
// in order. OnLayer, if set, is called
// after each layer completes with its execution time, letting a caller
// feed SPEC_FULL.md §4.11's per-layer generation-duration histogram
// without this package depending on the metrics package directly.
type Orchestrator struct {
	OnLayer func(layer Layer, d time.Duration)
}

// Run executes every layer against ctx, committing entities through
// ctx.Engine as it goes. It does not run the weaver or the quality
// assessor — callers compose those separately (spec.md §4.3 pipeline
// sketch), keeping this package's contract to entity generation only.
func (o *Orchestrator) Run(ctx *GenerationContext) error {
	steps := []struct {
		layer Layer
		fn    func(*GenerationContext) error
	}{
		{LayerFoundation, runFoundation},
		{LayerCompliance, runCompliance},
		{LayerTechnology, runTechnology},
		{LayerData, runData},
		{LayerOrganization, runOrganization},
		{LayerPeople, runPeople},
		{LayerCapabilities, runCapabilities},
		{LayerLocations, runLocations},
		{LayerProducts, runProducts},
		{LayerCustomers, runCustomers},
		{LayerVendors, runVendors},
		{LayerInitiatives, runInitiatives},
	}
	for _, step := range steps {
		start := time.Now()
		err := step.fn(ctx)
		if o.OnLayer != nil {
			o.OnLayer(step.layer, time.Since(start))
		}
		if err != nil {
			return &GenerationError{Layer: step.layer, Err: err}
		}
	}
	return nil
}
