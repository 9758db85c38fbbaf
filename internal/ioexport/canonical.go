// Package ioexport implements export/import/merge (C7): canonical JSON
// round-trip, per-type shard split/merge for the external sync
// collaborator, and a write-only GraphML export (spec.md §4.6).
package ioexport

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/emergent-company/orgtwin/internal/engine"
	"github.com/emergent-company/orgtwin/internal/model"
)

// Graph is the canonical JSON shape: {"entities": [...], "relationships":
// [...], "statistics": {...}}. Export then re-import yields the same
// entity and relationship sets with preserved ids, timestamps, mirror
// fields, and property maps.
type Graph struct {
	Entities      []*model.Entity       `json:"entities"`
	Relationships []*model.Relationship `json:"relationships"`
	Statistics    engine.Statistics     `json:"statistics"`
}

// Export walks eng and serialises it to canonical JSON.
func Export(eng engine.Engine) ([]byte, error) {
	g := Graph{
		Entities:      eng.ListEntities("", 0),
		Relationships: relationshipsOf(eng),
		Statistics:    eng.Statistics(),
	}
	sortGraph(&g)
	b, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling canonical graph: %w", err)
	}
	return b, nil
}

// relationshipsOf collects every relationship once, by walking each
// entity's outgoing edges (Engine exposes no direct "all relationships"
// accessor, matching its single-point-of-access contract, spec.md §4.1).
func relationshipsOf(eng engine.Engine) []*model.Relationship {
	seen := make(map[string]bool)
	var out []*model.Relationship
	for _, e := range eng.ListEntities("", 0) {
		for _, r := range eng.Relationships(e.ID, engine.DirOut, engine.NeighborFilter{}) {
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			out = append(out, r)
		}
	}
	return out
}

func sortGraph(g *Graph) {
	sort.Slice(g.Entities, func(i, j int) bool { return g.Entities[i].ID < g.Entities[j].ID })
	sort.Slice(g.Relationships, func(i, j int) bool { return g.Relationships[i].ID < g.Relationships[j].ID })
}

// ImportOptions controls strict-mode field validation on Import.
type ImportOptions struct {
	// Strict rejects entities carrying fields not declared in the
	// closed schema (spec.md §4.7 GRAPH_STRICT). When false, unknown
	// fields are kept on Entity.Extra rather than rejected.
	Strict bool
}

// Import parses canonical JSON and commits it into a fresh eng, running
// the same domain/range and schema checks the write tools run before
// committing (spec.md §4.6).
func Import(data []byte, eng engine.Engine, opts ImportOptions) error {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return model.Wrap(model.ErrValidation, err, "parsing canonical graph")
	}

	kindByID := make(map[string]model.EntityType, len(g.Entities))
	for i, e := range g.Entities {
		if opts.Strict {
			if verr := validateEntitySchema(e); verr != nil {
				return model.Wrap(model.ErrSchemaViolation, verr, "entity[%d] %q", i, e.ID)
			}
		} else {
			for name, v := range e.Fields {
				if _, err := model.FieldSpecFor(e.Type, name); err != nil {
					if e.Extra == nil {
						e.Extra = make(map[string]string)
					}
					e.Extra[name] = fmt.Sprint(v)
					delete(e.Fields, name)
				}
			}
		}
		kindByID[e.ID] = e.Type
	}

	for i, r := range g.Relationships {
		srcKind, srcOK := kindByID[r.SourceID]
		tgtKind, tgtOK := kindByID[r.TargetID]
		if !srcOK || !tgtOK {
			return model.NewError(model.ErrValidation, "relationship[%d] %q: source or target entity not present in import", i, r.ID)
		}
		if verr := model.ValidateRelationshipCandidate(model.RelationshipCandidate{
			Type: r.Type, SourceID: r.SourceID, SourceKind: srcKind,
			TargetID: r.TargetID, TargetKind: tgtKind,
			Weight: r.Weight, Confidence: r.Confidence,
		}); verr != nil {
			return verr
		}
	}

	if _, err := eng.AddEntitiesBulk(g.Entities); err != nil {
		return model.Wrap(model.ErrPersistence, err, "committing imported entities")
	}
	if len(g.Relationships) > 0 {
		if _, err := eng.AddRelationshipsBulk(g.Relationships); err != nil {
			return model.Wrap(model.ErrPersistence, err, "committing imported relationships")
		}
	}
	return nil
}

// validateEntitySchema rejects any field on e not declared for e.Type;
// called only in strict mode, since permissive import keeps unknown
// fields on Entity.Extra instead of failing.
func validateEntitySchema(e *model.Entity) error {
	for name := range e.Fields {
		if _, err := model.FieldSpecFor(e.Type, name); err != nil {
			return err
		}
	}
	return nil
}
