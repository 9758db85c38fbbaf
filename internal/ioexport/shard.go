package ioexport

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/emergent-company/orgtwin/internal/model"
)

// Split writes one shard file per observed entity/relationship type under
// root, per spec.md §4.6/§6.6:
//
//	<root>/entities/<entity_type>.json
//	<root>/relationships/<relationship_type>.json
//
// Absent types produce no file. Arrays within each file are sorted by id
// for deterministic diffs.
func Split(g Graph, root string) error {
	entitiesByType := make(map[model.EntityType][]*model.Entity)
	for _, e := range g.Entities {
		entitiesByType[e.Type] = append(entitiesByType[e.Type], e)
	}
	relsByType := make(map[model.RelationshipType][]*model.Relationship)
	for _, r := range g.Relationships {
		relsByType[r.Type] = append(relsByType[r.Type], r)
	}

	entitiesDir := filepath.Join(root, "entities")
	relsDir := filepath.Join(root, "relationships")
	if err := os.MkdirAll(entitiesDir, 0o755); err != nil {
		return fmt.Errorf("creating entities shard dir: %w", err)
	}
	if err := os.MkdirAll(relsDir, 0o755); err != nil {
		return fmt.Errorf("creating relationships shard dir: %w", err)
	}

	for kind, entities := range entitiesByType {
		sort.Slice(entities, func(i, j int) bool { return entities[i].ID < entities[j].ID })
		if err := writeJSONFile(filepath.Join(entitiesDir, string(kind)+".json"), entities); err != nil {
			return err
		}
	}
	for kind, rels := range relsByType {
		sort.Slice(rels, func(i, j int) bool { return rels[i].ID < rels[j].ID })
		if err := writeJSONFile(filepath.Join(relsDir, string(kind)+".json"), rels); err != nil {
			return err
		}
	}
	return nil
}

func writeJSONFile(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Build reads every shard file under root, concatenates their arrays, and
// returns the equivalent canonical Graph (without Statistics — the caller
// recomputes those once the graph is committed to an engine).
func Build(root string) (Graph, error) {
	var g Graph

	entities, err := readShardFiles[*model.Entity](filepath.Join(root, "entities"))
	if err != nil {
		return g, err
	}
	rels, err := readShardFiles[*model.Relationship](filepath.Join(root, "relationships"))
	if err != nil {
		return g, err
	}
	g.Entities = entities
	g.Relationships = rels
	return g, nil
}

func readShardFiles[T any](dir string) ([]T, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading shard dir %s: %w", dir, err)
	}
	var out []T
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading shard %s: %w", path, err)
		}
		var items []T
		if err := json.Unmarshal(b, &items); err != nil {
			return nil, fmt.Errorf("parsing shard %s: %w", path, err)
		}
		out = append(out, items...)
	}
	return out, nil
}
