package atp

import (
	"context"
	"fmt"
	"sort"

	"github.com/emergent-company/orgtwin/internal/engine"
	"github.com/emergent-company/orgtwin/internal/guards"
	"github.com/emergent-company/orgtwin/internal/model"
	"github.com/emergent-company/orgtwin/internal/search"
)

// MaxBatchSize bounds add_relationships_batch (spec.md §4.8).
const MaxBatchSize = 500

// BuildRegistry constructs the fixed 13-tool registry.
func BuildRegistry() *Registry {
	r := NewRegistry()
	r.Register(newTool("load_graph", "Load a canonical JSON graph file into the state service.", Write, toolLoadGraph))
	r.Register(newTool("get_statistics", "Return entity/relationship counts, density, and connectivity.", ReadOnly, toolGetStatistics))
	r.Register(newTool("list_entities", "List entities, optionally filtered by type.", ReadOnly, toolListEntities))
	r.Register(newTool("get_entity", "Fetch a single entity by id.", ReadOnly, toolGetEntity))
	r.Register(newTool("get_neighbors", "List an entity's neighbours, optionally filtered by direction/relationship type.", ReadOnly, toolGetNeighbors))
	r.Register(newTool("find_shortest_path", "Find the shortest undirected path between two entities.", ReadOnly, toolFindShortestPath))
	r.Register(newTool("get_blast_radius", "BFS out from an entity, grouped by depth.", ReadOnly, toolGetBlastRadius))
	r.Register(newTool("compute_centrality", "Compute degree, betweenness, or pagerank centrality.", ReadOnly, toolComputeCentrality))
	r.Register(newTool("find_most_connected", "Rank entities by degree.", ReadOnly, toolFindMostConnected))
	r.Register(newTool("search_entities", "Fuzzy-match entities by name.", ReadOnly, toolSearchEntities))
	r.Register(newTool("add_relationship_tool", "Add one relationship after validating domain/range and metadata.", Write, toolAddRelationship))
	r.Register(newTool("add_relationships_batch", "Add up to 500 relationships atomically.", Write, toolAddRelationshipsBatch))
	r.Register(newTool("remove_relationship_tool", "Remove a relationship by id.", Write, toolRemoveRelationship))
	return r
}

// --- argument helpers ---

func argString(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func argFloat(args map[string]any, key string, fallback float64) float64 {
	v, ok := args[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return fallback
}

func argInt(args map[string]any, key string, fallback int) int {
	return int(argFloat(args, key, float64(fallback)))
}

func argProperties(args map[string]any, key string) map[string]string {
	v, ok := args[key]
	if !ok {
		return nil
	}
	raw, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, val := range raw {
		if s, ok := val.(string); ok {
			out[k] = s
		} else {
			out[k] = fmt.Sprintf("%v", val)
		}
	}
	return out
}

// --- read tools ---

func toolLoadGraph(_ context.Context, d *Dispatcher, args map[string]any) (any, error) {
	path, ok := argString(args, "path")
	if !ok || path == "" {
		return nil, model.NewError(model.ErrValidation, "load_graph requires a non-empty \"path\" argument")
	}
	if err := d.State.Load(path); err != nil {
		return nil, err
	}
	eng, _, err := d.State.RequireGraph()
	if err != nil {
		return nil, err
	}
	stats := eng.Statistics()
	return map[string]any{
		"entity_count":       stats.EntityCount,
		"relationship_count": stats.RelationshipCount,
		"path":               path,
	}, nil
}

func toolGetStatistics(_ context.Context, d *Dispatcher, _ map[string]any) (any, error) {
	eng, _, err := d.State.RequireGraph()
	if err != nil {
		return nil, err
	}
	return eng.Statistics(), nil
}

func toolListEntities(_ context.Context, d *Dispatcher, args map[string]any) (any, error) {
	eng, _, err := d.State.RequireGraph()
	if err != nil {
		return nil, err
	}
	kind := model.EntityType("")
	if t, ok := argString(args, "type"); ok {
		kind = model.EntityType(t)
	}
	limit := argInt(args, "limit", 50)
	return compactEntities(eng.ListEntities(kind, limit))
}

func toolGetEntity(_ context.Context, d *Dispatcher, args map[string]any) (any, error) {
	eng, _, err := d.State.RequireGraph()
	if err != nil {
		return nil, err
	}
	id, ok := argString(args, "id")
	if !ok || id == "" {
		return nil, model.NewError(model.ErrValidation, "get_entity requires a non-empty \"id\" argument")
	}
	e, err := eng.GetEntity(id)
	if err != nil {
		return nil, err
	}
	return compactEntity(e)
}

func toolGetNeighbors(_ context.Context, d *Dispatcher, args map[string]any) (any, error) {
	eng, _, err := d.State.RequireGraph()
	if err != nil {
		return nil, err
	}
	id, ok := argString(args, "id")
	if !ok || id == "" {
		return nil, model.NewError(model.ErrValidation, "get_neighbors requires a non-empty \"id\" argument")
	}
	dir := engine.DirBoth
	if d, ok := argString(args, "direction"); ok && d != "" {
		dir = engine.Direction(d)
	}
	filter := engine.NeighborFilter{}
	if rt, ok := argString(args, "relationship_type"); ok {
		filter.RelType = rt
	}
	neighbors, err := eng.Neighbors(id, dir, filter)
	if err != nil {
		return nil, err
	}
	return compactEntities(neighbors)
}

func toolFindShortestPath(_ context.Context, d *Dispatcher, args map[string]any) (any, error) {
	eng, _, err := d.State.RequireGraph()
	if err != nil {
		return nil, err
	}
	src, ok1 := argString(args, "src")
	tgt, ok2 := argString(args, "tgt")
	if !ok1 || !ok2 || src == "" || tgt == "" {
		return nil, model.NewError(model.ErrValidation, "find_shortest_path requires \"src\" and \"tgt\" arguments")
	}
	path, found := eng.ShortestPath(src, tgt)
	if !found {
		return nil, nil
	}
	return path, nil
}

func toolGetBlastRadius(_ context.Context, d *Dispatcher, args map[string]any) (any, error) {
	eng, _, err := d.State.RequireGraph()
	if err != nil {
		return nil, err
	}
	id, ok := argString(args, "id")
	if !ok || id == "" {
		return nil, model.NewError(model.ErrValidation, "get_blast_radius requires a non-empty \"id\" argument")
	}
	depth := argInt(args, "depth", 3)
	layers, err := eng.BlastRadius(id, depth)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(layers))
	for d, entities := range layers {
		compact, err := compactEntities(entities)
		if err != nil {
			return nil, err
		}
		out[fmt.Sprintf("%d", d)] = compact
	}
	return out, nil
}

// scoredEntity is one row of compute_centrality / find_most_connected.
type scoredEntity struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

func toolComputeCentrality(_ context.Context, d *Dispatcher, args map[string]any) (any, error) {
	eng, _, err := d.State.RequireGraph()
	if err != nil {
		return nil, err
	}
	metric, _ := argString(args, "metric")
	topN := argInt(args, "top_n", 20)

	var scores map[string]float64
	switch metric {
	case "degree":
		scores = eng.DegreeCentrality()
	case "betweenness":
		scores, err = eng.BetweennessCentrality()
		if err != nil {
			return nil, err
		}
	case "pagerank":
		scores = eng.PageRank()
	default:
		return nil, model.NewError(model.ErrUnsupported,
			"unknown centrality metric %q; supported: degree, betweenness, pagerank", metric)
	}
	return topScored(eng, scores, topN), nil
}

func topScored(eng engine.Engine, scores map[string]float64, topN int) []scoredEntity {
	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if scores[ids[i]] != scores[ids[j]] {
			return scores[ids[i]] > scores[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if topN > 0 && len(ids) > topN {
		ids = ids[:topN]
	}
	out := make([]scoredEntity, 0, len(ids))
	for _, id := range ids {
		name := ""
		if e, err := eng.GetEntity(id); err == nil {
			name = e.Name
		}
		out = append(out, scoredEntity{ID: id, Name: name, Score: scores[id]})
	}
	return out
}

func toolFindMostConnected(_ context.Context, d *Dispatcher, args map[string]any) (any, error) {
	eng, _, err := d.State.RequireGraph()
	if err != nil {
		return nil, err
	}
	topN := argInt(args, "top_n", 10)
	connected := eng.MostConnected(topN)
	out := make([]map[string]any, 0, len(connected))
	for _, c := range connected {
		out = append(out, map[string]any{"id": c.ID, "name": c.Name, "degree": c.Degree})
	}
	return out, nil
}

func toolSearchEntities(_ context.Context, d *Dispatcher, args map[string]any) (any, error) {
	eng, _, err := d.State.RequireGraph()
	if err != nil {
		return nil, err
	}
	query, ok := argString(args, "query")
	if !ok || query == "" {
		return nil, model.NewError(model.ErrValidation, "search_entities requires a non-empty \"query\" argument")
	}
	kind := model.EntityType("")
	if t, ok := argString(args, "type"); ok {
		kind = model.EntityType(t)
	}
	limit := argInt(args, "limit", 10)
	results := search.Search(eng, query, kind, limit)
	entities := make([]*model.Entity, 0, len(results))
	for _, r := range results {
		entities = append(entities, r.Entity)
	}
	return compactEntities(entities)
}

// --- write tools ---

// relationshipCandidateFrom builds a model.Relationship and a populated
// guards.GuardContext from a single batch-item map, looking up endpoint
// kinds in eng so DomainRange/EndpointsExist can be checked before any
// mutation.
func relationshipCandidateFrom(eng engine.Engine, item map[string]any) (*model.Relationship, *guards.GuardContext) {
	typ, _ := argString(item, "type")
	src, _ := argString(item, "src")
	tgt, _ := argString(item, "tgt")
	id, _ := argString(item, "id")
	weight := argFloat(item, "weight", 0.8)
	confidence := argFloat(item, "confidence", 0.8)
	props := argProperties(item, "properties")

	gctx := &guards.GuardContext{
		RelationshipType:      typ,
		RelationshipTypeKnown: model.IsValidRelationshipType(model.RelationshipType(typ)),
		Weight:                weight,
		Confidence:            confidence,
		ID:                    id,
	}

	srcEntity, srcErr := eng.GetEntity(src)
	gctx.SourceExists = srcErr == nil
	tgtEntity, tgtErr := eng.GetEntity(tgt)
	gctx.TargetExists = tgtErr == nil
	if gctx.SourceExists && gctx.TargetExists {
		gctx.SourceKind = string(srcEntity.Type)
		gctx.TargetKind = string(tgtEntity.Type)
		gctx.DomainRangeOK = model.DomainRangeOK(model.RelationshipType(typ), srcEntity.Type, tgtEntity.Type)
	}

	rel := model.NewRelationship(model.RelationshipType(typ), src, tgt, weight, confidence, props)
	if id != "" {
		rel.ID = id
	}
	return rel, gctx
}

func persistAfterWrite(d *Dispatcher) error {
	path := d.State.LoadedPath()
	if path == "" {
		return nil
	}
	return d.State.Persist(path)
}

func toolAddRelationship(_ context.Context, d *Dispatcher, args map[string]any) (any, error) {
	eng, _, err := d.State.RequireGraph()
	if err != nil {
		return nil, err
	}
	rel, gctx := relationshipCandidateFrom(eng, args)

	runner := guards.NewRunner()
	outcome := runner.Run(context.Background(), gctx, guards.RelationshipGuards())
	if outcome.Blocked {
		return nil, model.NewError(model.ErrSchemaViolation, "%s", outcome.FormatBlockMessage())
	}

	if _, err := eng.AddRelationship(rel); err != nil {
		return nil, model.Wrap(model.ErrPersistence, err, "adding relationship")
	}
	if err := persistAfterWrite(d); err != nil {
		return nil, err
	}
	compacted, err := compactRelationship(rel)
	if err != nil {
		return nil, model.Wrap(model.ErrInternal, err, "compacting relationship")
	}
	return compacted, nil
}

func toolAddRelationshipsBatch(_ context.Context, d *Dispatcher, args map[string]any) (any, error) {
	eng, _, err := d.State.RequireGraph()
	if err != nil {
		return nil, err
	}
	rawItems, _ := args["relationships"].([]any)

	batchGuard := guards.NewRunner().Run(context.Background(), &guards.GuardContext{
		BatchSize: len(rawItems), MaxBatchSize: MaxBatchSize,
	}, guards.BatchGuards())
	if batchGuard.Blocked {
		return nil, model.NewError(model.ErrBatchRejected, "%s", batchGuard.FormatBlockMessage())
	}

	candidates := make([]*model.Relationship, 0, len(rawItems))
	for i, raw := range rawItems {
		item, ok := raw.(map[string]any)
		if !ok {
			return nil, model.NewError(model.ErrBatchRejected, "item %d is not an object", i)
		}
		rel, gctx := relationshipCandidateFrom(eng, item)
		outcome := guards.NewRunner().Run(context.Background(), gctx, guards.RelationshipGuards())
		if outcome.Blocked {
			return nil, model.NewError(model.ErrBatchRejected, "item %d: %s", i, outcome.FormatBlockMessage())
		}
		candidates = append(candidates, rel)
	}

	// All items passed validation: commit is all-or-nothing from here.
	if _, err := eng.AddRelationshipsBulk(candidates); err != nil {
		return nil, model.Wrap(model.ErrPersistence, err, "committing relationship batch")
	}
	if err := persistAfterWrite(d); err != nil {
		return nil, err
	}
	compacted := make([]map[string]any, 0, len(candidates))
	for _, rel := range candidates {
		c, err := compactRelationship(rel)
		if err != nil {
			return nil, model.Wrap(model.ErrInternal, err, "compacting relationship")
		}
		compacted = append(compacted, c)
	}
	return map[string]any{"relationships": compacted}, nil
}

func toolRemoveRelationship(_ context.Context, d *Dispatcher, args map[string]any) (any, error) {
	eng, _, err := d.State.RequireGraph()
	if err != nil {
		return nil, err
	}
	id, ok := argString(args, "id")
	if !ok || id == "" {
		return nil, model.NewError(model.ErrValidation, "remove_relationship_tool requires a non-empty \"id\" argument")
	}
	if !idFormatOK(id) {
		return nil, model.NewError(model.ErrValidation, "id %q is not a valid identifier", id)
	}
	removed, err := eng.RemoveRelationship(id)
	if err != nil {
		return nil, model.Wrap(model.ErrPersistence, err, "removing relationship")
	}
	if !removed {
		return nil, model.NewError(model.ErrNotFound, "relationship %q not found", id)
	}
	if err := persistAfterWrite(d); err != nil {
		return nil, err
	}
	return map[string]any{"removed": true}, nil
}

func idFormatOK(id string) bool {
	for _, r := range id {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return len(id) > 0 && len(id) <= 128
}
