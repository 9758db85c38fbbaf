package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/emergent-company/orgtwin/internal/model"
)

// Memory is the default backend: an in-process directed multigraph with
// per-kind and per-relationship-type inverted indexes keyed by entity id,
// giving O(1) lookup and O(degree) neighbour enumeration (spec.md §4.1).
//
// Memory does not lock internally — the single-writer/multi-reader lock
// described in spec.md §5 is owned by the state service (internal/state),
// which is the only component allowed to hand out concurrent access to an
// Engine value.
type Memory struct {
	entities map[string]*model.Entity
	order    []string
	byKind   map[model.EntityType][]string

	relationships map[string]*model.Relationship
	relOrder      []string
	byRelType     map[model.RelationshipType][]string
	outAdj        map[string][]string // entity id -> relationship ids where it is the source
	inAdj         map[string][]string // entity id -> relationship ids where it is the target
}

// New constructs an empty in-memory multigraph engine.
func New() *Memory {
	return &Memory{
		entities:      make(map[string]*model.Entity),
		byKind:        make(map[model.EntityType][]string),
		relationships: make(map[string]*model.Relationship),
		byRelType:     make(map[model.RelationshipType][]string),
		outAdj:        make(map[string][]string),
		inAdj:         make(map[string][]string),
	}
}

// --- Entities ---

func (m *Memory) AddEntity(e *model.Entity) (string, error) {
	if e.ID == "" {
		return "", model.NewError(model.ErrValidation, "entity id is required")
	}
	if _, exists := m.entities[e.ID]; exists {
		return "", model.NewError(model.ErrValidation, "entity id %q already exists", e.ID)
	}
	m.insertEntity(e)
	return e.ID, nil
}

func (m *Memory) insertEntity(e *model.Entity) {
	m.entities[e.ID] = e
	m.order = append(m.order, e.ID)
	m.byKind[e.Type] = append(m.byKind[e.Type], e.ID)
}

// AddEntitiesBulk is atomic: every id is checked for collision before any
// entity is inserted.
func (m *Memory) AddEntitiesBulk(es []*model.Entity) ([]string, error) {
	seen := make(map[string]bool, len(es))
	for i, e := range es {
		if e.ID == "" {
			return nil, model.NewError(model.ErrValidation, "entity[%d]: id is required", i)
		}
		if _, exists := m.entities[e.ID]; exists {
			return nil, model.NewError(model.ErrValidation, "entity[%d]: id %q already exists", i, e.ID)
		}
		if seen[e.ID] {
			return nil, model.NewError(model.ErrValidation, "entity[%d]: duplicate id %q in batch", i, e.ID)
		}
		seen[e.ID] = true
	}
	ids := make([]string, 0, len(es))
	for _, e := range es {
		m.insertEntity(e)
		ids = append(ids, e.ID)
	}
	return ids, nil
}

func (m *Memory) GetEntity(id string) (*model.Entity, error) {
	e, ok := m.entities[id]
	if !ok {
		return nil, model.NewError(model.ErrNotFound, "entity %q not found", id)
	}
	return e, nil
}

// UpdateEntity copy-validates-writes: it clones the entity, applies the
// sparse patch, validates each field against the kind's schema, and only
// swaps the clone in on success. Version increments unconditionally, even
// for a no-op patch (spec.md §9 Open Questions, resolved in DESIGN.md).
func (m *Memory) UpdateEntity(id string, patch map[string]any) (*model.Entity, error) {
	existing, ok := m.entities[id]
	if !ok {
		return nil, model.NewError(model.ErrNotFound, "entity %q not found", id)
	}
	clone := existing.Clone()
	for k, v := range patch {
		switch k {
		case "name":
			if s, ok := v.(string); ok {
				clone.Name = s
				continue
			}
			return nil, model.NewError(model.ErrValidation, "name must be a string")
		case "description":
			if s, ok := v.(string); ok {
				clone.Description = s
				continue
			}
			return nil, model.NewError(model.ErrValidation, "description must be a string")
		case "tags":
			if ss, ok := toStringSlice(v); ok {
				clone.Tags = ss
				continue
			}
			return nil, model.NewError(model.ErrValidation, "tags must be a string list")
		default:
			if err := clone.Set(k, v); err != nil {
				return nil, model.Wrap(model.ErrValidation, err, "invalid patch field %q", k)
			}
		}
	}
	clone.Touch(time.Now())
	m.entities[id] = clone
	return clone, nil
}

func toStringSlice(v any) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return s, true
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	}
	return nil, false
}

// RemoveEntity removes e and cascades to every relationship incident to it.
func (m *Memory) RemoveEntity(id string) (bool, error) {
	if _, ok := m.entities[id]; !ok {
		return false, nil
	}
	for _, relID := range append(append([]string{}, m.outAdj[id]...), m.inAdj[id]...) {
		m.removeRelationship(relID)
	}
	delete(m.entities, id)
	delete(m.outAdj, id)
	delete(m.inAdj, id)
	m.order = removeString(m.order, id)
	for kind, ids := range m.byKind {
		m.byKind[kind] = removeString(ids, id)
	}
	return true, nil
}

func removeString(ss []string, target string) []string {
	out := ss[:0:0]
	for _, s := range ss {
		if s != target {
			out = append(out, s)
		}
	}
	return out
}

func (m *Memory) ListEntities(kind model.EntityType, limit int) []*model.Entity {
	var ids []string
	if kind != "" {
		ids = m.byKind[kind]
	} else {
		ids = m.order
	}
	out := make([]*model.Entity, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.entities[id])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// --- Relationships ---

func (m *Memory) candidateFor(r *model.Relationship) (model.RelationshipCandidate, error) {
	src, ok := m.entities[r.SourceID]
	if !ok {
		return model.RelationshipCandidate{}, model.NewError(model.ErrNotFound, "source entity %q not found", r.SourceID)
	}
	tgt, ok := m.entities[r.TargetID]
	if !ok {
		return model.RelationshipCandidate{}, model.NewError(model.ErrNotFound, "target entity %q not found", r.TargetID)
	}
	return model.RelationshipCandidate{
		Type: r.Type, SourceID: r.SourceID, SourceKind: src.Type,
		TargetID: r.TargetID, TargetKind: tgt.Type,
		Weight: r.Weight, Confidence: r.Confidence,
	}, nil
}

func (m *Memory) AddRelationship(r *model.Relationship) (string, error) {
	cand, err := m.candidateFor(r)
	if err != nil {
		return "", err
	}
	if verr := model.ValidateRelationshipCandidate(cand); verr != nil {
		return "", verr
	}
	if _, exists := m.relationships[r.ID]; exists {
		return "", model.NewError(model.ErrValidation, "relationship id %q already exists", r.ID)
	}
	m.insertRelationship(r)
	return r.ID, nil
}

func (m *Memory) insertRelationship(r *model.Relationship) {
	m.relationships[r.ID] = r
	m.relOrder = append(m.relOrder, r.ID)
	m.byRelType[r.Type] = append(m.byRelType[r.Type], r.ID)
	m.outAdj[r.SourceID] = append(m.outAdj[r.SourceID], r.ID)
	m.inAdj[r.TargetID] = append(m.inAdj[r.TargetID], r.ID)
}

// AddRelationshipsBulk validates every item before committing any of them;
// a single failing item rejects the whole batch with a *model.Error naming
// the index (spec.md §4.8 batch semantics).
func (m *Memory) AddRelationshipsBulk(rs []*model.Relationship) ([]string, error) {
	seen := make(map[string]bool, len(rs))
	for i, r := range rs {
		cand, err := m.candidateFor(r)
		if err != nil {
			return nil, model.Wrap(model.KindOf(err), err, "relationship[%d]: %v", i, err)
		}
		if verr := model.ValidateRelationshipCandidate(cand); verr != nil {
			return nil, model.Wrap(verr.Kind, verr, "relationship[%d]: %v", i, verr)
		}
		if _, exists := m.relationships[r.ID]; exists || seen[r.ID] {
			return nil, model.NewError(model.ErrValidation, "relationship[%d]: duplicate id %q", i, r.ID)
		}
		seen[r.ID] = true
	}
	ids := make([]string, 0, len(rs))
	for _, r := range rs {
		m.insertRelationship(r)
		ids = append(ids, r.ID)
	}
	return ids, nil
}

func (m *Memory) GetRelationship(id string) (*model.Relationship, error) {
	r, ok := m.relationships[id]
	if !ok {
		return nil, model.NewError(model.ErrNotFound, "relationship %q not found", id)
	}
	return r, nil
}

func (m *Memory) RemoveRelationship(id string) (bool, error) {
	if _, ok := m.relationships[id]; !ok {
		return false, nil
	}
	m.removeRelationship(id)
	return true, nil
}

func (m *Memory) removeRelationship(id string) {
	r, ok := m.relationships[id]
	if !ok {
		return
	}
	delete(m.relationships, id)
	m.relOrder = removeString(m.relOrder, id)
	m.byRelType[r.Type] = removeString(m.byRelType[r.Type], id)
	m.outAdj[r.SourceID] = removeString(m.outAdj[r.SourceID], id)
	m.inAdj[r.TargetID] = removeString(m.inAdj[r.TargetID], id)
}

func (m *Memory) Relationships(id string, dir Direction, filter NeighborFilter) []*model.Relationship {
	var relIDs []string
	switch dir {
	case DirIn:
		relIDs = m.inAdj[id]
	case DirOut:
		relIDs = m.outAdj[id]
	default:
		relIDs = append(append([]string{}, m.outAdj[id]...), m.inAdj[id]...)
	}
	out := make([]*model.Relationship, 0, len(relIDs))
	for _, relID := range relIDs {
		r := m.relationships[relID]
		if r == nil {
			continue
		}
		if filter.RelType != "" && string(r.Type) != filter.RelType {
			continue
		}
		out = append(out, r)
	}
	return out
}

// --- Traversal ---

func (m *Memory) Neighbors(id string, dir Direction, filter NeighborFilter) ([]*model.Entity, error) {
	if _, ok := m.entities[id]; !ok {
		return nil, model.NewError(model.ErrNotFound, "entity %q not found", id)
	}
	rels := m.Relationships(id, dir, NeighborFilter{RelType: filter.RelType})
	seen := make(map[string]bool)
	out := make([]*model.Entity, 0, len(rels))
	for _, r := range rels {
		otherID := r.TargetID
		if r.TargetID == id {
			otherID = r.SourceID
		}
		if seen[otherID] {
			continue
		}
		other, ok := m.entities[otherID]
		if !ok {
			continue
		}
		if filter.Kind != "" && other.Type != filter.Kind {
			continue
		}
		seen[otherID] = true
		out = append(out, other)
	}
	return out, nil
}

// undirectedAdjacency returns, for every entity id (an isolated entity
// gets an empty set), the set of neighbour ids reachable by treating every
// edge as undirected. Used by ShortestPath, BlastRadius, and the centrality
// measures — the spec fixes traversal to undirected for reachability
// (spec.md §9 Open Questions).
func (m *Memory) undirectedAdjacency() map[string]map[string]bool {
	adj := make(map[string]map[string]bool, len(m.entities))
	for id := range m.entities {
		adj[id] = make(map[string]bool)
	}
	for _, r := range m.relationships {
		if adj[r.SourceID] == nil {
			adj[r.SourceID] = make(map[string]bool)
		}
		if adj[r.TargetID] == nil {
			adj[r.TargetID] = make(map[string]bool)
		}
		adj[r.SourceID][r.TargetID] = true
		adj[r.TargetID][r.SourceID] = true
	}
	return adj
}

func (m *Memory) ShortestPath(src, tgt string) ([]string, bool) {
	if _, ok := m.entities[src]; !ok {
		return nil, false
	}
	if _, ok := m.entities[tgt]; !ok {
		return nil, false
	}
	if src == tgt {
		return []string{src}, true
	}
	adj := m.undirectedAdjacency()
	prev := map[string]string{src: ""}
	queue := []string{src}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == tgt {
			return reconstructPath(prev, src, tgt), true
		}
		neighbors := sortedKeys(adj[cur])
		for _, next := range neighbors {
			if _, visited := prev[next]; visited {
				continue
			}
			prev[next] = cur
			queue = append(queue, next)
		}
	}
	return nil, false
}

func reconstructPath(prev map[string]string, src, tgt string) []string {
	var path []string
	for cur := tgt; ; cur = prev[cur] {
		path = append([]string{cur}, path...)
		if cur == src {
			break
		}
	}
	return path
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// BlastRadius runs an undirected layered BFS from id, bounded by maxDepth.
// Depth 0 always contains only the source (spec.md §9 Open Questions,
// resolved: the depth-0 layer includes the source vertex).
func (m *Memory) BlastRadius(id string, maxDepth int) (map[int][]*model.Entity, error) {
	src, ok := m.entities[id]
	if !ok {
		return nil, model.NewError(model.ErrNotFound, "entity %q not found", id)
	}
	result := map[int][]*model.Entity{0: {src}}
	if maxDepth <= 0 {
		return result, nil
	}
	adj := m.undirectedAdjacency()
	visited := map[string]bool{id: true}
	frontier := []string{id}
	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []string
		var layer []*model.Entity
		for _, cur := range frontier {
			for _, neighborID := range sortedKeys(adj[cur]) {
				if visited[neighborID] {
					continue
				}
				visited[neighborID] = true
				next = append(next, neighborID)
				if e, ok := m.entities[neighborID]; ok {
					layer = append(layer, e)
				}
			}
		}
		if len(layer) > 0 {
			result[depth] = layer
		}
		frontier = next
	}
	return result, nil
}

// --- Analytics defaults (spec.md §4.1, §4.9) ---

func (m *Memory) DegreeCentrality() map[string]float64 {
	n := len(m.entities)
	out := make(map[string]float64, n)
	if n <= 1 {
		for id := range m.entities {
			out[id] = 0
		}
		return out
	}
	adj := m.undirectedAdjacency()
	for id := range m.entities {
		out[id] = float64(len(adj[id])) / float64(n-1)
	}
	return out
}

// BetweennessCentrality runs Brandes' algorithm on the undirected
// projection, O(V*E). The in-memory backend always supports it; a
// lightweight second backend may return *model.Error{Kind: Unsupported}
// instead (spec.md §4.9).
func (m *Memory) BetweennessCentrality() (map[string]float64, error) {
	adj := m.undirectedAdjacency()
	centrality := make(map[string]float64, len(m.entities))
	for id := range m.entities {
		centrality[id] = 0
	}
	for _, s := range sortedEntityIDs(m.entities) {
		stack := []string{}
		pred := make(map[string][]string)
		sigma := map[string]float64{s: 1}
		dist := map[string]int{s: 0}
		queue := []string{s}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			for _, w := range sortedKeys(adj[v]) {
				if _, ok := dist[w]; !ok {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					pred[w] = append(pred[w], v)
				}
			}
		}
		delta := make(map[string]float64)
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range pred[w] {
				if sigma[w] != 0 {
					delta[v] += (sigma[v] / sigma[w]) * (1 + delta[w])
				}
			}
			if w != s {
				centrality[w] += delta[w]
			}
		}
	}
	n := len(m.entities)
	if n > 2 {
		scale := 1.0 / float64((n-1)*(n-2))
		for id := range centrality {
			centrality[id] *= scale
		}
	}
	return centrality, nil
}

func sortedEntityIDs(entities map[string]*model.Entity) []string {
	out := make([]string, 0, len(entities))
	for id := range entities {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// PageRank runs power iteration with damping 0.85, convergence threshold
// 1e-6, and a 100-iteration cap. On non-convergence it returns the last
// iterate (spec.md §4.9).
func (m *Memory) PageRank() map[string]float64 {
	const damping = 0.85
	const threshold = 1e-6
	const maxIter = 100

	ids := sortedEntityIDs(m.entities)
	n := len(ids)
	if n == 0 {
		return map[string]float64{}
	}
	adj := m.undirectedAdjacency()
	rank := make(map[string]float64, n)
	for _, id := range ids {
		rank[id] = 1.0 / float64(n)
	}
	for iter := 0; iter < maxIter; iter++ {
		next := make(map[string]float64, n)
		base := (1 - damping) / float64(n)
		for _, id := range ids {
			next[id] = base
		}
		for _, id := range ids {
			neighbors := adj[id]
			if len(neighbors) == 0 {
				share := damping * rank[id] / float64(n)
				for _, other := range ids {
					next[other] += share
				}
				continue
			}
			share := damping * rank[id] / float64(len(neighbors))
			for neighbor := range neighbors {
				next[neighbor] += share
			}
		}
		delta := 0.0
		for _, id := range ids {
			delta += math.Abs(next[id] - rank[id])
		}
		rank = next
		if delta < threshold {
			break
		}
	}
	return rank
}

func (m *Memory) MostConnected(topN int) []ConnectedEntity {
	degree := m.DegreeCentrality()
	n := len(m.entities)
	out := make([]ConnectedEntity, 0, len(degree))
	for id, d := range degree {
		e := m.entities[id]
		out = append(out, ConnectedEntity{ID: id, Name: e.Name, Degree: int(math.Round(d * float64(n-1)))})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Degree != out[j].Degree {
			return out[i].Degree > out[j].Degree
		}
		return out[i].ID < out[j].ID
	})
	if topN > 0 && topN < len(out) {
		out = out[:topN]
	}
	return out
}

// RiskScore computes spec.md §4.9's per-entity exposure composite:
// 10*v + 25*crit_v + 2*deg + 20*internet_edges, clamped to [0, 100]. v is
// the count of directly connected vulnerability entities, crit_v the
// subset of those with a "critical" severity field, deg the entity's raw
// undirected degree, and internet_edges the number of distinct adjacent
// system or network entities whose internet_facing field is true.
func (m *Memory) RiskScore(id string) (float64, error) {
	if _, ok := m.entities[id]; !ok {
		return 0, model.NewError(model.ErrNotFound, "entity %q not found", id)
	}
	adj := m.undirectedAdjacency()
	deg := len(adj[id])

	var v, critV, internetEdges int
	for neighborID := range adj[id] {
		other := m.entities[neighborID]
		if other == nil {
			continue
		}
		if other.Type == model.TypeVulnerability {
			v++
			if other.GetString("severity") == "critical" {
				critV++
			}
		}
		if (other.Type == model.TypeSystem || other.Type == model.TypeNetwork) && other.GetBool("internet_facing") {
			internetEdges++
		}
	}

	score := 10*float64(v) + 25*float64(critV) + 2*float64(deg) + 20*float64(internetEdges)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, nil
}

func (m *Memory) Statistics() Statistics {
	byType := make(map[model.EntityType]int, len(m.byKind))
	for kind, ids := range m.byKind {
		byType[kind] = len(ids)
	}
	byRel := make(map[model.RelationshipType]int, len(m.byRelType))
	for typ, ids := range m.byRelType {
		byRel[typ] = len(ids)
	}
	n := len(m.entities)
	relCount := len(m.relationships)
	density := 0.0
	if n > 1 {
		density = float64(relCount) / float64(n*(n-1))
	}
	adj := m.undirectedAdjacency()
	components := countComponents(adj)
	return Statistics{
		EntityCount:         n,
		RelationshipCount:   relCount,
		CountsByType:        byType,
		CountsByRelType:     byRel,
		Density:             density,
		WeaklyConnected:     components <= 1,
		ConnectedComponents: components,
	}
}

func countComponents(adj map[string]map[string]bool) int {
	visited := make(map[string]bool, len(adj))
	components := 0
	for start := range adj {
		if visited[start] {
			continue
		}
		components++
		queue := []string{start}
		visited[start] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for next := range adj[cur] {
				if !visited[next] {
					visited[next] = true
					queue = append(queue, next)
				}
			}
		}
	}
	return components
}

func (m *Memory) Clear() {
	*m = *New()
}

var _ fmt.Stringer = Direction("")

func (d Direction) String() string { return string(d) }
