package atp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergent-company/orgtwin/internal/engine"
	"github.com/emergent-company/orgtwin/internal/generator"
	"github.com/emergent-company/orgtwin/internal/ioexport"
	"github.com/emergent-company/orgtwin/internal/model"
	"github.com/emergent-company/orgtwin/internal/scaling"
	"github.com/emergent-company/orgtwin/internal/state"
	"github.com/emergent-company/orgtwin/internal/weaver"
)

func dispatcherWithGraph(t *testing.T) *Dispatcher {
	t.Helper()
	eng := engine.New()
	ctx := generator.NewContext(eng, scaling.OrgProfile{Industry: scaling.Technology, EmployeeCount: 150}, 3)
	require.NoError(t, (&generator.Orchestrator{}).Run(ctx))
	require.NoError(t, (&weaver.Weaver{}).WeaveAll(ctx))

	data, err := ioexport.Export(eng)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	svc := state.New(false)
	require.NoError(t, svc.Load(path))
	return New(svc, nil)
}

func call(t *testing.T, d *Dispatcher, tool string, args map[string]any) (Response, bool) {
	t.Helper()
	var raw json.RawMessage
	if args != nil {
		b, err := json.Marshal(args)
		require.NoError(t, err)
		raw = b
	}
	result, isErr := d.Call(context.Background(), Request{Tool: tool, Arguments: raw})
	if isErr {
		return Response{}, true
	}
	return result.(Response), false
}

func callErr(t *testing.T, d *Dispatcher, tool string, args map[string]any) ErrorResponse {
	t.Helper()
	var raw json.RawMessage
	if args != nil {
		b, err := json.Marshal(args)
		require.NoError(t, err)
		raw = b
	}
	result, isErr := d.Call(context.Background(), Request{Tool: tool, Arguments: raw})
	require.True(t, isErr)
	return result.(ErrorResponse)
}

func TestUnknownToolReturnsValidationError(t *testing.T) {
	d := dispatcherWithGraph(t)
	errResp := callErr(t, d, "not_a_real_tool", nil)
	assert.Equal(t, model.ErrValidation, errResp.Error.Kind)
}

func TestGetStatisticsReturnsNonZeroCounts(t *testing.T) {
	d := dispatcherWithGraph(t)
	resp, isErr := call(t, d, "get_statistics", nil)
	require.False(t, isErr)
	stats := resp.Result.(engine.Statistics)
	assert.Greater(t, stats.EntityCount, 0)
}

func TestListEntitiesRespectsTypeFilter(t *testing.T) {
	d := dispatcherWithGraph(t)
	resp, isErr := call(t, d, "list_entities", map[string]any{"type": string(model.TypeSystem), "limit": 5})
	require.False(t, isErr)
	entities := resp.Result.([]map[string]any)
	assert.LessOrEqual(t, len(entities), 5)
	for _, e := range entities {
		assert.Equal(t, string(model.TypeSystem), e["entity_type"])
		assert.NotContains(t, e, "created_at")
		assert.NotContains(t, e, "version")
	}
}

func TestGetEntityNotFoundSurfacesErrNotFound(t *testing.T) {
	d := dispatcherWithGraph(t)
	errResp := callErr(t, d, "get_entity", map[string]any{"id": "does-not-exist"})
	assert.Equal(t, model.ErrNotFound, errResp.Error.Kind)
}

func TestGetEntityMissingIDIsValidationError(t *testing.T) {
	d := dispatcherWithGraph(t)
	errResp := callErr(t, d, "get_entity", map[string]any{})
	assert.Equal(t, model.ErrValidation, errResp.Error.Kind)
}

func TestSearchEntitiesFindsSeededNames(t *testing.T) {
	d := dispatcherWithGraph(t)
	listResp, isErr := call(t, d, "list_entities", map[string]any{"type": string(model.TypeSystem), "limit": 1})
	require.False(t, isErr)
	first := listResp.Result.([]map[string]any)[0]
	name := first["name"].(string)

	resp, isErr := call(t, d, "search_entities", map[string]any{"query": name, "limit": 5})
	require.False(t, isErr)
	results := resp.Result.([]map[string]any)
	assert.NotEmpty(t, results)
}

func TestComputeCentralityUnsupportedMetric(t *testing.T) {
	d := dispatcherWithGraph(t)
	errResp := callErr(t, d, "compute_centrality", map[string]any{"metric": "closeness"})
	assert.Equal(t, model.ErrUnsupported, errResp.Error.Kind)
}

func TestComputeCentralityDegreeReturnsTopN(t *testing.T) {
	d := dispatcherWithGraph(t)
	resp, isErr := call(t, d, "compute_centrality", map[string]any{"metric": "degree", "top_n": 5})
	require.False(t, isErr)
	rows := resp.Result.([]scoredEntity)
	assert.LessOrEqual(t, len(rows), 5)
}

func TestFindShortestPathSameNodeIsSingleton(t *testing.T) {
	d := dispatcherWithGraph(t)
	listResp, _ := call(t, d, "list_entities", map[string]any{"type": string(model.TypeSystem), "limit": 1})
	id := listResp.Result.([]map[string]any)[0]["id"].(string)

	resp, isErr := call(t, d, "find_shortest_path", map[string]any{"src": id, "tgt": id})
	require.False(t, isErr)
	assert.Equal(t, []string{id}, resp.Result)
}

func TestAddRelationshipRejectsUnknownType(t *testing.T) {
	d := dispatcherWithGraph(t)
	listResp, _ := call(t, d, "list_entities", map[string]any{"type": string(model.TypeSystem), "limit": 2})
	entities := listResp.Result.([]map[string]any)
	errResp := callErr(t, d, "add_relationship_tool", map[string]any{
		"type": "not_a_real_relationship",
		"src":  entities[0]["id"], "tgt": entities[1]["id"],
	})
	assert.Equal(t, model.ErrSchemaViolation, errResp.Error.Kind)
}

func TestAddRelationshipSucceedsAndReturnsCompactedRelationship(t *testing.T) {
	d := dispatcherWithGraph(t)
	listResp, _ := call(t, d, "list_entities", map[string]any{"type": string(model.TypeSystem), "limit": 5})
	systems := listResp.Result.([]map[string]any)
	require.GreaterOrEqual(t, len(systems), 2)

	resp, isErr := call(t, d, "add_relationship_tool", map[string]any{
		"type": string(model.RelDependsOn),
		"src":  systems[0]["id"], "tgt": systems[1]["id"],
		"weight": 0.9, "confidence": 0.9,
	})
	require.False(t, isErr)
	result := resp.Result.(map[string]any)
	assert.NotEmpty(t, result["id"])
	assert.Equal(t, string(model.RelDependsOn), result["relationship_type"])
	assert.Equal(t, systems[0]["id"], result["source_id"])
	assert.Equal(t, systems[1]["id"], result["target_id"])
	assert.NotContains(t, result, "created_at", "compact() strips temporal fields")
}

func TestAddRelationshipsBatchRejectsOversizedBatch(t *testing.T) {
	d := dispatcherWithGraph(t)
	items := make([]any, MaxBatchSize+1)
	for i := range items {
		items[i] = map[string]any{"type": string(model.RelDependsOn), "src": "x", "tgt": "y"}
	}
	errResp := callErr(t, d, "add_relationships_batch", map[string]any{"relationships": items})
	assert.Equal(t, model.ErrBatchRejected, errResp.Error.Kind)
}

func TestAddRelationshipsBatchIsAllOrNothing(t *testing.T) {
	d := dispatcherWithGraph(t)
	before, _ := call(t, d, "get_statistics", nil)
	beforeCount := before.Result.(engine.Statistics).RelationshipCount

	listResp, _ := call(t, d, "list_entities", map[string]any{"type": string(model.TypeSystem), "limit": 3})
	systems := listResp.Result.([]map[string]any)
	require.GreaterOrEqual(t, len(systems), 3)

	batch := []any{
		map[string]any{"type": string(model.RelDependsOn), "src": systems[0]["id"], "tgt": systems[1]["id"]},
		map[string]any{"type": "bogus_type", "src": systems[1]["id"], "tgt": systems[2]["id"]},
	}
	errResp := callErr(t, d, "add_relationships_batch", map[string]any{"relationships": batch})
	assert.Equal(t, model.ErrBatchRejected, errResp.Error.Kind)

	after, _ := call(t, d, "get_statistics", nil)
	afterCount := after.Result.(engine.Statistics).RelationshipCount
	assert.Equal(t, beforeCount, afterCount)
}

func TestAddRelationshipsBatchSucceedsAndReturnsCompactedRelationships(t *testing.T) {
	d := dispatcherWithGraph(t)
	listResp, _ := call(t, d, "list_entities", map[string]any{"type": string(model.TypeSystem), "limit": 3})
	systems := listResp.Result.([]map[string]any)
	require.GreaterOrEqual(t, len(systems), 3)

	batch := []any{
		map[string]any{"type": string(model.RelDependsOn), "src": systems[0]["id"], "tgt": systems[1]["id"]},
		map[string]any{"type": string(model.RelDependsOn), "src": systems[1]["id"], "tgt": systems[2]["id"]},
	}
	resp, isErr := call(t, d, "add_relationships_batch", map[string]any{"relationships": batch})
	require.False(t, isErr)
	result := resp.Result.(map[string]any)
	rels := result["relationships"].([]map[string]any)
	require.Len(t, rels, 2)
	for _, r := range rels {
		assert.NotEmpty(t, r["id"])
		assert.Equal(t, string(model.RelDependsOn), r["relationship_type"])
	}
}

func TestRemoveRelationshipNotFound(t *testing.T) {
	d := dispatcherWithGraph(t)
	errResp := callErr(t, d, "remove_relationship_tool", map[string]any{"id": "does-not-exist"})
	assert.Equal(t, model.ErrNotFound, errResp.Error.Kind)
}

func TestLoadGraphWithoutPathIsValidationError(t *testing.T) {
	svc := state.New(false)
	d := New(svc, nil)
	errResp := callErr(t, d, "load_graph", map[string]any{})
	assert.Equal(t, model.ErrValidation, errResp.Error.Kind)
}

func TestCallOnToolRequiringGraphBeforeAnyLoadFails(t *testing.T) {
	svc := state.New(false)
	d := New(svc, nil)
	errResp := callErr(t, d, "get_statistics", nil)
	assert.Equal(t, model.ErrNoGraphLoaded, errResp.Error.Kind)
}
