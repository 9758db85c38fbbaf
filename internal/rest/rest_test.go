package rest

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergent-company/orgtwin/internal/atp"
	"github.com/emergent-company/orgtwin/internal/engine"
	"github.com/emergent-company/orgtwin/internal/generator"
	"github.com/emergent-company/orgtwin/internal/ioexport"
	"github.com/emergent-company/orgtwin/internal/metrics"
	"github.com/emergent-company/orgtwin/internal/model"
	"github.com/emergent-company/orgtwin/internal/scaling"
	"github.com/emergent-company/orgtwin/internal/state"
	"github.com/emergent-company/orgtwin/internal/weaver"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	eng := engine.New()
	ctx := generator.NewContext(eng, scaling.OrgProfile{Industry: scaling.Technology, EmployeeCount: 150}, 5)
	require.NoError(t, (&generator.Orchestrator{}).Run(ctx))
	require.NoError(t, (&weaver.Weaver{}).WeaveAll(ctx))

	data, err := ioexport.Export(eng)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	svc := state.New(false)
	require.NoError(t, svc.Load(path))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()
	d := atp.New(svc, m)
	return NewServer(d, m, logger, Config{})
}

func doGet(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)
	return rec
}

func TestStatisticsRouteReturnsOK(t *testing.T) {
	s := testServer(t)
	rec := doGet(t, s, "/statistics")
	assert.Equal(t, http.StatusOK, rec.Code)

	var stats engine.Statistics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Greater(t, stats.EntityCount, 0)
}

func TestListEntitiesRouteFiltersByType(t *testing.T) {
	s := testServer(t)
	rec := doGet(t, s, "/entities?type="+string(model.TypeSystem)+"&limit=5")
	assert.Equal(t, http.StatusOK, rec.Code)

	var entities []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entities))
	assert.LessOrEqual(t, len(entities), 5)
}

func TestGetEntityRouteRejectsBadID(t *testing.T) {
	s := testServer(t)
	rec := doGet(t, s, "/entities/"+"not%20a%20valid%20id!!")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetEntityRouteNotFoundMapsTo404(t *testing.T) {
	s := testServer(t)
	rec := doGet(t, s, "/entities/does-not-exist")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCentralityRouteUnsupportedMetricMapsTo501(t *testing.T) {
	s := testServer(t)
	rec := doGet(t, s, "/centrality?metric=closeness")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestSearchRouteReturnsHits(t *testing.T) {
	s := testServer(t)
	listRec := doGet(t, s, "/entities?type="+string(model.TypeSystem)+"&limit=1")
	var entities []map[string]any
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &entities))
	require.NotEmpty(t, entities)
	name := entities[0]["name"].(string)

	rec := doGet(t, s, "/search?q="+url.QueryEscape(name))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOpenAIToolsListsAllThirteenTools(t *testing.T) {
	s := testServer(t)
	rec := doGet(t, s, "/openai/tools")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Tools []map[string]any `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Tools, 13)
}

func TestOpenAICallDispatchesNamedTool(t *testing.T) {
	s := testServer(t)
	payload, _ := json.Marshal(map[string]any{"name": "get_statistics", "arguments": map[string]any{}})
	req := httptest.NewRequest(http.MethodPost, "/openai/call", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAddRelationshipRouteRejectsUnknownType(t *testing.T) {
	s := testServer(t)
	listRec := doGet(t, s, "/entities?type="+string(model.TypeSystem)+"&limit=2")
	var entities []map[string]any
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &entities))
	require.GreaterOrEqual(t, len(entities), 2)

	payload, _ := json.Marshal(map[string]any{
		"type": "not_a_real_relationship",
		"src":  entities[0]["id"], "tgt": entities[1]["id"],
	})
	req := httptest.NewRequest(http.MethodPost, "/relationships", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsRouteExposesPrometheusFormat(t *testing.T) {
	s := testServer(t)
	rec := doGet(t, s, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	doGet(t, s, "/statistics")
	rec2 := doGet(t, s, "/metrics")
	assert.Contains(t, rec2.Body.String(), "orgtwin_tool_calls_total")
}
