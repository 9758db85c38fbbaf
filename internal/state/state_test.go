package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergent-company/orgtwin/internal/config"
	"github.com/emergent-company/orgtwin/internal/engine"
	"github.com/emergent-company/orgtwin/internal/generator"
	"github.com/emergent-company/orgtwin/internal/model"
	"github.com/emergent-company/orgtwin/internal/scaling"
	"github.com/emergent-company/orgtwin/internal/weaver"
)

func writtenGraphFile(t *testing.T) string {
	t.Helper()
	eng := engine.New()
	ctx := generator.NewContext(eng, scaling.OrgProfile{Industry: scaling.Technology, EmployeeCount: 120}, 7)
	require.NoError(t, (&generator.Orchestrator{}).Run(ctx))
	require.NoError(t, (&weaver.Weaver{}).WeaveAll(ctx))

	svc := New(false)
	svc.SetGraph(eng)
	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, svc.Persist(path))
	return path
}

func TestRequireGraphFailsWithoutLoad(t *testing.T) {
	svc := New(false)
	_, _, err := svc.RequireGraph()
	assert.Error(t, err)
	assert.Equal(t, model.ErrNoGraphLoaded, model.KindOf(err))
}

func TestLoadThenRequireGraphSucceeds(t *testing.T) {
	path := writtenGraphFile(t)
	svc := New(false)
	require.NoError(t, svc.Load(path))

	graph, warning, err := svc.RequireGraph()
	require.NoError(t, err)
	assert.Empty(t, warning)
	assert.Greater(t, graph.Statistics().EntityCount, 0)
}

func TestPersistThenReloadRoundTrips(t *testing.T) {
	path := writtenGraphFile(t)
	svc := New(false)
	require.NoError(t, svc.Load(path))
	before, _, err := svc.RequireGraph()
	require.NoError(t, err)
	beforeCount := before.Statistics().EntityCount

	after, warning, err := svc.RequireGraph()
	require.NoError(t, err)
	assert.Empty(t, warning)
	assert.Equal(t, beforeCount, after.Statistics().EntityCount)
}

func TestRequireGraphReloadsOnExternalMtimeChange(t *testing.T) {
	path := writtenGraphFile(t)
	svc := New(false)
	require.NoError(t, svc.Load(path))

	// Simulate an external rewrite with a distinguishable mtime.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	require.NoError(t, os.Chtimes(path, future, future))

	graph, warning, err := svc.RequireGraph()
	require.NoError(t, err)
	assert.Empty(t, warning)
	assert.NotNil(t, graph)
}

func TestRequireGraphRetainsGraphOnReloadParseFailure(t *testing.T) {
	path := writtenGraphFile(t)
	svc := New(false)
	require.NoError(t, svc.Load(path))
	before, _, err := svc.RequireGraph()
	require.NoError(t, err)
	beforeCount := before.Statistics().EntityCount

	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.WriteFile(path, []byte("not valid json"), 0o644))
	require.NoError(t, os.Chtimes(path, future, future))

	graph, warning, err := svc.RequireGraph()
	require.NoError(t, err)
	assert.NotEmpty(t, warning)
	assert.Equal(t, beforeCount, graph.Statistics().EntityCount)
}

func TestRequireGraphSurvivesMissingFile(t *testing.T) {
	path := writtenGraphFile(t)
	svc := New(false)
	require.NoError(t, svc.Load(path))
	require.NoError(t, os.Remove(path))

	graph, warning, err := svc.RequireGraph()
	require.NoError(t, err)
	assert.NotEmpty(t, warning)
	assert.NotNil(t, graph)
}

func TestAutoLoadDefaultSilentlySkipsMissingFile(t *testing.T) {
	svc := New(false)
	err := svc.AutoLoadDefault(config.GraphConfig{DefaultPath: filepath.Join(t.TempDir(), "nope.json")})
	require.NoError(t, err)
	_, _, err = svc.RequireGraph()
	assert.Equal(t, model.ErrNoGraphLoaded, model.KindOf(err))
}

func TestAutoLoadDefaultLoadsExistingFile(t *testing.T) {
	path := writtenGraphFile(t)
	svc := New(false)
	require.NoError(t, svc.AutoLoadDefault(config.GraphConfig{DefaultPath: path}))
	graph, _, err := svc.RequireGraph()
	require.NoError(t, err)
	assert.Greater(t, graph.Statistics().EntityCount, 0)
}

func TestPersistWithoutGraphFails(t *testing.T) {
	svc := New(false)
	err := svc.Persist(filepath.Join(t.TempDir(), "graph.json"))
	assert.Error(t, err)
	assert.Equal(t, model.ErrNoGraphLoaded, model.KindOf(err))
}
