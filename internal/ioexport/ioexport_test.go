package ioexport

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergent-company/orgtwin/internal/engine"
	"github.com/emergent-company/orgtwin/internal/generator"
	"github.com/emergent-company/orgtwin/internal/model"
	"github.com/emergent-company/orgtwin/internal/scaling"
	"github.com/emergent-company/orgtwin/internal/weaver"
)

func smallGraph(t *testing.T) engine.Engine {
	t.Helper()
	eng := engine.New()
	ctx := generator.NewContext(eng, scaling.OrgProfile{Industry: scaling.Technology, EmployeeCount: 150}, 1)
	require.NoError(t, (&generator.Orchestrator{}).Run(ctx))
	require.NoError(t, (&weaver.Weaver{}).WeaveAll(ctx))
	return eng
}

func TestExportImportRoundTripPreservesCounts(t *testing.T) {
	eng := smallGraph(t)
	before := eng.Statistics()

	data, err := Export(eng)
	require.NoError(t, err)

	fresh := engine.New()
	require.NoError(t, Import(data, fresh, ImportOptions{}))
	after := fresh.Statistics()

	assert.Equal(t, before.EntityCount, after.EntityCount)
	assert.Equal(t, before.RelationshipCount, after.RelationshipCount)
}

func TestExportImportPreservesIDsAndMirrorFields(t *testing.T) {
	eng := smallGraph(t)
	data, err := Export(eng)
	require.NoError(t, err)

	fresh := engine.New()
	require.NoError(t, Import(data, fresh, ImportOptions{}))

	for _, sys := range eng.ListEntities(model.TypeSystem, 0) {
		imported, err := fresh.GetEntity(sys.ID)
		require.NoError(t, err)
		assert.Equal(t, sys.GetString("hosted_at_site"), imported.GetString("hosted_at_site"))
	}
}

func TestSplitThenBuildRecoversEveryEntity(t *testing.T) {
	eng := smallGraph(t)
	data, err := Export(eng)
	require.NoError(t, err)

	var g Graph
	require.NoError(t, json.Unmarshal(data, &g))

	root := t.TempDir()
	require.NoError(t, Split(g, root))

	rebuilt, err := Build(root)
	require.NoError(t, err)
	assert.Equal(t, len(g.Entities), len(rebuilt.Entities))
	assert.Equal(t, len(g.Relationships), len(rebuilt.Relationships))
}

func TestSplitProducesNoFileForAbsentTypes(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, Split(Graph{}, root))
	_, err := Build(root)
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(root, "entities", string(model.TypeRisk)+".json"))
}

func TestImportRejectsRelationshipOutsideDomainRange(t *testing.T) {
	bad := Graph{
		Entities: []*model.Entity{
			{ID: "loc-1", Type: model.TypeLocation, Name: "A", Fields: map[string]any{}},
			{ID: "risk-1", Type: model.TypeRisk, Name: "B", Fields: map[string]any{}},
		},
		Relationships: []*model.Relationship{
			{ID: "rel-1", Type: model.RelWorksIn, SourceID: "loc-1", TargetID: "risk-1", Weight: 0.5, Confidence: 0.9},
		},
	}
	data, err := json.MarshalIndent(bad, "", "  ")
	require.NoError(t, err)
	err = Import(data, engine.New(), ImportOptions{})
	assert.Error(t, err)
	assert.Equal(t, model.ErrSchemaViolation, model.KindOf(err))
}

func TestWriteGraphMLProducesWellFormedXML(t *testing.T) {
	eng := smallGraph(t)
	data, err := Export(eng)
	require.NoError(t, err)
	var g Graph
	require.NoError(t, json.Unmarshal(data, &g))

	var buf bytes.Buffer
	require.NoError(t, WriteGraphML(g, &buf))
	assert.Contains(t, buf.String(), "<graphml")
	assert.Contains(t, buf.String(), "</graphml>")
}
