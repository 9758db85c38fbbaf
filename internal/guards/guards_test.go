package guards

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelationshipTypeKnownBlocksUnknownType(t *testing.T) {
	r := NewRunner()
	outcome := r.Run(context.Background(), &GuardContext{
		RelationshipType:      "bogus_type",
		RelationshipTypeKnown: false,
	}, RelationshipGuards())
	assert.True(t, outcome.Blocked)
}

func TestRelationshipGuardsPassValidCandidate(t *testing.T) {
	r := NewRunner()
	outcome := r.Run(context.Background(), &GuardContext{
		RelationshipType:      "works_in",
		RelationshipTypeKnown: true,
		SourceExists:          true,
		TargetExists:          true,
		DomainRangeOK:         true,
		Weight:                0.8,
		Confidence:            0.9,
		ID:                    "rel-1",
	}, RelationshipGuards())
	assert.False(t, outcome.Blocked)
}

func TestEndpointsExistBlocksMissingSource(t *testing.T) {
	r := NewRunner()
	outcome := r.Run(context.Background(), &GuardContext{
		RelationshipType: "works_in", RelationshipTypeKnown: true,
		SourceExists: false, TargetExists: true,
	}, RelationshipGuards())
	assert.True(t, outcome.Blocked)
}

func TestDomainRangeBlocksWrongKinds(t *testing.T) {
	r := NewRunner()
	outcome := r.Run(context.Background(), &GuardContext{
		RelationshipType: "works_in", RelationshipTypeKnown: true,
		SourceExists: true, TargetExists: true, DomainRangeOK: false,
		SourceKind: "location", TargetKind: "risk",
	}, RelationshipGuards())
	assert.True(t, outcome.Blocked)
}

func TestMetadataRangeBlocksOutOfRangeWeight(t *testing.T) {
	r := NewRunner()
	outcome := r.Run(context.Background(), &GuardContext{
		RelationshipType: "works_in", RelationshipTypeKnown: true,
		SourceExists: true, TargetExists: true, DomainRangeOK: true,
		Weight: 1.5, Confidence: 0.5,
	}, RelationshipGuards())
	assert.True(t, outcome.Blocked)
}

func TestIDFormatBlocksInvalidCharacters(t *testing.T) {
	r := NewRunner()
	outcome := r.Run(context.Background(), &GuardContext{
		RelationshipType: "works_in", RelationshipTypeKnown: true,
		SourceExists: true, TargetExists: true, DomainRangeOK: true,
		Weight: 0.5, Confidence: 0.5, ID: "bad id!",
	}, RelationshipGuards())
	assert.True(t, outcome.Blocked)
}

func TestBatchSizeLimitBlocksOversizedBatch(t *testing.T) {
	r := NewRunner()
	outcome := r.Run(context.Background(), &GuardContext{BatchSize: 501, MaxBatchSize: 500}, BatchGuards())
	assert.True(t, outcome.Blocked)
}

func TestBatchSizeLimitPassesWithinBound(t *testing.T) {
	r := NewRunner()
	outcome := r.Run(context.Background(), &GuardContext{BatchSize: 500, MaxBatchSize: 500}, BatchGuards())
	assert.False(t, outcome.Blocked)
}

func TestFormatBlockMessageListsHardBlocks(t *testing.T) {
	r := NewRunner()
	outcome := r.Run(context.Background(), &GuardContext{
		RelationshipType: "bogus", RelationshipTypeKnown: false,
	}, RelationshipGuards())
	msg := outcome.FormatBlockMessage()
	assert.Contains(t, msg, "relationship_type_known")
}
