// Package engine is the single point of access to the graph (spec.md §4.1).
// Every other component — generator, weaver, analytics, tool dispatcher,
// exporters — goes through the Engine interface, never a concrete backend.
package engine

import (
	"github.com/emergent-company/orgtwin/internal/model"
)

// Direction selects which incident edges Neighbors/Relationships considers.
type Direction string

const (
	DirIn   Direction = "in"
	DirOut  Direction = "out"
	DirBoth Direction = "both"
)

// Statistics summarizes the graph's shape.
type Statistics struct {
	EntityCount        int                          `json:"entity_count"`
	RelationshipCount  int                          `json:"relationship_count"`
	CountsByType       map[model.EntityType]int     `json:"counts_by_type"`
	CountsByRelType     map[model.RelationshipType]int `json:"counts_by_relationship_type"`
	Density            float64                      `json:"density"`
	WeaklyConnected    bool                          `json:"weakly_connected"`
	ConnectedComponents int                          `json:"connected_components"`
}

// NeighborFilter narrows Neighbors/Relationships to one relationship type
// and/or one target entity kind. Empty strings mean "no filter".
type NeighborFilter struct {
	RelType string
	Kind    model.EntityType
}

// Engine is the stable contract every consumer programs against. Names
// mirror spec.md §4.1; the operation set, not the Go method names, is the
// contract.
type Engine interface {
	AddEntity(e *model.Entity) (string, error)
	AddEntitiesBulk(es []*model.Entity) ([]string, error)
	GetEntity(id string) (*model.Entity, error)
	UpdateEntity(id string, patch map[string]any) (*model.Entity, error)
	RemoveEntity(id string) (bool, error)
	ListEntities(kind model.EntityType, limit int) []*model.Entity

	AddRelationship(r *model.Relationship) (string, error)
	AddRelationshipsBulk(rs []*model.Relationship) ([]string, error)
	GetRelationship(id string) (*model.Relationship, error)
	RemoveRelationship(id string) (bool, error)
	Relationships(id string, dir Direction, filter NeighborFilter) []*model.Relationship

	Neighbors(id string, dir Direction, filter NeighborFilter) ([]*model.Entity, error)
	ShortestPath(src, tgt string) ([]string, bool)
	BlastRadius(id string, maxDepth int) (map[int][]*model.Entity, error)

	DegreeCentrality() map[string]float64
	BetweennessCentrality() (map[string]float64, error)
	PageRank() map[string]float64
	MostConnected(topN int) []ConnectedEntity
	RiskScore(id string) (float64, error)

	Statistics() Statistics
	Clear()
}

// ConnectedEntity pairs an entity id with its degree, used by MostConnected.
type ConnectedEntity struct {
	ID     string
	Name   string
	Degree int
}
