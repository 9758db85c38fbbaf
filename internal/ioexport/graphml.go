package ioexport

import (
	"encoding/xml"
	"fmt"
	"io"
)

// graphmlDocument mirrors the minimal subset of the GraphML schema that
// NetworkX's reader understands: a <graphml> root, one <graph>, <node>
// and <edge> elements with <data> children keyed by <key> declarations.
// All attribute values are string-coerced per spec.md §4.6.
type graphmlDocument struct {
	XMLName xml.Name      `xml:"graphml"`
	Xmlns   string        `xml:"xmlns,attr"`
	Keys    []graphmlKey  `xml:"key"`
	Graph   graphmlGraph  `xml:"graph"`
}

type graphmlKey struct {
	ID     string `xml:"id,attr"`
	For    string `xml:"for,attr"`
	Name   string `xml:"attr.name,attr"`
	Type   string `xml:"attr.type,attr"`
}

type graphmlGraph struct {
	ID          string       `xml:"id,attr"`
	EdgeDefault string       `xml:"edgedefault,attr"`
	Nodes       []graphmlNode `xml:"node"`
	Edges       []graphmlEdge `xml:"edge"`
}

type graphmlNode struct {
	ID   string       `xml:"id,attr"`
	Data []graphmlData `xml:"data"`
}

type graphmlEdge struct {
	ID     string       `xml:"id,attr"`
	Source string       `xml:"source,attr"`
	Target string       `xml:"target,attr"`
	Data   []graphmlData `xml:"data"`
}

type graphmlData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

// WriteGraphML serialises g as GraphML to w. This is a secondary,
// write-only format for visualisation tooling (spec.md §4.6) — there is
// no corresponding GraphML import.
func WriteGraphML(g Graph, w io.Writer) error {
	doc := graphmlDocument{
		Xmlns: "http://graphml.graphdrawing.org/xmlns",
		Keys: []graphmlKey{
			{ID: "d_entity_type", For: "node", Name: "entity_type", Type: "string"},
			{ID: "d_name", For: "node", Name: "name", Type: "string"},
			{ID: "d_rel_type", For: "edge", Name: "relationship_type", Type: "string"},
			{ID: "d_weight", For: "edge", Name: "weight", Type: "string"},
			{ID: "d_confidence", For: "edge", Name: "confidence", Type: "string"},
		},
		Graph: graphmlGraph{ID: "orgtwin", EdgeDefault: "directed"},
	}

	for _, e := range g.Entities {
		doc.Graph.Nodes = append(doc.Graph.Nodes, graphmlNode{
			ID: e.ID,
			Data: []graphmlData{
				{Key: "d_entity_type", Value: string(e.Type)},
				{Key: "d_name", Value: e.Name},
			},
		})
	}
	for _, r := range g.Relationships {
		doc.Graph.Edges = append(doc.Graph.Edges, graphmlEdge{
			ID: r.ID, Source: r.SourceID, Target: r.TargetID,
			Data: []graphmlData{
				{Key: "d_rel_type", Value: string(r.Type)},
				{Key: "d_weight", Value: fmt.Sprintf("%.4f", r.Weight)},
				{Key: "d_confidence", Value: fmt.Sprintf("%.4f", r.Confidence)},
			},
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("writing graphml header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding graphml: %w", err)
	}
	return nil
}
