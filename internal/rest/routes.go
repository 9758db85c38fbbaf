package rest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/emergent-company/orgtwin/internal/atp"
)

// callTool marshals args to a Request and runs it through the dispatcher,
// writing either the tool's result or an error response.
func (s *Server) callTool(w http.ResponseWriter, r *http.Request, tool string, args map[string]any) {
	raw, err := json.Marshal(args)
	if err != nil {
		writeGenericBadRequest(w, "encoding arguments")
		return
	}
	result, isErr := s.dispatcher.Call(r.Context(), atp.Request{Tool: tool, Arguments: raw})
	if isErr {
		writeModelError(w, result.(atp.ErrorResponse))
		return
	}
	writeJSON(w, http.StatusOK, result.(atp.Response).Result)
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	s.callTool(w, r, "get_statistics", nil)
}

func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.callTool(w, r, "list_entities", map[string]any{
		"type":  q.Get("type"),
		"limit": queryInt(r, "limit", 50),
	})
}

func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validID(id) {
		writeGenericBadRequest(w, "invalid id")
		return
	}
	s.callTool(w, r, "get_entity", map[string]any{"id": id})
}

func (s *Server) handleGetNeighbors(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validID(id) {
		writeGenericBadRequest(w, "invalid id")
		return
	}
	q := r.URL.Query()
	s.callTool(w, r, "get_neighbors", map[string]any{
		"id":                id,
		"direction":         q.Get("direction"),
		"relationship_type": q.Get("relationship_type"),
	})
}

func (s *Server) handleShortestPath(w http.ResponseWriter, r *http.Request) {
	src, tgt := chi.URLParam(r, "src"), chi.URLParam(r, "tgt")
	if !validID(src) || !validID(tgt) {
		writeGenericBadRequest(w, "invalid id")
		return
	}
	s.callTool(w, r, "find_shortest_path", map[string]any{"src": src, "tgt": tgt})
}

func (s *Server) handleBlastRadius(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validID(id) {
		writeGenericBadRequest(w, "invalid id")
		return
	}
	s.callTool(w, r, "get_blast_radius", map[string]any{
		"id":    id,
		"depth": queryInt(r, "max_depth", 3),
	})
}

func (s *Server) handleCentrality(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.callTool(w, r, "compute_centrality", map[string]any{
		"metric": q.Get("metric"),
		"top_n":  queryInt(r, "top_n", 20),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.callTool(w, r, "search_entities", map[string]any{
		"query": q.Get("q"),
		"type":  q.Get("type"),
		"limit": queryInt(r, "limit", 10),
	})
}

// handleAsk is a thin wrapper over search + neighbour expansion
// (spec.md §6.2): it searches for the query, then expands the top hit's
// neighbours so a caller gets a small answer-shaped payload in one call.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query string `json:"query"`
		Type  string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeGenericBadRequest(w, "decoding request body")
		return
	}
	raw, err := json.Marshal(map[string]any{"query": body.Query, "type": body.Type, "limit": 5})
	if err != nil {
		writeGenericBadRequest(w, "encoding arguments")
		return
	}
	result, isErr := s.dispatcher.Call(r.Context(), atp.Request{Tool: "search_entities", Arguments: raw})
	if isErr {
		writeModelError(w, result.(atp.ErrorResponse))
		return
	}
	hits, _ := result.(atp.Response).Result.([]map[string]any)
	if len(hits) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{"hits": hits})
		return
	}
	topID, _ := hits[0]["id"].(string)
	nraw, _ := json.Marshal(map[string]any{"id": topID})
	nresult, nIsErr := s.dispatcher.Call(r.Context(), atp.Request{Tool: "get_neighbors", Arguments: nraw})
	neighbors := any(nil)
	if !nIsErr {
		neighbors = nresult.(atp.Response).Result
	}
	writeJSON(w, http.StatusOK, map[string]any{"hits": hits, "top_match_neighbors": neighbors})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeGenericBadRequest(w, "decoding request body")
		return
	}
	s.callTool(w, r, "load_graph", map[string]any{"path": body.Path})
}

// handleOpenAITools lists tool definitions for OpenAI-style function
// calling (spec.md §6.2), reusing the ATP registry directly so the tool
// set is specified exactly once.
func (s *Server) handleOpenAITools(w http.ResponseWriter, r *http.Request) {
	names := s.dispatcher.Registry.Names()
	defs := make([]map[string]any, 0, len(names))
	for _, name := range names {
		tool := s.dispatcher.Registry.Get(name)
		defs = append(defs, map[string]any{
			"name":        tool.Name(),
			"description": tool.Description(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": defs})
}

func (s *Server) handleOpenAICall(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeGenericBadRequest(w, "decoding request body")
		return
	}
	s.callTool(w, r, body.Name, body.Arguments)
}

func (s *Server) handleAddRelationship(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeGenericBadRequest(w, "decoding request body")
		return
	}
	s.callTool(w, r, "add_relationship_tool", body)
}

func (s *Server) handleAddRelationshipsBatch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Relationships []any `json:"relationships"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeGenericBadRequest(w, "decoding request body")
		return
	}
	s.callTool(w, r, "add_relationships_batch", map[string]any{"relationships": body.Relationships})
}

func (s *Server) handleRemoveRelationship(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !validID(id) {
		writeGenericBadRequest(w, "invalid id")
		return
	}
	s.callTool(w, r, "remove_relationship_tool", map[string]any{"id": id})
}
