// Package atp implements the tool dispatcher (C9): a fixed 13-tool
// registry shared by the line-delimited stdio transport and the REST
// adapter (spec.md §4.8, §6.1).
package atp

import (
	"encoding/json"

	"github.com/emergent-company/orgtwin/internal/model"
)

// Request is one line of the ATP wire protocol (spec.md §6.1):
// {"tool": "<name>", "arguments": {...}}.
type Request struct {
	Tool      string          `json:"tool"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Response is the success shape: {"result": <value>}.
type Response struct {
	Result any `json:"result"`
}

// ErrorResponse is the failure shape:
// {"error": {"kind": <enum>, "message": <string>}}.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries the closed error-kind enum from spec.md §7/§6.1.
type ErrorBody struct {
	Kind    model.ErrorKind `json:"kind"`
	Message string          `json:"message"`
}

// NewErrorResponse builds the wire error shape from any error, defaulting
// to ErrInternal for errors not produced via model.NewError/model.Wrap.
func NewErrorResponse(err error) ErrorResponse {
	return ErrorResponse{ErrorBody{Kind: model.KindOf(err), Message: err.Error()}}
}

// temporalAndMetadataFields are stripped by compact() alongside any
// null/empty-string/empty-list field (spec.md §4.8 "Compact serialisation").
var temporalAndMetadataFields = map[string]bool{
	"created_at": true, "updated_at": true,
	"valid_from": true, "valid_until": true,
	"version": true, "metadata": true,
}

// compactEntity drops temporal fields, the metadata bag, and any
// null/empty-string/empty-list field from an entity's JSON representation.
// Read tools and the REST adapter share this transform; exports (ioexport)
// never call it, retaining full fidelity.
func compactEntity(e *model.Entity) (map[string]any, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	return compactMap(raw), nil
}

func compactRelationship(r *model.Relationship) (map[string]any, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	return compactMap(raw), nil
}

func compactMap(raw map[string]any) map[string]any {
	for k, v := range raw {
		if temporalAndMetadataFields[k] || isEmptyValue(v) {
			delete(raw, k)
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			raw[k] = compactMap(nested)
		}
	}
	return raw
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}

// compactEntities maps compactEntity over a slice, returning [] rather
// than nil on an empty input so it serialises as a JSON array.
func compactEntities(es []*model.Entity) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(es))
	for _, e := range es {
		c, err := compactEntity(e)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
