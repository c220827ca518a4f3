package domain

import (
	"encoding/json"
	"fmt"
)

// DecodeGraph decodes JSON arrays of nodes and edges received at a boundary.
// A node without "id", an edge without "source" or "target", or an absent
// list is reported as an ErrMissingField violation, all of them at once.
// Malformed JSON is returned as a plain error.
func DecodeGraph(nodesJSON, edgesJSON []byte) ([]Node, []Edge, error) {
	nodes, missing, err := decodeList[Node](nodesJSON, "nodes", "id")
	if err != nil {
		return nil, nil, err
	}
	edges, missingEdges, err := decodeList[Edge](edgesJSON, "edges", "source", "target")
	if err != nil {
		return nil, nil, err
	}
	if missing = append(missing, missingEdges...); len(missing) > 0 {
		return nil, nil, &ValidationError{Violations: missing}
	}
	return nodes, edges, nil
}

func decodeList[T any](data []byte, list string, required ...string) ([]T, []Violation, error) {
	if isAbsent(data) {
		return nil, []Violation{missingField(list)}, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, nil, fmt.Errorf("%s: invalid JSON array: %w", list, err)
	}

	out := make([]T, len(elems))
	var missing []Violation
	for i, elem := range elems {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(elem, &fields); err != nil {
			return nil, nil, fmt.Errorf("%s.%d: %w", list, i, err)
		}
		for _, name := range required {
			if isAbsent(fields[name]) {
				missing = append(missing, missingField(fmt.Sprintf("%s.%d.%s", list, i, name)))
			}
		}
		if err := json.Unmarshal(elem, &out[i]); err != nil {
			return nil, nil, fmt.Errorf("%s.%d: %w", list, i, err)
		}
	}
	return out, missing, nil
}

// isAbsent treats a missing key and an explicit null alike.
func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func missingField(path string) Violation {
	return Violation{Kind: ErrMissingField, EdgeIndex: -1, Field: path}
}
