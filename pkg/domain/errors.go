package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFlowchartNotFound is returned when a flowchart ID cannot be found in the store.
var ErrFlowchartNotFound = errors.New("flowchart not found")

// ErrInvalidFlowchart is matched by every validation failure.
var ErrInvalidFlowchart = errors.New("invalid flowchart")

// ErrNilFlowchart is returned when a store is handed no flowchart at all.
var ErrNilFlowchart = fmt.Errorf("%w: nil flowchart", ErrInvalidFlowchart)

// ErrDanglingReference marks an edge endpoint that names no node of the flowchart.
var ErrDanglingReference = errors.New("edge references non-existent node")

// ErrDuplicateNode marks a node ID that occurs more than once in a flowchart.
var ErrDuplicateNode = errors.New("duplicate node id")

// ErrMissingField marks a required node or edge field absent from decoded input.
var ErrMissingField = errors.New("field required")

// Violation is a single reason a flowchart was rejected.
type Violation struct {
	Kind error `json:"-"`
	// EdgeIndex is the position of the offending edge, or -1 for node violations.
	EdgeIndex int    `json:"edge_index"`
	Endpoint  string `json:"endpoint,omitempty"` // "source" or "target"
	NodeID    string `json:"node_id"`
	// Field is the path of an absent required field, such as "nodes.1.id".
	Field string `json:"field,omitempty"`
}

func (v Violation) String() string {
	if v.Field != "" {
		return fmt.Sprintf("%s: %v", v.Field, v.Kind)
	}
	if v.EdgeIndex < 0 {
		return fmt.Sprintf("%v: %q", v.Kind, v.NodeID)
	}
	return fmt.Sprintf("edge %d %s: %v: %q", v.EdgeIndex, v.Endpoint, v.Kind, v.NodeID)
}

// ValidationError lists every violation found in a candidate flowchart.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 1 {
		return fmt.Sprintf("%v: %s", ErrInvalidFlowchart, e.Violations[0])
	}
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("%v: %d violations: %s", ErrInvalidFlowchart, len(e.Violations), strings.Join(parts, "; "))
}

// Is lets errors.Is match ErrInvalidFlowchart and the kind of any violation.
func (e *ValidationError) Is(target error) bool {
	if target == ErrInvalidFlowchart {
		return true
	}
	for _, v := range e.Violations {
		if v.Kind == target {
			return true
		}
	}
	return false
}

// Details returns the human-readable form of each violation.
func (e *ValidationError) Details() []string {
	out := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		out[i] = v.String()
	}
	return out
}

// ValidationDetails returns the violation messages if err is a ValidationError.
// Otherwise returns nil.
func ValidationDetails(err error) []string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Details()
	}
	return nil
}
