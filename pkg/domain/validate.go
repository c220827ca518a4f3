package domain

// Validate checks that a candidate flowchart can be stored.
//
// Node IDs must be unique and every edge's source and target must name a node
// from the same node list. All violations are reported together; a nil error
// means the flowchart is valid as a whole.
func Validate(nodes []Node, edges []Edge) error {
	var violations []Violation

	ids := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if _, dup := ids[n.ID]; dup {
			violations = append(violations, Violation{Kind: ErrDuplicateNode, EdgeIndex: -1, NodeID: n.ID})
			continue
		}
		ids[n.ID] = struct{}{}
	}

	for i, e := range edges {
		if _, ok := ids[e.Source]; !ok {
			violations = append(violations, Violation{Kind: ErrDanglingReference, EdgeIndex: i, Endpoint: "source", NodeID: e.Source})
		}
		if _, ok := ids[e.Target]; !ok {
			violations = append(violations, Violation{Kind: ErrDanglingReference, EdgeIndex: i, Endpoint: "target", NodeID: e.Target})
		}
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}
