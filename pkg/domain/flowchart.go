package domain

// Node represents a vertex in a flowchart.
type Node struct {
	ID    string `json:"id" yaml:"id" mapstructure:"id"`
	Label string `json:"label" yaml:"label,omitempty" mapstructure:"label"`
}

// Edge is a directed connection between two nodes of the same flowchart.
// Direction matters for outgoing-edge lookups but not for connectivity.
type Edge struct {
	Source string `json:"source" yaml:"source" mapstructure:"source"`
	Target string `json:"target" yaml:"target" mapstructure:"target"`
}

// Flowchart is an identified graph of nodes and edges.
// The ID is assigned by the store on creation and never changes afterwards.
type Flowchart struct {
	ID    string `json:"id" yaml:"id,omitempty" mapstructure:"id"`
	Nodes []Node `json:"nodes" yaml:"nodes" mapstructure:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges" mapstructure:"edges"`
}

// New builds a flowchart without an ID, ready to be handed to a store.
func New(nodes []Node, edges []Edge) *Flowchart {
	fc := &Flowchart{Nodes: nodes, Edges: edges}
	fc.Normalize()
	return fc
}

// Normalize replaces nil node and edge slices with empty ones so the
// flowchart always encodes as arrays.
func (f *Flowchart) Normalize() {
	if f.Nodes == nil {
		f.Nodes = []Node{}
	}
	if f.Edges == nil {
		f.Edges = []Edge{}
	}
}

// Clone returns a deep copy of the flowchart.
// Stores hand out clones so callers can never mutate stored state.
func (f *Flowchart) Clone() *Flowchart {
	if f == nil {
		return nil
	}
	c := &Flowchart{
		ID:    f.ID,
		Nodes: make([]Node, len(f.Nodes)),
		Edges: make([]Edge, len(f.Edges)),
	}
	copy(c.Nodes, f.Nodes)
	copy(c.Edges, f.Edges)
	return c
}

// HasNode reports whether a node with the given ID is part of the flowchart.
func (f *Flowchart) HasNode(id string) bool {
	for _, n := range f.Nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}

// Validate checks the flowchart's nodes and edges. See Validate.
// A nil flowchart is rejected with ErrNilFlowchart.
func (f *Flowchart) Validate() error {
	if f == nil {
		return ErrNilFlowchart
	}
	return Validate(f.Nodes, f.Edges)
}
