package dsl

import (
	"fmt"

	"github.com/aretw0/flowcharts/pkg/domain"
)

// Builder manages the flowchart construction.
// Nodes and edges keep the order in which they were added.
type Builder struct {
	order []string
	nodes map[string]*NodeBuilder
}

// New creates a new flowchart builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[string]*NodeBuilder),
	}
}

// Add creates a new node in the flowchart.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node:    domain.Node{ID: id},
		builder: b,
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Build assembles and validates the flowchart.
// Edges to nodes that were never added are reported as dangling references.
func (b *Builder) Build() (*domain.Flowchart, error) {
	nodes := make([]domain.Node, 0, len(b.order))
	var edges []domain.Edge
	for _, id := range b.order {
		nb := b.nodes[id]
		nodes = append(nodes, nb.node)
		for _, target := range nb.targets {
			edges = append(edges, domain.Edge{Source: id, Target: target})
		}
	}

	fc := domain.New(nodes, edges)
	if err := fc.Validate(); err != nil {
		return nil, fmt.Errorf("failed to build flowchart: %w", err)
	}
	return fc, nil
}

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    domain.Node
	targets []string
	builder *Builder
}

// Label sets the display label of the node.
func (n *NodeBuilder) Label(label string) *NodeBuilder {
	n.node.Label = label
	return n
}

// Go adds an edge from this node to each target. Repeated targets produce duplicate edges.
func (n *NodeBuilder) Go(targets ...string) *NodeBuilder {
	n.targets = append(n.targets, targets...)
	return n
}

// Add is a shortcut for continuing the chain on the parent builder.
func (n *NodeBuilder) Add(id string) *NodeBuilder {
	return n.builder.Add(id)
}
