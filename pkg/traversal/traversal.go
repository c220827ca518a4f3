// Package traversal answers structural queries over a single flowchart.
//
// Both queries are read-only: they operate on the flowchart value they are
// given and never consult a store.
package traversal

import (
	"sort"

	"github.com/aretw0/flowcharts/pkg/domain"
)

// OutgoingEdges returns every edge whose source is nodeID, in flowchart order.
// An unknown node simply has no outgoing edges.
func OutgoingEdges(fc *domain.Flowchart, nodeID string) []domain.Edge {
	out := []domain.Edge{}
	if fc == nil {
		return out
	}
	for _, e := range fc.Edges {
		if e.Source == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// ConnectedComponent returns the IDs of all nodes reachable from nodeID when
// every edge is treated as undirected, nodeID included, sorted ascending.
//
// Only edges are inspected. A start ID that appears in no edge yields just
// itself, whether or not the flowchart declares such a node.
func ConnectedComponent(fc *domain.Flowchart, nodeID string) []string {
	var adjacency map[string][]string
	if fc != nil {
		adjacency = neighbours(fc.Edges)
	}

	visited := map[string]bool{nodeID: true}
	stack := []string{nodeID}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, next := range adjacency[current] {
			if visited[next] {
				continue
			}
			visited[next] = true
			stack = append(stack, next)
		}
	}

	component := make([]string, 0, len(visited))
	for id := range visited {
		component = append(component, id)
	}
	sort.Strings(component)
	return component
}

// neighbours builds an undirected adjacency list from the edge list.
func neighbours(edges []domain.Edge) map[string][]string {
	adj := make(map[string][]string)
	for _, e := range edges {
		adj[e.Source] = append(adj[e.Source], e.Target)
		if e.Source != e.Target {
			adj[e.Target] = append(adj[e.Target], e.Source)
		}
	}
	return adj
}
