/*
Package flowcharts is a storage and query service for flowchart graphs.

A flowchart is an ordered list of labeled nodes and an ordered list of directed
edges between them. The service stores flowcharts under server-assigned IDs,
rejects flowcharts whose edges point at missing nodes, and answers two graph
queries: the outgoing edges of a node, and the set of nodes connected to a node
when edges are treated as undirected.

# Concept

The Manager is the entry point. It validates input, serializes access per
flowchart, delegates persistence to a ports.FlowchartStore and runs the
traversal package against the stored value. Transport adapters (HTTP, MCP) and
the CLI are thin layers on top of it.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/flowcharts"
		"github.com/aretw0/flowcharts/pkg/domain"
	)

	func main() {
		ctx := context.Background()
		m := flowcharts.New() // in-memory store

		id, err := m.Create(ctx,
			[]domain.Node{{ID: "start"}, {ID: "end"}},
			[]domain.Edge{{Source: "start", Target: "end"}},
		)
		if err != nil {
			log.Fatal(err)
		}

		nodes, err := m.ConnectedNodes(ctx, id, "end")
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(nodes) // [end start]
	}
*/
package flowcharts
