/*
Package domain contains the core data model of the flowchart service.

It defines the graph entities stored by the service and the rules a flowchart must
satisfy before it can be persisted. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Node: A vertex of the flowchart, identified by a string ID with an optional label.
  - Edge: A directed connection between two node IDs of the same flowchart.
  - Flowchart: An identified, ordered collection of Nodes and Edges.
  - ValidationError: The list of violations that make a candidate flowchart unstorable.
*/
package domain
