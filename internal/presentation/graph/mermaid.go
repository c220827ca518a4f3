package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/flowcharts/pkg/domain"
	"github.com/aretw0/flowcharts/pkg/traversal"
)

// GraphOverlay highlights part of the graph.
type GraphOverlay struct {
	// Focus is drawn as the current node.
	Focus string
	// Highlighted nodes are drawn as visited (e.g. a connected component).
	Highlighted []string
}

// FocusOverlay highlights nodeID and every node connected to it.
func FocusOverlay(fc *domain.Flowchart, nodeID string) *GraphOverlay {
	return &GraphOverlay{
		Focus:       nodeID,
		Highlighted: traversal.ConnectedComponent(fc, nodeID),
	}
}

// GenerateMermaid produces a Mermaid flowchart syntax string.
// It applies semantic styling:
// - Source nodes (no incoming edges): ((Circle))
// - Sink nodes (no outgoing edges): ([Stadium])
// - Default: [Rectangle]
// Self loops and isolated nodes keep the default shape.
// It also applies overlay styles if provided.
func GenerateMermaid(fc *domain.Flowchart, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if fc == nil {
		return sb.String()
	}

	in := make(map[string]int, len(fc.Nodes))
	out := make(map[string]int, len(fc.Nodes))
	for _, e := range fc.Edges {
		if e.Source == e.Target {
			continue
		}
		out[e.Source]++
		in[e.Target]++
	}

	for _, node := range fc.Nodes {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch {
		case in[node.ID] == 0 && out[node.ID] > 0:
			opener, closer = "((", "))"
		case out[node.ID] == 0 && in[node.ID] > 0:
			opener, closer = "([", "])"
		}

		text := node.ID
		if node.Label != "" && node.Label != node.ID {
			text = fmt.Sprintf("%s <br/> %s", node.Label, node.ID)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(text), closer)
	}

	for _, e := range fc.Edges {
		fmt.Fprintf(&sb, "    %s --> %s\n", sanitizeMermaidID(e.Source), sanitizeMermaidID(e.Target))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		focus := sanitizeMermaidID(overlay.Focus)
		seen := make(map[string]bool)
		for _, id := range overlay.Highlighted {
			safeID := sanitizeMermaidID(id)
			if seen[safeID] || safeID == "" || safeID == focus {
				continue
			}
			seen[safeID] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
		}
		if focus != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", focus)
		}
	}

	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
