package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/flowcharts/pkg/domain"
	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// NewRenderer returns a function that renders markdown using glamour.
// When stdout is not a terminal the markdown is returned untouched,
// so piped output stays plain.
func NewRenderer() func(string) (string, error) {
	if !IsTerminal(os.Stdout) {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// Summary describes a flowchart as markdown: a node table and an edge list.
func Summary(fc *domain.Flowchart) string {
	var sb strings.Builder
	title := "Flowchart"
	if fc.ID != "" {
		title += " `" + fc.ID + "`"
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	fmt.Fprintf(&sb, "%d nodes, %d edges\n\n", len(fc.Nodes), len(fc.Edges))

	if len(fc.Nodes) > 0 {
		sb.WriteString("## Nodes\n\n| ID | Label |\n|---|---|\n")
		for _, n := range fc.Nodes {
			fmt.Fprintf(&sb, "| `%s` | %s |\n", n.ID, escapeCell(n.Label))
		}
		sb.WriteString("\n")
	}

	if len(fc.Edges) > 0 {
		sb.WriteString("## Edges\n\n")
		for _, e := range fc.Edges {
			fmt.Fprintf(&sb, "- `%s` → `%s`\n", e.Source, e.Target)
		}
	}
	return sb.String()
}

// EdgeList renders edges as a markdown bullet list.
func EdgeList(title string, edges []domain.Edge) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", title)
	if len(edges) == 0 {
		sb.WriteString("_none_\n")
	}
	for _, e := range edges {
		fmt.Fprintf(&sb, "- `%s` → `%s`\n", e.Source, e.Target)
	}
	return sb.String()
}

// NodeList renders node IDs as a markdown bullet list.
func NodeList(title string, ids []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", title)
	if len(ids) == 0 {
		sb.WriteString("_none_\n")
	}
	for _, id := range ids {
		fmt.Fprintf(&sb, "- `%s`\n", id)
	}
	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
