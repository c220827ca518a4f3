package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/flowcharts/internal/document"
	"github.com/aretw0/flowcharts/internal/presentation/tui"
	"github.com/aretw0/flowcharts/pkg/traversal"
	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query <file> <outgoing|connected|summary> [node]",
	Short: "Query a flowchart document",
	Long: `Runs a query against a YAML or JSON flowchart document:

  outgoing <node>   edges whose source is <node>
  connected <node>  nodes connected to <node>, ignoring edge direction
  summary           a table of nodes and edges`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		fc, err := document.LoadFile(args[0])
		if err != nil {
			return err
		}
		if err := fc.Validate(); err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		kind := args[1]

		var nodeID string
		if kind != "summary" {
			if len(args) != 3 {
				return fmt.Errorf("query %s needs a node id", kind)
			}
			nodeID = args[2]
		}

		var result any
		var markdown string
		switch kind {
		case "outgoing":
			edges := traversal.OutgoingEdges(fc, nodeID)
			result, markdown = edges, tui.EdgeList("Outgoing edges of `"+nodeID+"`", edges)
		case "connected":
			nodes := traversal.ConnectedComponent(fc, nodeID)
			result, markdown = nodes, tui.NodeList("Nodes connected to `"+nodeID+"`", nodes)
		case "summary":
			result, markdown = fc, tui.Summary(fc)
		default:
			return fmt.Errorf("unknown query %q (want outgoing, connected or summary)", kind)
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		render := tui.NewRenderer()
		if out != os.Stdout {
			render = func(s string) (string, error) { return s, nil }
		}
		rendered, err := render(markdown)
		if err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		fmt.Fprint(out, rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().Bool("json", false, "Print the result as JSON")
}
