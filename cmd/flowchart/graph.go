package main

import (
	"fmt"

	"github.com/aretw0/flowcharts/internal/document"
	"github.com/aretw0/flowcharts/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <file>",
	Short: "Export the flowchart visualization",
	Long:  `Reads a flowchart document and outputs a Mermaid diagram (graph TD).`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fc, err := document.LoadFile(args[0])
		if err != nil {
			return err
		}
		if err := fc.Validate(); err != nil {
			return err
		}

		var overlay *graph.GraphOverlay
		if focus, _ := cmd.Flags().GetString("focus"); focus != "" {
			overlay = graph.FocusOverlay(fc, focus)
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(fc, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("focus", "", "Highlight this node and everything connected to it")
}
