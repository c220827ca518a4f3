package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/flowcharts/internal/document"
	"github.com/aretw0/flowcharts/pkg/domain"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a flowchart document for consistency",
	Long:  `Reads a YAML or JSON flowchart and reports duplicate node IDs and edges that reference missing nodes.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fc, err := document.LoadFile(args[0])
		if err != nil {
			return err
		}

		if err := fc.Validate(); err != nil {
			out := cmd.ErrOrStderr()
			for _, d := range domain.ValidationDetails(err) {
				fmt.Fprintf(out, "  - %s\n", d)
			}
			if errors.Is(err, domain.ErrInvalidFlowchart) {
				return fmt.Errorf("validation failed: %d problem(s) in %s", len(domain.ValidationDetails(err)), args[0])
			}
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Flowchart is valid! ✅ (%d nodes, %d edges)\n", len(fc.Nodes), len(fc.Edges))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
