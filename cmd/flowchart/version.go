package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/flowcharts"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of flowchart",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "flowchart version %s\n", strings.TrimSpace(flowcharts.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
