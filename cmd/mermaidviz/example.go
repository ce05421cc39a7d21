package main

import (
	"os"

	"github.com/aretw0/mermaidviz/internal/diagram"
	"github.com/aretw0/mermaidviz/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var exampleCmd = &cobra.Command{
	Use:   "example",
	Short: "Print a starter flowchart",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetBool("raw")
		return tui.PrintDiagram(os.Stdout, diagram.Example(), raw)
	},
}

func init() {
	rootCmd.AddCommand(exampleCmd)
	exampleCmd.Flags().Bool("raw", false, "Print plain Mermaid even on a terminal")
}
