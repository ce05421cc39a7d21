package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/mermaidviz"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of mermaidviz",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mermaidviz version %s\n", strings.TrimSpace(mermaidviz.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
