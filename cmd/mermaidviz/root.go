package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/mermaidviz/internal/cli"
	"github.com/aretw0/mermaidviz/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mermaidviz",
	Short: "Mermaid editor with live preview and text-to-diagram conversion",
	Long: `mermaidviz serves a browser editor that renders Mermaid syntax as you type,
and converts free-form text into Mermaid through a language-model API.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (default ./"+config.DefaultFile+" if present)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// loadConfig reads the config selected by the persistent flags.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, cli.NewLogger(os.Stderr, cfg, debug), nil
}
