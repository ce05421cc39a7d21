package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aretw0/mermaidviz"
	"github.com/aretw0/mermaidviz/internal/cli"
	"github.com/aretw0/mermaidviz/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the editor and conversion API",
	Long: `Serves the Mermaid editor page and the POST /api/convert endpoint.
With --watch, the page follows the contents of a local diagram file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.Addr, _ = cmd.Flags().GetString("addr")
		}
		if cmd.Flags().Changed("watch") {
			cfg.WatchFile, _ = cmd.Flags().GetString("watch")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		tui.PrintBanner(os.Stdout, strings.TrimSpace(mermaidviz.Version))
		return cli.Serve(ctx, cli.ServeOptions{
			Config: cfg,
			Logger: logger,
			Out:    os.Stdout,
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":3000", "Address to listen on")
	serveCmd.Flags().StringP("watch", "w", "", "Diagram file to follow in the editor")
}
