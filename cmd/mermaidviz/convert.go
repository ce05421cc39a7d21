package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/aretw0/mermaidviz/internal/cli"
	"github.com/aretw0/mermaidviz/internal/logging"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert free text into Mermaid syntax",
	Example: `  mermaidviz convert -t "user signs up, gets a confirmation email, logs in"
  mermaidviz convert -f notes.txt --raw > diagram.mmd
  cat notes.txt | mermaidviz convert`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		// Stdout carries the diagram; stay silent unless debugging.
		if debug, _ := cmd.Flags().GetBool("debug"); !debug {
			logger = logging.NewNop()
		}

		text, _ := cmd.Flags().GetString("text")
		file, _ := cmd.Flags().GetString("file")
		raw, _ := cmd.Flags().GetBool("raw")

		input, err := cli.ReadInput(text, file, os.Stdin)
		if err != nil {
			return err
		}

		app, err := cli.NewApp(cfg, logger, false)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		return cli.RunConvert(ctx, app.Converter, input, os.Stdout, raw)
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringP("text", "t", "", "Text to convert")
	convertCmd.Flags().StringP("file", "f", "", "File to convert (- for stdin)")
	convertCmd.Flags().Bool("raw", false, "Print plain Mermaid even on a terminal")
}
