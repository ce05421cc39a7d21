package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the mermaidviz banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	// Teal to green gradient.
	lines := []struct {
		text  string
		color string
	}{
		{"  ╭────────────────────────╮", "#2dd4bf"},
		{"  │   m e r m a i d v i z  │", "#34d399"},
		{"  │   text  ──▶  diagrams  │", "#4ade80"},
		{"  ╰────────────────────────╯", "#a3e635"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  v"+version).Faint())
	fmt.Fprintln(w)
}
