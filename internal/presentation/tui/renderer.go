package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Fence wraps diagram source in a mermaid code block.
func Fence(src string) string {
	return "```mermaid\n" + strings.TrimRight(src, "\n") + "\n```\n"
}

// PrintDiagram writes diagram source to w. On a terminal, unless raw is set,
// the source is highlighted as a fenced block; otherwise it is written as is.
func PrintDiagram(w io.Writer, src string, raw bool) error {
	if raw || !IsTerminal(w) {
		_, err := fmt.Fprintln(w, strings.TrimRight(src, "\n"))
		return err
	}
	out, err := NewRenderer()(Fence(src))
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
