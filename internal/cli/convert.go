package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/mermaidviz/internal/presentation/tui"
)

// ErrNoInput is returned when no text, file or piped stdin is given.
var ErrNoInput = errors.New("no input: pass --text, --file or pipe text on stdin")

// ReadInput picks the conversion input: text, then file ("-" is stdin), then
// stdin when it is not a terminal.
func ReadInput(text, file string, stdin io.Reader) (string, error) {
	switch {
	case text != "":
		return text, nil
	case file == "-":
		return readAll(stdin)
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", file, err)
		}
		return string(data), nil
	}

	if f, ok := stdin.(*os.File); ok && tui.IsTerminal(f) {
		return "", ErrNoInput
	}
	s, err := readAll(stdin)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(s) == "" {
		return "", ErrNoInput
	}
	return s, nil
}

func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

// Converter turns free text into diagram syntax.
type Converter interface {
	Convert(ctx context.Context, text string) (string, error)
}

// RunConvert converts text and prints the diagram to w.
func RunConvert(ctx context.Context, conv Converter, text string, w io.Writer, raw bool) error {
	answer, err := conv.Convert(ctx, text)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}
	return tui.PrintDiagram(w, answer, raw)
}
