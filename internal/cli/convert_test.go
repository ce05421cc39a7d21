package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadInput(t *testing.T) {
	file := filepath.Join(t.TempDir(), "in.txt")
	require.NoError(t, os.WriteFile(file, []byte("from file"), 0o644))

	t.Run("text wins", func(t *testing.T) {
		got, err := ReadInput("inline", file, strings.NewReader("stdin"))
		require.NoError(t, err)
		assert.Equal(t, "inline", got)
	})

	t.Run("file", func(t *testing.T) {
		got, err := ReadInput("", file, strings.NewReader("stdin"))
		require.NoError(t, err)
		assert.Equal(t, "from file", got)
	})

	t.Run("dash reads stdin", func(t *testing.T) {
		got, err := ReadInput("", "-", strings.NewReader("piped"))
		require.NoError(t, err)
		assert.Equal(t, "piped", got)
	})

	t.Run("piped stdin", func(t *testing.T) {
		got, err := ReadInput("", "", strings.NewReader("piped"))
		require.NoError(t, err)
		assert.Equal(t, "piped", got)
	})

	t.Run("nothing", func(t *testing.T) {
		_, err := ReadInput("", "", strings.NewReader("  \n"))
		assert.ErrorIs(t, err, ErrNoInput)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadInput("", filepath.Join(t.TempDir(), "nope"), nil)
		assert.Error(t, err)
	})
}

type funcConverter func(ctx context.Context, text string) (string, error)

func (f funcConverter) Convert(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

func TestRunConvert(t *testing.T) {
	var buf bytes.Buffer
	conv := funcConverter(func(ctx context.Context, text string) (string, error) {
		return "graph TD\n  " + text + "\n", nil
	})

	require.NoError(t, RunConvert(context.Background(), conv, "A-->B", &buf, false))
	assert.Equal(t, "graph TD\n  A-->B\n", buf.String())
}

func TestRunConvert_Error(t *testing.T) {
	boom := errors.New("boom")
	conv := funcConverter(func(ctx context.Context, text string) (string, error) {
		return "", boom
	})

	err := RunConvert(context.Background(), conv, "x", &bytes.Buffer{}, true)
	assert.ErrorIs(t, err, boom)
}
