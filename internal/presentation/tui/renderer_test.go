package tui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFence(t *testing.T) {
	assert.Equal(t, "```mermaid\ngraph TD\n```\n", Fence("graph TD\n\n"))
}

func TestPrintDiagram_NonTerminalIsRaw(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintDiagram(&buf, "graph TD\n  A --> B\n", false))
	assert.Equal(t, "graph TD\n  A --> B\n", buf.String())
	assert.False(t, IsTerminal(&buf))
}

func TestNewRenderer(t *testing.T) {
	out, err := NewRenderer()(Fence("graph TD"))
	require.NoError(t, err)
	assert.Contains(t, out, "graph")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "0.1.0")
	assert.Contains(t, buf.String(), "v0.1.0")
}
