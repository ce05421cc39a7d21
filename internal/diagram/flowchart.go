package diagram

import (
	"fmt"
	"strings"
)

// Shape selects the node bracket style.
type Shape int

const (
	ShapeRect          Shape = iota // [Rectangle]
	ShapeCircle                     // ((Circle))
	ShapeSubroutine                 // [[Subroutine]]
	ShapeParallelogram              // [/Parallelogram/]
	ShapeRhombus                    // {Decision}
	ShapeStadium                    // ([Stadium])
)

func (s Shape) brackets() (string, string) {
	switch s {
	case ShapeCircle:
		return "((", "))"
	case ShapeSubroutine:
		return "[[", "]]"
	case ShapeParallelogram:
		return "[/", "/]"
	case ShapeRhombus:
		return "{", "}"
	case ShapeStadium:
		return "([", "])"
	default:
		return "[", "]"
	}
}

// Node is a flowchart vertex. Label defaults to ID.
type Node struct {
	ID    string
	Label string
	Shape Shape
	Class string
}

// Edge connects two nodes. Dotted edges use -.-> arrows.
type Edge struct {
	From   string
	To     string
	Label  string
	Dotted bool
}

// ClassDef is a named style applied through Node.Class.
type ClassDef struct {
	Name  string
	Style string
}

// Flowchart builds Mermaid flowchart syntax.
type Flowchart struct {
	Direction string // TD, LR, BT, RL
	Nodes     []Node
	Edges     []Edge
	Classes   []ClassDef
}

// String renders the chart.
func (f Flowchart) String() string {
	var sb strings.Builder
	dir := f.Direction
	if dir == "" {
		dir = "TD"
	}
	sb.WriteString("flowchart " + dir + "\n")

	for _, n := range f.Nodes {
		opener, closer := n.Shape.brackets()
		label := n.Label
		if label == "" {
			label = n.ID
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", SanitizeID(n.ID), opener, escapeLabel(label), closer)
	}

	for _, e := range f.Edges {
		from, to := SanitizeID(e.From), SanitizeID(e.To)
		arrow := "-->"
		if e.Dotted {
			arrow = "-.->"
		}
		if e.Label != "" {
			label := escapeLabel(e.Label)
			arrow = fmt.Sprintf("-- \"%s\" -->", label)
			if e.Dotted {
				arrow = fmt.Sprintf("-. \"%s\" .->", label)
			}
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", from, arrow, to)
	}

	if len(f.Classes) > 0 {
		sb.WriteString("\n")
		for _, c := range f.Classes {
			fmt.Fprintf(&sb, "    classDef %s %s;\n", c.Name, c.Style)
		}
		for _, n := range f.Nodes {
			if n.Class != "" {
				fmt.Fprintf(&sb, "    class %s %s;\n", SanitizeID(n.ID), n.Class)
			}
		}
	}

	return sb.String()
}

// SanitizeID replaces characters Mermaid does not accept in node IDs.
func SanitizeID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")
	return r.Replace(id)
}

// escapeLabel swaps double quotes for single ones inside quoted labels.
func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

// Example returns the starter diagram offered by the editor.
func Example() string {
	return Flowchart{
		Direction: "TD",
		Nodes: []Node{
			{ID: "start", Label: "Start", Shape: ShapeCircle},
			{ID: "write", Label: "Write Mermaid syntax", Shape: ShapeParallelogram},
			{ID: "describe", Label: "Describe it in plain text", Shape: ShapeParallelogram},
			{ID: "convert", Label: "Convert to Mermaid", Shape: ShapeSubroutine},
			{ID: "valid", Label: "Valid syntax?", Shape: ShapeRhombus},
			{ID: "preview", Label: "Preview", Shape: ShapeStadium, Class: "done"},
		},
		Edges: []Edge{
			{From: "start", To: "write", Label: "visualize"},
			{From: "start", To: "describe", Label: "convert"},
			{From: "describe", To: "convert"},
			{From: "convert", To: "write", Dotted: true},
			{From: "write", To: "valid"},
			{From: "valid", To: "preview", Label: "yes"},
			{From: "valid", To: "write", Label: "no", Dotted: true},
		},
		Classes: []ClassDef{
			{Name: "done", Style: "fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000"},
		},
	}.String()
}
