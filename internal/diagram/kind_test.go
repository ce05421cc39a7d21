package diagram_test

import (
	"testing"

	"github.com/aretw0/mermaidviz/internal/diagram"
)

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"Graph", "graph TD\n  A --> B", "graph"},
		{"Flowchart", "flowchart LR\n  A --> B", "flowchart"},
		{"Sequence", "sequenceDiagram\n  Alice->>Bob: Hi", "sequenceDiagram"},
		{"Case Insensitive", "SEQUENCEDIAGRAM\n", "sequenceDiagram"},
		{"Pie With Title", "pie title Pets\n  \"Dogs\" : 386", "pie"},
		{"State v2", "stateDiagram-v2\n  [*] --> Still", "stateDiagram-v2"},
		{"Leading Blank And Comments", "\n\n%% a comment\n  gantt\n", "gantt"},
		{"Init Directive", "%%{init: {'theme':'neutral'}}%%\nclassDiagram\n", "classDiagram"},
		{"Front Matter", "---\ntitle: Demo\n---\nerDiagram\n", "erDiagram"},
		{"Unknown", "hello world", diagram.KindUnknown},
		{"Empty", "", diagram.KindUnknown},
		{"Fenced Is Unknown", "```mermaid\ngraph TD\n```", diagram.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := diagram.DetectKind(tt.src); got != tt.want {
				t.Errorf("DetectKind() = %q, want %q", got, tt.want)
			}
		})
	}
}
