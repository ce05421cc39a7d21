package diagram

import (
	"strings"
)

// KindUnknown is reported when the header keyword is not recognized.
const KindUnknown = "unknown"

// kinds maps lowercased header keywords to their canonical spelling.
var kinds = map[string]string{}

func init() {
	for _, k := range []string{
		"graph", "flowchart", "sequenceDiagram", "classDiagram", "classDiagram-v2",
		"stateDiagram", "stateDiagram-v2", "erDiagram", "journey", "gantt", "pie",
		"quadrantChart", "requirementDiagram", "gitGraph", "mindmap", "timeline",
		"C4Context", "C4Container", "C4Component", "C4Dynamic", "C4Deployment",
		"zenuml", "sankey-beta", "xychart-beta", "block-beta", "packet-beta",
		"kanban", "architecture-beta", "radar-beta",
	} {
		kinds[strings.ToLower(k)] = k
	}
}

// DetectKind returns the diagram keyword of the first significant line.
// Blank lines, %% comments, %%{init}%% directives and a leading YAML
// front-matter block are skipped.
func DetectKind(src string) string {
	lines := strings.Split(src, "\n")
	first := firstNonBlank(lines)
	inFrontMatter := false
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		switch {
		case line == "---" && (i == first || inFrontMatter):
			inFrontMatter = !inFrontMatter
			continue
		case inFrontMatter, line == "", strings.HasPrefix(line, "%%"):
			continue
		}

		head := line
		if idx := strings.IndexAny(head, " \t:;{"); idx >= 0 {
			head = head[:idx]
		}
		if k, ok := kinds[strings.ToLower(head)]; ok {
			return k
		}
		return KindUnknown
	}
	return KindUnknown
}

func firstNonBlank(lines []string) int {
	for i, l := range lines {
		if strings.TrimSpace(l) != "" {
			return i
		}
	}
	return -1
}
