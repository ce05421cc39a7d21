package diagram

import "strings"

// StripFences removes one Markdown code fence wrapping the whole text,
// e.g. "```mermaid\n...\n```". Text without a surrounding fence is returned
// unchanged.
func StripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") || len(trimmed) < 6 {
		return s
	}

	nl := strings.IndexByte(trimmed, '\n')
	if nl < 0 {
		return s
	}
	info := strings.TrimSpace(trimmed[3:nl])
	if info != "" && !strings.EqualFold(info, "mermaid") {
		return s
	}

	body := strings.TrimSuffix(trimmed[nl+1:], "```")
	if strings.Contains(body, "```") {
		// More than one fence: not a single wrapped block.
		return s
	}
	return strings.TrimRight(body, " \t\r\n")
}
