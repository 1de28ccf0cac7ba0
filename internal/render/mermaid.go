package render

import (
	"fmt"
	"regexp"
	"strings"
)

var nonIdentChars = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// SanitizeNodeID maps an arbitrary label to a Mermaid-safe node identifier
// matching `[A-Za-z0-9_]+` (spec §4.14). Runs of disallowed characters
// collapse to a single underscore; a result starting with a digit is
// prefixed with "n" since Mermaid node ids may not be bare numbers.
func SanitizeNodeID(label string) string {
	id := nonIdentChars.ReplaceAllString(label, "_")
	id = strings.Trim(id, "_")
	if id == "" {
		id = "node"
	}
	if id[0] >= '0' && id[0] <= '9' {
		id = "n" + id
	}
	return id
}

// MermaidNode renders one "id[\"label\"]" declaration, with the human
// label in quoted label syntax per spec §4.14.
func MermaidNode(label string) string {
	return fmt.Sprintf(`%s["%s"]`, SanitizeNodeID(label), escapeLabel(label))
}

// MermaidEdge renders a directed edge between two labels, sanitizing both
// endpoints independently.
func MermaidEdge(from, to, relation string) string {
	if relation == "" {
		return fmt.Sprintf("%s --> %s", SanitizeNodeID(from), SanitizeNodeID(to))
	}
	return fmt.Sprintf("%s -->|%s| %s", SanitizeNodeID(from), relation, SanitizeNodeID(to))
}

func escapeLabel(label string) string {
	return strings.ReplaceAll(label, `"`, `'`)
}

// DiagramBlock wraps lines in a fenced mermaid code block under a
// "Diagrams" heading, as required for architecture/features/modules/
// dependencies documents.
func DiagramBlock(graphDirection string, lines []string) string {
	var b strings.Builder
	b.WriteString("## Diagrams\n\n")
	b.WriteString("```mermaid\n")
	b.WriteString("graph " + graphDirection + "\n")
	for _, l := range lines {
		b.WriteString("    " + l + "\n")
	}
	b.WriteString("```\n")
	return b.String()
}
