package render

import (
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	aiBlockStart = "<!-- handover:ai-block:start -->"
	aiBlockEnd   = "<!-- handover:ai-block:end -->"
)

// AIBlock renders fields as an HTML-comment-delimited YAML body following
// an entity's narrative section, when audience is AudienceAI (spec §4.14:
// "AI mode keeps the narrative but appends a machine-readable structured
// block per entity"). It returns "" for human audience so callers can
// unconditionally append its result.
func AIBlock(audience Audience, fields map[string]interface{}) string {
	if audience != AudienceAI || len(fields) == 0 {
		return ""
	}
	body, err := yaml.Marshal(fields)
	if err != nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(aiBlockStart + "\n")
	b.Write(body)
	b.WriteString(aiBlockEnd + "\n")
	return b.String()
}
