package render

import (
	"fmt"
	"strings"
)

// assemble joins a front matter block, an H1 title, a one-to-two sentence
// summary, and an arbitrary number of section bodies into one document
// (spec §4.14: "YAML front matter, level-1 heading, summary paragraph").
func assemble(fm FrontMatter, title, summary string, sections ...string) string {
	var b strings.Builder
	b.WriteString(fm.Render())
	b.WriteString("# " + title + "\n\n")
	b.WriteString(summary + "\n")
	for _, s := range sections {
		if strings.TrimSpace(s) == "" {
			continue
		}
		b.WriteString("\n" + s)
	}
	return b.String()
}

func partialBanner(reason string) string {
	return fmt.Sprintf("> **Partial document.** %s\n\n", reason)
}

func newFrontMatter(ctx RenderContext, id, filename, category, title string, roundsUsed []int, status DocStatus) FrontMatter {
	return FrontMatter{
		Title:        title,
		DocumentID:   id,
		Category:     category,
		Project:      ctx.Project,
		GeneratedAt:  ctx.GeneratedAt,
		Audience:     ctx.Audience,
		AIRoundsUsed: roundsUsed,
		Status:       status,
	}
}

// strField reads a string field out of a decoded round-result map,
// defaulting to "" for an absent or non-string value.
func strField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// listField reads a []interface{} field and renders it as bullet points,
// coercing each element to its string form.
func listField(m map[string]interface{}, key string) []string {
	raw, ok := m[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		out = append(out, fmt.Sprintf("%v", v))
	}
	return out
}

func bulletList(items []string) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	for _, it := range items {
		b.WriteString("- " + it + "\n")
	}
	return b.String()
}
