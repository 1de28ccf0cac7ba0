package render

import "fmt"

// indexSpec (00-INDEX.md) is always rendered last: its body is built by
// renderIndexBody from every other document's already-computed DocResult,
// not from its own Render function (spec §4.14: "INDEX is always
// rendered last and receives the aggregated per-document status list").
// Render is still populated so ResolveSelectedDocs/ComputeRequiredRounds
// treat 00-index as an ordinary, selectable registry entry.
var indexSpec = DocumentSpec{
	ID: "00-index", Filename: "00-INDEX.md", Category: "index",
	Title: "Documentation Index",
	Render: func(ctx RenderContext) (string, DocStatus) {
		return "", StatusComplete
	},
}

func renderIndexBody(ctx RenderContext, others []DocResult) string {
	fm := newFrontMatter(ctx, indexSpec.ID, indexSpec.Filename, indexSpec.Category, indexSpec.Title, ctx.roundsUsed(), StatusComplete)
	summary := fmt.Sprintf("Generated documentation index for %s.", ctx.Project)

	var body string
	for _, r := range others {
		body += fmt.Sprintf("- [%s](%s) — %s\n", r.Title, r.Filename, r.Status)
	}
	return assemble(fm, indexSpec.Title, summary, body)
}
