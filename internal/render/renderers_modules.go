package render

import "fmt"

// modulesSpec (05-MODULES.md) renders round 5's per-module fan-out, one
// subsection per detected module. A module whose fan-out call degraded
// still gets a subsection (with a banner); the document as a whole is
// "partial" if any module degraded, "complete" if all succeeded, and
// falls back to a bare module listing (no narrative) if round 5 never
// ran at all, per the degraded-document policy's "modules" entry in
// spec §4.14.
var modulesSpec = DocumentSpec{
	ID: "05-modules", Filename: "05-MODULES.md", Category: "narrative",
	Title: "Modules", RequiredRounds: []int{5}, HasDiagrams: true,
	Render: func(ctx RenderContext) (string, DocStatus) {
		if len(ctx.ModuleResults) == 0 {
			return staticFallback(ctx, modulesSpec, "## Detected Modules\n\n"+bulletList(topLevelDirNames(ctx)))
		}

		anyDegraded := false
		var body string
		var diagramLines []string
		aiEntities := map[string]interface{}{}
		for _, mv := range ctx.ModuleResults {
			section := "## " + mv.Module + "\n\n"
			if mv.View.Status == "degraded" {
				anyDegraded = true
				section += partialBanner("Module fan-out degraded: " + mv.View.DegradedReason)
			}
			summary := strField(mv.View.Data, "summary")
			if summary == "" {
				summary = "No synthesized summary available for this module."
			}
			section += summary + "\n\n"
			body += section
			diagramLines = append(diagramLines, MermaidNode(mv.Module))
			aiEntities[mv.Module] = mv.View.Data
		}

		status := StatusComplete
		if anyDegraded {
			status = StatusPartial
		}
		diagram := DiagramBlock("TD", diagramLines)
		ai := AIBlock(ctx.Audience, aiEntities)
		fm := newFrontMatter(ctx, modulesSpec.ID, modulesSpec.Filename, modulesSpec.Category, modulesSpec.Title, []int{1, 2, 5}, status)
		summary := fmt.Sprintf("Per-module deep dive across %d detected modules.", len(ctx.ModuleResults))
		return assemble(fm, modulesSpec.Title, summary, body, ai, diagram), status
	},
}

func topLevelDirNames(ctx RenderContext) []string {
	seen := map[string]bool{}
	var out []string
	for _, f := range ctx.Static.FileTree.Tree {
		if f.IsDir && !seen[f.Name] {
			seen[f.Name] = true
			out = append(out, f.Name)
		}
	}
	return out
}
