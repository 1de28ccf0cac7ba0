package render

import (
	"fmt"

	"github.com/phrazzld/handover/internal/snapshot"
)

// The five static-only documents never depend on a round; their status is
// always static-only (spec §6's registry table), even when the
// underlying static analyzer found nothing to report — an empty document
// still accurately describes "no dependencies/tests/history/todos/env
// vars were found", which is different from "not generated".

var dependenciesSpec = DocumentSpec{
	ID: "08-dependencies", Filename: "08-DEPENDENCIES.md", Category: "static",
	Title: "Dependencies", HasDiagrams: true,
	Render: func(ctx RenderContext) (string, DocStatus) {
		deps := ctx.Static.Dependencies
		var body string
		var diagramLines []string
		for _, m := range deps.Manifests {
			body += fmt.Sprintf("## %s (%s)\n\n", m.File, m.Ecosystem)
			var rows []string
			for _, d := range m.Dependencies {
				rows = append(rows, fmt.Sprintf("%s %s (%s)", d.Name, d.Version, d.Kind))
				diagramLines = append(diagramLines, MermaidEdge(m.File, d.Name, string(d.Kind)))
			}
			body += bulletList(rows) + "\n"
		}
		if len(deps.Warnings) > 0 {
			body += "## Warnings\n\n" + bulletList(deps.Warnings)
		}
		diagram := DiagramBlock("LR", diagramLines)
		fm := newFrontMatter(ctx, dependenciesSpec.ID, dependenciesSpec.Filename, dependenciesSpec.Category, dependenciesSpec.Title, nil, StatusStaticOnly)
		summary := fmt.Sprintf("%d manifest(s) discovered across %d dependency ecosystem(s).", len(deps.Manifests), countEcosystems(deps))
		return assemble(fm, dependenciesSpec.Title, summary, body, diagram), StatusStaticOnly
	},
}

func countEcosystems(deps snapshot.DependenciesResult) int {
	seen := map[string]bool{}
	for _, m := range deps.Manifests {
		seen[m.Ecosystem] = true
	}
	return len(seen)
}

var testingSpec = DocumentSpec{
	ID: "09-testing", Filename: "09-TESTING.md", Category: "static",
	Title: "Testing", Render: func(ctx RenderContext) (string, DocStatus) {
		t := ctx.Static.Tests
		body := fmt.Sprintf("- Test files: %d\n- Frameworks: %v\n- Has config: %v\n\n", t.Summary.TotalTestFiles, t.Frameworks, t.HasConfig)
		var rows []string
		for _, f := range t.Files {
			rows = append(rows, fmt.Sprintf("%s (%s, %d tests)", f.Path, f.Framework, f.TestCount))
		}
		body += "## Test Files\n\n" + bulletList(rows)
		fm := newFrontMatter(ctx, testingSpec.ID, testingSpec.Filename, testingSpec.Category, testingSpec.Title, nil, StatusStaticOnly)
		summary := fmt.Sprintf("%d test file(s) detected using %d framework(s).", t.Summary.TotalTestFiles, len(t.Frameworks))
		return assemble(fm, testingSpec.Title, summary, body), StatusStaticOnly
	},
}

var gitHistorySpec = DocumentSpec{
	ID: "10-git-history", Filename: "10-GIT-HISTORY.md", Category: "static",
	Title: "Git History", Render: func(ctx RenderContext) (string, DocStatus) {
		g := ctx.Static.GitHistory
		fm := newFrontMatter(ctx, gitHistorySpec.ID, gitHistorySpec.Filename, gitHistorySpec.Category, gitHistorySpec.Title, nil, StatusStaticOnly)
		if !g.IsGitRepo {
			return assemble(fm, gitHistorySpec.Title, "Not a git repository.", g.Warning), StatusStaticOnly
		}
		body := fmt.Sprintf("## Branch Strategy\n\n%s (%d branches, default %q)\n\n", g.BranchPattern.Strategy, g.BranchPattern.Count, g.BranchPattern.DefaultBranch)
		var commits []string
		for _, c := range g.RecentCommits {
			commits = append(commits, fmt.Sprintf("%s %s: %s (%s)", c.Hash, c.DateISO, c.Message, c.Author))
		}
		body += "## Recent Commits\n\n" + bulletList(commits)
		var contributors []string
		for _, c := range g.Contributors {
			contributors = append(contributors, fmt.Sprintf("%s <%s> (%d commits)", c.Name, c.Email, c.CommitCount))
		}
		body += "## Contributors\n\n" + bulletList(contributors)
		summary := fmt.Sprintf("%s branching strategy, %d contributor(s), %d recent commit(s).", g.BranchPattern.Strategy, len(g.Contributors), len(g.RecentCommits))
		return assemble(fm, gitHistorySpec.Title, summary, body), StatusStaticOnly
	},
}

var todosSpec = DocumentSpec{
	ID: "11-todos", Filename: "11-TODOS.md", Category: "static",
	Title: "TODOs", Render: func(ctx RenderContext) (string, DocStatus) {
		t := ctx.Static.Todos
		fm := newFrontMatter(ctx, todosSpec.ID, todosSpec.Filename, todosSpec.Category, todosSpec.Title, nil, StatusStaticOnly)
		body := fmt.Sprintf("Total markers: %d\n\n", t.Summary.Total)
		for cat, count := range t.Summary.ByCategory {
			body += fmt.Sprintf("- %s: %d\n", cat, count)
		}
		body += "\n## Items\n\n" + bulletList(todoTexts(ctx))
		summary := fmt.Sprintf("%d TODO-style marker(s) found across the repository.", t.Summary.Total)
		return assemble(fm, todosSpec.Title, summary, body), StatusStaticOnly
	},
}

var environmentSpec = DocumentSpec{
	ID: "12-environment", Filename: "12-ENVIRONMENT.md", Category: "static",
	Title: "Environment Variables", Render: func(ctx RenderContext) (string, DocStatus) {
		e := ctx.Static.Env
		fm := newFrontMatter(ctx, environmentSpec.ID, environmentSpec.Filename, environmentSpec.Category, environmentSpec.Title, nil, StatusStaticOnly)
		var files []string
		for _, f := range e.Files {
			files = append(files, fmt.Sprintf("%s: %v", f.Path, f.Variables))
		}
		body := "## Env Files\n\n" + bulletList(files)
		var refs []string
		for _, r := range e.References {
			refs = append(refs, fmt.Sprintf("%s:%d references %s", r.File, r.Line, r.Variable))
		}
		body += "\n## Code References\n\n" + bulletList(refs)
		if len(e.Warnings) > 0 {
			body += "\n## Warnings\n\n" + bulletList(e.Warnings)
		}
		status := StatusStaticOnly
		summary := fmt.Sprintf("%d env file(s), %d code reference(s) to environment variables.", len(e.Files), len(e.References))
		return assemble(fm, environmentSpec.Title, summary, body), status
	},
}
