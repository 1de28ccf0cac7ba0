package render

import "fmt"

// overviewSpec (01-OVERVIEW.md) renders round 1: project purpose, scope,
// and high-level narrative. No static fallback exists for a purpose
// narrative, so a missing round 1 yields not-generated (spec §4.14).
var overviewSpec = DocumentSpec{
	ID: "01-overview", Filename: "01-OVERVIEW.md", Category: "narrative",
	Title: "Project Overview", RequiredRounds: []int{1},
	Render: func(ctx RenderContext) (string, DocStatus) {
		rv, ok := ctx.Round(1)
		if !ok {
			return "", StatusNotGenerated
		}
		status := StatusComplete
		var banner string
		if rv.Status == "degraded" {
			status = StatusPartial
			banner = partialBanner("Round 1 degraded: " + rv.DegradedReason)
		}
		summary := strField(rv.Data, "summary")
		if summary == "" {
			summary = "High-level project narrative synthesized from the packed repository context."
		}
		purpose := strField(rv.Data, "purpose")
		scope := listField(rv.Data, "scope")
		body := banner
		if purpose != "" {
			body += "## Purpose\n\n" + purpose + "\n\n"
		}
		if len(scope) > 0 {
			body += "## Scope\n\n" + bulletList(scope)
		}
		ai := AIBlock(ctx.Audience, map[string]interface{}{"purpose": purpose, "scope": scope})
		fm := newFrontMatter(ctx, overviewSpec.ID, overviewSpec.Filename, overviewSpec.Category, overviewSpec.Title, []int{1}, status)
		return assemble(fm, overviewSpec.Title, summary, body, ai), status
	},
}

// conventionsSpec (02-CONVENTIONS.md) renders round 2: naming, structure,
// and coding-convention synthesis building on round 1.
var conventionsSpec = DocumentSpec{
	ID: "02-conventions", Filename: "02-CONVENTIONS.md", Category: "narrative",
	Title: "Conventions", RequiredRounds: []int{2},
	Render: func(ctx RenderContext) (string, DocStatus) {
		rv, ok := ctx.Round(2)
		if !ok {
			return "", StatusNotGenerated
		}
		status := StatusComplete
		var banner string
		if rv.Status == "degraded" {
			status = StatusPartial
			banner = partialBanner("Round 2 degraded: " + rv.DegradedReason)
		}
		summary := strField(rv.Data, "summary")
		if summary == "" {
			summary = "Naming, structure, and coding-convention synthesis."
		}
		naming := listField(rv.Data, "namingConventions")
		structure := listField(rv.Data, "structureConventions")
		body := banner
		if len(naming) > 0 {
			body += "## Naming\n\n" + bulletList(naming)
		}
		if len(structure) > 0 {
			body += "## Structure\n\n" + bulletList(structure)
		}
		ai := AIBlock(ctx.Audience, map[string]interface{}{"naming": naming, "structure": structure})
		fm := newFrontMatter(ctx, conventionsSpec.ID, conventionsSpec.Filename, conventionsSpec.Category, conventionsSpec.Title, []int{1, 2}, status)
		return assemble(fm, conventionsSpec.Title, summary, body, ai), status
	},
}

// featuresSpec (04-FEATURES.md) renders round 3: feature inventory and
// data-flow narrative. Diagram-bearing (spec §4.14).
var featuresSpec = DocumentSpec{
	ID: "04-features", Filename: "04-FEATURES.md", Category: "narrative",
	Title: "Features", RequiredRounds: []int{3}, HasDiagrams: true,
	Render: func(ctx RenderContext) (string, DocStatus) {
		rv, ok := ctx.Round(3)
		if !ok {
			return "", StatusNotGenerated
		}
		status := StatusComplete
		var banner string
		if rv.Status == "degraded" {
			status = StatusPartial
			banner = partialBanner("Round 3 degraded: " + rv.DegradedReason)
		}
		summary := strField(rv.Data, "summary")
		if summary == "" {
			summary = "Feature inventory and cross-component data flow."
		}
		features := listField(rv.Data, "features")
		flows := listField(rv.Data, "dataFlows")
		body := banner
		if len(features) > 0 {
			body += "## Features\n\n" + bulletList(features)
		}
		if len(flows) > 0 {
			body += "## Data Flows\n\n" + bulletList(flows)
		}
		var diagram string
		if len(features) > 0 {
			lines := make([]string, 0, len(features))
			for i, f := range features {
				lines = append(lines, MermaidNode(f))
				if i > 0 {
					lines = append(lines, MermaidEdge(features[i-1], f, ""))
				}
			}
			diagram = DiagramBlock("LR", lines)
		}
		ai := AIBlock(ctx.Audience, map[string]interface{}{"features": features, "dataFlows": flows})
		fm := newFrontMatter(ctx, featuresSpec.ID, featuresSpec.Filename, featuresSpec.Category, featuresSpec.Title, []int{1, 2, 3}, status)
		return assemble(fm, featuresSpec.Title, summary, body, ai, diagram), status
	},
}

// architectureSpec (03-ARCHITECTURE.md) renders round 4: deep architecture
// synthesis integrating rounds 1-3. This is the document named in spec
// §8's degraded-cascade scenario: a degraded round 3 does not block round
// 4 from running, and a successful round 4 built on degraded inputs
// yields status partial with a banner naming the degraded upstream round;
// a degraded round 4 also yields partial, with its own reason.
var architectureSpec = DocumentSpec{
	ID: "03-architecture", Filename: "03-ARCHITECTURE.md", Category: "narrative",
	Title: "Architecture", RequiredRounds: []int{4}, HasDiagrams: true,
	Render: func(ctx RenderContext) (string, DocStatus) {
		rv, ok := ctx.Round(4)
		if !ok {
			return "", StatusNotGenerated
		}
		status := StatusComplete
		var banner string
		if rv.Status == "degraded" {
			status = StatusPartial
			banner = partialBanner("Round 4 degraded: " + rv.DegradedReason)
		} else {
			for _, n := range []int{1, 2, 3} {
				if up, ok := ctx.Round(n); ok && up.Status == "degraded" {
					status = StatusPartial
					banner = partialBanner(fmt.Sprintf("Round %d degraded; this synthesis was built on its degraded output.", n))
					break
				}
			}
		}
		summary := strField(rv.Data, "summary")
		if summary == "" {
			summary = "Architecture synthesis integrating project overview, conventions, and feature inventory."
		}
		components := listField(rv.Data, "components")
		relationships := listField(rv.Data, "relationships")
		body := banner
		if len(components) > 0 {
			body += "## Components\n\n" + bulletList(components)
		}
		if len(relationships) > 0 {
			body += "## Relationships\n\n" + bulletList(relationships)
		}
		var diagram string
		if len(components) > 0 {
			lines := make([]string, 0, len(components))
			for _, c := range components {
				lines = append(lines, MermaidNode(c))
			}
			for i := 1; i < len(components); i++ {
				lines = append(lines, MermaidEdge(components[i-1], components[i], ""))
			}
			diagram = DiagramBlock("TD", lines)
		}
		ai := AIBlock(ctx.Audience, map[string]interface{}{"components": components, "relationships": relationships})
		fm := newFrontMatter(ctx, architectureSpec.ID, architectureSpec.Filename, architectureSpec.Category, architectureSpec.Title, []int{1, 2, 3, 4}, status)
		return assemble(fm, architectureSpec.Title, summary, body, ai, diagram), status
	},
}

// round6Doc builds the shared body for whichever of risks/onboarding/
// deployment is being rendered, since all three render the same round 6
// RoundExecutionResult differently (SPEC_FULL.md §6).
func round6Doc(ctx RenderContext, sectionKey, sectionTitle string) (items []string, rv RoundView, ok bool) {
	rv, ok = ctx.Round(6)
	if !ok {
		return nil, rv, false
	}
	return listField(rv.Data, sectionKey), rv, true
}

var risksSpec = DocumentSpec{
	ID: "06-risks", Filename: "06-RISKS.md", Category: "narrative",
	Title: "Risks & Technical Debt", RequiredRounds: []int{6},
	Render: func(ctx RenderContext) (string, DocStatus) {
		items, rv, ok := round6Doc(ctx, "risks", "Risks")
		if !ok {
			return staticFallback(ctx, risksSpec, "## Known Issues (from TODO scan)\n\n"+bulletList(todoTexts(ctx)))
		}
		status := StatusComplete
		var banner string
		if rv.Status == "degraded" {
			status = StatusPartial
			banner = partialBanner("Round 6 degraded: " + rv.DegradedReason)
		}
		summary := strField(rv.Data, "summary")
		if summary == "" {
			summary = "Risk and technical-debt assessment."
		}
		body := banner + "## Risks\n\n" + bulletList(items)
		ai := AIBlock(ctx.Audience, map[string]interface{}{"risks": items})
		fm := newFrontMatter(ctx, risksSpec.ID, risksSpec.Filename, risksSpec.Category, risksSpec.Title, []int{1, 2, 6}, status)
		return assemble(fm, risksSpec.Title, summary, body, ai), status
	},
}

var onboardingSpec = DocumentSpec{
	ID: "07-onboarding", Filename: "07-ONBOARDING.md", Category: "narrative",
	Title: "Onboarding Guide", RequiredRounds: []int{6},
	Render: func(ctx RenderContext) (string, DocStatus) {
		items, rv, ok := round6Doc(ctx, "onboardingSteps", "Onboarding Steps")
		if !ok {
			return staticFallback(ctx, onboardingSpec, "## Getting Started\n\n"+bulletList(docsHints(ctx)))
		}
		status := StatusComplete
		var banner string
		if rv.Status == "degraded" {
			status = StatusPartial
			banner = partialBanner("Round 6 degraded: " + rv.DegradedReason)
		}
		summary := strField(rv.Data, "summary")
		if summary == "" {
			summary = "A new contributor's first-week guide to this repository."
		}
		body := banner + "## Getting Started\n\n" + bulletList(items)
		ai := AIBlock(ctx.Audience, map[string]interface{}{"steps": items})
		fm := newFrontMatter(ctx, onboardingSpec.ID, onboardingSpec.Filename, onboardingSpec.Category, onboardingSpec.Title, []int{1, 2, 6}, status)
		return assemble(fm, onboardingSpec.Title, summary, body, ai), status
	},
}

var deploymentSpec = DocumentSpec{
	ID: "13-deployment", Filename: "13-DEPLOYMENT.md", Category: "narrative",
	Title: "Deployment & Operations", RequiredRounds: []int{6},
	Render: func(ctx RenderContext) (string, DocStatus) {
		items, rv, ok := round6Doc(ctx, "deploymentSteps", "Deployment")
		if !ok {
			return staticFallback(ctx, deploymentSpec, "## Dependencies Relevant to Deployment\n\n"+bulletList(manifestNames(ctx)))
		}
		status := StatusComplete
		var banner string
		if rv.Status == "degraded" {
			status = StatusPartial
			banner = partialBanner("Round 6 degraded: " + rv.DegradedReason)
		}
		summary := strField(rv.Data, "summary")
		if summary == "" {
			summary = "Deployment and operations guidance."
		}
		body := banner + "## Deployment Steps\n\n" + bulletList(items)
		ai := AIBlock(ctx.Audience, map[string]interface{}{"steps": items})
		fm := newFrontMatter(ctx, deploymentSpec.ID, deploymentSpec.Filename, deploymentSpec.Category, deploymentSpec.Title, []int{1, 2, 6}, status)
		return assemble(fm, deploymentSpec.Title, summary, body, ai), status
	},
}

// staticFallback implements the "partial static data suffices" branch of
// the degraded-document policy for risks/onboarding/deployment (round 6)
// and modules (round 5): when the document's round never ran, each still
// emits a partial document built from static analysis data rather than an
// empty not-generated document.
func staticFallback(ctx RenderContext, spec DocumentSpec, body string) (string, DocStatus) {
	status := StatusPartial
	banner := partialBanner(fmt.Sprintf("Round %d did not run; this document was assembled from static analysis data only.", spec.RequiredRounds[0]))
	fm := newFrontMatter(ctx, spec.ID, spec.Filename, spec.Category, spec.Title, nil, status)
	summary := fmt.Sprintf("%s (static-data fallback; no LLM synthesis available).", spec.Title)
	return assemble(fm, spec.Title, summary, banner+body), status
}

func todoTexts(ctx RenderContext) []string {
	out := make([]string, 0, len(ctx.Static.Todos.Items))
	for _, it := range ctx.Static.Todos.Items {
		out = append(out, fmt.Sprintf("%s:%d: %s", it.File, it.Line, it.Text))
	}
	return out
}

func docsHints(ctx RenderContext) []string {
	return append(append([]string{}, ctx.Static.Docs.ReadmePaths...), ctx.Static.Docs.DocFiles...)
}

func manifestNames(ctx RenderContext) []string {
	out := make([]string, 0, len(ctx.Static.Dependencies.Manifests))
	for _, m := range ctx.Static.Dependencies.Manifests {
		out = append(out, fmt.Sprintf("%s (%s)", m.File, m.Ecosystem))
	}
	return out
}
