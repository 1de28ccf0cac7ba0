package handover

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/phrazzld/handover/internal/compressor"
	"github.com/phrazzld/handover/internal/packer"
	"github.com/phrazzld/handover/internal/rounds"
)

// promptBundle is one round's fixed system prompt and the schema its
// output must validate against. Unlike the teacher's file-templated
// prompt.Manager (internal/prompt, built for an open-ended set of
// user-authored task templates), handover has exactly six fixed rounds
// with no user-facing template selection, so the prompts are plain Go
// string constants rather than a loaded-template system — there is
// nothing dynamic here for a template engine to buy.
type promptBundle struct {
	system string
	schema map[string]interface{}
}

func stringArraySchema(props map[string]interface{}, required ...string) map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

var strProp = map[string]interface{}{"type": "string"}
var strArrayProp = map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}}

var round1Bundle = promptBundle{
	system: "You are analyzing a software repository to write its project overview. Respond with a concise summary, its purpose, and its scope.",
	schema: stringArraySchema(map[string]interface{}{
		"summary":       strProp,
		"purpose":       strProp,
		"scope":         strArrayProp,
		"findings":      strArrayProp,
		"openQuestions": strArrayProp,
	}, "summary"),
}

var round2Bundle = promptBundle{
	system: "You are identifying the naming and structural conventions of a software repository, building on its overview.",
	schema: stringArraySchema(map[string]interface{}{
		"summary":               strProp,
		"namingConventions":     strArrayProp,
		"structureConventions":  strArrayProp,
		"findings":              strArrayProp,
		"openQuestions":         strArrayProp,
	}, "summary"),
}

var round3Bundle = promptBundle{
	system: "You are cataloging the features and cross-component data flows of a software repository.",
	schema: stringArraySchema(map[string]interface{}{
		"summary":       strProp,
		"features":      strArrayProp,
		"dataFlows":     strArrayProp,
		"findings":      strArrayProp,
		"openQuestions": strArrayProp,
	}, "summary"),
}

var round4Bundle = promptBundle{
	system: "You are synthesizing the architecture of a software repository from its overview, conventions, and feature inventory.",
	schema: stringArraySchema(map[string]interface{}{
		"summary":       strProp,
		"components":    strArrayProp,
		"relationships": strArrayProp,
		"findings":      strArrayProp,
		"openQuestions": strArrayProp,
	}, "summary"),
}

var round5Bundle = promptBundle{
	system: "You are writing a deep-dive summary of one module of a software repository.",
	schema: stringArraySchema(map[string]interface{}{
		"summary":       strProp,
		"findings":      strArrayProp,
		"openQuestions": strArrayProp,
	}, "summary"),
}

var round6Bundle = promptBundle{
	system: "You are assessing risks, onboarding steps, and deployment guidance for a software repository.",
	schema: stringArraySchema(map[string]interface{}{
		"summary":          strProp,
		"risks":            strArrayProp,
		"onboardingSteps":  strArrayProp,
		"deploymentSteps":  strArrayProp,
		"findings":         strArrayProp,
		"openQuestions":    strArrayProp,
	}, "summary"),
}

// buildUserPrompt renders the packed context and prior carry-over into one
// round's user-turn content.
func buildUserPrompt(packed packer.PackedContext, carryoverRendered string) string {
	var b strings.Builder
	if carryoverRendered != "" {
		b.WriteString(carryoverRendered)
		b.WriteString("\n\n")
	}
	b.WriteString("## Repository content\n\n")
	for _, f := range packed.Files {
		if f.Tier == packer.TierSkip {
			continue
		}
		fmt.Fprintf(&b, "### %s (%s)\n\n```\n%s\n```\n\n", f.Path, f.Tier, f.Content)
	}
	return b.String()
}

// extractCarryover decodes a round's raw JSON payload into the compressor's
// generic carry-over input shape. Every round emits the same two generic
// fields ("findings", "openQuestions") for this purpose regardless of its
// domain-specific fields; modules/relationships carry-over is left empty
// since this build's round schemas report those as flat display strings,
// not the compressor's {from,type,to} structured shape.
func extractCarryover(data json.RawMessage) compressor.Result {
	var decoded struct {
		Findings      []string `json:"findings"`
		OpenQuestions []string `json:"openQuestions"`
	}
	_ = json.Unmarshal(data, &decoded)
	return compressor.Result{
		Findings:      decoded.Findings,
		OpenQuestions: decoded.OpenQuestions,
	}
}

// roundSpec builds a rounds.Spec for roundNumber using its promptBundle.
func roundSpec(roundNumber int, bundle promptBundle, userPrompt string, maxTokens int) rounds.Spec {
	return rounds.Spec{
		RoundNumber:  roundNumber,
		SystemPrompt: bundle.system,
		UserPrompt:   userPrompt,
		Schema:       bundle.schema,
		Temperature:  0.2,
		MaxTokens:    maxTokens,
	}
}
