// Package render implements the Renderers & Registry (C15): fourteen pure
// functions that turn a RenderContext into a Markdown document, plus the
// DocumentSpec registry that drives alias resolution, required-round
// expansion, and the final INDEX aggregation.
//
// Grounded on phrazzld-thinktank's internal/thinktank/synthesis templating
// (the part of the teacher that assembles a Markdown report from several
// structured inputs) generalized from one synthesis document to fourteen,
// each with its own data source and degraded-document policy.
package render

import (
	"encoding/json"

	"github.com/phrazzld/handover/internal/rounds"
	"github.com/phrazzld/handover/internal/snapshot"
)

// Audience selects whether a rendered document includes the AI-mode
// structured block alongside its narrative (spec §4.14).
type Audience string

const (
	AudienceHuman Audience = "human"
	AudienceAI    Audience = "ai"
)

// DocStatus is the front matter status every rendered document reports.
type DocStatus string

const (
	StatusComplete    DocStatus = "complete"
	StatusPartial     DocStatus = "partial"
	StatusStaticOnly  DocStatus = "static-only"
	StatusNotGenerated DocStatus = "not-generated"
)

// RoundView is the decoded, renderer-friendly projection of one
// rounds.Result. Each round's Data shape is specific to that round's JSON
// Schema, so renderers read it as a loosely-typed map rather than a fixed
// struct; Carryover and DegradedReason are always structurally available
// regardless of which round produced them.
type RoundView struct {
	RoundNumber    int
	Status         rounds.Status
	Data           map[string]interface{}
	DegradedReason string
	Carryover      string // compressor.Carryover.Render()
}

// NewRoundView decodes a rounds.Result into a RoundView. A Data payload
// that fails to decode as a JSON object (e.g. the degraded empty-object
// sentinel, or a round whose schema emits a bare array) yields an empty
// map rather than an error: renderers treat a missing field the same way
// whether it is absent because the round degraded or because the schema
// did not include it.
func NewRoundView(r rounds.Result) RoundView {
	v := RoundView{
		RoundNumber:    r.Carryover.RoundNumber,
		Status:         r.Status,
		DegradedReason: r.DegradedReason,
		Carryover:      r.Carryover.Render(),
	}
	var m map[string]interface{}
	if err := json.Unmarshal(r.Data, &m); err == nil {
		v.Data = m
	} else {
		v.Data = map[string]interface{}{}
	}
	return v
}

// ModuleView is one module's rendered fan-out result for 05-MODULES.md.
type ModuleView struct {
	Module string
	View   RoundView
}

// RenderContext is the read-only input every renderer receives. It is
// assembled once per run and shared by reference across all fourteen
// renderers (spec §4.14: "RenderContext carries round results keyed by
// number, the StaticAnalysisResult, the merged config, audience mode,
// generatedAt, and project name").
//
// Provider and Model stand in for "the merged config" fields a renderer
// actually consumes (cost-display suppression context, the
// ai_rounds_used provenance line); the full configuration record belongs
// to the pipeline wiring layer, not to rendering.
type RenderContext struct {
	Project       string
	GeneratedAt   string // ISO-8601
	Audience      Audience
	Provider      string
	Model         string
	Static        snapshot.StaticAnalysisResult
	Rounds        map[int]RoundView // keyed by round number; absent = not run
	ModuleResults []ModuleView      // round 5's per-module fan-out, empty if round 5 didn't run
}

// Round looks up a round result and reports whether it ran at all.
func (c RenderContext) Round(n int) (RoundView, bool) {
	v, ok := c.Rounds[n]
	return v, ok
}

// roundsUsed lists, ascending, the round numbers actually present in the
// context — used to populate front matter's ai_rounds_used.
func (c RenderContext) roundsUsed() []int {
	out := make([]int, 0, len(c.Rounds))
	for n := range c.Rounds {
		out = append(out, n)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
