// Package compressor implements the RoundCompressor (C8): deterministic,
// LLM-free extraction of a round's result into a token-bounded carry-over
// block consumed by the next round's prompt.
//
// Grounded on the teacher's preference for small deterministic data
// transforms over LLM round-trips wherever the task allows it (e.g.
// phrazzld-thinktank internal/fileutil's manifest-driven filtering instead
// of model-driven decisions).
package compressor

import (
	"fmt"
	"strings"

	"github.com/phrazzld/handover/internal/tokenbudget"
)

// Module, Relationship, and Result are the fields a round result exposes to
// the compressor (spec §3 RoundContext, §4.7).
type Module struct {
	Name string
}

type Relationship struct {
	From string
	Type string
	To   string
}

type Result struct {
	Findings      []string
	Modules       []Module
	Relationships []Relationship
	OpenQuestions []string
}

// Carryover is the compressed block handed to the next round.
type Carryover struct {
	RoundNumber   int
	Findings      []string
	Modules       []string
	Relationships []string
	OpenQuestions []string
	TokenCount    int
}

// Compress extracts, in progressive-truncation order (open questions,
// findings [keeping at least one if any exist], relationships, modules),
// as much of result as fits within maxTokens.
func Compress(roundNumber int, result Result, maxTokens int, estimator tokenbudget.Estimator) Carryover {
	c := Carryover{RoundNumber: roundNumber}

	budget := maxTokens
	tryAdd := func(line string) bool {
		t := estimator.EstimateTokens(line)
		if t > budget {
			return false
		}
		budget -= t
		return true
	}

	for _, q := range result.OpenQuestions {
		if tryAdd(q) {
			c.OpenQuestions = append(c.OpenQuestions, q)
		}
	}

	for i, f := range result.Findings {
		keepRegardless := i == 0 && len(result.Findings) > 0 && len(c.Findings) == 0
		if keepRegardless {
			c.Findings = append(c.Findings, f)
			budget -= estimator.EstimateTokens(f)
			if budget < 0 {
				budget = 0
			}
			continue
		}
		if tryAdd(f) {
			c.Findings = append(c.Findings, f)
		}
	}

	for _, r := range result.Relationships {
		line := fmt.Sprintf("%s → %s (%s)", r.From, r.To, r.Type)
		if tryAdd(line) {
			c.Relationships = append(c.Relationships, line)
		}
	}

	for _, m := range result.Modules {
		if tryAdd(m.Name) {
			c.Modules = append(c.Modules, m.Name)
		}
	}

	c.TokenCount = maxTokens - budget
	return c
}

// Render emits the multi-line labeled block a round prompt embeds.
func (c Carryover) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Round %d carry-over\n\n", c.RoundNumber)
	if len(c.OpenQuestions) > 0 {
		b.WriteString("### Open questions\n")
		for _, q := range c.OpenQuestions {
			fmt.Fprintf(&b, "- %s\n", q)
		}
	}
	if len(c.Findings) > 0 {
		b.WriteString("### Findings\n")
		for _, f := range c.Findings {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}
	if len(c.Relationships) > 0 {
		b.WriteString("### Relationships\n")
		for _, r := range c.Relationships {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}
	if len(c.Modules) > 0 {
		b.WriteString("### Modules\n")
		for _, m := range c.Modules {
			fmt.Fprintf(&b, "- %s\n", m)
		}
	}
	return b.String()
}
