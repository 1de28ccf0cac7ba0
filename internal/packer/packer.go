// Package packer implements the ContextPacker (C7): greedy tier assignment
// of scored files into full/signatures/skip content, with two-pass
// sectioning for files too large to include whole.
//
// Grounded on the teacher's batched, failure-tolerant read pattern
// (phrazzld-thinktank internal/fileutil/concurrent.go's readFiles stage),
// applied here as a single pre-read phase rather than a pipeline stage
// since the packer's greedy loop must see every file's content up front.
package packer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/phrazzld/handover/internal/analysiscache"
	"github.com/phrazzld/handover/internal/scorer"
	"github.com/phrazzld/handover/internal/snapshot"
	"github.com/phrazzld/handover/internal/tokenbudget"
)

// Tier classifies how much of a file's content is included in a round's prompt.
type Tier string

const (
	TierFull       Tier = "full"
	TierSignatures Tier = "signatures"
	TierSkip       Tier = "skip"
)

// OversizedTokenThreshold and MinOversizedScore gate two-pass sectioning
// (spec §4.6).
const (
	OversizedTokenThreshold = 8000
	MinOversizedScore       = 30
	ReadBatchSize           = 50
	FallbackPreviewLines    = 20
)

// PackedFile is one file's packing outcome.
type PackedFile struct {
	Path    string
	Tier    Tier
	Content string
	Tokens  int
	Score   int
}

// TierTotals counts files per tier.
type TierTotals struct {
	Full       int
	Signatures int
	Skip       int
}

// Metadata summarizes a packing run.
type Metadata struct {
	Totals             TierTotals
	UsedTokens         int
	UtilizationPercent float64
}

// PackedContext is the full output of a packing run.
type PackedContext struct {
	Files    []PackedFile
	Budget   tokenbudget.Budget
	Metadata Metadata
}

// Pack assigns tiers to priorities in descending score order under budget,
// per the greedy policy of spec §4.6.
func Pack(ctx context.Context, root string, priorities []scorer.Priority, ast snapshot.ASTResult, todos snapshot.TodosResult, budget tokenbudget.Budget, cache *analysiscache.Cache, estimator tokenbudget.Estimator) PackedContext {
	astByPath := make(map[string]snapshot.ParsedFile, len(ast.Files))
	for _, pf := range ast.Files {
		astByPath[pf.Path] = pf
	}
	todoFiles := make(map[string][]snapshot.TodoItem)
	for _, item := range todos.Items {
		todoFiles[item.File] = append(todoFiles[item.File], item)
	}

	contents := preRead(ctx, root, priorities, cache)

	remaining := budget.FileContentBudget
	if remaining <= 0 {
		return buildSkipAll(priorities)
	}

	fullTokens := make(map[string]int, len(priorities))
	totalFull := 0
	for _, p := range priorities {
		t := estimator.EstimateTokens(contents[p.Path])
		fullTokens[p.Path] = t
		totalFull += t
	}

	var result PackedContext
	result.Budget = budget

	if totalFull <= remaining {
		for _, p := range priorities {
			result.Files = append(result.Files, PackedFile{Path: p.Path, Tier: TierFull, Content: contents[p.Path], Tokens: fullTokens[p.Path], Score: p.Score})
			result.Metadata.Totals.Full++
			result.Metadata.UsedTokens += fullTokens[p.Path]
		}
		result.Metadata.UtilizationPercent = calcUtilization(result.Metadata.UsedTokens, budget.FileContentBudget)
		return result
	}

	for _, p := range priorities {
		content := contents[p.Path]
		tokens := fullTokens[p.Path]

		if tokens <= remaining && !(tokens > OversizedTokenThreshold && p.Score >= MinOversizedScore) {
			result.Files = append(result.Files, PackedFile{Path: p.Path, Tier: TierFull, Content: content, Tokens: tokens, Score: p.Score})
			result.Metadata.Totals.Full++
			remaining -= tokens
			result.Metadata.UsedTokens += tokens
			continue
		}

		if tokens > OversizedTokenThreshold && p.Score >= MinOversizedScore {
			packed, used := packOversized(p, content, astByPath[p.Path], todoFiles[p.Path], remaining, estimator)
			result.Files = append(result.Files, packed)
			remaining -= used
			result.Metadata.UsedTokens += used
			if packed.Tier == TierFull {
				result.Metadata.Totals.Full++
			} else if packed.Tier == TierSignatures {
				result.Metadata.Totals.Signatures++
			} else {
				result.Metadata.Totals.Skip++
			}
			continue
		}

		if pf, ok := astByPath[p.Path]; ok {
			summary := signatureSummary(pf)
			sTokens := estimator.EstimateTokens(summary)
			if sTokens <= remaining {
				result.Files = append(result.Files, PackedFile{Path: p.Path, Tier: TierSignatures, Content: summary, Tokens: sTokens, Score: p.Score})
				result.Metadata.Totals.Signatures++
				remaining -= sTokens
				result.Metadata.UsedTokens += sTokens
				continue
			}
		} else {
			fallback := fallbackSummary(content)
			fTokens := estimator.EstimateTokens(fallback)
			if fTokens <= remaining {
				result.Files = append(result.Files, PackedFile{Path: p.Path, Tier: TierSignatures, Content: fallback, Tokens: fTokens, Score: p.Score})
				result.Metadata.Totals.Signatures++
				remaining -= fTokens
				result.Metadata.UsedTokens += fTokens
				continue
			}
		}

		result.Files = append(result.Files, PackedFile{Path: p.Path, Tier: TierSkip, Content: "", Tokens: 0, Score: p.Score})
		result.Metadata.Totals.Skip++
	}

	result.Metadata.UtilizationPercent = calcUtilization(result.Metadata.UsedTokens, budget.FileContentBudget)
	return result
}

func buildSkipAll(priorities []scorer.Priority) PackedContext {
	var result PackedContext
	for _, p := range priorities {
		result.Files = append(result.Files, PackedFile{Path: p.Path, Tier: TierSkip, Score: p.Score})
		result.Metadata.Totals.Skip++
	}
	return result
}

// calcUtilization is safe for a zero or negative budget (returns 0%).
func calcUtilization(used, budget int) float64 {
	if budget <= 0 {
		return 0
	}
	return float64(used) / float64(budget) * 100
}

func preRead(ctx context.Context, root string, priorities []scorer.Priority, cache *analysiscache.Cache) map[string]string {
	out := make(map[string]string, len(priorities))
	paths := make([]string, len(priorities))
	for i, p := range priorities {
		paths[i] = p.Path
	}
	for start := 0; start < len(paths); start += ReadBatchSize {
		end := start + ReadBatchSize
		if end > len(paths) {
			end = len(paths)
		}
		for _, rel := range paths[start:end] {
			select {
			case <-ctx.Done():
				return out
			default:
			}
			abs := rel
			if root != "" {
				abs = root + "/" + rel
			}
			data, err := cache.ReadFileMemoized(abs)
			if err != nil {
				out[rel] = ""
				continue
			}
			out[rel] = string(data)
		}
	}
	return out
}

// signatureSummary implements the Markdown-friendly format of spec §4.6.1.
func signatureSummary(pf snapshot.ParsedFile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "// FILE: %s (%d lines)\n", pf.Path, pf.LineCount)

	exported := make(map[string]bool, len(pf.Exports))
	for _, e := range pf.Exports {
		exported[e.Name] = true
	}

	for _, fn := range pf.Functions {
		if !exported[fn.Name] {
			continue
		}
		async := ""
		if fn.IsAsync {
			async = "async "
		}
		ret := ""
		if fn.ReturnType != "" {
			ret = ": " + fn.ReturnType
		}
		fmt.Fprintf(&b, "export %sfunction %s(%s)%s\n", async, fn.Name, formatParams(fn.Parameters), ret)
	}

	for _, cls := range pf.Classes {
		var sigs []string
		for _, m := range cls.Methods {
			if m.Visibility != snapshot.VisibilityPublic {
				continue
			}
			sigs = append(sigs, fmt.Sprintf("%s(%s)", m.Name, formatParams(m.Parameters)))
		}
		fmt.Fprintf(&b, "export class %s { %s }\n", cls.Name, strings.Join(sigs, "; "))
	}

	if len(pf.Imports) > 0 {
		sources := make([]string, 0, len(pf.Imports))
		seen := make(map[string]bool)
		for _, imp := range pf.Imports {
			if !seen[imp.Source] {
				seen[imp.Source] = true
				sources = append(sources, imp.Source)
			}
		}
		fmt.Fprintf(&b, "// %d imports from: %s\n", len(sources), strings.Join(sources, ", "))
	}
	return b.String()
}

func formatParams(params []snapshot.Parameter) string {
	parts := make([]string, len(params))
	for i, p := range params {
		if p.Type != "" {
			parts[i] = p.Name + ": " + p.Type
		} else {
			parts[i] = p.Name
		}
	}
	return strings.Join(parts, ", ")
}

func fallbackSummary(content string) string {
	lines := strings.Split(content, "\n")
	total := len(lines)
	n := FallbackPreviewLines
	if n > total {
		n = total
	}
	var b strings.Builder
	fmt.Fprintf(&b, "// %d lines total\n", total)
	for _, line := range lines[:n] {
		b.WriteString("// ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// packOversized implements the two-pass sectioning policy: pass one is the
// signature summary; pass two greedily adds deep-dive sections
// (exported function bodies, then largest-parameter-list methods, then
// TODO-overlapping functions) while they fit.
func packOversized(p scorer.Priority, content string, pf snapshot.ParsedFile, todos []snapshot.TodoItem, remaining int, estimator tokenbudget.Estimator) (PackedFile, int) {
	base := signatureSummary(pf)
	used := estimator.EstimateTokens(base)
	if used > remaining {
		return PackedFile{Path: p.Path, Tier: TierSkip, Score: p.Score}, 0
	}

	sections := deepDiveSections(content, pf, todos)
	var b strings.Builder
	b.WriteString(base)

	for _, section := range sections {
		sTokens := estimator.EstimateTokens(section)
		if used+sTokens > remaining {
			continue
		}
		b.WriteString("\n")
		b.WriteString(section)
		used += sTokens
	}

	return PackedFile{Path: p.Path, Tier: TierSignatures, Content: b.String(), Tokens: used, Score: p.Score}, used
}

// deepDiveSections orders candidate body excerpts: exported function bodies
// first, then methods with the largest parameter lists, then functions
// whose line range overlaps a TODO marker.
func deepDiveSections(content string, pf snapshot.ParsedFile, todos []snapshot.TodoItem) []string {
	lines := strings.Split(content, "\n")
	extract := func(start, end int) string {
		if start < 1 {
			start = 1
		}
		if end > len(lines) {
			end = len(lines)
		}
		if start > end {
			return ""
		}
		return strings.Join(lines[start-1:end], "\n")
	}

	var sections []string

	exported := make(map[string]bool, len(pf.Exports))
	for _, e := range pf.Exports {
		exported[e.Name] = true
	}
	for _, fn := range pf.Functions {
		if exported[fn.Name] && fn.StartLine > 0 && fn.EndLine > 0 {
			sections = append(sections, fmt.Sprintf("// %s (exported)\n%s", fn.Name, extract(fn.StartLine, fn.EndLine)))
		}
	}

	type methodRef struct {
		cls    string
		method snapshot.Method
	}
	var methods []methodRef
	for _, cls := range pf.Classes {
		for _, m := range cls.Methods {
			methods = append(methods, methodRef{cls.Name, m})
		}
	}
	sort.Slice(methods, func(i, j int) bool {
		return len(methods[i].method.Parameters) > len(methods[j].method.Parameters)
	})
	for _, m := range methods {
		sections = append(sections, fmt.Sprintf("// %s.%s (signature)\n%s(%s)", m.cls, m.method.Name, m.method.Name, formatParams(m.method.Parameters)))
	}

	for _, fn := range pf.Functions {
		for _, t := range todos {
			if t.Line >= fn.StartLine && t.Line <= fn.EndLine && fn.StartLine > 0 {
				sections = append(sections, fmt.Sprintf("// %s (contains %s)\n%s", fn.Name, t.Marker, extract(fn.StartLine, fn.EndLine)))
			}
		}
	}

	return sections
}
