package analyzers

import (
	"context"
	"regexp"
	"strings"

	"github.com/phrazzld/handover/internal/discovery"
	"github.com/phrazzld/handover/internal/snapshot"
)

// markerCategory maps a marker keyword to its aggregation bucket (spec
// §4.3.4's marker vocabulary).
var markerCategory = map[string]snapshot.TodoCategory{
	"FIXME":      snapshot.TodoBugs,
	"HACK":       snapshot.TodoBugs,
	"XXX":        snapshot.TodoBugs,
	"TODO":       snapshot.TodoTasks,
	"NOTE":       snapshot.TodoNotes,
	"WARN":       snapshot.TodoNotes,
	"DEPRECATED": snapshot.TodoDebt,
	"TEMP":       snapshot.TodoDebt,
	"OPTIMIZE":   snapshot.TodoOptimization,
	"REVIEW":     snapshot.TodoOptimization,
}

var (
	markerLine = regexp.MustCompile(`(?i)\b(FIXME|HACK|XXX|TODO|NOTE|WARN|DEPRECATED|TEMP|OPTIMIZE|REVIEW)\b[:\s]*(.*)`)
	issueRef   = regexp.MustCompile(`#\d+|\b[A-Z]{2,}-\d+\b`)
)

// Todos scans every file's text content for the marker vocabulary, splitting
// matches by category and extracting issue-tracker references (#123 or
// ABC-456 shapes). Binary content is skipped via discovery's content sniff.
func Todos(ctx context.Context, c *Context) Result[snapshot.TodosResult] {
	return run(func() (snapshot.TodosResult, error) {
		paths := make([]string, len(c.Files))
		for i, f := range c.Files {
			paths[i] = f.AbsPath
		}
		contents := readBatched(ctx, c, paths)

		res := snapshot.TodosResult{Summary: snapshot.TodoSummary{ByCategory: make(map[snapshot.TodoCategory]int)}}

		for _, f := range c.Files {
			content := contents[f.AbsPath]
			if content == nil || discovery.IsBinaryContent(content) {
				continue
			}
			for lineNo, line := range strings.Split(string(content), "\n") {
				m := markerLine.FindStringSubmatch(line)
				if m == nil {
					continue
				}
				marker := strings.ToUpper(m[1])
				category, ok := markerCategory[marker]
				if !ok {
					continue
				}
				item := snapshot.TodoItem{
					Marker:    marker,
					Category:  category,
					Text:      strings.TrimSpace(m[2]),
					File:      f.RelPath,
					Line:      lineNo + 1,
					IssueRefs: issueRef.FindAllString(line, -1),
				}
				res.Items = append(res.Items, item)
				res.Summary.Total++
				res.Summary.ByCategory[category]++
			}
		}
		return res, nil
	})
}
