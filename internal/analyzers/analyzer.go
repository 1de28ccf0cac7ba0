// Package analyzers implements the eight independent static extractors that
// feed the AnalysisCoordinator (C4): file tree, dependency manifests, git
// history, TODO/FIXME markers, environment variables, AST summaries, tests,
// and docs.
//
// Each analyzer is a pure function of an AnalysisContext to an
// AnalyzerResult[T] and never mutates shared state, per spec §4.3. Batched,
// failure-tolerant file reads are grounded on the teacher's per-file error
// tolerance in phrazzld-thinktank internal/fileutil/concurrent.go, which
// logs and skips rather than aborting a whole pass.
package analyzers

import (
	"context"
	"time"

	"github.com/phrazzld/handover/internal/analysiscache"
	"github.com/phrazzld/handover/internal/logutil"
	"github.com/phrazzld/handover/internal/snapshot"
)

// ReadBatchSize is the bounded-failure batch width for file reads (spec §4.3).
const ReadBatchSize = 50

// Context is the immutable input shared by every analyzer.
type Context struct {
	Root      string
	Files     []snapshot.FileEntry
	Cache     *analysiscache.Cache
	Logger    logutil.LoggerInterface
	GitDepth  string // "default" or "full"
	AST       ASTExtractor
}

// Result wraps one analyzer's outcome uniformly so a single failure never
// discards the others (spec §4.3, §7).
type Result[T any] struct {
	Success   bool
	Data      T
	Error     error
	ElapsedMs int64
}

func run[T any](fn func() (T, error)) Result[T] {
	start := time.Now()
	data, err := fn()
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		var zero T
		return Result[T]{Success: false, Data: zero, Error: err, ElapsedMs: elapsed}
	}
	return Result[T]{Success: true, Data: data, ElapsedMs: elapsed}
}

// readBatched reads file contents in fixed-size batches, tolerating
// individual failures by substituting empty content and logging at debug
// level (spec §4.3, §7).
func readBatched(ctx context.Context, c *Context, paths []string) map[string][]byte {
	out := make(map[string][]byte, len(paths))
	for start := 0; start < len(paths); start += ReadBatchSize {
		end := start + ReadBatchSize
		if end > len(paths) {
			end = len(paths)
		}
		for _, p := range paths[start:end] {
			select {
			case <-ctx.Done():
				return out
			default:
			}
			abs := p
			data, err := c.Cache.ReadFileMemoized(abs)
			if err != nil {
				c.Logger.DebugContext(ctx, "read failed for %s: %v, treating as empty", p, err)
				out[p] = nil
				continue
			}
			out[p] = data
		}
	}
	return out
}

// ASTExtractor is the external capability this module delegates to for
// language-specific parsing. Per-language extractors are plug-ins; the AST
// analyzer (C3.6) only depends on this stable interface.
type ASTExtractor interface {
	Parse(ctx context.Context, path string, content []byte) (*snapshot.ParsedFile, bool)
}
