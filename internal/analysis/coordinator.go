// Package analysis implements the AnalysisCoordinator (C4): it runs the
// eight analyzers concurrently with per-analyzer failure isolation and
// assembles their outputs into a single immutable StaticAnalysisResult.
//
// Grounded on the teacher's worker-pool isolation pattern in
// phrazzld-thinktank internal/fileutil/concurrent.go (log-and-skip per
// unit of work, never abort the whole pass), generalized from per-file to
// per-analyzer granularity using golang.org/x/sync/errgroup the way
// standardbeagle-lci fans out its indexer stages.
package analysis

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/phrazzld/handover/internal/analysiscache"
	"github.com/phrazzld/handover/internal/analyzers"
	"github.com/phrazzld/handover/internal/logutil"
	"github.com/phrazzld/handover/internal/snapshot"
)

// Options configures a coordinator run.
type Options struct {
	Root     string
	Files    []snapshot.FileEntry
	Cache    *analysiscache.Cache
	Logger   logutil.LoggerInterface
	GitDepth string
	AST      analyzers.ASTExtractor
}

// Run executes the eight analyzers concurrently. Each analyzer's failure is
// isolated: a failing analyzer contributes its zero-value result plus a log
// line, never aborting the others (spec §4.4, §7).
func Run(ctx context.Context, opts Options) snapshot.StaticAnalysisResult {
	start := time.Now()
	logger := opts.Logger
	if logger == nil {
		logger = logutil.NewLogger(logutil.InfoLevel, nil, "[analysis] ")
	}
	if opts.AST == nil {
		opts.AST = analyzers.DefaultASTExtractor{}
	}

	actx := &analyzers.Context{
		Root:     opts.Root,
		Files:    opts.Files,
		Cache:    opts.Cache,
		Logger:   logger,
		GitDepth: opts.GitDepth,
		AST:      opts.AST,
	}

	var (
		fileTree     analyzers.Result[snapshot.FileTreeResult]
		dependencies analyzers.Result[snapshot.DependenciesResult]
		gitHistory   analyzers.Result[snapshot.GitHistoryResult]
		todos        analyzers.Result[snapshot.TodosResult]
		env          analyzers.Result[snapshot.EnvResult]
		ast          analyzers.Result[snapshot.ASTResult]
		tests        analyzers.Result[snapshot.TestsResult]
		docs         analyzers.Result[snapshot.DocsResult]
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { fileTree = analyzers.FileTree(gctx, actx); return nil })
	g.Go(func() error { dependencies = analyzers.Dependencies(gctx, actx); return nil })
	g.Go(func() error { gitHistory = analyzers.GitHistory(gctx, actx); return nil })
	g.Go(func() error { todos = analyzers.Todos(gctx, actx); return nil })
	g.Go(func() error { env = analyzers.Env(gctx, actx); return nil })
	g.Go(func() error { ast = analyzers.AST(gctx, actx); return nil })
	g.Go(func() error { tests = analyzers.Tests(gctx, actx); return nil })
	g.Go(func() error { docs = analyzers.Docs(gctx, actx); return nil })

	// Analyzer functions never return an error themselves (failures are
	// captured in Result.Error), so Wait only reports context cancellation.
	_ = g.Wait()

	logFailure(logger, "fileTree", fileTree.Error)
	logFailure(logger, "dependencies", dependencies.Error)
	logFailure(logger, "gitHistory", gitHistory.Error)
	logFailure(logger, "todos", todos.Error)
	logFailure(logger, "env", env.Error)
	logFailure(logger, "ast", ast.Error)
	logFailure(logger, "tests", tests.Error)
	logFailure(logger, "docs", docs.Error)

	return snapshot.StaticAnalysisResult{
		FileTree:     fileTree.Data,
		Dependencies: dependencies.Data,
		GitHistory:   gitHistory.Data,
		Todos:        todos.Data,
		Env:          env.Data,
		AST:          ast.Data,
		Tests:        tests.Data,
		Docs:         docs.Data,
		Metadata: snapshot.Metadata{
			AnalyzedAtISO: start.UTC().Format("2006-01-02T15:04:05Z"),
			RootDir:       opts.Root,
			FileCount:     len(opts.Files),
			ElapsedMs:     time.Since(start).Milliseconds(),
		},
	}
}

func logFailure(logger logutil.LoggerInterface, name string, err error) {
	if err != nil {
		logger.Warn("analyzer %s failed: %v", name, err)
	}
}
