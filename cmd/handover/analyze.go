package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/phrazzld/handover/internal/analysis"
	"github.com/phrazzld/handover/internal/analysiscache"
	"github.com/phrazzld/handover/internal/discovery"
	"github.com/phrazzld/handover/internal/logutil"
	"github.com/phrazzld/handover/internal/snapshot"
)

func newAnalyzeCommand() *cobra.Command {
	var (
		repoPath string
		asJSON   bool
		gitDepth string
		include  []string
		exclude  []string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run only the static analyzers and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logutil.NewLogger(logutil.InfoLevel, os.Stderr, "")

			files, err := discovery.Run(cmd.Context(), repoPath, discovery.Options{Include: include, Exclude: exclude, Logger: logger})
			if err != nil {
				return fmt.Errorf("discovery: %w", err)
			}

			cache := analysiscache.New(repoPath)
			_ = cache.Load()
			result := analysis.Run(cmd.Context(), analysis.Options{Root: repoPath, Files: files, Cache: cache, Logger: logger, GitDepth: gitDepth})
			_ = cache.Save()

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			printAnalyzeTable(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&repoPath, "repo", ".", "repository path to analyze")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the raw StaticAnalysisResult as JSON")
	cmd.Flags().StringVar(&gitDepth, "git-depth", "default", "default or full")
	cmd.Flags().StringSliceVar(&include, "include", nil, "glob patterns to include")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "glob patterns to exclude")

	return cmd
}

func printAnalyzeTable(result snapshot.StaticAnalysisResult) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(os.Stdout)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Analyzer", "Summary"})

	tbl.AppendRow(table.Row{"FileTree", fmt.Sprintf("%d files, %d dirs, %s",
		result.FileTree.Totals.Files, result.FileTree.Totals.Dirs, humanize.Bytes(uint64(result.FileTree.Totals.Bytes)))})
	tbl.AppendRow(table.Row{"Dependencies", fmt.Sprintf("%d manifest(s)", len(result.Dependencies.Manifests))})
	tbl.AppendRow(table.Row{"GitHistory", gitHistorySummary(result.GitHistory)})
	tbl.AppendRow(table.Row{"Todos", fmt.Sprintf("%d marker(s)", result.Todos.Summary.Total)})
	tbl.AppendRow(table.Row{"Env", fmt.Sprintf("%d file(s)", len(result.Env.Files))})
	tbl.AppendRow(table.Row{"AST", fmt.Sprintf("%d parsed file(s)", len(result.AST.Files))})
	tbl.AppendRow(table.Row{"Tests", fmt.Sprintf("%d test file(s)", len(result.Tests.Files))})
	tbl.AppendRow(table.Row{"Docs", fmt.Sprintf("%d doc file(s)", len(result.Docs.DocFiles))})

	tbl.Render()
	fmt.Printf("\nanalyzed %d file(s) in %dms\n", result.Metadata.FileCount, result.Metadata.ElapsedMs)
}

func gitHistorySummary(g snapshot.GitHistoryResult) string {
	if !g.IsGitRepo {
		return "not a git repository"
	}
	return fmt.Sprintf("%s, %d contributor(s)", g.BranchPattern.Strategy, len(g.Contributors))
}
