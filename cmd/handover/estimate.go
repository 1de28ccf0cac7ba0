package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/phrazzld/handover/internal/analysis"
	"github.com/phrazzld/handover/internal/analysiscache"
	"github.com/phrazzld/handover/internal/discovery"
	"github.com/phrazzld/handover/internal/logutil"
	"github.com/phrazzld/handover/internal/packer"
	"github.com/phrazzld/handover/internal/providers"
	"github.com/phrazzld/handover/internal/rounds"
	"github.com/phrazzld/handover/internal/scorer"
	"github.com/phrazzld/handover/internal/tokenbudget"
)

// assumedOutputTokensPerRound estimates one round's response size for the
// cost projection, since estimate never makes a real completion call to
// measure it.
const assumedOutputTokensPerRound = 1500

func newEstimateCommand() *cobra.Command {
	var (
		repoPath string
		provider string
		model    string
	)

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Report the projected token usage and cost of a generate run",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logutil.NewLogger(logutil.InfoLevel, os.Stderr, "")
			configPath := filepath.Join(repoPath, "handover.yaml")
			// estimate never calls a provider, so the API-key-presence check
			// loadAndOverrideConfig otherwise enforces is irrelevant here;
			// bypass it the same way --static-only does.
			cfg, err := loadAndOverrideConfig(repoPath, configPath, provider, model, "", true, logger)
			if err != nil {
				return err
			}
			preset, ok := providers.Get(cfg.Provider)
			if !ok {
				return fmt.Errorf("unknown provider %q", cfg.Provider)
			}

			files, err := discovery.Run(cmd.Context(), repoPath, discovery.Options{Include: cfg.Include, Exclude: cfg.Exclude, Logger: logger})
			if err != nil {
				return fmt.Errorf("discovery: %w", err)
			}
			cache := analysiscache.New(repoPath)
			_ = cache.Load()
			staticResult := analysis.Run(cmd.Context(), analysis.Options{Root: repoPath, Files: files, Cache: cache, Logger: logger})
			_ = cache.Save()

			maxTokens := preset.ContextWindow
			if cfg.ContextWindow.MaxTokens > 0 {
				maxTokens = cfg.ContextWindow.MaxTokens
			}
			budget := tokenbudget.Compute(maxTokens, tokenbudget.DefaultOptions())
			priorities := scorer.Score(files, staticResult)
			packed := packer.Pack(cmd.Context(), repoPath, priorities, staticResult.AST, staticResult.Todos, budget, cache, tokenbudget.DefaultEstimator{})

			numModules := len(rounds.DetectModules(files))
			printEstimateTable(cfg.Provider, cfg.Model, packed, numModules)
			return nil
		},
	}

	cmd.Flags().StringVar(&repoPath, "repo", ".", "repository path to analyze")
	cmd.Flags().StringVar(&provider, "provider", "", "LLM provider override")
	cmd.Flags().StringVar(&model, "model", "", "model override")

	return cmd
}

func printEstimateTable(providerName, model string, packed packer.PackedContext, numModules int) {
	// 5 single-shot rounds (1,2,3,4,6) plus one call per detected module
	// for round 5's fan-out.
	callCount := 5 + numModules
	inputTokensPerCall := packed.Metadata.UsedTokens
	outputTokens := assumedOutputTokensPerRound * callCount
	inputTokens := inputTokensPerCall * callCount
	cost := providers.CostUSD(providerName, model, inputTokens, outputTokens)

	tbl := table.NewWriter()
	tbl.SetOutputMirror(os.Stdout)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Metric", "Value"})
	tbl.AppendRow(table.Row{"Provider", providerName})
	tbl.AppendRow(table.Row{"Model", model})
	tbl.AppendRow(table.Row{"Packed files", len(packed.Files)})
	tbl.AppendRow(table.Row{"Context budget utilization", fmt.Sprintf("%.1f%%", packed.Metadata.UtilizationPercent)})
	tbl.AppendRow(table.Row{"Projected round calls", callCount})
	tbl.AppendRow(table.Row{"Projected input tokens", inputTokens})
	tbl.AppendRow(table.Row{"Projected output tokens", outputTokens})
	tbl.AppendRow(table.Row{"Projected cost (USD)", fmt.Sprintf("$%.4f", cost)})
	tbl.Render()
}
