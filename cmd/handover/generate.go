package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/phrazzld/handover/internal/auth"
	"github.com/phrazzld/handover/internal/config"
	"github.com/phrazzld/handover/internal/handover"
	"github.com/phrazzld/handover/internal/logutil"
	"github.com/phrazzld/handover/internal/providers"
)

func newGenerateCommand() *cobra.Command {
	var (
		repoPath   string
		configPath string
		provider   string
		model      string
		only       []string
		audience   string
		staticOnly bool
		noCache    bool
		gitDepth   string
		apiKey     string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run the full analysis-and-synthesis pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			level := logutil.InfoLevel
			if verbose {
				level = logutil.DebugLevel
			}
			logger := logutil.NewLogger(level, os.Stderr, "")

			cfg, err := loadAndOverrideConfig(repoPath, configPath, provider, model, audience, staticOnly, logger)
			if err != nil {
				return err
			}

			term := logutil.NewTerminalRenderer(logutil.TerminalRendererOptions{
				Out:          os.Stdout,
				SuppressCost: isLocalOrSubscription(cfg),
			})

			store, err := auth.NewTokenStore()
			if err != nil {
				logger.Warn("credential store unavailable: %v", err)
			}

			result, err := handover.Run(ctx, handover.Options{
				RepoPath:  repoPath,
				Config:    cfg,
				CLIAPIKey: apiKey,
				Only:      only,
				NoCache:   noCache,
				GitDepth:  gitDepth,
				Logger:    logger,
				Terminal:  term,
				Store:     store,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "generated %d document(s), skipped %d, in %dms\n", result.Generated, result.Skipped, result.ElapsedMs)
			return nil
		},
	}

	cmd.Flags().StringVar(&repoPath, "repo", ".", "repository path to analyze")
	cmd.Flags().StringVar(&configPath, "config", "", "path to the config YAML file (default <repo>/handover.yaml)")
	cmd.Flags().StringVar(&provider, "provider", "", "LLM provider (anthropic, openai, groq, together, deepseek, azure-openai, ollama, custom)")
	cmd.Flags().StringVar(&model, "model", "", "model name override")
	cmd.Flags().StringSliceVar(&only, "only", nil, "comma-separated document ids/aliases/categories to generate")
	cmd.Flags().StringVar(&audience, "audience", "", "human or ai")
	cmd.Flags().BoolVar(&staticOnly, "static-only", false, "skip all LLM rounds, render from static analysis alone")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass and clear the round cache")
	cmd.Flags().StringVar(&gitDepth, "git-depth", "default", "default or full")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key override (takes precedence over env var and credential store)")

	return cmd
}

// loadAndOverrideConfig loads <repo>/handover.yaml (or configPath) and
// layers CLI flag overrides on top, then validates the merged record
// against the resolved API key presence.
func loadAndOverrideConfig(repoPath, configPath, provider, model, audience string, staticOnly bool, logger logutil.LoggerInterface) (*config.Config, error) {
	if configPath == "" {
		configPath = filepath.Join(repoPath, "handover.yaml")
	}

	cfg, err := config.NewLoader(logger).Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if provider != "" {
		cfg.Provider = provider
	}
	if model != "" {
		cfg.Model = model
	}
	if audience != "" {
		cfg.Audience = config.Audience(audience)
	}
	if staticOnly {
		cfg.Analysis.StaticOnly = true
	}

	apiKeyEnv := cfg.APIKeyEnv
	if apiKeyEnv == "" {
		if preset, ok := providers.Get(cfg.Provider); ok {
			apiKeyEnv = preset.APIKeyEnv
		}
	}
	apiKeyPresent := apiKeyEnv != "" && os.Getenv(apiKeyEnv) != ""
	if cfg.Analysis.StaticOnly {
		apiKeyPresent = true // no credential is required when no round will run
	}
	if err := config.Validate(cfg, apiKeyPresent); err != nil && !cfg.Analysis.StaticOnly {
		return nil, err
	}

	return cfg, nil
}

// isLocalOrSubscription reports whether cost display must be suppressed
// (spec §4.15): the active provider runs locally, or the credential came
// through a subscription rather than a metered API key.
func isLocalOrSubscription(cfg *config.Config) bool {
	if cfg.AuthMethod == config.AuthMethodSubscription {
		return true
	}
	preset, ok := providers.Get(cfg.Provider)
	return ok && preset.IsLocal
}
