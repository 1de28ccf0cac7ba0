// Package handover wires the analysis-and-synthesis pipeline's components
// (C1 through C16) into the single top-level Run entry point: discover
// files, run the eight static analyzers, score and pack context, execute
// the configured LLM rounds with caching and retry, and render the
// fourteen-document registry to disk.
//
// Grounded on the teacher's top-level orchestration in
// phrazzld-thinktank/internal/thinktank (the function that strings together
// its own discovery → synthesis → output stages into one callable entry
// point), generalized from "one model, one synthesis call" to this
// pipeline's fixed six-round, eight-analyzer, fourteen-document shape.
package handover

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/phrazzld/handover/internal/analysis"
	"github.com/phrazzld/handover/internal/analysiscache"
	"github.com/phrazzld/handover/internal/auth"
	"github.com/phrazzld/handover/internal/config"
	"github.com/phrazzld/handover/internal/dag"
	"github.com/phrazzld/handover/internal/discovery"
	"github.com/phrazzld/handover/internal/logutil"
	"github.com/phrazzld/handover/internal/packer"
	"github.com/phrazzld/handover/internal/providers"
	"github.com/phrazzld/handover/internal/ratelimit"
	"github.com/phrazzld/handover/internal/render"
	"github.com/phrazzld/handover/internal/roundcache"
	"github.com/phrazzld/handover/internal/rounds"
	"github.com/phrazzld/handover/internal/scorer"
	"github.com/phrazzld/handover/internal/snapshot"
	"github.com/phrazzld/handover/internal/tokenbudget"
)

// CarryoverTokenBudget bounds the inter-round compressed context block
// (spec §4.7 gives no fixed constant; chosen as half of the default prompt
// overhead reserved in tokenbudget.DefaultOptions, leaving headroom for
// the round's own instructions alongside the carried-over findings).
const CarryoverTokenBudget = 1500

// Options configures one Run.
type Options struct {
	RepoPath  string
	Config    *config.Config
	CLIAPIKey string
	Only      []string // --only selector list; empty means every document
	NoCache   bool
	GitDepth  string // "default" or "full"
	Logger    logutil.LoggerInterface
	Terminal  *logutil.TerminalRenderer
	Store     *auth.TokenStore
	Prompt    auth.PromptFunc
}

// Result is the outcome of a full Run.
type Result struct {
	Documents []render.DocResult
	Generated int
	Skipped   int
	ElapsedMs int64
}

// Run executes the full pipeline once and writes every selected document
// to cfg.Output. It never returns an error for a degraded-but-complete
// run (spec §8: exit 0 on success or partial success); an error return
// means a configuration, auth, or file-system failure that prevented any
// output from being produced at all (spec §7's "surfaced" category).
func Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = logutil.NewLogger(logutil.InfoLevel, nil, "[handover] ")
	}

	preset, ok := providers.Get(cfg.Provider)
	if !ok {
		return nil, fmt.Errorf("handover: unknown provider %q", cfg.Provider)
	}

	files, err := discovery.Run(ctx, opts.RepoPath, discovery.Options{
		Include: cfg.Include, Exclude: cfg.Exclude, Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("handover: file discovery failed: %w", err)
	}

	cache := analysiscache.New(opts.RepoPath)
	if err := cache.Load(); err != nil {
		logger.Warn("analysis cache load failed, starting fresh: %v", err)
	}

	gitDepth := opts.GitDepth
	if gitDepth == "" {
		gitDepth = "default"
	}
	staticResult := analysis.Run(ctx, analysis.Options{
		Root: opts.RepoPath, Files: files, Cache: cache, Logger: logger, GitDepth: gitDepth,
	})
	if err := cache.Save(); err != nil {
		logger.Warn("analysis cache save failed: %v", err)
	}

	selected, err := render.ResolveSelectedDocs(opts.Only)
	if err != nil {
		return nil, err
	}
	requiredRounds := render.ComputeRequiredRounds(selected)

	renderCtx := render.RenderContext{
		Project:     filepath.Base(strings.TrimRight(opts.RepoPath, string(filepath.Separator))),
		GeneratedAt: start.UTC().Format(time.RFC3339),
		Audience:    render.Audience(cfg.Audience),
		Provider:    cfg.Provider,
		Model:       cfg.Model,
		Static:      staticResult,
		Rounds:      map[int]render.RoundView{},
	}

	if !cfg.Analysis.StaticOnly && len(requiredRounds) > 0 {
		roundResults, moduleResults, err := runRounds(ctx, opts, cfg, preset, staticResult, files, requiredRounds, cache, logger)
		if err != nil {
			return nil, err
		}
		for n, r := range roundResults {
			renderCtx.Rounds[n] = render.NewRoundView(r)
		}
		for _, mr := range moduleResults {
			renderCtx.ModuleResults = append(renderCtx.ModuleResults, render.ModuleView{
				Module: mr.Module, View: render.NewRoundView(mr.Result),
			})
		}
	}

	docs := render.RenderAll(renderCtx, selected)

	if err := os.MkdirAll(cfg.Output, 0o755); err != nil {
		return nil, fmt.Errorf("handover: creating output directory %s: %w", cfg.Output, err)
	}

	generated, skipped := 0, 0
	for _, d := range docs {
		if d.Status == render.StatusNotGenerated {
			skipped++
			if opts.Terminal != nil {
				opts.Terminal.OnDocumentSkipped(d.Filename)
			}
			continue
		}
		path := filepath.Join(cfg.Output, d.Filename)
		if err := os.WriteFile(path, []byte(d.Body), 0o644); err != nil {
			return nil, fmt.Errorf("handover: writing %s: %w", path, err)
		}
		generated++
	}

	elapsed := time.Since(start)
	if opts.Terminal != nil {
		opts.Terminal.OnComplete(generated, skipped, len(docs), elapsed)
	}

	return &Result{Documents: docs, Generated: generated, Skipped: skipped, ElapsedMs: elapsed.Milliseconds()}, nil
}

// runRounds resolves the credential, builds the provider client and round
// runner, and executes every round in requiredRounds (topologically, since
// ExpandRounds already returned them in ascending order and RoundDeps is a
// DAG on round numbers 1-6), including round 5's per-module fan-out.
func runRounds(
	ctx context.Context,
	opts Options,
	cfg *config.Config,
	preset providers.Preset,
	staticResult snapshot.StaticAnalysisResult,
	files []snapshot.FileEntry,
	requiredRounds []int,
	cache *analysiscache.Cache,
	logger logutil.LoggerInterface,
) (map[int]rounds.Result, []rounds.ModuleResult, error) {
	isInteractive := auth.DefaultIsInteractive
	resolver := auth.NewResolver(opts.Store, isInteractive, opts.Prompt, logger)
	envVarName := cfg.APIKeyEnv
	if envVarName == "" {
		envVarName = preset.APIKeyEnv
	}
	cred, err := resolver.Resolve(ctx, cfg.Provider, preset.DisplayName, auth.Method(cfg.AuthMethod), envVarName, opts.CLIAPIKey, preset.IsLocal)
	if err != nil {
		return nil, nil, fmt.Errorf("handover: auth: %w", err)
	}

	client, err := providers.NewClient(cfg.Provider, cred.Token, cfg.BaseURL, cfg.Model)
	if err != nil {
		return nil, nil, fmt.Errorf("handover: building provider client: %w", err)
	}

	concurrency := auth.ConcurrencyClamp(auth.Method(cfg.AuthMethod), cfg.Analysis.Concurrency)
	if concurrency <= 0 {
		concurrency = preset.DefaultConcurrency
	}
	limiter := ratelimit.NewRateLimiter(concurrency, 0)

	// --no-cache bypasses round caching for this run and wipes any stale
	// entries on disk, rather than leaving them to be read by a later run.
	var rc *roundcache.Cache
	if opts.NoCache {
		if err := roundcache.New(opts.RepoPath).Clear(); err != nil {
			logger.Warn("round cache clear failed: %v", err)
		}
	} else {
		rc = roundcache.New(opts.RepoPath)
	}

	runner := &rounds.Runner{
		Provider:     client,
		PresetName:   cfg.Provider,
		Model:        cfg.Model,
		Limiter:      limiter,
		RetryConfig:  ratelimit.DefaultRetryConfig(),
		Cache:        rc,
		Logger:       logger,
		CarryoverMax: CarryoverTokenBudget,
	}

	maxTokens := preset.ContextWindow
	if cfg.ContextWindow.MaxTokens > 0 {
		maxTokens = cfg.ContextWindow.MaxTokens
	}
	budget := tokenbudget.Compute(maxTokens, tokenbudget.DefaultOptions())
	priorities := applyPinAndBoost(scorer.Score(files, staticResult), cfg.ContextWindow.Pin, cfg.ContextWindow.Boost)
	packed := packer.Pack(ctx, opts.RepoPath, priorities, staticResult.AST, staticResult.Todos, budget, cache, tokenbudget.DefaultEstimator{})
	fingerprints := rounds.FileFingerprints(packed.Files)

	results := map[int]rounds.Result{}
	order := []int{1, 2, 3, 4, 5, 6}
	needed := map[int]bool{}
	for _, n := range requiredRounds {
		needed[n] = true
	}

	var moduleResults []rounds.ModuleResult

	for _, n := range order {
		if !needed[n] {
			continue
		}
		carryover := carryoverFor(n, results)

		if n == 5 {
			modules := rounds.DetectModules(files)
			if opts.Terminal != nil {
				opts.Terminal.OnRoundStart(5)
			}
			startModule := time.Now()
			moduleResults = runner.RunModuleFanout(ctx, modules, concurrency, func(module string) rounds.Spec {
				prompt := carryover + "\n\n## Module: " + module + "\n\n" + buildUserPrompt(filterByModule(packed, module), "")
				return roundSpec(5, round5Bundle, prompt, defaultRoundMaxTokens(preset))
			}, func(module string) []string {
				return fingerprints
			}, extractCarryover, roundRetryHook(opts, 5))
			if opts.Terminal != nil {
				opts.Terminal.OnRoundDone(5, time.Since(startModule), sumModuleCost(moduleResults))
			}
			continue
		}

		bundle, ok := bundleFor(n)
		if !ok {
			continue
		}
		spec := roundSpec(n, bundle, carryover+"\n\n"+buildUserPrompt(packed, ""), defaultRoundMaxTokens(preset))

		cachedHit := false
		if rc != nil {
			hash := roundcache.ComputeHash(n, cfg.Model, fingerprints)
			if _, ok := rc.Get(n, hash); ok {
				cachedHit = true
			}
		}
		if opts.Terminal != nil {
			if cachedHit {
				opts.Terminal.OnRoundCached(n)
			} else {
				opts.Terminal.OnRoundStart(n)
			}
		}

		res := runner.Run(ctx, spec, fingerprints, extractCarryover, roundRetryHook(opts, n))
		results[n] = res

		if opts.Terminal != nil && !cachedHit {
			switch res.Status {
			case rounds.StatusDegraded:
				opts.Terminal.OnRoundDegraded(n, res.DegradedReason)
			default:
				opts.Terminal.OnRoundDone(n, time.Duration(res.ElapsedMs)*time.Millisecond, res.CostUSD)
			}
		}
	}

	return results, moduleResults, nil
}

func bundleFor(n int) (promptBundle, bool) {
	switch n {
	case 1:
		return round1Bundle, true
	case 2:
		return round2Bundle, true
	case 3:
		return round3Bundle, true
	case 4:
		return round4Bundle, true
	case 6:
		return round6Bundle, true
	default:
		return promptBundle{}, false
	}
}

// carryoverFor concatenates the rendered carry-over blocks of round's
// direct dependencies (spec §4.13's RoundDeps table), giving round n's
// prompt the compressed context of every prerequisite round that ran.
func carryoverFor(n int, results map[int]rounds.Result) string {
	deps := dag.RoundDeps[n]
	var parts []string
	for _, d := range deps {
		if r, ok := results[d]; ok {
			parts = append(parts, r.Carryover.Render())
		}
	}
	return strings.Join(parts, "\n\n")
}

func defaultRoundMaxTokens(preset providers.Preset) int {
	return 4096
}

func roundRetryHook(opts Options, roundNumber int) func(attempt int, delayMs int64, reason string) {
	return func(attempt int, delayMs int64, reason string) {
		if opts.Terminal != nil {
			opts.Terminal.OnRoundRetry(roundNumber, attempt, delayMs, reason)
		}
	}
}

func sumModuleCost(results []rounds.ModuleResult) float64 {
	var total float64
	for _, r := range results {
		total += r.Result.CostUSD
	}
	return total
}

// filterByModule narrows a packed context to the files whose path falls
// under module's top-level directory, so a round-5 fan-out call's prompt
// only carries that module's content.
func filterByModule(packed packer.PackedContext, module string) packer.PackedContext {
	prefix := module + "/"
	out := packer.PackedContext{Budget: packed.Budget}
	for _, f := range packed.Files {
		if module == "(root)" {
			if !strings.Contains(f.Path, "/") {
				out.Files = append(out.Files, f)
			}
			continue
		}
		if strings.HasPrefix(f.Path, prefix) {
			out.Files = append(out.Files, f)
		}
	}
	return out
}

// applyPinAndBoost implements the config schema's contextWindow.pin (force
// tier full, modeled here as a score of 100 so the packer's greedy pass
// assigns it full content first) and contextWindow.boost (+20 to score)
// overrides (spec §6).
func applyPinAndBoost(priorities []scorer.Priority, pin, boost []string) []scorer.Priority {
	pinSet := map[string]bool{}
	for _, p := range pin {
		pinSet[p] = true
	}
	boostSet := map[string]bool{}
	for _, b := range boost {
		boostSet[b] = true
	}
	out := make([]scorer.Priority, len(priorities))
	copy(out, priorities)
	for i := range out {
		if pinSet[out[i].Path] {
			out[i].Score = 100
		} else if boostSet[out[i].Path] {
			out[i].Score += 20
			if out[i].Score > 100 {
				out[i].Score = 100
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Path < out[j].Path
	})
	return out
}
