// Package rounds implements the RoundRunner (C13): assembling one round's
// prompt from a PackedContext and a prior-round carry-over, calling the
// provider, validating its structured output, costing it, and degrading
// gracefully on persistent failure rather than aborting the pipeline.
//
// Grounded on phrazzld-thinktank's internal/thinktank orchestration layer
// (the part of the teacher that calls a provider, records usage, and
// converts a failure into a recorded-but-non-fatal outcome) generalized
// from "one call per configured model" to "one call per analysis round".
package rounds

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/phrazzld/handover/internal/compressor"
	"github.com/phrazzld/handover/internal/llm"
	"github.com/phrazzld/handover/internal/logutil"
	"github.com/phrazzld/handover/internal/packer"
	"github.com/phrazzld/handover/internal/providers"
	"github.com/phrazzld/handover/internal/ratelimit"
	"github.com/phrazzld/handover/internal/roundcache"
	"github.com/phrazzld/handover/internal/tokenbudget"
)

// Status mirrors spec §3's RoundExecutionResult.status enum.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusDegraded Status = "degraded"
	StatusRetried  Status = "retried"
	StatusFailed   Status = "failed"
)

// Result is the provider-agnostic outcome of running one round (spec §3
// RoundExecutionResult<T>, T fixed to json.RawMessage here since the
// decoded shape is round-specific and consumed by the renderer, not by
// this package).
type Result struct {
	Data           json.RawMessage
	Status         Status
	Tokens         *llm.Usage
	CostUSD        float64
	ElapsedMs      int64
	DegradedReason string
	Carryover      compressor.Carryover
}

// Spec describes one round's invocation-time configuration: its number,
// the system/user prompt template pieces, and the JSON Schema its output
// must validate against.
type Spec struct {
	RoundNumber  int
	SystemPrompt string
	UserPrompt   string
	Schema       map[string]interface{}
	Temperature  float64
	MaxTokens    int
}

// ExtractFunc converts a round's decoded JSON payload into the compressor's
// input shape. Each round's output schema differs, so extraction is
// round-specific and supplied by the caller rather than hardcoded here.
type ExtractFunc func(data json.RawMessage) compressor.Result

// Runner executes rounds against one configured provider, observing the
// rate limiter's concurrency bound and retry policy, and consulting the
// round cache before making a network call.
type Runner struct {
	Provider      llm.Provider
	PresetName    string
	Model         string
	Limiter       *ratelimit.RateLimiter
	RetryConfig   ratelimit.RetryConfig
	Cache         *roundcache.Cache
	Logger        logutil.LoggerInterface
	CarryoverMax  int
	Estimator     tokenbudget.Estimator
}

// emptySchemaResult is returned as Data for a degraded round: a JSON
// object whose fields are all zero-valued, matching the round's shape
// closely enough for renderers to treat it as "no usable data" rather
// than a decode failure.
var emptySchemaResult = json.RawMessage(`{}`)

// Run executes one round. fingerprints is the sorted set of
// "{path}:{size}" file fingerprints used to compute the round cache key;
// pass the same packed-context file list the prompt was built from.
func (r *Runner) Run(ctx context.Context, spec Spec, fingerprints []string, extract ExtractFunc, onRetry llm.RetryHook) Result {
	hash := roundcache.ComputeHash(spec.RoundNumber, r.Model, fingerprints)

	if r.Cache != nil {
		if entry, ok := r.Cache.Get(spec.RoundNumber, hash); ok {
			r.Logger.InfoContext(ctx, "round %d: using cached result (hash %s)", spec.RoundNumber, hash)
			carryover := compressor.Compress(spec.RoundNumber, extract(entry.Result), r.CarryoverMax, r.estimator())
			return Result{Data: entry.Result, Status: StatusSuccess, Carryover: carryover}
		}
	}

	start := time.Now()
	var completion *llm.CompletionResult
	attempts := 0

	err := ratelimit.Retry(ctx, r.RetryConfig, onRetry, func() error {
		attempts++
		if acqErr := r.Limiter.Acquire(ctx, r.Model); acqErr != nil {
			return acqErr
		}
		defer r.Limiter.Release()

		res, callErr := r.Provider.Complete(ctx, llm.Request{
			SystemPrompt: spec.SystemPrompt,
			UserPrompt:   spec.UserPrompt,
			Temperature:  spec.Temperature,
			MaxTokens:    spec.MaxTokens,
		}, spec.Schema, onRetry)
		if callErr != nil {
			return callErr
		}
		completion = res
		return nil
	})

	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		reason := err.Error()
		r.Logger.WarnContext(ctx, "round %d: degraded after %d attempt(s): %s", spec.RoundNumber, attempts, reason)
		status := StatusDegraded
		if attempts > 1 {
			status = StatusDegraded
		}
		return Result{
			Data:           emptySchemaResult,
			Status:         status,
			ElapsedMs:      elapsed,
			DegradedReason: reason,
			Carryover:      compressor.Carryover{RoundNumber: spec.RoundNumber},
		}
	}

	data, marshalErr := json.Marshal(completion.Data)
	if marshalErr != nil {
		reason := fmt.Sprintf("failed to re-encode provider response: %v", marshalErr)
		return Result{
			Data:           emptySchemaResult,
			Status:         StatusDegraded,
			ElapsedMs:      elapsed,
			DegradedReason: reason,
			Carryover:      compressor.Carryover{RoundNumber: spec.RoundNumber},
		}
	}

	cost := providers.CostUSD(r.PresetName, completion.Model, completion.Usage.InputTokens, completion.Usage.OutputTokens)
	carryover := compressor.Compress(spec.RoundNumber, extract(data), r.CarryoverMax, r.estimator())

	status := StatusSuccess
	if attempts > 1 {
		status = StatusRetried
	}

	if r.Cache != nil {
		if setErr := r.Cache.Set(spec.RoundNumber, hash, r.Model, data, time.Now().UTC().Format(time.RFC3339)); setErr != nil {
			r.Logger.WarnContext(ctx, "round %d: failed to persist round cache entry: %v", spec.RoundNumber, setErr)
		}
	}

	return Result{
		Data:      data,
		Status:    status,
		Tokens:    &completion.Usage,
		CostUSD:   cost,
		ElapsedMs: elapsed,
		Carryover: carryover,
	}
}

func (r *Runner) estimator() tokenbudget.Estimator {
	if r.Estimator != nil {
		return r.Estimator
	}
	return tokenbudget.DefaultEstimator{}
}

// FileFingerprints derives the sorted fingerprint list RoundCache keys on
// from a packed context's files, matching the convention
// ComputeHash/roundcache.ComputeHash already assume ("{path}:{size}",
// using content length as the size proxy for packed, possibly-summarized
// content).
func FileFingerprints(files []packer.PackedFile) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, fmt.Sprintf("%s:%d", f.Path, len(f.Content)))
	}
	return out
}
