// Package tokenbudget estimates token counts and derives a file-content
// token budget from a provider's context window size.
//
// Grounded on phrazzld-thinktank internal/ratelimit/ratelimit.go's style of
// exposing small, pure, named-constant-driven arithmetic helpers.
package tokenbudget

import "math"

// Default policy constants (spec §4.4).
const (
	DefaultPromptOverhead = 3000
	DefaultOutputReserve  = 4096
	DefaultSafetyMargin   = 0.9
)

// Budget is the derived token allocation for file content (spec §3).
type Budget struct {
	Total             int
	PromptOverhead    int
	OutputReserve     int
	FileContentBudget int
}

// Options overrides the default policy constants.
type Options struct {
	PromptOverhead int
	OutputReserve  int
	SafetyMargin   float64
}

// DefaultOptions returns the spec's default policy.
func DefaultOptions() Options {
	return Options{
		PromptOverhead: DefaultPromptOverhead,
		OutputReserve:  DefaultOutputReserve,
		SafetyMargin:   DefaultSafetyMargin,
	}
}

// Compute derives a Budget from maxTokens per the invariant
// fileContentBudget = floor((total - promptOverhead - outputReserve) * safetyMargin).
// The result may be non-positive; callers must treat that as "skip all".
func Compute(maxTokens int, opts Options) Budget {
	if opts.SafetyMargin == 0 {
		opts.SafetyMargin = DefaultSafetyMargin
	}
	raw := float64(maxTokens-opts.PromptOverhead-opts.OutputReserve) * opts.SafetyMargin
	return Budget{
		Total:             maxTokens,
		PromptOverhead:    opts.PromptOverhead,
		OutputReserve:     opts.OutputReserve,
		FileContentBudget: int(math.Floor(raw)),
	}
}

// Estimator estimates the token count of arbitrary text, optionally
// delegating to a provider-supplied estimator.
type Estimator interface {
	EstimateTokens(text string) int
}

// DefaultEstimator implements the ceil(len/4) heuristic (spec §4.4).
type DefaultEstimator struct{}

func (DefaultEstimator) EstimateTokens(text string) int {
	return int(math.Ceil(float64(len(text)) / 4))
}
