package providers

import (
	"fmt"
	"time"

	"github.com/phrazzld/handover/internal/llm"
	"github.com/phrazzld/handover/internal/providers/anthropic"
	"github.com/phrazzld/handover/internal/providers/openaicompat"
)

// NewClient builds the concrete llm.Provider for presetName, dispatching on
// the preset's SDKType (spec §9 "Dynamic dispatch over providers": one
// constructor per preset, selected by a factory).
func NewClient(presetName, apiKey, baseURLOverride, model string) (llm.Provider, error) {
	preset, ok := Get(presetName)
	if !ok {
		return nil, ErrProviderNotFound
	}
	if model == "" {
		model = preset.DefaultModel
	}
	baseURL := preset.BaseURL
	if baseURLOverride != "" {
		baseURL = baseURLOverride
	}

	switch preset.SDKType {
	case SDKAnthropicNative:
		return anthropic.New(apiKey, baseURL, model, preset.ContextWindow), nil
	case SDKOpenAICompatible:
		timeout := time.Duration(preset.TimeoutMs) * time.Millisecond
		return openaicompat.New(apiKey, baseURL, model, preset.ContextWindow, timeout), nil
	default:
		return nil, fmt.Errorf("preset %q has unknown SDK type %q", presetName, preset.SDKType)
	}
}

// CostUSD computes the dollar cost of a completion from the preset's
// per-million-token pricing table.
func CostUSD(presetName, model string, inputTokens, outputTokens int) float64 {
	preset, ok := Get(presetName)
	if !ok {
		return 0
	}
	pricing, ok := preset.Pricing[model]
	if !ok {
		return 0
	}
	return float64(inputTokens)/1_000_000*pricing.InputPerMillion +
		float64(outputTokens)/1_000_000*pricing.OutputPerMillion
}
