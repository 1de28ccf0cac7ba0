// Package providers holds the static preset registry and factory for the
// provider capability (C10), plus the fail-fast validation order spec §4.9
// requires before any round executes.
//
// Grounded on the teacher's registry entry shape
// (phrazzld-thinktank internal/registry/definitions.go's ProviderDefinition
// / ModelDefinition pair), generalized from a YAML-loaded registry to a
// static in-code table since the preset set is closed (spec §4.9) rather
// than user-extensible.
package providers

import "fmt"

// SDKType distinguishes the two completion-call shapes providers implement.
type SDKType string

const (
	SDKAnthropicNative  SDKType = "anthropic-native"
	SDKOpenAICompatible SDKType = "openai-compatible"
)

// Pricing is per-million-token pricing for one model.
type Pricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// Preset is one static provider configuration record (spec §4.9).
type Preset struct {
	Name               string
	DisplayName        string
	BaseURL            string
	APIKeyEnv          string
	DefaultModel       string
	ContextWindow      int
	DefaultConcurrency int
	IsLocal            bool
	SDKType            SDKType
	Pricing            map[string]Pricing
	SupportedModels    []string
	TimeoutMs          int
}

// Registry is the static, closed preset table keyed by provider name.
var Registry = map[string]Preset{
	"anthropic": {
		Name:               "anthropic",
		DisplayName:        "Anthropic",
		BaseURL:            "https://api.anthropic.com",
		APIKeyEnv:          "ANTHROPIC_API_KEY",
		DefaultModel:       "claude-sonnet-4-20250514",
		ContextWindow:      200000,
		DefaultConcurrency: 4,
		SDKType:            SDKAnthropicNative,
		Pricing: map[string]Pricing{
			"claude-sonnet-4-20250514": {InputPerMillion: 3.0, OutputPerMillion: 15.0},
			"claude-opus-4-20250514":   {InputPerMillion: 15.0, OutputPerMillion: 75.0},
		},
		SupportedModels: []string{"claude-sonnet-4-20250514", "claude-opus-4-20250514"},
		TimeoutMs:        120000,
	},
	"openai": {
		Name:               "openai",
		DisplayName:        "OpenAI",
		BaseURL:            "https://api.openai.com/v1",
		APIKeyEnv:          "OPENAI_API_KEY",
		DefaultModel:       "gpt-4o",
		ContextWindow:      128000,
		DefaultConcurrency: 4,
		SDKType:            SDKOpenAICompatible,
		Pricing: map[string]Pricing{
			"gpt-4o":      {InputPerMillion: 2.5, OutputPerMillion: 10.0},
			"gpt-4o-mini": {InputPerMillion: 0.15, OutputPerMillion: 0.6},
		},
		SupportedModels: []string{"gpt-4o", "gpt-4o-mini"},
		TimeoutMs:        120000,
	},
	"groq": {
		Name:               "groq",
		DisplayName:        "Groq",
		BaseURL:            "https://api.groq.com/openai/v1",
		APIKeyEnv:          "GROQ_API_KEY",
		DefaultModel:       "llama-3.3-70b-versatile",
		ContextWindow:      128000,
		DefaultConcurrency: 4,
		SDKType:            SDKOpenAICompatible,
		Pricing: map[string]Pricing{
			"llama-3.3-70b-versatile": {InputPerMillion: 0.59, OutputPerMillion: 0.79},
		},
		SupportedModels: []string{"llama-3.3-70b-versatile"},
		TimeoutMs:        60000,
	},
	"together": {
		Name:               "together",
		DisplayName:        "Together AI",
		BaseURL:            "https://api.together.xyz/v1",
		APIKeyEnv:          "TOGETHER_API_KEY",
		DefaultModel:       "meta-llama/Llama-3.3-70B-Instruct-Turbo",
		ContextWindow:      128000,
		DefaultConcurrency: 4,
		SDKType:            SDKOpenAICompatible,
		Pricing: map[string]Pricing{
			"meta-llama/Llama-3.3-70B-Instruct-Turbo": {InputPerMillion: 0.88, OutputPerMillion: 0.88},
		},
		SupportedModels: []string{"meta-llama/Llama-3.3-70B-Instruct-Turbo"},
		TimeoutMs:        120000,
	},
	"deepseek": {
		Name:               "deepseek",
		DisplayName:        "DeepSeek",
		BaseURL:            "https://api.deepseek.com/v1",
		APIKeyEnv:          "DEEPSEEK_API_KEY",
		DefaultModel:       "deepseek-chat",
		ContextWindow:      64000,
		DefaultConcurrency: 4,
		SDKType:            SDKOpenAICompatible,
		Pricing: map[string]Pricing{
			"deepseek-chat": {InputPerMillion: 0.27, OutputPerMillion: 1.1},
		},
		SupportedModels: []string{"deepseek-chat"},
		TimeoutMs:        120000,
	},
	"azure-openai": {
		Name:               "azure-openai",
		DisplayName:        "Azure OpenAI",
		APIKeyEnv:          "AZURE_OPENAI_API_KEY",
		DefaultModel:       "gpt-4o",
		ContextWindow:      128000,
		DefaultConcurrency: 4,
		SDKType:            SDKOpenAICompatible,
		Pricing: map[string]Pricing{
			"gpt-4o": {InputPerMillion: 2.5, OutputPerMillion: 10.0},
		},
		SupportedModels: []string{"gpt-4o"},
		TimeoutMs:        120000,
	},
	"ollama": {
		Name:               "ollama",
		DisplayName:        "Ollama",
		BaseURL:            "http://localhost:11434/v1",
		APIKeyEnv:          "",
		ContextWindow:      32000,
		DefaultConcurrency: 1,
		IsLocal:            true,
		SDKType:            SDKOpenAICompatible,
		Pricing:            map[string]Pricing{},
		TimeoutMs:          300000,
	},
	"custom": {
		Name:               "custom",
		DisplayName:        "Custom",
		APIKeyEnv:          "CUSTOM_API_KEY",
		ContextWindow:      128000,
		DefaultConcurrency: 4,
		SDKType:            SDKOpenAICompatible,
		Pricing:            map[string]Pricing{},
		TimeoutMs:          120000,
	},
}

// Get returns the named preset.
func Get(name string) (Preset, bool) {
	p, ok := Registry[name]
	return p, ok
}

// Validate runs the fail-fast startup validation order of spec §4.9:
// (1) preset exists; (2) provider-specific structural check; (3) API key
// present for non-local providers; (4) known-model warning (non-fatal,
// returned as a warning string rather than an error).
func Validate(presetName, model, baseURLOverride string, apiKeyPresent bool) (warning string, err error) {
	preset, ok := Get(presetName)
	if !ok {
		return "", fmt.Errorf("unknown provider preset %q", presetName)
	}

	switch presetName {
	case "ollama":
		if model == "" {
			return "", fmt.Errorf("ollama requires an explicit model")
		}
	case "azure-openai":
		if preset.BaseURL == "" && baseURLOverride == "" {
			return "", fmt.Errorf("azure-openai requires a base URL")
		}
	case "custom":
		if baseURLOverride == "" {
			return "", fmt.Errorf("custom provider requires a base URL")
		}
	}

	if !preset.IsLocal && !apiKeyPresent {
		return "", fmt.Errorf("no API key available for provider %q", presetName)
	}

	if model != "" && len(preset.SupportedModels) > 0 {
		known := false
		for _, m := range preset.SupportedModels {
			if m == model {
				known = true
				break
			}
		}
		if !known {
			warning = fmt.Sprintf("model %q is not in the known model list for provider %q", model, presetName)
		}
	}

	return warning, nil
}
