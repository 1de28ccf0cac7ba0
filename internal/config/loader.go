package config

import (
	"fmt"
	"os"

	"github.com/phrazzld/handover/internal/logutil"
	"github.com/phrazzld/handover/internal/providers"
	"github.com/spf13/viper"
)

// validProviders is the closed preset set spec §6 names.
var validProviders = map[string]bool{
	"anthropic":    true,
	"openai":       true,
	"ollama":       true,
	"groq":         true,
	"together":     true,
	"deepseek":     true,
	"azure-openai": true,
	"custom":       true,
}

// Loader reads a config YAML file through viper and produces a validated
// Config, mirroring the teacher's Manager/viperInst pairing (internal/
// config's Manager in the teacher repo) but without the XDG multi-directory
// search path: handover reads a single `<root>/<config>.yaml`, there is no
// system-wide or user-home config tier to layer.
type Loader struct {
	logger    logutil.LoggerInterface
	viperInst *viper.Viper
}

// NewLoader builds a Loader. A nil logger falls back to a standard logger,
// matching NewManager's nil-logger tolerance in the teacher.
func NewLoader(logger logutil.LoggerInterface) *Loader {
	if logger == nil {
		logger = logutil.NewLogger(logutil.InfoLevel, nil, "[config] ")
	}
	return &Loader{logger: logger, viperInst: viper.New()}
}

// Load reads the YAML file at path and merges it over DefaultConfig. It
// does not validate; the caller applies CLI overrides and then runs
// Validate. A missing file is not an error — handover can run entirely
// off CLI flags and environment variables — but provider is required by
// Validate, so it must come from the file or an override.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			l.logger.Debug("no config file at %s, using defaults and CLI/env overrides", path)
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	v := l.viperInst
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return cfg, nil
}

// Validate runs the fail-fast cross-field checks spec §6/§7/§9 name,
// executed as an explicit predicate rather than the teacher's struct-tag
// validation, per the design notes' verdict on "dynamic structure /
// optional configuration": superRefine-style cross-field validation
// becomes an explicit function here.
func Validate(cfg *Config, apiKeyPresent bool) error {
	if cfg.Provider == "" {
		return fmt.Errorf("config: provider is required")
	}
	if !validProviders[cfg.Provider] {
		return fmt.Errorf("config: unknown provider %q", cfg.Provider)
	}

	if cfg.AuthMethod == "" {
		cfg.AuthMethod = AuthMethodAPIKey
	}
	if cfg.AuthMethod != AuthMethodAPIKey && cfg.AuthMethod != AuthMethodSubscription {
		return fmt.Errorf("config: unknown authMethod %q", cfg.AuthMethod)
	}

	if cfg.Provider == "anthropic" && cfg.AuthMethod == AuthMethodSubscription {
		return fmt.Errorf("config: provider \"anthropic\" cannot use authMethod \"subscription\"")
	}

	preset, ok := providers.Get(cfg.Provider)
	if !ok {
		return fmt.Errorf("config: unknown provider %q", cfg.Provider)
	}

	if preset.IsLocal && cfg.Model == "" {
		return fmt.Errorf("config: provider %q requires an explicit model", cfg.Provider)
	}

	if (cfg.Provider == "azure-openai" || cfg.Provider == "custom") && preset.BaseURL == "" && cfg.BaseURL == "" {
		return fmt.Errorf("config: provider %q requires baseUrl", cfg.Provider)
	}

	if !preset.IsLocal && !apiKeyPresent {
		return fmt.Errorf("config: no API key available for provider %q", cfg.Provider)
	}

	if cfg.Audience == "" {
		cfg.Audience = AudienceHuman
	}
	if cfg.Audience != AudienceHuman && cfg.Audience != AudienceAI {
		return fmt.Errorf("config: unknown audience %q", cfg.Audience)
	}

	if cfg.Output == "" {
		cfg.Output = "./handover"
	}

	if cfg.AuthMethod == AuthMethodSubscription {
		cfg.Analysis.Concurrency = 1
	} else if cfg.Analysis.Concurrency == 0 {
		cfg.Analysis.Concurrency = preset.DefaultConcurrency
	}

	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = preset.APIKeyEnv
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = preset.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = preset.DefaultModel
	}

	return nil
}
