package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "handover.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	l := NewLoader(nil)
	cfg, err := l.Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, AuthMethodAPIKey, cfg.AuthMethod)
	assert.Equal(t, "./handover", cfg.Output)
	assert.Equal(t, AudienceHuman, cfg.Audience)
}

func TestLoad_ParsesRecognizedFields(t *testing.T) {
	path := writeTempConfig(t, `
provider: openai
authMethod: api-key
model: gpt-4o
output: ./docs
audience: ai
include:
  - "**/*.go"
exclude:
  - "**/*.pb.go"
analysis:
  concurrency: 8
  staticOnly: false
contextWindow:
  maxTokens: 150000
  pin:
    - README.md
  boost:
    - internal/core
costWarningThreshold: 5.0
`)
	l := NewLoader(nil)
	cfg, err := l.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, "./docs", cfg.Output)
	assert.Equal(t, AudienceAI, cfg.Audience)
	assert.Equal(t, []string{"**/*.go"}, cfg.Include)
	assert.Equal(t, 8, cfg.Analysis.Concurrency)
	assert.Equal(t, 150000, cfg.ContextWindow.MaxTokens)
	assert.Equal(t, []string{"README.md"}, cfg.ContextWindow.Pin)
	assert.Equal(t, 5.0, cfg.CostWarningThreshold)
}

func TestValidate_RejectsAnthropicSubscription(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "anthropic"
	cfg.AuthMethod = AuthMethodSubscription
	err := Validate(cfg, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subscription")
}

func TestValidate_RequiresModelForLocalProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "ollama"
	err := Validate(cfg, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires an explicit model")
}

func TestValidate_OllamaSkipsAPIKeyRequirement(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "ollama"
	cfg.Model = "llama3"
	err := Validate(cfg, false)
	require.NoError(t, err)
}

func TestValidate_RequiresBaseURLForCustomProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "custom"
	err := Validate(cfg, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "baseUrl")
}

func TestValidate_RequiresAPIKeyForRemoteProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "anthropic"
	err := Validate(cfg, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no API key")
}

func TestValidate_SubscriptionClampsConcurrencyToOne(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "openai"
	cfg.AuthMethod = AuthMethodSubscription
	cfg.Analysis.Concurrency = 16
	require.NoError(t, Validate(cfg, true))
	assert.Equal(t, 1, cfg.Analysis.Concurrency)
}

func TestValidate_DefaultsConcurrencyFromPreset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "anthropic"
	require.NoError(t, Validate(cfg, true))
	assert.Equal(t, 4, cfg.Analysis.Concurrency)
}

func TestValidate_FillsAPIKeyEnvAndModelFromPreset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "anthropic"
	require.NoError(t, Validate(cfg, true))
	assert.Equal(t, "ANTHROPIC_API_KEY", cfg.APIKeyEnv)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.Model)
}

func TestValidate_RejectsUnknownProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "bedrock"
	err := Validate(cfg, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestValidate_RejectsMissingProvider(t *testing.T) {
	cfg := DefaultConfig()
	err := Validate(cfg, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider is required")
}
