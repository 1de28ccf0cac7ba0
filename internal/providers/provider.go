// Package providers holds the static preset registry, the fail-fast
// startup validator, and the factory that dispatches a preset to its
// concrete llm.Provider implementation (anthropic-native or
// openai-compatible). See presets.go and factory.go.
package providers
