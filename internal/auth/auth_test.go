package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/phrazzld/handover/internal/logutil"
)

func TestResolve_CLIFlagWins(t *testing.T) {
	r := NewResolver(nil, func() bool { return false }, nil, logutil.NewTestLogger(t))

	cred, err := r.Resolve(context.Background(), "anthropic", "Anthropic", MethodAPIKey, "ANTHROPIC_API_KEY", "cli-key", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cred.Source != SourceCLIFlag || cred.Token != "cli-key" {
		t.Fatalf("expected cli-flag/cli-key, got %+v", cred)
	}
}

func TestResolve_EnvVarWinsOverSubscriptionStore(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-key")

	store := NewTokenStoreAt(t.TempDir() + "/credentials.json")
	if err := store.Write(Record{Provider: "anthropic", Token: "stored-key"}); err != nil {
		t.Fatalf("seeding store: %v", err)
	}

	r := NewResolver(store, func() bool { return false }, nil, logutil.NewTestLogger(t))
	cred, err := r.Resolve(context.Background(), "anthropic", "Anthropic", MethodSubscription, "ANTHROPIC_API_KEY", "", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cred.Source != SourceEnvVar || cred.Token != "env-key" {
		t.Fatalf("expected env-var to win, got %+v", cred)
	}
}

func TestResolve_CredentialStoreUnderSubscription(t *testing.T) {
	store := NewTokenStoreAt(t.TempDir() + "/credentials.json")
	if err := store.Write(Record{Provider: "openai", Token: "stored-key"}); err != nil {
		t.Fatalf("seeding store: %v", err)
	}

	r := NewResolver(store, func() bool { return false }, nil, logutil.NewTestLogger(t))
	cred, err := r.Resolve(context.Background(), "openai", "OpenAI", MethodSubscription, "OPENAI_API_KEY_UNSET", "", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cred.Source != SourceCredentialStore || cred.Token != "stored-key" {
		t.Fatalf("expected credential-store, got %+v", cred)
	}
}

func TestResolve_NonInteractiveFailsWithNoCredential(t *testing.T) {
	r := NewResolver(nil, func() bool { return false }, nil, logutil.NewTestLogger(t))
	_, err := r.Resolve(context.Background(), "openai", "OpenAI", MethodAPIKey, "OPENAI_API_KEY_UNSET", "", false)

	var authErr *AuthError
	if !errors.As(err, &authErr) || authErr.Code != ErrNoCredential {
		t.Fatalf("expected AUTH_NO_CREDENTIAL, got %v", err)
	}
}

func TestResolve_InteractivePromptCancelled(t *testing.T) {
	r := NewResolver(nil, func() bool { return true }, func(ctx context.Context, name string) (string, error) {
		return "", errors.New("user cancelled")
	}, logutil.NewTestLogger(t))

	_, err := r.Resolve(context.Background(), "openai", "OpenAI", MethodAPIKey, "OPENAI_API_KEY_UNSET", "", false)

	var authErr *AuthError
	if !errors.As(err, &authErr) || authErr.Code != ErrCancelled {
		t.Fatalf("expected AUTH_CANCELLED, got %v", err)
	}
}

func TestResolve_InteractivePromptSucceeds(t *testing.T) {
	r := NewResolver(nil, func() bool { return true }, func(ctx context.Context, name string) (string, error) {
		return "typed-key", nil
	}, logutil.NewTestLogger(t))

	cred, err := r.Resolve(context.Background(), "openai", "OpenAI", MethodAPIKey, "OPENAI_API_KEY_UNSET", "", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cred.Source != SourceInteractivePrompt || cred.Token != "typed-key" {
		t.Fatalf("expected interactive-prompt, got %+v", cred)
	}
}

func TestResolve_LocalProviderShortCircuits(t *testing.T) {
	r := NewResolver(nil, func() bool { return false }, nil, logutil.NewTestLogger(t))
	cred, err := r.Resolve(context.Background(), "ollama", "Ollama", MethodAPIKey, "", "", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cred.Source != SourceLocalDummy {
		t.Fatalf("expected local-dummy, got %+v", cred)
	}
}

func TestConcurrencyClamp(t *testing.T) {
	if got := ConcurrencyClamp(MethodSubscription, 8); got != 1 {
		t.Fatalf("expected subscription to clamp to 1, got %d", got)
	}
	if got := ConcurrencyClamp(MethodAPIKey, 8); got != 8 {
		t.Fatalf("expected api-key to pass through, got %d", got)
	}
}
