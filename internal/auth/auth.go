package auth

import (
	"context"
	"fmt"
	"os"

	"github.com/phrazzld/handover/internal/logutil"
)

// Source identifies which step of the precedence chain produced a credential.
type Source string

const (
	SourceCLIFlag          Source = "cli-flag"
	SourceEnvVar           Source = "env-var"
	SourceCredentialStore  Source = "credential-store"
	SourceInteractivePrompt Source = "interactive-prompt"
	SourceLocalDummy       Source = "local-dummy"
)

// ErrorCode enumerates the auth failure modes named in spec §4.10.
type ErrorCode string

const (
	ErrNoCredential   ErrorCode = "AUTH_NO_CREDENTIAL"
	ErrCancelled      ErrorCode = "AUTH_CANCELLED"
	ErrSessionExpired ErrorCode = "AUTH_SESSION_EXPIRED"
)

// AuthError is the structured error resolveAuth returns for a recognized
// failure mode.
type AuthError struct {
	Code    ErrorCode
	Message string
}

func (e *AuthError) Error() string { return string(e.Code) + ": " + e.Message }

// Method is the per-provider authentication method the config schema
// constrains (the Anthropic provider may never select subscription —
// that rule is enforced at config-load time, not here).
type Method string

const (
	MethodAPIKey       Method = "api-key"
	MethodSubscription Method = "subscription"
)

// Credential is the outcome of a successful resolveAuth call.
type Credential struct {
	Token  string
	Source Source
}

// PromptFunc reads a secret interactively. Returning an error (including
// context cancellation) is treated as a user-cancelled prompt.
type PromptFunc func(ctx context.Context, providerDisplayName string) (string, error)

// IsInteractiveFunc reports whether the current process can prompt a user
// (a TTY is attached and no CI flag forces non-interactive mode).
type IsInteractiveFunc func() bool

// Resolver implements the five-step precedence chain of spec §4.10.
type Resolver struct {
	store         *TokenStore
	isInteractive IsInteractiveFunc
	prompt        PromptFunc
	logger        logutil.LoggerInterface
}

// NewResolver builds a Resolver. A nil prompt disables step 5 entirely
// (non-interactive callers, e.g. CI) and a non-interactive resolution
// short-circuits straight to AUTH_NO_CREDENTIAL.
func NewResolver(store *TokenStore, isInteractive IsInteractiveFunc, prompt PromptFunc, logger logutil.LoggerInterface) *Resolver {
	if isInteractive == nil {
		isInteractive = DefaultIsInteractive
	}
	if logger == nil {
		logger = logutil.NewLogger(logutil.InfoLevel, nil, "[auth] ")
	}
	return &Resolver{store: store, isInteractive: isInteractive, prompt: prompt, logger: logger}
}

// DefaultIsInteractive reports a TTY-attached stdin and no CI environment
// marker, the same signal the teacher's renderer uses to pick TTY vs CI
// rendering mode.
func DefaultIsInteractive() bool {
	if os.Getenv("CI") != "" {
		return false
	}
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// Resolve walks the five-step precedence chain for one provider.
//
//  1. cliAPIKey, if non-empty.
//  2. The environment variable named by envVarName, if set — wins even
//     under subscription auth.
//  3. The credential store, only when authMethod is subscription and the
//     stored record's provider matches presetName.
//  4. Fails with AUTH_NO_CREDENTIAL when the process cannot prompt.
//  5. An interactive secret prompt; cancellation fails with AUTH_CANCELLED.
//
// Local providers (isLocal) short-circuit before step 2 with a dummy
// credential — they have no key to resolve.
func (r *Resolver) Resolve(ctx context.Context, presetName, providerDisplayName string, authMethod Method, envVarName, cliAPIKey string, isLocal bool) (*Credential, error) {
	if cliAPIKey != "" {
		cred := &Credential{Token: cliAPIKey, Source: SourceCLIFlag}
		r.logResolved(ctx, presetName, cred.Source)
		return cred, nil
	}

	if isLocal {
		cred := &Credential{Token: "local", Source: SourceLocalDummy}
		r.logResolved(ctx, presetName, cred.Source)
		return cred, nil
	}

	if envVarName != "" {
		if v := os.Getenv(envVarName); v != "" {
			cred := &Credential{Token: v, Source: SourceEnvVar}
			r.logResolved(ctx, presetName, cred.Source)
			return cred, nil
		}
	}

	if authMethod == MethodSubscription && r.store != nil {
		rec, err := r.store.Read()
		if rec != nil && rec.Provider == presetName {
			if IsExpired(err) {
				return nil, &AuthError{Code: ErrSessionExpired, Message: fmt.Sprintf("stored session for %q has expired, re-authenticate", presetName)}
			}
			cred := &Credential{Token: rec.Token, Source: SourceCredentialStore}
			r.logResolved(ctx, presetName, cred.Source)
			return cred, nil
		}
	}

	if !r.isInteractive() || r.prompt == nil {
		return nil, &AuthError{
			Code: ErrNoCredential,
			Message: fmt.Sprintf(
				"no credential available for %q: set %s, pass --api-key, or run the interactive login in a TTY session",
				presetName, envVarName,
			),
		}
	}

	token, err := r.prompt(ctx, providerDisplayName)
	if err != nil || token == "" {
		return nil, &AuthError{Code: ErrCancelled, Message: fmt.Sprintf("credential prompt for %q was cancelled", presetName)}
	}

	cred := &Credential{Token: token, Source: SourceInteractivePrompt}
	r.logResolved(ctx, presetName, cred.Source)
	return cred, nil
}

func (r *Resolver) logResolved(ctx context.Context, presetName string, source Source) {
	r.logger.InfoContext(ctx, "resolved credential for provider %q via %s", presetName, source)
}

// ConcurrencyClamp returns 1 when authMethod is subscription, overriding
// any configured concurrency; otherwise it returns configured unchanged.
func ConcurrencyClamp(authMethod Method, configured int) int {
	if authMethod == MethodSubscription {
		return 1
	}
	return configured
}
