package llm

import "context"

// Request is one structured-completion call (spec §4.9).
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int
}

// Usage reports the token accounting for one completion.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// RetryHook is invoked before each retry sleep by the rate limiter's retry
// wrapper, never by the provider itself.
type RetryHook func(attempt int, delayMs int64, reason string)

// CompletionResult is the provider-agnostic outcome of a structured call.
// Data holds the schema-validated decoded payload.
type CompletionResult struct {
	Data       interface{}
	Usage      Usage
	Model      string
	DurationMs int64
}

// Provider is the unified capability every LLM backend implements: a single
// structured "complete" call, a local token estimator, and the model's
// context window size (spec §4.9).
type Provider interface {
	// Complete sends request, forcing the model to respond via a single
	// tool/function call whose arguments validate against schema (a JSON
	// Schema document). The decoded, validated value is returned as
	// CompletionResult.Data.
	Complete(ctx context.Context, request Request, schema map[string]interface{}, onRetry RetryHook) (*CompletionResult, error)

	// EstimateTokens estimates the token count of text using the
	// provider's own tokenizer when available.
	EstimateTokens(text string) int

	// MaxContextTokens returns the model's context window size.
	MaxContextTokens() int
}

// ErrorCode enumerates the provider failure modes named in spec §4.9.
type ErrorCode string

const (
	ErrNoToolUse       ErrorCode = "PROVIDER_NO_TOOL_USE"
	ErrNoAPIKey        ErrorCode = "PROVIDER_NO_API_KEY"
	ErrUnknown         ErrorCode = "PROVIDER_UNKNOWN"
	ErrOllamaNoModel   ErrorCode = "PROVIDER_OLLAMA_NO_MODEL"
	ErrAzureNoBaseURL  ErrorCode = "PROVIDER_AZURE_NO_BASE_URL"
	ErrCustomNoBaseURL ErrorCode = "PROVIDER_CUSTOM_NO_BASE_URL"
	ErrSafetyBlocked   ErrorCode = "PROVIDER_SAFETY_BLOCKED"
)

// ProviderError is the structured error type every Provider implementation
// returns for a recognized failure mode.
type ProviderError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return string(e.Code) + ": " + e.Message + ": " + e.Cause.Error()
	}
	return string(e.Code) + ": " + e.Message
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// Category implements CategorizedError so existing error-handling call
// sites that switch on category continue to work for provider errors.
func (e *ProviderError) Category() ErrorCategory {
	switch e.Code {
	case ErrNoAPIKey:
		return CategoryAuth
	case ErrSafetyBlocked:
		return CategoryContentFiltered
	case ErrNoToolUse, ErrOllamaNoModel, ErrAzureNoBaseURL, ErrCustomNoBaseURL:
		return CategoryInvalidRequest
	default:
		return CategoryUnknown
	}
}

// Wrap builds a ProviderError. Grounded on the teacher's categorized-error
// convention in internal/llm/errors.go, extended with the code enum the
// spec's failure-mode table requires.
func Wrap(code ErrorCode, message string, cause error) *ProviderError {
	return &ProviderError{Code: code, Message: message, Cause: cause}
}
