// Package openaicompat implements the llm.Provider capability against any
// OpenAI-compatible chat-completions endpoint by forcing a single function
// tool call named "structured_response" via tool_choice.
//
// One implementation serves OpenAI, Groq, Together, DeepSeek, Azure
// OpenAI, and Ollama (spec §4.9, §6) — a raw net/http client is used
// instead of a vendor SDK because the single implementation must point at
// arbitrary base URLs per preset (see DESIGN.md "why no SDK" entry).
// Grounded on phrazzld-thinktank internal/openai/openai_client.go's
// structural shape (a thin client wrapping one HTTP call plus a
// categorized-error translator), adapted from the chat SDK to raw HTTP.
package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/phrazzld/handover/internal/llm"
)

const structuredToolName = "structured_response"

// Client implements llm.Provider against one OpenAI-compatible endpoint.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	apiKey        string
	model         string
	contextWindow int
}

// New constructs a Client bound to baseURL (e.g. "https://api.openai.com/v1").
func New(apiKey, baseURL, model string, contextWindow int, timeout time.Duration) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: timeout},
		baseURL:       baseURL,
		apiKey:        apiKey,
		model:         model,
		contextWindow: contextWindow,
	}
}

type chatRequest struct {
	Model       string          `json:"model"`
	Messages    []chatMessage   `json:"messages"`
	Tools       []tool          `json:"tools"`
	ToolChoice  json.RawMessage `json:"tool_choice"`
	Temperature float64         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type tool struct {
	Type     string       `json:"type"`
	Function functionSpec `json:"function"`
}

type functionSpec struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (c *Client) Complete(ctx context.Context, req llm.Request, schema map[string]interface{}, onRetry llm.RetryHook) (*llm.CompletionResult, error) {
	start := time.Now()

	if c.apiKey == "" {
		return nil, llm.Wrap(llm.ErrNoAPIKey, "no API key configured for provider", nil)
	}

	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
		Tools: []tool{{
			Type: "function",
			Function: functionSpec{
				Name:        structuredToolName,
				Description: "Emit the structured response for this request.",
				Parameters:  schema,
			},
		}},
		ToolChoice:  json.RawMessage(fmt.Sprintf(`{"type":"function","function":{"name":%q}}`, structuredToolName)),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, llm.Wrap(llm.ErrUnknown, "failed to encode request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, llm.Wrap(llm.ErrUnknown, "failed to build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, llm.Wrap(llm.ErrUnknown, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, llm.Wrap(llm.ErrUnknown, "failed to read response", err)
	}
	if resp.StatusCode >= 400 {
		return nil, llm.Wrap(llm.ErrUnknown, fmt.Sprintf("provider returned HTTP %d: %s", resp.StatusCode, string(respBody)), nil)
	}

	var decoded chatResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, llm.Wrap(llm.ErrUnknown, "failed to decode response", err)
	}

	if len(decoded.Choices) == 0 || len(decoded.Choices[0].Message.ToolCalls) == 0 {
		return nil, llm.Wrap(llm.ErrNoToolUse, "model did not return a function-call tool_call", nil)
	}

	args := decoded.Choices[0].Message.ToolCalls[0].Function.Arguments
	if err := validateAgainstSchema([]byte(args), schema); err != nil {
		return nil, llm.Wrap(llm.ErrNoToolUse, "structured response failed schema validation", err)
	}

	var data interface{}
	if err := json.Unmarshal([]byte(args), &data); err != nil {
		return nil, llm.Wrap(llm.ErrNoToolUse, "structured response was not valid JSON", err)
	}

	return &llm.CompletionResult{
		Data: data,
		Usage: llm.Usage{
			InputTokens:  decoded.Usage.PromptTokens,
			OutputTokens: decoded.Usage.CompletionTokens,
		},
		Model:      c.model,
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

func (c *Client) EstimateTokens(text string) int {
	return int(math.Ceil(float64(len(text)) / 4))
}

func (c *Client) MaxContextTokens() int { return c.contextWindow }

func validateAgainstSchema(data []byte, schema map[string]interface{}) error {
	schemaLoader := gojsonschema.NewGoLoader(schema)
	docLoader := gojsonschema.NewBytesLoader(data)
	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return err
	}
	if !result.Valid() {
		return fmt.Errorf("schema validation errors: %v", result.Errors())
	}
	return nil
}
