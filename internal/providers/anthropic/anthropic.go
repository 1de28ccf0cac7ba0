// Package anthropic implements the llm.Provider capability against the
// Anthropic Messages API's native tool-use mechanism: the model is forced
// to respond with a single tool-use block whose input is the schema-shaped
// structured response.
//
// Grounded on phrazzld-thinktank's provider-per-package layout
// (internal/gemini, internal/openai each implementing llm.LLMClient) and
// the spec's dependency-stack commitment to github.com/anthropics/anthropic-sdk-go
// (SPEC_FULL.md domain-stack section).
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/xeipuuv/gojsonschema"

	"github.com/phrazzld/handover/internal/llm"
)

const structuredToolName = "structured_response"

// Client implements llm.Provider against a single Anthropic model.
type Client struct {
	api           anthropic.Client
	model         string
	contextWindow int
}

// New constructs a Client. apiKey empty means the SDK's own
// ANTHROPIC_API_KEY environment fallback is used.
func New(apiKey, baseURL, model string, contextWindow int) *Client {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Client{
		api:           anthropic.NewClient(opts...),
		model:         model,
		contextWindow: contextWindow,
	}
}

func (c *Client) Complete(ctx context.Context, req llm.Request, schema map[string]interface{}, onRetry llm.RetryHook) (*llm.CompletionResult, error) {
	start := time.Now()

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	tool := anthropic.ToolParam{
		Name:        structuredToolName,
		Description: anthropic.String("Emit the structured response for this request."),
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: schema["properties"],
		},
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt)),
		},
		Tools: []anthropic.ToolUnionParam{{OfTool: &tool}},
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: structuredToolName},
		},
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	msg, err := c.api.Messages.New(ctx, params)
	if err != nil {
		return nil, llm.Wrap(llm.ErrUnknown, "anthropic completion failed", err)
	}

	var toolInput json.RawMessage
	for _, block := range msg.Content {
		if block.Type == "tool_use" && block.Name == structuredToolName {
			toolInput = block.Input
			break
		}
	}
	if toolInput == nil {
		return nil, llm.Wrap(llm.ErrNoToolUse, "model did not return a tool-use block", nil)
	}

	if err := validateAgainstSchema(toolInput, schema); err != nil {
		return nil, llm.Wrap(llm.ErrNoToolUse, "structured response failed schema validation", err)
	}

	var data interface{}
	if err := json.Unmarshal(toolInput, &data); err != nil {
		return nil, llm.Wrap(llm.ErrNoToolUse, "structured response was not valid JSON", err)
	}

	return &llm.CompletionResult{
		Data: data,
		Usage: llm.Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
		Model:      c.model,
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

func (c *Client) EstimateTokens(text string) int {
	return int(math.Ceil(float64(len(text)) / 4))
}

func (c *Client) MaxContextTokens() int { return c.contextWindow }

func validateAgainstSchema(data json.RawMessage, schema map[string]interface{}) error {
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
