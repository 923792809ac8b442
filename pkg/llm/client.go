package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Client talks to OpenAI-compatible chat endpoints (OpenAI and Groq).
type Client struct {
	client   *openai.Client
	endpoint string
	model    string
	logger   *zap.Logger
}

// Config holds configuration for creating an LLM client.
type Config struct {
	Endpoint string // Base URL, e.g., "https://api.groq.com/openai/v1"
	Model    string // Provider model name, e.g., "llama-3.3-70b-versatile"
	APIKey   string
}

// NewClient creates a new OpenAI-compatible LLM client.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")
	clientConfig.HTTPClient = newHTTPClient()

	return &Client{
		client:   openai.NewClientWithConfig(clientConfig),
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		logger:   logger.Named("llm"),
	}, nil
}

// Chat performs a single non-streaming chat completion with tool definitions.
func (c *Client) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	messages := buildOpenAIMessages(req.Messages, req.SystemPrompt)
	tools := buildOpenAITools(req.Tools)

	c.logger.Debug("LLM request",
		zap.String("model", c.model),
		zap.String("run_id", RunID(ctx)),
		zap.Int("message_count", len(messages)),
		zap.Int("tool_count", len(tools)))

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Tools:       tools,
		Temperature: wireTemperature(req.Temperature),
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		c.logger.Error("LLM request failed",
			zap.String("model", c.model),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, c.parseError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	choice := resp.Choices[0]
	content := choice.Message.Content

	// Check for text-based tool calls if no native ones
	var toolCalls []ToolCall
	if len(choice.Message.ToolCalls) == 0 && content != "" {
		toolCalls = parseTextToolCalls(content)
		if len(toolCalls) > 0 {
			content = cleanModelOutput(content)
		}
	} else {
		for _, tc := range choice.Message.ToolCalls {
			toolCalls = append(toolCalls, ToolCall{
				ID:   tc.ID,
				Type: string(tc.Type),
				Function: ToolCallFunc{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
	}

	c.logger.Info("LLM request completed",
		zap.String("model", c.model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Int("tool_calls", len(toolCalls)),
		zap.Duration("elapsed", time.Since(start)))

	return &ChatResponse{
		Content:          content,
		ToolCalls:        toolCalls,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// GetModel returns the configured model name.
func (c *Client) GetModel() string {
	return c.model
}

// parseError categorizes OpenAI API errors using the structured Error type.
func (c *Client) parseError(err error) error {
	llmErr := ClassifyError(err)
	if llmErr.Model == "" {
		llmErr.Model = c.model
	}
	if llmErr.Endpoint == "" {
		llmErr.Endpoint = c.endpoint
	}
	return llmErr
}

// wireTemperature maps a temperature to the request field. The SDK omits a
// zero float32, which makes the provider fall back to its own default, so
// zero is sent as the smallest positive value.
func wireTemperature(t float64) float32 {
	if t <= 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}

// buildOpenAIMessages converts our message format to OpenAI format.
func buildOpenAIMessages(messages []Message, systemPrompt string) []openai.ChatCompletionMessage {
	var result []openai.ChatCompletionMessage

	if systemPrompt != "" {
		result = append(result, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}

	for _, msg := range messages {
		oaiMsg := openai.ChatCompletionMessage{
			Role:       msg.Role,
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}

		for _, tc := range msg.ToolCalls {
			oaiMsg.ToolCalls = append(oaiMsg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}

		result = append(result, oaiMsg)
	}

	return result
}

// buildOpenAITools converts our tool definitions to OpenAI format.
func buildOpenAITools(tools []ToolDefinition) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}

	result := make([]openai.Tool, len(tools))
	for i, def := range tools {
		paramsJSON, _ := json.Marshal(def.parametersOrEmpty())
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  json.RawMessage(paramsJSON),
			},
		}
	}

	return result
}

var (
	// <tool_call>{"name": "...", "arguments": {...}}</tool_call>
	textToolCallRegex = regexp.MustCompile(`<tool_call>\s*(\{[\s\S]*?\})\s*</tool_call>`)
	// <function=name>{...}</function>, emitted by some Llama builds on Groq
	textFunctionRegex = regexp.MustCompile(`<function=([A-Za-z0-9_]+)>\s*(\{[\s\S]*?\})\s*</function>`)

	thinkBlockRegex    = regexp.MustCompile(`<think>[\s\S]*?</think>`)
	toolCallBlockRegex = regexp.MustCompile(`<tool_call>[\s\S]*?</tool_call>|<function=[A-Za-z0-9_]+>[\s\S]*?</function>`)
	multiNewlineRegex  = regexp.MustCompile(`\n{3,}`)
)

// parseTextToolCalls parses tool calls from text output (for models without
// native tool calling).
func parseTextToolCalls(content string) []ToolCall {
	var toolCalls []ToolCall

	for _, match := range textToolCallRegex.FindAllStringSubmatch(content, -1) {
		var toolCallJSON struct {
			Name      string          `json:"name"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := json.Unmarshal([]byte(match[1]), &toolCallJSON); err != nil || toolCallJSON.Name == "" {
			continue
		}
		args := string(toolCallJSON.Arguments)
		if args == "" || args == "null" {
			args = "{}"
		}
		toolCalls = append(toolCalls, ToolCall{
			ID:       fmt.Sprintf("text_tool_%d", len(toolCalls)),
			Type:     "function",
			Function: ToolCallFunc{Name: toolCallJSON.Name, Arguments: args},
		})
	}

	for _, match := range textFunctionRegex.FindAllStringSubmatch(content, -1) {
		toolCalls = append(toolCalls, ToolCall{
			ID:       fmt.Sprintf("text_tool_%d", len(toolCalls)),
			Type:     "function",
			Function: ToolCallFunc{Name: match[1], Arguments: match[2]},
		})
	}

	return toolCalls
}

// cleanModelOutput removes tool call markup and thinking blocks from model output.
func cleanModelOutput(content string) string {
	content = thinkBlockRegex.ReplaceAllString(content, "")
	content = toolCallBlockRegex.ReplaceAllString(content, "")
	content = multiNewlineRegex.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
