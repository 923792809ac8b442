// Package llm provides chat-completion backends with tool calling for the
// supported providers (Groq, OpenAI, Anthropic) behind one interface.
package llm

import (
	"context"
)

// ChatModel performs one chat-completion round: the model either answers
// or requests tool calls. The tool loop itself lives with the caller.
// Use this interface for dependency injection to enable mocking in tests.
type ChatModel interface {
	// Chat sends the conversation and returns the model's next turn.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// GetModel returns the provider model name.
	GetModel() string
}

// Ensure the backends implement ChatModel at compile time.
var (
	_ ChatModel = (*Client)(nil)
	_ ChatModel = (*AnthropicClient)(nil)
	_ ChatModel = (*guardedModel)(nil)
)
