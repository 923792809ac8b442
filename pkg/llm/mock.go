package llm

import (
	"context"
	"sync"
)

// MockChatModel is a configurable ChatModel for tests.
// Set ChatFunc to control behavior; requests are recorded for verification.
type MockChatModel struct {
	// ChatFunc is called when Chat is invoked.
	// If nil, Chat returns an empty answer and nil error.
	ChatFunc func(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	mu        sync.Mutex
	ChatCalls int
	Requests  []*ChatRequest
}

// NewMockChatModel creates a new mock with sensible defaults.
func NewMockChatModel() *MockChatModel {
	return &MockChatModel{Model: "mock-model"}
}

// Chat implements ChatModel.
func (m *MockChatModel) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	m.mu.Lock()
	m.ChatCalls++
	snapshot := *req
	snapshot.Messages = append([]Message(nil), req.Messages...)
	m.Requests = append(m.Requests, &snapshot)
	m.mu.Unlock()

	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, req)
	}
	return &ChatResponse{}, nil
}

// GetModel implements ChatModel.
func (m *MockChatModel) GetModel() string {
	return m.Model
}

// ScriptedResponses returns a ChatFunc that replays responses in order and
// repeats the last one once the script is exhausted.
func ScriptedResponses(responses ...*ChatResponse) func(context.Context, *ChatRequest) (*ChatResponse, error) {
	var mu sync.Mutex
	i := 0
	return func(context.Context, *ChatRequest) (*ChatResponse, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(responses) == 0 {
			return &ChatResponse{}, nil
		}
		resp := responses[i]
		if i < len(responses)-1 {
			i++
		}
		return resp, nil
	}
}

var _ ChatModel = (*MockChatModel)(nil)
