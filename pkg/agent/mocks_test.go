package agent

import (
	"context"
	"sync"

	"github.com/ekaya-inc/hospital-assistant/pkg/llm"
	"github.com/ekaya-inc/hospital-assistant/pkg/tools"
)

type toolCall struct {
	Name string
	Args map[string]any
}

// mockToolbox is a hand-written Toolbox with a configurable CallFunc.
type mockToolbox struct {
	CallFunc func(ctx context.Context, name string, args map[string]any) tools.Result

	mu    sync.Mutex
	calls []toolCall
}

func (m *mockToolbox) Tools() []tools.Tool {
	return []tools.Tool{
		{Name: "get_patient_info", Description: "Get patient information", Params: []tools.Param{{Name: "name", Type: "string"}}},
		{Name: "test_connection", Description: "Test the database connection"},
	}
}

func (m *mockToolbox) Call(ctx context.Context, name string, args map[string]any) tools.Result {
	m.mu.Lock()
	m.calls = append(m.calls, toolCall{Name: name, Args: args})
	m.mu.Unlock()
	if m.CallFunc != nil {
		return m.CallFunc(ctx, name, args)
	}
	return tools.Success("[]")
}

// mockFactory resolves every known id to the same mock model.
type mockFactory struct {
	model     *llm.MockChatModel
	catalog   *llm.Catalog
	available bool
	err       error
}

func newMockFactory(model *llm.MockChatModel) *mockFactory {
	return &mockFactory{model: model, catalog: llm.DefaultCatalog(), available: true}
}

func (f *mockFactory) ForModel(id string) (llm.ChatModel, llm.ModelInfo, error) {
	info, err := f.catalog.Lookup(id)
	if err != nil {
		return nil, llm.ModelInfo{}, err
	}
	if f.err != nil {
		return nil, info, f.err
	}
	return f.model, info, nil
}

func (f *mockFactory) Catalog() *llm.Catalog { return f.catalog }
func (f *mockFactory) Available() bool       { return f.available }

var _ llm.ModelFactory = (*mockFactory)(nil)
var _ Toolbox = (*mockToolbox)(nil)
