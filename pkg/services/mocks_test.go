package services

import (
	"context"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/ekaya-inc/hospital-assistant/pkg/agent"
	"github.com/ekaya-inc/hospital-assistant/pkg/database"
	"github.com/ekaya-inc/hospital-assistant/pkg/query"
)

type mockQuerier struct {
	QueryFunc func(ctx context.Context, stmt *query.Statement) ([]database.Row, error)

	mu         sync.Mutex
	statements []*query.Statement
}

func (m *mockQuerier) Query(ctx context.Context, stmt *query.Statement) ([]database.Row, error) {
	m.mu.Lock()
	m.statements = append(m.statements, stmt)
	m.mu.Unlock()
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, stmt)
	}
	return nil, nil
}

type mockAsker struct {
	AskFunc   func(ctx context.Context, question, modelID string) (*agent.Answer, error)
	available bool
	calls     int
}

func (m *mockAsker) Ask(ctx context.Context, question, modelID string) (*agent.Answer, error) {
	m.calls++
	if m.AskFunc != nil {
		return m.AskFunc(ctx, question, modelID)
	}
	return &agent.Answer{Text: "ok"}, nil
}

func (m *mockAsker) Available() bool { return m.available }

type mockRouter struct {
	AnswerFunc func(ctx context.Context, question string) (string, error)
	calls      int
}

func (m *mockRouter) Route(string) (*query.Statement, error) { return nil, nil }

func (m *mockRouter) Answer(ctx context.Context, question string) (string, error) {
	m.calls++
	if m.AnswerFunc != nil {
		return m.AnswerFunc(ctx, question)
	}
	return KeywordHelpMessage, nil
}

func row(kv ...any) database.Row {
	r := orderedmap.New[string, any]()
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(kv[i].(string), kv[i+1])
	}
	return r
}
