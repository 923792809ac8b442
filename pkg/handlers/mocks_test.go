package handlers

import (
	"context"
	"time"

	"github.com/ekaya-inc/hospital-assistant/pkg/database"
	"github.com/ekaya-inc/hospital-assistant/pkg/llm"
	"github.com/ekaya-inc/hospital-assistant/pkg/models"
	"github.com/ekaya-inc/hospital-assistant/pkg/query"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) (time.Time, error) {
	if m.err != nil {
		return time.Time{}, m.err
	}
	return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), nil
}

type mockAI struct {
	available bool
	models    []llm.ModelInfo
}

func (m *mockAI) Available() bool         { return m.available }
func (m *mockAI) Models() []llm.ModelInfo { return m.models }

type mockQueryService struct {
	AnswerFunc func(ctx context.Context, question, modelID string) (*models.QueryAnswer, error)
	calls      int
}

func (m *mockQueryService) Answer(ctx context.Context, question, modelID string) (*models.QueryAnswer, error) {
	m.calls++
	return m.AnswerFunc(ctx, question, modelID)
}

// mockStore is a tools.Store that answers every query with no rows.
type mockStore struct {
	queries int
}

func (m *mockStore) Query(ctx context.Context, stmt *query.Statement) ([]database.Row, error) {
	m.queries++
	return nil, nil
}

func (m *mockStore) Ping(ctx context.Context) (time.Time, error) {
	return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), nil
}

func (m *mockStore) Schema(ctx context.Context) (database.Schema, error) {
	return nil, nil
}
