package tools

import (
	"context"
	"time"

	"github.com/ekaya-inc/hospital-assistant/pkg/database"
	"github.com/ekaya-inc/hospital-assistant/pkg/query"
)

// mockStore is a function-field Store. Unset functions panic so that
// unexpected store access fails the test loudly.
type mockStore struct {
	QueryFunc  func(ctx context.Context, stmt *query.Statement) ([]database.Row, error)
	PingFunc   func(ctx context.Context) (time.Time, error)
	SchemaFunc func(ctx context.Context) (database.Schema, error)

	queries []*query.Statement
}

func (m *mockStore) Query(ctx context.Context, stmt *query.Statement) ([]database.Row, error) {
	m.queries = append(m.queries, stmt)
	return m.QueryFunc(ctx, stmt)
}

func (m *mockStore) Ping(ctx context.Context) (time.Time, error) {
	return m.PingFunc(ctx)
}

func (m *mockStore) Schema(ctx context.Context) (database.Schema, error) {
	return m.SchemaFunc(ctx)
}
