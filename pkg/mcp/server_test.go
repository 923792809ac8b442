package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"

	"github.com/ekaya-inc/hospital-assistant/pkg/apperrors"
	"github.com/ekaya-inc/hospital-assistant/pkg/database"
	"github.com/ekaya-inc/hospital-assistant/pkg/query"
	"github.com/ekaya-inc/hospital-assistant/pkg/tools"
)

// fakeStore is a function-field tools.Store that counts every access.
type fakeStore struct {
	QueryFunc func(ctx context.Context, stmt *query.Statement) ([]database.Row, error)
	accesses  int
	last      *query.Statement
}

func (f *fakeStore) Query(ctx context.Context, stmt *query.Statement) ([]database.Row, error) {
	f.accesses++
	f.last = stmt
	if f.QueryFunc != nil {
		return f.QueryFunc(ctx, stmt)
	}
	return nil, nil
}

func (f *fakeStore) Ping(ctx context.Context) (time.Time, error) {
	f.accesses++
	return time.Now(), nil
}

func (f *fakeStore) Schema(ctx context.Context) (database.Schema, error) {
	f.accesses++
	return orderedmap.New[string, []database.ColumnInfo](), nil
}

func newTestServer(store *fakeStore) *Server {
	return NewServer("1.2.3", tools.NewRegistry(store, zap.NewNop()), zap.NewNop())
}

type toolCallResponse struct {
	ID     any `json:"id"`
	Result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func callTool(t *testing.T, s *Server, id int, name string, args map[string]any) toolCallResponse {
	t.Helper()
	req, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  "tools/call",
		"params":  map[string]any{"name": name, "arguments": args},
	})
	require.NoError(t, err)

	msg := s.HandleMessage(context.Background(), req)
	require.NotNil(t, msg)

	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	var resp toolCallResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	return resp
}

func TestServer_ToolsList(t *testing.T) {
	s := newTestServer(&fakeStore{})

	msg := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"tools/list","id":1}`))
	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	var response struct {
		Result struct {
			Tools []struct {
				Name        string `json:"name"`
				Description string `json:"description"`
				InputSchema struct {
					Type       string                    `json:"type"`
					Properties map[string]map[string]any `json:"properties"`
					Required   []string                  `json:"required"`
				} `json:"inputSchema"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &response))

	byName := map[string]int{}
	for i, tool := range response.Result.Tools {
		byName[tool.Name] = i
		assert.NotEmpty(t, tool.Description, tool.Name)
		assert.Equal(t, "object", tool.InputSchema.Type, tool.Name)
	}
	assert.Len(t, byName, 6)
	for _, name := range []string{
		tools.GetPatientInfo, tools.GetAppointments, tools.GetDoctorInfo,
		tools.GetMedicalRecords, tools.GetDatabaseSchema, tools.TestDatabaseConnection,
	} {
		assert.Contains(t, byName, name)
	}

	records := response.Result.Tools[byName[tools.GetMedicalRecords]]
	assert.Equal(t, []string{"patient_id"}, records.InputSchema.Required)
	assert.Equal(t, "number", records.InputSchema.Properties["patient_id"]["type"])

	appts := response.Result.Tools[byName[tools.GetAppointments]]
	assert.Empty(t, appts.InputSchema.Required)
	assert.Equal(t, "string", appts.InputSchema.Properties["appointment_date"]["type"])
	assert.Equal(t, "number", appts.InputSchema.Properties["doctor_id"]["type"])
}

func TestServer_Initialize(t *testing.T) {
	s := newTestServer(&fakeStore{})

	msg := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"0"}}}`))
	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	var resp struct {
		Result struct {
			ServerInfo struct {
				Name    string `json:"name"`
				Version string `json:"version"`
			} `json:"serverInfo"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &resp))
	assert.Equal(t, "hospital-database-server", resp.Result.ServerInfo.Name)
	assert.Equal(t, "1.2.3", resp.Result.ServerInfo.Version)
}

func TestServer_CallTool_Success(t *testing.T) {
	store := &fakeStore{QueryFunc: func(ctx context.Context, stmt *query.Statement) ([]database.Row, error) {
		r := orderedmap.New[string, any]()
		r.Set("patient_id", int64(1))
		r.Set("name", "John Smith")
		return []database.Row{r}, nil
	}}
	s := newTestServer(store)

	resp := callTool(t, s, 7, tools.GetPatientInfo, map[string]any{"patient_name": "john"})

	assert.Nil(t, resp.Error)
	assert.EqualValues(t, 7, resp.ID)
	assert.False(t, resp.Result.IsError)
	require.Len(t, resp.Result.Content, 1)
	assert.Equal(t, "text", resp.Result.Content[0].Type)
	assert.JSONEq(t, `[{"patient_id":1,"name":"John Smith"}]`, resp.Result.Content[0].Text)

	require.NotNil(t, store.last)
	assert.Equal(t, []any{"%john%"}, store.last.Params)
}

func TestServer_CallTool_NumericArgumentFromJSON(t *testing.T) {
	store := &fakeStore{}
	s := newTestServer(store)

	resp := callTool(t, s, 1, tools.GetMedicalRecords, map[string]any{"patient_id": 4})

	assert.False(t, resp.Result.IsError)
	assert.Equal(t, "No medical records found for patient ID 4.", resp.Result.Content[0].Text)
	assert.Equal(t, []any{int64(4)}, store.last.Params)
}

func TestServer_CallTool_UnknownTool(t *testing.T) {
	store := &fakeStore{}
	s := newTestServer(store)

	resp := callTool(t, s, 42, "get_unicorn_info", map[string]any{"horn": "single"})

	assert.Nil(t, resp.Error, "unknown tools are a tool result, not a protocol error")
	assert.EqualValues(t, 42, resp.ID)
	assert.True(t, resp.Result.IsError)
	require.Len(t, resp.Result.Content, 1)
	assert.Equal(t, "text", resp.Result.Content[0].Type)
	assert.Equal(t, "Error executing tool get_unicorn_info: Unknown tool: get_unicorn_info", resp.Result.Content[0].Text)
	assert.Equal(t, 0, store.accesses)
}

func TestServer_CallTool_UnknownToolStringID(t *testing.T) {
	s := newTestServer(&fakeStore{})

	msg := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":"abc","method":"tools/call","params":{"name":"nope"}}`))
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"id":"abc"`)
	assert.Contains(t, string(raw), `"isError":true`)
}

func TestServer_CallTool_MissingRequired(t *testing.T) {
	store := &fakeStore{}
	s := newTestServer(store)

	resp := callTool(t, s, 1, tools.GetMedicalRecords, map[string]any{})

	assert.True(t, resp.Result.IsError)
	assert.Equal(t, "Error retrieving medical records: missing required field: patient_id", resp.Result.Content[0].Text)
	assert.Equal(t, 0, store.accesses)
}

func TestServer_CallTool_StoreFailure(t *testing.T) {
	store := &fakeStore{QueryFunc: func(ctx context.Context, stmt *query.Statement) ([]database.Row, error) {
		pgErr := &pgconn.PgError{Severity: "ERROR", Code: "42P01", Message: `relation "doctors" does not exist`}
		return nil, errors.Join(apperrors.ErrDatabase, pgErr)
	}}
	s := newTestServer(store)

	resp := callTool(t, s, 1, tools.GetDoctorInfo, nil)

	assert.Nil(t, resp.Error)
	assert.True(t, resp.Result.IsError)
	assert.Equal(t, `Error retrieving doctor information: relation "doctors" does not exist`, resp.Result.Content[0].Text)
}

func TestServer_CallTool_Connection(t *testing.T) {
	s := newTestServer(&fakeStore{})

	resp := callTool(t, s, 1, tools.TestDatabaseConnection, nil)
	assert.False(t, resp.Result.IsError)
	assert.Equal(t, "Database connection successful!", resp.Result.Content[0].Text)
}

func TestServer_ServeStdio(t *testing.T) {
	store := &fakeStore{}
	s := newTestServer(store)

	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"0"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"get_unicorn_info"}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"test_database_connection","arguments":{}}}`,
	}, "\n") + "\n"
	var out bytes.Buffer

	err := s.ServeStdio(context.Background(), strings.NewReader(in), &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3, "notifications and blank lines produce no output")

	var unknown toolCallResponse
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &unknown))
	assert.EqualValues(t, 2, unknown.ID)
	assert.True(t, unknown.Result.IsError)

	var ping toolCallResponse
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &ping))
	assert.EqualValues(t, 3, ping.ID)
	assert.False(t, ping.Result.IsError)
	assert.Equal(t, "Database connection successful!", ping.Result.Content[0].Text)
}

func TestServer_ServeStdio_ContextCancelled(t *testing.T) {
	s := newTestServer(&fakeStore{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pr, pw := io.Pipe()
	defer pw.Close()

	err := s.ServeStdio(ctx, pr, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}

// eofReader closes readDone once a Read on the wrapped reader fails.
type eofReader struct {
	r        io.Reader
	readDone chan struct{}
	once     sync.Once
}

func (e *eofReader) Read(p []byte) (int, error) {
	n, err := e.r.Read(p)
	if err != nil {
		e.once.Do(func() { close(e.readDone) })
	}
	return n, err
}

func TestServer_ServeStdio_ReaderOutlivesCancellation(t *testing.T) {
	s := newTestServer(&fakeStore{})
	ctx, cancel := context.WithCancel(context.Background())

	pr, pw := io.Pipe()
	in := &eofReader{r: pr, readDone: make(chan struct{})}

	served := make(chan error, 1)
	go func() { served <- s.ServeStdio(ctx, in, &bytes.Buffer{}) }()

	cancel()
	select {
	case err := <-served:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("ServeStdio did not return after cancellation")
	}

	select {
	case <-in.readDone:
		t.Fatal("reader returned before input was closed")
	default:
	}

	require.NoError(t, pw.Close())
	select {
	case <-in.readDone:
	case <-time.After(time.Second):
		t.Fatal("reader still blocked after input was closed")
	}
}

func TestServer_StreamableHTTP(t *testing.T) {
	store := &fakeStore{}
	s := newTestServer(store)
	httpServer := s.NewStreamableHTTPServer()

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"test_database_connection","arguments":{}}}`
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	rec := httptest.NewRecorder()

	httpServer.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Database connection successful!")
	assert.Equal(t, 1, store.accesses)
}

func TestServer_HTTPHandler_UnknownTool(t *testing.T) {
	store := &fakeStore{}
	s := newTestServer(store)

	body := `{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"drop_tables","arguments":{}}}`
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	s.HTTPHandler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		ID     int `json:"id"`
		Result struct {
			IsError bool `json:"isError"`
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 7, resp.ID)
	assert.True(t, resp.Result.IsError)
	require.Len(t, resp.Result.Content, 1)
	assert.Equal(t, "Error executing tool drop_tables: Unknown tool: drop_tables", resp.Result.Content[0].Text)
	assert.Zero(t, store.accesses)
}

func TestServer_HTTPHandler_KnownToolDelegates(t *testing.T) {
	store := &fakeStore{}
	s := newTestServer(store)

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"test_database_connection","arguments":{}}}`
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	rec := httptest.NewRecorder()

	s.HTTPHandler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Database connection successful!")
	assert.Equal(t, 1, store.accesses)
}
