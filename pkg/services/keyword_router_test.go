package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/hospital-assistant/pkg/apperrors"
	"github.com/ekaya-inc/hospital-assistant/pkg/database"
	"github.com/ekaya-inc/hospital-assistant/pkg/query"
)

func TestKeywordRouter_Route(t *testing.T) {
	router := NewKeywordRouter(&mockQuerier{}, zap.NewNop())

	tests := []struct {
		name       string
		question   string
		wantSQL    string
		wantParams []any
	}{
		{
			name:     "patients",
			question: "Show me all PATIENTS",
			wantSQL:  "SELECT * FROM patients WHERE 1=1 LIMIT 10",
		},
		{
			name:     "patient wins over doctor",
			question: "Which doctor treats patient 3?",
			wantSQL:  "SELECT * FROM patients WHERE 1=1 LIMIT 10",
		},
		{
			name:     "all doctors",
			question: "list the doctors",
			wantSQL:  "SELECT * FROM doctors WHERE 1=1",
		},
		{
			name:       "cardiologist",
			question:   "Who is the cardiologist?",
			wantSQL:    "SELECT * FROM doctors WHERE 1=1 AND LOWER(specialization) LIKE LOWER($1)",
			wantParams: []any{"%cardio%"},
		},
		{
			name:       "pediatrician via doctor",
			question:   "Is there a pediatrician doctor?",
			wantSQL:    "SELECT * FROM doctors WHERE 1=1 AND LOWER(specialization) LIKE LOWER($1)",
			wantParams: []any{"%pediatric%"},
		},
		{
			name:       "neurology specialist",
			question:   "Find a neurology specialist",
			wantSQL:    "SELECT * FROM doctors WHERE 1=1 AND LOWER(specialization) LIKE LOWER($1)",
			wantParams: []any{"%neuro%"},
		},
		{
			name:       "orthopedic doctor",
			question:   "orthopedic doctor please",
			wantSQL:    "SELECT * FROM doctors WHERE 1=1 AND LOWER(specialization) LIKE LOWER($1)",
			wantParams: []any{"%orthopedic%"},
		},
		{
			name:     "specialization without doctor keyword",
			question: "any neurologists?",
			wantSQL:  "",
		},
		{
			name:     "appointments",
			question: "upcoming appointments",
			wantSQL: "SELECT a.*, p.name AS patient_name, d.name AS doctor_name, d.specialization" +
				" FROM appointments a" +
				" LEFT JOIN patients p ON a.patient_id = p.patient_id" +
				" LEFT JOIN doctors d ON a.doctor_id = d.doctor_id" +
				" WHERE 1=1 ORDER BY a.appointment_date DESC LIMIT 10",
		},
		{
			name:     "nothing matches",
			question: "what is the weather",
			wantSQL:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := router.Route(tt.question)
			require.NoError(t, err)
			if tt.wantSQL == "" {
				assert.Nil(t, stmt)
				return
			}
			require.NotNil(t, stmt)
			assert.Equal(t, tt.wantSQL, stmt.SQL)
			if tt.wantParams == nil {
				assert.Empty(t, stmt.Params)
			} else {
				assert.Equal(t, tt.wantParams, stmt.Params)
			}
		})
	}
}

func TestKeywordRouter_Answer_RendersRows(t *testing.T) {
	store := &mockQuerier{QueryFunc: func(ctx context.Context, stmt *query.Statement) ([]database.Row, error) {
		return []database.Row{
			row("doctor_id", int64(1), "name", "Dr. Emily Chen", "specialization", "Cardiology"),
		}, nil
	}}
	router := NewKeywordRouter(store, zap.NewNop())

	answer, err := router.Answer(context.Background(), "cardiologist?")
	require.NoError(t, err)

	assert.Equal(t, "[\n  {\n    \"doctor_id\": 1,\n    \"name\": \"Dr. Emily Chen\",\n    \"specialization\": \"Cardiology\"\n  }\n]", answer)
	require.Len(t, store.statements, 1)
}

func TestKeywordRouter_Answer_EmptyRows(t *testing.T) {
	router := NewKeywordRouter(&mockQuerier{}, zap.NewNop())

	answer, err := router.Answer(context.Background(), "patients")
	require.NoError(t, err)
	assert.Equal(t, "[]", answer)
}

func TestKeywordRouter_Answer_NoMatchSkipsStore(t *testing.T) {
	store := &mockQuerier{}
	router := NewKeywordRouter(store, zap.NewNop())

	answer, err := router.Answer(context.Background(), "hello there")
	require.NoError(t, err)
	assert.Equal(t, KeywordHelpMessage, answer)
	assert.Empty(t, store.statements)
}

func TestKeywordRouter_Answer_StoreError(t *testing.T) {
	store := &mockQuerier{QueryFunc: func(ctx context.Context, stmt *query.Statement) ([]database.Row, error) {
		return nil, errors.Join(apperrors.ErrDatabase, errors.New("connection refused"))
	}}
	router := NewKeywordRouter(store, zap.NewNop())

	_, err := router.Answer(context.Background(), "appointments")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDatabase)
}
