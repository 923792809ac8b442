package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/hospital-assistant/pkg/database"
	"github.com/ekaya-inc/hospital-assistant/pkg/query"
)

// KeywordHelpMessage is returned when a question mentions no known entity.
const KeywordHelpMessage = "Please ask about patients, doctors, or appointments"

const keywordRowLimit = 10

// RowQuerier runs a built statement.
type RowQuerier interface {
	Query(ctx context.Context, stmt *query.Statement) ([]database.Row, error)
}

// KeywordRouter answers questions without a model by substring matching.
type KeywordRouter interface {
	// Route picks the statement for a question, or nil when nothing matches.
	Route(question string) (*query.Statement, error)

	// Answer routes the question and renders the rows as indented JSON.
	Answer(ctx context.Context, question string) (string, error)
}

type keywordRouter struct {
	store  RowQuerier
	logger *zap.Logger
}

// NewKeywordRouter creates the keyword fallback router.
func NewKeywordRouter(store RowQuerier, logger *zap.Logger) KeywordRouter {
	return &keywordRouter{
		store:  store,
		logger: logger.Named("keyword"),
	}
}

// specializationHints maps question fragments to the bound specialization
// filter, checked in order.
var specializationHints = []struct {
	keywords []string
	filter   string
}{
	{[]string{"cardiologist", "cardiology"}, "cardio"},
	{[]string{"pediatric"}, "pediatric"},
	{[]string{"neurolog"}, "neuro"},
	{[]string{"orthopedic"}, "orthopedic"},
}

func (k *keywordRouter) Route(question string) (*query.Statement, error) {
	q := strings.ToLower(question)

	switch {
	case strings.Contains(q, "patient"):
		return query.Patients.Build(nil, query.WithLimit(keywordRowLimit))

	case containsAny(q, "doctor", "cardiologist", "specialist"):
		filters := map[string]any{}
		for _, hint := range specializationHints {
			if containsAny(q, hint.keywords...) {
				filters["specialization"] = hint.filter
				break
			}
		}
		return query.Doctors.Build(filters)

	case strings.Contains(q, "appointment"):
		return query.Appointments.Build(nil, query.WithLimit(keywordRowLimit))
	}

	return nil, nil
}

func (k *keywordRouter) Answer(ctx context.Context, question string) (string, error) {
	stmt, err := k.Route(question)
	if err != nil {
		return "", fmt.Errorf("route question: %w", err)
	}
	if stmt == nil {
		k.logger.Debug("No keyword matched")
		return KeywordHelpMessage, nil
	}

	rows, err := k.store.Query(ctx, stmt)
	if err != nil {
		return "", err
	}
	if rows == nil {
		rows = []database.Row{}
	}

	k.logger.Debug("Keyword query answered",
		zap.Int("rows", len(rows)),
		zap.Any("filters", stmt.Applied))

	out, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", fmt.Errorf("render rows: %w", err)
	}
	return string(out), nil
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
