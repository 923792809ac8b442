package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/hospital-assistant/pkg/agent"
	"github.com/ekaya-inc/hospital-assistant/pkg/logging"
	"github.com/ekaya-inc/hospital-assistant/pkg/models"
)

// Asker is the agent surface the query service needs.
type Asker interface {
	Ask(ctx context.Context, question, modelID string) (*agent.Answer, error)
	Available() bool
}

// QueryService answers free-text questions.
type QueryService interface {
	// Answer uses the agent when a model is requested and a provider is
	// configured; any agent failure falls back to keyword routing.
	Answer(ctx context.Context, question, modelID string) (*models.QueryAnswer, error)
}

type queryService struct {
	agent    Asker
	fallback KeywordRouter
	now      func() time.Time
	logger   *zap.Logger
}

// NewQueryService creates a query service. asker may be nil, in which case
// every question goes through the keyword router.
func NewQueryService(asker Asker, fallback KeywordRouter, logger *zap.Logger) QueryService {
	return &queryService{
		agent:    asker,
		fallback: fallback,
		now:      time.Now,
		logger:   logger.Named("query"),
	}
}

func (s *queryService) Answer(ctx context.Context, question, modelID string) (*models.QueryAnswer, error) {
	reported := modelID
	if reported == "" {
		reported = models.SimpleModel
	}

	if modelID != "" && s.agent != nil && s.agent.Available() {
		ans, err := s.agent.Ask(ctx, question, modelID)
		if err == nil {
			source := models.SourceAgent
			if ans.Outcome == agent.OutcomeExhausted {
				source = models.SourceAgentExhausted
			}
			return s.answer(question, ans.Text, reported, source), nil
		}
		s.logger.Warn("Agent failed, falling back to keyword routing",
			zap.String("model", modelID),
			zap.String("error", logging.SanitizeError(err)))
	}

	text, err := s.fallback.Answer(ctx, question)
	if err != nil {
		return nil, err
	}
	return s.answer(question, text, reported, models.SourceKeyword), nil
}

func (s *queryService) answer(question, text, model string, source models.AnswerSource) *models.QueryAnswer {
	return &models.QueryAnswer{
		Question:  question,
		Answer:    text,
		Model:     model,
		Timestamp: s.now().UTC(),
		Source:    source,
	}
}

var _ QueryService = (*queryService)(nil)
