package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/hospital-assistant/pkg/logging"
	"github.com/ekaya-inc/hospital-assistant/pkg/middleware"
	"github.com/ekaya-inc/hospital-assistant/pkg/models"
	"github.com/ekaya-inc/hospital-assistant/pkg/services"
)

const (
	maxQueryBodyBytes = 64 << 10

	errQuestionRequired = "Question is required"
	errQueryFailed      = "Failed to process query"
)

// QueryHandler handles POST /query.
type QueryHandler struct {
	service services.QueryService
	logger  *zap.Logger
}

// NewQueryHandler creates a QueryHandler.
func NewQueryHandler(service services.QueryService, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{service: service, logger: logger}
}

// RegisterRoutes registers the query handler's routes on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /query", h.Query)
}

// Query answers one question. A body that does not decode is treated the
// same as a missing question.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	body := http.MaxBytesReader(w, r.Body, maxQueryBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		h.logger.Debug("Failed to decode query request", zap.Error(err))
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, errQuestionRequired, ""); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	answer, err := h.service.Answer(r.Context(), question, strings.TrimSpace(req.Model))
	if err != nil {
		h.logger.Error("Query failed",
			zap.String("request_id", w.Header().Get(middleware.RequestIDHeader)),
			zap.String("question", logging.TruncateString(question, 200)),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, errQueryFailed, err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	h.logger.Info("Query answered",
		zap.String("request_id", w.Header().Get(middleware.RequestIDHeader)),
		zap.String("model", answer.Model),
		zap.String("source", string(answer.Source)))

	if err := WriteJSON(w, http.StatusOK, answer); err != nil {
		h.logger.Error("Failed to encode query response", zap.Error(err))
	}
}
