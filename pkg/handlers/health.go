package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/hospital-assistant/pkg/models"
)

const healthPingTimeout = 2 * time.Second

// Pinger checks database reachability.
type Pinger interface {
	Ping(ctx context.Context) (time.Time, error)
}

// AIStatus reports whether any model provider is configured.
type AIStatus interface {
	Available() bool
}

// HealthHandler handles GET /health.
type HealthHandler struct {
	db     Pinger
	ai     AIStatus
	now    func() time.Time
	logger *zap.Logger
}

// NewHealthHandler creates a HealthHandler. db may be nil when no pool
// could be created; the database is then reported as disconnected.
func NewHealthHandler(db Pinger, ai AIStatus, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{db: db, ai: ai, now: time.Now, logger: logger}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
}

// Health always answers 200; database and AI state are reported in the body.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatus{
		Status:      "ok",
		Database:    h.databaseState(r.Context()),
		AIAvailable: h.ai != nil && h.ai.Available(),
		Timestamp:   h.now().UTC(),
	}

	if err := WriteJSON(w, http.StatusOK, status); err != nil {
		h.logger.Error("Failed to encode health response", zap.Error(err))
	}
}

func (h *HealthHandler) databaseState(ctx context.Context) string {
	if h.db == nil {
		return models.DatabaseDisconnected
	}
	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()

	if _, err := h.db.Ping(ctx); err != nil {
		h.logger.Debug("Health check database ping failed", zap.Error(err))
		return models.DatabaseDisconnected
	}
	return models.DatabaseConnected
}
