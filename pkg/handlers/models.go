package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/hospital-assistant/pkg/llm"
	"github.com/ekaya-inc/hospital-assistant/pkg/models"
)

// AIUnavailableMessage accompanies an empty model list.
const AIUnavailableMessage = "AI not available. Add GROQ_API_KEY to .env to enable AI features."

// ModelCatalog lists selectable models.
type ModelCatalog interface {
	Available() bool
	Models() []llm.ModelInfo
}

// ModelsResponse is the body of GET /models.
type ModelsResponse struct {
	Models  []models.ModelListing `json:"models"`
	Message string                `json:"message,omitempty"`
}

// ModelsHandler handles GET /models.
type ModelsHandler struct {
	catalog ModelCatalog
	logger  *zap.Logger
}

// NewModelsHandler creates a ModelsHandler.
func NewModelsHandler(catalog ModelCatalog, logger *zap.Logger) *ModelsHandler {
	return &ModelsHandler{catalog: catalog, logger: logger}
}

// RegisterRoutes registers the models handler's routes on the given mux.
func (h *ModelsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /models", h.List)
}

// List returns the catalog, or an empty list with a hint when no provider
// is configured.
func (h *ModelsHandler) List(w http.ResponseWriter, r *http.Request) {
	resp := ModelsResponse{Models: []models.ModelListing{}}

	if h.catalog == nil || !h.catalog.Available() {
		resp.Message = AIUnavailableMessage
	} else {
		for _, m := range h.catalog.Models() {
			resp.Models = append(resp.Models, models.ModelListing{
				ID:          m.ID,
				Name:        m.Name,
				Description: m.Description,
				Provider:    string(m.Provider),
			})
		}
	}

	if err := WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("Failed to encode models response", zap.Error(err))
	}
}
