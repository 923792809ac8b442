package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/hospital-assistant/pkg/mcp"
	"github.com/ekaya-inc/hospital-assistant/pkg/services"
)

// NewRouter assembles every HTTP route the server exposes. The UI is mounted
// method-less at "/" so it stays less specific than "/mcp".
func NewRouter(db Pinger, assistant ModelCatalog, queries services.QueryService, mcpServer *mcp.Server, ui http.Handler, logger *zap.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	NewHealthHandler(db, assistant, logger).RegisterRoutes(mux)
	NewModelsHandler(assistant, logger).RegisterRoutes(mux)
	NewQueryHandler(queries, logger).RegisterRoutes(mux)
	NewMCPHandler(mcpServer, logger).RegisterRoutes(mux)
	mux.Handle("/", ui)
	return mux
}
