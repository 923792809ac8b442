package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/hospital-assistant/pkg/mcp"
	"github.com/ekaya-inc/hospital-assistant/pkg/middleware"
)

// MCPHandler handles MCP protocol requests over HTTP.
type MCPHandler struct {
	handler http.Handler
	logger  *zap.Logger
}

// NewMCPHandler creates a new MCP handler from an MCP server.
func NewMCPHandler(mcpServer *mcp.Server, logger *zap.Logger) *MCPHandler {
	return &MCPHandler{
		handler: mcpServer.HTTPHandler(),
		logger:  logger,
	}
}

// RegisterRoutes registers the MCP endpoint.
// Non-POST requests are rejected before the JSON-RPC logger runs.
func (h *MCPHandler) RegisterRoutes(mux *http.ServeMux) {
	logged := middleware.MCPRequestLogger(h.logger)(h.handler)
	mux.Handle("/mcp", h.requirePOST(logged))
}

// requirePOST returns 405 Method Not Allowed for non-POST requests.
// The server runs stateless, so there is no GET event stream to serve.
func (h *MCPHandler) requirePOST(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "POST")
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}
