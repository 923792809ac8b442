package mcp

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"
)

const maxHTTPMessage = 4 << 20

// HTTPHandler serves MCP over streamable HTTP. Calls to unknown tools are
// answered here with the same isError result the stdio transport returns.
func (s *Server) HTTPHandler() http.Handler {
	streamable := s.NewStreamableHTTPServer()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Body == nil {
			streamable.ServeHTTP(w, r)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxHTTPMessage))
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		resp, ok := s.unknownToolCall(r.Context(), body)
		if !ok {
			streamable.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			s.logger.Error("Failed to encode MCP response", zap.Error(err))
		}
	})
}
