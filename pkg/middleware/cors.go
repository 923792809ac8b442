package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows any origin to call the API. Preflight requests are answered
// with 204 No Content and never reach next.
func CORS(next http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Accept", "Authorization", RequestIDHeader, "Mcp-Session-Id"},
		ExposedHeaders: []string{RequestIDHeader, "Mcp-Session-Id"},
		MaxAge:         3600,
	}).Handler(next)
}
