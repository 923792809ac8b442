package llm

import (
	"context"
	"net/http"
)

type contextKey string

const (
	runIDContextKey contextKey = "llm_run_id"
)

// requestIDHeader carries the agent run id to the provider for correlation.
const requestIDHeader = "X-Request-Id"

// WithRunID returns a context tagged with an agent run id. Provider requests
// made with this context carry the id in the X-Request-Id header.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDContextKey, runID)
}

// RunID returns the agent run id from ctx, or "" if none is set.
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDContextKey).(string)
	return id
}

// contextAwareTransport injects the run id header into outgoing requests.
type contextAwareTransport struct {
	base http.RoundTripper
}

func (t *contextAwareTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if id := RunID(req.Context()); id != "" {
		req = req.Clone(req.Context())
		req.Header.Set(requestIDHeader, id)
	}
	return t.base.RoundTrip(req)
}

// newHTTPClient returns the HTTP client shared by provider SDKs.
func newHTTPClient() *http.Client {
	return &http.Client{Transport: &contextAwareTransport{base: http.DefaultTransport}}
}
