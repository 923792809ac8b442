package tools

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/hospital-assistant/pkg/database"
	"github.com/ekaya-inc/hospital-assistant/pkg/logging"
	"github.com/ekaya-inc/hospital-assistant/pkg/query"
)

// Store is the read-only database surface the tools need.
// *database.QueryExecutor satisfies it.
type Store interface {
	Query(ctx context.Context, stmt *query.Statement) ([]database.Row, error)
	Ping(ctx context.Context) (time.Time, error)
	Schema(ctx context.Context) (database.Schema, error)
}

// Registry is the fixed set of hospital tools. It is immutable after
// construction and safe for concurrent use.
type Registry struct {
	tools  []Tool
	byName map[string]int
	logger *zap.Logger
}

// NewRegistry builds the registry of hospital tools over store.
func NewRegistry(store Store, logger *zap.Logger) *Registry {
	logger = logger.Named("tools")
	h := &hospitalTools{store: store, logger: logger}

	r := &Registry{
		tools:  h.tools(),
		byName: map[string]int{},
		logger: logger,
	}
	for i, t := range r.tools {
		r.byName[t.Name] = i
	}
	return r
}

// Tools returns the tools in registration order.
func (r *Registry) Tools() []Tool {
	out := make([]Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

// Lookup finds a tool by name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Tool{}, false
	}
	return r.tools[i], true
}

// Call invokes the named tool. It never panics on bad input and never
// returns a bare error: unknown names and every pipeline failure come back
// as failure results. Unknown names never reach the store.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) Result {
	tool, ok := r.Lookup(name)
	if !ok {
		r.logger.Debug("Unknown tool requested", zap.String("tool", name))
		return Failure("executing tool "+name, &UnknownToolError{Name: name})
	}

	start := time.Now()
	result := tool.handler(ctx, args)

	fields := []zap.Field{
		zap.String("tool", name),
		zap.Any("arguments", logging.SanitizeArguments(args)),
		zap.Duration("elapsed", time.Since(start)),
	}
	switch {
	case !result.IsError():
		r.logger.Debug("Tool call succeeded", fields...)
	case IsInputError(result.Err()):
		r.logger.Debug("Tool call rejected input", append(fields, zap.String("error", result.Err().Error()))...)
	default:
		r.logger.Error("Tool call failed", append(fields, zap.String("error", logging.SanitizeError(result.Err())))...)
	}
	return result
}
