// Package mcp exposes the hospital tools over the Model Context Protocol.
package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/hospital-assistant/pkg/tools"
)

// ServerName is advertised to MCP clients during initialize.
const ServerName = "hospital-database-server"

// Registry is the tool registry surface the MCP server needs.
type Registry interface {
	Tools() []tools.Tool
	Lookup(name string) (tools.Tool, bool)
	Call(ctx context.Context, name string, args map[string]any) tools.Result
}

// Server wraps the mcp-go MCPServer and binds it to the tool registry.
type Server struct {
	mcp      *server.MCPServer
	registry Registry
	logger   *zap.Logger
}

// NewServer creates an MCP server advertising every registry tool.
func NewServer(version string, registry Registry, logger *zap.Logger) *Server {
	mcpServer := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	s := &Server{
		mcp:      mcpServer,
		registry: registry,
		logger:   logger.Named("mcp"),
	}
	for _, t := range registry.Tools() {
		s.mcp.AddTool(toMCPTool(t), s.handlerFor(t.Name))
	}
	return s
}

// NewStreamableHTTPServer creates an HTTP transport server wrapping this MCP server.
// The HTTP mux handles routing to /mcp, so no endpoint path is configured here.
func (s *Server) NewStreamableHTTPServer() *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(
		s.mcp,
		server.WithStateLess(true),
	)
}

// HandleMessage processes one JSON-RPC message. A tools/call naming a tool
// that does not exist gets a normal result with isError set instead of a
// protocol error, and never reaches the store.
func (s *Server) HandleMessage(ctx context.Context, raw json.RawMessage) mcp.JSONRPCMessage {
	if resp, ok := s.unknownToolCall(ctx, raw); ok {
		return resp
	}
	return s.mcp.HandleMessage(ctx, raw)
}

type callEnvelope struct {
	ID     *mcp.RequestId `json:"id"`
	Method string         `json:"method"`
	Params struct {
		Name string `json:"name"`
	} `json:"params"`
}

func (s *Server) unknownToolCall(ctx context.Context, raw json.RawMessage) (mcp.JSONRPCMessage, bool) {
	var env callEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, false
	}
	if env.Method != string(mcp.MethodToolsCall) || env.ID == nil {
		return nil, false
	}
	if _, known := s.registry.Lookup(env.Params.Name); known {
		return nil, false
	}

	s.logger.Debug("Unknown tool called", zap.String("tool", env.Params.Name))
	return mcp.JSONRPCResponse{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      *env.ID,
		Result:  toCallToolResult(s.registry.Call(ctx, env.Params.Name, nil)),
	}, true
}

func (s *Server) handlerFor(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return toCallToolResult(s.registry.Call(ctx, name, req.GetArguments())), nil
	}
}

// toMCPTool describes a registry tool with mcp-go's schema options.
func toMCPTool(t tools.Tool) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(t.Description)}
	for _, p := range t.Params {
		propOpts := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			propOpts = append(propOpts, mcp.Required())
		}
		switch p.Type {
		case "number":
			opts = append(opts, mcp.WithNumber(p.Name, propOpts...))
		default:
			opts = append(opts, mcp.WithString(p.Name, propOpts...))
		}
	}
	return mcp.NewTool(t.Name, opts...)
}

// toCallToolResult renders every outcome the same way: one text block,
// with isError set for failures.
func toCallToolResult(r tools.Result) *mcp.CallToolResult {
	result := mcp.NewToolResultText(r.Text())
	result.IsError = r.IsError()
	return result
}
