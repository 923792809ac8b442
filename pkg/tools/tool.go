// Package tools exposes the hospital lookups as named, schema-described
// operations shared by the agent and the MCP server.
package tools

import (
	"context"

	"github.com/ekaya-inc/hospital-assistant/pkg/query"
)

// Param describes one input field of a tool.
type Param struct {
	Name        string
	Type        string // JSON-schema type: "number" or "string"
	Description string
	Required    bool
}

// Handler executes a tool with already-decoded JSON arguments.
type Handler func(ctx context.Context, args map[string]any) Result

// Tool is a named operation with a declared input schema.
type Tool struct {
	Name        string
	Description string
	Params      []Param
	handler     Handler
}

// InputSchema returns the tool's input as a JSON-schema object.
func (t Tool) InputSchema() map[string]any {
	properties := make(map[string]any, len(t.Params))
	required := []string{}
	for _, p := range t.Params {
		properties[p.Name] = map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// paramsFor derives tool params from an entity's filter declarations.
func paramsFor(e query.Entity) []Param {
	params := make([]Param, 0, len(e.Filters))
	for _, f := range e.Filters {
		params = append(params, Param{
			Name:        f.Name,
			Type:        f.Kind.String(),
			Description: f.Description,
			Required:    e.IsRequired(f.Name),
		})
	}
	return params
}
