package llm

// ToolDefinition defines a tool that can be called by the LLM.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// parametersOrEmpty returns a valid JSON-schema object even for tools
// without inputs; some providers reject a null schema.
func (d ToolDefinition) parametersOrEmpty() map[string]any {
	if d.Parameters != nil {
		return d.Parameters
	}
	return map[string]any{"type": "object", "properties": map[string]any{}}
}
