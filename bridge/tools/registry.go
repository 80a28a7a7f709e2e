// Package tools holds the static registry of browser tools the bridge
// advertises. The schemas are opaque configuration data: the bridge never
// interprets tool arguments or results, it only forwards them.
package tools

import "encoding/json"

// Tool is one advertised tool: name, description and JSON input schema.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// Registry is the fixed set of tools exposed via tools/list.
type Registry struct {
	tools []Tool
	index map[string]int
}

// NewRegistry creates the builtin browser tool registry.
func NewRegistry() *Registry {
	return newRegistry(builtinTools)
}

func newRegistry(tools []Tool) *Registry {
	index := make(map[string]int, len(tools))
	for i, tool := range tools {
		index[tool.Name] = i
	}
	return &Registry{tools: tools, index: index}
}

// List returns all advertised tools in declaration order.
func (r *Registry) List() []Tool {
	return r.tools
}

// Has reports whether a tool with the given name is advertised.
func (r *Registry) Has(name string) bool {
	_, ok := r.index[name]
	return ok
}

// Get returns the tool with the given name.
func (r *Registry) Get(name string) (Tool, bool) {
	i, ok := r.index[name]
	if !ok {
		return Tool{}, false
	}
	return r.tools[i], true
}

// builtinTools is the static schema table. Treated as configuration; the
// far side is the authority on actual tool behavior.
var builtinTools = []Tool{
	{
		Name:        "screenshot",
		Description: "Capture a screenshot of the current page",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {},
			"required": []
		}`),
	},
	{
		Name:        "click",
		Description: "Click at a coordinate or on a referenced element",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"coordinate": {
					"type": "array",
					"items": {"type": "number"},
					"minItems": 2,
					"maxItems": 2,
					"description": "Viewport coordinate [x, y]"
				},
				"ref": {
					"type": "string",
					"description": "Element reference from a previous read_page call"
				}
			}
		}`),
	},
	{
		Name:        "type",
		Description: "Type text into the focused element",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"text": {"type": "string"}
			},
			"required": ["text"]
		}`),
	},
	{
		Name:        "read_page",
		Description: "Read the accessibility tree of the current page",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"ref": {
					"type": "string",
					"description": "Restrict the read to the subtree of a referenced element"
				}
			}
		}`),
	},
	{
		Name:        "navigate",
		Description: "Navigate the current tab to a URL",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"url": {"type": "string"}
			},
			"required": ["url"]
		}`),
	},
	{
		Name:        "get_page_url",
		Description: "Return the URL of the current page",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {},
			"required": []
		}`),
	},
	{
		Name:        "list_tabs",
		Description: "List the open browser tabs",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {},
			"required": []
		}`),
	},
}
