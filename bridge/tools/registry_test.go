package tools

import (
	"encoding/json"
	"testing"
)

// TestRegistryLookup tests name lookup against the builtin table
func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()

	for _, tool := range r.List() {
		if !r.Has(tool.Name) {
			t.Errorf("advertised tool %q not found via Has", tool.Name)
		}
		got, ok := r.Get(tool.Name)
		if !ok || got.Name != tool.Name {
			t.Errorf("Get(%q) returned %+v, %v", tool.Name, got, ok)
		}
	}

	if r.Has("no_such_tool") {
		t.Errorf("unknown tool reported as advertised")
	}
}

// TestRegistrySchemasAreValidJSON tests that every schema parses
func TestRegistrySchemasAreValidJSON(t *testing.T) {
	for _, tool := range NewRegistry().List() {
		t.Run(tool.Name, func(t *testing.T) {
			var schema map[string]any
			if err := json.Unmarshal(tool.InputSchema, &schema); err != nil {
				t.Fatalf("schema does not parse: %v", err)
			}
			if schema["type"] != "object" {
				t.Errorf("schema type is %v, want object", schema["type"])
			}
		})
	}
}
