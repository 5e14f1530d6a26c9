package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func def(id, endpoint string) ToolDefinition {
	return ToolDefinition{ID: id, Endpoint: endpoint}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"lookup", "lookup"},
		{"Lookup Tool", "lookup_tool"},
		{"MY__TOOL", "my_tool"},
		{"__edge__", "edge"},
		{"a.b/c", "a_b_c"},
		{"already-ok_1", "already-ok_1"},
		{"!!!", ""},
		{"  spaced  ", "spaced"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeName(tt.in), "input %q", tt.in)
	}
}

func TestRegistry_MetadataNamePreferred(t *testing.T) {
	defs := []ToolDefinition{
		{
			ID:       "vendor-offboard-1",
			Endpoint: "http://tools.local/a",
			Metadata: &DefinitionMetadata{ToolName: "Offboard User"},
		},
	}
	r := NewRegistry("sess", defs)
	require.Equal(t, 1, r.Len())
	assert.Equal(t, "offboard_user", r.Tools()[0].Name())
}

func TestRegistry_EmptyNameFallsBackToPositional(t *testing.T) {
	defs := []ToolDefinition{
		def("ok", "http://tools.local/a"),
		def("!!!", "http://tools.local/b"),
	}
	r := NewRegistry("sess", defs)
	require.Equal(t, 2, r.Len())
	assert.Equal(t, "mcp_tool_2", r.Tools()[1].Name())
}

func TestRegistry_CollisionSuffixes(t *testing.T) {
	defs := []ToolDefinition{
		def("lookup", "http://tools.local/a"),
		def("Lookup", "http://tools.local/b"),
		def("LOOKUP!", "http://tools.local/c"),
	}
	r := NewRegistry("sess", defs)
	require.Equal(t, 3, r.Len())

	names := make([]string, 0, 3)
	seen := map[string]bool{}
	for _, tool := range r.Tools() {
		names = append(names, tool.Name())
		assert.False(t, seen[tool.Name()], "registered names must be pairwise unique")
		seen[tool.Name()] = true
	}
	assert.Equal(t, []string{"lookup", "lookup_2", "lookup_3"}, names)
}

func TestRegistry_DuplicateIDFirstWins(t *testing.T) {
	defs := []ToolDefinition{
		{ID: "dup", Endpoint: "http://tools.local/a", Description: "first"},
		{ID: "dup", Endpoint: "http://tools.local/b", Description: "second"},
	}
	r := NewRegistry("sess", defs)
	require.Equal(t, 1, r.Len())
	assert.Equal(t, "first", r.Tools()[0].Description())
	assert.Equal(t, "http://tools.local/a", r.Tools()[0].Endpoint())
}

func TestRegistry_MissingEndpointSkipped(t *testing.T) {
	defs := []ToolDefinition{
		def("no-endpoint", ""),
		def("ok", "http://tools.local/a"),
	}
	r := NewRegistry("sess", defs)
	require.Equal(t, 1, r.Len())
	assert.Equal(t, "ok", r.Tools()[0].Name())
}

func TestBuildArgumentSchema_Declared(t *testing.T) {
	schema := buildArgumentSchema([]ArgumentSpec{
		{Name: "query", Type: "string", Required: true, Description: "Search text"},
		{Name: "limit", Type: "number"},
		{Name: "deep", Type: "boolean"},
		{Name: "filters", Type: "json"},
		{Name: "mode", Type: "string", Enum: []any{"fast", "slow"}},
	})

	props := schema["properties"].(map[string]any)
	assert.Equal(t, "string", props["query"].(map[string]any)["type"])
	assert.Equal(t, "Search text", props["query"].(map[string]any)["description"])
	assert.Equal(t, "number", props["limit"].(map[string]any)["type"])
	assert.Equal(t, "boolean", props["deep"].(map[string]any)["type"])
	_, hasType := props["filters"].(map[string]any)["type"]
	assert.False(t, hasType, "json arguments stay unconstrained")
	assert.Equal(t, []any{"fast", "slow"}, props["mode"].(map[string]any)["enum"])

	assert.Equal(t, []string{"query"}, schema["required"])
}

func TestBuildArgumentSchema_MixedEnumIgnored(t *testing.T) {
	schema := buildArgumentSchema([]ArgumentSpec{
		{Name: "mode", Type: "string", Enum: []any{"fast", 2}},
	})
	props := schema["properties"].(map[string]any)
	_, hasEnum := props["mode"].(map[string]any)["enum"]
	assert.False(t, hasEnum)
}

func TestBuildArgumentSchema_PermissiveWithoutArguments(t *testing.T) {
	schema := buildArgumentSchema(nil)
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, true, schema["additionalProperties"])
	_, hasRequired := schema["required"]
	assert.False(t, hasRequired)
}

func TestSanitizeHeaders(t *testing.T) {
	out := sanitizeHeaders(map[string]string{
		"Authorization": "Bearer abc",
		"  ":            "dropped",
		"X-Empty":       "   ",
	})
	assert.Equal(t, map[string]string{"Authorization": "Bearer abc"}, out)
}
