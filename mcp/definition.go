package mcp

// ArgumentSpec declares one argument accepted by an external tool. Type is one
// of "string", "number", "boolean" or "json"; anything else is treated as an
// unconstrained value.
type ArgumentSpec struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Enum        []any  `json:"enum,omitempty"`
	Description string `json:"description,omitempty"`
}

// DefinitionMetadata carries optional hints attached to a tool definition.
type DefinitionMetadata struct {
	ToolName string `json:"toolName,omitempty"` // preferred registration name
	Source   string `json:"source,omitempty"`
}

// ToolDefinition is the externally-declared description of a remote tool. It
// is pure data; the registry converts it into a callable Tool. Definitions
// with a duplicate ID are skipped (first wins) and definitions without a
// usable endpoint are skipped entirely.
type ToolDefinition struct {
	ID          string              `json:"id"`
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Endpoint    string              `json:"endpoint"`
	Headers     map[string]string   `json:"headers,omitempty"`
	Arguments   []ArgumentSpec      `json:"arguments,omitempty"`
	Metadata    *DefinitionMetadata `json:"metadata,omitempty"`
}

// buildArgumentSchema constructs the minimal JSON-schema map for a tool's
// declared arguments. A missing argument list yields a permissive object
// schema so the model can pass anything through.
func buildArgumentSchema(args []ArgumentSpec) map[string]any {
	if len(args) == 0 {
		return map[string]any{
			"type":                 "object",
			"properties":           map[string]any{},
			"additionalProperties": true,
		}
	}

	properties := make(map[string]any, len(args))
	var required []string
	for _, arg := range args {
		prop := map[string]any{}
		switch arg.Type {
		case "string":
			prop["type"] = "string"
			if enum, ok := allStringEnum(arg.Enum); ok {
				prop["enum"] = enum
			}
		case "number":
			prop["type"] = "number"
		case "boolean":
			prop["type"] = "boolean"
		case "json":
			// Arbitrary JSON value: no type constraint.
		}
		if arg.Description != "" {
			prop["description"] = arg.Description
		}
		properties[arg.Name] = prop
		if arg.Required {
			required = append(required, arg.Name)
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

// allStringEnum reports whether every enum value is a string, returning the
// normalized list. Mixed-type enums are ignored rather than half-enforced.
func allStringEnum(enum []any) ([]any, bool) {
	if len(enum) == 0 {
		return nil, false
	}
	out := make([]any, 0, len(enum))
	for _, v := range enum {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
