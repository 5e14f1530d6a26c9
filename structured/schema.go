// Package structured forces the final answer of a run into a caller-supplied
// JSON shape instead of running the tool loop. The shape comes from either a
// JSON example (converted into a schema where every observed key is required)
// or a literal JSON Schema document; results are validated and, when enabled,
// recovered from malformed model output by a best-effort auto-fix path.
package structured

import (
	"encoding/json"
	"sort"

	"github.com/driftline/agentcore/core"
)

// SchemaFromExample converts a JSON example into a JSON Schema where every
// observed key becomes a required property with inferred typing. Arrays infer
// their item type from the first element only; empty arrays get an untyped
// item schema. Malformed JSON is a validation failure, not a silent skip.
func SchemaFromExample(example []byte) (map[string]any, error) {
	var value any
	if err := json.Unmarshal(example, &value); err != nil {
		return nil, &core.ValidationError{
			Field:   "outputExample",
			Message: "example is not valid JSON",
			Details: err.Error(),
		}
	}
	schema := inferSchema(value)
	schema["$schema"] = "http://json-schema.org/draft-07/schema#"
	return schema, nil
}

// ParseSchema validates and decodes a literal JSON Schema document.
func ParseSchema(schema []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(schema, &doc); err != nil {
		return nil, &core.ValidationError{
			Field:   "outputSchema",
			Message: "schema is not a valid JSON object",
			Details: err.Error(),
		}
	}
	return doc, nil
}

// inferSchema maps a decoded JSON value to a schema fragment.
func inferSchema(value any) map[string]any {
	switch v := value.(type) {
	case map[string]any:
		properties := make(map[string]any, len(v))
		required := make([]string, 0, len(v))
		for key := range v {
			required = append(required, key)
		}
		sort.Strings(required)
		for _, key := range required {
			properties[key] = inferSchema(v[key])
		}
		return map[string]any{
			"type":       "object",
			"properties": properties,
			"required":   required,
		}
	case []any:
		// Item type comes from the first element only; an empty array keeps
		// an untyped item schema. Callers needing stricter arrays supply a
		// literal schema instead.
		items := map[string]any{}
		if len(v) > 0 {
			items = inferSchema(v[0])
		}
		return map[string]any{"type": "array", "items": items}
	case string:
		return map[string]any{"type": "string"}
	case bool:
		return map[string]any{"type": "boolean"}
	case float64:
		if v == float64(int64(v)) {
			return map[string]any{"type": "integer"}
		}
		return map[string]any{"type": "number"}
	case nil:
		return map[string]any{"type": "null"}
	default:
		return map[string]any{}
	}
}
