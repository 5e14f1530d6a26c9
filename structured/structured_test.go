package structured

import (
	"context"
	"errors"
	"testing"

	"github.com/driftline/agentcore/core"
	"github.com/driftline/agentcore/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaFromExampleObject(t *testing.T) {
	schema, err := SchemaFromExample([]byte(`{"a": 1, "b": "x", "c": 2.5, "d": true}`))
	require.NoError(t, err)

	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []string{"a", "b", "c", "d"}, schema["required"])

	props := schema["properties"].(map[string]any)
	assert.Equal(t, "integer", props["a"].(map[string]any)["type"])
	assert.Equal(t, "string", props["b"].(map[string]any)["type"])
	assert.Equal(t, "number", props["c"].(map[string]any)["type"])
	assert.Equal(t, "boolean", props["d"].(map[string]any)["type"])
}

func TestSchemaFromExampleNested(t *testing.T) {
	schema, err := SchemaFromExample([]byte(`{"items": [{"name": "a"}], "empty": []}`))
	require.NoError(t, err)

	props := schema["properties"].(map[string]any)

	items := props["items"].(map[string]any)
	assert.Equal(t, "array", items["type"])
	itemSchema := items["items"].(map[string]any)
	assert.Equal(t, "object", itemSchema["type"])
	assert.Equal(t, []string{"name"}, itemSchema["required"])

	empty := props["empty"].(map[string]any)
	assert.Equal(t, "array", empty["type"])
	assert.Empty(t, empty["items"].(map[string]any))
}

func TestSchemaFromExampleMalformed(t *testing.T) {
	_, err := SchemaFromExample([]byte(`{"a": `))
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "outputExample", verr.Field)
}

func TestRecoverJSON(t *testing.T) {
	tests := []struct {
		name string
		text string
		want any
		ok   bool
	}{
		{"direct object", `{"x": 1}`, map[string]any{"x": float64(1)}, true},
		{"direct array", `[1, 2]`, []any{float64(1), float64(2)}, true},
		{"json fence", "```json\n{\"x\":1}\n```", map[string]any{"x": float64(1)}, true},
		{"bare fence", "```\n{\"x\":1}\n```", map[string]any{"x": float64(1)}, true},
		{"preamble", "Here is the result:\n{\"x\": 1}", map[string]any{"x": float64(1)}, true},
		{"embedded span", "answer {\"x\": 1} done", map[string]any{"x": float64(1)}, true},
		{"no json", "I cannot answer that.", nil, false},
		{"empty", "   ", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RecoverJSON(tt.text)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestResolveRoundTrip(t *testing.T) {
	m := model.NewMockModel("mock", "mock").
		AddTextTurn(`{"a": 1, "b": "x"}`)

	r, err := NewResolver(m, func(o *Options) {
		o.Example = []byte(`{"a": 1, "b": "x"}`)
	})
	require.NoError(t, err)

	res, err := r.Resolve(context.Background(), model.Request{
		Messages: []model.Message{{Role: core.RoleUser, Content: "go"}},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"a": float64(1), "b": "x"}, res.Object)
	assert.JSONEq(t, `{"a": 1, "b": "x"}`, res.Text)

	// The schema must ride along as the response constraint.
	require.Len(t, m.Requests, 1)
	assert.Equal(t, r.Schema(), m.Requests[0].ResponseSchema)
	assert.False(t, m.Requests[0].Stream)
}

func TestResolveNoAutoFixFailsImmediately(t *testing.T) {
	m := model.NewMockModel("mock", "mock").
		AddErrorTurn(errors.New("upstream rejected response_format"))

	r, err := NewResolver(m, func(o *Options) {
		o.Example = []byte(`{"a": 1}`)
		o.AutoFix = false
	})
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), model.Request{
		Messages: []model.Message{{Role: core.RoleUser, Content: "go"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream rejected response_format")
	assert.Len(t, m.Requests, 1, "no fallback call expected")
}

func TestResolveAutoFixRecoversFencedJSON(t *testing.T) {
	m := model.NewMockModel("mock", "mock").
		AddErrorTurn(errors.New("schema call failed")).
		AddTextTurn("```json\n{\"x\":1}\n```")

	r, err := NewResolver(m, func(o *Options) {
		o.Example = []byte(`{"x": 1}`)
		o.AutoFix = true
	})
	require.NoError(t, err)

	res, err := r.Resolve(context.Background(), model.Request{
		Messages: []model.Message{{Role: core.RoleUser, Content: "go"}},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": float64(1)}, res.Object)

	// The fallback request drops the native constraint and instructs via prompt.
	require.Len(t, m.Requests, 2)
	assert.Nil(t, m.Requests[1].ResponseSchema)
	last := m.Requests[1].Messages[len(m.Requests[1].Messages)-1]
	assert.Contains(t, last.Content, "JSON Schema")
}

func TestResolveAutoFixUnrecoverable(t *testing.T) {
	m := model.NewMockModel("mock", "mock").
		AddTextTurn("not json at all").
		AddTextTurn("still not json")

	r, err := NewResolver(m, func(o *Options) {
		o.Example = []byte(`{"x": 1}`)
		o.AutoFix = true
	})
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), model.Request{
		Messages: []model.Message{{Role: core.RoleUser, Content: "go"}},
	})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "structuredOutput", verr.Field)
	assert.Contains(t, verr.Details, "still not json")
}

func TestResolveSchemaMismatchReportsErrors(t *testing.T) {
	m := model.NewMockModel("mock", "mock").
		AddTextTurn(`{"a": "not a number"}`)

	r, err := NewResolver(m, func(o *Options) {
		o.Example = []byte(`{"a": 1}`)
	})
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), model.Request{
		Messages: []model.Message{{Role: core.RoleUser, Content: "go"}},
	})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "does not match schema")
}

func TestNewResolverLiteralSchemaPrecedence(t *testing.T) {
	r, err := NewResolver(model.NewMockModel("mock", "mock"), func(o *Options) {
		o.Schema = []byte(`{"type": "object", "properties": {"n": {"type": "integer"}}}`)
		o.Example = []byte(`{"other": true}`)
	})
	require.NoError(t, err)
	props := r.Schema()["properties"].(map[string]any)
	_, hasN := props["n"]
	assert.True(t, hasN)
}

func TestNewResolverRequiresShape(t *testing.T) {
	_, err := NewResolver(model.NewMockModel("mock", "mock"))
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
}
