package agentcore

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/driftline/agentcore/core"
	"github.com/driftline/agentcore/mcp"
	"github.com/driftline/agentcore/model"
	"github.com/driftline/agentcore/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSink struct {
	mu     sync.Mutex
	events []trace.Event
}

func (s *memSink) Publish(ev trace.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *memSink) partTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]string, len(s.events))
	for i, ev := range s.events {
		types[i] = ev.Part.Type()
	}
	return types
}

func TestRunBlankInput(t *testing.T) {
	agent := New(func(o *Options) {
		o.ModelOverride = model.NewMockModel("mock", "mock")
	})
	_, err := agent.Run(context.Background(), Input{Text: "   "})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "input", verr.Field)
}

func TestRunPlainTextTurn(t *testing.T) {
	sink := &memSink{}
	agent := New(func(o *Options) {
		o.ModelOverride = model.NewMockModel("mock", "mock").AddTextTurn("hello there")
		o.SystemPrompt = "be nice"
		o.Sink = sink
	})

	out, err := agent.Run(context.Background(), Input{Text: "hi"})
	require.NoError(t, err)

	assert.Equal(t, "hello there", out.ResponseText)
	assert.Nil(t, out.StructuredOutput)
	assert.NotEmpty(t, out.AgentRunID)
	assert.Empty(t, out.ToolInvocations)
	require.Len(t, out.ReasoningTrace, 1)

	// State carries the system prompt, the user turn and the reply.
	require.NotNil(t, out.State)
	assert.NotEmpty(t, out.State.SessionID)
	require.Len(t, out.State.Messages, 3)
	assert.Equal(t, core.RoleSystem, out.State.Messages[0].Role)
	assert.Equal(t, "hi", out.State.Messages[1].Content)
	assert.Equal(t, "hello there", out.State.Messages[2].Content)

	assert.Equal(t, []string{
		"message-start",
		"data-reasoning-step",
		"data-text-start",
		"text-delta",
		"data-text-end",
		"finish",
	}, sink.partTypes())
}

func TestRunPreservesSessionAcrossTurns(t *testing.T) {
	m := model.NewMockModel("mock", "mock").
		AddTextTurn("first").
		AddTextTurn("second")
	agent := New(func(o *Options) {
		o.ModelOverride = m
	})

	out1, err := agent.Run(context.Background(), Input{Text: "one"})
	require.NoError(t, err)
	out2, err := agent.Run(context.Background(), Input{Text: "two", State: out1.State})
	require.NoError(t, err)

	assert.Equal(t, out1.State.SessionID, out2.State.SessionID)
	require.Len(t, out2.State.Messages, 4)
	assert.Equal(t, "second", out2.ResponseText)

	// The caller's state object is not mutated in place.
	assert.Len(t, out1.State.Messages, 2)
}

func TestRunMemoryCap(t *testing.T) {
	m := model.NewMockModel("mock", "mock").
		AddTextTurn("a1").
		AddTextTurn("a2").
		AddTextTurn("a3")
	agent := New(func(o *Options) {
		o.ModelOverride = m
		o.SystemPrompt = "sys"
		o.MemorySize = 2
	})

	var state *core.ConversationState
	for _, text := range []string{"u1", "u2", "u3"} {
		out, err := agent.Run(context.Background(), Input{Text: text, State: state})
		require.NoError(t, err)
		state = out.State
	}

	require.Len(t, state.Messages, 3)
	assert.Equal(t, core.RoleSystem, state.Messages[0].Role)
	assert.Equal(t, core.RoleUser, state.Messages[1].Role)
	assert.Equal(t, core.RoleAssistant, state.Messages[2].Role)
}

func TestRunStructuredOutput(t *testing.T) {
	sink := &memSink{}
	m := model.NewMockModel("mock", "mock").AddTextTurn(`{"a": 1, "b": "x"}`)
	agent := New(func(o *Options) {
		o.ModelOverride = m
		o.Sink = sink
		o.Tools = []mcp.ToolDefinition{{ID: "never-called", Endpoint: "http://localhost:1"}}
		o.Output = &OutputSpec{Example: json.RawMessage(`{"a": 1, "b": "x"}`)}
	})

	out, err := agent.Run(context.Background(), Input{Text: "give me the data"})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"a": float64(1), "b": "x"}, out.StructuredOutput)
	assert.JSONEq(t, `{"a": 1, "b": "x"}`, out.ResponseText)
	assert.Empty(t, out.ReasoningTrace)
	assert.Empty(t, out.ToolInvocations)

	// The structured path never enters the tool loop: one model call, no tools.
	require.Len(t, m.Requests, 1)
	assert.Empty(t, m.Requests[0].Tools)
	assert.NotNil(t, m.Requests[0].ResponseSchema)

	assert.Equal(t, []string{
		"message-start",
		"data-text-start",
		"text-delta",
		"data-text-end",
		"finish",
	}, sink.partTypes())
}

func TestRunStructuredNoAutoFixPropagates(t *testing.T) {
	m := model.NewMockModel("mock", "mock").AddErrorTurn(errors.New("schema rejected"))
	agent := New(func(o *Options) {
		o.ModelOverride = m
		o.Output = &OutputSpec{Example: json.RawMessage(`{"a": 1}`), AutoFix: false}
	})

	_, err := agent.Run(context.Background(), Input{Text: "go"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema rejected")
	assert.Len(t, m.Requests, 1)
}

func TestRunModelErrorReturnsNoOutput(t *testing.T) {
	agent := New(func(o *Options) {
		o.ModelOverride = model.NewMockModel("mock", "mock").AddErrorTurn(errors.New("boom"))
	})
	out, err := agent.Run(context.Background(), Input{Text: "hi"})
	require.Error(t, err)
	assert.Nil(t, out)
}
