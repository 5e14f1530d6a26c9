package model

import (
	"context"
	"fmt"

	"github.com/driftline/agentcore/core"
)

// ToolCall represents a function call request surfaced by a model provider.
// Unified across vendors so downstream logic does not need per-provider
// branching. Arguments is the raw JSON string exactly as produced by the model.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolDefinition declaratively exposes a callable function to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Message is one flat conversation entry handed to a provider. Within a loop
// step, assistant messages may carry the tool calls they requested and
// tool-role messages carry the ToolCallID pairing a result to its call;
// cross-turn history arrives as plain role/content strings.
type Message struct {
	Role       core.Role  `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// Request captures the normalized model input produced by the engine.
type Request struct {
	System          string           `json:"system,omitempty"`
	Messages        []Message        `json:"messages"`
	Tools           []ToolDefinition `json:"tools,omitempty"`
	Temperature     float64          `json:"temperature"`
	MaxOutputTokens int64            `json:"max_output_tokens"`
	Stream          bool             `json:"stream,omitempty"`

	// ResponseSchema, when set, constrains the completion to the given JSON
	// Schema. Providers map it to their native structured-output mechanism.
	ResponseSchema map[string]any `json:"response_schema,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model. Partial responses
// carry one text delta in Text; the final response carries the full text, any
// tool calls, the finish reason and usage when the provider reports it.
type Response struct {
	Partial      bool        `json:"partial"`
	Text         string      `json:"text"`
	ToolCalls    []ToolCall  `json:"tool_calls,omitempty"`
	FinishReason string      `json:"finish_reason,omitempty"`
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "openrouter", "gemini", "anthropic", ...
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by the engine and the
// structured-output resolver to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// mockTurn scripts one Generate invocation of a MockModel.
type mockTurn struct {
	deltas []string
	final  Response
	err    error
}

// MockModel is a lightweight in-memory Model useful for tests & examples. It
// replays scripted turns in order and records every request it receives.
type MockModel struct {
	info     Info
	turns    []mockTurn
	next     int
	Requests []Request
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{Name: name, Provider: provider, SupportsTools: true},
	}
}

// AddTextTurn scripts a plain-text final response, optionally streamed as deltas.
func (m *MockModel) AddTextTurn(text string, deltas ...string) *MockModel {
	m.turns = append(m.turns, mockTurn{
		deltas: deltas,
		final:  Response{Text: text, FinishReason: "stop"},
	})
	return m
}

// AddToolCallTurn scripts a final response requesting the given tool calls.
func (m *MockModel) AddToolCallTurn(calls ...ToolCall) *MockModel {
	m.turns = append(m.turns, mockTurn{
		final: Response{ToolCalls: calls, FinishReason: "tool_calls"},
	})
	return m
}

// AddResponseTurn scripts an arbitrary final response.
func (m *MockModel) AddResponseTurn(final Response) *MockModel {
	m.turns = append(m.turns, mockTurn{final: final})
	return m
}

// AddErrorTurn scripts a failing Generate call.
func (m *MockModel) AddErrorTurn(err error) *MockModel {
	m.turns = append(m.turns, mockTurn{err: err})
	return m
}

// Generate implements Model; replays the next scripted turn.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	m.Requests = append(m.Requests, req)

	var turn mockTurn
	if m.next < len(m.turns) {
		turn = m.turns[m.next]
		m.next++
	} else {
		turn = mockTurn{final: Response{Text: "mock response", FinishReason: "stop"}}
	}

	go func() {
		defer close(respCh)
		defer close(errCh)
		if turn.err != nil {
			errCh <- turn.err
			return
		}
		if req.Stream {
			for _, d := range turn.deltas {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, Text: d}:
				}
			}
		}
		final := turn.final
		final.Partial = false
		if final.FinishReason == "" {
			final.FinishReason = "stop"
		}
		respCh <- final
	}()

	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }

// Drain collects the final response from a Generate call, forwarding partial
// text deltas to onDelta (which may be nil). It returns the final response or
// the first error. Shared by the engine and the structured-output resolver.
func Drain(respCh <-chan Response, errCh <-chan error, onDelta func(delta string)) (*Response, error) {
	var final *Response
	for respCh != nil || errCh != nil {
		select {
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if resp.Partial {
				if onDelta != nil {
					onDelta(resp.Text)
				}
				continue
			}
			r := resp
			final = &r
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return nil, err
			}
		}
	}
	if final == nil {
		return nil, fmt.Errorf("model returned no final response")
	}
	return final, nil
}
