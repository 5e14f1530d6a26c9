// Package agentcore is a reasoning-loop runtime that drives a language-model
// agent through bounded Think→Act→Observe cycles. Each run can call
// externally-defined tools over the MCP HTTP protocol, maintains cross-turn
// conversation memory, streams ordered trace events for observability and
// replay, and can force its final answer into a caller-supplied JSON shape
// instead of running the tool loop.
//
// A minimal run:
//
//	agent := agentcore.New(func(o *agentcore.Options) {
//		o.Model.Provider = "openai"
//		o.SystemPrompt = "You are a helpful assistant."
//	})
//	out, err := agent.Run(ctx, agentcore.Input{Text: "hello"})
//
// The returned Output carries the response text, the updated conversation
// state (which the caller feeds back on the next turn), the tool invocations,
// the per-step reasoning trace and the run id correlating all trace events.
package agentcore

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/driftline/agentcore/conversation"
	"github.com/driftline/agentcore/core"
	"github.com/driftline/agentcore/engine"
	"github.com/driftline/agentcore/logging"
	"github.com/driftline/agentcore/mcp"
	"github.com/driftline/agentcore/model"
	"github.com/driftline/agentcore/structured"
	"github.com/driftline/agentcore/trace"
)

// OutputSpec requests structured output. When set, the tool loop is never
// invoked for that turn; the two terminal paths are mutually exclusive.
type OutputSpec struct {
	// Schema is a literal JSON Schema document. Takes precedence over Example.
	Schema json.RawMessage

	// Example is a JSON example; every observed key becomes a required
	// property with inferred typing.
	Example json.RawMessage

	// AutoFix enables best-effort JSON recovery when the schema-constrained
	// call fails. When false, the primary failure propagates immediately.
	AutoFix bool
}

// Options configure an Agent.
type Options struct {
	// Model selects the provider, model id, credentials and sampling options.
	Model engine.ModelConfig

	// ModelOverride bypasses provider resolution with a ready model. Intended
	// for tests and custom backends.
	ModelOverride model.Model

	// SystemPrompt is kept as the single leading system message of every turn.
	SystemPrompt string

	// Tools are the MCP tool definitions registered for each run.
	Tools []mcp.ToolDefinition

	// StepLimit caps loop iterations per run. Zero means the engine default.
	StepLimit int

	// MemorySize caps retained non-system messages. Zero means the default.
	MemorySize int

	// Output, when set, routes the run through the structured-output path.
	Output *OutputSpec

	// Stream requests partial text deltas from the model, surfaced as
	// text-delta trace events as they arrive.
	Stream bool

	// Sink receives trace events. Without one, events degrade to progress logs.
	Sink trace.Sink

	// WorkflowRunID and NodeRef scope trace events to an outer orchestration.
	WorkflowRunID string
	NodeRef       string

	// HTTPClient is shared by all tool invocations of a run.
	HTTPClient *http.Client

	Logger logging.Logger
}

// Input is one turn of user input plus optional prior conversation state.
type Input struct {
	// Text is the user message. Blank input is a validation error.
	Text string

	// State is the conversation returned by a previous run. Nil starts a
	// fresh session. The input state is not mutated; Run returns a new one.
	State *core.ConversationState
}

// Output is the complete result contract of a successful run.
type Output struct {
	ResponseText     string                  `json:"responseText"`
	StructuredOutput any                     `json:"structuredOutput,omitempty"`
	State            *core.ConversationState `json:"conversationState"`
	ToolInvocations  []core.ToolInvocation   `json:"toolInvocations"`
	ReasoningTrace   []core.ReasoningStep    `json:"reasoningTrace"`
	Usage            model.TokenUsage        `json:"usage"`
	RawResponse      *model.Response         `json:"rawResponse,omitempty"`
	AgentRunID       string                  `json:"agentRunId"`
}

// Agent runs turns against one configuration. It holds no per-run state and
// is safe for concurrent Run calls.
type Agent struct {
	opts   Options
	logger logging.Logger
}

// New creates an Agent.
func New(optFns ...func(o *Options)) *Agent {
	opts := Options{
		StepLimit:  engine.DefaultStepLimit,
		MemorySize: engine.DefaultMemorySize,
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.StepLimit <= 0 {
		opts.StepLimit = engine.DefaultStepLimit
	}
	if opts.MemorySize <= 0 {
		opts.MemorySize = engine.DefaultMemorySize
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Agent{opts: opts, logger: opts.Logger}
}

// Run executes one turn: it normalizes conversation history, resolves the
// model, then either resolves structured output or runs the bounded tool
// loop. On failure the error propagates and no Output is returned; trace
// events already emitted stay valid.
func (a *Agent) Run(ctx context.Context, input Input) (*Output, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, core.NewValidationError("input", "user input must not be blank")
	}

	state := input.State.Clone()
	if state == nil {
		state = core.NewConversationState()
	}
	sessionID := state.EnsureSessionID()
	agentRunID := core.NewID()

	runLog := logging.NewRunLogger(a.logger).WithRun(sessionID, agentRunID)

	m := a.opts.ModelOverride
	if m == nil {
		resolved, err := engine.ResolveModel(a.opts.Model)
		if err != nil {
			return nil, err
		}
		m = resolved
	}

	recorder := trace.NewRecorder(agentRunID, func(o *trace.RecorderOptions) {
		o.WorkflowRunID = a.opts.WorkflowRunID
		o.NodeRef = a.opts.NodeRef
		o.Sink = a.opts.Sink
		o.Logger = runLog.WithComponent("trace")
	})
	defer recorder.Close()
	recorder.MessageStart()

	messages := conversation.BeginTurn(state.Messages, a.opts.SystemPrompt, input.Text, a.opts.MemorySize)

	if a.opts.Output != nil {
		return a.runStructured(ctx, m, recorder, runLog, state, messages, agentRunID)
	}
	return a.runLoop(ctx, m, recorder, runLog, state, messages, sessionID, agentRunID)
}

// runLoop executes the tool loop terminal path.
func (a *Agent) runLoop(
	ctx context.Context,
	m model.Model,
	recorder *trace.Recorder,
	runLog *logging.RunLogger,
	state *core.ConversationState,
	messages []core.Message,
	sessionID, agentRunID string,
) (*Output, error) {
	registry := mcp.NewRegistry(sessionID, a.opts.Tools, func(o *mcp.RegistryOptions) {
		if a.opts.HTTPClient != nil {
			o.HTTPClient = a.opts.HTTPClient
		}
		o.Recorder = recorder
		o.Logger = runLog.WithComponent("mcp")
	})

	eng := engine.New(m, registry, recorder, func(o *engine.Options) {
		o.StepLimit = a.opts.StepLimit
		o.Temperature = a.opts.Model.Temperature
		o.MaxOutputTokens = a.opts.Model.MaxOutputTokens
		o.Stream = a.opts.Stream
		o.Logger = runLog.WithComponent("engine")
	})

	outcome, err := eng.Run(ctx, "", messages)
	if err != nil {
		return nil, err
	}

	if !a.opts.Stream {
		recorder.TextDelta(outcome.Text)
	}
	recorder.Finish(outcome.FinishReason)

	state.Messages = conversation.CompleteTurn(messages, outcome.ToolMessages, outcome.Text, a.opts.MemorySize)
	for _, inv := range outcome.Invocations {
		state.AppendInvocation(inv)
	}

	return &Output{
		ResponseText:    outcome.Text,
		State:           state,
		ToolInvocations: outcome.Invocations,
		ReasoningTrace:  outcome.Steps,
		Usage:           outcome.Usage,
		RawResponse:     outcome.Raw,
		AgentRunID:      agentRunID,
	}, nil
}

// runStructured executes the structured-output terminal path.
func (a *Agent) runStructured(
	ctx context.Context,
	m model.Model,
	recorder *trace.Recorder,
	runLog *logging.RunLogger,
	state *core.ConversationState,
	messages []core.Message,
	agentRunID string,
) (*Output, error) {
	resolver, err := structured.NewResolver(m, func(o *structured.Options) {
		o.Schema = a.opts.Output.Schema
		o.Example = a.opts.Output.Example
		o.AutoFix = a.opts.Output.AutoFix
		o.Logger = runLog.WithComponent("structured")
	})
	if err != nil {
		return nil, err
	}

	req := model.Request{
		Messages:        toModelMessages(messages),
		Temperature:     a.opts.Model.Temperature,
		MaxOutputTokens: a.opts.Model.MaxOutputTokens,
	}
	res, err := resolver.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	recorder.TextDelta(res.Text)
	recorder.Finish(res.FinishReason)

	state.Messages = conversation.CompleteTurn(messages, nil, res.Text, a.opts.MemorySize)

	var usage model.TokenUsage
	if res.Usage != nil {
		usage = *res.Usage
	}
	return &Output{
		ResponseText:     res.Text,
		StructuredOutput: res.Object,
		State:            state,
		ToolInvocations:  []core.ToolInvocation{},
		ReasoningTrace:   []core.ReasoningStep{},
		Usage:            usage,
		RawResponse:      res.Raw,
		AgentRunID:       agentRunID,
	}, nil
}

// toModelMessages flattens conversation history for the provider.
func toModelMessages(history []core.Message) []model.Message {
	out := make([]model.Message, 0, len(history))
	for _, msg := range history {
		out = append(out, model.Message{Role: msg.Role, Content: msg.Content})
	}
	return out
}
