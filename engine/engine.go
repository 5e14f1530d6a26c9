// Package engine drives the bounded Think→Act→Observe tool loop: it asks the
// model to continue given the conversation and registered tools, executes
// requested tool calls sequentially over their remote endpoints, records every
// step on the trace recorder, and stops when the model finishes without
// further tool calls or the step limit is reached. Errors from the model or a
// tool abort the run; steps already streamed stay valid and observable.
package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/driftline/agentcore/core"
	"github.com/driftline/agentcore/logging"
	"github.com/driftline/agentcore/mcp"
	"github.com/driftline/agentcore/model"
	"github.com/driftline/agentcore/trace"
)

// Defaults for loop bounds.
const (
	DefaultStepLimit  = 8
	DefaultMemorySize = 20
)

// Options configure an Engine.
type Options struct {
	// StepLimit caps loop iterations, shared across tool-call and pure
	// reasoning steps. Zero or negative falls back to DefaultStepLimit.
	StepLimit int

	// Temperature and MaxOutputTokens are forwarded per request when set.
	Temperature     float64
	MaxOutputTokens int64

	// Stream requests partial text deltas from the model; they are forwarded
	// to the recorder as they arrive.
	Stream bool

	Logger logging.Logger
}

// Engine runs the tool loop for one agent invocation. All collaborators are
// per-run; an Engine is not shared across runs.
type Engine struct {
	model    model.Model
	registry *mcp.Registry
	recorder *trace.Recorder
	opts     Options
	logger   logging.Logger
}

// Outcome is the result of a completed loop.
type Outcome struct {
	// Text is the final assistant response.
	Text string

	// FinishReason is the model's reason on the terminal step.
	FinishReason string

	// Steps holds one ReasoningStep per loop iteration, in completion order.
	Steps []core.ReasoningStep

	// ToolMessages are the tool-role messages produced during the loop, in
	// execution order, ready to append to conversation history.
	ToolMessages []core.Message

	// Invocations records every completed tool call.
	Invocations []core.ToolInvocation

	// Usage aggregates token usage across all steps.
	Usage model.TokenUsage

	// Raw is the terminal model response.
	Raw *model.Response
}

// New creates an Engine over a resolved model, a tool registry and a recorder.
func New(m model.Model, registry *mcp.Registry, recorder *trace.Recorder, optFns ...func(o *Options)) *Engine {
	opts := Options{
		StepLimit: DefaultStepLimit,
		Logger:    logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.StepLimit <= 0 {
		opts.StepLimit = DefaultStepLimit
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Engine{
		model:    m,
		registry: registry,
		recorder: recorder,
		opts:     opts,
		logger:   opts.Logger,
	}
}

// Run executes the loop against the given system prompt and history. The
// history is not mutated; tool and assistant messages produced by the loop are
// returned on the Outcome for the caller to fold into conversation state.
func (e *Engine) Run(ctx context.Context, system string, history []core.Message) (*Outcome, error) {
	convo := toModelMessages(history)
	tools := e.toolDefinitions()

	outcome := &Outcome{}
	for stepNum := 1; stepNum <= e.opts.StepLimit; stepNum++ {
		req := model.Request{
			System:          system,
			Messages:        convo,
			Tools:           tools,
			Temperature:     e.opts.Temperature,
			MaxOutputTokens: e.opts.MaxOutputTokens,
			Stream:          e.opts.Stream,
		}

		respCh, errCh := e.model.Generate(ctx, req)
		final, err := model.Drain(respCh, errCh, e.recorder.TextDelta)
		if err != nil {
			e.logger.Error("model call failed", "step", stepNum, "error", err)
			return nil, err
		}

		outcome.Raw = final
		outcome.FinishReason = final.FinishReason
		accumulateUsage(&outcome.Usage, final.Usage)

		step := core.ReasoningStep{
			Step:         stepNum,
			Thought:      final.Text,
			FinishReason: final.FinishReason,
			Actions:      []core.ToolAction{},
			Observations: []core.ToolObservation{},
		}

		if len(final.ToolCalls) == 0 {
			outcome.Text = final.Text
			outcome.Steps = append(outcome.Steps, step)
			e.recorder.ReasoningStep(step)
			e.logger.Debug("loop finished", "step", stepNum, "finish_reason", final.FinishReason)
			return outcome, nil
		}

		assistantMsg := model.Message{Role: core.RoleAssistant, Content: final.Text, ToolCalls: final.ToolCalls}
		convo = append(convo, assistantMsg)

		for _, call := range final.ToolCalls {
			action, obs, toolMsg, err := e.executeCall(ctx, call)
			step.Actions = append(step.Actions, action)
			if err != nil {
				// The tool already recorded its error event; the partial step
				// is still streamed so the failure stays observable.
				e.recorder.ReasoningStep(step)
				outcome.Steps = append(outcome.Steps, step)
				return nil, err
			}
			step.Observations = append(step.Observations, obs)
			outcome.ToolMessages = append(outcome.ToolMessages, toolMsg)
			outcome.Invocations = append(outcome.Invocations, core.ToolInvocation{
				ID:        action.ToolCallID,
				ToolName:  action.ToolName,
				Args:      action.Args,
				Result:    obs.Result,
				Timestamp: time.Now().UTC(),
			})
			convo = append(convo, model.Message{
				Role:       core.RoleTool,
				Content:    core.Stringify(obs.Result),
				ToolCallID: action.ToolCallID,
			})
		}

		outcome.Steps = append(outcome.Steps, step)
		e.recorder.ReasoningStep(step)
	}

	e.logger.Warn("step limit reached before the model finished", "step_limit", e.opts.StepLimit)
	if outcome.Raw != nil {
		outcome.Text = outcome.Raw.Text
	}
	return outcome, nil
}

// executeCall resolves and runs one requested tool call.
func (e *Engine) executeCall(ctx context.Context, call model.ToolCall) (core.ToolAction, core.ToolObservation, core.Message, error) {
	callID := call.ID
	if callID == "" {
		callID = core.NewID()
	}

	args, err := parseArguments(call.Arguments)
	action := core.ToolAction{ToolCallID: callID, ToolName: call.Name, Args: args}
	if err != nil {
		e.recorder.ToolError(callID, call.Name, err)
		return action, core.ToolObservation{}, core.Message{}, err
	}

	var tool *mcp.Tool
	ok := false
	if e.registry != nil {
		tool, ok = e.registry.Get(call.Name)
	}
	if !ok {
		err := core.NewValidationError("toolName", "model requested unregistered tool %q", call.Name)
		e.recorder.ToolError(callID, call.Name, err)
		return action, core.ToolObservation{}, core.Message{}, err
	}

	result, err := tool.Execute(ctx, callID, args)
	if err != nil {
		return action, core.ToolObservation{}, core.Message{}, err
	}

	obs := core.ToolObservation{ToolCallID: callID, ToolName: call.Name, Args: args, Result: result}
	toolMsg := core.NewToolMessage(core.ToolEnvelope{
		ToolCallID: callID,
		ToolName:   call.Name,
		Args:       args,
		Result:     result,
	})
	return action, obs, toolMsg, nil
}

// toolDefinitions exposes the registered tools to the model.
func (e *Engine) toolDefinitions() []model.ToolDefinition {
	if e.registry == nil || e.registry.Len() == 0 {
		return nil
	}
	tools := e.registry.Tools()
	defs := make([]model.ToolDefinition, len(tools))
	for i, t := range tools {
		defs[i] = model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		}
	}
	return defs
}

// toModelMessages flattens conversation history for the provider. Historical
// tool-role messages carry no live call id; they travel as serialized content
// and the provider adapters decide how to surface them.
func toModelMessages(history []core.Message) []model.Message {
	out := make([]model.Message, 0, len(history))
	for _, msg := range history {
		out = append(out, model.Message{Role: msg.Role, Content: msg.Content})
	}
	return out
}

// parseArguments decodes the raw JSON argument string of a tool call. A blank
// string means no arguments.
func parseArguments(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, core.NewValidationError("arguments", "tool call arguments are not valid JSON: %v", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// accumulateUsage folds per-step usage into the run total.
func accumulateUsage(total *model.TokenUsage, step *model.TokenUsage) {
	if step == nil {
		return
	}
	total.PromptTokens += step.PromptTokens
	total.CompletionTokens += step.CompletionTokens
	total.TotalTokens += step.TotalTokens
}
