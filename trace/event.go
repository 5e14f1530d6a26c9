// Package trace produces a strictly ordered, replayable event log of one agent
// run. A Recorder owns the per-run sequence counter and hands each envelope to
// a Sink without awaiting delivery; when no sink is configured, events degrade
// to structured progress logs so the channel is never silently lost.
package trace

import (
	"time"

	"github.com/driftline/agentcore/core"
)

// Part represents a polymorphic payload of a trace event. Concrete part types
// implement the unexported isPart marker enabling a closed set.
type Part interface {
	isPart()
	// Type returns the wire tag of the part.
	Type() string
}

// MessageStartPart opens a run; always the first event (sequence 1).
type MessageStartPart struct {
	MessageID string `json:"messageId"`
}

func (MessageStartPart) isPart() {}

// Type implements Part.
func (MessageStartPart) Type() string { return "message-start" }

// TextStartPart opens a text-streaming span.
type TextStartPart struct {
	ID string `json:"id"`
}

func (TextStartPart) isPart() {}

// Type implements Part.
func (TextStartPart) Type() string { return "data-text-start" }

// TextDeltaPart carries one non-empty chunk of streamed response text.
type TextDeltaPart struct {
	ID    string `json:"id"`
	Delta string `json:"delta"`
}

func (TextDeltaPart) isPart() {}

// Type implements Part.
func (TextDeltaPart) Type() string { return "text-delta" }

// TextEndPart closes a text-streaming span.
type TextEndPart struct {
	ID string `json:"id"`
}

func (TextEndPart) isPart() {}

// Type implements Part.
func (TextEndPart) Type() string { return "data-text-end" }

// ToolInputPart records the arguments of a tool call immediately before it is
// issued.
type ToolInputPart struct {
	ToolCallID string         `json:"toolCallId"`
	ToolName   string         `json:"toolName"`
	Input      map[string]any `json:"input,omitempty"`
}

func (ToolInputPart) isPart() {}

// Type implements Part.
func (ToolInputPart) Type() string { return "tool-input-available" }

// ToolOutputPart records the result of a successful tool call.
type ToolOutputPart struct {
	ToolCallID string `json:"toolCallId"`
	ToolName   string `json:"toolName"`
	Output     any    `json:"output,omitempty"`
}

func (ToolOutputPart) isPart() {}

// Type implements Part.
func (ToolOutputPart) Type() string { return "tool-output-available" }

// ToolErrorPart records a failed tool call. The underlying error still
// propagates to the caller after this part is recorded.
type ToolErrorPart struct {
	ToolCallID string `json:"toolCallId"`
	ToolName   string `json:"toolName"`
	Error      string `json:"error"`
}

func (ToolErrorPart) isPart() {}

// Type implements Part.
func (ToolErrorPart) Type() string { return "data-tool-error" }

// ReasoningStepPart carries one completed loop iteration.
type ReasoningStepPart struct {
	Step core.ReasoningStep `json:"step"`
}

func (ReasoningStepPart) isPart() {}

// Type implements Part.
func (ReasoningStepPart) Type() string { return "data-reasoning-step" }

// FinishPart is the terminal event of a run.
type FinishPart struct {
	FinishReason string `json:"finishReason,omitempty"`
}

func (FinishPart) isPart() {}

// Type implements Part.
func (FinishPart) Type() string { return "finish" }

// Event is one envelope of the per-run trace stream. Sequence numbers are
// assigned by a single counter owned by the recorder instance; they are never
// reused and never reordered.
type Event struct {
	AgentRunID    string    `json:"agentRunId"`
	WorkflowRunID string    `json:"workflowRunId,omitempty"`
	NodeRef       string    `json:"nodeRef,omitempty"`
	Sequence      uint64    `json:"sequence"`
	Timestamp     time.Time `json:"timestamp"`
	Part          Part      `json:"part"`
}

// Sink accepts trace event envelopes for observability and replay. Publish is
// best-effort: failures are logged by the recorder and never abort a run.
type Sink interface {
	Publish(event Event) error
}
