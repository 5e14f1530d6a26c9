package trace

import (
	"time"

	"github.com/driftline/agentcore/core"
	"github.com/driftline/agentcore/logging"
)

const pendingBuffer = 256

// RecorderOptions configures a Recorder instance.
type RecorderOptions struct {
	WorkflowRunID string
	NodeRef       string
	Sink          Sink
	Logger        logging.Logger
}

// Recorder emits the ordered event stream of a single agent run. One recorder
// instance exists per run; the sequence counter lives on that instance and is
// pre-incremented before each emission, so the first event carries sequence 1.
//
// Delivery is fire-and-forget: events are enqueued synchronously in emission
// order onto a buffered channel and forwarded to the sink by a single
// goroutine, so sink latency never blocks the loop and ordering is preserved.
type Recorder struct {
	agentRunID    string
	workflowRunID string
	nodeRef       string
	sink          Sink
	logger        logging.Logger

	sequence     uint64
	activeTextID string

	pending chan Event
	done    chan struct{}
}

// NewRecorder creates a recorder for one agent run.
func NewRecorder(agentRunID string, optFns ...func(o *RecorderOptions)) *Recorder {
	opts := RecorderOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	r := &Recorder{
		agentRunID:    agentRunID,
		workflowRunID: opts.WorkflowRunID,
		nodeRef:       opts.NodeRef,
		sink:          opts.Sink,
		logger:        opts.Logger,
	}
	if r.sink != nil {
		r.pending = make(chan Event, pendingBuffer)
		r.done = make(chan struct{})
		go r.forward()
	}
	return r
}

// AgentRunID returns the run identifier correlating all events of this recorder.
func (r *Recorder) AgentRunID() string { return r.agentRunID }

func (r *Recorder) forward() {
	defer close(r.done)
	for ev := range r.pending {
		if err := r.sink.Publish(ev); err != nil {
			r.logger.Warn("trace.sink.publish_failed",
				"agent_run_id", ev.AgentRunID,
				"sequence", ev.Sequence,
				"error", err.Error(),
			)
		}
	}
}

// emit assigns the next sequence number and dispatches the envelope. With a
// sink configured the envelope is enqueued without awaiting delivery; without
// one it is logged as a generic progress message, which is the only
// observability channel in that configuration and must never be dropped.
func (r *Recorder) emit(part Part) {
	r.sequence++
	ev := Event{
		AgentRunID:    r.agentRunID,
		WorkflowRunID: r.workflowRunID,
		NodeRef:       r.nodeRef,
		Sequence:      r.sequence,
		Timestamp:     time.Now().UTC(),
		Part:          part,
	}
	if r.sink == nil {
		r.logger.Info("[AgentTraceFallback] "+part.Type(),
			"agent_run_id", ev.AgentRunID,
			"workflow_run_id", ev.WorkflowRunID,
			"node_ref", ev.NodeRef,
			"sequence", ev.Sequence,
			"part", ev.Part,
		)
		return
	}
	select {
	case r.pending <- ev:
	default:
		// Buffer full: drop rather than stall the run, but say so.
		r.logger.Warn("trace.sink.buffer_full",
			"agent_run_id", ev.AgentRunID,
			"sequence", ev.Sequence,
			"part_type", part.Type(),
		)
	}
}

// MessageStart emits the opening event of a run.
func (r *Recorder) MessageStart() {
	r.emit(MessageStartPart{MessageID: r.agentRunID})
}

// ReasoningStep emits one completed loop iteration.
func (r *Recorder) ReasoningStep(step core.ReasoningStep) {
	r.emit(ReasoningStepPart{Step: step})
}

// ToolInput emits the arguments of a tool call immediately before dispatch.
func (r *Recorder) ToolInput(toolCallID, toolName string, input map[string]any) {
	r.emit(ToolInputPart{ToolCallID: toolCallID, ToolName: toolName, Input: input})
}

// ToolOutput emits the result of a successful tool call.
func (r *Recorder) ToolOutput(toolCallID, toolName string, output any) {
	r.emit(ToolOutputPart{ToolCallID: toolCallID, ToolName: toolName, Output: output})
}

// ToolError emits a failed tool call. Callers re-throw the error afterwards.
func (r *Recorder) ToolError(toolCallID, toolName string, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	r.emit(ToolErrorPart{ToolCallID: toolCallID, ToolName: toolName, Error: msg})
}

// TextDelta streams one chunk of response text. The first non-empty delta
// opens the text span; blank deltas are dropped silently and never open or
// extend a span.
func (r *Recorder) TextDelta(delta string) {
	if delta == "" {
		return
	}
	if r.activeTextID == "" {
		r.activeTextID = r.agentRunID + ":text"
		r.emit(TextStartPart{ID: r.activeTextID})
	}
	r.emit(TextDeltaPart{ID: r.activeTextID, Delta: delta})
}

// Finish closes any open text span and emits the terminal finish event.
func (r *Recorder) Finish(finishReason string) {
	if r.activeTextID != "" {
		r.emit(TextEndPart{ID: r.activeTextID})
		r.activeTextID = ""
	}
	r.emit(FinishPart{FinishReason: finishReason})
}

// Close stops the forwarding goroutine after draining enqueued events. It is
// safe to call once per recorder; recorders without a sink are a no-op.
func (r *Recorder) Close() {
	if r.pending == nil {
		return
	}
	close(r.pending)
	<-r.done
	r.pending = nil
}
