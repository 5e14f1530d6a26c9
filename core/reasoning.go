package core

// ToolAction describes a tool call the model requested during a loop step.
type ToolAction struct {
	ToolCallID string         `json:"toolCallId"`
	ToolName   string         `json:"toolName"`
	Args       map[string]any `json:"args,omitempty"`
}

// ToolObservation pairs a tool call with the result observed after execution.
type ToolObservation struct {
	ToolCallID string         `json:"toolCallId"`
	ToolName   string         `json:"toolName"`
	Args       map[string]any `json:"args,omitempty"`
	Result     any            `json:"result,omitempty"`
}

// ReasoningStep summarizes one Think→Act→Observe iteration of the tool loop.
// Steps are 1-based and immutable once emitted.
type ReasoningStep struct {
	Step         int               `json:"step"`
	Thought      string            `json:"thought"`
	FinishReason string            `json:"finishReason"`
	Actions      []ToolAction      `json:"actions"`
	Observations []ToolObservation `json:"observations"`
}
