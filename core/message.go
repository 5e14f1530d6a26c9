package core

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Role identifies the author of a conversation message. The set is closed;
// roles are fixed at message creation and never mutated in place.
type Role string

// Conversation roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolEnvelope is the structured content of a tool-role message. It records a
// completed tool exchange: the call that was issued and the result that came
// back.
type ToolEnvelope struct {
	ToolCallID string         `json:"toolCallId"`
	ToolName   string         `json:"toolName"`
	Args       map[string]any `json:"args,omitempty"`
	Result     any            `json:"result,omitempty"`
}

// Message is a single conversation entry. Content is plain text for
// system/user/assistant roles; tool-role messages carry a ToolEnvelope and
// their Content holds its JSON serialization so flat-text consumers still see
// something meaningful.
type Message struct {
	Role    Role          `json:"role"`
	Content string        `json:"content"`
	Tool    *ToolEnvelope `json:"tool,omitempty"`
}

// NewSystemMessage creates a system-role message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user-role message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant-role message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// NewToolMessage creates a tool-role message wrapping a completed tool
// exchange. The envelope is also serialized into Content.
func NewToolMessage(env ToolEnvelope) Message {
	return Message{Role: RoleTool, Content: Stringify(env), Tool: &env}
}

// Stringify renders any value as a string. Strings pass through unchanged;
// everything else is JSON serialized, falling back to fmt formatting for
// values JSON cannot encode. It never fails.
func Stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%v", v)
}

// NewID generates a new unique identifier for runs, sessions and tool calls.
func NewID() string { return uuid.NewString() }
