package core

import (
	"strings"
	"time"
)

// ToolInvocation records one completed (or errored) remote tool call. Result
// is nil only when the call failed without a propagated error, which is not
// expected on the happy path.
type ToolInvocation struct {
	ID        string            `json:"id"`
	ToolName  string            `json:"toolName"`
	Args      map[string]any    `json:"args,omitempty"`
	Result    any               `json:"result,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ConversationState is the cross-turn memory of an agent. The session id is
// generated once and never discarded; messages and tool invocations only ever
// grow by appending. The caller owns durable persistence.
//
// Invariant: at most one leading message has the system role.
type ConversationState struct {
	SessionID       string           `json:"sessionId"`
	Messages        []Message        `json:"messages"`
	ToolInvocations []ToolInvocation `json:"toolInvocations,omitempty"`
}

// NewConversationState creates an empty state with a fresh session id.
func NewConversationState() *ConversationState {
	return &ConversationState{SessionID: NewID()}
}

// EnsureSessionID assigns a fresh session id when none is set and returns it.
func (s *ConversationState) EnsureSessionID() string {
	if strings.TrimSpace(s.SessionID) == "" {
		s.SessionID = NewID()
	}
	return s.SessionID
}

// AppendInvocation records a completed tool call.
func (s *ConversationState) AppendInvocation(inv ToolInvocation) {
	s.ToolInvocations = append(s.ToolInvocations, inv)
}

// Clone returns a deep copy of the state safe for independent mutation.
func (s *ConversationState) Clone() *ConversationState {
	if s == nil {
		return nil
	}
	clone := &ConversationState{
		SessionID:       s.SessionID,
		Messages:        make([]Message, len(s.Messages)),
		ToolInvocations: make([]ToolInvocation, len(s.ToolInvocations)),
	}
	for i, m := range s.Messages {
		cm := m
		if m.Tool != nil {
			env := *m.Tool
			if m.Tool.Args != nil {
				env.Args = make(map[string]any, len(m.Tool.Args))
				for k, v := range m.Tool.Args {
					env.Args[k] = v
				}
			}
			cm.Tool = &env
		}
		clone.Messages[i] = cm
	}
	for i, inv := range s.ToolInvocations {
		ci := inv
		if inv.Args != nil {
			ci.Args = make(map[string]any, len(inv.Args))
			for k, v := range inv.Args {
				ci.Args[k] = v
			}
		}
		if inv.Metadata != nil {
			ci.Metadata = make(map[string]string, len(inv.Metadata))
			for k, v := range inv.Metadata {
				ci.Metadata[k] = v
			}
		}
		clone.ToolInvocations[i] = ci
	}
	return clone
}
