// Package conversation produces the exact message list sent to the model and
// the exact updated state returned to the caller. It owns the system-message
// guarantee and the memory cap; none of its operations can fail.
package conversation

import (
	"strings"

	"github.com/driftline/agentcore/core"
)

// EnsureSystemMessage guarantees the first element of history is a system
// message with the trimmed prompt content. A blank prompt returns history
// unchanged. A stale leading system message is replaced; otherwise the system
// message is prepended. The operation is idempotent: applying it to its own
// output is a fixed point.
func EnsureSystemMessage(history []core.Message, systemPrompt string) []core.Message {
	prompt := strings.TrimSpace(systemPrompt)
	if prompt == "" {
		return history
	}
	sys := core.NewSystemMessage(prompt)
	if len(history) == 0 {
		return []core.Message{sys}
	}
	if history[0].Role == core.RoleSystem {
		out := make([]core.Message, len(history))
		copy(out, history)
		out[0] = sys
		return out
	}
	out := make([]core.Message, 0, len(history)+1)
	out = append(out, sys)
	return append(out, history...)
}

// Trim enforces the memory cap: at most one leading system message plus the
// last memorySize non-system messages, in original relative order. This is a
// hard cap, not a sliding window over all roles; system context always has
// priority over recency. When history already fits (or memorySize is not
// positive) the input is returned unchanged.
func Trim(history []core.Message, memorySize int) []core.Message {
	if memorySize <= 0 || len(history) <= memorySize {
		return history
	}
	var system *core.Message
	if history[0].Role == core.RoleSystem {
		system = &history[0]
	}
	nonSystem := make([]core.Message, 0, len(history))
	for _, m := range history {
		if m.Role != core.RoleSystem {
			nonSystem = append(nonSystem, m)
		}
	}
	if len(nonSystem) > memorySize {
		nonSystem = nonSystem[len(nonSystem)-memorySize:]
	}
	if system == nil {
		return nonSystem
	}
	out := make([]core.Message, 0, len(nonSystem)+1)
	out = append(out, *system)
	return append(out, nonSystem...)
}

// BeginTurn prepares the message list for one model turn: ensure the system
// message, trim, append the user message, trim again. The returned slice is
// the exact list handed to the model.
func BeginTurn(history []core.Message, systemPrompt, userInput string, memorySize int) []core.Message {
	out := EnsureSystemMessage(history, systemPrompt)
	out = Trim(out, memorySize)
	out = append(out, core.NewUserMessage(userInput))
	return Trim(out, memorySize)
}

// CompleteTurn appends generation output to the history: tool-role messages
// produced by the loop, trim, the assistant message, trim. Trimming is applied
// at both points so either intermediate state independently respects the cap.
func CompleteTurn(history []core.Message, toolMessages []core.Message, assistantText string, memorySize int) []core.Message {
	out := append(history, toolMessages...)
	out = Trim(out, memorySize)
	out = append(out, core.NewAssistantMessage(assistantText))
	return Trim(out, memorySize)
}
