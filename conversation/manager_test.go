package conversation

import (
	"testing"

	"github.com/driftline/agentcore/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func history(roles ...core.Role) []core.Message {
	out := make([]core.Message, 0, len(roles))
	for i, r := range roles {
		out = append(out, core.Message{Role: r, Content: string(r) + "-" + string(rune('0'+i))})
	}
	return out
}

func TestEnsureSystemMessage_BlankPromptUnchanged(t *testing.T) {
	h := history(core.RoleUser, core.RoleAssistant)
	assert.Equal(t, h, EnsureSystemMessage(h, ""))
	assert.Equal(t, h, EnsureSystemMessage(h, "   "))
}

func TestEnsureSystemMessage_PrependsOnEmptyHistory(t *testing.T) {
	out := EnsureSystemMessage(nil, "  be helpful  ")
	require.Len(t, out, 1)
	assert.Equal(t, core.RoleSystem, out[0].Role)
	assert.Equal(t, "be helpful", out[0].Content)
}

func TestEnsureSystemMessage_ReplacesStaleSystem(t *testing.T) {
	h := []core.Message{core.NewSystemMessage("old"), core.NewUserMessage("hi")}
	out := EnsureSystemMessage(h, "new")
	require.Len(t, out, 2)
	assert.Equal(t, "new", out[0].Content)
	assert.Equal(t, "hi", out[1].Content)
	// Original history is not mutated.
	assert.Equal(t, "old", h[0].Content)
}

func TestEnsureSystemMessage_PrependsWhenFirstNotSystem(t *testing.T) {
	h := []core.Message{core.NewUserMessage("hi")}
	out := EnsureSystemMessage(h, "sys")
	require.Len(t, out, 2)
	assert.Equal(t, core.RoleSystem, out[0].Role)
	assert.Equal(t, core.RoleUser, out[1].Role)
}

func TestEnsureSystemMessage_Idempotent(t *testing.T) {
	h := history(core.RoleUser, core.RoleAssistant, core.RoleUser)
	once := EnsureSystemMessage(h, "sys")
	twice := EnsureSystemMessage(once, "sys")
	assert.Equal(t, once, twice)
}

func TestTrim_NoOpWithinCap(t *testing.T) {
	h := history(core.RoleSystem, core.RoleUser)
	assert.Equal(t, h, Trim(h, 2))
	assert.Equal(t, h, Trim(h, 10))
}

func TestTrim_KeepsSystemPlusRecent(t *testing.T) {
	// memorySize=2, history=[sys, u1, a1, u2, a2] -> [sys, u2, a2]
	h := []core.Message{
		core.NewSystemMessage("sys"),
		core.NewUserMessage("u1"),
		core.NewAssistantMessage("a1"),
		core.NewUserMessage("u2"),
		core.NewAssistantMessage("a2"),
	}
	out := Trim(h, 2)
	require.Len(t, out, 3)
	assert.Equal(t, "sys", out[0].Content)
	assert.Equal(t, "u2", out[1].Content)
	assert.Equal(t, "a2", out[2].Content)
}

func TestTrim_NoSystemMessage(t *testing.T) {
	h := []core.Message{
		core.NewUserMessage("u1"),
		core.NewAssistantMessage("a1"),
		core.NewUserMessage("u2"),
	}
	out := Trim(h, 2)
	require.Len(t, out, 2)
	assert.Equal(t, "a1", out[0].Content)
	assert.Equal(t, "u2", out[1].Content)
}

func TestTrim_AtMostOneSystemMessage(t *testing.T) {
	for _, memorySize := range []int{1, 2, 3, 5} {
		h := history(
			core.RoleSystem, core.RoleUser, core.RoleAssistant,
			core.RoleUser, core.RoleAssistant, core.RoleUser,
		)
		out := Trim(h, memorySize)
		systems := 0
		for _, m := range out {
			if m.Role == core.RoleSystem {
				systems++
			}
		}
		assert.LessOrEqual(t, systems, 1, "memorySize=%d", memorySize)
		assert.LessOrEqual(t, len(out), memorySize+1, "memorySize=%d", memorySize)
	}
}

func TestTrim_PreservesRelativeOrder(t *testing.T) {
	h := []core.Message{
		core.NewUserMessage("u1"),
		core.NewToolMessage(core.ToolEnvelope{ToolCallID: "c1", ToolName: "t"}),
		core.NewAssistantMessage("a1"),
	}
	out := Trim(h, 2)
	require.Len(t, out, 2)
	assert.Equal(t, core.RoleTool, out[0].Role)
	assert.Equal(t, core.RoleAssistant, out[1].Role)
}

func TestBeginTurn(t *testing.T) {
	h := []core.Message{
		core.NewUserMessage("u1"),
		core.NewAssistantMessage("a1"),
	}
	out := BeginTurn(h, "sys", "u2", 2)
	require.Len(t, out, 3)
	assert.Equal(t, core.RoleSystem, out[0].Role)
	assert.Equal(t, "a1", out[1].Content)
	assert.Equal(t, "u2", out[2].Content)
}

func TestCompleteTurn_TrimsAtBothPoints(t *testing.T) {
	h := []core.Message{
		core.NewSystemMessage("sys"),
		core.NewUserMessage("u1"),
	}
	tools := []core.Message{
		core.NewToolMessage(core.ToolEnvelope{ToolCallID: "c1", ToolName: "lookup"}),
		core.NewToolMessage(core.ToolEnvelope{ToolCallID: "c2", ToolName: "lookup"}),
	}
	out := CompleteTurn(h, tools, "done", 2)
	require.Len(t, out, 3)
	assert.Equal(t, core.RoleSystem, out[0].Role)
	assert.Equal(t, core.RoleTool, out[1].Role)
	assert.Equal(t, "c2", out[1].Tool.ToolCallID)
	assert.Equal(t, "done", out[2].Content)
}

func TestCompleteTurn_NoToolMessages(t *testing.T) {
	h := []core.Message{core.NewUserMessage("u1")}
	out := CompleteTurn(h, nil, "answer", 4)
	require.Len(t, out, 2)
	assert.Equal(t, "answer", out[1].Content)
}
