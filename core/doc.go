// Package core provides the foundational domain types used by agentcore. It
// defines the shapes shared by every component of the reasoning-loop runtime:
//
//   - Messages (role-based conversation entries, including tool envelopes)
//   - ConversationState (session id + ordered messages + tool invocations)
//   - ReasoningStep (per-iteration Think→Act→Observe summary)
//   - Typed terminal errors (configuration, validation)
//
// The package intentionally keeps implementation concerns (model providers,
// transport, trace delivery) out of scope so higher layers remain decoupled
// from vendor SDKs and wire formats.
package core
