package agentcore

// EventKind identifies the variant of an AgentEvent.
type EventKind string

const (
	EventToolCall   EventKind = "tool_call"
	EventToolResult EventKind = "tool_result"
	EventChunk      EventKind = "chunk"
	EventDone       EventKind = "done"
	EventError      EventKind = "error"
)

// AgentEvent is one entry in a streamed run's event sequence. Events are
// produced in strict chronological order and consumed once; there is no
// replay. Tool is set on tool_call and tool_result events. Payload carries
// the raw arguments for tool_call, a truncated observation summary for
// tool_result, a text delta for chunk, and an error description for error.
type AgentEvent struct {
	Kind    EventKind `json:"kind"`
	Tool    string    `json:"tool,omitempty"`
	Payload string    `json:"payload,omitempty"`
}
