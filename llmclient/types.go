package llmclient

import "strings"

// Role identifies who produced a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCallType is the only tool call type providers currently emit.
const ToolCallTypeFunction = "function"

// FunctionCall carries the name and raw argument text of a requested tool
// invocation. Arguments is kept as the provider sent it; parsing is the
// dispatcher's concern.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall is one tool invocation requested by the model.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// Message is one turn of conversation in the chat-completions wire shape.
// Content may be empty on assistant turns that only carry tool calls.
// Raw holds provider-specific metadata an adapter attached to an assistant
// turn; it must never be replayed into history (see agentcore sanitizer).
type Message struct {
	Role       Role           `json:"role"`
	Content    string         `json:"content,omitempty"`
	ToolCalls  []ToolCall     `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Raw        map[string]any `json:"provider_specific_fields,omitempty"`
}

// SystemMessage creates a system Message.
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

// UserMessage creates a user Message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// AssistantMessage creates an assistant Message with text content.
func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

// ToolMessage creates a tool observation Message referencing a tool call.
func ToolMessage(toolCallID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: toolCallID}
}

// ToolDefinition is the schema-only description of a tool sent to the
// provider. Parameters is a JSON-Schema-shaped object.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Tool choice modes accepted by Request.ToolChoice.
const (
	ToolChoiceAuto     = "auto"
	ToolChoiceNone     = "none"
	ToolChoiceRequired = "required"
)

// Normalized finish reasons. Adapters map provider-native values onto these;
// anything unrecognized passes through verbatim.
const (
	FinishStop                  = "stop"
	FinishLength                = "length"
	FinishToolCalls             = "tool_calls"
	FinishContentFilter         = "content_filter"
	FinishMalformedFunctionCall = "malformed_function_call"
)

// ResponseFormat constrains the output format of a request.
type ResponseFormat struct {
	Type string `json:"type"` // "text" or "json_object"
}

// Request is the input to Complete and Stream.
type Request struct {
	Model           string           `json:"model"`
	Messages        []Message        `json:"messages"`
	Tools           []ToolDefinition `json:"tools,omitempty"`
	ToolChoice      string           `json:"tool_choice,omitempty"`
	MaxTokens       *int             `json:"max_tokens,omitempty"`
	Temperature     *float64         `json:"temperature,omitempty"`
	ResponseFormat  *ResponseFormat  `json:"response_format,omitempty"`
	Provider        string           `json:"provider,omitempty"`
	APIKey          string           `json:"-"`
	ProviderOptions map[string]any   `json:"provider_options,omitempty"`
}

// Usage tracks token consumption for one provider call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Add returns the element-wise sum of u and other.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
		TotalTokens:  u.TotalTokens + other.TotalTokens,
	}
}

// Choice is one completion alternative in a Response.
type Choice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Response is the normalized output of Complete. Every adapter translates
// its backend's native response into this shape before it reaches callers.
type Response struct {
	ID       string   `json:"id"`
	Model    string   `json:"model"`
	Provider string   `json:"provider"`
	Choices  []Choice `json:"choices"`
	Usage    Usage    `json:"usage"`
}

// Text returns the text content of the first choice, or "".
func (r *Response) Text() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// ToolCalls returns the tool calls of the first choice.
func (r *Response) ToolCalls() []ToolCall {
	if r == nil || len(r.Choices) == 0 {
		return nil
	}
	return r.Choices[0].Message.ToolCalls
}

// FinishReason returns the finish reason of the first choice, or "".
func (r *Response) FinishReason() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].FinishReason
}

// StreamEventType identifies the kind of stream event.
type StreamEventType string

const (
	StreamDelta  StreamEventType = "delta"
	StreamFinish StreamEventType = "finish"
	StreamError  StreamEventType = "error"
)

// StreamEvent is a single event from a streaming response. Delta carries
// text for StreamDelta events; Response carries the accumulated response on
// StreamFinish when the adapter can provide it.
type StreamEvent struct {
	Type     StreamEventType `json:"type"`
	Delta    string          `json:"delta,omitempty"`
	Response *Response       `json:"response,omitempty"`
	Err      error           `json:"-"`
}

// CollectStream drains a stream channel into the concatenated text and the
// first error encountered, if any.
func CollectStream(ch <-chan StreamEvent) (string, error) {
	var sb strings.Builder
	for ev := range ch {
		switch ev.Type {
		case StreamDelta:
			sb.WriteString(ev.Delta)
		case StreamError:
			return sb.String(), ev.Err
		}
	}
	return sb.String(), nil
}
