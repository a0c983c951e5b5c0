package llmclient

import (
	"context"
	"errors"
	"io"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
)

// OpenAIAdapter implements ProviderAdapter on top of the OpenAI
// chat-completions API. It is the primary adapter for providers with a
// native tool-call wire format.
type OpenAIAdapter struct {
	client  *goopenai.Client
	baseURL string
	name    string
}

// OpenAIOption configures an OpenAIAdapter.
type OpenAIOption func(*OpenAIAdapter)

// WithBaseURL points the adapter at an OpenAI-compatible endpoint.
func WithBaseURL(url string) OpenAIOption {
	return func(a *OpenAIAdapter) { a.baseURL = url }
}

// WithProviderName overrides the provider identifier (for OpenAI-compatible
// backends registered under their own name).
func WithProviderName(name string) OpenAIOption {
	return func(a *OpenAIAdapter) { a.name = name }
}

// NewOpenAIAdapter creates an adapter with the given API key.
func NewOpenAIAdapter(apiKey string, opts ...OpenAIOption) *OpenAIAdapter {
	a := &OpenAIAdapter{name: "openai"}
	for _, opt := range opts {
		opt(a)
	}
	cfg := goopenai.DefaultConfig(apiKey)
	if a.baseURL != "" {
		cfg.BaseURL = a.baseURL
	}
	a.client = goopenai.NewClientWithConfig(cfg)
	return a
}

// Name returns the provider identifier.
func (a *OpenAIAdapter) Name() string { return a.name }

// Complete sends a blocking chat-completions request.
func (a *OpenAIAdapter) Complete(ctx context.Context, req Request) (*Response, error) {
	client := a.clientFor(req)
	resp, err := client.CreateChatCompletion(ctx, a.translateRequest(req, false))
	if err != nil {
		return nil, a.translateError(err)
	}
	return a.translateResponse(req, resp), nil
}

// Stream sends a streaming chat-completions request and emits one delta
// event per received chunk.
func (a *OpenAIAdapter) Stream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	client := a.clientFor(req)
	stream, err := client.CreateChatCompletionStream(ctx, a.translateRequest(req, true))
	if err != nil {
		return nil, a.translateError(err)
	}

	ch := make(chan StreamEvent, 64)
	go func() {
		defer close(ch)
		defer func() { _ = stream.Close() }()

		var full strings.Builder
		for {
			chunk, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				ch <- StreamEvent{Type: StreamError, Err: a.translateError(err)}
				return
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			full.WriteString(delta)
			ch <- StreamEvent{Type: StreamDelta, Delta: delta}
		}

		ch <- StreamEvent{Type: StreamFinish, Response: &Response{
			Model:    req.Model,
			Provider: a.name,
			Choices: []Choice{{
				Message:      AssistantMessage(full.String()),
				FinishReason: FinishStop,
			}},
		}}
	}()
	return ch, nil
}

// clientFor honors a per-request API key override without mutating the
// adapter's default client.
func (a *OpenAIAdapter) clientFor(req Request) *goopenai.Client {
	if req.APIKey == "" {
		return a.client
	}
	cfg := goopenai.DefaultConfig(req.APIKey)
	if a.baseURL != "" {
		cfg.BaseURL = a.baseURL
	}
	return goopenai.NewClientWithConfig(cfg)
}

func (a *OpenAIAdapter) translateRequest(req Request, stream bool) goopenai.ChatCompletionRequest {
	out := goopenai.ChatCompletionRequest{
		Model:  req.Model,
		Stream: stream,
	}

	for _, m := range req.Messages {
		msg := goopenai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, goopenai.ToolCall{
				ID:   tc.ID,
				Type: goopenai.ToolTypeFunction,
				Function: goopenai.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
		out.Messages = append(out.Messages, msg)
	}

	for _, td := range req.Tools {
		out.Tools = append(out.Tools, goopenai.Tool{
			Type: goopenai.ToolTypeFunction,
			Function: &goopenai.FunctionDefinition{
				Name:        td.Name,
				Description: td.Description,
				Parameters:  td.Parameters,
			},
		})
	}
	// Only send a tool choice when tools are offered; some backends reject
	// tool_choice=required with an empty tool list.
	if req.ToolChoice != "" && len(out.Tools) > 0 {
		out.ToolChoice = req.ToolChoice
	}

	if req.MaxTokens != nil {
		out.MaxTokens = *req.MaxTokens
	}
	if req.Temperature != nil {
		out.Temperature = float32(*req.Temperature)
	}
	if req.ResponseFormat != nil && req.ResponseFormat.Type == "json_object" {
		out.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return out
}

func (a *OpenAIAdapter) translateResponse(req Request, resp goopenai.ChatCompletionResponse) *Response {
	out := &Response{
		ID:       resp.ID,
		Model:    resp.Model,
		Provider: a.name,
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
	}
	for _, c := range resp.Choices {
		msg := Message{
			Role:    RoleAssistant,
			Content: c.Message.Content,
		}
		for _, tc := range c.Message.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, ToolCall{
				ID:   tc.ID,
				Type: ToolCallTypeFunction,
				Function: FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
		out.Choices = append(out.Choices, Choice{
			Message:      msg,
			FinishReason: normalizeFinishReason(string(c.FinishReason)),
		})
	}
	return out
}

func normalizeFinishReason(reason string) string {
	switch strings.ToLower(reason) {
	case "stop", "":
		return FinishStop
	case "length", "max_tokens":
		return FinishLength
	case "tool_calls", "function_call":
		return FinishToolCalls
	case "content_filter":
		return FinishContentFilter
	case "malformed_function_call":
		return FinishMalformedFunctionCall
	default:
		return strings.ToLower(reason)
	}
}

func (a *OpenAIAdapter) translateError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return ErrorFromStatusCode(apiErr.HTTPStatusCode, apiErr.Message, a.name, nil)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return ErrorFromStatusCode(reqErr.HTTPStatusCode, reqErr.Error(), a.name, nil)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &AbortError{ClientError: ClientError{Message: "request cancelled", Cause: err}}
	}
	return &NetworkError{ClientError: ClientError{Message: "transport error", Cause: err}}
}
