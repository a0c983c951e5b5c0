package llmclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/teilomillet/gollm"
)

// GollmAdapter wraps a gollm.LLM instance and implements ProviderAdapter.
// gollm has no native tool-call wire format, so conversations are flattened
// into a prompt and tool calls are recovered from the generated text. It
// serves providers the OpenAI adapter cannot reach.
type GollmAdapter struct {
	provider string
	llm      gollm.LLM
	model    string
}

// GollmOption configures a GollmAdapter.
type GollmOption func(*gollmConfig)

type gollmConfig struct {
	model       string
	maxTokens   int
	temperature float64
	extraOpts   []gollm.ConfigOption
}

// WithGollmModel sets the default model for the adapter.
func WithGollmModel(model string) GollmOption {
	return func(c *gollmConfig) { c.model = model }
}

// WithGollmOptions adds extra gollm configuration options.
func WithGollmOptions(opts ...gollm.ConfigOption) GollmOption {
	return func(c *gollmConfig) { c.extraOpts = append(c.extraOpts, opts...) }
}

// NewGollmAdapter creates a new GollmAdapter for the given provider. If
// apiKey is empty, gollm reads it from the provider's environment variable.
func NewGollmAdapter(provider, apiKey string, opts ...GollmOption) (*GollmAdapter, error) {
	cfg := &gollmConfig{
		maxTokens:   4096,
		temperature: 0.7,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	model := cfg.model
	if model == "" {
		if infos := ListModels(provider); len(infos) > 0 {
			model = infos[0].ID
		}
	}

	gollmOpts := []gollm.ConfigOption{
		gollm.SetProvider(provider),
		gollm.SetModel(model),
		gollm.SetMaxTokens(cfg.maxTokens),
		gollm.SetTemperature(cfg.temperature),
		gollm.SetMaxRetries(0), // retries are handled by this package
		gollm.SetLogLevel(gollm.LogLevelWarn),
	}
	if apiKey != "" {
		gollmOpts = append(gollmOpts, gollm.SetAPIKey(apiKey))
	}
	gollmOpts = append(gollmOpts, cfg.extraOpts...)

	llm, err := gollm.NewLLM(gollmOpts...)
	if err != nil {
		return nil, fmt.Errorf("create gollm LLM for provider %s: %w", provider, err)
	}

	return &GollmAdapter{provider: provider, llm: llm, model: model}, nil
}

// Name returns the provider identifier.
func (a *GollmAdapter) Name() string { return a.provider }

// Complete sends a blocking request and returns the normalized response.
func (a *GollmAdapter) Complete(ctx context.Context, req Request) (*Response, error) {
	prompt := a.translateRequest(req)
	a.applyRequestOptions(req)

	text, err := a.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, a.translateError(err)
	}
	return a.buildResponse(req, text), nil
}

// Stream sends a streaming request. Providers without token streaming fall
// back to a single delta carrying the full generation.
func (a *GollmAdapter) Stream(ctx context.Context, req Request) (<-chan StreamEvent, error) {
	prompt := a.translateRequest(req)
	a.applyRequestOptions(req)

	ch := make(chan StreamEvent, 64)

	if !a.llm.SupportsStreaming() {
		go func() {
			defer close(ch)
			text, err := a.llm.Generate(ctx, prompt)
			if err != nil {
				ch <- StreamEvent{Type: StreamError, Err: a.translateError(err)}
				return
			}
			ch <- StreamEvent{Type: StreamDelta, Delta: text}
			ch <- StreamEvent{Type: StreamFinish, Response: a.buildResponse(req, text)}
		}()
		return ch, nil
	}

	stream, err := a.llm.Stream(ctx, prompt)
	if err != nil {
		return nil, a.translateError(err)
	}

	go func() {
		defer close(ch)
		defer func() { _ = stream.Close() }()

		var full strings.Builder
		for {
			token, err := stream.Next(ctx)
			if err == io.EOF {
				break
			}
			if err != nil {
				ch <- StreamEvent{Type: StreamError, Err: a.translateError(err)}
				return
			}
			if token == nil {
				continue
			}
			full.WriteString(token.Text)
			ch <- StreamEvent{Type: StreamDelta, Delta: token.Text}
		}
		ch <- StreamEvent{Type: StreamFinish, Response: a.buildResponse(req, full.String())}
	}()

	return ch, nil
}

// translateRequest flattens the conversation into a gollm Prompt.
func (a *GollmAdapter) translateRequest(req Request) *gollm.Prompt {
	var systemPrompt string
	var parts []string

	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			systemPrompt += msg.Content + "\n"
		case RoleUser:
			parts = append(parts, msg.Content)
		case RoleAssistant:
			if msg.Content != "" {
				parts = append(parts, "[Assistant]: "+msg.Content)
			}
			for _, tc := range msg.ToolCalls {
				parts = append(parts, fmt.Sprintf("[Assistant called %s]: %s", tc.Function.Name, tc.Function.Arguments))
			}
		case RoleTool:
			parts = append(parts, "[Tool Result]: "+msg.Content)
		}
	}

	promptText := strings.Join(parts, "\n")
	if promptText == "" {
		promptText = "Hello"
	}

	promptOpts := []gollm.PromptOption{}
	if systemPrompt != "" {
		promptOpts = append(promptOpts, gollm.WithSystemPrompt(strings.TrimSpace(systemPrompt), gollm.CacheTypeEphemeral))
	}
	if req.MaxTokens != nil {
		promptOpts = append(promptOpts, gollm.WithMaxLength(*req.MaxTokens))
	}

	if len(req.Tools) > 0 {
		tools := make([]gollm.Tool, 0, len(req.Tools))
		for _, t := range req.Tools {
			tools = append(tools, gollm.Tool{
				Type: "function",
				Function: gollm.Function{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  t.Parameters,
				},
			})
		}
		promptOpts = append(promptOpts, gollm.WithTools(tools))
		if req.ToolChoice != "" {
			promptOpts = append(promptOpts, gollm.WithToolChoice(req.ToolChoice))
		}
	}

	return gollm.NewPrompt(promptText, promptOpts...)
}

// applyRequestOptions applies request-level parameters to the gollm LLM.
func (a *GollmAdapter) applyRequestOptions(req Request) {
	if req.Model != "" {
		a.llm.SetOption("model", req.Model)
	}
	if req.Temperature != nil {
		a.llm.SetOption("temperature", *req.Temperature)
	}
	if req.MaxTokens != nil {
		a.llm.SetOption("max_tokens", *req.MaxTokens)
	}
	if req.ResponseFormat != nil && req.ResponseFormat.Type == "json_object" {
		a.llm.SetOption("response_format", map[string]any{"type": "json_object"})
	}
}

// buildResponse constructs a normalized Response from generated text,
// recovering any tool calls gollm embedded in the output.
func (a *GollmAdapter) buildResponse(req Request, text string) *Response {
	model := req.Model
	if model == "" {
		model = a.model
	}

	msg := Message{Role: RoleAssistant}
	toolCalls := parseEmbeddedToolCalls(text)
	if len(toolCalls) > 0 {
		msg.ToolCalls = toolCalls
	} else {
		msg.Content = text
	}

	finish := FinishStop
	if len(toolCalls) > 0 {
		finish = FinishToolCalls
	}

	return &Response{
		ID:       "resp_" + uuid.New().String()[:8],
		Model:    model,
		Provider: a.provider,
		Choices:  []Choice{{Message: msg, FinishReason: finish}},
		Usage: Usage{
			// gollm does not expose usage; approximate from text length.
			OutputTokens: len(text) / 4,
			TotalTokens:  len(text) / 4,
		},
	}
}

// parseEmbeddedToolCalls extracts tool calls gollm returns as JSON text,
// typically an array of {"name": ..., "arguments": {...}} objects.
func parseEmbeddedToolCalls(text string) []ToolCall {
	start := strings.Index(text, `[{"name"`)
	if start == -1 {
		return nil
	}

	var rawCalls []struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal([]byte(text[start:]), &rawCalls); err != nil {
		return nil
	}

	var calls []ToolCall
	for _, rc := range rawCalls {
		calls = append(calls, ToolCall{
			ID:   "call_" + uuid.New().String()[:8],
			Type: ToolCallTypeFunction,
			Function: FunctionCall{
				Name:      rc.Name,
				Arguments: string(rc.Arguments),
			},
		})
	}
	return calls
}

// translateError maps gollm errors onto the package taxonomy by message
// inspection, since gollm does not expose typed errors.
func (a *GollmAdapter) translateError(err error) error {
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "rate limit") || strings.Contains(lower, "429"):
		return &RateLimitError{ProviderError: ProviderError{
			ClientError: ClientError{Message: msg, Cause: err},
			Provider:    a.provider, StatusCode: 429, Retryable: true,
		}}
	case strings.Contains(lower, "unauthorized") || strings.Contains(lower, "api key"):
		return &AuthenticationError{ProviderError: ProviderError{
			ClientError: ClientError{Message: msg, Cause: err},
			Provider:    a.provider, StatusCode: 401,
		}}
	case strings.Contains(lower, "context length") || strings.Contains(lower, "too long"):
		return &ContextLengthError{ProviderError: ProviderError{
			ClientError: ClientError{Message: msg, Cause: err},
			Provider:    a.provider, StatusCode: 413,
		}}
	default:
		return &NetworkError{ClientError: ClientError{Message: msg, Cause: err}}
	}
}
