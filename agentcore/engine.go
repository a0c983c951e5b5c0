package agentcore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dossierlab/dossier/llmclient"
)

// providerAttemptsPerTurn bounds how many times one turn's provider call is
// attempted before the run degrades to fallback extraction.
const providerAttemptsPerTurn = 3

// Config describes one engine run. Tools are immutable for the duration of
// the run; a fresh Config (and fresh tool set) is built per run.
type Config struct {
	// Client issues the provider calls. When nil, a client configured from
	// the environment is used.
	Client *llmclient.Client

	Model    string
	Provider string
	// APIKey overrides the adapter's configured key for this run only.
	APIKey string
	// MaxTokens caps output tokens per provider call when > 0.
	MaxTokens int

	SystemPrompt string
	UserPrompt   string

	Tools []Tool
	// ToolChoiceStrategy selects the per-turn tool choice mode; see
	// ResolveToolChoice. Empty means auto_after_first.
	ToolChoiceStrategy string
	// FinishToolName designates the tool whose invocation terminates the
	// run. Empty means no finish tool.
	FinishToolName string

	// MaxTurns bounds the number of provider round trips. Defaults to 10.
	MaxTurns int

	// FallbackPrompt replaces the default JSON-extraction instruction used
	// when the tool-calling path exhausts its retries.
	FallbackPrompt string

	// RetryDelay is the base delay between provider attempts within a turn;
	// attempt n waits n*RetryDelay. Defaults to 500ms.
	RetryDelay time.Duration
}

// TurnResult is the outcome of a batch engine run. FinalResponse is non-nil
// only when the run ended on a text-only turn or a successful fallback
// extraction; runs terminated by the finish tool or the turn budget leave it
// nil and callers read ToolOutputs instead.
type TurnResult struct {
	FinalResponse *string                     `json:"final_response"`
	ToolOutputs   map[string][]map[string]any `json:"tool_outputs"`
	TurnsUsed     int                         `json:"turns_used"`
	Usage         llmclient.Usage             `json:"usage"`
	// FellBack reports that the result came from the tool-free fallback
	// path; FinalResponse then holds raw JSON text (or nil on total
	// exhaustion).
	FellBack bool `json:"fell_back"`
}

// Engine runs one agent loop. An Engine is single-use and single-threaded:
// construct, call Run or RunStream once, read the result.
type Engine struct {
	id         string
	cfg        Config
	client     *llmclient.Client
	registry   *Registry
	dispatcher *Dispatcher
	messages   []llmclient.Message
	usage      llmclient.Usage
}

// NewEngine creates an engine for one run, seeding the conversation from the
// system and user prompts.
func NewEngine(cfg Config) *Engine {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = 10
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	client := cfg.Client
	if client == nil {
		client = llmclient.NewClientFromEnv()
	}
	registry := NewRegistry(cfg.Tools...)
	return &Engine{
		id:         uuid.New().String(),
		cfg:        cfg,
		client:     client,
		registry:   registry,
		dispatcher: NewDispatcher(registry, cfg.FinishToolName),
		messages: []llmclient.Message{
			llmclient.SystemMessage(cfg.SystemPrompt),
			llmclient.UserMessage(cfg.UserPrompt),
		},
	}
}

// ID returns the run identifier.
func (e *Engine) ID() string { return e.id }

// Run executes the loop to a terminal state and returns its result. It never
// returns an error: provider failures degrade through fallback extraction,
// and total exhaustion yields a result with a nil FinalResponse.
func (e *Engine) Run(ctx context.Context) *TurnResult {
	for turn := 0; turn < e.cfg.MaxTurns; turn++ {
		choice := ResolveToolChoice(e.cfg.ToolChoiceStrategy, turn)
		log.Debug().Str("run_id", e.id).Int("turn", turn).Str("tool_choice", choice).Msg("issuing provider call")

		resp, err := e.callWithRetry(ctx, e.buildRequest(choice, true))
		if err != nil {
			log.Warn().Str("run_id", e.id).Int("turn", turn).Err(err).Msg("provider retries exhausted, falling back")
			return e.runFallback(ctx, turn+1)
		}
		e.usage = e.usage.Add(resp.Usage)

		if len(resp.ToolCalls()) == 0 {
			text := resp.Text()
			return e.result(&text, turn+1)
		}

		if e.executeToolTurn(ctx, resp, nil) {
			return e.result(nil, turn+1)
		}
	}
	return e.result(nil, e.cfg.MaxTurns)
}

// executeToolTurn appends the sanitized assistant turn, dispatches every
// requested call in order appending one tool message each, and reports
// whether the finish tool was among them. emit, when non-nil, receives the
// tool_call/tool_result event pair around each dispatch.
func (e *Engine) executeToolTurn(ctx context.Context, resp *llmclient.Response, emit func(AgentEvent)) bool {
	assistant := SanitizeAssistant(resp.Choices[0].Message)
	e.messages = append(e.messages, assistant)

	finished := false
	for _, tc := range assistant.ToolCalls {
		if emit != nil {
			emit(AgentEvent{Kind: EventToolCall, Tool: tc.Function.Name, Payload: tc.Function.Arguments})
		}
		obs := e.dispatcher.Dispatch(ctx, tc.Function.Name, tc.Function.Arguments)
		e.messages = append(e.messages, llmclient.ToolMessage(tc.ID, obs))
		if emit != nil {
			emit(AgentEvent{Kind: EventToolResult, Tool: tc.Function.Name, Payload: SummarizeObservation(obs)})
		}
		if e.cfg.FinishToolName != "" && tc.Function.Name == e.cfg.FinishToolName {
			finished = true
		}
	}
	return finished
}

func (e *Engine) result(final *string, turnsUsed int) *TurnResult {
	return &TurnResult{
		FinalResponse: final,
		ToolOutputs:   e.dispatcher.Outputs(),
		TurnsUsed:     turnsUsed,
		Usage:         e.usage,
	}
}

// buildRequest assembles the provider request for the current history. Tool
// definitions and the tool choice are only attached when the run actually
// has tools; some backends reject a forced tool choice with an empty tool
// list.
func (e *Engine) buildRequest(toolChoice string, withTools bool) llmclient.Request {
	msgs := make([]llmclient.Message, len(e.messages))
	copy(msgs, e.messages)

	req := llmclient.Request{
		Model:    e.cfg.Model,
		Messages: msgs,
		Provider: e.cfg.Provider,
		APIKey:   e.cfg.APIKey,
	}
	if e.cfg.MaxTokens > 0 {
		mt := e.cfg.MaxTokens
		req.MaxTokens = &mt
	}
	if withTools && e.registry.Len() > 0 {
		req.Tools = e.registry.Definitions()
		req.ToolChoice = toolChoice
	}
	return req
}

// callWithRetry issues one turn's provider call with bounded attempts. A
// response with no choices or a malformed-function-call finish reason counts
// as a failed attempt alongside transport errors. Attempts are spaced by an
// escalating delay.
func (e *Engine) callWithRetry(ctx context.Context, req llmclient.Request) (*llmclient.Response, error) {
	var lastErr error
	for attempt := 0; attempt < providerAttemptsPerTurn; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(e.cfg.RetryDelay * time.Duration(attempt)):
			case <-ctx.Done():
				return nil, &llmclient.AbortError{ClientError: llmclient.ClientError{Message: "request aborted", Cause: ctx.Err()}}
			}
		}

		resp, err := e.client.Complete(ctx, req)
		switch {
		case err != nil:
			lastErr = err
		case len(resp.Choices) == 0:
			lastErr = &llmclient.EmptyResponseError{ClientError: llmclient.ClientError{Message: "provider returned no choices"}}
		case resp.FinishReason() == llmclient.FinishMalformedFunctionCall:
			lastErr = fmt.Errorf("provider reported a malformed function call")
		default:
			return resp, nil
		}
		log.Debug().Str("run_id", e.id).Int("attempt", attempt+1).Err(lastErr).Msg("provider attempt failed")
	}
	return nil, lastErr
}
