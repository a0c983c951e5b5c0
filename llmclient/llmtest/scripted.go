// Package llmtest provides an in-process scripted provider adapter for
// exercising engine behavior without a network. Each test scripts the exact
// sequence of provider outcomes (text turns, tool-call turns, transient
// failures) and can afterwards inspect every request the engine issued.
package llmtest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dossierlab/dossier/llmclient"
)

// Step produces the outcome of one provider call.
type Step func(req llmclient.Request) (*llmclient.Response, error)

// ScriptedAdapter implements llmclient.ProviderAdapter by replaying a fixed
// sequence of steps. When the script is exhausted, the last step repeats.
type ScriptedAdapter struct {
	ProviderName string

	// StreamFails forces Stream to return an error, to exercise the
	// streamed-turn degrade path.
	StreamFails error

	mu       sync.Mutex
	steps    []Step
	at       int
	requests []llmclient.Request
}

// NewScripted creates an adapter that replays the given steps in order.
func NewScripted(steps ...Step) *ScriptedAdapter {
	return &ScriptedAdapter{ProviderName: "scripted", steps: steps}
}

// Name returns the scripted provider name.
func (a *ScriptedAdapter) Name() string {
	if a.ProviderName == "" {
		return "scripted"
	}
	return a.ProviderName
}

// Requests returns a copy of every request seen so far, in order.
func (a *ScriptedAdapter) Requests() []llmclient.Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]llmclient.Request, len(a.requests))
	copy(out, a.requests)
	return out
}

func (a *ScriptedAdapter) next(req llmclient.Request) Step {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests = append(a.requests, req)
	if len(a.steps) == 0 {
		return func(llmclient.Request) (*llmclient.Response, error) {
			return nil, &llmclient.ConfigurationError{ClientError: llmclient.ClientError{Message: "scripted adapter has no steps"}}
		}
	}
	step := a.steps[a.at]
	if a.at < len(a.steps)-1 {
		a.at++
	}
	return step
}

// Complete replays the next scripted step.
func (a *ScriptedAdapter) Complete(_ context.Context, req llmclient.Request) (*llmclient.Response, error) {
	return a.next(req)(req)
}

// Stream replays the next scripted step, splitting any text response into
// word-sized deltas.
func (a *ScriptedAdapter) Stream(_ context.Context, req llmclient.Request) (<-chan llmclient.StreamEvent, error) {
	if a.StreamFails != nil {
		return nil, a.StreamFails
	}
	resp, err := a.next(req)(req)
	if err != nil {
		return nil, err
	}

	ch := make(chan llmclient.StreamEvent, 64)
	go func() {
		defer close(ch)
		text := resp.Text()
		for i := 0; i < len(text); i += 4 {
			end := i + 4
			if end > len(text) {
				end = len(text)
			}
			ch <- llmclient.StreamEvent{Type: llmclient.StreamDelta, Delta: text[i:end]}
		}
		ch <- llmclient.StreamEvent{Type: llmclient.StreamFinish, Response: resp}
	}()
	return ch, nil
}

// Text scripts a text-only assistant turn.
func Text(content string) Step {
	return func(req llmclient.Request) (*llmclient.Response, error) {
		return &llmclient.Response{
			ID:       "scripted-text",
			Model:    req.Model,
			Provider: "scripted",
			Choices: []llmclient.Choice{{
				Message:      llmclient.AssistantMessage(content),
				FinishReason: llmclient.FinishStop,
			}},
			Usage: llmclient.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
		}, nil
	}
}

// Call describes one scripted tool call.
type Call struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolCalls scripts an assistant turn requesting the given tool calls.
func ToolCalls(calls ...Call) Step {
	return func(req llmclient.Request) (*llmclient.Response, error) {
		msg := llmclient.Message{Role: llmclient.RoleAssistant}
		for i, c := range calls {
			id := c.ID
			if id == "" {
				id = fmt.Sprintf("call_%d", i)
			}
			args := "{}"
			if c.Args != nil {
				b, _ := json.Marshal(c.Args)
				args = string(b)
			}
			msg.ToolCalls = append(msg.ToolCalls, llmclient.ToolCall{
				ID:       id,
				Type:     llmclient.ToolCallTypeFunction,
				Function: llmclient.FunctionCall{Name: c.Name, Arguments: args},
			})
		}
		return &llmclient.Response{
			ID:       "scripted-tools",
			Model:    req.Model,
			Provider: "scripted",
			Choices:  []llmclient.Choice{{Message: msg, FinishReason: llmclient.FinishToolCalls}},
			Usage:    llmclient.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
		}, nil
	}
}

// RawToolCall scripts a tool call whose argument text is passed through
// verbatim, for exercising malformed-argument handling.
func RawToolCall(id, name, rawArgs string) Step {
	return func(req llmclient.Request) (*llmclient.Response, error) {
		msg := llmclient.Message{Role: llmclient.RoleAssistant, ToolCalls: []llmclient.ToolCall{{
			ID:       id,
			Type:     llmclient.ToolCallTypeFunction,
			Function: llmclient.FunctionCall{Name: name, Arguments: rawArgs},
		}}}
		return &llmclient.Response{
			Model:    req.Model,
			Provider: "scripted",
			Choices:  []llmclient.Choice{{Message: msg, FinishReason: llmclient.FinishToolCalls}},
		}, nil
	}
}

// Fail scripts a provider error.
func Fail(err error) Step {
	return func(llmclient.Request) (*llmclient.Response, error) {
		return nil, err
	}
}

// NoChoices scripts a response with an empty choice list.
func NoChoices() Step {
	return func(req llmclient.Request) (*llmclient.Response, error) {
		return &llmclient.Response{Model: req.Model, Provider: "scripted"}, nil
	}
}

// MalformedFunctionCall scripts a response whose finish reason reports a
// malformed function call.
func MalformedFunctionCall() Step {
	return func(req llmclient.Request) (*llmclient.Response, error) {
		return &llmclient.Response{
			Model:    req.Model,
			Provider: "scripted",
			Choices: []llmclient.Choice{{
				Message:      llmclient.Message{Role: llmclient.RoleAssistant},
				FinishReason: llmclient.FinishMalformedFunctionCall,
			}},
		}, nil
	}
}

// Client wraps an adapter in a single-provider llmclient.Client.
func Client(a *ScriptedAdapter) *llmclient.Client {
	return llmclient.NewClient(llmclient.WithProvider(a.Name(), a), llmclient.WithDefaultProvider(a.Name()))
}
