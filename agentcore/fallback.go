package agentcore

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dossierlab/dossier/llmclient"
)

// defaultFallbackPrompt asks for a single structured answer when the
// tool-calling path could not get a usable response.
const defaultFallbackPrompt = `The tool-calling interface is unavailable. ` +
	`Respond with a single JSON object summarizing everything gathered so far, ` +
	`with a "summary" string field and a "findings" array of strings. ` +
	`Output only the JSON object.`

// runFallback is the degrade path taken when a turn exhausts its provider
// attempts. It strips tool traffic from the history, asks for one
// JSON-constrained answer, and issues a tool-free request under the same
// bounded-retry discipline. On success the raw JSON text becomes the final
// response; parsing is the caller's concern. On exhaustion the result
// carries a nil FinalResponse, still a valid terminal state.
func (e *Engine) runFallback(ctx context.Context, turnsUsed int) *TurnResult {
	e.messages = stripToolTraffic(e.messages)

	prompt := e.cfg.FallbackPrompt
	if prompt == "" {
		prompt = defaultFallbackPrompt
	}
	e.messages = append(e.messages, llmclient.UserMessage(prompt))

	req := e.buildRequest("", false)
	req.ResponseFormat = &llmclient.ResponseFormat{Type: "json_object"}

	resp, err := e.callWithRetry(ctx, req)
	if err != nil {
		log.Warn().Str("run_id", e.id).Err(err).Msg("fallback extraction exhausted")
		res := e.result(nil, turnsUsed)
		res.FellBack = true
		return res
	}
	e.usage = e.usage.Add(resp.Usage)

	text := resp.Text()
	res := e.result(&text, turnsUsed)
	res.FellBack = true
	return res
}

// stripToolTraffic removes tool messages and tool_calls fields from a
// history, dropping assistant turns that carried nothing but tool calls.
func stripToolTraffic(messages []llmclient.Message) []llmclient.Message {
	out := make([]llmclient.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == llmclient.RoleTool {
			continue
		}
		if m.Role == llmclient.RoleAssistant {
			if m.Content == "" {
				continue
			}
			out = append(out, llmclient.AssistantMessage(m.Content))
			continue
		}
		out = append(out, m)
	}
	return out
}
