package agentcore

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dossierlab/dossier/llmclient"
)

// RunStream executes the loop as an ordered event sequence. The returned
// channel is closed after the terminal event: exactly one done on every
// non-error path, or one error event on total failure. The engine has no
// internal cancellation primitive; a consumer that stops reading simply
// orphans event production, so callers needing bounded wait time impose a
// timeout on consumption.
func (e *Engine) RunStream(ctx context.Context) <-chan AgentEvent {
	events := make(chan AgentEvent, 8)
	go func() {
		defer close(events)
		e.streamLoop(ctx, events)
	}()
	return events
}

func (e *Engine) streamLoop(ctx context.Context, events chan<- AgentEvent) {
	emit := func(ev AgentEvent) { events <- ev }

	for turn := 0; turn < e.cfg.MaxTurns; turn++ {
		choice := ResolveToolChoice(e.cfg.ToolChoiceStrategy, turn)
		log.Debug().Str("run_id", e.id).Int("turn", turn).Str("tool_choice", choice).Msg("issuing provider call")

		resp, err := e.callWithRetry(ctx, e.buildRequest(choice, true))
		if err != nil {
			log.Warn().Str("run_id", e.id).Int("turn", turn).Err(err).Msg("provider retries exhausted, falling back")
			res := e.runFallback(ctx, turn+1)
			if res.FinalResponse != nil {
				emit(AgentEvent{Kind: EventChunk, Payload: *res.FinalResponse})
				emit(AgentEvent{Kind: EventDone})
			} else {
				emit(AgentEvent{Kind: EventError, Payload: "agent run failed after retries"})
			}
			return
		}
		e.usage = e.usage.Add(resp.Usage)

		if len(resp.ToolCalls()) == 0 {
			e.streamTextTurn(ctx, choice, resp, emit)
			return
		}

		if e.executeToolTurn(ctx, resp, emit) {
			emit(AgentEvent{Kind: EventDone})
			return
		}
	}

	// Turn budget exhausted: one final tool-free streamed turn, then done.
	e.streamFinalTurn(ctx, emit)
}

// streamTextTurn re-issues a text-only turn as a token-streamed request and
// emits one chunk per delta. If streaming fails before anything was emitted,
// the already-available non-streamed content degrades to a single chunk; an
// error event is the terminal only when there is no content at all.
func (e *Engine) streamTextTurn(ctx context.Context, choice string, resp *llmclient.Response, emit func(AgentEvent)) {
	stream, err := e.client.Stream(ctx, e.buildRequest(choice, true))
	if err != nil {
		log.Debug().Str("run_id", e.id).Err(err).Msg("streamed re-issue failed, degrading")
		e.emitDegraded(resp.Text(), err, emit)
		return
	}

	emitted := false
	for ev := range stream {
		switch ev.Type {
		case llmclient.StreamDelta:
			if ev.Delta != "" {
				emit(AgentEvent{Kind: EventChunk, Payload: ev.Delta})
				emitted = true
			}
		case llmclient.StreamError:
			if !emitted {
				e.emitDegraded(resp.Text(), ev.Err, emit)
				return
			}
			emit(AgentEvent{Kind: EventError, Payload: ev.Err.Error()})
			return
		}
	}
	emit(AgentEvent{Kind: EventDone})
}

func (e *Engine) emitDegraded(content string, err error, emit func(AgentEvent)) {
	if content != "" {
		emit(AgentEvent{Kind: EventChunk, Payload: content})
		emit(AgentEvent{Kind: EventDone})
		return
	}
	emit(AgentEvent{Kind: EventError, Payload: err.Error()})
}

// streamFinalTurn issues one last tool-free turn after the turn budget is
// spent, streaming whatever closing text the model produces. done is emitted
// regardless of how much of that final turn succeeds.
func (e *Engine) streamFinalTurn(ctx context.Context, emit func(AgentEvent)) {
	stream, err := e.client.Stream(ctx, e.buildRequest("", false))
	if err != nil {
		if resp, cerr := e.callWithRetry(ctx, e.buildRequest("", false)); cerr == nil && resp.Text() != "" {
			e.usage = e.usage.Add(resp.Usage)
			emit(AgentEvent{Kind: EventChunk, Payload: resp.Text()})
		}
		emit(AgentEvent{Kind: EventDone})
		return
	}
	for ev := range stream {
		if ev.Type == llmclient.StreamDelta && ev.Delta != "" {
			emit(AgentEvent{Kind: EventChunk, Payload: ev.Delta})
		}
	}
	emit(AgentEvent{Kind: EventDone})
}
