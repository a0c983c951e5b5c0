package report

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/dossierlab/dossier/agentcore"
	"github.com/dossierlab/dossier/llmclient"
)

// TeamMember is one synthetic voice in a team chat: its own persona prompt
// and optional per-member model override.
type TeamMember struct {
	Name         string
	SystemPrompt string
	Model        string
}

// MemberResult is one member's contribution. Error is set when that member's
// run degraded to total failure; other members are unaffected.
type MemberResult struct {
	Name     string `json:"name"`
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// TeamChatConfig configures a team chat round.
type TeamChatConfig struct {
	Client     *llmclient.Client
	Model      string
	Provider   string
	MaxTurns   int
	RetryDelay time.Duration
}

// RunTeamChat asks every member the same question as an independent engine
// run, fully in parallel, and collects all results before returning. One
// member's failure is surfaced as a degraded MemberResult, never as an abort
// of the round. Results are returned in member order.
func RunTeamChat(ctx context.Context, cfg TeamChatConfig, members []TeamMember, question string) []MemberResult {
	results := make([]MemberResult, len(members))

	g, ctx := errgroup.WithContext(ctx)
	for i, member := range members {
		g.Go(func() error {
			results[i] = runMember(ctx, cfg, member, question)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func runMember(ctx context.Context, cfg TeamChatConfig, member TeamMember, question string) (res MemberResult) {
	res.Name = member.Name
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("member", member.Name).Any("panic", r).Msg("team chat run panicked")
			res.Response = ""
			res.Error = fmt.Sprintf("member run failed: %v", r)
		}
	}()

	model := member.Model
	if model == "" {
		model = cfg.Model
	}

	engine := agentcore.NewEngine(agentcore.Config{
		Client:       cfg.Client,
		Model:        model,
		Provider:     cfg.Provider,
		SystemPrompt: member.SystemPrompt,
		UserPrompt:   question,
		MaxTurns:     cfg.MaxTurns,
		RetryDelay:   cfg.RetryDelay,
	})

	out := engine.Run(ctx)
	if out.FinalResponse == nil {
		res.Error = "no response after retries"
		return res
	}
	res.Response = *out.FinalResponse
	return res
}
