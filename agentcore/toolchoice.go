package agentcore

import (
	"strconv"
	"strings"

	"github.com/dossierlab/dossier/llmclient"
)

// Tool choice strategies accepted by Config.ToolChoiceStrategy.
const (
	// StrategyRequiredUntilFinish forces tool use on every turn; the run can
	// only terminate through the finish tool or the turn budget.
	StrategyRequiredUntilFinish = "required_until_finish"

	// StrategyAutoAfterFirst forces tool use on turn 0 only. This is the
	// default and the behavior of any unrecognized strategy.
	StrategyAutoAfterFirst = "auto_after_first"

	// StrategyRequiredForNPrefix forms strategies like "required_for_n:3",
	// forcing tool use while turn < N.
	StrategyRequiredForNPrefix = "required_for_n:"
)

// ResolveToolChoice maps a strategy and a zero-based turn index to the tool
// choice mode for that turn's provider call. It is total: every strategy
// string and every turn >= 0 resolves to either "required" or "auto".
func ResolveToolChoice(strategy string, turn int) string {
	switch {
	case strategy == StrategyRequiredUntilFinish:
		return llmclient.ToolChoiceRequired

	case strings.HasPrefix(strategy, StrategyRequiredForNPrefix):
		n, err := strconv.Atoi(strings.TrimPrefix(strategy, StrategyRequiredForNPrefix))
		if err != nil {
			break
		}
		if turn < n {
			return llmclient.ToolChoiceRequired
		}
		return llmclient.ToolChoiceAuto
	}

	// auto_after_first.
	if turn == 0 {
		return llmclient.ToolChoiceRequired
	}
	return llmclient.ToolChoiceAuto
}
