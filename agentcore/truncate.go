package agentcore

import "fmt"

// DefaultSummaryLimit bounds the observation summaries carried by
// tool_result stream events. The full observation still reaches the model;
// only the event payload is truncated.
const DefaultSummaryLimit = 200

// TruncateMiddle shortens s to at most maxChars by removing characters from
// the middle, keeping the head and tail visible.
func TruncateMiddle(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	marker := fmt.Sprintf("\n[... %d chars omitted ...]\n", len(s)-maxChars)
	half := maxChars / 2
	return s[:half] + marker + s[len(s)-(maxChars-half):]
}

// SummarizeObservation produces the bounded single-observation summary used
// in tool_result events.
func SummarizeObservation(obs string) string {
	return TruncateMiddle(obs, DefaultSummaryLimit)
}
