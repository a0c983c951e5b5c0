package agentcore

import "github.com/dossierlab/dossier/llmclient"

// MaxToolCallIDLength caps tool-call identifiers before they enter history.
// Some providers assign very long ids; replaying them into every subsequent
// turn's context grows the prompt linearly with turn count.
const MaxToolCallIDLength = 64

// SanitizeAssistant reduces a provider-returned assistant turn to the minimal
// shape safe to append to history: role forced to assistant, content and tool
// calls only. Tool calls are normalized to {id, type:"function",
// function:{name, arguments}} with ids truncated to MaxToolCallIDLength, and
// any provider-specific metadata is dropped.
func SanitizeAssistant(msg llmclient.Message) llmclient.Message {
	out := llmclient.Message{
		Role:    llmclient.RoleAssistant,
		Content: msg.Content,
	}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, llmclient.ToolCall{
			ID:   truncateID(tc.ID),
			Type: llmclient.ToolCallTypeFunction,
			Function: llmclient.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return out
}

func truncateID(id string) string {
	if len(id) > MaxToolCallIDLength {
		return id[:MaxToolCallIDLength]
	}
	return id
}
