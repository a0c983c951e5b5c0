package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dossierlab/dossier/llmclient"
	"github.com/dossierlab/dossier/llmclient/llmtest"
)

func TestRunTeamChatCollectsAllMembers(t *testing.T) {
	// One step that answers based on the member's persona, so parallel
	// request ordering does not matter.
	adapter := llmtest.NewScripted(func(req llmclient.Request) (*llmclient.Response, error) {
		persona := req.Messages[0].Content
		return &llmclient.Response{
			Provider: "scripted",
			Choices: []llmclient.Choice{{
				Message:      llmclient.AssistantMessage("answer from " + persona),
				FinishReason: llmclient.FinishStop,
			}},
		}, nil
	})

	cfg := TeamChatConfig{
		Client:     llmtest.Client(adapter),
		Model:      "test-model",
		Provider:   adapter.Name(),
		MaxTurns:   3,
		RetryDelay: time.Millisecond,
	}
	members := []TeamMember{
		{Name: "architect", SystemPrompt: "architect"},
		{Name: "skeptic", SystemPrompt: "skeptic"},
		{Name: "historian", SystemPrompt: "historian"},
	}

	results := RunTeamChat(context.Background(), cfg, members, "What stands out?")

	require.Len(t, results, 3)
	for i, res := range results {
		assert.Equal(t, members[i].Name, res.Name)
		assert.Empty(t, res.Error)
		assert.Equal(t, "answer from "+members[i].SystemPrompt, res.Response)
	}
}

func TestRunTeamChatIsolatesFailingMember(t *testing.T) {
	adapter := llmtest.NewScripted(func(req llmclient.Request) (*llmclient.Response, error) {
		if strings.Contains(req.Messages[0].Content, "flaky") {
			return nil, errors.New("provider down")
		}
		return &llmclient.Response{
			Provider: "scripted",
			Choices: []llmclient.Choice{{
				Message:      llmclient.AssistantMessage("fine"),
				FinishReason: llmclient.FinishStop,
			}},
		}, nil
	})

	cfg := TeamChatConfig{
		Client:     llmtest.Client(adapter),
		Model:      "test-model",
		Provider:   adapter.Name(),
		MaxTurns:   3,
		RetryDelay: time.Millisecond,
	}
	members := []TeamMember{
		{Name: "steady", SystemPrompt: "steady persona"},
		{Name: "flaky", SystemPrompt: "flaky persona"},
	}

	results := RunTeamChat(context.Background(), cfg, members, "hi")

	require.Len(t, results, 2)
	assert.Equal(t, "fine", results[0].Response)
	assert.Empty(t, results[0].Error)
	assert.Empty(t, results[1].Response)
	assert.NotEmpty(t, results[1].Error)
}
