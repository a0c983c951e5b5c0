package explorer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dossierlab/dossier/llmclient/llmtest"
)

func testRunner(a *llmtest.ScriptedAdapter) *Runner {
	return NewRunner(Config{
		Client:     llmtest.Client(a),
		Model:      "test-model",
		Provider:   a.Name(),
		MaxTurns:   10,
		RetryDelay: time.Millisecond,
	})
}

func TestRunBuildsReportFromTools(t *testing.T) {
	adapter := llmtest.NewScripted(
		llmtest.ToolCalls(llmtest.Call{Name: "save_memory", Args: map[string]any{
			"category": "project", "topic": "worker pool", "content": "Maintains a worker pool library", "confidence": 0.8,
		}}),
		llmtest.ToolCalls(
			llmtest.Call{Name: "save_finding", Args: map[string]any{"text": "Writes tests before fixes"}},
			llmtest.Call{Name: FinishToolName},
		),
	)
	source := NewMemorySource("github").Add("pr-1", "PR", "body")

	report := testRunner(adapter).Run(context.Background(), source)

	assert.Equal(t, "github", report.SourceName)
	assert.Equal(t, 2, report.TurnsUsed)
	assert.False(t, report.FellBack)
	require.Len(t, report.MemoryEntries, 1)
	assert.Equal(t, "worker pool", report.MemoryEntries[0].Topic)
	assert.Equal(t, []string{"Writes tests before fixes"}, report.Findings)
}

func TestRunRecoversFallbackJSON(t *testing.T) {
	adapter := llmtest.NewScripted(
		llmtest.Fail(errors.New("down")),
		llmtest.Fail(errors.New("down")),
		llmtest.Fail(errors.New("down")),
		llmtest.Text(`{"summary":"Prolific Go developer","findings":["answers fast"],`+
			`"projects":[{"topic":"cli","content":"builds CLI tools","confidence":0.7}],`+
			`"opinions":["generics are overused"]}`),
	)
	source := NewMemorySource("hn")

	report := testRunner(adapter).Run(context.Background(), source)

	require.True(t, report.FellBack)
	assert.Contains(t, report.Findings, "Prolific Go developer")
	assert.Contains(t, report.Findings, "answers fast")

	require.Len(t, report.MemoryEntries, 2)
	assert.Equal(t, CategoryProject, report.MemoryEntries[0].Category)
	assert.Equal(t, "cli", report.MemoryEntries[0].Topic)
	assert.Equal(t, CategoryOpinion, report.MemoryEntries[1].Category)
	assert.Equal(t, "generics are overused", report.MemoryEntries[1].Content)
	assert.Equal(t, "hn", report.MemoryEntries[1].SourceType)
}

func TestRunRecoversFencedFallbackJSON(t *testing.T) {
	adapter := llmtest.NewScripted(
		llmtest.Fail(errors.New("down")),
		llmtest.Fail(errors.New("down")),
		llmtest.Fail(errors.New("down")),
		llmtest.Text("```json\n{\"summary\":\"terse communicator\"}\n```"),
	)

	report := testRunner(adapter).Run(context.Background(), NewMemorySource("blog"))

	require.True(t, report.FellBack)
	assert.Equal(t, []string{"terse communicator"}, report.Findings)
}

func TestRunKeepsRawTextWhenFallbackUnparseable(t *testing.T) {
	adapter := llmtest.NewScripted(
		llmtest.Fail(errors.New("down")),
		llmtest.Fail(errors.New("down")),
		llmtest.Fail(errors.New("down")),
		llmtest.Text("I could not produce JSON but the subject clearly prefers Go."),
	)

	report := testRunner(adapter).Run(context.Background(), NewMemorySource("so"))

	require.True(t, report.FellBack)
	require.Len(t, report.Findings, 1)
	assert.Contains(t, report.Findings[0], "prefers Go")
}

func TestRunTotalExhaustionYieldsEmptyReport(t *testing.T) {
	adapter := llmtest.NewScripted(llmtest.Fail(errors.New("hard down")))

	report := testRunner(adapter).Run(context.Background(), NewMemorySource("github"))

	require.NotNil(t, report)
	assert.True(t, report.FellBack)
	assert.True(t, report.Empty())
	assert.Equal(t, "github", report.SourceName)
}

func TestRunDoesNotRecoverWhenAccumulatorsHaveData(t *testing.T) {
	// A run that saved entries before the provider died keeps the tool
	// results; the fallback text is not merged on top.
	adapter := llmtest.NewScripted(
		llmtest.ToolCalls(llmtest.Call{Name: "save_finding", Args: map[string]any{"text": "from tools"}}),
		llmtest.Fail(errors.New("down")),
		llmtest.Fail(errors.New("down")),
		llmtest.Fail(errors.New("down")),
		llmtest.Text(`{"summary":"from fallback"}`),
	)

	report := testRunner(adapter).Run(context.Background(), NewMemorySource("github"))

	assert.Equal(t, []string{"from tools"}, report.Findings)
	assert.True(t, report.FellBack)
}

func TestRunUsesRequiredUntilFinish(t *testing.T) {
	adapter := llmtest.NewScripted(llmtest.ToolCalls(llmtest.Call{Name: FinishToolName}))

	testRunner(adapter).Run(context.Background(), NewMemorySource("github"))

	reqs := adapter.Requests()
	require.NotEmpty(t, reqs)
	assert.Equal(t, "required", reqs[0].ToolChoice)
	assert.NotEmpty(t, reqs[0].Tools)
}
