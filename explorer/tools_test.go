package explorer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dossierlab/dossier/agentcore"
)

func toolByName(t *testing.T, tools []agentcore.Tool, name string) agentcore.Tool {
	t.Helper()
	for _, tool := range tools {
		if tool.Name == name {
			return tool
		}
	}
	t.Fatalf("tool %s not found", name)
	return agentcore.Tool{}
}

func testTools(t *testing.T) (*accumulator, []agentcore.Tool) {
	t.Helper()
	acc := newAccumulator("github")
	source := NewMemorySource("github").
		Add("pr-1", "Fix race in worker pool", "I always add a failing test first.").
		Add("issue-2", "Discussion about ORMs", "Raw SQL beats ORMs for anything non-trivial.")
	return acc, buildTools(acc, source)
}

func TestSaveMemoryTool(t *testing.T) {
	acc, tools := testTools(t)
	save := toolByName(t, tools, "save_memory")

	obs, err := save.Handler(context.Background(), map[string]any{
		"category":       "opinion",
		"topic":          "ORMs",
		"content":        "Prefers raw SQL over ORMs",
		"confidence":     0.9,
		"evidence_quote": "Raw SQL beats ORMs",
	})
	require.NoError(t, err)
	assert.Contains(t, obs, "saved memory")

	require.Len(t, acc.memoryEntries, 1)
	entry := acc.memoryEntries[0]
	assert.Equal(t, "opinion", entry.Category)
	assert.Equal(t, "github", entry.SourceType)
	assert.InDelta(t, 0.9, entry.Confidence, 1e-9)
}

func TestSaveMemoryValidation(t *testing.T) {
	acc, tools := testTools(t)
	save := toolByName(t, tools, "save_memory")

	_, err := save.Handler(context.Background(), map[string]any{"category": "opinion"})
	assert.Error(t, err, "missing topic and content must fail")

	_, err = save.Handler(context.Background(), map[string]any{
		"category": "opinion", "topic": "t", "content": "c", "confidence": 1.5,
	})
	assert.Error(t, err, "out-of-range confidence must fail")
	assert.Empty(t, acc.memoryEntries)
}

func TestSaveContextEvidenceRejectsUnknownKey(t *testing.T) {
	acc, tools := testTools(t)
	save := toolByName(t, tools, "save_context_evidence")

	_, err := save.Handler(context.Background(), map[string]any{"key": "astrology", "quote": "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown context key")

	_, err = save.Handler(context.Background(), map[string]any{"key": "values", "quote": "ship small"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ship small"}, acc.contextEvidence["values"])
}

func TestKnowledgeEdgeRequiresNodes(t *testing.T) {
	acc, tools := testTools(t)
	node := toolByName(t, tools, "save_knowledge_node")
	edge := toolByName(t, tools, "save_knowledge_edge")

	_, err := edge.Handler(context.Background(), map[string]any{"from": "go", "to": "grpc", "relation": "uses"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save_knowledge_node first")

	for _, n := range []map[string]any{
		{"id": "go", "label": "Go", "kind": "technology"},
		{"id": "grpc", "label": "gRPC", "kind": "technology"},
	} {
		_, err := node.Handler(context.Background(), n)
		require.NoError(t, err)
	}

	_, err = edge.Handler(context.Background(), map[string]any{"from": "go", "to": "grpc", "relation": "uses"})
	require.NoError(t, err)
	require.Len(t, acc.edges, 1)
	assert.Equal(t, "uses", acc.edges[0].Relation)
}

func TestBrowseTools(t *testing.T) {
	_, tools := testTools(t)

	list := toolByName(t, tools, "list_evidence")
	obs, err := list.Handler(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, obs, "pr-1")
	assert.Contains(t, obs, "issue-2")

	read := toolByName(t, tools, "read_evidence")
	obs, err = read.Handler(context.Background(), map[string]any{"id": "issue-2"})
	require.NoError(t, err)
	assert.Contains(t, obs, "Raw SQL")

	_, err = read.Handler(context.Background(), map[string]any{"id": "missing"})
	assert.Error(t, err)

	search := toolByName(t, tools, "search_evidence")
	obs, err = search.Handler(context.Background(), map[string]any{"query": "race"})
	require.NoError(t, err)
	assert.Contains(t, obs, "pr-1")
	assert.NotContains(t, obs, "issue-2")

	obs, err = search.Handler(context.Background(), map[string]any{"query": "kubernetes"})
	require.NoError(t, err)
	assert.Equal(t, "no matches", obs)
}

func TestToolSchemasAreObjects(t *testing.T) {
	_, tools := testTools(t)
	for _, tool := range tools {
		if tool.Parameters == nil {
			continue
		}
		assert.Equal(t, "object", tool.Parameters["type"], "tool %s schema", tool.Name)
	}

	save := toolByName(t, tools, "save_memory")
	props, ok := save.Parameters["properties"].(map[string]any)
	require.True(t, ok, "save_memory schema has no properties")
	for _, field := range []string{"category", "topic", "content", "confidence"} {
		assert.Contains(t, props, field)
	}
}
