package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/dossierlab/dossier/agentcore"
)

// FinishToolName is the designated finish tool for explorer runs.
const FinishToolName = "finish"

// Argument structs drive the generated tool parameter schemas.

type saveMemoryArgs struct {
	Category      string  `json:"category" jsonschema:"required,description=One of project/opinion/skill/preference/habit"`
	Topic         string  `json:"topic" jsonschema:"required,description=Short topic label"`
	Content       string  `json:"content" jsonschema:"required,description=The extracted fact"`
	Confidence    float64 `json:"confidence" jsonschema:"required,description=Confidence between 0 and 1"`
	EvidenceQuote string  `json:"evidence_quote,omitempty" jsonschema:"description=Verbatim supporting quote"`
}

type saveFindingArgs struct {
	Text string `json:"text" jsonschema:"required,description=Free-text personality finding"`
}

type saveQuoteArgs struct {
	Context    string `json:"context" jsonschema:"required,description=Where the quote appeared"`
	Quote      string `json:"quote" jsonschema:"required,description=Verbatim quote"`
	SignalType string `json:"signal_type" jsonschema:"required,description=Behavioral signal the quote evidences"`
}

type saveContextEvidenceArgs struct {
	Key   string `json:"key" jsonschema:"required,description=Context key"`
	Quote string `json:"quote" jsonschema:"required,description=Supporting quote"`
}

type saveNodeArgs struct {
	ID    string `json:"id" jsonschema:"required,description=Stable node identifier"`
	Label string `json:"label" jsonschema:"required,description=Human-readable label"`
	Kind  string `json:"kind" jsonschema:"required,description=Node kind such as technology/person/project"`
}

type saveEdgeArgs struct {
	From     string `json:"from" jsonschema:"required,description=Source node id"`
	To       string `json:"to" jsonschema:"required,description=Target node id"`
	Relation string `json:"relation" jsonschema:"required,description=Relation label"`
}

type savePrincipleArgs struct {
	Statement string `json:"statement" jsonschema:"required,description=The decision principle"`
	Evidence  string `json:"evidence,omitempty" jsonschema:"description=Supporting evidence"`
}

type readEvidenceArgs struct {
	ID string `json:"id" jsonschema:"required,description=Evidence item id from list_evidence"`
}

type searchEvidenceArgs struct {
	Query string `json:"query" jsonschema:"required,description=Search text"`
}

// buildTools assembles the explorer tool set: save_* tools writing into the
// run's accumulator, browse tools bound to the evidence source, and the
// finish tool.
func buildTools(acc *accumulator, source Source) []agentcore.Tool {
	return []agentcore.Tool{
		{
			Name:        "save_memory",
			Description: "Save one structured fact about the subject (category, topic, content, confidence 0-1, optional evidence quote).",
			Parameters:  schemaFor(saveMemoryArgs{}),
			Handler:     saveMemoryHandler(acc, source.Name()),
		},
		{
			Name:        "save_finding",
			Description: "Save a free-text personality finding.",
			Parameters:  schemaFor(saveFindingArgs{}),
			Handler: func(_ context.Context, args map[string]any) (string, error) {
				text, ok := agentcore.StringArg(args, "text")
				if !ok || text == "" {
					return "", errors.New("text is required")
				}
				acc.addFinding(text)
				return "", nil
			},
		},
		{
			Name:        "save_behavioral_quote",
			Description: "Save a verbatim quote evidencing a behavioral signal.",
			Parameters:  schemaFor(saveQuoteArgs{}),
			Handler: func(_ context.Context, args map[string]any) (string, error) {
				quote, ok := agentcore.StringArg(args, "quote")
				if !ok || quote == "" {
					return "", errors.New("quote is required")
				}
				qctx, _ := agentcore.StringArg(args, "context")
				signal, _ := agentcore.StringArg(args, "signal_type")
				acc.addQuote(BehavioralQuote{Context: qctx, Quote: quote, SignalType: signal})
				return "", nil
			},
		},
		{
			Name:        "save_context_evidence",
			Description: "Attach a quote to one of the fixed context keys: " + strings.Join(ContextKeys, ", ") + ".",
			Parameters:  schemaFor(saveContextEvidenceArgs{}),
			Handler: func(_ context.Context, args map[string]any) (string, error) {
				key, _ := agentcore.StringArg(args, "key")
				quote, _ := agentcore.StringArg(args, "quote")
				if quote == "" {
					return "", errors.New("quote is required")
				}
				if !validContextKey(key) {
					return "", errors.Errorf("unknown context key %q, expected one of: %s", key, strings.Join(ContextKeys, ", "))
				}
				acc.addContextEvidence(key, quote)
				return "", nil
			},
		},
		{
			Name:        "save_knowledge_node",
			Description: "Add a node to the subject's knowledge graph.",
			Parameters:  schemaFor(saveNodeArgs{}),
			Handler: func(_ context.Context, args map[string]any) (string, error) {
				id, _ := agentcore.StringArg(args, "id")
				label, _ := agentcore.StringArg(args, "label")
				if id == "" || label == "" {
					return "", errors.New("id and label are required")
				}
				kind, _ := agentcore.StringArg(args, "kind")
				acc.addNode(KnowledgeNode{ID: id, Label: label, Kind: kind})
				return "", nil
			},
		},
		{
			Name:        "save_knowledge_edge",
			Description: "Relate two previously saved knowledge nodes.",
			Parameters:  schemaFor(saveEdgeArgs{}),
			Handler: func(_ context.Context, args map[string]any) (string, error) {
				from, _ := agentcore.StringArg(args, "from")
				to, _ := agentcore.StringArg(args, "to")
				relation, _ := agentcore.StringArg(args, "relation")
				if from == "" || to == "" || relation == "" {
					return "", errors.New("from, to and relation are required")
				}
				if !acc.hasNode(from) {
					return "", errors.Errorf("node %q has not been saved, call save_knowledge_node first", from)
				}
				if !acc.hasNode(to) {
					return "", errors.Errorf("node %q has not been saved, call save_knowledge_node first", to)
				}
				acc.addEdge(KnowledgeEdge{From: from, To: to, Relation: relation})
				return "", nil
			},
		},
		{
			Name:        "save_principle",
			Description: "Save a decision principle the subject appears to follow.",
			Parameters:  schemaFor(savePrincipleArgs{}),
			Handler: func(_ context.Context, args map[string]any) (string, error) {
				statement, _ := agentcore.StringArg(args, "statement")
				if statement == "" {
					return "", errors.New("statement is required")
				}
				evidence, _ := agentcore.StringArg(args, "evidence")
				acc.addPrinciple(Principle{Statement: statement, Evidence: evidence})
				return "", nil
			},
		},
		{
			Name:        "list_evidence",
			Description: "List the evidence items available in this source.",
			Handler: func(ctx context.Context, _ map[string]any) (string, error) {
				items, err := source.List(ctx)
				if err != nil {
					return "", err
				}
				return formatItems(items), nil
			},
		},
		{
			Name:        "read_evidence",
			Description: "Read one evidence item by id.",
			Parameters:  schemaFor(readEvidenceArgs{}),
			Handler: func(ctx context.Context, args map[string]any) (string, error) {
				id, _ := agentcore.StringArg(args, "id")
				if id == "" {
					return "", errors.New("id is required")
				}
				return source.Read(ctx, id)
			},
		},
		{
			Name:        "search_evidence",
			Description: "Search evidence items for a text query.",
			Parameters:  schemaFor(searchEvidenceArgs{}),
			Handler: func(ctx context.Context, args map[string]any) (string, error) {
				query, _ := agentcore.StringArg(args, "query")
				if query == "" {
					return "", errors.New("query is required")
				}
				items, err := source.Search(ctx, query)
				if err != nil {
					return "", err
				}
				if len(items) == 0 {
					return "no matches", nil
				}
				return formatItems(items), nil
			},
		},
		{
			Name:        FinishToolName,
			Description: "Signal that exploration is complete and the report should be assembled.",
			Handler: func(context.Context, map[string]any) (string, error) {
				return "", nil
			},
		},
	}
}

func saveMemoryHandler(acc *accumulator, sourceType string) agentcore.Handler {
	return func(_ context.Context, args map[string]any) (string, error) {
		category, _ := agentcore.StringArg(args, "category")
		topic, _ := agentcore.StringArg(args, "topic")
		content, _ := agentcore.StringArg(args, "content")
		if category == "" || topic == "" || content == "" {
			return "", errors.New("category, topic and content are required")
		}
		confidence, ok := agentcore.FloatArg(args, "confidence")
		if !ok {
			confidence = 0.5
		}
		if confidence < 0 || confidence > 1 {
			return "", errors.Errorf("confidence %v out of range [0,1]", confidence)
		}
		quote, _ := agentcore.StringArg(args, "evidence_quote")
		acc.addMemory(MemoryEntry{
			Category:      category,
			Topic:         topic,
			Content:       content,
			Confidence:    confidence,
			SourceType:    sourceType,
			EvidenceQuote: quote,
		})
		return fmt.Sprintf("saved memory %d", len(acc.memoryEntries)), nil
	}
}

func validContextKey(key string) bool {
	for _, k := range ContextKeys {
		if k == key {
			return true
		}
	}
	return false
}

func formatItems(items []EvidenceItem) string {
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}
