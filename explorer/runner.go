package explorer

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dossierlab/dossier/agentcore"
	"github.com/dossierlab/dossier/llmclient"
)

const explorerSystemPrompt = `You are an evidence analyst building a dossier on a software developer.
Browse the evidence with list_evidence, read_evidence and search_evidence, and record
everything noteworthy with the save_* tools: structured memories, behavioral quotes,
context evidence, knowledge graph nodes and edges, and decision principles.
Call finish when the evidence is exhausted.`

const explorerFallbackPrompt = `The tool-calling interface is unavailable. Respond with a single JSON
object describing what you learned, with fields: "summary" (string), "findings"
(array of strings), "projects" and "opinions" (arrays of {"topic","content","confidence"}).
Output only the JSON object.`

// Config configures a Runner shared across explorer runs.
type Config struct {
	Client     *llmclient.Client
	Model      string
	Provider   string
	APIKey     string
	MaxTurns   int
	RetryDelay time.Duration
}

// Runner executes explorer runs over evidence sources.
type Runner struct {
	cfg Config
}

// NewRunner creates a runner. Zero-valued config fields fall back to engine
// defaults.
func NewRunner(cfg Config) *Runner {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = 30
	}
	return &Runner{cfg: cfg}
}

// Run explores one evidence source to completion and always returns a
// report. Provider failure degrades through the engine's fallback path and,
// as a last resort, into fallback JSON recovery; the report may be empty but
// the call never fails.
func (r *Runner) Run(ctx context.Context, source Source) *ExplorerReport {
	acc := newAccumulator(source.Name())

	engine := agentcore.NewEngine(agentcore.Config{
		Client:             r.cfg.Client,
		Model:              r.cfg.Model,
		Provider:           r.cfg.Provider,
		APIKey:             r.cfg.APIKey,
		SystemPrompt:       explorerSystemPrompt,
		UserPrompt:         "Explore the evidence source " + source.Name() + " and build the dossier.",
		Tools:              buildTools(acc, source),
		ToolChoiceStrategy: agentcore.StrategyRequiredUntilFinish,
		FinishToolName:     FinishToolName,
		MaxTurns:           r.cfg.MaxTurns,
		FallbackPrompt:     explorerFallbackPrompt,
		RetryDelay:         r.cfg.RetryDelay,
	})

	res := engine.Run(ctx)

	report := acc.report()
	report.TurnsUsed = res.TurnsUsed
	report.FellBack = res.FellBack

	if res.FellBack && report.Empty() && res.FinalResponse != nil {
		recoverReport(report, *res.FinalResponse)
	}

	log.Debug().
		Str("source", source.Name()).
		Int("turns", res.TurnsUsed).
		Int("memories", len(report.MemoryEntries)).
		Int("findings", len(report.Findings)).
		Bool("fell_back", res.FellBack).
		Msg("explorer run complete")

	return report
}

// fallbackEntry tolerates both {"topic","content","confidence"} objects and
// bare strings in fallback JSON.
type fallbackEntry struct {
	Topic      string  `json:"topic"`
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
}

func (e *fallbackEntry) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		e.Content = s
		e.Confidence = 0.5
		return nil
	}
	type plain fallbackEntry
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*e = fallbackEntry(p)
	return nil
}

type fallbackReport struct {
	Summary  string          `json:"summary"`
	Findings []string        `json:"findings"`
	Projects []fallbackEntry `json:"projects"`
	Opinions []fallbackEntry `json:"opinions"`
}

// recoverReport parses fallback JSON into the report shape. If parsing
// fails, the raw text is preserved as a single free-text finding so nothing
// is discarded.
func recoverReport(report *ExplorerReport, raw string) {
	var fb fallbackReport
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &fb); err != nil {
		log.Warn().Str("source", report.SourceName).Err(err).Msg("fallback JSON unparseable, keeping raw text")
		report.Findings = append(report.Findings, raw)
		return
	}

	if fb.Summary != "" {
		report.Findings = append(report.Findings, fb.Summary)
	}
	report.Findings = append(report.Findings, fb.Findings...)
	for _, p := range fb.Projects {
		report.MemoryEntries = append(report.MemoryEntries, fallbackMemory(CategoryProject, p, report.SourceName))
	}
	for _, o := range fb.Opinions {
		report.MemoryEntries = append(report.MemoryEntries, fallbackMemory(CategoryOpinion, o, report.SourceName))
	}

	// A JSON object that decoded but carried nothing still gets the raw
	// text so a human can inspect it.
	if report.Empty() {
		report.Findings = append(report.Findings, raw)
	}
}

func fallbackMemory(category string, e fallbackEntry, sourceType string) MemoryEntry {
	topic := e.Topic
	if topic == "" {
		topic = category
	}
	confidence := e.Confidence
	if confidence <= 0 || confidence > 1 {
		confidence = 0.5
	}
	return MemoryEntry{
		Category:   category,
		Topic:      topic,
		Content:    e.Content,
		Confidence: confidence,
		SourceType: sourceType,
	}
}

// stripCodeFence removes a surrounding markdown code fence some models wrap
// JSON answers in.
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
