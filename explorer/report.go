package explorer

// Memory entry categories used by the save_memory tool.
const (
	CategoryProject    = "project"
	CategoryOpinion    = "opinion"
	CategorySkill      = "skill"
	CategoryPreference = "preference"
	CategoryHabit      = "habit"
)

// ContextKeys is the fixed set of keys accepted by save_context_evidence.
var ContextKeys = []string{
	"communication_style",
	"decision_making",
	"technical_depth",
	"values",
	"collaboration",
}

// MemoryEntry is one structured fact extracted from evidence.
type MemoryEntry struct {
	Category      string  `json:"category"`
	Topic         string  `json:"topic"`
	Content       string  `json:"content"`
	Confidence    float64 `json:"confidence"`
	SourceType    string  `json:"source_type"`
	EvidenceQuote string  `json:"evidence_quote,omitempty"`
}

// BehavioralQuote is a verbatim quote evidencing a behavioral signal.
type BehavioralQuote struct {
	Context    string `json:"context"`
	Quote      string `json:"quote"`
	SignalType string `json:"signal_type"`
}

// KnowledgeNode is one entity in the extracted knowledge graph.
type KnowledgeNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Kind  string `json:"kind"`
}

// KnowledgeEdge relates two knowledge nodes.
type KnowledgeEdge struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Relation string `json:"relation"`
}

// Principle is a decision principle inferred from evidence.
type Principle struct {
	Statement string `json:"statement"`
	Evidence  string `json:"evidence,omitempty"`
}

// ExplorerReport is the immutable output of one explorer run over one
// evidence source. It is built once from the run's accumulator (or from
// fallback recovery) and not mutated afterwards.
type ExplorerReport struct {
	SourceName       string              `json:"source_name"`
	Findings         []string            `json:"personality_findings"`
	MemoryEntries    []MemoryEntry       `json:"memory_entries"`
	BehavioralQuotes []BehavioralQuote   `json:"behavioral_quotes"`
	ContextEvidence  map[string][]string `json:"context_evidence"`
	KnowledgeNodes   []KnowledgeNode     `json:"knowledge_nodes"`
	KnowledgeEdges   []KnowledgeEdge     `json:"knowledge_edges"`
	Principles       []Principle         `json:"principles"`
	TurnsUsed        int                 `json:"turns_used"`
	FellBack         bool                `json:"fell_back"`
}

// Empty reports whether the run extracted nothing at all.
func (r *ExplorerReport) Empty() bool {
	return len(r.Findings) == 0 &&
		len(r.MemoryEntries) == 0 &&
		len(r.BehavioralQuotes) == 0 &&
		len(r.ContextEvidence) == 0 &&
		len(r.KnowledgeNodes) == 0 &&
		len(r.KnowledgeEdges) == 0 &&
		len(r.Principles) == 0
}
