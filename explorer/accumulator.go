package explorer

// accumulator holds everything one explorer run extracts. It is owned by a
// single run, mutated only through tool handlers, and read exactly once at
// the end to build the ExplorerReport. Runs never share an accumulator, so
// no locking is needed.
type accumulator struct {
	sourceName      string
	findings        []string
	memoryEntries   []MemoryEntry
	quotes          []BehavioralQuote
	contextEvidence map[string][]string
	nodes           []KnowledgeNode
	edges           []KnowledgeEdge
	principles      []Principle
}

func newAccumulator(sourceName string) *accumulator {
	return &accumulator{
		sourceName:      sourceName,
		contextEvidence: make(map[string][]string),
	}
}

func (a *accumulator) addFinding(text string) {
	a.findings = append(a.findings, text)
}

func (a *accumulator) addMemory(e MemoryEntry) {
	a.memoryEntries = append(a.memoryEntries, e)
}

func (a *accumulator) addQuote(q BehavioralQuote) {
	a.quotes = append(a.quotes, q)
}

func (a *accumulator) addContextEvidence(key, quote string) {
	a.contextEvidence[key] = append(a.contextEvidence[key], quote)
}

func (a *accumulator) addNode(n KnowledgeNode) {
	a.nodes = append(a.nodes, n)
}

func (a *accumulator) addEdge(e KnowledgeEdge) {
	a.edges = append(a.edges, e)
}

func (a *accumulator) addPrinciple(p Principle) {
	a.principles = append(a.principles, p)
}

// hasNode reports whether a node with the given id was saved earlier in the
// run. Edge handlers use it to point the model at missing endpoints.
func (a *accumulator) hasNode(id string) bool {
	for _, n := range a.nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}

// report finalizes the accumulated state into an immutable ExplorerReport.
func (a *accumulator) report() *ExplorerReport {
	r := &ExplorerReport{
		SourceName:       a.sourceName,
		Findings:         a.findings,
		MemoryEntries:    a.memoryEntries,
		BehavioralQuotes: a.quotes,
		KnowledgeNodes:   a.nodes,
		KnowledgeEdges:   a.edges,
		Principles:       a.principles,
	}
	if len(a.contextEvidence) > 0 {
		r.ContextEvidence = a.contextEvidence
	}
	return r
}
