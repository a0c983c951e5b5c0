// Package report merges explorer output into a unified dossier and hosts the
// parallel multi-agent collectors built on the same engine. Everything here
// is pure assembly; no LLM calls are made.
package report

import (
	"sort"

	"github.com/dossierlab/dossier/explorer"
)

// SourcedFinding is a free-text finding with the source it came from.
type SourcedFinding struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// Dossier is the merged output of a set of explorer runs.
type Dossier struct {
	Findings         []SourcedFinding           `json:"findings"`
	MemoryEntries    []explorer.MemoryEntry     `json:"memory_entries"`
	BehavioralQuotes []explorer.BehavioralQuote `json:"behavioral_quotes"`
	ContextEvidence  map[string][]string        `json:"context_evidence"`
	KnowledgeNodes   []explorer.KnowledgeNode   `json:"knowledge_nodes"`
	KnowledgeEdges   []explorer.KnowledgeEdge   `json:"knowledge_edges"`
	Principles       []explorer.Principle       `json:"principles"`
	Sources          []string                   `json:"sources"`
}

// Assemble merges explorer reports into one dossier. Memory entries are
// deduplicated by (category, topic), keeping the highest-confidence entry;
// graph records and principles are deduplicated by identity; findings carry
// source attribution. Nil reports are skipped.
func Assemble(reports []*explorer.ExplorerReport) *Dossier {
	d := &Dossier{ContextEvidence: make(map[string][]string)}

	type memKey struct{ category, topic string }
	bestMemory := make(map[memKey]explorer.MemoryEntry)
	var memOrder []memKey

	seenNodes := make(map[string]bool)
	type edgeKey struct{ from, to, relation string }
	seenEdges := make(map[edgeKey]bool)
	seenPrinciples := make(map[string]bool)

	for _, r := range reports {
		if r == nil {
			continue
		}
		d.Sources = append(d.Sources, r.SourceName)

		for _, f := range r.Findings {
			d.Findings = append(d.Findings, SourcedFinding{Source: r.SourceName, Text: f})
		}

		for _, m := range r.MemoryEntries {
			key := memKey{m.Category, m.Topic}
			existing, ok := bestMemory[key]
			if !ok {
				memOrder = append(memOrder, key)
				bestMemory[key] = m
				continue
			}
			if m.Confidence > existing.Confidence {
				bestMemory[key] = m
			}
		}

		d.BehavioralQuotes = append(d.BehavioralQuotes, r.BehavioralQuotes...)

		for key, quotes := range r.ContextEvidence {
			d.ContextEvidence[key] = append(d.ContextEvidence[key], quotes...)
		}

		for _, n := range r.KnowledgeNodes {
			if !seenNodes[n.ID] {
				seenNodes[n.ID] = true
				d.KnowledgeNodes = append(d.KnowledgeNodes, n)
			}
		}
		for _, e := range r.KnowledgeEdges {
			key := edgeKey{e.From, e.To, e.Relation}
			if !seenEdges[key] {
				seenEdges[key] = true
				d.KnowledgeEdges = append(d.KnowledgeEdges, e)
			}
		}
		for _, p := range r.Principles {
			if !seenPrinciples[p.Statement] {
				seenPrinciples[p.Statement] = true
				d.Principles = append(d.Principles, p)
			}
		}
	}

	for _, key := range memOrder {
		d.MemoryEntries = append(d.MemoryEntries, bestMemory[key])
	}
	sort.SliceStable(d.MemoryEntries, func(i, j int) bool {
		return d.MemoryEntries[i].Confidence > d.MemoryEntries[j].Confidence
	})

	if len(d.ContextEvidence) == 0 {
		d.ContextEvidence = nil
	}
	return d
}
