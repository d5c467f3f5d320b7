package chat

import (
	"fmt"
	"strings"

	"github.com/bookmydarshan/ragserver/internal/rerank"
)

// entrySeparator joins rendered context entries in the grounding prompt.
const entrySeparator = "\n\n---\n\n"

// ContextEntry is a ranked candidate that survived deduplication, tagged
// with its 1-based source index for citation.
type ContextEntry struct {
	// Index is the 1-based position of the entry after deduplication.
	Index int

	// Candidate is the surviving ranked candidate.
	Candidate rerank.RankedCandidate
}

// AssembledContext is the grounding material for one chat turn.
type AssembledContext struct {
	// Context is the rendered, source-labeled text passed to the generator.
	Context string

	// Entries lists the surviving candidates in source-index order.
	Entries []ContextEntry
}

// Assemble deduplicates ranked candidates by (document, chunk index),
// keeping the first occurrence in input order, and renders the survivors
// into a single source-labeled context string. Assembly is idempotent:
// the same ranked list always yields the same context, and a list with no
// duplicates passes through unchanged.
func Assemble(ranked []rerank.RankedCandidate) AssembledContext {
	type chunkKey struct {
		documentID string
		chunkIndex int
	}

	seen := make(map[chunkKey]bool, len(ranked))
	entries := make([]ContextEntry, 0, len(ranked))
	rendered := make([]string, 0, len(ranked))

	for _, c := range ranked {
		key := chunkKey{c.Metadata.DocumentID, c.Metadata.ChunkIndex}
		if seen[key] {
			continue
		}
		seen[key] = true

		index := len(entries) + 1
		entries = append(entries, ContextEntry{Index: index, Candidate: c})
		rendered = append(rendered, fmt.Sprintf("Source %d (%s):\n%s", index, c.Metadata.Filename, c.Text))
	}

	return AssembledContext{
		Context: strings.Join(rendered, entrySeparator),
		Entries: entries,
	}
}
