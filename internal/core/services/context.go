package services

import (
	"fmt"
	"strings"

	"github.com/wayfarer-labs/wayfarer/internal/core/domain"
)

// DefaultHistoryLimit is the number of prior conversation turns kept
// when building the generation request.
const DefaultHistoryLimit = 4

// ContextSeparator joins the labelled context blocks handed to answer
// generation.
const ContextSeparator = "\n\n---\n\n"

// ContextBuilder turns retrieval matches into the grounding context,
// the deduplicated source list, and a bounded conversation history.
type ContextBuilder struct {
	historyLimit int
}

// NewContextBuilder creates a context builder. A non-positive history
// limit falls back to the default.
func NewContextBuilder(historyLimit int) *ContextBuilder {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &ContextBuilder{historyLimit: historyLimit}
}

// Context renders the retrieved chunks as labelled blocks in retrieval
// order, highest similarity first. Empty when nothing was retrieved.
func (b *ContextBuilder) Context(matches []domain.RetrievalMatch) string {
	blocks := make([]string, len(matches))
	for i, match := range matches {
		blocks[i] = fmt.Sprintf("SOURCE: %s (%s)\nCONTENT: %s",
			match.Chunk.Title, match.Chunk.URL, match.Chunk.Content)
	}
	return strings.Join(blocks, ContextSeparator)
}

// Sources projects matches to (title, url) pairs, removing duplicates
// while preserving first-occurrence order.
func (b *ContextBuilder) Sources(matches []domain.RetrievalMatch) []domain.Source {
	seen := make(map[domain.Source]struct{}, len(matches))
	sources := make([]domain.Source, 0, len(matches))
	for _, match := range matches {
		src := domain.Source{Title: match.Chunk.Title, URL: match.Chunk.URL}
		if _, ok := seen[src]; ok {
			continue
		}
		seen[src] = struct{}{}
		sources = append(sources, src)
	}
	return sources
}

// BoundHistory truncates history to the most recent turns within the
// configured limit. The current question is appended by the caller and
// never counts against the limit.
func (b *ContextBuilder) BoundHistory(history []domain.ConversationTurn) []domain.ConversationTurn {
	if len(history) <= b.historyLimit {
		return history
	}
	return history[len(history)-b.historyLimit:]
}
