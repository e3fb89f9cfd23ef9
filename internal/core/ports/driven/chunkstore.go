package driven

import (
	"context"

	"github.com/wayfarer-labs/wayfarer/internal/core/domain"
)

// ChunkStore persists chunks with their embeddings and answers
// similarity queries over them.
type ChunkStore interface {
	// Replace atomically swaps the stored chunk set for a document.
	// Either every previous chunk for documentID is replaced by the new
	// set, or on failure the previous set remains entirely intact. A
	// reader must never observe an empty or partial set for a document
	// being re-ingested.
	Replace(ctx context.Context, documentID int64, chunks []domain.Chunk) error

	// Search returns chunks whose cosine similarity to query is at
	// least threshold, ordered by descending similarity and truncated
	// to limit entries. An empty result is not an error.
	Search(ctx context.Context, query []float32, threshold float64, limit int) ([]domain.RetrievalMatch, error)

	// CountChunks reports the number of stored chunks.
	CountChunks(ctx context.Context) (int, error)

	// CountDocuments reports the number of documents with stored chunks.
	CountDocuments(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
