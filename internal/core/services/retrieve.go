package services

import (
	"context"

	"github.com/wayfarer-labs/wayfarer/internal/core/domain"
	"github.com/wayfarer-labs/wayfarer/internal/core/ports/driven"
)

// Default retrieval policy.
const (
	// DefaultThreshold is the minimum cosine similarity a chunk must
	// reach to count as relevant.
	DefaultThreshold = 0.5

	// DefaultLimit is the maximum number of chunks handed to answer
	// generation.
	DefaultLimit = 8
)

// Retriever returns the chunks most similar to a query vector. It owns
// only the threshold/limit policy; ranking is the store's job.
type Retriever struct {
	store     driven.ChunkStore
	threshold float64
	limit     int
}

// NewRetriever creates a retriever. Non-positive threshold or limit
// fall back to the defaults.
func NewRetriever(store driven.ChunkStore, threshold float64, limit int) *Retriever {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Retriever{
		store:     store,
		threshold: threshold,
		limit:     limit,
	}
}

// Retrieve returns the best matches for the query vector, most similar
// first. No matches is an empty slice, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query []float32) ([]domain.RetrievalMatch, error) {
	return r.store.Search(ctx, query, r.threshold, r.limit)
}
