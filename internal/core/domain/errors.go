package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates the ingestion secret did not match.
	// No pipeline work is performed.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUpstreamFetch indicates the document source was unreachable or
	// answered with a non-success status.
	ErrUpstreamFetch = errors.New("upstream fetch failed")

	// ErrEmbeddingService indicates an embedding call failed. The
	// affected document's stored chunks are left untouched.
	ErrEmbeddingService = errors.New("embedding service failed")

	// ErrStore indicates a chunk store replace or search failure.
	ErrStore = errors.New("store operation failed")

	// ErrLLMService indicates the answer generation call failed.
	ErrLLMService = errors.New("llm service failed")
)
