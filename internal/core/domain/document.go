package domain

// Document is a blog post as listed by the upstream CMS.
// It is read-only to this system and re-fetched on every ingestion run.
type Document struct {
	// ID is the CMS post identifier.
	ID int64

	// URL is the canonical post URL.
	URL string

	// Title is the human-readable post title.
	Title string

	// Body is the raw rendered HTML body before sanitisation.
	Body string
}

// Chunk is a bounded-length passage of a document, the unit of
// embedding and retrieval. Chunks are created wholesale per ingestion
// run and replaced as a set, never mutated in place.
type Chunk struct {
	// ID is the surrogate identifier assigned at ingestion time.
	ID string

	// DocumentID links back to the post this chunk was cut from.
	DocumentID int64

	// URL is the canonical URL of the originating post.
	URL string

	// Title is the title of the originating post.
	Title string

	// Ordinal is the position of this chunk within its document.
	Ordinal int

	// Content is the passage text. Non-empty; at most the configured
	// maximum length unless a single sentence alone exceeds it.
	Content string

	// Embedding is the vector representation for similarity search.
	// Its dimension is fixed by the embedding model.
	Embedding []float32
}

// Source is the (title, url) projection of a chunk, used to report
// which posts grounded an answer. Derived per query, never persisted.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// RetrievalMatch pairs a retrieved chunk with its similarity to the
// query vector. Score is cosine similarity in [-1, 1].
type RetrievalMatch struct {
	Chunk Chunk
	Score float64
}

// ConversationTurn is one prior message of the caller's dialogue,
// most-recent-last.
type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// PageResult summarises one ingested page of documents.
type PageResult struct {
	// Page is the 1-based page number that was fetched.
	Page int

	// DocumentsProcessed counts documents whose chunk sets were replaced.
	DocumentsProcessed int

	// DocumentsFailed counts documents skipped because sanitising,
	// embedding or storing failed. Their previously stored chunks are
	// left untouched.
	DocumentsFailed int

	// ChunksCreated counts chunks written across all processed documents.
	ChunksCreated int

	// Empty reports that the upstream returned no documents for this
	// page, which terminates a paginated run.
	Empty bool
}
