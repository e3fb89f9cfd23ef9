package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wayfarer-labs/wayfarer/internal/chunker"
	"github.com/wayfarer-labs/wayfarer/internal/core/domain"
	"github.com/wayfarer-labs/wayfarer/internal/core/ports/driven"
	"github.com/wayfarer-labs/wayfarer/internal/normalisers/html"
)

// Ingestion defaults.
const (
	// DefaultPerPage is the page size requested from the post source.
	DefaultPerPage = 10

	// DefaultEmbedWorkers bounds concurrent embedding calls for one
	// document's chunks.
	DefaultEmbedWorkers = 4

	// DefaultRunBudget time-boxes a full paginated run.
	DefaultRunBudget = 10 * time.Minute
)

// RunResult summarises a full paginated ingestion run.
type RunResult struct {
	Pages              int
	DocumentsProcessed int
	DocumentsFailed    int
	ChunksCreated      int
}

// IngestService pulls posts from the source and turns each into a
// freshly embedded chunk set: sanitise, chunk, embed, replace.
type IngestService struct {
	source   driven.PostSource
	store    driven.ChunkStore
	embedder driven.EmbeddingService
	chunker  *chunker.Chunker
	logger   *zap.Logger

	perPage   int
	workers   int
	runBudget time.Duration

	// replaceLocks serialises replaces per document so two overlapping
	// ingest triggers cannot interleave delete/insert for one post.
	replaceLocks keyedMutex
}

// IngestOption configures the ingest service.
type IngestOption func(*IngestService)

// WithPerPage sets the page size requested from the post source.
func WithPerPage(n int) IngestOption {
	return func(s *IngestService) {
		if n > 0 {
			s.perPage = n
		}
	}
}

// WithEmbedWorkers bounds concurrent embedding calls per document.
func WithEmbedWorkers(n int) IngestOption {
	return func(s *IngestService) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithRunBudget sets the wall-clock budget for a full paginated run.
func WithRunBudget(d time.Duration) IngestOption {
	return func(s *IngestService) {
		if d > 0 {
			s.runBudget = d
		}
	}
}

// NewIngestService creates the ingestion orchestrator.
func NewIngestService(
	source driven.PostSource,
	store driven.ChunkStore,
	embedder driven.EmbeddingService,
	ch *chunker.Chunker,
	logger *zap.Logger,
	opts ...IngestOption,
) *IngestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &IngestService{
		source:    source,
		store:     store,
		embedder:  embedder,
		chunker:   ch,
		logger:    logger,
		perPage:   DefaultPerPage,
		workers:   DefaultEmbedWorkers,
		runBudget: DefaultRunBudget,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IngestPage fetches and processes one page of posts. A failure on one
// document is counted and logged but does not abort the page; an
// upstream listing failure aborts the page with an error.
func (s *IngestService) IngestPage(ctx context.Context, page, perPage int) (domain.PageResult, error) {
	if perPage <= 0 {
		perPage = s.perPage
	}
	return s.ingestPage(ctx, page, perPage, time.Time{})
}

// Run ingests pages starting from 1 until the source returns an empty
// page. The run is time-boxed: when the budget is exhausted the run
// stops cleanly between documents, never mid-replace.
func (s *IngestService) Run(ctx context.Context) (RunResult, error) {
	deadline := time.Now().Add(s.runBudget)

	var result RunResult
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if time.Now().After(deadline) {
			s.logger.Warn("ingest run budget exhausted, stopping",
				zap.Int("pages_done", result.Pages))
			return result, nil
		}

		pageResult, err := s.ingestPage(ctx, page, s.perPage, deadline)
		result.DocumentsProcessed += pageResult.DocumentsProcessed
		result.DocumentsFailed += pageResult.DocumentsFailed
		result.ChunksCreated += pageResult.ChunksCreated
		if err != nil {
			return result, fmt.Errorf("ingest page %d: %w", page, err)
		}
		if pageResult.Empty {
			return result, nil
		}
		result.Pages++
	}
}

// ingestPage does the per-page work. A zero deadline disables the
// budget check.
func (s *IngestService) ingestPage(ctx context.Context, page, perPage int, deadline time.Time) (domain.PageResult, error) {
	result := domain.PageResult{Page: page}

	docs, err := s.source.ListPosts(ctx, page, perPage)
	if err != nil {
		return result, fmt.Errorf("list posts: %w", err)
	}
	if len(docs) == 0 {
		result.Empty = true
		s.logger.Info("no more posts", zap.Int("page", page))
		return result, nil
	}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			s.logger.Warn("ingest budget exhausted mid-page",
				zap.Int("page", page),
				zap.Int("documents_done", result.DocumentsProcessed))
			return result, nil
		}

		created, err := s.processDocument(ctx, doc)
		if err != nil {
			result.DocumentsFailed++
			s.logger.Error("document ingest failed",
				zap.Int64("document_id", doc.ID),
				zap.String("url", doc.URL),
				zap.Error(err))
			continue
		}
		result.DocumentsProcessed++
		result.ChunksCreated += created

		s.logger.Debug("document ingested",
			zap.Int64("document_id", doc.ID),
			zap.Int("chunks", created))
	}

	return result, nil
}

// processDocument runs sanitise -> chunk -> embed -> replace for one
// post. The replace only happens after every chunk embedded; any
// embedding failure leaves the previously stored set untouched.
func (s *IngestService) processDocument(ctx context.Context, doc domain.Document) (int, error) {
	text := html.Sanitise(doc.Body)
	chunks := s.chunker.Chunk(doc, text)

	if err := s.embedChunks(ctx, chunks); err != nil {
		return 0, err
	}

	s.replaceLocks.Lock(doc.ID)
	defer s.replaceLocks.Unlock(doc.ID)

	if err := s.store.Replace(ctx, doc.ID, chunks); err != nil {
		return 0, fmt.Errorf("replace chunks: %w", err)
	}
	return len(chunks), nil
}

// embedChunks fills in embeddings for all chunks with a bounded number
// of concurrent calls. Each goroutine writes only its own index, so
// no further synchronisation of the slice is needed.
func (s *IngestService) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i := range chunks {
		g.Go(func() error {
			embedding, err := s.embedder.Embed(gctx, chunks[i].Content)
			if err != nil {
				return fmt.Errorf("embed chunk %d: %w", chunks[i].Ordinal, err)
			}
			chunks[i].Embedding = embedding
			return nil
		})
	}

	return g.Wait()
}

// keyedMutex provides at-most-one holder per key. Entries are
// reference-counted and removed when the last holder releases.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) Lock(key int64) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[int64]*lockEntry)
	}
	entry, ok := k.locks[key]
	if !ok {
		entry = &lockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
}

func (k *keyedMutex) Unlock(key int64) {
	k.mu.Lock()
	entry := k.locks[key]
	entry.refs--
	if entry.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	entry.mu.Unlock()
}
