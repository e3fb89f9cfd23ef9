package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/wayfarer-labs/wayfarer/internal/core/domain"
	"github.com/wayfarer-labs/wayfarer/internal/core/ports/driven"
)

// fakeSource serves a fixed sequence of pages.
type fakeSource struct {
	pages      [][]domain.Document
	fetchCalls int32
	err        error
}

func (f *fakeSource) ListPosts(_ context.Context, page, _ int) ([]domain.Document, error) {
	atomic.AddInt32(&f.fetchCalls, 1)
	if f.err != nil {
		return nil, f.err
	}
	if page < 1 || page > len(f.pages) {
		return nil, nil
	}
	return f.pages[page-1], nil
}

// fakeEmbedder returns a fixed-dimension vector per call and records
// the peak number of in-flight calls.
type fakeEmbedder struct {
	embedFn     func(text string) ([]float32, error)
	inFlight    int32
	maxInFlight int32
	calls       int32
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	atomic.AddInt32(&f.calls, 1)
	current := atomic.AddInt32(&f.inFlight, 1)
	for {
		max := atomic.LoadInt32(&f.maxInFlight)
		if current <= max || atomic.CompareAndSwapInt32(&f.maxInFlight, max, current) {
			break
		}
	}
	defer atomic.AddInt32(&f.inFlight, -1)

	if f.embedFn != nil {
		return f.embedFn(text)
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int            { return 3 }
func (f *fakeEmbedder) ModelName() string          { return "fake-embedder" }
func (f *fakeEmbedder) Ping(context.Context) error { return nil }
func (f *fakeEmbedder) Close() error               { return nil }

// fakeStore keeps chunk sets in memory, keyed by document ID.
type fakeStore struct {
	mu           sync.Mutex
	byDocument   map[int64][]domain.Chunk
	replaceCalls int
	searchFn     func(query []float32, threshold float64, limit int) ([]domain.RetrievalMatch, error)
	replaceErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{byDocument: make(map[int64][]domain.Chunk)}
}

func (f *fakeStore) Replace(_ context.Context, documentID int64, chunks []domain.Chunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaceCalls++
	if f.replaceErr != nil {
		return f.replaceErr
	}
	stored := make([]domain.Chunk, len(chunks))
	copy(stored, chunks)
	f.byDocument[documentID] = stored
	return nil
}

func (f *fakeStore) Search(_ context.Context, query []float32, threshold float64, limit int) ([]domain.RetrievalMatch, error) {
	if f.searchFn != nil {
		return f.searchFn(query, threshold, limit)
	}
	return []domain.RetrievalMatch{}, nil
}

func (f *fakeStore) CountChunks(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, chunks := range f.byDocument {
		n += len(chunks)
	}
	return n, nil
}

func (f *fakeStore) CountDocuments(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byDocument), nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) chunksFor(documentID int64) []domain.Chunk {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byDocument[documentID]
}

// fakeLLM records the messages it was asked to complete.
type fakeLLM struct {
	mu       sync.Mutex
	messages []driven.ChatMessage
	answer   string
	err      error
}

func (f *fakeLLM) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append([]driven.ChatMessage(nil), messages...)
	if f.err != nil {
		return "", f.err
	}
	if f.answer == "" {
		return "a grounded answer", nil
	}
	return f.answer, nil
}

func (f *fakeLLM) ModelName() string          { return "fake-llm" }
func (f *fakeLLM) Ping(context.Context) error { return nil }
func (f *fakeLLM) Close() error               { return nil }

func (f *fakeLLM) lastMessages() []driven.ChatMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messages
}

// makeDocs builds n documents with simple two-sentence bodies.
func makeDocs(startID int64, n int) []domain.Document {
	docs := make([]domain.Document, n)
	for i := range docs {
		id := startID + int64(i)
		docs[i] = domain.Document{
			ID:    id,
			URL:   fmt.Sprintf("https://example.com/post-%d", id),
			Title: fmt.Sprintf("Post %d", id),
			Body:  fmt.Sprintf("<p>First sentence of post %d. Second sentence of post %d.</p>", id, id),
		}
	}
	return docs
}
