// Package chunker splits sanitised text into bounded-length passages
// at sentence boundaries.
package chunker

import (
	"strings"

	"github.com/google/uuid"

	"github.com/wayfarer-labs/wayfarer/internal/core/domain"
)

// DefaultMaxLength is the default passage bound in characters.
const DefaultMaxLength = 1500

// Chunker turns a document's sanitised text into ordered chunks.
type Chunker struct {
	maxLength int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMaxLength sets the passage bound in characters.
func WithMaxLength(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.maxLength = n
		}
	}
}

// New creates a new chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{maxLength: DefaultMaxLength}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MaxLength returns the configured passage bound.
func (c *Chunker) MaxLength() int {
	return c.maxLength
}

// Chunk splits text into ordered chunks attributed to doc.
// Empty text yields no chunks.
func (c *Chunker) Chunk(doc domain.Document, text string) []domain.Chunk {
	passages := Split(text, c.maxLength)
	if len(passages) == 0 {
		return nil
	}

	chunks := make([]domain.Chunk, len(passages))
	for i, passage := range passages {
		chunks[i] = domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			URL:        doc.URL,
			Title:      doc.Title,
			Ordinal:    i,
			Content:    passage,
		}
	}
	return chunks
}

// Split cuts text into passages of at most maxLength characters.
//
// Sentences are accumulated into a buffer; a sentence that would push
// the buffer past maxLength flushes the buffer first and starts a new
// one. A lone sentence longer than maxLength becomes its own oversized
// passage rather than being cut mid-sentence, so callers must tolerate
// passages above the nominal bound. Trailing content is never dropped.
func Split(text string, maxLength int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var passages []string
	var buf strings.Builder

	for _, sentence := range splitSentences(text) {
		if buf.Len() > 0 && buf.Len()+len(sentence) > maxLength {
			passages = append(passages, buf.String())
			buf.Reset()
		}
		buf.WriteString(sentence)
		buf.WriteByte(' ')
	}
	if buf.Len() > 0 {
		passages = append(passages, buf.String())
	}
	return passages
}

// splitSentences cuts text after terminal punctuation followed by
// whitespace. The punctuation stays with its sentence; the whitespace
// between sentences is consumed.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	i := 0
	for i < len(text) {
		ch := text[i]
		if (ch == '.' || ch == '?' || ch == '!') && i+1 < len(text) && isSpace(text[i+1]) {
			sentences = append(sentences, text[start:i+1])
			j := i + 1
			for j < len(text) && isSpace(text[j]) {
				j++
			}
			start = j
			i = j
			continue
		}
		i++
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
