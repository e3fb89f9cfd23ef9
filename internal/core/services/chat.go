package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/wayfarer-labs/wayfarer/internal/core/domain"
	"github.com/wayfarer-labs/wayfarer/internal/core/ports/driven"
)

// answerTemperature keeps generation grounded without being robotic.
const answerTemperature = 0.5

const systemPromptFormat = `You are the travel blog's trip planning assistant.
Use the following context snippets from the blog to answer the user's question.

Rules:
- Only answer based on the provided context.
- If the context does not contain relevant information, say that you could not find anything about that on the blog. Do not make anything up.
- Be friendly, enthusiastic, and concise.
- Format your answer in Markdown.
- Do NOT invent hotels, restaurants or places not mentioned in the text.

Context:
%s`

// Answer is the response to one question.
type Answer struct {
	// Answer is the generated reply, in Markdown.
	Answer string

	// Sources lists the posts that grounded the answer, deduplicated,
	// in retrieval order.
	Sources []domain.Source
}

// ChatService answers questions about the blog: embed the question,
// retrieve similar chunks, assemble a grounded prompt, generate.
type ChatService struct {
	embedder  driven.EmbeddingService
	retriever *Retriever
	builder   *ContextBuilder
	llm       driven.LLMService
	logger    *zap.Logger
}

// NewChatService creates the query orchestrator.
func NewChatService(
	embedder driven.EmbeddingService,
	retriever *Retriever,
	builder *ContextBuilder,
	llm driven.LLMService,
	logger *zap.Logger,
) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		embedder:  embedder,
		retriever: retriever,
		builder:   builder,
		llm:       llm,
		logger:    logger,
	}
}

// Ask answers one question grounded in indexed blog content. Any stage
// failing aborts the whole request; there are no partial answers.
func (s *ChatService) Ask(ctx context.Context, message string, history []domain.ConversationTurn) (*Answer, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", domain.ErrInvalidInput)
	}

	// Embedding models treat newlines as significant; flatten them.
	embedding, err := s.embedder.Embed(ctx, strings.ReplaceAll(message, "\n", " "))
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	matches, err := s.retriever.Retrieve(ctx, embedding)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	s.logger.Debug("retrieved chunks", zap.Int("matches", len(matches)))

	contextText := s.builder.Context(matches)
	sources := s.builder.Sources(matches)

	messages := make([]driven.ChatMessage, 0, len(history)+2)
	messages = append(messages, driven.ChatMessage{
		Role:    "system",
		Content: fmt.Sprintf(systemPromptFormat, contextText),
	})
	for _, turn := range s.builder.BoundHistory(history) {
		messages = append(messages, driven.ChatMessage{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, driven.ChatMessage{Role: "user", Content: message})

	answer, err := s.llm.Chat(ctx, messages, driven.ChatOptions{Temperature: answerTemperature})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	return &Answer{
		Answer:  answer,
		Sources: sources,
	}, nil
}
