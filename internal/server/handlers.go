package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/wayfarer-labs/wayfarer/internal/core/domain"
)

type chatRequest struct {
	Message string                    `json:"message"`
	History []domain.ConversationTurn `json:"history"`
}

type chatResponse struct {
	Answer  string          `json:"answer"`
	Sources []domain.Source `json:"sources"`
}

type ingestResponse struct {
	Success        bool   `json:"success"`
	Page           int    `json:"page"`
	PostsProcessed int    `json:"posts_processed"`
	PostsFailed    int    `json:"posts_failed"`
	ChunksCreated  int    `json:"chunks_created"`
	Message        string `json:"message,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		s.respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	answer, err := s.chat.Ask(r.Context(), req.Message, req.History)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			s.respondError(w, http.StatusBadRequest, "invalid request")
			return
		}
		// Backend detail stays in the logs; the caller gets a generic
		// failure.
		s.logger.Error("chat failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.respondJSON(w, http.StatusOK, chatResponse{
		Answer:  answer.Answer,
		Sources: answer.Sources,
	})
}

func (s *Server) handleChatOptions(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	secret := r.URL.Query().Get("secret")
	if subtle.ConstantTimeCompare([]byte(secret), []byte(s.config.Ingest.Secret)) != 1 {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("Unauthorized"))
		return
	}

	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", s.config.Ingest.PerPage)

	result, err := s.ingest.IngestPage(r.Context(), page, perPage)
	if err != nil {
		if errors.Is(err, domain.ErrUpstreamFetch) || errors.Is(err, domain.ErrInvalidInput) {
			s.logger.Warn("ingest upstream failure", zap.Int("page", page), zap.Error(err))
			s.respondError(w, http.StatusBadRequest, "document source request failed")
			return
		}
		s.logger.Error("ingest failed", zap.Int("page", page), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := ingestResponse{
		Success:        true,
		Page:           result.Page,
		PostsProcessed: result.DocumentsProcessed,
		PostsFailed:    result.DocumentsFailed,
		ChunksCreated:  result.ChunksCreated,
	}
	if result.Empty {
		resp.Message = "No more posts found"
	}

	s.logger.Info("ingest page complete",
		zap.Int("page", result.Page),
		zap.Int("posts_processed", result.DocumentsProcessed),
		zap.Int("posts_failed", result.DocumentsFailed),
		zap.Int("chunks_created", result.ChunksCreated))

	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	chunks, err := s.store.CountChunks(r.Context())
	if err != nil {
		s.logger.Error("health: count chunks failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	docs, err := s.store.CountDocuments(r.Context())
	if err != nil {
		s.logger.Error("health: count documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"documents": docs,
		"chunks":    chunks,
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response failed", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// queryInt parses an integer query parameter, falling back to def when
// absent or malformed.
func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}
