// Package server provides the HTTP API for Wayfarer.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/wayfarer-labs/wayfarer/internal/config"
	"github.com/wayfarer-labs/wayfarer/internal/core/ports/driven"
	"github.com/wayfarer-labs/wayfarer/internal/core/services"
)

// Server is the HTTP server for the Wayfarer API.
type Server struct {
	chat    *services.ChatService
	ingest  *services.IngestService
	store   driven.ChunkStore
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	chat *services.ChatService,
	ingest *services.IngestService,
	store driven.ChunkStore,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		chat:   chat,
		ingest: ingest,
		store:  store,
		config: cfg,
		logger: logger,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/chat", func(r chi.Router) {
		r.Use(corsHeaders)
		r.Post("/", s.handleChat)
		r.Options("/", s.handleChatOptions)
	})
	r.Get("/ingest", s.handleIngest)
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// corsHeaders applies the chat endpoint's permissive CORS policy, part
// of the wire contract consumed by the blog frontend.
func corsHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		next.ServeHTTP(w, r)
	})
}
