// Package server provides the HTTP API for Insyte.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/HarshaParisha/insyte/internal/config"
	"github.com/HarshaParisha/insyte/internal/ingest"
	"github.com/HarshaParisha/insyte/internal/keyword"
	"github.com/HarshaParisha/insyte/internal/search"
	"github.com/HarshaParisha/insyte/internal/storage"
)

// maxUploadBytes caps a multipart upload batch.
const maxUploadBytes = 64 << 20

// Server is the HTTP server for the Insyte API.
type Server struct {
	storage storage.Storage
	engine  *search.Engine
	keyword *keyword.Searcher
	ingest  *ingest.Service
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	store storage.Storage,
	engine *search.Engine,
	kw *keyword.Searcher,
	ing *ingest.Service,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		storage: store,
		engine:  engine,
		keyword: kw,
		ingest:  ing,
		config:  cfg,
		logger:  logger,
	}
}

// Router builds the HTTP routes. Exposed for handler tests.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/projects", s.handleCreateProject)
		r.Get("/projects", s.handleListProjects)
		r.Get("/projects/{id}", s.handleGetProject)
		r.Delete("/projects/{id}", s.handleDeleteProject)

		r.Post("/projects/{id}/documents", s.handleUploadDocuments)
		r.Get("/projects/{id}/documents", s.handleListDocuments)
		r.Delete("/projects/{id}/documents/{docID}", s.handleDeleteDocument)

		r.Post("/projects/{id}/search", s.handleSearch)
		r.Get("/projects/{id}/questions", s.handleQuestions)

		r.Get("/status", s.handleStatus)
	})
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
