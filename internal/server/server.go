// Package server provides the HTTP API for Hanron.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/hanron/internal/config"
	"github.com/hyperjump/hanron/internal/indexer"
	"github.com/hyperjump/hanron/internal/pipeline"
)

// Server is the HTTP server for the Hanron API.
type Server struct {
	pipeline *pipeline.Pipeline
	indexer  *indexer.Indexer
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(p *pipeline.Pipeline, idx *indexer.Indexer, cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{
		pipeline: p,
		indexer:  idx,
		config:   cfg,
		logger:   logger,
	}
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Post("/api/check_and_index", s.handleCheckAndIndex)
	r.Post("/api/upload_report", s.handleUploadReport)
	r.Post("/api/extract_claims", s.handleExtractClaims)
	r.Post("/api/analyze", s.handleAnalyze)
	r.Get("/api/download_report/{reportID}", s.handleDownloadReport)
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
