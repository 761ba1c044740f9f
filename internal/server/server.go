// Package server provides the HTTP API for memorychat.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hoangv97/memorychat/internal/config"
	"github.com/hoangv97/memorychat/internal/models"
	"github.com/hoangv97/memorychat/internal/retrieval"
	"github.com/hoangv97/memorychat/internal/storage"
)

// Ingester stores and indexes an exchange. Ready is checked before the request body is read.
type Ingester interface {
	Ready() error
	Ingest(ctx context.Context, req *models.EmbedRequest) (*models.Exchange, error)
}

// Retriever answers a prompt with a summary of relevant exchanges.
type Retriever interface {
	Retrieve(ctx context.Context, prompt, history string) (*retrieval.Result, error)
}

// Server is the HTTP server for the memorychat API.
type Server struct {
	engine    Retriever
	indexer   Ingester
	storage   storage.Storage
	config    *config.ServerConfig
	logger    *zap.Logger
	diskPaths []string
	server    *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithDiskPaths makes /health report the on-disk size of paths.
func WithDiskPaths(paths ...string) Option {
	return func(s *Server) { s.diskPaths = paths }
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine Retriever,
	idx Ingester,
	storage storage.Storage,
	cfg *config.ServerConfig,
	logger *zap.Logger,
	opts ...Option,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		engine:  engine,
		indexer: idx,
		storage: storage,
		config:  cfg,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	timeout := s.config.RequestTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.Compress(5))

	r.Post("/embed", s.handleEmbed)
	r.Post("/query", s.handleQuery)
	r.Get("/exchanges/{id}", s.handleGetExchange)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
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
