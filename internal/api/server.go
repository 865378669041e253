package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dgallion1/docchunk/internal/config"
	"github.com/dgallion1/docchunk/internal/indexclient"
	"github.com/dgallion1/docchunk/internal/pipeline"
	"github.com/dgallion1/docchunk/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DocStore is the read and delete side of the document registry.
type DocStore interface {
	ListDocuments(ctx context.Context, limit int) ([]store.Document, error)
	GetDocument(ctx context.Context, id string) (*store.Document, error)
	GetChunks(ctx context.Context, docID string) ([]store.StoredChunk, error)
	DeleteDocument(ctx context.Context, id string) error
}

// IndexAdmin covers the index calls made directly by handlers.
type IndexAdmin interface {
	DeleteDocument(ctx context.Context, namespace, docID string) error
	Promote(ctx context.Context, from string, req indexclient.PromoteRequest) (*indexclient.PromoteResponse, error)
}

// Server is the HTTP API server for docchunk.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	docs         DocStore
	index        IndexAdmin
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. index may be nil when
// indexing is disabled.
func NewServer(orch *pipeline.Orchestrator, docs DocStore, index IndexAdmin, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		docs:         docs,
		index:        index,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.DocchunkAPIKey, s.log))

		r.Post("/api/chunk", s.handleChunk)
		r.Post("/api/chunk/batch", s.handleChunkBatch)

		r.Post("/api/ingest", s.handleIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
		r.Post("/api/ingest/batch", s.handleBatchIngest)

		r.Get("/api/documents", s.handleListDocuments)
		r.Get("/api/documents/{docID}/chunks", s.handleDocumentChunks)
		r.Get("/api/documents/{docID}/facts", s.handleDocumentFacts)
		r.Delete("/api/documents/{docID}", s.handleDeleteDocument)

		r.Post("/api/index/promote", s.handlePromote)
		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
