package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/cvsplit/internal/config"
	"github.com/dgallion1/cvsplit/internal/pipeline"
	"github.com/dgallion1/cvsplit/internal/route"
	"github.com/dgallion1/cvsplit/internal/sections"
	"github.com/dgallion1/cvsplit/internal/segmenter"
	"github.com/dgallion1/cvsplit/internal/store"
)

// Server is the HTTP API server for cvsplit.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	seg          *segmenter.Segmenter
	store        store.Store
	questions    route.Router
	stats        *route.LatencyStats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. stats may be nil when
// no LLM router is configured.
func NewServer(orch *pipeline.Orchestrator, questions route.Router, stats *route.LatencyStats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		seg:          orch.Segmenter(),
		store:        orch.Store(),
		questions:    questions,
		stats:        stats,
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
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Get("/api/sections", s.handleSections)
		r.Post("/api/segment", s.handleSegment)

		r.Post("/api/ingest", s.handleIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
		r.Post("/api/ingest/batch", s.handleBatchIngest)

		r.Get("/api/documents", s.handleListDocuments)
		r.Get("/api/documents/{docID}", s.handleGetDocument)
		r.Get("/api/documents/{docID}/chunks", s.handleDocumentChunks)
		r.Delete("/api/documents/{docID}", s.handleDeleteDocument)

		r.Post("/api/query", s.handleQuery)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}

type labelInfo struct {
	Label    string   `json:"label"`
	Variants []string `json:"variants"`
}

func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	tbl := s.seg.Table()
	labels := make([]labelInfo, 0, tbl.Len())
	for _, e := range tbl.Entries() {
		labels = append(labels, labelInfo{Label: e.Label, Variants: e.Variants})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"labels":  labels,
		"general": sections.General,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
