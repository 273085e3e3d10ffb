package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/cvsplit/internal/document"
	"github.com/dgallion1/cvsplit/internal/render"
	"github.com/dgallion1/cvsplit/internal/store"
)

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.List(r.Context())
	if err != nil {
		s.log.Error("list documents", "error", err)
		jsonError(w, "failed to list documents", http.StatusInternalServerError)
		return
	}
	if docs == nil {
		docs = []document.Summary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

// loadDocument writes the error response itself and returns nil when the
// record cannot be served.
func (s *Server) loadDocument(w http.ResponseWriter, r *http.Request) *document.Record {
	docID := chi.URLParam(r, "docID")
	rec, err := s.store.Get(r.Context(), docID)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "document not found", http.StatusNotFound)
		return nil
	}
	if err != nil {
		s.log.Error("get document", "doc_id", docID, "error", err)
		jsonError(w, "failed to load document", http.StatusInternalServerError)
		return nil
	}
	return rec
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	rec := s.loadDocument(w, r)
	if rec == nil {
		return
	}

	if r.URL.Query().Get("format") == "html" {
		page, err := render.Record(rec)
		if err != nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(page))
		return
	}

	// Chunks have their own endpoint.
	chunks := len(rec.Chunks)
	rec.Chunks = nil
	writeJSON(w, http.StatusOK, map[string]any{
		"document": rec,
		"chunks":   chunks,
	})
}

func (s *Server) handleDocumentChunks(w http.ResponseWriter, r *http.Request) {
	rec := s.loadDocument(w, r)
	if rec == nil {
		return
	}
	chunks := rec.Chunks
	if chunks == nil {
		chunks = []document.Chunk{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"doc_id": rec.DocID,
		"chunks": chunks,
	})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	err := s.store.Delete(r.Context(), docID)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("delete document", "doc_id", docID, "error", err)
		jsonError(w, "failed to delete document", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": docID})
}
