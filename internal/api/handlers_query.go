package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dgallion1/cvsplit/internal/route"
	"github.com/dgallion1/cvsplit/internal/segmenter"
	"github.com/dgallion1/cvsplit/internal/store"
)

type queryRequest struct {
	Question string   `json:"question"`
	DocIDs   []string `json:"doc_ids"`
}

type queryResult struct {
	DocID    string           `json:"doc_id"`
	Filename string           `json:"filename"`
	Title    string           `json:"title"`
	Spans    []segmenter.Span `json:"spans"`
}

// handleQuery routes a question to CV sections and returns the matching
// spans of each document.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		jsonError(w, "question is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	decision, err := s.questions.Route(ctx, req.Question)
	if err != nil {
		s.log.Error("route question", "error", err)
		jsonError(w, "routing failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	ids := req.DocIDs
	if len(ids) == 0 {
		docs, err := s.store.List(ctx)
		if err != nil {
			jsonError(w, "failed to list documents", http.StatusInternalServerError)
			return
		}
		for _, d := range docs {
			ids = append(ids, d.DocID)
		}
	}

	results := []queryResult{}
	missing := []string{}
	for _, id := range ids {
		rec, err := s.store.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			missing = append(missing, id)
			continue
		}
		if err != nil {
			s.log.Error("get document", "doc_id", id, "error", err)
			jsonError(w, "failed to load document", http.StatusInternalServerError)
			return
		}
		spans := route.Select(decision, rec.Spans)
		if len(spans) == 0 {
			continue
		}
		results = append(results, queryResult{
			DocID:    rec.DocID,
			Filename: rec.Filename,
			Title:    rec.Title,
			Spans:    spans,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"decision": decision,
		"results":  results,
		"missing":  missing,
	})
}
