package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/dgallion1/cvsplit/internal/segmenter"
)

type segmentRequest struct {
	Text string `json:"text"`
}

type segmentResponse struct {
	Sections segmenter.Sections  `json:"sections"`
	Headings []segmenter.Heading `json:"headings"`
	Spans    []segmenter.Span    `json:"spans"`
}

// handleSegment segments text synchronously. The body is either JSON
// {"text": ...} or the raw text itself.
func (s *Server) handleSegment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return
	}

	text := string(body)
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "application/json" {
		var req segmentRequest
		if err := json.Unmarshal(body, &req); err != nil {
			jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
			return
		}
		text = req.Text
	}

	spans := s.seg.Spans(text)
	resp := segmentResponse{
		Sections: segmenter.Collapse(spans),
		Headings: segmenter.Headings(spans),
		Spans:    spans,
	}
	if resp.Headings == nil {
		resp.Headings = []segmenter.Heading{}
	}
	if resp.Spans == nil {
		resp.Spans = []segmenter.Span{}
	}
	writeJSON(w, http.StatusOK, resp)
}
