// Package document holds the types shared by parsing, segmentation,
// chunking and storage.
package document

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"time"

	"github.com/dgallion1/cvsplit/internal/segmenter"
)

// Document is a source file converted to line-oriented text.
type Document struct {
	ID       string
	Filename string
	Title    string // From document metadata or first heading, else the filename stem
	Format   string // Lowercase extension without the dot, e.g. "pdf"
	Text     string
}

// Record is the persisted result of segmenting one document.
type Record struct {
	DocID       string             `json:"doc_id"`
	Filename    string             `json:"filename"`
	Title       string             `json:"title"`
	ContentHash string             `json:"content_hash"`
	Sections    segmenter.Sections `json:"sections"`
	Spans       []segmenter.Span   `json:"spans,omitempty"`
	Chunks      []Chunk            `json:"chunks,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// Labels returns the record's section labels in document order, each once.
func (r *Record) Labels() []string {
	seen := make(map[string]bool, len(r.Spans))
	labels := make([]string, 0, len(r.Sections))
	for _, sp := range r.Spans {
		if !seen[sp.Label] {
			seen[sp.Label] = true
			labels = append(labels, sp.Label)
		}
	}
	// Records written without spans still list their sections.
	if len(labels) == 0 {
		for label := range r.Sections {
			labels = append(labels, label)
		}
		slices.Sort(labels)
	}
	return labels
}

// Summary returns the listing view of r.
func (r *Record) Summary() Summary {
	return Summary{
		DocID:     r.DocID,
		Filename:  r.Filename,
		Title:     r.Title,
		Labels:    r.Labels(),
		CreatedAt: r.CreatedAt,
	}
}

// Summary is the listing view of a Record.
type Summary struct {
	DocID     string    `json:"doc_id"`
	Filename  string    `json:"filename"`
	Title     string    `json:"title"`
	Labels    []string  `json:"sections"`
	CreatedAt time.Time `json:"created_at"`
}

// Chunk is a sized piece of one section, ready for embedding or retrieval.
type Chunk struct {
	Text       string   `json:"text"`
	Index      int      `json:"index"`
	Label      string   `json:"section"`
	Breadcrumb []string `json:"breadcrumb"` // e.g. ["Jane Doe", "experience"]
	LineStart  int      `json:"line_start"`
	LineEnd    int      `json:"line_end"`
}

// ContentHashHex computes SHA-256 of content and returns it hex encoded.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
