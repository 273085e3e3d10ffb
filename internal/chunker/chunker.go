// Package chunker cuts segmented sections into token-bounded chunks for
// retrieval. Chunks never cross a section boundary.
package chunker

import (
	"strings"

	"github.com/dgallion1/cvsplit/internal/document"
	"github.com/dgallion1/cvsplit/internal/segmenter"
)

// Config controls chunking behavior.
type Config struct {
	ChunkSize    int // Target chunk size in tokens.
	ChunkOverlap int // Overlap between consecutive chunks of one section, in tokens.
	MinChunk     int // Chunks below this many tokens are dropped; 0 keeps everything.
}

// DefaultConfig returns sensible defaults for CV sections, which are short.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    1500,
		ChunkOverlap: 200,
	}
}

// ChunkSpans produces chunks for every non-empty span in document order.
// Each chunk carries the breadcrumb [title, label].
func ChunkSpans(title string, spans []segmenter.Span, cfg Config) []document.Chunk {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1500
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = 0
	}

	var chunks []document.Chunk
	for _, sp := range spans {
		if sp.Text == "" {
			continue
		}
		bc := breadcrumb(title, sp.Label)

		parts := []string{sp.Text}
		if EstimateTokens(sp.Text) > cfg.ChunkSize {
			s := splitter{target: cfg.ChunkSize, overlap: cfg.ChunkOverlap}
			parts = s.split(sp.Text)
		}
		for _, part := range parts {
			if EstimateTokens(part) < cfg.MinChunk {
				continue
			}
			chunks = append(chunks, document.Chunk{
				Text:       part,
				Index:      len(chunks),
				Label:      sp.Label,
				Breadcrumb: bc,
				LineStart:  sp.StartLine,
				LineEnd:    sp.EndLine,
			})
		}
	}
	return chunks
}

func breadcrumb(title, label string) []string {
	if title == "" {
		return []string{label}
	}
	return []string{title, label}
}

// splitter packs paragraphs, then sentences, into chunks of roughly target
// tokens, carrying overlap tokens from the end of one chunk into the next.
type splitter struct {
	target  int
	overlap int

	out    []string
	cur    strings.Builder
	tokens int
}

func (s *splitter) split(text string) []string {
	for _, para := range paragraphs(text) {
		if EstimateTokens(para) > s.target {
			s.flush(false)
			for _, sent := range sentences(para) {
				s.add(sent, " ")
			}
			s.flush(false)
			continue
		}
		s.add(para, "\n\n")
	}
	s.flush(false)
	return s.out
}

// add appends piece to the current chunk. A chunk only exceeds target when
// a single piece does; the overlap carry is dropped when piece cannot fit
// next to it.
func (s *splitter) add(piece, sep string) {
	if s.tokens > 0 && !s.fits(piece) {
		s.flush(true)
		if s.tokens > 0 && !s.fits(piece) {
			s.cur.Reset()
			s.tokens = 0
		}
	}
	if s.cur.Len() > 0 {
		s.cur.WriteString(sep)
	}
	s.cur.WriteString(piece)
	s.tokens = EstimateTokens(s.cur.String())
}

func (s *splitter) fits(piece string) bool {
	return EstimateTokens(s.cur.String()+" "+piece) <= s.target
}

// flush emits the current chunk. With carry, the tail of the emitted chunk
// seeds the next one.
func (s *splitter) flush(carry bool) {
	if s.tokens == 0 {
		return
	}
	text := s.cur.String()
	s.out = append(s.out, text)
	s.cur.Reset()
	s.tokens = 0

	if !carry {
		return
	}
	if tail := overlapText(text, s.overlap); tail != "" {
		s.cur.WriteString(tail)
		s.tokens = EstimateTokens(tail)
	}
}

// paragraphs splits on blank lines.
func paragraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// sentences does basic sentence splitting on terminal punctuation followed
// by a space.
func sentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			if i+1 < len(text) && text[i+1] == ' ' {
				out = append(out, strings.TrimSpace(text[start:i+1]))
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

// overlapText returns roughly the last n tokens of text, or "" when text is
// no longer than that.
func overlapText(text string, n int) string {
	words := strings.Fields(text)
	keep := int(float64(n) / tokensPerWord)
	if keep <= 0 || len(words) <= keep {
		return ""
	}
	return strings.Join(words[len(words)-keep:], " ")
}
