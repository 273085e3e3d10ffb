// Package segmenter splits CV text into labeled sections by detecting
// heading lines against a sections.Table.
package segmenter

import (
	"slices"
	"strings"

	"github.com/dgallion1/cvsplit/internal/sections"
)

// Heading is one detected heading line.
type Heading struct {
	Label      sections.Label `json:"section"`
	Line       string         `json:"line"`
	LineNumber int            `json:"line_number"`
}

// Sections maps a label (or sections.General) to the trimmed text it owns.
type Sections map[sections.Label]string

// Span is one contiguous block of the document in order. Unlike Sections,
// spans keep every heading occurrence, including repeated labels.
type Span struct {
	Label      sections.Label `json:"section"`
	Heading    string         `json:"heading,omitempty"`
	LineNumber int            `json:"line_number"` // heading line, -1 for the general span
	StartLine  int            `json:"start_line"`
	EndLine    int            `json:"end_line"` // exclusive
	Text       string         `json:"text"`
}

type labelRule struct {
	label sections.Label
	rule  *Rule
}

// Segmenter applies a heading table to documents. It holds only immutable
// compiled rules and is safe for concurrent use.
type Segmenter struct {
	table *sections.Table
	rules []labelRule
}

type options struct {
	cache *Cache
}

// Option configures a Segmenter.
type Option func(*options)

// WithCache compiles rules through a shared cache.
func WithCache(c *Cache) Option {
	return func(o *options) { o.cache = c }
}

// New compiles one rule per label of table.
func New(table *sections.Table, opts ...Option) *Segmenter {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	s := &Segmenter{table: table}
	for _, label := range table.Labels() {
		var r *Rule
		if o.cache != nil {
			r = o.cache.Rule(table, label)
		} else {
			r = CompileRule(table.Variants(label))
		}
		s.rules = append(s.rules, labelRule{label: label, rule: r})
	}
	return s
}

// Table returns the heading table this segmenter was built from.
func (s *Segmenter) Table() *sections.Table {
	return s.table
}

// SplitLines splits doc on \n or \r\n, keeping line numbers aligned with
// the source.
func SplitLines(doc string) []string {
	lines := strings.Split(doc, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// Detect returns every heading occurrence in doc ordered by line number.
// A line matching several labels yields one heading per label, in table
// order.
func (s *Segmenter) Detect(doc string) []Heading {
	return s.detect(SplitLines(doc))
}

func (s *Segmenter) detect(lines []string) []Heading {
	var headings []Heading
	for _, lr := range s.rules {
		for i, line := range lines {
			if lr.rule.Match(line) {
				headings = append(headings, Heading{
					Label:      lr.label,
					Line:       strings.TrimSpace(line),
					LineNumber: i,
				})
			}
		}
	}
	slices.SortStableFunc(headings, func(a, b Heading) int {
		return a.LineNumber - b.LineNumber
	})
	return headings
}

// Spans slices doc into ordered spans: an optional general span before the
// first heading, then one span per heading running to the next heading or
// the end of the document.
func (s *Segmenter) Spans(doc string) []Span {
	lines := SplitLines(doc)
	headings := s.detect(lines)

	if len(headings) == 0 {
		text := strings.TrimSpace(strings.Join(lines, "\n"))
		if text == "" {
			return nil
		}
		return []Span{{
			Label:      sections.General,
			LineNumber: -1,
			StartLine:  0,
			EndLine:    len(lines),
			Text:       text,
		}}
	}

	spans := make([]Span, 0, len(headings)+1)
	if first := headings[0].LineNumber; first > 0 {
		spans = append(spans, Span{
			Label:      sections.General,
			LineNumber: -1,
			StartLine:  0,
			EndLine:    first,
			Text:       joinTrim(lines, 0, first),
		})
	}

	for i, h := range headings {
		start := h.LineNumber + 1
		end := len(lines)
		if i+1 < len(headings) {
			end = headings[i+1].LineNumber
		}
		// Several labels on one line leave all but the last with no body.
		if end < start {
			end = start
		}
		spans = append(spans, Span{
			Label:      h.Label,
			Heading:    h.Line,
			LineNumber: h.LineNumber,
			StartLine:  start,
			EndLine:    end,
			Text:       joinTrim(lines, start, end),
		})
	}
	return spans
}

// Segment returns the section map for doc. When a label occurs more than
// once, the last occurrence wins and earlier blocks are dropped; a CV with
// two experience headings loses the first. Callers that need every block
// should use Spans.
func (s *Segmenter) Segment(doc string) Sections {
	return Collapse(s.Spans(doc))
}

// Headings returns the heading of every span that has one, matching what
// Detect reports for the same document without rescanning it.
func Headings(spans []Span) []Heading {
	var out []Heading
	for _, sp := range spans {
		if sp.LineNumber < 0 {
			continue
		}
		out = append(out, Heading{Label: sp.Label, Line: sp.Heading, LineNumber: sp.LineNumber})
	}
	return out
}

// Collapse folds ordered spans into a Sections map, last write wins.
func Collapse(spans []Span) Sections {
	out := make(Sections, len(spans))
	for _, sp := range spans {
		out[sp.Label] = sp.Text
	}
	return out
}

func joinTrim(lines []string, start, end int) string {
	return strings.TrimSpace(strings.Join(lines[start:end], "\n"))
}

// sharedCache holds rules for sections.Default only. It is never evicted,
// so other tables are compiled per call; long-lived callers with their own
// table should build a Segmenter once instead.
var sharedCache = NewCache()

// Segment splits doc using table. Rules for the built-in table are
// compiled once and reused.
func Segment(doc string, table *sections.Table) Sections {
	if table == sections.Default() {
		return New(table, WithCache(sharedCache)).Segment(doc)
	}
	return New(table).Segment(doc)
}
