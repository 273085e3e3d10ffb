// Package route decides which CV sections can answer a question, so
// retrieval only looks at the relevant spans.
package route

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dgallion1/cvsplit/internal/sections"
	"github.com/dgallion1/cvsplit/internal/segmenter"
)

// Decision is a routing answer.
type Decision struct {
	Sections   []string `json:"sections"`
	Confidence string   `json:"confidence"`
	Reason     string   `json:"reason"`
	Router     string   `json:"router"`
}

// Router maps a question to section labels.
type Router interface {
	Route(ctx context.Context, question string) (Decision, error)
}

var confidences = map[string]bool{"high": true, "medium": true, "low": true}

// ValidateDecision keeps only labels from allowed (plus general), removes
// repeats, and falls back to general when nothing is left. Labels match
// case-insensitively and are rewritten to their spelling in allowed, so
// they compare equal to span labels. Confidence is normalized to high,
// medium or low.
func ValidateDecision(d *Decision, allowed []string) {
	canonical := make(map[string]string, len(allowed)+1)
	for _, l := range allowed {
		canonical[strings.ToLower(l)] = l
	}
	canonical[sections.General] = sections.General

	seen := make(map[string]bool)
	kept := make([]string, 0, len(d.Sections))
	for _, s := range d.Sections {
		label, ok := canonical[strings.ToLower(strings.TrimSpace(s))]
		if !ok || seen[label] {
			continue
		}
		seen[label] = true
		kept = append(kept, label)
	}
	if len(kept) == 0 {
		kept = []string{sections.General}
	}
	d.Sections = kept

	d.Confidence = strings.ToLower(strings.TrimSpace(d.Confidence))
	if !confidences[d.Confidence] {
		d.Confidence = "low"
	}
	d.Reason = truncate(strings.TrimSpace(d.Reason), 300)
}

// Select returns the non-empty spans whose label was routed to, in
// document order.
func Select(d Decision, spans []segmenter.Span) []segmenter.Span {
	want := make(map[string]bool, len(d.Sections))
	for _, s := range d.Sections {
		want[s] = true
	}
	var out []segmenter.Span
	for _, sp := range spans {
		if want[sp.Label] && sp.Text != "" {
			out = append(out, sp)
		}
	}
	return out
}

// Fallback asks Primary and answers from Secondary when Primary fails.
type Fallback struct {
	Primary   Router
	Secondary Router
	Log       *slog.Logger
}

func (f *Fallback) Route(ctx context.Context, question string) (Decision, error) {
	d, err := f.Primary.Route(ctx, question)
	if err == nil {
		return d, nil
	}
	if f.Log != nil {
		f.Log.Warn("primary router failed, using fallback", "error", err)
	}
	return f.Secondary.Route(ctx, question)
}

// Close releases both routers' idle connections.
func (f *Fallback) Close() {
	Close(f.Primary)
	Close(f.Secondary)
}

// Close releases r's resources if it holds any.
func Close(r Router) {
	if c, ok := r.(interface{ Close() }); ok {
		c.Close()
	}
}

// New returns a Claude router backed by keyword routing when apiKey is set,
// otherwise keyword routing alone.
func New(table *sections.Table, apiKey, model string, stats *LatencyStats, log *slog.Logger) Router {
	kw := NewKeywordRouter(table)
	if apiKey == "" {
		return kw
	}
	return &Fallback{
		Primary:   NewClaudeRouter(apiKey, model, table.Labels(), stats),
		Secondary: kw,
		Log:       log,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
