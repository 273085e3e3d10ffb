package render

import (
	"strings"
	"testing"

	"github.com/dgallion1/cvsplit/internal/document"
	"github.com/dgallion1/cvsplit/internal/segmenter"
)

func TestHTML(t *testing.T) {
	got, err := HTML("- Go\n- **SQL**")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"<ul>", "<li>Go</li>", "<strong>SQL</strong>"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %q", want, got)
		}
	}
}

func TestHTML_EscapesRawHTML(t *testing.T) {
	got, err := HTML("<script>alert(1)</script>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(got, "<script>") {
		t.Errorf("expected raw html to be omitted, got %q", got)
	}
}

func TestRecord(t *testing.T) {
	rec := &document.Record{
		DocID: "jane",
		Title: "Jane <Doe>",
		Spans: []segmenter.Span{
			{Label: "general", LineNumber: -1, Text: "jane@example.com"},
			{Label: "skills", Heading: "## Skills", LineNumber: 1, Text: "Go"},
		},
	}
	got, err := Record(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		`<article data-doc-id="jane">`,
		"<h1>Jane &lt;Doe&gt;</h1>",
		`<section data-section="general">`,
		"<h2>## Skills</h2>",
		"<p>Go</p>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in:\n%s", want, got)
		}
	}
	if strings.Index(got, `data-section="general"`) > strings.Index(got, `data-section="skills"`) {
		t.Error("expected spans in document order")
	}
}
