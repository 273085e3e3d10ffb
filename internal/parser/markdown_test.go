package parser

import (
	"strings"
	"testing"
)

func TestMarkdownParser_KeepsRawMarkdown(t *testing.T) {
	input := "# **Jane Doe**\r\n\r\n#### **Professional Summary**\r\nBackend engineer.\r\n"
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "jane.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "# **Jane Doe**\n\n#### **Professional Summary**\nBackend engineer.\n"
	if doc.Text != want {
		t.Errorf("expected text %q, got %q", want, doc.Text)
	}
	if doc.Format != "md" {
		t.Errorf("expected format %q, got %q", "md", doc.Format)
	}
}

func TestMarkdownParser_TitleFromFirstHeading(t *testing.T) {
	input := "Some preamble.\n\n## *Jane* Doe\n\n# Skills\n"
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "cv.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Jane Doe" {
		t.Errorf("expected title %q, got %q", "Jane Doe", doc.Title)
	}
}

func TestMarkdownParser_NoHeadingsUsesFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"readme.md", "readme"},
		{"notes.markdown", "notes"},
		{"path/to/plain.md", "plain"},
	}
	p := &MarkdownParser{}
	for _, tt := range tests {
		doc, err := p.Parse(strings.NewReader("just text"), tt.filename)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tt.filename, err)
		}
		if doc.Title != tt.want {
			t.Errorf("filename=%q: expected title %q, got %q", tt.filename, tt.want, doc.Title)
		}
	}
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Text != "" {
		t.Errorf("expected empty text, got %q", doc.Text)
	}
	if doc.Title != "empty" {
		t.Errorf("expected title %q, got %q", "empty", doc.Title)
	}
}
