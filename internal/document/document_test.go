package document

import (
	"testing"

	"github.com/dgallion1/cvsplit/internal/segmenter"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_DifferentInputs(t *testing.T) {
	if ContentHashHex([]byte("aaa")) == ContentHashHex([]byte("bbb")) {
		t.Error("expected different hashes for different inputs")
	}
}

func TestContentHashHex_EmptyInput(t *testing.T) {
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if h := ContentHashHex([]byte{}); h != want {
		t.Errorf("expected hash %q, got %q", want, h)
	}
}

func TestRecordLabels_DocumentOrder(t *testing.T) {
	r := &Record{
		Sections: segmenter.Sections{"general": "Jane", "skills": "Go", "experience": "Globex"},
		Spans: []segmenter.Span{
			{Label: "general"},
			{Label: "experience"},
			{Label: "skills"},
			{Label: "experience"},
		},
	}
	got := r.Labels()
	want := []string{"general", "experience", "skills"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("label[%d]: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestRecordLabels_WithoutSpans(t *testing.T) {
	r := &Record{Sections: segmenter.Sections{"skills": "Go", "education": "MIT"}}
	got := r.Summary().Labels
	if len(got) != 2 || got[0] != "education" || got[1] != "skills" {
		t.Errorf("expected sorted labels, got %v", got)
	}
}
