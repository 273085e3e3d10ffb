package segmenter

import (
	"testing"

	"github.com/dgallion1/cvsplit/internal/sections"
)

func TestCompileRule_Matches(t *testing.T) {
	rule := CompileRule([]string{"skills", "key skills", "technical skills"})
	lines := []string{
		"Skills",
		"SKILLS",
		"skills:",
		"## Skills",
		"######Skills",
		"  ### Key Skills  ",
		"**Technical Skills**",
		"__key skills__ -",
		"# **Skills:**",
		"S K I L L S",
		"K e y   S k i l l s",
		"technical   skills",
		"Skills.",
		"Skills ",
	}
	for _, l := range lines {
		if !rule.Match(l) {
			t.Errorf("expected %q to match", l)
		}
	}
}

func TestCompileRule_RejectsProse(t *testing.T) {
	rule := CompileRule([]string{"skills", "key skills"})
	lines := []string{
		"My key skills include communication.",
		"Skills: Go, Rust",
		"Soft skills",
		"#######Skills",
		"skillset",
		"- skills",
		"",
	}
	for _, l := range lines {
		if rule.Match(l) {
			t.Errorf("expected %q not to match", l)
		}
	}
}

func TestCompileRule_SpecialCharactersEscaped(t *testing.T) {
	rule := CompileRule([]string{"c++ / .net", "a.b"})
	if !rule.Match("C++ / .NET") {
		t.Error("expected literal variant with metacharacters to match")
	}
	if rule.Match("axb") {
		t.Error("expected '.' to be matched literally")
	}
	// Variants with non-letters get no spaced form.
	if rule.Match("c + + / . n e t") {
		t.Error("expected no spaced form for non-alphabetic variant")
	}
}

func TestCompileRule_SpacedFormNeedsWordBoundary(t *testing.T) {
	rule := CompileRule([]string{"work experience"})
	if !rule.Match("W O R K   E X P E R I E N C E") {
		t.Error("expected letter-spaced phrase to match")
	}
	if rule.Match("workexperience") {
		t.Error("expected words to require whitespace between them")
	}
}

func TestCache_ReusesRules(t *testing.T) {
	cache := NewCache()
	tbl := sections.Default()

	r1 := cache.Rule(tbl, "skills")
	r2 := cache.Rule(tbl, "skills")
	if r1 != r2 {
		t.Error("expected cached rule to be reused")
	}

	New(tbl, WithCache(cache))
	if cache.Len() != tbl.Len() {
		t.Errorf("expected %d cached rules, got %d", tbl.Len(), cache.Len())
	}
	New(tbl, WithCache(cache))
	if cache.Len() != tbl.Len() {
		t.Errorf("expected cache to stay at %d rules, got %d", tbl.Len(), cache.Len())
	}

	other := sections.MustTable(sections.Entry{Label: "skills", Variants: []string{"abilities"}})
	if cache.Rule(other, "skills") == r1 {
		t.Error("expected rules to be keyed by table")
	}
}

func TestSegment_SharedCacheOnlyHoldsDefaultTable(t *testing.T) {
	Segment("Skills\nGo", sections.Default())
	want := sections.Default().Len()
	if sharedCache.Len() != want {
		t.Fatalf("expected %d shared rules, got %d", want, sharedCache.Len())
	}

	for range 3 {
		tbl := sections.MustTable(sections.Entry{Label: "skills", Variants: []string{"abilities"}})
		got := Segment("Abilities\nGo", tbl)
		if got["skills"] != "Go" {
			t.Errorf("unexpected sections: %v", got)
		}
	}
	if sharedCache.Len() != want {
		t.Errorf("expected shared cache to stay at %d rules, got %d", want, sharedCache.Len())
	}
}
