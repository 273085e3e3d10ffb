package sections

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_LabelsInOrder(t *testing.T) {
	want := []string{
		"summary", "skills", "experience", "education", "projects", "certifications",
		"achievements", "interests", "languages", "publications", "references", "personal",
	}
	got := Default().Labels()
	if len(got) != len(want) {
		t.Fatalf("expected %d labels, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("label[%d]: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestDefault_Variants(t *testing.T) {
	v := Default().Variants("references")
	if len(v) != 2 || v[0] != "references" || v[1] != "referees" {
		t.Errorf("unexpected references variants: %v", v)
	}
	if Default().Variants("nope") != nil {
		t.Error("expected nil variants for unknown label")
	}
	if Default().Has(General) {
		t.Error("general must not be a table label")
	}
}

func TestNewTable_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
	}{
		{"no entries", nil},
		{"empty label", []Entry{{Label: " ", Variants: []string{"x"}}}},
		{"reserved label", []Entry{{Label: "General", Variants: []string{"x"}}}},
		{"no variants", []Entry{{Label: "skills"}}},
		{"empty variant", []Entry{{Label: "skills", Variants: []string{"skills", ""}}}},
		{"blank variant", []Entry{{Label: "skills", Variants: []string{"   "}}}},
		{"duplicate label", []Entry{
			{Label: "skills", Variants: []string{"skills"}},
			{Label: "skills", Variants: []string{"key skills"}},
		}},
		{"duplicate label ignoring case", []Entry{
			{Label: "skills", Variants: []string{"skills"}},
			{Label: "Skills", Variants: []string{"key skills"}},
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTable(tc.entries...)
			if !errors.Is(err, ErrInvalidTable) {
				t.Errorf("expected ErrInvalidTable, got %v", err)
			}
		})
	}
}

func TestNewTable_NormalizesVariants(t *testing.T) {
	tbl, err := NewTable(Entry{Label: "skills", Variants: []string{"  key   skills "}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := tbl.Variants("skills")[0]; got != "key skills" {
		t.Errorf("expected %q, got %q", "key skills", got)
	}
}

func TestEntries_ReturnsCopy(t *testing.T) {
	tbl := MustTable(Entry{Label: "skills", Variants: []string{"skills"}})
	e := tbl.Entries()
	e[0].Variants[0] = "mutated"
	if tbl.Variants("skills")[0] != "skills" {
		t.Error("expected table to be unaffected by mutation of Entries result")
	}
}

func TestParse_PreservesOrder(t *testing.T) {
	data := []byte(`
experience:
  - experience
  - work history
skills: [skills, key skills]
summary:
  - profile
`)
	tbl, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"experience", "skills", "summary"}
	got := tbl.Labels()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("label[%d]: expected %q, got %q", i, want[i], got[i])
		}
	}
	if v := tbl.Variants("skills"); len(v) != 2 || v[1] != "key skills" {
		t.Errorf("unexpected skills variants: %v", v)
	}
}

func TestParse_Invalid(t *testing.T) {
	inputs := map[string]string{
		"empty":        "",
		"sequence":     "- skills\n- experience\n",
		"scalar value": "skills: key skills\n",
		"empty list":   "skills: []\n",
		"bad yaml":     "skills: [unclosed\n",
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(in)); !errors.Is(err, ErrInvalidTable) {
				t.Errorf("expected ErrInvalidTable, got %v", err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.yaml")
	if err := os.WriteFile(path, []byte("skills:\n  - skills\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tbl, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tbl.Len() != 1 || !tbl.Has("skills") {
		t.Errorf("unexpected table: %v", tbl.Labels())
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
