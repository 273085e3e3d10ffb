// Package sections holds the heading variant table: the closed set of CV
// section labels and the heading phrases that introduce each of them.
package sections

import (
	"errors"
	"fmt"
	"strings"
)

// Label identifies a CV section.
type Label = string

// General is the reserved label for content that precedes the first heading.
// It never appears in a Table.
const General Label = "general"

// ErrInvalidTable is returned when a table definition is malformed.
var ErrInvalidTable = errors.New("invalid heading table")

// Entry is one label with its heading variants. Variant order carries no
// precedence.
type Entry struct {
	Label    Label    `json:"label"`
	Variants []string `json:"variants"`
}

// Table is an immutable, ordered heading variant table. Entry order is the
// tie-break order when a line matches more than one label.
type Table struct {
	entries []Entry
	index   map[Label]int
}

// NewTable validates entries and builds a Table. Variants are trimmed and
// collapsed to single spaces.
func NewTable(entries ...Entry) (*Table, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no entries", ErrInvalidTable)
	}

	t := &Table{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[Label]int, len(entries)),
	}
	folded := make(map[string]bool, len(entries))
	for _, e := range entries {
		label := strings.TrimSpace(e.Label)
		switch {
		case label == "":
			return nil, fmt.Errorf("%w: empty label", ErrInvalidTable)
		case strings.EqualFold(label, General):
			return nil, fmt.Errorf("%w: label %q is reserved", ErrInvalidTable, General)
		case len(e.Variants) == 0:
			return nil, fmt.Errorf("%w: label %q has no variants", ErrInvalidTable, label)
		}
		// Question routing matches labels case-insensitively.
		if folded[strings.ToLower(label)] {
			return nil, fmt.Errorf("%w: duplicate label %q", ErrInvalidTable, label)
		}
		folded[strings.ToLower(label)] = true

		variants := make([]string, 0, len(e.Variants))
		for i, v := range e.Variants {
			v = strings.Join(strings.Fields(v), " ")
			if v == "" {
				return nil, fmt.Errorf("%w: label %q variant %d is empty", ErrInvalidTable, label, i)
			}
			variants = append(variants, v)
		}

		t.index[label] = len(t.entries)
		t.entries = append(t.entries, Entry{Label: label, Variants: variants})
	}
	return t, nil
}

// MustTable is NewTable that panics on error. Intended for package-level
// tables defined in code.
func MustTable(entries ...Entry) *Table {
	t, err := NewTable(entries...)
	if err != nil {
		panic(err)
	}
	return t
}

// Entries returns a copy of the table entries in configuration order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	for i, e := range t.entries {
		out[i] = Entry{Label: e.Label, Variants: append([]string(nil), e.Variants...)}
	}
	return out
}

// Labels returns the table labels in configuration order.
func (t *Table) Labels() []Label {
	out := make([]Label, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Label
	}
	return out
}

// Variants returns the variants registered for label, or nil.
func (t *Table) Variants(label Label) []string {
	i, ok := t.index[label]
	if !ok {
		return nil
	}
	return append([]string(nil), t.entries[i].Variants...)
}

// Has reports whether label is defined in the table.
func (t *Table) Has(label Label) bool {
	_, ok := t.index[label]
	return ok
}

// Len returns the number of labels.
func (t *Table) Len() int {
	return len(t.entries)
}
