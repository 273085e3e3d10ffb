package route

import (
	"context"
	"strings"
	"unicode"

	"github.com/dgallion1/cvsplit/internal/sections"
)

// hints map question phrasing to the label that usually answers it.
var hints = map[string][]string{
	"skills": {
		"technology", "technologies", "tool", "tools", "programming", "framework",
		"frameworks", "stack", "know", "knows",
	},
	"experience": {
		"worked at", "work at", "works at", "employed", "employer", "job", "jobs",
		"job history", "company", "companies", "years of experience", "role",
	},
	"projects": {
		"built", "build", "developed", "develop", "implemented", "implement",
		"worked on", "app", "application",
	},
	"interests": {
		"sport", "sports", "hobby", "hobbies", "extracurricular", "interest",
		"interested", "pastime",
	},
	"education": {"degree", "university", "college", "studied", "graduate", "graduated"},
	"certifications": {"certified", "certificate", "certificates"},
	"languages": {"speak", "speaks", "fluent", "spoken"},
}

// KeywordRouter routes by matching question words against label names,
// their heading variants and a small hint table. It needs no network.
type KeywordRouter struct {
	table *sections.Table
}

func NewKeywordRouter(table *sections.Table) *KeywordRouter {
	return &KeywordRouter{table: table}
}

func (k *KeywordRouter) Route(_ context.Context, question string) (Decision, error) {
	q := " " + normalize(question) + " "

	var matched, why []string
	for _, label := range k.table.Labels() {
		phrases := append([]string{label}, k.table.Variants(label)...)
		phrases = append(phrases, hints[strings.ToLower(label)]...)
		for _, p := range phrases {
			if p = normalize(p); p != "" && strings.Contains(q, " "+p+" ") {
				matched = append(matched, label)
				why = append(why, p)
				break
			}
		}
	}

	d := Decision{Sections: matched, Router: "keyword"}
	switch len(matched) {
	case 0:
		d.Confidence = "low"
		d.Reason = "no section keywords in question"
	default:
		d.Confidence = "medium"
		d.Reason = "matched " + strings.Join(why, ", ")
	}
	ValidateDecision(&d, k.table.Labels())
	return d, nil
}

// normalize lowercases s and collapses every run of non-alphanumerics to
// one space.
func normalize(s string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
}
