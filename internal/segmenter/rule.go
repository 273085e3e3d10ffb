package segmenter

import (
	"regexp"
	"strings"
	"sync"

	"github.com/dgallion1/cvsplit/internal/sections"
)

const (
	optSpace = `[\s\p{Zs}]*`
	reqSpace = `[\s\p{Zs}]+`
	prefix   = `(?i)^` + optSpace + `(?:#{1,6}` + optSpace + `)?[*_]*`
	suffix   = `[\s\p{Zs}*_.\-:]*$`
)

// spaceable matches variants eligible for the letter-spaced form.
var spaceable = regexp.MustCompile(`^[a-zA-Z\s]+$`)

// Rule matches heading lines for one section label.
type Rule struct {
	re *regexp.Regexp
}

// CompileRule builds the whole-line heading matcher for a label's variants.
// Each variant matches literally (case-insensitive); purely alphabetic
// variants also match with arbitrary whitespace between letters, so
// "P R O J E C T S" matches "projects". Leading heading hashes, emphasis
// markers and trailing punctuation are tolerated.
//
// Variants are assumed valid; sections.NewTable rejects empty ones.
func CompileRule(variants []string) *Rule {
	alts := make([]string, 0, len(variants)*2)
	for _, v := range variants {
		alts = append(alts, regexp.QuoteMeta(v))
		if spaceable.MatchString(v) {
			alts = append(alts, spacedPhrase(v))
		}
	}
	pattern := prefix + "(?:" + strings.Join(alts, "|") + ")" + suffix
	return &Rule{re: regexp.MustCompile(pattern)}
}

// Match reports whether line is a heading for this rule.
func (r *Rule) Match(line string) bool {
	return r.re.MatchString(line)
}

// String returns the compiled pattern.
func (r *Rule) String() string {
	return r.re.String()
}

func spacedWord(word string) string {
	chars := make([]string, 0, len(word))
	for _, c := range word {
		chars = append(chars, regexp.QuoteMeta(string(c)))
	}
	return strings.Join(chars, optSpace)
}

func spacedPhrase(phrase string) string {
	words := strings.Fields(phrase)
	for i, w := range words {
		words[i] = spacedWord(w)
	}
	return strings.Join(words, reqSpace)
}

// Cache memoizes compiled rules per table and label. Compiled rules are
// immutable, so a Cache can be shared by any number of Segmenters.
type Cache struct {
	mu    sync.Mutex
	rules map[cacheKey]*Rule
}

type cacheKey struct {
	table *sections.Table
	label sections.Label
}

// NewCache returns an empty rule cache.
func NewCache() *Cache {
	return &Cache{rules: make(map[cacheKey]*Rule)}
}

// Rule returns the compiled rule for label in table, compiling it on first use.
func (c *Cache) Rule(table *sections.Table, label sections.Label) *Rule {
	key := cacheKey{table: table, label: label}

	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.rules[key]; ok {
		return r
	}
	r := CompileRule(table.Variants(label))
	c.rules[key] = r
	return r
}

// Len returns the number of cached rules.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rules)
}
