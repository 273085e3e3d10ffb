package parser

import (
	"io"
	"strings"

	"github.com/dgallion1/cvsplit/internal/document"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files. The raw markdown is kept as the
// document text since the segmenter understands heading and emphasis
// markers; goldmark is only used to find the title.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	body := normalizeText(string(src))

	title := firstHeading([]byte(body))
	if title == "" {
		title = stem(filename)
	}

	return &document.Document{
		Filename: filename,
		Title:    title,
		Format:   format(filename),
		Text:     body,
	}, nil
}

// firstHeading returns the text of the first heading in the markdown
// source, with inline markup removed.
func firstHeading(src []byte) string {
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	var title string
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok {
			title = inlineText(h, src)
			if title != "" {
				return ast.WalkStop, nil
			}
		}
		return ast.WalkContinue, nil
	})
	return title
}

func inlineText(n ast.Node, src []byte) string {
	var sb strings.Builder
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				sb.Write(t.Segment.Value(src))
				if t.SoftLineBreak() || t.HardLineBreak() {
					sb.WriteByte(' ')
				}
				continue
			}
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
