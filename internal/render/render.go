// Package render turns segmented text into HTML for the document API.
package render

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dgallion1/cvsplit/internal/document"
)

// md escapes raw HTML in the source; CV text is untrusted input.
var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// HTML converts markdown to an HTML fragment.
func HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// Record renders every span of rec in document order, one <section> per
// span, headed by its source heading line.
func Record(rec *document.Record) (string, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<article data-doc-id=\"%s\">\n", html.EscapeString(rec.DocID))
	if rec.Title != "" {
		fmt.Fprintf(&buf, "<h1>%s</h1>\n", html.EscapeString(rec.Title))
	}
	for _, sp := range rec.Spans {
		fmt.Fprintf(&buf, "<section data-section=\"%s\">\n", html.EscapeString(sp.Label))
		if sp.Heading != "" {
			fmt.Fprintf(&buf, "<h2>%s</h2>\n", html.EscapeString(sp.Heading))
		}
		body, err := HTML(sp.Text)
		if err != nil {
			return "", err
		}
		buf.WriteString(body)
		buf.WriteString("</section>\n")
	}
	buf.WriteString("</article>\n")
	return buf.String(), nil
}
