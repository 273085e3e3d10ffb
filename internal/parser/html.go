package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/cvsplit/internal/document"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files. Heading tags become "#" heading lines and
// block elements become one line each.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	d := &document.Document{
		Filename: filename,
		Title:    stem(filename),
		Format:   format(filename),
	}
	if title := findTitle(doc); title != "" {
		d.Title = title
	}

	var lines []string
	emit := func(line string) {
		if line != "" {
			lines = append(lines, line)
		}
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				if t := textContent(n); t != "" {
					// Blank line before headings keeps block boundaries visible.
					if len(lines) > 0 {
						lines = append(lines, "")
					}
					emit(headingLine(level, t))
				}
				return
			}

			switch n.Data {
			case "script", "style", "nav", "noscript", "template":
				return
			case "p", "li", "td", "th", "dt", "dd", "blockquote", "pre", "address":
				emit(textContent(n))
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}

	d.Text = strings.Join(lines, "\n")
	return d, nil
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

// textContent returns the text under n collapsed onto a single line.
func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			buf.WriteString(n.Data)
		case n.Type == html.ElementNode && n.Data == "br":
			buf.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
