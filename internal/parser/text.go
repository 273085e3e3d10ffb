package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/cvsplit/internal/document"
)

// TextParser handles plain text files. Lines pass through unchanged apart
// from line ending normalization.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &document.Document{
		Filename: filename,
		Title:    stem(filename),
		Format:   format(filename),
		Text:     normalizeText(strings.Join(lines, "\n")),
	}, nil
}
