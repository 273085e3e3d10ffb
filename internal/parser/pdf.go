package parser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/dgallion1/cvsplit/internal/document"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles PDF files. It tries the Go library first, then falls
// back to pdftotext when enabled and installed.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	// ledongthuc/pdf requires a ReaderAt+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "cvsplit-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	pages, title, err := readPDF(tmpPath)
	text := joinPages(pages)
	if (err != nil || text == "") && p.FallbackPdftotext {
		if out, altErr := pdftotext(tmpPath); altErr == nil {
			text, err = joinPages(strings.Split(out, "\f")), nil
		} else if err == nil {
			err = altErr
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	if title == "" {
		title = stem(filename)
	}
	return &document.Document{
		Filename: filename,
		Title:    title,
		Format:   format(filename),
		Text:     text,
	}, nil
}

// readPDF returns the plain text of each page and the Info dictionary
// title, if any. Pages that fail to decode are left empty.
func readPDF(path string) ([]string, string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	title := strings.TrimSpace(reader.Trailer().Key("Info").Key("Title").Text())

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			text = ""
		}
		pages = append(pages, text)
	}
	return pages, title, nil
}

func pdftotext(path string) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", "-enc", "UTF-8", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}

// joinPages concatenates page texts with line breaks so a heading at the
// top of a page starts its own line.
func joinPages(pages []string) string {
	kept := make([]string, 0, len(pages))
	for _, p := range pages {
		p = strings.TrimRight(normalizeText(p), " \t\n")
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
