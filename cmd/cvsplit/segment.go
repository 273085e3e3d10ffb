package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/cvsplit/internal/config"
	"github.com/dgallion1/cvsplit/internal/parser"
	"github.com/dgallion1/cvsplit/internal/segmenter"
)

var segmentCmd = &cobra.Command{
	Use:   "segment <file|->",
	Short: "Segment one CV and print its sections as JSON",
	Long:  "Segment one CV and print its sections as JSON. Use - to read plain text from stdin.",
	Args:  cobra.ExactArgs(1),
	RunE:  runSegment,
}

func init() {
	rootCmd.AddCommand(segmentCmd)

	segmentCmd.Flags().Bool("spans", false, "print ordered spans, keeping repeated headings")
}

func runSegment(cmd *cobra.Command, args []string) error {
	withSpans, _ := cmd.Flags().GetBool("spans")

	table, err := loadTable()
	if err != nil {
		return err
	}
	text, err := readText(args[0])
	if err != nil {
		return err
	}

	seg := segmenter.New(table)
	if withSpans {
		spans := seg.Spans(text)
		if spans == nil {
			spans = []segmenter.Span{}
		}
		return printJSON(cmd.OutOrStdout(), spans)
	}
	return printJSON(cmd.OutOrStdout(), seg.Segment(text))
}

// readText returns plain text from stdin for "-", otherwise the parsed
// contents of path.
func readText(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}

	cfg := config.Load()
	p, err := parser.ForFile(path, parser.Config{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext})
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	doc, err := p.Parse(f, filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", path, err)
	}
	return doc.Text, nil
}
