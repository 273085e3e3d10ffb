package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dgallion1/cvsplit/internal/sections"
)

const app = "cvsplit"

var errAllFailed = errors.New("every document failed")

var (
	// Used for flags.
	tableFile string
	jsonOut   bool
	debug     bool

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "cvsplit splits CVs and résumés into labeled sections",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&tableFile, "table", "", "YAML heading table (default is the built-in table)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "json output and logging")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "verbose/debug output")
}

func newLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
	}
	if jsonOut {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func loadTable() (*sections.Table, error) {
	if tableFile == "" {
		return sections.Default(), nil
	}
	return sections.LoadFile(tableFile)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
