package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/cvsplit/internal/config"
	"github.com/dgallion1/cvsplit/internal/parser"
	"github.com/dgallion1/cvsplit/internal/pipeline"
	"github.com/dgallion1/cvsplit/internal/segmenter"
	"github.com/dgallion1/cvsplit/internal/store"
)

var splitCmd = &cobra.Command{
	Use:   "split <dir>",
	Short: "Segment every CV in a directory, writing one JSON file per document",
	Args:  cobra.ExactArgs(1),
	RunE:  runSplit,
}

func init() {
	rootCmd.AddCommand(splitCmd)

	splitCmd.Flags().StringP("out", "o", "output", "directory for <doc_id>.json results")
	splitCmd.Flags().IntP("concurrency", "c", 4, "documents processed in parallel")
	splitCmd.Flags().Bool("skip-duplicates", false, "skip documents whose content was already written to --out")
}

func runSplit(cmd *cobra.Command, args []string) error {
	log := newLogger(os.Stderr)

	out, _ := cmd.Flags().GetString("out")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	skipDup, _ := cmd.Flags().GetBool("skip-duplicates")

	table, err := loadTable()
	if err != nil {
		return err
	}
	st, err := store.OpenFiles(out)
	if err != nil {
		return err
	}
	defer st.Close()

	// Chunking and PDF settings share the service's environment defaults.
	cfg := config.Load()
	worker := pipeline.NewWorker(
		segmenter.New(table, segmenter.WithCache(segmenter.NewCache())),
		st, log,
		pipeline.ChunkConfig(cfg),
		parser.Config{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
	)

	batch := &pipeline.Batch{
		Worker:      worker,
		Concurrency: concurrency,
		Force:       !skipDup,
		Log:         log,
	}
	report, err := batch.Run(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if jsonOut {
		if err := printJSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
	} else {
		printReport(cmd.OutOrStdout(), report, out)
	}

	if report.AllFailed() {
		return errAllFailed
	}
	return nil
}

func printReport(w io.Writer, r *pipeline.BatchReport, out string) {
	for _, res := range r.Results {
		switch {
		case res.Error != "":
			fmt.Fprintf(w, "FAIL  %s: %s\n", res.Filename, res.Error)
		case res.Status == pipeline.StatusDupSkipped:
			fmt.Fprintf(w, "SKIP  %s: duplicate of %s\n", res.Filename, res.DuplicateOf)
		default:
			fmt.Fprintf(w, "OK    %s -> %s.json (%d sections, %d chunks)\n", res.Filename, res.DocID, res.Sections, res.Chunks)
		}
	}
	fmt.Fprintf(w, "\n%d documents in %s: %d written to %s, %d skipped, %d failed (%s)\n",
		r.Total, r.Dir, r.Succeeded, out, r.Skipped, r.Failed, r.Duration.Round(time.Millisecond))
}
