package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/cvsplit/internal/chunker"
	"github.com/dgallion1/cvsplit/internal/document"
	"github.com/dgallion1/cvsplit/internal/parser"
	"github.com/dgallion1/cvsplit/internal/segmenter"
	"github.com/dgallion1/cvsplit/internal/store"
)

// Worker processes a single document job.
type Worker struct {
	seg       *segmenter.Segmenter
	store     store.Store
	log       *slog.Logger
	chunkCfg  chunker.Config
	parserCfg parser.Config

	// storeSem bounds concurrent writes across workers; nil means unbounded.
	storeSem chan struct{}
	backoff  func(int) time.Duration
}

func NewWorker(seg *segmenter.Segmenter, st store.Store, log *slog.Logger, chunkCfg chunker.Config, parserCfg parser.Config) *Worker {
	return &Worker{
		seg:       seg,
		store:     st,
		log:       log,
		chunkCfg:  chunkCfg,
		parserCfg: parserCfg,
		backoff:   Backoff,
	}
}

// Process runs the full ingest pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename, w.parserCfg)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	doc, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	doc.ID = job.DocID
	if job.Title != "" {
		doc.Title = job.Title
	}

	// Hash the parsed text so re-encoded copies of one CV dedup together.
	hash := document.ContentHashHex([]byte(doc.Text))
	job.SetContentHash(hash)

	// Phase 1.5: Dedup check
	if !job.Force {
		existing, err := w.store.FindByHash(ctx, hash)
		switch {
		case err == nil:
			log.Info("duplicate document, skipping", "existing_doc_id", existing)
			job.MarkDuplicate(existing)
			return
		case !errors.Is(err, store.ErrNotFound):
			log.Warn("dedup check failed, proceeding", "error", err)
		}
	}

	// Phase 2: Segment
	job.SetStatus(StatusSegmenting, "segmenting")
	rec := w.Segment(doc, hash)
	if len(rec.Spans) == 0 {
		log.Warn("no text after parsing")
		job.AddError("no extractable content")
		job.SetStatus(StatusFailed, "segmenting")
		return
	}

	// Phase 3: Chunk
	job.SetStatus(StatusChunking, "chunking")
	rec.Chunks = chunker.ChunkSpans(rec.Title, rec.Spans, w.chunkCfg)
	job.SetCounts(len(segmenter.Headings(rec.Spans)), len(rec.Sections), len(rec.Chunks))
	log.Info("segmented document",
		"sections", len(rec.Sections),
		"spans", len(rec.Spans),
		"chunks", len(rec.Chunks),
	)

	// Phase 4: Store
	job.SetStatus(StatusStoring, "storing")
	if err := w.save(ctx, rec); err != nil {
		log.Error("store failed", "error", err)
		job.AddError(fmt.Sprintf("store: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}

	job.SetStatus(StatusCompleted, "done")
}

// Segment builds the record for a parsed document without chunking or
// storing it.
func (w *Worker) Segment(doc *document.Document, hash string) *document.Record {
	spans := w.seg.Spans(doc.Text)
	return &document.Record{
		DocID:       doc.ID,
		Filename:    doc.Filename,
		Title:       doc.Title,
		ContentHash: hash,
		Sections:    segmenter.Collapse(spans),
		Spans:       spans,
		CreatedAt:   time.Now().UTC(),
	}
}

func (w *Worker) save(ctx context.Context, rec *document.Record) error {
	if w.storeSem != nil {
		select {
		case w.storeSem <- struct{}{}:
			defer func() { <-w.storeSem }()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return retry(ctx, w.backoff, func() error {
		err := w.store.Save(ctx, rec)
		if err != nil && IsRetryable(err) {
			w.log.Warn("retryable store error", "doc_id", rec.DocID, "error", err)
		}
		return err
	})
}
