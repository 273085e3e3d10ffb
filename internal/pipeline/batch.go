package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/cvsplit/internal/parser"
)

// BatchResult is the outcome for one file of a batch run.
type BatchResult struct {
	Filename    string    `json:"filename"`
	DocID       string    `json:"doc_id"`
	Status      JobStatus `json:"status"`
	Sections    int       `json:"sections"`
	Chunks      int       `json:"chunks"`
	DuplicateOf string    `json:"duplicate_of,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// BatchReport summarizes a directory run.
type BatchReport struct {
	Dir       string        `json:"dir"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration_ns"`
	Results   []BatchResult `json:"results"`
}

// AllFailed reports whether there was at least one document and none
// succeeded or was skipped as a duplicate.
func (r *BatchReport) AllFailed() bool {
	return r.Total > 0 && r.Failed == r.Total
}

// Batch segments every supported file in a directory, one document at a
// time per slot, isolating failures per file.
type Batch struct {
	Worker      *Worker
	Concurrency int
	Force       bool
	Log         *slog.Logger
}

// Run processes dir (not recursively). It returns an error only when the
// directory itself cannot be read.
func (b *Batch) Run(ctx context.Context, dir string) (*BatchReport, error) {
	start := time.Now()
	files, err := BatchFiles(dir)
	if err != nil {
		return nil, err
	}

	log := b.Log
	if log == nil {
		log = b.Worker.log
	}
	ids := docIDs(files)
	results := make([]BatchResult, len(files))

	sem := make(chan struct{}, max(b.Concurrency, 1))
	var wg sync.WaitGroup
	for i, name := range files {
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, name string) {
			defer func() { <-sem; wg.Done() }()
			results[i] = b.processFile(ctx, filepath.Join(dir, name), ids[i])
			if r := results[i]; r.Error != "" {
				log.Error("document failed", "file", name, "error", r.Error)
			} else {
				log.Info("document processed", "file", name, "doc_id", r.DocID, "status", r.Status, "sections", r.Sections)
			}
		}(i, name)
	}
	wg.Wait()

	report := &BatchReport{Dir: dir, Total: len(files), Results: results}
	for _, r := range results {
		switch r.Status {
		case StatusCompleted:
			report.Succeeded++
		case StatusDupSkipped:
			report.Skipped++
		default:
			report.Failed++
		}
	}
	report.Duration = time.Since(start)
	return report, nil
}

func (b *Batch) processFile(ctx context.Context, path, docID string) BatchResult {
	name := filepath.Base(path)
	res := BatchResult{Filename: name, DocID: docID}

	data, err := os.ReadFile(path)
	if err != nil {
		res.Status = StatusFailed
		res.Error = fmt.Sprintf("read: %s", err)
		return res
	}

	job := NewJob(name, docID, "", data, b.Force)
	b.Worker.Process(ctx, job)

	snap := job.Snapshot()
	res.Status = snap.Status
	res.Sections = snap.Progress.Sections
	res.Chunks = snap.Progress.Chunks
	res.DuplicateOf = snap.DuplicateOf
	if snap.Status == StatusFailed {
		res.Error = strings.Join(snap.Progress.Errors, "; ")
		if res.Error == "" {
			res.Error = "failed in " + snap.Phase
		}
	}
	return res
}

// BatchFiles lists the supported regular files directly inside dir, sorted
// by name.
func BatchFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if parser.IsSupportedExtension(e.Name()) {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

var unsafeIDChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// docIDs names each output after its file stem. Stems shared by several
// files get the extension appended, and any ID still taken (including by
// case) gets a numeric suffix, so every file writes its own record.
func docIDs(files []string) []string {
	stems := make([]string, len(files))
	count := make(map[string]int)
	for i, f := range files {
		stems[i] = slug(strings.TrimSuffix(f, filepath.Ext(f)))
		count[stems[i]]++
	}
	ids := make([]string, len(files))
	seen := make(map[string]bool, len(files))
	for i, f := range files {
		id := stems[i]
		if count[stems[i]] > 1 {
			id = stems[i] + "-" + strings.TrimPrefix(strings.ToLower(filepath.Ext(f)), ".")
		}
		if seen[strings.ToLower(id)] {
			base := id
			for n := 2; seen[strings.ToLower(id)]; n++ {
				id = fmt.Sprintf("%s-%d", base, n)
			}
		}
		seen[strings.ToLower(id)] = true
		ids[i] = id
	}
	return ids
}

func slug(s string) string {
	s = unsafeIDChars.ReplaceAllString(s, "_")
	s = strings.TrimLeft(s, "._-")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "document"
	}
	return s
}
