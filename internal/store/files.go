package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dgallion1/cvsplit/internal/document"
)

// Files writes one indented JSON record per document, named <doc_id>.json,
// into a directory. It is the batch CLI's output format.
type Files struct {
	dir string
	mu  sync.Mutex
}

// OpenFiles creates dir if needed.
func OpenFiles(dir string) (*Files, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("files: mkdir %s: %w", dir, err)
	}
	return &Files{dir: dir}, nil
}

// Dir returns the output directory.
func (f *Files) Dir() string {
	return f.dir
}

func (f *Files) path(docID string) string {
	return filepath.Join(f.dir, docID+".json")
}

func (f *Files) Save(_ context.Context, rec *document.Record) error {
	if err := ValidateID(rec.DocID); err != nil {
		return err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(f.dir, ".tmp-"+rec.DocID+"-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close record: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path(rec.DocID)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename record: %w", err)
	}
	return nil
}

func (f *Files) Get(_ context.Context, docID string) (*document.Record, error) {
	if ValidateID(docID) != nil {
		return nil, ErrNotFound
	}
	return f.read(f.path(docID))
}

func (f *Files) read(path string) (*document.Record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	var rec document.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return &rec, nil
}

// all reads every record in the directory. Files that do not decode as
// records are skipped.
func (f *Files) all() ([]*document.Record, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var recs []*document.Record
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			continue
		}
		rec, err := f.read(filepath.Join(f.dir, name))
		if err != nil || rec.DocID == "" {
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// List returns summaries, newest first.
func (f *Files) List(_ context.Context) ([]document.Summary, error) {
	recs, err := f.all()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		}
		return recs[i].DocID < recs[j].DocID
	})
	out := make([]document.Summary, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.Summary())
	}
	return out, nil
}

func (f *Files) Delete(_ context.Context, docID string) error {
	if ValidateID(docID) != nil {
		return ErrNotFound
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	err := os.Remove(f.path(docID))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

func (f *Files) FindByHash(_ context.Context, hash string) (string, error) {
	recs, err := f.all()
	if err != nil {
		return "", err
	}
	for _, rec := range recs {
		if rec.ContentHash == hash {
			return rec.DocID, nil
		}
	}
	return "", ErrNotFound
}

func (f *Files) Close() error { return nil }
