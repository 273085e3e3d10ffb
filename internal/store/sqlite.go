package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dgallion1/cvsplit/internal/document"
	"github.com/dgallion1/cvsplit/internal/segmenter"
)

// Schema holds one row per document plus its sections, spans and chunks.
// Child rows go away with their document.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
    doc_id       TEXT PRIMARY KEY,
    filename     TEXT NOT NULL,
    title        TEXT NOT NULL DEFAULT '',
    content_hash TEXT NOT NULL,
    created_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_hash ON documents(content_hash);

CREATE TABLE IF NOT EXISTS sections (
    doc_id TEXT NOT NULL REFERENCES documents(doc_id) ON DELETE CASCADE,
    label  TEXT NOT NULL,
    text   TEXT NOT NULL,
    PRIMARY KEY (doc_id, label)
);

CREATE TABLE IF NOT EXISTS spans (
    doc_id      TEXT NOT NULL REFERENCES documents(doc_id) ON DELETE CASCADE,
    ordinal     INTEGER NOT NULL,
    label       TEXT NOT NULL,
    heading     TEXT NOT NULL DEFAULT '',
    line_number INTEGER NOT NULL,
    start_line  INTEGER NOT NULL,
    end_line    INTEGER NOT NULL,
    text        TEXT NOT NULL,
    PRIMARY KEY (doc_id, ordinal)
);

CREATE TABLE IF NOT EXISTS chunks (
    doc_id     TEXT NOT NULL REFERENCES documents(doc_id) ON DELETE CASCADE,
    idx        INTEGER NOT NULL,
    label      TEXT NOT NULL,
    breadcrumb TEXT NOT NULL DEFAULT '[]',
    text       TEXT NOT NULL,
    line_start INTEGER NOT NULL,
    line_end   INTEGER NOT NULL,
    PRIMARY KEY (doc_id, idx)
);
`

// timeLayout is fixed-width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLite stores records in a SQLite database through modernc.org/sqlite.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path with WAL and
// foreign keys enabled, and applies Schema.
func OpenSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Save(ctx context.Context, rec *document.Record) error {
	if err := ValidateID(rec.DocID); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE doc_id = ?`, rec.DocID); err != nil {
		return fmt.Errorf("replace document: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (doc_id, filename, title, content_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.DocID, rec.Filename, rec.Title, rec.ContentHash, rec.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	for label, text := range rec.Sections {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sections (doc_id, label, text) VALUES (?, ?, ?)`,
			rec.DocID, label, text); err != nil {
			return fmt.Errorf("insert section %s: %w", label, err)
		}
	}

	for i, sp := range rec.Spans {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO spans (doc_id, ordinal, label, heading, line_number, start_line, end_line, text)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.DocID, i, sp.Label, sp.Heading, sp.LineNumber, sp.StartLine, sp.EndLine, sp.Text); err != nil {
			return fmt.Errorf("insert span %d: %w", i, err)
		}
	}

	for _, c := range rec.Chunks {
		bc, err := json.Marshal(c.Breadcrumb)
		if err != nil {
			return fmt.Errorf("marshal breadcrumb: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chunks (doc_id, idx, label, breadcrumb, text, line_start, line_end)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.DocID, c.Index, c.Label, string(bc), c.Text, c.LineStart, c.LineEnd); err != nil {
			return fmt.Errorf("insert chunk %d: %w", c.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLite) Get(ctx context.Context, docID string) (*document.Record, error) {
	rec := &document.Record{DocID: docID, Sections: segmenter.Sections{}}
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT filename, title, content_hash, created_at FROM documents WHERE doc_id = ?`, docID).
		Scan(&rec.Filename, &rec.Title, &rec.ContentHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	rec.CreatedAt, _ = time.Parse(timeLayout, created)

	if err := s.loadSections(ctx, rec); err != nil {
		return nil, err
	}
	if err := s.loadSpans(ctx, rec); err != nil {
		return nil, err
	}
	if err := s.loadChunks(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *SQLite) loadSections(ctx context.Context, rec *document.Record) error {
	rows, err := s.db.QueryContext(ctx, `SELECT label, text FROM sections WHERE doc_id = ?`, rec.DocID)
	if err != nil {
		return fmt.Errorf("query sections: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var label, text string
		if err := rows.Scan(&label, &text); err != nil {
			return fmt.Errorf("scan section: %w", err)
		}
		rec.Sections[label] = text
	}
	return rows.Err()
}

func (s *SQLite) loadSpans(ctx context.Context, rec *document.Record) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT label, heading, line_number, start_line, end_line, text
		 FROM spans WHERE doc_id = ? ORDER BY ordinal`, rec.DocID)
	if err != nil {
		return fmt.Errorf("query spans: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sp segmenter.Span
		if err := rows.Scan(&sp.Label, &sp.Heading, &sp.LineNumber, &sp.StartLine, &sp.EndLine, &sp.Text); err != nil {
			return fmt.Errorf("scan span: %w", err)
		}
		rec.Spans = append(rec.Spans, sp)
	}
	return rows.Err()
}

func (s *SQLite) loadChunks(ctx context.Context, rec *document.Record) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, label, breadcrumb, text, line_start, line_end
		 FROM chunks WHERE doc_id = ? ORDER BY idx`, rec.DocID)
	if err != nil {
		return fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c document.Chunk
		var bc string
		if err := rows.Scan(&c.Index, &c.Label, &bc, &c.Text, &c.LineStart, &c.LineEnd); err != nil {
			return fmt.Errorf("scan chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(bc), &c.Breadcrumb); err != nil {
			return fmt.Errorf("decode breadcrumb: %w", err)
		}
		rec.Chunks = append(rec.Chunks, c)
	}
	return rows.Err()
}

// List returns summaries, newest first.
func (s *SQLite) List(ctx context.Context) ([]document.Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc_id, filename, title, created_at FROM documents ORDER BY created_at DESC, doc_id`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	var recs []*document.Record
	byID := make(map[string]*document.Record)
	for rows.Next() {
		rec := &document.Record{Sections: segmenter.Sections{}}
		var created string
		if err := rows.Scan(&rec.DocID, &rec.Filename, &rec.Title, &created); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan document: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(timeLayout, created)
		recs = append(recs, rec)
		byID[rec.DocID] = rec
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	spanRows, err := s.db.QueryContext(ctx, `SELECT doc_id, label FROM spans ORDER BY doc_id, ordinal`)
	if err != nil {
		return nil, fmt.Errorf("list span labels: %w", err)
	}
	for spanRows.Next() {
		var id, label string
		if err := spanRows.Scan(&id, &label); err != nil {
			spanRows.Close()
			return nil, fmt.Errorf("scan span label: %w", err)
		}
		if rec := byID[id]; rec != nil {
			rec.Spans = append(rec.Spans, segmenter.Span{Label: label})
		}
	}
	spanRows.Close()

	sectionRows, err := s.db.QueryContext(ctx, `SELECT doc_id, label FROM sections`)
	if err != nil {
		return nil, fmt.Errorf("list section labels: %w", err)
	}
	for sectionRows.Next() {
		var id, label string
		if err := sectionRows.Scan(&id, &label); err != nil {
			sectionRows.Close()
			return nil, fmt.Errorf("scan section label: %w", err)
		}
		if rec := byID[id]; rec != nil {
			rec.Sections[label] = ""
		}
	}
	sectionRows.Close()

	out := make([]document.Summary, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.Summary())
	}
	return out, nil
}

func (s *SQLite) Delete(ctx context.Context, docID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE doc_id = ?`, docID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) FindByHash(ctx context.Context, hash string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc_id FROM documents WHERE content_hash = ? ORDER BY created_at LIMIT 1`, hash).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find by hash: %w", err)
	}
	return id, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

