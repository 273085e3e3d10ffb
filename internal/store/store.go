// Package store persists segmented documents. Backends share one interface
// so the pipeline, the HTTP API and the batch CLI do not care where records
// live.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/dgallion1/cvsplit/internal/document"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("store: not found")

// Store persists document records.
type Store interface {
	// Save writes rec, replacing any record with the same DocID.
	Save(ctx context.Context, rec *document.Record) error
	Get(ctx context.Context, docID string) (*document.Record, error)
	List(ctx context.Context) ([]document.Summary, error)
	Delete(ctx context.Context, docID string) error
	// FindByHash returns the ID of a stored document with the given content
	// hash, or ErrNotFound.
	FindByHash(ctx context.Context, hash string) (string, error)
	Close() error
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidateID rejects document IDs that are unsafe as file names or key
// path segments.
func ValidateID(docID string) error {
	if !idPattern.MatchString(docID) {
		return fmt.Errorf("invalid document id %q", docID)
	}
	return nil
}
