package store

import (
	"fmt"

	"github.com/dgallion1/cvsplit/internal/config"
	"github.com/dgallion1/cvsplit/internal/pathstore"
)

// Open returns the backend selected by cfg.StoreBackend.
func Open(cfg config.Config) (Store, error) {
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		return OpenSQLite(cfg.SQLitePath)
	case config.BackendFile:
		return OpenFiles(cfg.OutputDir)
	case config.BackendPathstore:
		return NewPathstore(pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
