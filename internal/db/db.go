// Package db persists pipeline reports in PostgreSQL or SQLite.
package db

import (
	"context"
	"fmt"

	"github.com/jonathan/resume-forge/internal/config"
)

// Open returns the store selected by cfg.Driver. Driver "none" (or empty) yields a nil
// store and no error; callers treat a nil Store as persistence disabled.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "", "none":
		return nil, nil
	case "postgres":
		s, err := OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := OpenSQLite(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
