package database

import (
	"fmt"
	"os"
	"path/filepath"

	"csync-go/internal/config"
	"csync-go/internal/schedule"
)

// scheduleDBFile is the file name used for the SQLite store inside the
// configured data directory.
const scheduleDBFile = "schedules.db"

// NewStoreFromConfig creates a schedule store based on the database config type.
func NewStoreFromConfig(cfg config.DatabaseConfig) (schedule.Store, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		return NewSQLiteStore(filepath.Join(cfg.DataDir, scheduleDBFile))
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
