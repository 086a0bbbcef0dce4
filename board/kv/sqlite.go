package kv

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"
)

// SQLiteConfig is loaded under KV_SQLITE_*. An empty path means DefaultSQLitePath.
type SQLiteConfig struct {
	Path string `envconfig:"PATH"`
}

// DefaultSQLitePath is yearboard/board.db under the user's config directory,
// or under ./.yearboard when that directory is unknown.
func DefaultSQLitePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return filepath.Join(".yearboard", "board.db")
	}
	return filepath.Join(dir, "yearboard", "board.db")
}

// NewSQLiteStore opens or creates the database file and its kv_entries table.
func NewSQLiteStore(ctx context.Context, cfg SQLiteConfig) (*SQLStore, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		path = DefaultSQLitePath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: create data dir: %w", err)
	}

	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// one writer at a time; concurrent connections would hit SQLITE_BUSY
	sqldb.SetMaxOpenConns(1)

	store := newSQLStore(bun.NewDB(sqldb, sqlitedialect.New()), "sqlite")
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
