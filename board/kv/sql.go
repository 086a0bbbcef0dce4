package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

type kvEntry struct {
	bun.BaseModel `bun:"table:kv_entries,alias:kv"`

	Key       string    `bun:"key,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// SQLStore keeps one row per key in kv_entries. Postgres and SQLite share it.
type SQLStore struct {
	db   *bun.DB
	name string
	now  func() time.Time
}

var _ Store = (*SQLStore)(nil)

func newSQLStore(db *bun.DB, name string) *SQLStore {
	return &SQLStore{db: db, name: name, now: time.Now}
}

// Migrate creates kv_entries when missing.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.createTableQuery().Exec(ctx); err != nil {
		return fmt.Errorf("%s: create kv_entries: %w", s.name, err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}

	entry := &kvEntry{Key: key}
	if err := s.selectQuery(entry).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%s get %s: %w", s.name, key, err)
	}
	return entry.Value, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	entry := &kvEntry{Key: key, Value: value, UpdatedAt: s.now().UTC()}
	if _, err := s.upsertQuery(entry).Exec(ctx); err != nil {
		return fmt.Errorf("%s set %s: %w", s.name, key, err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) createTableQuery() *bun.CreateTableQuery {
	return s.db.NewCreateTable().Model((*kvEntry)(nil)).IfNotExists()
}

func (s *SQLStore) selectQuery(entry *kvEntry) *bun.SelectQuery {
	return s.db.NewSelect().Model(entry).WherePK()
}

func (s *SQLStore) upsertQuery(entry *kvEntry) *bun.InsertQuery {
	return s.db.NewInsert().
		Model(entry).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at")
}
