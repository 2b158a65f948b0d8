package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/debemdeboas/autosave/internal/db"
	"github.com/debemdeboas/autosave/internal/util/compression"
)

// SQLiteStore keeps autosaves in the autosaves table.
type SQLiteStore struct {
	db         db.DB
	compressor compression.Compressor
	owned      bool
}

// NewSQLiteStore wraps database. A nil compressor stores values verbatim.
// When owned is set, Close also closes database.
func NewSQLiteStore(database db.DB, compressor compression.Compressor, owned bool) *SQLiteStore {
	return &SQLiteStore{
		db:         database,
		compressor: compressor,
		owned:      owned,
	}
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.Get().QueryRowContext(ctx, `SELECT value FROM autosaves WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select autosave: %w", err)
	}

	if s.compressor != nil {
		value, err = s.compressor.Decompress(value)
		if err != nil {
			return nil, fmt.Errorf("decompress autosave: %w", err)
		}
	}
	return value, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	if s.compressor != nil {
		var err error
		value, err = s.compressor.Compress(value)
		if err != nil {
			return fmt.Errorf("compress autosave: %w", err)
		}
	}

	_, err := s.db.Get().ExecContext(ctx, `
		INSERT INTO autosaves (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value)
	if err != nil {
		return fmt.Errorf("upsert autosave: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.Get().ExecContext(ctx, `DELETE FROM autosaves WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete autosave: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.owned {
		return s.db.Close()
	}
	return nil
}
