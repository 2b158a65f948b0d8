package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/debemdeboas/autosave/internal/db"
	"github.com/debemdeboas/autosave/internal/model"
	"github.com/debemdeboas/autosave/internal/util"
	"github.com/debemdeboas/autosave/internal/util/compression"
	"github.com/google/uuid"
)

// DBRepository stores documents of one kind as compressed JSON rows in the
// documents table.
type DBRepository[T any] struct {
	kind       model.Kind
	db         db.DB
	compressor compression.Compressor
	now        func() time.Time
}

func NewDBRepository[T any](database db.DB, kind model.Kind) *DBRepository[T] {
	return &DBRepository[T]{
		kind:       kind,
		db:         database,
		compressor: compression.ZstdCompressor{},
		now:        time.Now,
	}
}

func (r *DBRepository[T]) Kind() model.Kind {
	return r.kind
}

func (r *DBRepository[T]) Load(ctx context.Context, id string) (T, error) {
	var zero T
	var compressed []byte

	err := r.db.Get().QueryRowContext(ctx,
		`SELECT content FROM documents WHERE kind = ? AND id = ?`, r.kind, id,
	).Scan(&compressed)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, fmt.Errorf("%s %s: %w", r.kind, id, ErrNotFound)
	}
	if err != nil {
		return zero, fmt.Errorf("error querying %s: %w", r.kind, err)
	}

	content, err := r.compressor.Decompress(compressed)
	if err != nil {
		return zero, fmt.Errorf("error decompressing content: %w", err)
	}

	var value T
	if err := json.Unmarshal(content, &value); err != nil {
		return zero, fmt.Errorf("error decoding %s: %w", r.kind, err)
	}
	return value, nil
}

func (r *DBRepository[T]) encode(value T) ([]byte, string, error) {
	content, err := json.Marshal(value)
	if err != nil {
		return nil, "", fmt.Errorf("error encoding %s: %w", r.kind, err)
	}

	compressed, err := r.compressor.Compress(content)
	if err != nil {
		return nil, "", fmt.Errorf("error compressing content: %w", err)
	}
	return compressed, util.ContentHash(content), nil
}

// Create inserts value under a fresh id.
func (r *DBRepository[T]) Create(ctx context.Context, value T) (string, error) {
	compressed, hash, err := r.encode(value)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	now := r.now().UTC()

	_, err = r.db.Get().ExecContext(ctx,
		`INSERT INTO documents (kind, id, content, content_hash, created_at, modified_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.kind, id, compressed, hash, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("error creating %s: %w", r.kind, err)
	}

	repoLogger.Debug().Str("kind", string(r.kind)).Str("id", id).Msg("Document created")
	return id, nil
}

// Insert stores value under a caller-chosen id, replacing any existing row.
func (r *DBRepository[T]) Insert(ctx context.Context, id string, value T) error {
	compressed, hash, err := r.encode(value)
	if err != nil {
		return err
	}

	now := r.now().UTC()
	_, err = r.db.Get().ExecContext(ctx, `
		INSERT INTO documents (kind, id, content, content_hash, created_at, modified_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind, id) DO UPDATE SET content = excluded.content, content_hash = excluded.content_hash, modified_at = excluded.modified_at`,
		r.kind, id, compressed, hash, now, now,
	)
	if err != nil {
		return fmt.Errorf("error inserting %s: %w", r.kind, err)
	}
	return nil
}

// Save overwrites an existing document. Writing identical content leaves
// modified_at untouched.
func (r *DBRepository[T]) Save(ctx context.Context, id string, value T) error {
	compressed, hash, err := r.encode(value)
	if err != nil {
		return err
	}

	var current string
	err = r.db.Get().QueryRowContext(ctx,
		`SELECT content_hash FROM documents WHERE kind = ? AND id = ?`, r.kind, id,
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", r.kind, id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("error querying %s: %w", r.kind, err)
	}

	if current == hash {
		repoLogger.Debug().Str("kind", string(r.kind)).Str("id", id).Msg("Document unchanged, skipping write")
		return nil
	}

	res, err := r.db.Get().ExecContext(ctx,
		`UPDATE documents SET content = ?, content_hash = ?, modified_at = ? WHERE kind = ? AND id = ?`,
		compressed, hash, r.now().UTC(), r.kind, id,
	)
	if err != nil {
		return fmt.Errorf("error saving %s: %w", r.kind, err)
	}

	repoLogger.Debug().Interface("result", res).Str("kind", string(r.kind)).Str("id", id).Msg("Document saved")
	return nil
}

// ModifiedAt reports when the document last changed.
func (r *DBRepository[T]) ModifiedAt(ctx context.Context, id string) (time.Time, error) {
	var modified time.Time
	err := r.db.Get().QueryRowContext(ctx,
		`SELECT modified_at FROM documents WHERE kind = ? AND id = ?`, r.kind, id,
	).Scan(&modified)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("%s %s: %w", r.kind, id, ErrNotFound)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("error querying %s: %w", r.kind, err)
	}
	return modified, nil
}
