// Package storage provides the durable backends autosave envelopes are
// written to. Every backend satisfies draft.Store.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/debemdeboas/autosave/internal/config"
	"github.com/debemdeboas/autosave/internal/db"
	"github.com/debemdeboas/autosave/internal/draft"
	"github.com/debemdeboas/autosave/internal/util/compression"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned by Get when nothing is stored under the key.
var ErrNotFound = errors.New("autosave not found")

var storageLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	storageLogger = l
}

// Store is a draft.Store that owns a connection or handle.
type Store interface {
	draft.Store
	Close() error
}

// Open builds the backend named by cfg.Backend. The sqlite backend reuses
// shared when cfg.SQLitePath is empty.
func Open(ctx context.Context, cfg config.StorageConfig, shared db.DB) (Store, error) {
	compressor, err := compression.ByName(cfg.Compression)
	if err != nil {
		return nil, err
	}

	storageLogger.Info().Str("backend", cfg.Backend).Str("compression", cfg.Compression).Msg("Opening autosave storage")

	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendFS:
		return NewFSStore(cfg.FSDir)
	case config.BackendSQLite:
		if cfg.SQLitePath == "" {
			if shared == nil {
				return nil, fmt.Errorf("sqlite storage needs a database")
			}
			return NewSQLiteStore(shared, compressor, false), nil
		}
		own := db.NewSQLite(cfg.SQLitePath)
		if err := own.InitDB(); err != nil {
			return nil, err
		}
		return NewSQLiteStore(own, compressor, true), nil
	case config.BackendRedis:
		return NewRedisStore(ctx, cfg.RedisURL, cfg.RedisPrefix, cfg.RedisTTL())
	case config.BackendS3:
		return NewS3Store(ctx, S3Options{
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			Prefix:    cfg.S3Prefix,
			Region:    cfg.S3Region,
			PathStyle: cfg.S3PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
