// Package repository is the server-side home of documents. A value loaded
// here seeds a draft session, and a successful Save is what marks a draft
// as saved.
package repository

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

var ErrNotFound = errors.New("document not found")

var repoLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	repoLogger = l
}

type Repository[T any] interface {
	Load(ctx context.Context, id string) (T, error)
	Save(ctx context.Context, id string, value T) error
	Create(ctx context.Context, value T) (string, error)
}
