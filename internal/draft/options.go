package draft

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultDebounce       = 800 * time.Millisecond
	DefaultHistoryLimit   = 100
	DefaultStorageTimeout = 2 * time.Second
)

// Store is the durable key/value slot the manager persists its latest
// snapshot to. Any error returned by Get is treated as "nothing stored".
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Codec turns editable values into their canonical serialized form.
// Marshal must be deterministic: two values are considered equal when
// their serialized forms are equal.
type Codec[T any] interface {
	Marshal(v T) (string, error)
	Unmarshal(s string) (T, error)
}

// JSONCodec serializes with encoding/json. Struct fields keep declaration
// order and map keys are sorted, so the output is stable.
type JSONCodec[T any] struct{}

func (JSONCodec[T]) Marshal(v T) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (JSONCodec[T]) Unmarshal(s string) (T, error) {
	var v T
	err := json.Unmarshal([]byte(s), &v)
	return v, err
}

// Timer is a handle to a scheduled callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d has elapsed.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type options[T any] struct {
	debounce       time.Duration
	historyLimit   int
	storageTimeout time.Duration
	codec          Codec[T]
	scheduler      Scheduler
	now            func() time.Time
	logger         zerolog.Logger
	onPersist      func(key string, at time.Time)
}

type Option[T any] func(*options[T])

func WithDebounce[T any](d time.Duration) Option[T] {
	return func(o *options[T]) {
		if d >= 0 {
			o.debounce = d
		}
	}
}

// WithHistoryLimit bounds the undo stack. Values below 1 are raised to 1.
func WithHistoryLimit[T any](n int) Option[T] {
	return func(o *options[T]) {
		if n < 1 {
			n = 1
		}
		o.historyLimit = n
	}
}

func WithStorageTimeout[T any](d time.Duration) Option[T] {
	return func(o *options[T]) {
		if d > 0 {
			o.storageTimeout = d
		}
	}
}

func WithCodec[T any](c Codec[T]) Option[T] {
	return func(o *options[T]) {
		if c != nil {
			o.codec = c
		}
	}
}

func WithScheduler[T any](s Scheduler) Option[T] {
	return func(o *options[T]) {
		if s != nil {
			o.scheduler = s
		}
	}
}

func WithClock[T any](now func() time.Time) Option[T] {
	return func(o *options[T]) {
		if now != nil {
			o.now = now
		}
	}
}

func WithLogger[T any](l zerolog.Logger) Option[T] {
	return func(o *options[T]) {
		o.logger = l
	}
}

// WithPersistHook registers fn to be called after every successful storage
// write. It runs while the manager is locked and must not call back into it.
func WithPersistHook[T any](fn func(key string, at time.Time)) Option[T] {
	return func(o *options[T]) {
		o.onPersist = fn
	}
}

func defaultOptions[T any]() options[T] {
	return options[T]{
		debounce:       DefaultDebounce,
		historyLimit:   DefaultHistoryLimit,
		storageTimeout: DefaultStorageTimeout,
		codec:          JSONCodec[T]{},
		scheduler:      realScheduler{},
		now:            time.Now,
		logger:         zerolog.Nop(),
	}
}

type saveOptions struct {
	keepAutosave bool
}

// SaveOption tunes MarkServerSaved.
type SaveOption func(*saveOptions)

// KeepAutosave leaves the stored autosave in place after a server save.
func KeepAutosave() SaveOption {
	return func(o *saveOptions) {
		o.keepAutosave = true
	}
}
