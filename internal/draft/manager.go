// Package draft keeps undo/redo history, debounced autosave and dirty
// tracking for a single editable value.
package draft

import (
	"context"
	"sync"
	"time"
)

type candidate struct {
	at    time.Time
	state string
}

// Status is a point-in-time view of a manager for an editing surface.
type Status struct {
	Initialized           bool       `json:"initialized"`
	Dirty                 bool       `json:"dirty"`
	AutosavePending       bool       `json:"autosave_pending"`
	LastAutosavedAt       *time.Time `json:"last_autosaved_at,omitempty"`
	HasRestorableAutosave bool       `json:"has_restorable_autosave"`
	RestorableAutosaveAt  *time.Time `json:"restorable_autosave_at,omitempty"`
	CanUndo               bool       `json:"can_undo"`
	CanRedo               bool       `json:"can_redo"`
	PastDepth             int        `json:"past_depth"`
	FutureDepth           int        `json:"future_depth"`
}

// Manager tracks one editing buffer. Snapshots are compared in serialized
// form. Edits observed within the debounce window coalesce into a single
// undo step, and each committed step is written to the store.
type Manager[T any] struct {
	key   string
	store Store
	opts  options[T]

	mu sync.Mutex

	initialized bool
	past        []string
	future      []string
	present     string
	server      string

	pending    *string
	timer      Timer
	generation uint64

	dirty           bool
	autosavePending bool
	lastAutosavedAt *time.Time
	restore         *candidate
}

// New creates a manager bound to the storage slot named key.
func New[T any](key string, store Store, opts ...Option[T]) *Manager[T] {
	o := defaultOptions[T]()
	for _, opt := range opts {
		opt(&o)
	}
	return &Manager[T]{
		key:   key,
		store: store,
		opts:  o,
	}
}

// Key is the storage key autosaves are written under.
func (m *Manager[T]) Key() string {
	return m.key
}

// InitFromServer resets all history to state, the value last confirmed by
// the remote system, and looks for a diverging autosave to offer for
// recovery. It only fails when state cannot be serialized.
func (m *Manager[T]) InitFromServer(state T) error {
	snap, err := m.opts.codec.Marshal(state)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancelTimer()
	m.past = nil
	m.future = nil
	m.present = snap
	m.server = snap
	m.pending = nil
	m.dirty = false
	m.autosavePending = false
	m.lastAutosavedAt = nil
	m.restore = nil
	m.initialized = true

	m.detectCandidate()
	return nil
}

func (m *Manager[T]) detectCandidate() {
	data, err := m.load()
	if err != nil {
		return
	}

	env, ts, err := DecodeEnvelope(data)
	if err != nil {
		m.opts.logger.Debug().Err(err).Str("key", m.key).Msg("Ignoring stored autosave")
		return
	}

	if env.StateJSON == m.server {
		m.remove()
		return
	}

	if _, err := m.opts.codec.Unmarshal(env.StateJSON); err != nil {
		m.opts.logger.Debug().Err(err).Str("key", m.key).Msg("Stored autosave does not decode")
		return
	}

	m.restore = &candidate{at: ts, state: env.StateJSON}
	m.opts.logger.Info().Str("key", m.key).Time("autosaved_at", ts).Msg("Restorable autosave found")
}

// Observe records the live value. Calls that keep diverging from the last
// committed snapshot push the commit out by the debounce interval.
func (m *Manager[T]) Observe(state T) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return
	}

	snap, ok := m.marshal(state)
	if !ok {
		return
	}

	m.dirty = snap != m.server

	if snap == m.present {
		m.pending = nil
		m.cancelTimer()
		m.autosavePending = false
		return
	}

	m.pending = &snap
	m.autosavePending = true
	m.schedule()
}

// Flush commits the pending snapshot, if any, without waiting for the
// debounce timer.
func (m *Manager[T]) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return
	}
	m.cancelTimer()
	m.commitPending()
}

// CanUndo reports whether Undo(current) would change anything. current is
// the live editor value; an uncommitted edit counts as one undo step.
func (m *Manager[T]) CanUndo(current T) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.canUndo(current)
}

func (m *Manager[T]) canUndo(current T) bool {
	if !m.initialized {
		return false
	}
	if len(m.past) > 0 {
		return true
	}
	snap, ok := m.marshal(current)
	return ok && snap != m.present
}

// CanRedo reports whether Redo(current) would change anything. Editing
// current away from the last committed snapshot forfeits the redo steps.
func (m *Manager[T]) CanRedo(current T) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.canRedo(current)
}

func (m *Manager[T]) canRedo(current T) bool {
	if !m.initialized || len(m.future) == 0 {
		return false
	}
	snap, ok := m.marshal(current)
	return ok && snap == m.present
}

// Undo commits current and steps back one snapshot. It reports false when
// there is nothing to undo.
func (m *Manager[T]) Undo(current T) (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	if !m.initialized {
		return zero, false
	}

	m.flushWith(current)
	if len(m.past) == 0 {
		return zero, false
	}

	m.future = append(m.future, m.present)
	m.present = m.past[len(m.past)-1]
	m.past = m.past[:len(m.past)-1]
	m.dirty = m.present != m.server
	m.persist(m.present, m.opts.now())

	return m.decodePresent()
}

// Redo commits current and re-applies the most recently undone snapshot.
func (m *Manager[T]) Redo(current T) (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	if !m.initialized {
		return zero, false
	}

	m.flushWith(current)
	if len(m.future) == 0 {
		return zero, false
	}

	m.pushPast(m.present)
	m.present = m.future[len(m.future)-1]
	m.future = m.future[:len(m.future)-1]
	m.dirty = m.present != m.server
	m.persist(m.present, m.opts.now())

	return m.decodePresent()
}

// MarkServerSaved records that state has been persisted remotely. The
// stored autosave is removed unless KeepAutosave is given.
func (m *Manager[T]) MarkServerSaved(state T, opts ...SaveOption) {
	var so saveOptions
	for _, opt := range opts {
		opt(&so)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return
	}

	m.flushWith(state)
	m.server = m.present
	m.dirty = false

	if !so.keepAutosave {
		m.remove()
		m.lastAutosavedAt = nil
	}
}

// RestoreAutosave applies the restore candidate found by InitFromServer as
// a new undoable step. It reports false when there is nothing to restore.
func (m *Manager[T]) RestoreAutosave(current T) (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	if !m.initialized || m.restore == nil {
		return zero, false
	}

	c := m.restore
	m.flushWith(current)
	if c.state == m.present {
		m.restore = nil
		return zero, false
	}

	m.pushPast(m.present)
	m.present = c.state
	m.future = nil
	at := c.at
	m.lastAutosavedAt = &at
	m.dirty = m.present != m.server
	m.restore = nil
	m.persist(m.present, c.at)

	return m.decodePresent()
}

// DiscardAutosave drops the stored autosave and any restore candidate.
func (m *Manager[T]) DiscardAutosave() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return
	}
	m.remove()
	m.restore = nil
}

// Dispose cancels the pending debounce timer. Storage is left alone.
func (m *Manager[T]) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelTimer()
}

// Initialized reports whether InitFromServer has succeeded.
func (m *Manager[T]) Initialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}

// Dirty reports whether the last observed value differs from the server copy.
func (m *Manager[T]) Dirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirty
}

// AutosavePending is true while an observed change waits for the debounce.
func (m *Manager[T]) AutosavePending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.autosavePending
}

// LastAutosavedAt is the timestamp of the envelope most recently written.
func (m *Manager[T]) LastAutosavedAt() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastAutosavedAt == nil {
		return time.Time{}, false
	}
	return *m.lastAutosavedAt, true
}

func (m *Manager[T]) HasRestorableAutosave() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.restore != nil
}

// RestorableAutosaveAt is when the restore candidate was saved.
func (m *Manager[T]) RestorableAutosaveAt() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.restore == nil {
		return time.Time{}, false
	}
	return m.restore.at, true
}

// HistoryDepth returns the number of undo and redo steps available.
func (m *Manager[T]) HistoryDepth() (past, future int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.past), len(m.future)
}

// Status snapshots every flag at once, evaluating undo/redo against current.
func (m *Manager[T]) Status(current T) Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Status{
		Initialized:           m.initialized,
		Dirty:                 m.dirty,
		AutosavePending:       m.autosavePending,
		HasRestorableAutosave: m.restore != nil,
		CanUndo:               m.canUndo(current),
		CanRedo:               m.canRedo(current),
		PastDepth:             len(m.past),
		FutureDepth:           len(m.future),
	}
	if m.lastAutosavedAt != nil {
		at := *m.lastAutosavedAt
		s.LastAutosavedAt = &at
	}
	if m.restore != nil {
		at := m.restore.at
		s.RestorableAutosaveAt = &at
	}
	return s
}

// schedule replaces any outstanding timer. The generation check turns a
// callback that fired while a newer one was being scheduled into a no-op.
func (m *Manager[T]) schedule() {
	m.cancelTimer()
	m.generation++
	gen := m.generation
	m.timer = m.opts.scheduler.AfterFunc(m.opts.debounce, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if gen != m.generation {
			return
		}
		m.timer = nil
		m.commitPending()
	})
}

func (m *Manager[T]) cancelTimer() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.generation++
}

func (m *Manager[T]) commitPending() {
	if m.pending == nil {
		m.autosavePending = false
		return
	}

	m.pushPast(m.present)
	m.present = *m.pending
	m.future = nil
	m.pending = nil
	m.dirty = m.present != m.server
	m.persist(m.present, m.opts.now())
	m.autosavePending = false
}

// flushWith treats current as the latest observation and commits it.
func (m *Manager[T]) flushWith(current T) {
	m.cancelTimer()
	if snap, ok := m.marshal(current); ok {
		if snap != m.present {
			m.pending = &snap
		} else {
			m.pending = nil
		}
	}
	m.commitPending()
}

func (m *Manager[T]) pushPast(snap string) {
	m.past = append(m.past, snap)
	if over := len(m.past) - m.opts.historyLimit; over > 0 {
		m.past = append([]string(nil), m.past[over:]...)
	}
}

func (m *Manager[T]) marshal(v T) (string, bool) {
	snap, err := m.opts.codec.Marshal(v)
	if err != nil {
		m.opts.logger.Error().Err(err).Str("key", m.key).Msg("Failed to serialize draft")
		return "", false
	}
	return snap, true
}

func (m *Manager[T]) decodePresent() (T, bool) {
	v, err := m.opts.codec.Unmarshal(m.present)
	if err != nil {
		m.opts.logger.Error().Err(err).Str("key", m.key).Msg("Failed to deserialize draft")
		var zero T
		return zero, false
	}
	return v, true
}

func (m *Manager[T]) storageContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.opts.storageTimeout)
}

func (m *Manager[T]) persist(state string, at time.Time) {
	if m.store == nil || !m.initialized {
		return
	}

	data, err := NewEnvelope(state, at).Encode()
	if err != nil {
		m.opts.logger.Warn().Err(err).Str("key", m.key).Msg("Failed to encode autosave")
		return
	}

	ctx, cancel := m.storageContext()
	defer cancel()
	if err := m.store.Set(ctx, m.key, data); err != nil {
		m.opts.logger.Warn().Err(err).Str("key", m.key).Msg("Failed to write autosave")
		return
	}

	at = at.UTC()
	m.lastAutosavedAt = &at
	if m.opts.onPersist != nil {
		m.opts.onPersist(m.key, at)
	}
}

func (m *Manager[T]) load() ([]byte, error) {
	if m.store == nil {
		return nil, ErrInvalidEnvelope
	}
	ctx, cancel := m.storageContext()
	defer cancel()
	data, err := m.store.Get(ctx, m.key)
	if err != nil {
		m.opts.logger.Debug().Err(err).Str("key", m.key).Msg("No autosave loaded")
	}
	return data, err
}

func (m *Manager[T]) remove() {
	if m.store == nil {
		return
	}
	ctx, cancel := m.storageContext()
	defer cancel()
	if err := m.store.Delete(ctx, m.key); err != nil {
		m.opts.logger.Warn().Err(err).Str("key", m.key).Msg("Failed to remove autosave")
	}
}
