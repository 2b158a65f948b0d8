// Package editor exposes draft sessions over HTTP. Each document kind gets
// its own Handler; a session is one draft.Manager per storage key.
package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/debemdeboas/autosave/internal/cache"
	"github.com/debemdeboas/autosave/internal/config"
	"github.com/debemdeboas/autosave/internal/draft"
	"github.com/debemdeboas/autosave/internal/model"
	"github.com/debemdeboas/autosave/internal/repository"
	"github.com/debemdeboas/autosave/internal/routes"
	"github.com/debemdeboas/autosave/internal/sse"
	"github.com/debemdeboas/autosave/internal/util"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 4 << 20

var editorLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	editorLogger = l
}

// modTimer is implemented by repositories that track modification times.
type modTimer interface {
	ModifiedAt(ctx context.Context, id string) (time.Time, error)
}

type Handler[T any] struct {
	kind  model.Kind
	route string

	repo    repository.Repository[T]
	store   draft.Store
	clients *sse.SSEClients

	sessions *cache.Cache[string, *draft.Manager[T]]
	lastUsed *cache.Cache[string, time.Time]
	opts     []draft.Option[T]
	now      func() time.Time
}

// NewHandler serves documents of kind under /api/{route}. opts are applied
// to every draft.Manager the handler creates.
func NewHandler[T any](kind model.Kind, route string, repo repository.Repository[T], store draft.Store, clients *sse.SSEClients, opts ...draft.Option[T]) *Handler[T] {
	return &Handler[T]{
		kind:     kind,
		route:    route,
		repo:     repo,
		store:    store,
		clients:  clients,
		sessions: cache.NewCache[string, *draft.Manager[T]](),
		lastUsed: cache.NewCache[string, time.Time](),
		opts:     opts,
		now:      time.Now,
	}
}

func (h *Handler[T]) Register(mux *http.ServeMux) {
	base := routes.APIPrefix + h.route
	doc := base + routes.DocID

	mux.HandleFunc("POST "+base, h.Create)
	mux.HandleFunc("GET "+doc, h.Load)
	mux.HandleFunc("PUT "+doc, h.Save)
	mux.HandleFunc("POST "+doc+routes.Observe, h.Observe)
	mux.HandleFunc("POST "+doc+routes.Undo, h.Undo)
	mux.HandleFunc("POST "+doc+routes.Redo, h.Redo)
	mux.HandleFunc("POST "+doc+routes.Status, h.Status)
	mux.HandleFunc("POST "+doc+routes.Restore, h.Restore)
	mux.HandleFunc("DELETE "+doc+routes.Autosave, h.DiscardAutosave)
	mux.HandleFunc("DELETE "+doc+routes.Session, h.CloseSession)
}

// Sessions reports how many managers are live.
func (h *Handler[T]) Sessions() int {
	return h.sessions.Len()
}

// Close flushes and disposes every live session.
func (h *Handler[T]) Close() {
	for _, key := range h.sessions.Keys() {
		h.evict(key)
	}
}

// SweepIdle flushes and disposes sessions not touched for longer than
// maxIdle. It returns how many were closed.
func (h *Handler[T]) SweepIdle(maxIdle time.Duration) int {
	cutoff := h.now().Add(-maxIdle)
	closed := 0
	for _, key := range h.sessions.Keys() {
		if last, ok := h.lastUsed.Get(key); ok && !last.Before(cutoff) {
			continue
		}
		if h.evict(key) {
			closed++
		}
	}
	if closed > 0 {
		editorLogger.Debug().Str("kind", string(h.kind)).Int("closed", closed).Msg("Closed idle editing sessions")
	}
	return closed
}

// RunSweeper calls SweepIdle every interval until ctx is done.
func (h *Handler[T]) RunSweeper(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.SweepIdle(maxIdle)
		}
	}
}

func (h *Handler[T]) evict(key string) bool {
	h.lastUsed.Delete(key)
	m, ok := h.sessions.Take(key)
	if !ok {
		return false
	}
	m.Flush()
	m.Dispose()
	return true
}

func (h *Handler[T]) touch(key string) {
	h.lastUsed.Set(key, h.now())
}

func (h *Handler[T]) key(r *http.Request) string {
	return model.StorageKey(h.kind, r.PathValue("id"), r.URL.Query().Get(config.QueryLang))
}

func (h *Handler[T]) newManager(key string) *draft.Manager[T] {
	opts := make([]draft.Option[T], 0, len(h.opts)+1)
	opts = append(opts, h.opts...)
	opts = append(opts, draft.WithPersistHook[T](func(key string, at time.Time) {
		h.broadcast(key, config.EventAutosaved, at)
	}))
	return draft.New[T](key, h.store, opts...)
}

func (h *Handler[T]) session(w http.ResponseWriter, r *http.Request) (*draft.Manager[T], bool) {
	key := h.key(r)
	m, ok := h.sessions.Get(key)
	if !ok {
		http.Error(w, "no open session for this document", http.StatusNotFound)
		return nil, false
	}
	h.touch(key)
	return m, true
}

func (h *Handler[T]) broadcast(key, event string, at time.Time) {
	if h.clients == nil {
		return
	}
	data, _ := json.Marshal(struct {
		Key string    `json:"key"`
		At  time.Time `json:"at"`
	}{key, at.UTC()})
	h.clients.Broadcast(key, sse.Event{Name: event, Data: string(data)})
}

type documentResponse[T any] struct {
	ID     string       `json:"id,omitempty"`
	Key    string       `json:"key"`
	Value  T            `json:"value"`
	Status draft.Status `json:"status"`
}

func (h *Handler[T]) Create(w http.ResponseWriter, r *http.Request) {
	value, ok := decodeBody[T](w, r)
	if !ok {
		return
	}

	id, err := h.repo.Create(r.Context(), value)
	if err != nil {
		editorLogger.Error().Err(err).Str("kind", string(h.kind)).Msg(config.ErrSaveDocument)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Location", routes.APIPrefix+h.route+"/"+id)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// Load fetches the server copy and (re)initializes the session from it.
func (h *Handler[T]) Load(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	value, err := h.repo.Load(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		http.Error(w, config.HTTPErrNotFound, http.StatusNotFound)
		return
	}
	if err != nil {
		editorLogger.Error().Err(err).Str("kind", string(h.kind)).Str("id", id).Msg(config.ErrLoadDocument)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	key := h.key(r)
	h.touch(key)
	m, _ := h.sessions.GetOrCreate(key, func() *draft.Manager[T] {
		return h.newManager(key)
	})
	if err := m.InitFromServer(value); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if mt, ok := h.repo.(modTimer); ok {
		if modified, err := mt.ModifiedAt(r.Context(), id); err == nil {
			w.Header().Set("Last-Modified", modified.UTC().Format(http.TimeFormat))
		}
	}

	body, err := json.Marshal(documentResponse[T]{ID: id, Key: key, Value: value, Status: m.Status(value)})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set(config.HETag, util.ETag(body))
	w.Header().Set(config.HCType, config.CTypeJSON)
	w.Write(body)
}

// Save writes the body to the repository and marks the session saved.
func (h *Handler[T]) Save(w http.ResponseWriter, r *http.Request) {
	value, ok := decodeBody[T](w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	err := h.repo.Save(r.Context(), id, value)
	if errors.Is(err, repository.ErrNotFound) {
		http.Error(w, config.HTTPErrNotFound, http.StatusNotFound)
		return
	}
	if err != nil {
		editorLogger.Error().Err(err).Str("kind", string(h.kind)).Str("id", id).Msg(config.ErrSaveDocument)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	key := h.key(r)
	resp := documentResponse[T]{ID: id, Key: key, Value: value}
	if m, ok := h.sessions.Get(key); ok {
		h.touch(key)
		var opts []draft.SaveOption
		if keep, _ := strconv.ParseBool(r.URL.Query().Get(config.QueryKeepAutosave)); keep {
			opts = append(opts, draft.KeepAutosave())
		}
		m.MarkServerSaved(value, opts...)
		resp.Status = m.Status(value)
	}

	h.broadcast(key, config.EventSaved, time.Now())
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler[T]) Observe(w http.ResponseWriter, r *http.Request) {
	m, ok := h.session(w, r)
	if !ok {
		return
	}
	value, ok := decodeBody[T](w, r)
	if !ok {
		return
	}

	m.Observe(value)
	writeJSON(w, http.StatusOK, m.Status(value))
}

func (h *Handler[T]) Undo(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, (*draft.Manager[T]).Undo)
}

func (h *Handler[T]) Redo(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, (*draft.Manager[T]).Redo)
}

func (h *Handler[T]) Restore(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, (*draft.Manager[T]).RestoreAutosave)
}

// step runs an operation that takes the current value and may produce a
// replacement. Nothing to do answers 204.
func (h *Handler[T]) step(w http.ResponseWriter, r *http.Request, op func(*draft.Manager[T], T) (T, bool)) {
	m, ok := h.session(w, r)
	if !ok {
		return
	}
	current, ok := decodeBody[T](w, r)
	if !ok {
		return
	}

	next, changed := op(m, current)
	if !changed {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, documentResponse[T]{Key: m.Key(), Value: next, Status: m.Status(next)})
}

func (h *Handler[T]) Status(w http.ResponseWriter, r *http.Request) {
	m, ok := h.session(w, r)
	if !ok {
		return
	}
	current, ok := decodeBody[T](w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, m.Status(current))
}

func (h *Handler[T]) DiscardAutosave(w http.ResponseWriter, r *http.Request) {
	m, ok := h.session(w, r)
	if !ok {
		return
	}
	m.DiscardAutosave()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler[T]) CloseSession(w http.ResponseWriter, r *http.Request) {
	key := h.key(r)
	h.lastUsed.Delete(key)
	m, ok := h.sessions.Take(key)
	if !ok {
		http.Error(w, "no open session for this document", http.StatusNotFound)
		return
	}
	m.Dispose()
	w.WriteHeader(http.StatusNoContent)
}

func decodeBody[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&v); err != nil {
		http.Error(w, fmt.Sprintf("%s: %v", config.HTTPErrBadBody, err), http.StatusBadRequest)
		return v, false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(config.HCType, config.CTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		editorLogger.Error().Err(err).Msg("Error writing response")
	}
}
