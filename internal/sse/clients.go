// Package sse fans autosave and save notifications out to browsers editing
// the same document.
package sse

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/debemdeboas/autosave/internal/config"
	"github.com/rs/zerolog"
)

var sseLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	sseLogger = l
}

type Event struct {
	Name string
	Data string
}

type Client struct {
	Msg chan Event
	Key string
}

type SSEClients struct {
	clients map[*Client]bool
	mu      sync.RWMutex
}

func NewSSEClients() *SSEClients {
	return &SSEClients{
		clients: make(map[*Client]bool),
	}
}

func (s *SSEClients) Add(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client] = true
}

func (s *SSEClients) Delete(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, client)
	close(client.Msg)
}

func (s *SSEClients) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Broadcast sends ev to every client watching key. Slow clients miss events
// rather than block the sender.
func (s *SSEClients) Broadcast(key string, ev Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for client := range s.clients {
		if client.Key == key {
			select {
			case client.Msg <- ev:
			default:
				sseLogger.Debug().Str("key", key).Str("event", ev.Name).Msg("Dropped event for slow client")
			}
		}
	}
}

// ServeHTTP streams events for the storage key named by ?key=.
func (s *SSEClients) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get(config.QueryKey)
	if key == "" {
		http.Error(w, "key parameter required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set(config.HCType, config.CTypeEvent)
	w.Header().Set(config.HCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client := &Client{
		Msg: make(chan Event, 8),
		Key: key,
	}
	s.Add(client)
	defer func() {
		s.Delete(client)
		sseLogger.Debug().Str("key", key).Msg("SSE client disconnected")
	}()

	sseLogger.Debug().Str("key", key).Msg("SSE client connected")
	fmt.Fprintf(w, "event: connected\ndata: %s\n\n", key)
	flusher.Flush()

	notify := r.Context().Done()
	for {
		select {
		case ev := <-client.Msg:
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, ev.Data)
			flusher.Flush()
		case <-notify:
			return
		}
	}
}
