package inspect

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"

	inspectmw "github.com/vango-dev/reactive/pkg/middleware"
	"github.com/vango-dev/reactive/pkg/reactive"
)

// Entry is one key/value pair as served by the key routes.
type Entry struct {
	Key   string `json:"key"`
	Value any    `json:"value,omitempty"`
	// Func is set for keys holding a bound function; Value is omitted.
	Func bool `json:"func,omitempty"`
}

type listResponse struct {
	Entries []Entry `json:"entries"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func entryOf(key string, v any) Entry {
	if _, ok := v.(reactive.Bound); ok {
		return Entry{Key: key, Func: true}
	}
	return Entry{Key: key, Value: v}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	entries := make([]Entry, 0, s.store.Len())
	for k, v := range s.store.Entries() {
		entries = append(entries, entryOf(k, v))
	}
	s.writeJSON(w, http.StatusOK, listResponse{Entries: entries})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	v, ok := s.store.Scope().Lookup(key)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("%w: %q", reactive.ErrKeyNotFound, key))
		return
	}
	s.writeJSON(w, http.StatusOK, entryOf(key, v))
}

// handleSet stores the decoded body under the key and waits for its
// listeners. A listener failure is reported as 502 after the value has been
// stored.
func (s *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	inspectmw.SpanFromRequest(r).SetAttributes(attribute.String("reactive.key", key))

	var v any
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return
	}

	if err := s.store.Set(key, v).Wait(r.Context()); err != nil {
		var lerr *reactive.ListenerError
		if errors.As(err, &lerr) {
			s.writeError(w, http.StatusBadGateway, err)
			return
		}
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	s.logger.Info("inspector set", "key", key)
	s.writeJSON(w, http.StatusOK, entryOf(key, s.store.Scope().Get(key)))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if !s.store.Del(key) {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("%w: %q", reactive.ErrKeyNotFound, key))
		return
	}
	s.logger.Info("inspector delete", "key", key)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	err := s.store.Trigger(key).Wait(r.Context())
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, reactive.ErrKeyNotFound):
		s.writeError(w, http.StatusNotFound, err)
	default:
		s.writeError(w, http.StatusBadGateway, err)
	}
}
