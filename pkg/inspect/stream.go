package inspect

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/reactive/pkg/reactive"
)

// StreamMessageType identifies a message sent on /ws.
type StreamMessageType string

const (
	// StreamTypeSnapshot carries the values at subscription time.
	StreamTypeSnapshot StreamMessageType = "snapshot"
	// StreamTypeChange carries the values after a notification.
	StreamTypeChange StreamMessageType = "change"
	// StreamTypeError reports a subscription failure before closing.
	StreamTypeError StreamMessageType = "error"
)

// StreamMessage is one message on the /ws stream.
type StreamMessage struct {
	Type   StreamMessageType `json:"type"`
	Client string            `json:"client"`
	Keys   []string          `json:"keys,omitempty"`
	Values []any             `json:"values,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// client is one WebSocket subscriber.
type client struct {
	id       string
	keys     []string
	conn     *websocket.Conn
	observer *reactive.Observer

	writeMu      sync.Mutex
	writeTimeout time.Duration
	closeOnce    sync.Once
}

func (c *client) send(msg StreamMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.write(data)
}

// write sends data. The caller holds writeMu.
func (c *client) write(data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		c.conn.Close()
	})
}

// parseKeys splits a comma separated key list, dropping blanks.
func parseKeys(raw string) []string {
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// encodable replaces bound functions with nil so values marshal cleanly.
func encodable(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		if _, ok := v.(reactive.Bound); ok {
			continue
		}
		out[i] = v
	}
	return out
}

// handleStream upgrades to a WebSocket and streams the requested keys until
// the peer disconnects.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	keys := parseKeys(r.URL.Query().Get("keys"))
	if len(keys) == 0 {
		s.writeError(w, http.StatusBadRequest, errors.New("keys query parameter is required"))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("inspector upgrade failed", "error", err)
		return
	}

	c := &client{
		id:           uuid.NewString(),
		keys:         keys,
		conn:         conn,
		writeTimeout: s.config.WriteTimeout,
	}
	c.observer = reactive.NewObserver(func(values []any) error {
		err := c.send(StreamMessage{
			Type:   StreamTypeChange,
			Client: c.id,
			Keys:   c.keys,
			Values: encodable(values),
		})
		if err != nil {
			// A dead subscriber must not fail the writer that triggered it.
			s.logger.Debug("inspector stream write failed", "client", c.id, "error", err)
			c.close()
		}
		return nil
	})

	// Changes wait on writeMu until the snapshot is out.
	c.writeMu.Lock()
	if err := s.store.Watch(keys, c.observer); err != nil {
		c.writeMu.Unlock()
		c.send(StreamMessage{Type: StreamTypeError, Client: c.id, Error: err.Error()})
		c.close()
		return
	}

	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()
	s.logger.Info("inspector stream opened", "client", c.id, "keys", keys)

	err = s.sendSnapshot(c)
	c.writeMu.Unlock()
	if err != nil {
		c.close()
	}

	// Keep the connection until the client disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.removeClient(c)
}

// sendSnapshot writes the current values of c's keys. The caller holds
// c.writeMu.
func (s *Server) sendSnapshot(c *client) error {
	values := make([]any, len(c.keys))
	for i, k := range c.keys {
		values[i] = s.store.Scope().Get(k)
	}
	data, err := json.Marshal(StreamMessage{
		Type:   StreamTypeSnapshot,
		Client: c.id,
		Keys:   c.keys,
		Values: encodable(values),
	})
	if err != nil {
		return err
	}
	return c.write(data)
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	_, ok := s.clients[c.id]
	delete(s.clients, c.id)
	s.mu.Unlock()

	if ok {
		s.store.Unwatch(c.keys, c.observer)
		s.logger.Info("inspector stream closed", "client", c.id)
	}
	c.close()
}

func (s *Server) closeClients() {
	s.mu.RLock()
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	for _, c := range clients {
		s.removeClient(c)
	}
}

// ClientCount returns the number of open streams.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}
