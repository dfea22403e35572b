// Package gateway exposes the websocket surface for live match scoring:
// connect, submit throws, and receive projection pushes.
package gateway

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// writeWait bounds how long one projection push may block on a slow client.
const writeWait = 10 * time.Second

// session wraps one websocket connection with a write lock, since the
// underlying connection supports only one concurrent writer.
type session struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *session) write(envelope Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(envelope)
}

func (s *session) close() {
	_ = s.conn.Close()
}

// Hub tracks the live connection for each player. A player has at most one
// connection; reconnecting replaces the stale one, mirroring how clients
// refresh their connection id after a network drop.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*session
	logger   *slog.Logger
}

// NewHub constructs an empty connection registry.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		sessions: make(map[string]*session),
		logger:   logger,
	}
}

// Register binds a player to a connection, closing any stale predecessor.
// It returns the session used for writes on this connection.
func (h *Hub) Register(playerID string, conn *websocket.Conn) *session {
	current := &session{conn: conn}
	h.mu.Lock()
	stale := h.sessions[playerID]
	h.sessions[playerID] = current
	h.mu.Unlock()

	if stale != nil {
		stale.close()
	}
	return current
}

// Unregister removes a player's session if it is still the current one.
// A reconnect that already replaced it is left untouched.
func (h *Hub) Unregister(playerID string, current *session) {
	h.mu.Lock()
	if h.sessions[playerID] == current {
		delete(h.sessions, playerID)
	}
	h.mu.Unlock()
}

// Connected reports whether a player currently holds a live connection.
func (h *Hub) Connected(playerID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sessions[playerID] != nil
}

// send writes one envelope to a player's live session. A write failure drops
// the session so the next push does not stall on it again.
func (h *Hub) send(playerID string, envelope Envelope) error {
	h.mu.Lock()
	current := h.sessions[playerID]
	h.mu.Unlock()
	if current == nil {
		return nil
	}

	if err := current.write(envelope); err != nil {
		h.Unregister(playerID, current)
		current.close()
		return err
	}
	return nil
}
