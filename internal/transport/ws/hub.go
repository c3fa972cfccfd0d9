// Package ws tracks operator websocket sessions and fans events out to them.
package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"github.com/hivectl/backend/internal/domain"
	"github.com/hivectl/backend/internal/infrastructure/logger"
)

const DefaultBufferSize = 256

// Conn is the write side of a websocket connection.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type session struct {
	id      string
	subject string
	admin   bool
	conn    Conn
	send    chan []byte
}

// Hub is the registry of connected operator sessions. Every session has its
// own buffered queue drained by a writer goroutine; a full queue drops the
// message instead of blocking the publisher.
type Hub struct {
	mu         sync.RWMutex
	sessions   map[string]*session
	logger     *logger.Logger
	bufferSize int
}

func NewHub(log *logger.Logger, bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Hub{
		sessions:   make(map[string]*session),
		logger:     log,
		bufferSize: bufferSize,
	}
}

// Register adds a session for subject and returns its id.
func (h *Hub) Register(subject string, admin bool, conn Conn) string {
	s := &session{
		id:      uuid.NewString(),
		subject: subject,
		admin:   admin,
		conn:    conn,
		send:    make(chan []byte, h.bufferSize),
	}

	h.mu.Lock()
	h.sessions[s.id] = s
	h.mu.Unlock()

	go h.writeLoop(s)
	h.logger.Infow("ws_session_open", "session", s.id, "subject", subject, "admin", admin)
	return s.id
}

// Unregister removes a session and stops its writer. It is safe to call more
// than once.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	s, ok := h.sessions[id]
	if ok {
		delete(h.sessions, id)
		close(s.send)
	}
	h.mu.Unlock()

	if ok {
		h.logger.Infow("ws_session_closed", "session", id, "subject", s.subject)
	}
}

func (h *Hub) writeLoop(s *session) {
	for msg := range s.send {
		if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.logger.Warnw("ws_write_failed", "session", s.id, "error", err)
			h.Unregister(s.id)
			_ = s.conn.Close()
			return
		}
	}
}

// Publish implements the event bus port.
func (h *Hub) Publish(_ context.Context, event domain.Event) {
	msg, ok := h.encode(event)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.sessions {
		if event.Audience == domain.AudienceAdmins && !s.admin {
			continue
		}
		h.enqueue(s, msg)
	}
}

// Broadcast sends event to every session regardless of audience.
func (h *Hub) Broadcast(event domain.Event) {
	event.Audience = domain.AudienceAll
	h.Publish(context.Background(), event)
}

// SendTo delivers event to every session of subject and reports whether any
// exists.
func (h *Hub) SendTo(subject string, event domain.Event) bool {
	msg, ok := h.encode(event)
	if !ok {
		return false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	found := false
	for _, s := range h.sessions {
		if s.subject == subject {
			h.enqueue(s, msg)
			found = true
		}
	}
	return found
}

// SendToSession delivers event to a single session.
func (h *Hub) SendToSession(id string, event domain.Event) bool {
	msg, ok := h.encode(event)
	if !ok {
		return false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, found := h.sessions[id]
	if found {
		h.enqueue(s, msg)
	}
	return found
}

func (h *Hub) IsOnline(subject string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.sessions {
		if s.subject == subject {
			return true
		}
	}
	return false
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Close drops every session.
func (h *Hub) Close() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]*session)
	for _, s := range sessions {
		close(s.send)
	}
	h.mu.Unlock()

	for _, s := range sessions {
		_ = s.conn.Close()
	}
}

// enqueue must be called with h.mu held.
func (h *Hub) enqueue(s *session, msg []byte) {
	select {
	case s.send <- msg:
	default:
		h.logger.Warnw("ws_send_dropped", "session", s.id, "subject", s.subject)
	}
}

func (h *Hub) encode(event domain.Event) ([]byte, bool) {
	msg, err := json.Marshal(event)
	if err != nil {
		h.logger.Errorw("ws_encode_failed", "event", event.Type, "error", err)
		return nil, false
	}
	return msg, true
}
