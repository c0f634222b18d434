// Package realtime pushes session events to connected browser tabs over
// websockets.
package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event types
const (
	EventConnected  = "connected"
	EventSuperseded = "session_superseded"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 8
)

// Event is a message pushed to a session
type Event struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	Reason    string    `json:"reason,omitempty"`
	At        time.Time `json:"at"`
}

// SessionRef identifies a connected session
type SessionRef struct {
	UserID    string
	SessionID string
}

type subscriber struct {
	userID    string
	sessionID string
	conn      *websocket.Conn
	send      chan Event
	done      chan struct{}
	closeOnce sync.Once
}

func (s *subscriber) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Hub tracks websocket subscribers by session id
type Hub struct {
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]map[*subscriber]struct{}
	closed   bool
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser origins are already restricted by CORS and the bearer token
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sessions: make(map[string]map[*subscriber]struct{}),
	}
}

// Serve upgrades the request and keeps the connection registered under
// sessionID until the peer goes away. It blocks for the connection lifetime.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID, sessionID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	sub := &subscriber{
		userID:    userID,
		sessionID: sessionID,
		conn:      conn,
		send:      make(chan Event, sendBuffer),
		done:      make(chan struct{}),
	}
	if !h.register(sub) {
		conn.Close()
		return nil
	}
	defer h.unregister(sub)

	sub.send <- Event{Type: EventConnected, SessionID: sessionID, At: time.Now().UTC()}

	go h.writeLoop(sub)
	h.readLoop(sub)
	return nil
}

// NotifySuperseded tells every tab of sessionID that it has been signed out.
// It returns the number of connections notified.
func (h *Hub) NotifySuperseded(sessionID, reason string) int {
	event := Event{Type: EventSuperseded, SessionID: sessionID, Reason: reason, At: time.Now().UTC()}

	h.mu.RLock()
	defer h.mu.RUnlock()

	notified := 0
	for sub := range h.sessions[sessionID] {
		select {
		case sub.send <- event:
			notified++
		default:
			log.Printf("⚠️  Dropping %s event for slow session %s", event.Type, sessionID)
		}
	}
	return notified
}

// Sessions lists the connected sessions
func (h *Hub) Sessions() []SessionRef {
	h.mu.RLock()
	defer h.mu.RUnlock()

	refs := make([]SessionRef, 0, len(h.sessions))
	for sessionID, subs := range h.sessions {
		for sub := range subs {
			refs = append(refs, SessionRef{UserID: sub.userID, SessionID: sessionID})
			break
		}
	}
	return refs
}

// Count returns the number of open connections
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, subs := range h.sessions {
		count += len(subs)
	}
	return count
}

// Close disconnects every subscriber and refuses new ones
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	subs := make([]*subscriber, 0)
	for _, set := range h.sessions {
		for sub := range set {
			subs = append(subs, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range subs {
		sub.close()
		sub.conn.Close()
	}
}

func (h *Hub) register(sub *subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	if h.sessions[sub.sessionID] == nil {
		h.sessions[sub.sessionID] = make(map[*subscriber]struct{})
	}
	h.sessions[sub.sessionID][sub] = struct{}{}
	return true
}

func (h *Hub) unregister(sub *subscriber) {
	h.mu.Lock()
	if set, ok := h.sessions[sub.sessionID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.sessions, sub.sessionID)
		}
	}
	h.mu.Unlock()

	sub.close()
	sub.conn.Close()
}

// readLoop drains the connection so pongs and close frames are processed
func (h *Hub) readLoop(sub *subscriber) {
	sub.conn.SetReadLimit(512)
	sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		sub.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event := <-sub.send:
			payload, err := json.Marshal(event)
			if err != nil {
				log.Printf("Failed to encode %s event: %v", event.Type, err)
				continue
			}
			sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				sub.conn.Close()
				return
			}
		case <-ticker.C:
			sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				sub.conn.Close()
				return
			}
		case <-sub.done:
			return
		}
	}
}
