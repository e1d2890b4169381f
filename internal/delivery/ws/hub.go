package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/gorilla/websocket"
)

// Hub tracks open frame streams per session.
type Hub struct {
	mu       sync.RWMutex
	sessions map[int64]map[*websocket.Conn]bool
	log      *logger.ZapLogger
}

func NewHub(log *logger.ZapLogger) *Hub {
	return &Hub{
		sessions: make(map[int64]map[*websocket.Conn]bool),
		log:      log,
	}
}

func (h *Hub) Register(sessionID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[sessionID]; !ok {
		h.sessions[sessionID] = make(map[*websocket.Conn]bool)
	}
	h.sessions[sessionID][conn] = true

	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "frame stream registered",
		Fields:  map[string]any{"sessionID": sessionID, "conns": len(h.sessions[sessionID])},
	})
}

func (h *Hub) Unregister(sessionID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	if _, ok := conns[conn]; ok {
		delete(conns, conn)
		conn.Close()
	}
	if len(conns) == 0 {
		delete(h.sessions, sessionID)
	}
}

// CloseSession sends a normal close to every stream of the session. The read
// loops then fail and unregister themselves. Writes happen outside the lock.
func (h *Hub) CloseSession(sessionID int64) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.sessions[sessionID]))
	for conn := range h.sessions[sessionID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	if len(conns) == 0 {
		return
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended")
	deadline := time.Now().Add(time.Second)
	for _, conn := range conns {
		_ = conn.WriteControl(websocket.CloseMessage, msg, deadline)
		conn.Close()
	}

	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "frame streams closed",
		Fields:  map[string]any{"sessionID": sessionID, "conns": len(conns)},
	})
}

func (h *Hub) Count(sessionID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  64 << 10,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}
