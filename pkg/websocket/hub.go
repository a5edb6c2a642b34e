package websocket

import (
	"sync"

	"tripmate/pkg/logger"
	"tripmate/pkg/metrics"
)

// Session is a connected realtime peer. Send must never block.
type Session interface {
	ID() string
	Send(payload []byte) bool
	Close()
}

// Hub is the room registry: trip id -> sessions subscribed to that trip.
type Hub struct {
	rooms    map[string]map[Session]struct{}
	sessions map[Session]map[string]struct{}
	mutex    sync.RWMutex
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

// NewHub creates an empty registry. m may be nil.
func NewHub(m *metrics.Metrics, log *logger.Logger) *Hub {
	return &Hub{
		rooms:    make(map[string]map[Session]struct{}),
		sessions: make(map[Session]map[string]struct{}),
		metrics:  m,
		logger:   log,
	}
}

func (h *Hub) Join(session Session, roomID string) {
	if session == nil || roomID == "" {
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[Session]struct{})
	}
	h.rooms[roomID][session] = struct{}{}

	if h.sessions[session] == nil {
		h.sessions[session] = make(map[string]struct{})
	}
	h.sessions[session][roomID] = struct{}{}
}

func (h *Hub) Leave(session Session, roomID string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.leaveLocked(session, roomID)
}

// Disconnect removes the session from every room and closes it.
func (h *Hub) Disconnect(session Session) {
	if session == nil {
		return
	}

	h.mutex.Lock()
	for roomID := range h.sessions[session] {
		h.leaveLocked(session, roomID)
	}
	delete(h.sessions, session)
	h.mutex.Unlock()

	session.Close()
}

// Broadcast delivers payload to every session in the room and returns the
// number of sessions that accepted it. Sessions that refuse delivery are
// disconnected.
func (h *Hub) Broadcast(roomID string, payload []byte) int {
	h.mutex.RLock()
	room := h.rooms[roomID]
	targets := make([]Session, 0, len(room))
	for session := range room {
		targets = append(targets, session)
	}
	h.mutex.RUnlock()

	delivered := 0
	var dropped []Session
	for _, session := range targets {
		if session.Send(payload) {
			delivered++
			continue
		}
		dropped = append(dropped, session)
	}

	for _, session := range dropped {
		h.logger.WithFields(map[string]interface{}{
			"session_id": session.ID(),
			"room_id":    roomID,
		}).Warn("Dropping unresponsive websocket session")
		h.metrics.SessionDropped()
		h.Disconnect(session)
	}

	return delivered
}

func (h *Hub) leaveLocked(session Session, roomID string) {
	if room, exists := h.rooms[roomID]; exists {
		delete(room, session)
		if len(room) == 0 {
			delete(h.rooms, roomID)
		}
	}

	if joined, exists := h.sessions[session]; exists {
		delete(joined, roomID)
	}
}
