package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// wsHub is both the connection registry and the room broadcaster: it tracks
// every open socket, which session room the socket currently belongs to and
// whether it joined as a scored participant or as an observer. A connection
// is in at most one room; attaching to a new session moves it.
type wsHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]*wsClient
	rooms   map[string]map[*websocket.Conn]struct{}
}

type wsClient struct {
	sessionID     string
	participantID int
	observer      bool

	// writeMu serializes frame writes to the conn, which allows only one
	// writer at a time.
	writeMu sync.Mutex
}

type outMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func newWSHub() *wsHub {
	return &wsHub{
		clients: make(map[*websocket.Conn]*wsClient),
		rooms:   make(map[string]map[*websocket.Conn]struct{}),
	}
}

func (h *wsHub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = &wsClient{}
}

// Unregister removes the connection from its room and the registry on every
// exit path, including abnormal disconnects.
func (h *wsHub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detachLocked(conn)
	delete(h.clients, conn)
	_ = conn.Close()
}

func (h *wsHub) Attach(conn *websocket.Conn, sessionID string, participantID int, observer bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client, ok := h.clients[conn]
	if !ok {
		return
	}
	h.detachLocked(conn)
	client.sessionID = sessionID
	client.participantID = participantID
	client.observer = observer
	room := h.rooms[sessionID]
	if room == nil {
		room = make(map[*websocket.Conn]struct{})
		h.rooms[sessionID] = room
	}
	room[conn] = struct{}{}
}

func (h *wsHub) detachLocked(conn *websocket.Conn) {
	client, ok := h.clients[conn]
	if !ok || client.sessionID == "" {
		return
	}
	if room, ok := h.rooms[client.sessionID]; ok {
		delete(room, conn)
		if len(room) == 0 {
			delete(h.rooms, client.sessionID)
		}
	}
	client.sessionID = ""
	client.participantID = 0
	client.observer = false
}

func (h *wsHub) ClientState(conn *websocket.Conn) (string, int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client, ok := h.clients[conn]
	if !ok {
		return "", 0, false
	}
	return client.sessionID, client.participantID, client.observer
}

// ParticipantCount reports the number of distinct participants with a live
// connection in the room. Observers are not counted.
func (h *wsHub) ParticipantCount(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	seen := make(map[int]struct{})
	for conn := range h.rooms[sessionID] {
		client, ok := h.clients[conn]
		if !ok || client.observer || client.participantID <= 0 {
			continue
		}
		seen[client.participantID] = struct{}{}
	}
	return len(seen)
}

// writeConn is the single funnel for frame writes. Tick and results
// broadcasts run on timer goroutines while unicast replies come from the
// connection's own read loop, so every write takes the client's write lock.
func (h *wsHub) writeConn(conn *websocket.Conn, data []byte) error {
	h.mu.Lock()
	client, ok := h.clients[conn]
	h.mu.Unlock()
	if !ok {
		return nil
	}
	client.writeMu.Lock()
	defer client.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (h *wsHub) Send(conn *websocket.Conn, message outMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		return
	}
	_ = h.writeConn(conn, data)
}

// Broadcast delivers the message to every connection in the room.
// Best-effort: a failing connection is dropped without blocking the rest.
func (h *wsHub) Broadcast(sessionID string, message outMessage) {
	h.mu.Lock()
	room := h.rooms[sessionID]
	conns := make([]*websocket.Conn, 0, len(room))
	for conn := range room {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	data, err := json.Marshal(message)
	if err != nil {
		return
	}
	for _, conn := range conns {
		if err := h.writeConn(conn, data); err != nil {
			h.Unregister(conn)
		}
	}
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	log.Printf("ws connected remote=%s", r.RemoteAddr)
	s.hub.Register(conn)
	s.hub.Send(conn, outMessage{Type: msgConnectionReady, Payload: map[string]any{}})
	go s.readWS(conn)
}

func (s *Server) readWS(conn *websocket.Conn) {
	defer func() {
		sessionID, _, _ := s.hub.ClientState(conn)
		s.hub.Unregister(conn)
		if sessionID != "" {
			s.broadcastParticipantCount(sessionID)
		}
	}()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Printf("ws disconnected error=%v", err)
			return
		}
		s.dispatchWS(conn, data)
	}
}
