// Package liveserve runs a tiny local HTTP+WebSocket server that streams
// per-recording decode progress to a browser tab while a large
// saved-variables file with many recordings is being processed.
package liveserve

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Progress is one update: which recording index is being (or was)
// decoded, and whether it succeeded.
type Progress struct {
	Index   int    `json:"index"`
	Total   int    `json:"total"`
	Status  string `json:"status"` // "decoding", "ok", "error"
	Message string `json:"message,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server broadcasts Progress updates to every currently-connected browser
// tab over WebSocket.
type Server struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// New returns a Server ready to accept WebSocket connections at its
// Handler and broadcast progress via Broadcast.
func New() *Server {
	return &Server{clients: make(map[*websocket.Conn]struct{})}
}

// Handler upgrades an incoming HTTP request to a WebSocket connection and
// registers it to receive Broadcast updates until it disconnects.
func (s *Server) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("liveserve: upgrade failed: %v", err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	// Drain and discard incoming frames so pong/close control messages are
	// still processed; this server only pushes, never receives commands.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast sends p as JSON to every currently-connected client, dropping
// (and logging) any connection that fails to write.
func (s *Server) Broadcast(p Progress) {
	data, err := json.Marshal(p)
	if err != nil {
		log.Printf("liveserve: marshal progress: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("liveserve: write to client failed: %v", err)
			conn.Close()
			delete(s.clients, conn)
		}
	}
}
