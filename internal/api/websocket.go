package api

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/headunit-core/internal/board"
	"github.com/nerrad567/headunit-core/internal/radio"
)

// EventBoardStateChanged carries a stateEvent after every applied change.
// Subscribing to it also delivers the current state once.
const EventBoardStateChanged = "board.state_changed"

// sourceSnapshot marks the state event sent on subscribe.
const sourceSnapshot = "snapshot"

// stateEvent is the payload of EventBoardStateChanged: the same state in
// register levels and in dB.
type stateEvent struct {
	BoardID string         `json:"board_id"`
	Source  string         `json:"source"`
	Level   radio.Snapshot `json:"level"`
	Decibel radio.Snapshot `json:"db"`
}

func newStateEvent(c radio.Change) stateEvent {
	return stateEvent{
		BoardID: c.Level.BoardID,
		Source:  c.Source,
		Level:   c.Level,
		Decibel: c.Decibel,
	}
}

// currentState answers the hub's initial-value lookup.
func (s *Server) currentState(channel string) (any, bool) {
	if channel != EventBoardStateChanged {
		return nil, false
	}
	return stateEvent{
		BoardID: s.radio.BoardID(),
		Source:  sourceSnapshot,
		Level:   s.radio.Snapshot(board.Level),
		Decibel: s.radio.Snapshot(board.Decibel),
	}, true
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are checked by the CORS middleware.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleWebSocket upgrades a request carrying a valid ticket from
// POST /auth/ws-ticket.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ticket := r.URL.Query().Get("ticket")
	if ticket == "" {
		writeUnauthorized(w, "ticket query parameter is required")
		return
	}
	entry, ok := s.tickets.consume(ticket)
	if !ok {
		writeUnauthorized(w, "invalid or expired ticket")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &WSClient{
		hub:           s.hub,
		conn:          conn,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: make(map[string]struct{}),
		subject:       entry.subject,
	}
	s.hub.Register(client)

	go client.writePump()
	go client.readPump()
}
