package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/udisondev/la2go/internal/bus"
	"github.com/udisondev/la2go/internal/model"
)

// WebSocket timeout constants, grounded in the usual gorilla/websocket
// read/write-deadline idiom.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Session is one client socket's state (§4.10): authentication status,
// selected character, and current zone. Only its own readPump/writePump
// goroutines and the Server's forward() callback touch it, the latter
// only through the buffered send channel; mu guards the authentication,
// character and zone fields below it.
type Session struct {
	server       *Server
	conn         *websocket.Conn
	socketHandle string

	send chan outboundFrame

	mu            sync.Mutex
	authenticated bool
	accountID     string
	characterID   string
	characterName string
	currentZoneID int32
	hasTarget     bool
	targetID      string
}

func newSession(s *Server, conn *websocket.Conn) *Session {
	return &Session{
		server:       s,
		conn:         conn,
		socketHandle: uuid.NewString(),
		send:         make(chan outboundFrame, 64),
	}
}

func (s *Session) readPump() {
	defer close(s.send)

	s.conn.SetReadLimit(65536)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			s.sendMsg("error", map[string]any{"code": "bad_frame", "message": "invalid JSON frame", "severity": "error"})
			continue
		}
		s.dispatch(context.Background(), frame)
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteJSON(frame); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendMsg enqueues an outbound event frame. Drops silently if the
// session's buffer is full rather than blocking the caller.
func (s *Session) sendMsg(event string, data any) {
	select {
	case s.send <- outboundFrame{Event: event, Data: data}:
	default:
		slog.Warn("gateway: dropping outbound frame, session send buffer full", "socket", s.socketHandle, "event", event)
	}
}

func (s *Session) close() {
	s.conn.Close()
}

func (s *Session) zoneID() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentZoneID
}

func (s *Session) character() (id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.characterID, s.characterName
}

func (s *Session) inWorld() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.characterID != ""
}

func (s *Session) publishToZone(envType string, payload any) {
	env, err := bus.Marshal(envType, payload)
	if err != nil {
		slog.Error("gateway: marshaling envelope failed", "socket", s.socketHandle, "type", envType, "error", err)
		return
	}
	s.server.bus.Publish(context.Background(), inputChannel(s.zoneID()), env)
}

// position is filled in from the client's most recent move event; the
// gateway does not itself simulate movement, it only relays updates.
func (s *Session) positionFromData(data map[string]any) model.Position {
	pos := model.Position{}
	if p, ok := data["position"].(map[string]any); ok {
		pos.X, _ = p["x"].(float64)
		pos.Y, _ = p["y"].(float64)
		pos.Z, _ = p["z"].(float64)
	}
	return pos
}
