// Package gateway implements the Gateway Session (§4.10): one process
// role of the two-tier deployment, terminating client sockets and
// routing their events onto the zone input channels, then forwarding
// gateway:output messages addressed to a locally-owned socket back out.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/udisondev/la2go/internal/bus"
	"github.com/udisondev/la2go/internal/registry"
	"github.com/udisondev/la2go/internal/store"
)

const outputChannel = "gateway:output"

func inputChannel(zoneID int32) string { return fmt.Sprintf("zone:%d:input", zoneID) }

// Server accepts client websocket connections and owns every Session
// currently attached to this process.
type Server struct {
	bus      bus.Bus
	registry *registry.Registry
	store    store.Store
	auth     AuthProvider

	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*Session

	unsubscribe bus.Unsubscribe
}

// NewServer wires a gateway Server. auth is the seam for credential/token
// verification (§9 Non-goals); a caller not ready to wire a real provider
// may pass a GuestProvider.
func NewServer(b bus.Bus, reg *registry.Registry, st store.Store, auth AuthProvider) *Server {
	return &Server{
		bus: b, registry: reg, store: st, auth: auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		sessions: make(map[string]*Session),
	}
}

// Start subscribes to gateway:output and begins forwarding to whichever
// local session owns each message's socketId (§4.10 "additionally
// subscribes"). Call once before serving connections.
func (s *Server) Start(ctx context.Context) error {
	unsub, err := s.bus.Subscribe(ctx, outputChannel, func(env bus.Envelope) {
		s.forward(env)
	})
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", outputChannel, err)
	}
	s.unsubscribe = unsub
	return nil
}

// Stop tears down the gateway:output subscription and every live
// session.
func (s *Server) Stop() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()
	for _, sess := range sessions {
		sess.close()
	}
}

func (s *Server) forward(env bus.Envelope) {
	if env.Type != EnvClientMessage {
		return
	}
	var msg clientMessage
	if err := env.Unmarshal(&msg); err != nil {
		slog.Error("gateway: decoding CLIENT_MESSAGE failed", "error", err)
		return
	}
	s.mu.Lock()
	sess, ok := s.sessions[msg.SocketID]
	s.mu.Unlock()
	if !ok {
		return
	}
	sess.sendMsg(msg.Event, msg.Data)
}

// EnvClientMessage is the envelope type carried on gateway:output
// (§4.7 "Broadcast path").
const EnvClientMessage = "CLIENT_MESSAGE"

// ServeHTTP upgrades the connection and runs the session's read/write
// pumps until the client disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("gateway: websocket upgrade failed", "error", err)
		return
	}

	sess := newSession(s, conn)
	s.mu.Lock()
	s.sessions[sess.socketHandle] = sess
	s.mu.Unlock()

	slog.Info("gateway: session connected", "socket", sess.socketHandle, "remote", r.RemoteAddr)

	go sess.writePump()
	sess.readPump()

	s.mu.Lock()
	delete(s.sessions, sess.socketHandle)
	s.mu.Unlock()

	sess.handleDisconnect(context.Background())
	slog.Info("gateway: session disconnected", "socket", sess.socketHandle)
}
