package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/udisondev/la2go/internal/bus"
	"github.com/udisondev/la2go/internal/registry"
	"github.com/udisondev/la2go/internal/store"
)

func newTestSession(t *testing.T) (*Session, *bus.FakeBus, *store.Mem) {
	t.Helper()
	b := bus.NewFakeBus()
	mem := store.NewMem()
	reg := registry.New(b, "test-gateway", "localhost")
	auth := NewGuestProvider(mem.Accounts(), mem.Characters())
	srv := NewServer(b, reg, mem, auth)

	sess := &Session{server: srv, socketHandle: "sock-1", send: make(chan outboundFrame, 16)}
	return sess, b, mem
}

func drain(t *testing.T, sess *Session) outboundFrame {
	t.Helper()
	select {
	case frame := <-sess.send:
		return frame
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for an outbound frame")
		return outboundFrame{}
	}
}

func TestHandleAuthGuestSendsAuthSuccess(t *testing.T) {
	sess, _, _ := newTestSession(t)

	sess.dispatch(context.Background(), inboundFrame{Event: "auth", Data: map[string]any{"method": "guest", "login": "alice"}})

	frame := drain(t, sess)
	if frame.Event != "auth_success" {
		t.Fatalf("event = %q, want auth_success", frame.Event)
	}
	if !sess.authenticated {
		t.Errorf("expected session to be marked authenticated")
	}
}

func TestHandleCharacterSelectRequiresAuth(t *testing.T) {
	sess, _, _ := newTestSession(t)

	sess.dispatch(context.Background(), inboundFrame{Event: "character_select", Data: map[string]any{"characterId": "c1"}})

	frame := drain(t, sess)
	if frame.Event != "error" {
		t.Fatalf("event = %q, want error", frame.Event)
	}
}

func TestHandleCharacterSelectRejectsUnownedCharacter(t *testing.T) {
	sess, _, mem := newTestSession(t)
	sess.authenticated = true
	sess.accountID = "acct-1"

	mem.SeedCharacter(store.Character{ID: "c1", AccountID: "someone-else", Name: "Bob", ZoneID: 1})

	sess.dispatch(context.Background(), inboundFrame{Event: "character_select", Data: map[string]any{"characterId": "c1"}})

	frame := drain(t, sess)
	if frame.Event != "error" {
		t.Fatalf("event = %q, want error", frame.Event)
	}
	if sess.inWorld() {
		t.Errorf("expected character_select of an unowned character to leave the session out of world")
	}
}

func TestHandleCharacterSelectEntersWorldAndPublishesJoin(t *testing.T) {
	sess, b, mem := newTestSession(t)
	sess.authenticated = true
	sess.accountID = "acct-1"

	mem.SeedCharacter(store.Character{ID: "c1", AccountID: "acct-1", Name: "Alice", ZoneID: 7, CurrentHealth: 100, MaxHealth: 100})

	sess.dispatch(context.Background(), inboundFrame{Event: "character_select", Data: map[string]any{"characterId": "c1"}})

	frame := drain(t, sess)
	if frame.Event != "world_entry" {
		t.Fatalf("event = %q, want world_entry", frame.Event)
	}
	if !sess.inWorld() {
		t.Fatal("expected session to be in world after character_select")
	}

	found := false
	for _, msg := range b.Published() {
		if msg.Channel == inputChannel(7) && msg.Env.Type == EnvPlayerJoinZone {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a PLAYER_JOIN_ZONE envelope published on zone 7's input channel")
	}
}

func TestHandleChatSlashPrefixRoutesToCommand(t *testing.T) {
	sess, b, mem := newTestSession(t)
	sess.authenticated = true
	sess.accountID = "acct-1"
	mem.SeedCharacter(store.Character{ID: "c1", AccountID: "acct-1", Name: "Alice", ZoneID: 1})
	sess.dispatch(context.Background(), inboundFrame{Event: "character_select", Data: map[string]any{"characterId": "c1"}})
	drain(t, sess) // world_entry

	sess.dispatch(context.Background(), inboundFrame{Event: "chat", Data: map[string]any{"message": "/say hi"}})

	var lastType string
	for _, msg := range b.Published() {
		if msg.Channel == inputChannel(1) {
			lastType = msg.Env.Type
		}
	}
	if lastType != EnvPlayerCommand {
		t.Errorf("last envelope type = %q, want %q", lastType, EnvPlayerCommand)
	}
}

func TestHandleChatPlainMessageRoutesToChat(t *testing.T) {
	sess, b, mem := newTestSession(t)
	sess.authenticated = true
	sess.accountID = "acct-1"
	mem.SeedCharacter(store.Character{ID: "c1", AccountID: "acct-1", Name: "Alice", ZoneID: 1})
	sess.dispatch(context.Background(), inboundFrame{Event: "character_select", Data: map[string]any{"characterId": "c1"}})
	drain(t, sess)

	sess.dispatch(context.Background(), inboundFrame{Event: "chat", Data: map[string]any{"message": "hello there"}})

	var lastType string
	for _, msg := range b.Published() {
		if msg.Channel == inputChannel(1) {
			lastType = msg.Env.Type
		}
	}
	if lastType != EnvPlayerChat {
		t.Errorf("last envelope type = %q, want %q", lastType, EnvPlayerChat)
	}
}

func TestHandlePingRepliesWithTimestamps(t *testing.T) {
	sess, _, _ := newTestSession(t)

	sess.dispatch(context.Background(), inboundFrame{Event: "ping", Data: map[string]any{"timestamp": float64(12345)}})

	frame := drain(t, sess)
	if frame.Event != "pong" {
		t.Fatalf("event = %q, want pong", frame.Event)
	}
}

func TestHandleMoveBeforeWorldEntryIsRejected(t *testing.T) {
	sess, _, _ := newTestSession(t)

	sess.dispatch(context.Background(), inboundFrame{Event: "move", Data: map[string]any{}})

	frame := drain(t, sess)
	if frame.Event != "error" {
		t.Fatalf("event = %q, want error", frame.Event)
	}
}
