package worldmgr

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/udisondev/la2go/internal/bus"
	"github.com/udisondev/la2go/internal/combat"
	"github.com/udisondev/la2go/internal/command"
	"github.com/udisondev/la2go/internal/model"
	"github.com/udisondev/la2go/internal/registry"
	"github.com/udisondev/la2go/internal/store"
)

const testZone int32 = 1

func pos(x, y, z float64) model.Position { return model.Position{X: x, Y: y, Z: z} }

func newTestRegistry(b *bus.FakeBus) *registry.Registry {
	return registry.New(b, "test-server", "localhost")
}

// newTestManager wires a Manager against a FakeBus and in-memory store,
// running its single zone at a fast tick rate so tests don't have to
// wait on real-world timers.
func newTestManager(t *testing.T, tickHz float64) (*Manager, *bus.FakeBus, *store.Mem, context.Context, context.CancelFunc) {
	t.Helper()
	b := bus.NewFakeBus()
	mem := store.NewMem()
	reg := newTestRegistry(b)
	catalog := combat.NewCatalog(mem.Abilities())
	cmdReg := command.NewRegistry()
	if err := command.RegisterBuiltins(cmdReg); err != nil {
		t.Fatalf("registering builtins: %v", err)
	}
	executor := command.NewExecutor(cmdReg, b)

	mgr := New(b, reg, mem, catalog, executor, tickHz)
	ctx, cancel := context.WithCancel(context.Background())

	if err := mgr.Start(ctx, []int32{testZone}); err != nil {
		t.Fatalf("starting manager: %v", err)
	}
	return mgr, b, mem, ctx, cancel
}

func publishJSON(b *bus.FakeBus, channel, envType string, payload any) {
	env, err := bus.Marshal(envType, payload)
	if err != nil {
		panic(err)
	}
	b.Publish(context.Background(), channel, env)
}

// settle gives the zone actor goroutine a chance to drain its mailbox.
func settle() { time.Sleep(30 * time.Millisecond) }

func lastClientMessage(b *bus.FakeBus, socketID string) (event string, data json.RawMessage, ok bool) {
	for i := len(b.Published()) - 1; i >= 0; i-- {
		msg := b.Published()[i]
		if msg.Channel != outputChannel {
			continue
		}
		var cm clientMessage
		if err := msg.Env.Unmarshal(&cm); err != nil {
			continue
		}
		if cm.SocketID != socketID {
			continue
		}
		raw, _ := json.Marshal(cm.Data)
		return cm.Event, raw, true
	}
	return "", nil, false
}

func countClientMessages(b *bus.FakeBus, socketID, event string) int {
	n := 0
	for _, msg := range b.Published() {
		if msg.Channel != outputChannel {
			continue
		}
		var cm clientMessage
		if err := msg.Env.Unmarshal(&cm); err != nil {
			continue
		}
		if cm.SocketID == socketID && cm.Event == event {
			n++
		}
	}
	return n
}

// TestPlayerJoinZoneDeliversRosterDelta is scenario S1: a second player
// joining within say range produces a roster delta for the first.
func TestPlayerJoinZoneDeliversRosterDelta(t *testing.T) {
	_, b, _, _, cancel := newTestManager(t, 20)
	defer cancel()

	publishJSON(b, inputChannel(testZone), EnvPlayerJoinZone, joinZonePayload{
		CharacterID: "A", Name: "Alice", SocketHandle: "sock-a",
	})
	settle()

	publishJSON(b, inputChannel(testZone), EnvPlayerJoinZone, joinZonePayload{
		CharacterID: "B", Name: "Bob", SocketHandle: "sock-b",
		Position: pos(5, 0, 0),
	})
	settle()

	event, _, ok := lastClientMessage(b, "sock-a")
	if !ok {
		t.Fatalf("expected a client message to sock-a")
	}
	if event != "proximity_roster_delta" {
		t.Errorf("event = %q, want proximity_roster_delta", event)
	}
}

// TestPlayerMoveOutOfRangeRefreshesBothRosters is scenario S2.
func TestPlayerMoveOutOfRangeRefreshesBothRosters(t *testing.T) {
	_, b, _, _, cancel := newTestManager(t, 20)
	defer cancel()

	publishJSON(b, inputChannel(testZone), EnvPlayerJoinZone, joinZonePayload{CharacterID: "A", Name: "Alice", SocketHandle: "sock-a"})
	settle()
	publishJSON(b, inputChannel(testZone), EnvPlayerJoinZone, joinZonePayload{CharacterID: "B", Name: "Bob", SocketHandle: "sock-b", Position: pos(5, 0, 0)})
	settle()

	before := countClientMessages(b, "sock-a", "proximity_roster_delta")

	publishJSON(b, inputChannel(testZone), EnvPlayerMove, movePayload{CharacterID: "B", Position: pos(500, 0, 0)})
	settle()

	after := countClientMessages(b, "sock-a", "proximity_roster_delta")
	if after <= before {
		t.Errorf("expected another roster delta to sock-a after B moved out of range")
	}
}

// TestBasicAttackFullFlow is scenario S3: an in-range attack produces
// combat_start and combat_action/combat_hit or combat_miss broadcasts.
func TestBasicAttackFullFlow(t *testing.T) {
	// A tick rate this low means the actor never ticks during the test, so
	// seeding ATB from here does not race with combat.Update.
	mgr, b, mem, _, cancel := newTestManager(t, 0.01)
	defer cancel()
	mgr.zones[testZone].combat.AddAtb("atk", 150) // S3: pre-fight ATB 150

	mem.SeedCharacter(store.Character{ID: "atk", Name: "Attacker", CurrentHealth: 100, MaxHealth: 100, CoreStats: map[string]float64{"strength": 20}})
	mem.SeedCharacter(store.Character{ID: "tgt", Name: "Target", CurrentHealth: 100, MaxHealth: 100})

	publishJSON(b, inputChannel(testZone), EnvPlayerJoinZone, joinZonePayload{CharacterID: "atk", Name: "Attacker", SocketHandle: "sock-atk"})
	settle()
	publishJSON(b, inputChannel(testZone), EnvPlayerJoinZone, joinZonePayload{CharacterID: "tgt", Name: "Target", SocketHandle: "sock-tgt", Position: pos(1, 0, 0)})
	settle()

	publishJSON(b, inputChannel(testZone), EnvPlayerCombatAction, combatActionPayload{AttackerID: "atk", TargetID: "tgt"})
	settle()

	if countClientMessages(b, "sock-atk", combat.EventCombatStart) != 1 {
		t.Errorf("expected exactly one combat_start broadcast to the attacker")
	}
	if countClientMessages(b, "sock-atk", combat.EventCombatAction) != 1 {
		t.Errorf("expected exactly one combat_action broadcast to the attacker")
	}
}

// TestCombatActionOutOfRangeAborts is scenario S4: attacker too far from
// target gets only a combat_error, no combat_start.
func TestCombatActionOutOfRangeAborts(t *testing.T) {
	_, b, mem, _, cancel := newTestManager(t, 20)
	defer cancel()

	mem.SeedCharacter(store.Character{ID: "atk", Name: "Attacker", CurrentHealth: 100, MaxHealth: 100})
	mem.SeedCharacter(store.Character{ID: "tgt", Name: "Target", CurrentHealth: 100, MaxHealth: 100})

	publishJSON(b, inputChannel(testZone), EnvPlayerJoinZone, joinZonePayload{CharacterID: "atk", Name: "Attacker", SocketHandle: "sock-atk"})
	settle()
	publishJSON(b, inputChannel(testZone), EnvPlayerJoinZone, joinZonePayload{CharacterID: "tgt", Name: "Target", SocketHandle: "sock-tgt", Position: pos(500, 0, 0)})
	settle()

	publishJSON(b, inputChannel(testZone), EnvPlayerCombatAction, combatActionPayload{AttackerID: "atk", TargetID: "tgt"})
	settle()

	if countClientMessages(b, "sock-atk", combat.EventCombatStart) != 0 {
		t.Errorf("expected no combat_start when target is out of range")
	}
	if countClientMessages(b, "sock-atk", combat.EventCombatError) != 1 {
		t.Errorf("expected exactly one combat_error broadcast")
	}
}

// TestSayCommandBroadcastsToListenersInRange exercises the /say command
// path end to end: PLAYER_COMMAND -> command.Executor -> EventSpeech ->
// handleChat -> communication broadcast.
func TestSayCommandBroadcastsToListenersInRange(t *testing.T) {
	_, b, _, _, cancel := newTestManager(t, 20)
	defer cancel()

	publishJSON(b, inputChannel(testZone), EnvPlayerJoinZone, joinZonePayload{CharacterID: "A", Name: "Alice", SocketHandle: "sock-a"})
	settle()
	publishJSON(b, inputChannel(testZone), EnvPlayerJoinZone, joinZonePayload{CharacterID: "B", Name: "Bob", SocketHandle: "sock-b", Position: pos(5, 0, 0)})
	settle()

	publishJSON(b, inputChannel(testZone), EnvPlayerCommand, commandPayload{
		CharacterID: "A", CharacterName: "Alice", Line: "/say hello there",
	})
	settle()

	event, raw, ok := lastClientMessage(b, "sock-b")
	if !ok || event != "communication" {
		t.Fatalf("event = %q ok=%v, want communication", event, ok)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload["message"] != "hello there" {
		t.Errorf("message = %v, want %q", payload["message"], "hello there")
	}
}

// TestTellCommandRejectsUnknownRecipient exercises the private_message
// translation's user-visible-error path.
func TestTellCommandRejectsUnknownRecipient(t *testing.T) {
	_, b, _, _, cancel := newTestManager(t, 20)
	defer cancel()

	publishJSON(b, inputChannel(testZone), EnvPlayerJoinZone, joinZonePayload{CharacterID: "A", Name: "Alice", SocketHandle: "sock-a"})
	settle()

	publishJSON(b, inputChannel(testZone), EnvPlayerCommand, commandPayload{
		CharacterID: "A", CharacterName: "Alice", Line: `/tell Ghost "are you there"`,
	})
	settle()

	event, raw, ok := lastClientMessage(b, "sock-a")
	if !ok || event != "command_response" {
		t.Fatalf("event = %q ok=%v, want command_response", event, ok)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload["success"] != false {
		t.Errorf("success = %v, want false", payload["success"])
	}
}
