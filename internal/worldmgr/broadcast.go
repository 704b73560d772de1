package worldmgr

import (
	"context"
	"log/slog"

	"github.com/udisondev/la2go/internal/bus"
	"github.com/udisondev/la2go/internal/combat"
	"github.com/udisondev/la2go/internal/constants"
	"github.com/udisondev/la2go/internal/model"
	"github.com/udisondev/la2go/internal/movement"
)

// NpcResponder triggers a companion's reply to nearby chat. The actual
// response generator is an LLM-backed external collaborator (Non-goal,
// §1); the default noopResponder never replies.
type NpcResponder interface {
	Respond(ctx context.Context, companion *model.Entity, speakerName, message string)
}

type noopResponder struct{}

func (noopResponder) Respond(context.Context, *model.Entity, string, string) {}

// sendToSocket publishes one CLIENT_MESSAGE envelope for socketHandle
// (§4.7 "Broadcast path"). A blank handle (no attached socket) is a
// silent no-op.
func (z *zoneActor) sendToSocket(ctx context.Context, socketHandle, event string, data any) {
	if socketHandle == "" {
		return
	}
	env, err := bus.Marshal(EnvClientMessage, clientMessage{SocketID: socketHandle, Event: event, Data: data})
	if err != nil {
		slog.Error("worldmgr: marshaling client message failed", "event", event, "error", err)
		return
	}
	z.mgr.bus.Publish(ctx, outputChannel, env)
}

// refreshRoster recomputes entityID's proximity roster against the
// cached one and publishes only a non-empty delta (§4.7 "Roster send
// optimisation").
func (z *zoneActor) refreshRoster(ctx context.Context, entityID string) {
	e, ok := z.entities.GetEntity(entityID)
	if !ok || !e.HasSocket() {
		return
	}
	delta, roster := z.entities.CalculateProximityRosterDelta(entityID, z.rosterCache[entityID])
	if delta == nil {
		return
	}
	z.rosterCache[entityID] = roster
	z.sendToSocket(ctx, e.SocketHandle, "proximity_roster_delta", delta)
}

// refreshRostersNear recomputes every socketed resident's roster except
// excludeID — the "broadcast roster refresh to zone" effect of join/
// leave/move (§4.7). Unaffected observers are suppressed by the delta
// cache in refreshRoster.
func (z *zoneActor) refreshRostersNear(ctx context.Context, _ model.Position, excludeID string) {
	for _, e := range z.entities.AllEntities() {
		if e.ID == excludeID || !e.HasSocket() {
			continue
		}
		z.refreshRoster(ctx, e.ID)
	}
}

// handleChat fans a chat/emote message out to players and inhabited
// companions within channelName's range, tracks it for roster "last
// speaker" sampling, and gives nearby autonomous companions a chance to
// respond (§4.7 PLAYER_CHAT, NPC_CHAT).
func (z *zoneActor) handleChat(ctx context.Context, speakerID string, channelName, message string) {
	speaker, ok := z.entities.GetEntity(speakerID)
	if !ok {
		return
	}

	rangeM := constants.ChannelRange(constants.ChannelName(channelName))
	if rangeM == 0 {
		rangeM = constants.RangeSay
	}

	payload := map[string]any{
		"speakerId": speakerID, "speakerName": speaker.Name,
		"channel": channelName, "message": message,
	}

	listeners := z.entities.EntitiesInRange(speaker.Position, rangeM, speakerID)
	for _, listener := range listeners {
		if listener.HasSocket() {
			z.sendToSocket(ctx, listener.SocketHandle, "communication", payload)
		}
		z.entities.RecordLastSpeaker(listener.ID, speaker.Name)
	}

	z.triggerNpcResponses(ctx, speaker, message, listeners)
}

func (z *zoneActor) triggerNpcResponses(ctx context.Context, speaker *model.Entity, message string, listeners []*model.Entity) {
	for _, e := range listeners {
		if e.Kind != model.EntityCompanion || e.HasSocket() {
			continue
		}
		z.mgr.responder.Respond(ctx, e, speaker.Name, message)
	}
}

// broadcastCombatEvents fans out every pipeline event to observers
// within the 45.72 m combat band (§4.8 "All combat events fan out...
// within a 45.72 m observer band centred on the attacker"), syncing the
// zone's entity combat flags so roster DangerState stays accurate.
func (z *zoneActor) broadcastCombatEvents(ctx context.Context, attacker, target *model.Entity, events []combat.Event) {
	sockets := z.entities.GetPlayerSocketIDsInRange(attacker.Position, constants.RangeEmote, "")
	sockets = append(sockets, z.entities.GetCompanionSocketIDsInRange(attacker.Position, constants.RangeEmote, "")...)

	for _, ev := range events {
		for _, socket := range sockets {
			z.sendToSocket(ctx, socket, ev.Kind, ev.Payload)
		}

		if ev.Kind == combat.EventCombatStart {
			if id, ok := ev.Payload["attackerId"].(string); ok {
				z.entities.SetEntityCombatState(id, true)
			}
			if id, ok := ev.Payload["targetId"].(string); ok {
				z.entities.SetEntityCombatState(id, true)
			}
			z.refreshRoster(ctx, attacker.ID)
			if target != nil {
				z.refreshRoster(ctx, target.ID)
			}
		}
	}
}

// broadcastCombatEnd announces a combat-idle timeout and flips the
// entity's roster DangerState (§4.5, S6).
func (z *zoneActor) broadcastCombatEnd(ctx context.Context, entityID string) {
	z.entities.SetEntityCombatState(entityID, false)

	e, ok := z.entities.GetEntity(entityID)
	if !ok {
		return
	}
	sockets := z.entities.GetPlayerSocketIDsInRange(e.Position, constants.RangeEmote, "")
	sockets = append(sockets, z.entities.GetCompanionSocketIDsInRange(e.Position, constants.RangeEmote, "")...)
	for _, socket := range sockets {
		z.sendToSocket(ctx, socket, "combat_end", map[string]any{"entityId": entityID})
	}
	z.refreshRoster(ctx, entityID)
}

// broadcastMovementStop announces a mover coming to rest (§4.4 StopEvent,
// §4.7 "movement_stop").
func (z *zoneActor) broadcastMovementStop(ctx context.Context, stop movement.StopEvent) {
	sockets := z.entities.GetPlayerSocketIDsInRange(stop.Position, constants.RangeSee, "")
	sockets = append(sockets, z.entities.GetCompanionSocketIDsInRange(stop.Position, constants.RangeSee, "")...)

	payload := map[string]any{"entityId": stop.EntityID, "position": stop.Position, "reason": stop.Reason}
	for _, socket := range sockets {
		z.sendToSocket(ctx, socket, "movement_stop", payload)
	}

	z.refreshRoster(ctx, stop.EntityID)
	z.refreshRostersNear(ctx, stop.Position, stop.EntityID)
}
