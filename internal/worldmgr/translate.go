package worldmgr

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/udisondev/la2go/internal/command"
	"github.com/udisondev/la2go/internal/constants"
	"github.com/udisondev/la2go/internal/model"
	"github.com/udisondev/la2go/internal/movement"
)

// handleCommand runs p through the command subsystem and translates
// whatever semantic events it produces (§4.7 "Command-event
// translation", §4.9).
func (z *zoneActor) handleCommand(ctx context.Context, p commandPayload) {
	actor, ok := z.entities.GetEntity(p.CharacterID)
	if !ok {
		return
	}

	result, err := z.mgr.executor.Execute(ctx, p.CharacterID, p.CharacterName, p.Line, p.HasTarget, p.TargetID, time.Now())
	if err != nil {
		slog.Error("worldmgr: command execution failed", "character", p.CharacterID, "error", err)
		return
	}

	z.sendToSocket(ctx, actor.SocketHandle, "command_response", result)
	for _, ev := range result.Events {
		z.translateCommandEvent(ctx, actor, ev)
	}
}

func (z *zoneActor) translateCommandEvent(ctx context.Context, actor *model.Entity, ev command.Event) {
	switch ev.Kind {
	case command.EventSpeech:
		channel, _ := ev.Payload["channel"].(string)
		message, _ := ev.Payload["message"].(string)
		z.handleChat(ctx, actor.ID, channel, message)

	case command.EventEmote:
		action, _ := ev.Payload["action"].(string)
		z.handleChat(ctx, actor.ID, string(constants.ChannelEmote), actor.Name+" "+action)

	case command.EventPrivateMessage:
		z.handlePrivateMessage(ctx, actor, ev.Payload)

	case command.EventCombatAction:
		targetID, _ := ev.Payload["targetId"].(string)
		abilityID, _ := ev.Payload["abilityId"].(string)
		z.runCombatAction(ctx, actor.ID, targetID, abilityID)

	case command.EventMovement:
		z.handleMovementCommand(ctx, actor, ev.Payload)

	case command.EventMovementStop:
		z.handleMovementStop(ctx, actor)

	default:
		slog.Warn("worldmgr: unknown command event kind dropped", "zone", z.zoneID, "kind", ev.Kind)
	}
}

// handlePrivateMessage resolves recipientName in this zone's entity
// table and fans a "chat" event on the "whisper" channel to both
// parties, or replies to sender with a user-visible error (§4.7
// "private_message"). Cross-zone name resolution isn't specified by the
// registry's KV layout, so delivery is restricted to zone residents.
func (z *zoneActor) handlePrivateMessage(ctx context.Context, sender *model.Entity, payload map[string]any) {
	recipientName, _ := payload["recipientName"].(string)
	message, _ := payload["message"].(string)

	recipient, ok := z.entities.FindEntityByName(recipientName)
	if !ok || !recipient.HasSocket() {
		z.sendToSocket(ctx, sender.SocketHandle, "command_response", map[string]any{
			"success": false,
			"error":   fmt.Sprintf("%s is not here", recipientName),
		})
		return
	}

	data := map[string]any{
		"channel": "whisper",
		"from":    sender.Name,
		"message": message,
	}
	z.sendToSocket(ctx, recipient.SocketHandle, "chat", data)
	z.sendToSocket(ctx, sender.SocketHandle, "chat", data)
	z.entities.RecordLastSpeaker(recipient.ID, sender.Name)
}

// handleMovementCommand starts actor moving per a command-translated
// movement event. Only "target" mode is produced by the stock /follow
// command today; other modes are logged and dropped.
func (z *zoneActor) handleMovementCommand(ctx context.Context, actor *model.Entity, payload map[string]any) {
	mode, _ := payload["mode"].(string)
	switch mode {
	case "target":
		targetID, _ := payload["targetId"].(string)
		target, ok := z.entities.GetEntity(targetID)
		if !ok {
			z.sendToSocket(ctx, actor.SocketHandle, "command_response", map[string]any{
				"success": false, "error": "target not found",
			})
			return
		}
		z.movement.MoveTowardEntity(actor.ID, actor.Position, target.Name,
			constants.FollowStopRangeFeet, movement.SpeedWalk, constants.DefaultMovementSpeed, nil, time.Now())
	default:
		slog.Warn("worldmgr: unknown movement command mode dropped", "zone", z.zoneID, "mode", mode)
	}
}

// handleMovementStop stops any in-flight command-driven movement and
// persists actor's current position regardless (§4.7 "movement_stop ->
// persist current position").
func (z *zoneActor) handleMovementStop(ctx context.Context, actor *model.Entity) {
	if stop, ok := z.movement.Stop(ctx, actor.ID); ok {
		z.broadcastMovementStop(ctx, stop)
		return
	}
	if err := z.persistPosition(ctx, actor.ID, actor.Position); err != nil {
		slog.Error("worldmgr: persisting position on movement_stop failed", "entity", actor.ID, "error", err)
	}
	z.refreshRoster(ctx, actor.ID)
}
