package worldmgr

import (
	"context"
	"log/slog"
	"time"

	"github.com/udisondev/la2go/internal/bus"
	"github.com/udisondev/la2go/internal/model"
)

// handleEnvelope is the dispatch table of §4.7. Called only from the
// zone's own actor goroutine.
func (z *zoneActor) handleEnvelope(ctx context.Context, env bus.Envelope) {
	switch env.Type {
	case EnvPlayerJoinZone:
		z.onPlayerJoinZone(ctx, env)
	case EnvPlayerLeaveZone:
		z.onPlayerLeaveZone(ctx, env)
	case EnvPlayerMove:
		z.onPlayerMove(ctx, env)
	case EnvPlayerChat:
		z.onPlayerChat(ctx, env)
	case EnvPlayerCombatAction:
		z.onPlayerCombatAction(ctx, env)
	case EnvPlayerCommand:
		z.onPlayerCommand(ctx, env)
	case EnvPlayerProximityRefresh:
		z.onPlayerProximityRefresh(ctx, env)
	case EnvNpcInhabit:
		z.onNpcInhabit(ctx, env)
	case EnvNpcRelease:
		z.onNpcRelease(ctx, env)
	case EnvNpcChat:
		z.onNpcChat(ctx, env)
	default:
		slog.Warn("worldmgr: unknown envelope type dropped", "zone", z.zoneID, "type", env.Type)
	}
}

func (z *zoneActor) onPlayerJoinZone(ctx context.Context, env bus.Envelope) {
	var p joinZonePayload
	if err := env.Unmarshal(&p); err != nil {
		slog.Error("worldmgr: decoding PLAYER_JOIN_ZONE failed", "zone", z.zoneID, "error", err)
		return
	}
	z.entities.AddPlayer(&model.Entity{ID: p.CharacterID, Name: p.Name, Position: p.Position}, p.SocketHandle, p.IsMachine)
	if err := z.mgr.registry.UpdatePlayerLocation(ctx, p.CharacterID, z.zoneID, p.SocketHandle); err != nil {
		slog.Error("worldmgr: updating player location failed", "character", p.CharacterID, "error", err)
	}
	z.refreshRoster(ctx, p.CharacterID)
	z.refreshRostersNear(ctx, p.Position, p.CharacterID)
}

func (z *zoneActor) onPlayerLeaveZone(ctx context.Context, env bus.Envelope) {
	var p leaveZonePayload
	if err := env.Unmarshal(&p); err != nil {
		slog.Error("worldmgr: decoding PLAYER_LEAVE_ZONE failed", "zone", z.zoneID, "error", err)
		return
	}
	e, ok := z.entities.GetEntity(p.CharacterID)
	if !ok {
		return
	}
	pos := e.Position
	z.entities.RemovePlayer(p.CharacterID)
	delete(z.rosterCache, p.CharacterID)
	if err := z.mgr.registry.RemovePlayer(ctx, p.CharacterID); err != nil {
		slog.Error("worldmgr: removing player location failed", "character", p.CharacterID, "error", err)
	}
	z.refreshRostersNear(ctx, pos, p.CharacterID)
}

func (z *zoneActor) onPlayerMove(ctx context.Context, env bus.Envelope) {
	var p movePayload
	if err := env.Unmarshal(&p); err != nil {
		slog.Error("worldmgr: decoding PLAYER_MOVE failed", "zone", z.zoneID, "error", err)
		return
	}
	z.entities.UpdatePosition(p.CharacterID, p.Position)
	z.refreshRoster(ctx, p.CharacterID)
	z.refreshRostersNear(ctx, p.Position, p.CharacterID)
}

func (z *zoneActor) onPlayerChat(ctx context.Context, env bus.Envelope) {
	var p chatPayload
	if err := env.Unmarshal(&p); err != nil {
		slog.Error("worldmgr: decoding PLAYER_CHAT failed", "zone", z.zoneID, "error", err)
		return
	}
	z.handleChat(ctx, p.CharacterID, p.Channel, p.Message)
}

func (z *zoneActor) onPlayerCombatAction(ctx context.Context, env bus.Envelope) {
	var p combatActionPayload
	if err := env.Unmarshal(&p); err != nil {
		slog.Error("worldmgr: decoding PLAYER_COMBAT_ACTION failed", "zone", z.zoneID, "error", err)
		return
	}
	z.runCombatAction(ctx, p.AttackerID, p.TargetID, p.AbilityID)
}

func (z *zoneActor) onPlayerCommand(ctx context.Context, env bus.Envelope) {
	var p commandPayload
	if err := env.Unmarshal(&p); err != nil {
		slog.Error("worldmgr: decoding PLAYER_COMMAND failed", "zone", z.zoneID, "error", err)
		return
	}
	z.handleCommand(ctx, p)
}

func (z *zoneActor) onPlayerProximityRefresh(ctx context.Context, env bus.Envelope) {
	var p proximityRefreshPayload
	if err := env.Unmarshal(&p); err != nil {
		slog.Error("worldmgr: decoding PLAYER_PROXIMITY_REFRESH failed", "zone", z.zoneID, "error", err)
		return
	}
	delete(z.rosterCache, p.CharacterID)
	z.refreshRoster(ctx, p.CharacterID)
}

func (z *zoneActor) onNpcInhabit(ctx context.Context, env bus.Envelope) {
	var p npcInhabitPayload
	if err := env.Unmarshal(&p); err != nil {
		slog.Error("worldmgr: decoding NPC_INHABIT failed", "zone", z.zoneID, "error", err)
		return
	}
	z.entities.SetCompanionSocketID(p.CompanionID, p.SocketHandle)
	if e, ok := z.entities.GetEntity(p.CompanionID); ok {
		z.refreshRoster(ctx, p.CompanionID)
		z.refreshRostersNear(ctx, e.Position, p.CompanionID)
	}
}

func (z *zoneActor) onNpcRelease(ctx context.Context, env bus.Envelope) {
	var p npcReleasePayload
	if err := env.Unmarshal(&p); err != nil {
		slog.Error("worldmgr: decoding NPC_RELEASE failed", "zone", z.zoneID, "error", err)
		return
	}
	e, ok := z.entities.GetEntity(p.CompanionID)
	z.entities.SetCompanionSocketID(p.CompanionID, "")
	delete(z.rosterCache, p.CompanionID)
	if ok {
		z.refreshRostersNear(ctx, e.Position, p.CompanionID)
	}
}

func (z *zoneActor) onNpcChat(ctx context.Context, env bus.Envelope) {
	var p npcChatPayload
	if err := env.Unmarshal(&p); err != nil {
		slog.Error("worldmgr: decoding NPC_CHAT failed", "zone", z.zoneID, "error", err)
		return
	}
	z.handleChat(ctx, p.CompanionID, p.Channel, p.Message)
}

// runCombatAction resolves attacker/target from the zone's entity table
// and runs the §4.8 pipeline, broadcasting whatever it returns.
func (z *zoneActor) runCombatAction(ctx context.Context, attackerID, targetID, abilityID string) {
	attacker, ok := z.entities.GetEntity(attackerID)
	if !ok {
		slog.Warn("worldmgr: combat action from unknown attacker", "zone", z.zoneID, "attacker", attackerID)
		return
	}
	target := attacker
	if targetID != "" {
		if t, ok := z.entities.GetEntity(targetID); ok {
			target = t
		}
	}
	if abilityID == "" {
		abilityID = model.BasicAttackID
	}

	events, err := z.pipeline.Execute(ctx, attacker, target, abilityID, time.Now())
	if err != nil {
		slog.Error("worldmgr: combat pipeline failed", "zone", z.zoneID, "attacker", attackerID, "error", err)
		return
	}
	z.broadcastCombatEvents(ctx, attacker, target, events)
}

// tick advances movement and combat for one fixed-rate step (§5).
func (z *zoneActor) tick(ctx context.Context, now time.Time, dt float64) {
	for _, stop := range z.movement.Tick(ctx, dt, now) {
		z.broadcastMovementStop(ctx, stop)
	}

	expired := z.combat.Update(dt, now, func(string) float64 { return 0 })
	for _, id := range expired {
		z.broadcastCombatEnd(ctx, id)
	}
}
