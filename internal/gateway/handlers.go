package gateway

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/udisondev/la2go/internal/combat"
	"github.com/udisondev/la2go/internal/constants"
	"github.com/udisondev/la2go/internal/model"
	"github.com/udisondev/la2go/internal/store"
)

const protocolVersion = 1

// dispatch routes one decoded inbound frame to its handler (§4.10
// "Inbound socket events drive").
func (s *Session) dispatch(ctx context.Context, frame inboundFrame) {
	switch frame.Event {
	case "handshake":
		s.handleHandshake(ctx, frame.Data)
	case "auth":
		s.handleAuth(ctx, frame.Data)
	case "character_select":
		s.handleCharacterSelect(ctx, frame.Data)
	case "character_create":
		s.handleCharacterCreate(ctx, frame.Data)
	case "move":
		s.handleMove(ctx, frame.Data)
	case "chat":
		s.handleChat(ctx, frame.Data)
	case "combat_action":
		s.handleCombatAction(ctx, frame.Data)
	case "interact":
		s.handleInteract(ctx, frame.Data)
	case "ping":
		s.handlePing(ctx, frame.Data)
	case "player_peek":
		s.handlePlayerPeek(ctx, frame.Data)
	default:
		s.sendMsg("error", map[string]any{"code": "unknown_event", "message": "unrecognized event: " + frame.Event, "severity": "warn"})
	}
}

func (s *Session) handleHandshake(ctx context.Context, data map[string]any) {
	clientVersion, _ := data["protocolVersion"].(float64)
	compatible := int(clientVersion) == protocolVersion || clientVersion == 0
	s.sendMsg("handshake_ack", map[string]any{
		"protocolVersion": protocolVersion,
		"compatible":      compatible,
		"capabilities":    []string{"combat", "movement", "chat", "commands"},
	})
	if !compatible {
		go func() {
			time.Sleep(time.Second)
			s.close()
		}()
	}
}

func (s *Session) handleAuth(ctx context.Context, data map[string]any) {
	method, _ := data["method"].(string)
	result, err := s.server.auth.Authenticate(ctx, method, data)
	if err != nil {
		if authErr, ok := err.(*AuthError); ok {
			s.sendMsg("auth_error", map[string]any{
				"reason": authErr.Reason, "message": authErr.Message, "canRetry": authErr.CanRetry,
			})
			return
		}
		slog.Error("gateway: auth failed", "socket", s.socketHandle, "error", err)
		s.sendMsg("auth_error", map[string]any{"reason": "internal_error", "message": "authentication failed", "canRetry": true})
		return
	}

	s.mu.Lock()
	s.authenticated = true
	s.accountID = result.AccountID
	s.mu.Unlock()

	names := make([]map[string]any, 0, len(result.Characters))
	for _, c := range result.Characters {
		names = append(names, map[string]any{"characterId": c.ID, "name": c.Name, "level": c.Level, "zoneId": c.ZoneID})
	}
	s.sendMsg("auth_success", map[string]any{
		"accountId":          result.AccountID,
		"token":              s.socketHandle,
		"characters":         names,
		"canCreateCharacter": result.CanCreateCharacter,
		"maxCharacters":      result.MaxCharacters,
	})
}

func (s *Session) handleCharacterSelect(ctx context.Context, data map[string]any) {
	if !s.requireAuth() {
		return
	}
	characterID, _ := data["characterId"].(string)

	c, err := s.server.store.Characters().Get(ctx, characterID)
	if err != nil {
		slog.Error("gateway: loading character failed", "character", characterID, "error", err)
		s.sendMsg("error", map[string]any{"code": "internal_error", "message": "could not load character", "severity": "error"})
		return
	}
	if c == nil || c.AccountID != s.accountIDSnapshot() {
		s.sendMsg("error", map[string]any{"code": "not_owned", "message": "character not found or not owned", "severity": "error"})
		return
	}

	if err := s.server.store.Characters().UpdateLastSeen(ctx, c.ID, time.Now()); err != nil {
		slog.Warn("gateway: updating character last-seen failed", "character", c.ID, "error", err)
	}
	s.enterWorld(ctx, c)
}

func (s *Session) handleCharacterCreate(ctx context.Context, data map[string]any) {
	if !s.requireAuth() {
		return
	}
	name, _ := data["name"].(string)
	if strings.TrimSpace(name) == "" {
		s.sendMsg("error", map[string]any{"code": "invalid_name", "message": "a character name is required", "severity": "error"})
		return
	}

	appearance, _ := data["appearance"].(map[string]any)
	core := map[string]float64{}
	for _, stat := range []string{"strength", "vitality", "dexterity", "intellect", "wisdom", "luck"} {
		if v, ok := appearance[stat].(float64); ok {
			core[stat] = v
		}
	}

	c := &store.Character{
		ID: s.socketHandle + ":" + name, AccountID: s.accountIDSnapshot(),
		ZoneID: constants.StarterZoneID, Name: name, Level: 1,
		CurrentHealth: 100, MaxHealth: 100,
		CurrentStamina: 100, MaxStamina: 100,
		CurrentMana: 100, MaxMana: 100,
		CoreStats: core,
	}
	if err := s.server.store.Characters().Create(ctx, c); err != nil {
		slog.Error("gateway: creating character failed", "name", name, "error", err)
		s.sendMsg("error", map[string]any{"code": "create_failed", "message": "could not create character", "severity": "error"})
		return
	}
	s.enterWorld(ctx, c)
}

// enterWorld runs the §4.10 "enter world" step: derive stats, fetch
// zone companions, emit world_entry, publish PLAYER_JOIN_ZONE, and
// register the player's cluster-wide location.
func (s *Session) enterWorld(ctx context.Context, c *store.Character) {
	s.mu.Lock()
	s.characterID = c.ID
	s.characterName = c.Name
	s.currentZoneID = c.ZoneID
	s.mu.Unlock()

	companions, err := s.server.store.Companions().FindByZoneID(ctx, c.ZoneID)
	if err != nil {
		slog.Error("gateway: loading zone companions failed", "zone", c.ZoneID, "error", err)
	}
	npcs := make([]map[string]any, 0, len(companions))
	for _, comp := range companions {
		npcs = append(npcs, map[string]any{"id": comp.ID, "name": comp.Name, "position": model.Position{X: comp.X, Y: comp.Y, Z: comp.Z}})
	}

	stats := combat.DeriveCombatStats(c.CoreStats, c.Level)
	s.sendMsg("world_entry", map[string]any{
		"characterId": c.ID, "name": c.Name, "zoneId": c.ZoneID,
		"position": model.Position{X: c.X, Y: c.Y, Z: c.Z},
		"stats":    stats,
		"npcs":     npcs,
	})

	s.publishToZone(EnvPlayerJoinZone, joinZonePayload{
		CharacterID: c.ID, Name: c.Name, SocketHandle: s.socketHandle,
		Position: model.Position{X: c.X, Y: c.Y, Z: c.Z},
	})

	if err := s.server.registry.UpdatePlayerLocation(ctx, c.ID, c.ZoneID, s.socketHandle); err != nil {
		slog.Error("gateway: updating player location failed", "character", c.ID, "error", err)
	}
}

func (s *Session) handleMove(ctx context.Context, data map[string]any) {
	if !s.requireInWorld() {
		return
	}
	characterID, _ := s.character()
	pos := s.positionFromData(data)
	if err := s.server.store.Characters().UpdatePosition(ctx, characterID, pos.X, pos.Y, pos.Z); err != nil {
		slog.Warn("gateway: persisting position failed", "character", characterID, "error", err)
	}
	s.publishToZone(EnvPlayerMove, movePayload{CharacterID: characterID, Position: pos})
}

func (s *Session) handleChat(ctx context.Context, data map[string]any) {
	if !s.requireInWorld() {
		return
	}
	characterID, characterName := s.character()
	message, _ := data["message"].(string)

	if strings.HasPrefix(strings.TrimSpace(message), "/") {
		targetID, _ := data["target"].(string)
		s.publishToZone(EnvPlayerCommand, commandPayload{
			CharacterID: characterID, CharacterName: characterName, Line: message,
			HasTarget: targetID != "", TargetID: targetID,
		})
		return
	}

	channel, _ := data["channel"].(string)
	if channel == "" {
		channel = "say"
	}
	s.publishToZone(EnvPlayerChat, chatPayload{CharacterID: characterID, Channel: channel, Message: message})
}

func (s *Session) handleCombatAction(ctx context.Context, data map[string]any) {
	if !s.requireInWorld() {
		return
	}
	characterID, _ := s.character()
	targetID, _ := data["targetId"].(string)
	abilityID, _ := data["abilityId"].(string)
	s.publishToZone(EnvPlayerCombatAction, combatActionPayload{AttackerID: characterID, TargetID: targetID, AbilityID: abilityID})
}

// handleInteract publishes nothing to the zone and answers every
// request with a failed command_response: the verb itself (talk/trade/
// use/examine) is resolved by a world-object interaction service that is
// an external collaborator, out of scope here (§1 Non-goals).
func (s *Session) handleInteract(ctx context.Context, data map[string]any) {
	if !s.requireInWorld() {
		return
	}
	s.sendMsg("command_response", map[string]any{
		"success": false,
		"error":   "interact is not available on this server",
	})
}

func (s *Session) handlePing(ctx context.Context, data map[string]any) {
	clientTS, _ := data["timestamp"].(float64)
	s.sendMsg("pong", map[string]any{
		"clientTimestamp": clientTS,
		"serverTimestamp": time.Now().UnixMilli(),
	})
}

// handlePlayerPeek looks targetName up among all persisted characters,
// in any zone, by reading the stored record directly, since it is a
// one-shot lookup, not a standing subscription.
func (s *Session) handlePlayerPeek(ctx context.Context, data map[string]any) {
	if !s.requireInWorld() {
		return
	}
	targetName, _ := data["targetName"].(string)
	c, err := s.server.store.Characters().FindByName(ctx, targetName)
	if err != nil || c == nil {
		s.sendMsg("player_peek_response", map[string]any{"found": false})
		return
	}
	s.sendMsg("player_peek_response", map[string]any{
		"found": true, "characterId": c.ID, "name": c.Name, "level": c.Level, "zoneId": c.ZoneID,
	})
}

// handleDisconnect publishes PLAYER_LEAVE_ZONE and clears the cluster-
// wide player location (§4.10 "disconnect").
func (s *Session) handleDisconnect(ctx context.Context) {
	if !s.inWorld() {
		return
	}
	characterID, _ := s.character()
	s.publishToZone(EnvPlayerLeaveZone, leaveZonePayload{CharacterID: characterID})
	if err := s.server.registry.RemovePlayer(ctx, characterID); err != nil {
		slog.Error("gateway: removing player location failed", "character", characterID, "error", err)
	}
}

func (s *Session) requireAuth() bool {
	s.mu.Lock()
	ok := s.authenticated
	s.mu.Unlock()
	if !ok {
		s.sendMsg("error", map[string]any{"code": "not_authenticated", "message": "authenticate first", "severity": "error"})
	}
	return ok
}

func (s *Session) requireInWorld() bool {
	if !s.inWorld() {
		s.sendMsg("error", map[string]any{"code": "not_in_world", "message": "select or create a character first", "severity": "error"})
		return false
	}
	return true
}

func (s *Session) accountIDSnapshot() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accountID
}
