package gateway

import "github.com/udisondev/la2go/internal/model"

// Envelope types carried on zone:<zoneId>:input (§4.7, §6), mirroring
// internal/worldmgr's unexported constants of the same name.
const (
	EnvPlayerJoinZone     = "PLAYER_JOIN_ZONE"
	EnvPlayerLeaveZone    = "PLAYER_LEAVE_ZONE"
	EnvPlayerMove         = "PLAYER_MOVE"
	EnvPlayerChat         = "PLAYER_CHAT"
	EnvPlayerCombatAction = "PLAYER_COMBAT_ACTION"
	EnvPlayerCommand      = "PLAYER_COMMAND"
)

// Envelope payload shapes mirroring internal/worldmgr's private types
// (§4.7, §6): the gateway only needs to produce JSON matching what the
// zone actor's dispatch table decodes, not the Go types themselves.

type joinZonePayload struct {
	CharacterID  string         `json:"characterId"`
	Name         string         `json:"name"`
	SocketHandle string         `json:"socketHandle"`
	Position     model.Position `json:"position"`
	IsMachine    bool           `json:"isMachine"`
}

type leaveZonePayload struct {
	CharacterID string `json:"characterId"`
}

type movePayload struct {
	CharacterID string         `json:"characterId"`
	Position    model.Position `json:"position"`
}

type chatPayload struct {
	CharacterID string `json:"characterId"`
	Channel     string `json:"channel"`
	Message     string `json:"message"`
}

type combatActionPayload struct {
	AttackerID string `json:"attackerId"`
	TargetID   string `json:"targetId"`
	AbilityID  string `json:"abilityId"`
}

type commandPayload struct {
	CharacterID   string `json:"characterId"`
	CharacterName string `json:"characterName"`
	Line          string `json:"line"`
	HasTarget     bool   `json:"hasTarget"`
	TargetID      string `json:"targetId"`
}

// clientMessage mirrors the CLIENT_MESSAGE envelope carried on
// gateway:output (§4.7 "Broadcast path"): socketId addresses exactly
// one local session.
type clientMessage struct {
	SocketID string `json:"socketId"`
	Event    string `json:"event"`
	Data     any    `json:"data"`
}

// inboundFrame is the wire shape of every client->server message
// (§6 "message-oriented socket, JSON payloads"): a named event plus an
// opaque data object the per-event handler decodes further.
type inboundFrame struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

// outboundFrame is the wire shape written back to the client.
type outboundFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}
