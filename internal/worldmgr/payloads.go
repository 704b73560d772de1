package worldmgr

import (
	"fmt"

	"github.com/udisondev/la2go/internal/model"
)

// Envelope types carried on zone:<zoneId>:input (§4.7, §6).
const (
	EnvPlayerJoinZone         = "PLAYER_JOIN_ZONE"
	EnvPlayerLeaveZone        = "PLAYER_LEAVE_ZONE"
	EnvPlayerMove             = "PLAYER_MOVE"
	EnvPlayerChat             = "PLAYER_CHAT"
	EnvPlayerCombatAction     = "PLAYER_COMBAT_ACTION"
	EnvPlayerCommand          = "PLAYER_COMMAND"
	EnvPlayerProximityRefresh = "PLAYER_PROXIMITY_REFRESH"
	EnvNpcInhabit             = "NPC_INHABIT"
	EnvNpcRelease             = "NPC_RELEASE"
	EnvNpcChat                = "NPC_CHAT"

	// EnvClientMessage is the single envelope type carried on
	// gateway:output (§4.7 "Broadcast path").
	EnvClientMessage = "CLIENT_MESSAGE"
)

const outputChannel = "gateway:output"

func inputChannel(zoneID int32) string { return fmt.Sprintf("zone:%d:input", zoneID) }

// clientMessage is the payload of every CLIENT_MESSAGE envelope (§4.7).
type clientMessage struct {
	SocketID string `json:"socketId"`
	Event    string `json:"event"`
	Data     any    `json:"data"`
}

type joinZonePayload struct {
	CharacterID  string        `json:"characterId"`
	Name         string        `json:"name"`
	SocketHandle string        `json:"socketHandle"`
	Position     model.Position `json:"position"`
	IsMachine    bool          `json:"isMachine"`
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

type proximityRefreshPayload struct {
	CharacterID string `json:"characterId"`
}

type npcInhabitPayload struct {
	CompanionID  string `json:"companionId"`
	SocketHandle string `json:"socketHandle"`
}

type npcReleasePayload struct {
	CompanionID string `json:"companionId"`
}

type npcChatPayload struct {
	CompanionID string `json:"companionId"`
	Channel     string `json:"channel"`
	Message     string `json:"message"`
}
