package model

import "time"

// ZoneAssignment records which server owns a zone (§3, stored in the
// registry KV, not itself TTL'd).
type ZoneAssignment struct {
	ZoneID     int32
	ServerID   string
	HostAddress string
	AssignedAt time.Time
}

// PlayerLocation records where a character currently is, for cross-zone
// lookup (§3, stored in the registry KV with TTL).
type PlayerLocation struct {
	CharacterID  string
	ZoneID       int32
	SocketHandle string
	ServerID     string
	LastUpdate   time.Time
}
