package model

import "time"

// CombatantState is the per-entity ATB/cooldown record maintained by the
// Combat Manager (§3, §4.5). Lazily materialised on first reference.
type CombatantState struct {
	EntityID     string
	Atb          float64 // 0-200
	LastHostileAt time.Time
	InCombat     bool
	Cooldowns    map[string]time.Time // abilityID -> expiry
}

// NewCombatantState returns a fresh, out-of-combat state.
func NewCombatantState(entityID string) *CombatantState {
	return &CombatantState{
		EntityID:  entityID,
		Cooldowns: make(map[string]time.Time),
	}
}
