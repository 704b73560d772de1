// Package combat implements the Combat Manager (§4.5: ATB gauges and
// cooldowns), the damage calculator (§4.6), and the ability→validate→
// spend→roll→mitigate→broadcast pipeline (§4.8).
package combat

import (
	"time"

	"github.com/udisondev/la2go/internal/constants"
	"github.com/udisondev/la2go/internal/model"
)

// Manager tracks per-entity ATB gauges and ability cooldowns (§4.5).
// Like zonemgr.Manager, it is owned by one zone's single-writer actor —
// no internal locking.
type Manager struct {
	combatants map[string]*model.CombatantState
}

// NewManager returns an empty combat Manager.
func NewManager() *Manager {
	return &Manager{combatants: make(map[string]*model.CombatantState)}
}

func (m *Manager) state(id string) *model.CombatantState {
	s, ok := m.combatants[id]
	if !ok {
		s = model.NewCombatantState(id)
		m.combatants[id] = s
	}
	return s
}

// StartCombat marks id as in-combat, refreshing lastHostileAt. Returns
// true if this call caused an out-of-combat → in-combat transition
// (§4.5).
func (m *Manager) StartCombat(id string, now time.Time) bool {
	s := m.state(id)
	transitioned := !s.InCombat
	s.InCombat = true
	s.LastHostileAt = now
	return transitioned
}

// RecordHostileAction refreshes lastHostileAt without changing InCombat.
func (m *Manager) RecordHostileAction(id string, now time.Time) {
	m.state(id).LastHostileAt = now
}

// Update advances every in-combat entity's ATB gauge by dt seconds at
// constants.AtbBaseRate plus attackSpeedBonusFor(id), and clears combat
// for any entity idle ≥ constants.CombatTimeout (§4.5). Returns the ids
// that just expired out of combat.
func (m *Manager) Update(dt float64, now time.Time, attackSpeedBonusFor func(id string) float64) []string {
	var expired []string
	for id, s := range m.combatants {
		if !s.InCombat {
			continue
		}
		bonus := 0.0
		if attackSpeedBonusFor != nil {
			bonus = attackSpeedBonusFor(id)
		}
		s.Atb = clamp(s.Atb+(constants.AtbBaseRate+bonus)*dt, 0, constants.AtbCap)

		if now.Sub(s.LastHostileAt) >= constants.CombatTimeout {
			s.InCombat = false
			expired = append(expired, id)
		}
	}
	return expired
}

// CanSpendAtb reports whether id's gauge can afford cost.
func (m *Manager) CanSpendAtb(id string, cost float64) bool {
	return m.state(id).Atb >= cost
}

// SpendAtb subtracts cost from id's gauge, saturating at 0.
func (m *Manager) SpendAtb(id string, cost float64) {
	s := m.state(id)
	s.Atb = clamp(s.Atb-cost, 0, constants.AtbCap)
}

// AddAtb adds amount to id's gauge, saturating at constants.AtbCap.
func (m *Manager) AddAtb(id string, amount float64) {
	s := m.state(id)
	s.Atb = clamp(s.Atb+amount, 0, constants.AtbCap)
}

// Atb returns id's current gauge value.
func (m *Manager) Atb(id string) float64 {
	return m.state(id).Atb
}

// GetCooldownRemaining returns the remaining cooldown in milliseconds
// for id's abilityID, or 0 if ready.
func (m *Manager) GetCooldownRemaining(id, abilityID string, now time.Time) float64 {
	s := m.state(id)
	expiry, ok := s.Cooldowns[abilityID]
	if !ok {
		return 0
	}
	remaining := expiry.Sub(now).Milliseconds()
	if remaining < 0 {
		return 0
	}
	return float64(remaining)
}

// SetCooldown sets abilityID's cooldown for id to expire cooldownMs from
// now.
func (m *Manager) SetCooldown(id, abilityID string, cooldownMs float64, now time.Time) {
	s := m.state(id)
	s.Cooldowns[abilityID] = now.Add(time.Duration(cooldownMs) * time.Millisecond)
}

// InCombat reports whether id is currently flagged in combat.
func (m *Manager) InCombat(id string) bool {
	return m.state(id).InCombat
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
