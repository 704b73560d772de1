package combat

import (
	"testing"
	"time"

	"github.com/udisondev/la2go/internal/constants"
)

func noBonus(string) float64 { return 0 }

func TestStartCombatReturnsTransition(t *testing.T) {
	m := NewManager()
	now := time.Now()

	if !m.StartCombat("A", now) {
		t.Errorf("first StartCombat should report a transition")
	}
	if m.StartCombat("A", now) {
		t.Errorf("second StartCombat should not report a transition while already in combat")
	}
}

// TestCombatTimeout is scenario S6: after 15s of no hostile action, the
// next update expires combat.
func TestCombatTimeout(t *testing.T) {
	m := NewManager()
	start := time.Now()
	m.StartCombat("A", start)

	before := start.Add(constants.CombatTimeout - time.Second)
	expired := m.Update(1, before, noBonus)
	if len(expired) != 0 {
		t.Fatalf("should not expire before timeout: %v", expired)
	}
	if !m.InCombat("A") {
		t.Fatalf("should still be in combat before timeout")
	}

	after := start.Add(constants.CombatTimeout)
	expired = m.Update(1, after, noBonus)
	if len(expired) != 1 || expired[0] != "A" {
		t.Fatalf("expired = %v, want [A]", expired)
	}
	if m.InCombat("A") {
		t.Errorf("InCombat should be false after timeout")
	}
}

func TestAtbStaysWithinBounds(t *testing.T) {
	m := NewManager()
	now := time.Now()
	m.StartCombat("A", now)

	m.AddAtb("A", 1000)
	if m.Atb("A") != constants.AtbCap {
		t.Errorf("Atb = %v, want capped at %v", m.Atb("A"), constants.AtbCap)
	}

	m.SpendAtb("A", 1000)
	if m.Atb("A") != 0 {
		t.Errorf("Atb = %v, want saturated at 0", m.Atb("A"))
	}
}

func TestUpdateFillsAtbAtBaseRate(t *testing.T) {
	m := NewManager()
	now := time.Now()
	m.StartCombat("A", now)

	m.Update(1, now.Add(time.Second), noBonus)
	if got := m.Atb("A"); got != constants.AtbBaseRate {
		t.Errorf("Atb after 1s = %v, want %v", got, constants.AtbBaseRate)
	}
}

// TestBasicAttackAtbSpend is scenario S3's ATB portion: cost 100, ATB
// starts at 150, ends at 50.
func TestBasicAttackAtbSpend(t *testing.T) {
	m := NewManager()
	m.AddAtb("A", 150)

	if !m.CanSpendAtb("A", 100) {
		t.Fatalf("should be able to spend 100 from 150")
	}
	m.SpendAtb("A", 100)
	if m.Atb("A") != 50 {
		t.Errorf("Atb = %v, want 50", m.Atb("A"))
	}
}

// TestBuilderRefund is scenario S5: builder ability costs 50, ATB before
// 80, spend then refund nets back to 80.
func TestBuilderRefund(t *testing.T) {
	m := NewManager()
	m.AddAtb("A", 80)

	const cost = 50.0
	m.SpendAtb("A", cost)
	m.AddAtb("A", cost) // isBuilder refund

	if m.Atb("A") != 80 {
		t.Errorf("Atb after builder refund = %v, want 80", m.Atb("A"))
	}
}

func TestCooldownAtExactlyZeroIsAllowed(t *testing.T) {
	m := NewManager()
	now := time.Now()
	m.SetCooldown("A", "fireball", 1000, now)

	remaining := m.GetCooldownRemaining("A", "fireball", now.Add(time.Second))
	if remaining != 0 {
		t.Errorf("remaining = %v, want 0 at exact expiry", remaining)
	}
}

func TestCooldownStillRunning(t *testing.T) {
	m := NewManager()
	now := time.Now()
	m.SetCooldown("A", "fireball", 1000, now)

	remaining := m.GetCooldownRemaining("A", "fireball", now.Add(500*time.Millisecond))
	if remaining <= 0 {
		t.Errorf("remaining = %v, want > 0 mid-cooldown", remaining)
	}
}
