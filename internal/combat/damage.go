package combat

import (
	"math"
	"math/rand/v2"

	"github.com/udisondev/la2go/internal/model"
)

// Outcome classifies how an attack resolved (§3, §4.6).
type Outcome string

const (
	OutcomeMiss        Outcome = "miss"
	OutcomeHit         Outcome = "hit"
	OutcomeCrit        Outcome = "crit"
	OutcomeGlance      Outcome = "glance"
	OutcomePenetrating Outcome = "penetrating"
	OutcomeDeflected   Outcome = "deflected"
)

// DamageResult is the outcome of one CalculateDamage call (§4.6).
type DamageResult struct {
	Hit             bool
	Outcome         Outcome
	Amount          float64
	BaseDamage      float64
	MitigatedDamage float64
}

const (
	fallbackCrit        = 5.0
	fallbackGlance      = 0.0
	fallbackPenetrating = 5.0
	fallbackDeflected   = 5.0
)

// CalculateDamage runs the ability→roll→mitigate pipeline of §4.6, pure
// with respect to its inputs except for the random rolls it makes.
func CalculateDamage(ability model.Ability, attacker, defender model.CombatStats, scalingValue float64) DamageResult {
	damageType := model.DamagePhysical
	if ability.Damage != nil {
		damageType = ability.Damage.Type
	}

	base := baseDamage(ability, attacker, scalingValue)

	hitChance := hitChance(damageType, attacker, defender)
	roll := rand.Float64() * 100
	if roll > hitChance {
		return DamageResult{Hit: false, Outcome: OutcomeMiss}
	}

	outcome := classifyOutcome(damageType, attacker)
	amount := applyOutcome(outcome, damageType, base, defender)

	return DamageResult{
		Hit:             true,
		Outcome:         outcome,
		Amount:          amount,
		BaseDamage:      base,
		MitigatedDamage: amount,
	}
}

func baseDamage(ability model.Ability, attacker model.CombatStats, scalingValue float64) float64 {
	if ability.Damage == nil {
		return math.Max(1, math.Floor(attacker.AttackRating*0.5))
	}
	return math.Max(1, math.Floor(ability.Damage.Amount+scalingValue*ability.Damage.ScalingMultiplier))
}

func hitChance(damageType model.DamageType, attacker, defender model.CombatStats) float64 {
	accuracy, evasion := attacker.PhysicalAccuracy, defender.Evasion
	if damageType == model.DamageMagic {
		accuracy, evasion = attacker.MagicAccuracy, defender.MagicEvasion
	}
	chance := 75 + (accuracy-75)*0.5 - evasion*0.5
	return clampRange(chance, 5, 95)
}

func classifyOutcome(damageType model.DamageType, attacker model.CombatStats) Outcome {
	crit := windowOrFallback(attacker.CriticalHitChance, fallbackCrit)
	glance := windowOrFallback(attacker.GlancingBlowChance, fallbackGlance)
	penetrating := windowOrFallback(attacker.PenetratingBlowChance, fallbackPenetrating)
	deflected := windowOrFallback(attacker.DeflectedBlowChance, fallbackDeflected)

	roll := rand.Float64() * 100

	cum := crit
	if roll < cum {
		return OutcomeCrit
	}
	cum += glance
	if roll < cum {
		return OutcomeGlance
	}
	cum += penetrating
	if roll < cum {
		return OutcomePenetrating
	}
	cum += deflected
	if roll < cum {
		return OutcomeDeflected
	}
	return OutcomeHit
}

func windowOrFallback(stat, fallback float64) float64 {
	if math.IsInf(stat, 0) || math.IsNaN(stat) {
		return clampRange(fallback, 0, 100)
	}
	return clampRange(stat, 0, 100)
}

func applyOutcome(outcome Outcome, damageType model.DamageType, base float64, defender model.CombatStats) float64 {
	switch outcome {
	case OutcomeCrit:
		dmg := math.Floor(base * 1.5)
		return mitigate(dmg, damageType, defender, false)
	case OutcomeGlance:
		return mitigate(base, damageType, defender, true)
	case OutcomePenetrating:
		absorption := absorptionFor(damageType, defender)
		return math.Max(1, math.Floor(base-absorption))
	case OutcomeDeflected:
		dmg := mitigate(base, damageType, defender, false)
		return math.Max(1, math.Floor(dmg*0.5))
	default: // hit
		return mitigate(base, damageType, defender, false)
	}
}

func absorptionFor(damageType model.DamageType, defender model.CombatStats) float64 {
	if damageType == model.DamageMagic {
		return defender.MagicAbsorption
	}
	return defender.DamageAbsorption
}

func defenseFor(damageType model.DamageType, defender model.CombatStats) float64 {
	if damageType == model.DamageMagic {
		return defender.MagicDefense
	}
	return defender.DefenseRating
}

// mitigate applies §4.6 step 7's mitigation formula.
func mitigate(base float64, damageType model.DamageType, defender model.CombatStats, isGlancing bool) float64 {
	dmg := base
	if isGlancing {
		dmg *= 0.5
	}
	dmg -= absorptionFor(damageType, defender)

	def := defenseFor(damageType, defender)
	dmg *= 1 - def/(def+100)

	return math.Max(1, math.Floor(dmg))
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
