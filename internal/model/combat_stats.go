package model

// CombatStats are derived at use time from an entity's core stats and
// level (§3), feeding the damage calculator (§4.6).
type CombatStats struct {
	AttackRating  float64
	DefenseRating float64

	PhysicalAccuracy float64
	Evasion          float64
	DamageAbsorption float64

	GlancingBlowChance float64

	MagicAttack    float64
	MagicDefense   float64
	MagicAccuracy  float64
	MagicEvasion   float64
	MagicAbsorption float64

	CriticalHitChance    float64
	PenetratingBlowChance float64
	DeflectedBlowChance  float64

	// CoreStats holds the raw scaling stats (e.g. "strength", "intellect")
	// an ability's damage/heal spec may reference (§4.8 step 8).
	CoreStats map[string]float64
}

// CombatSnapshot pairs an entity's combat stats with its current/maximum
// health and resource pools, as loaded for one combat-action pipeline
// invocation (§4.8 step 1).
type CombatSnapshot struct {
	EntityID string
	Stats    CombatStats

	CurrentHealth float64
	MaxHealth     float64

	CurrentStamina float64
	CurrentMana    float64
}
