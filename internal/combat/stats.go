package combat

import "github.com/udisondev/la2go/internal/model"

// defaultCoreStat is used for any core stat a companion record omits
// (§3 Ability: "companion record (stats JSON with defaults of 10 per
// core stat)").
const defaultCoreStat = 10.0

func coreStat(core map[string]float64, name string) float64 {
	if core == nil {
		return defaultCoreStat
	}
	if v, ok := core[name]; ok {
		return v
	}
	return defaultCoreStat
}

// DeriveCombatStats computes CombatStats from an entity's core stats
// and level (§3: "derived at use from core stats + level"), in a
// base-times-bonus-times-level-modifier shape.
func DeriveCombatStats(core map[string]float64, level int32) model.CombatStats {
	levelMod := 1.0 + float64(level)*0.01

	strength := coreStat(core, "strength")
	vitality := coreStat(core, "vitality")
	dexterity := coreStat(core, "dexterity")
	intellect := coreStat(core, "intellect")
	wisdom := coreStat(core, "wisdom")
	luck := coreStat(core, "luck")

	return model.CombatStats{
		AttackRating:  strength * 2 * levelMod,
		DefenseRating: vitality * 1.5 * levelMod,

		PhysicalAccuracy: 70 + dexterity*0.5,
		Evasion:          70 + dexterity*0.4,
		DamageAbsorption: vitality * 0.5,

		GlancingBlowChance: clampRange(dexterity*0.1, 0, 100),

		MagicAttack:     intellect * 2 * levelMod,
		MagicDefense:    wisdom * 1.5 * levelMod,
		MagicAccuracy:   70 + intellect*0.3,
		MagicEvasion:    70 + wisdom*0.3,
		MagicAbsorption: wisdom * 0.5,

		CriticalHitChance:     clampRange(luck*0.3, 0, 100),
		PenetratingBlowChance: clampRange(luck*0.1, 0, 100),
		DeflectedBlowChance:   clampRange(dexterity*0.1, 0, 100),

		CoreStats: core,
	}
}
