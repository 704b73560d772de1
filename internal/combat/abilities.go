package combat

import (
	"context"
	"fmt"

	"github.com/udisondev/la2go/internal/model"
	"github.com/udisondev/la2go/internal/store"
)

// Catalog resolves ability definitions by id or name against the
// persistent store, falling back to the built-in basic attack (§3).
type Catalog struct {
	abilities store.AbilityRepository
}

// NewCatalog returns a Catalog backed by repo.
func NewCatalog(repo store.AbilityRepository) *Catalog {
	return &Catalog{abilities: repo}
}

// ResolveByID looks up abilityID, falling back to model.BasicAttack()
// when it does not exist (§4.7: combat_action by ability id).
func (c *Catalog) ResolveByID(ctx context.Context, abilityID string) (model.Ability, error) {
	if abilityID == "" || abilityID == model.BasicAttackID {
		return model.BasicAttack(), nil
	}
	rec, err := c.abilities.Get(ctx, abilityID)
	if err != nil {
		return model.Ability{}, fmt.Errorf("resolving ability %q: %w", abilityID, err)
	}
	if rec == nil {
		return model.BasicAttack(), nil
	}
	return fromRecord(*rec), nil
}

// ResolveByName looks up an ability by name, failing when unknown
// rather than falling back (§4.7: combat_action by ability name).
func (c *Catalog) ResolveByName(ctx context.Context, name string) (model.Ability, error) {
	rec, err := c.abilities.FindByName(ctx, name)
	if err != nil {
		return model.Ability{}, fmt.Errorf("resolving ability %q: %w", name, err)
	}
	if rec == nil {
		return model.Ability{}, fmt.Errorf("unknown ability %q", name)
	}
	return fromRecord(*rec), nil
}

func fromRecord(rec store.AbilityRecord) model.Ability {
	a := model.Ability{
		ID:          rec.ID,
		Name:        rec.Name,
		Description: rec.Description,
		TargetType:  model.TargetType(rec.TargetType),
		Range:       rec.Range,
		Cooldown:    rec.Cooldown,
		AtbCost:     rec.AtbCost,
		IsBuilder:   rec.IsBuilder,
		IsFree:      rec.IsFree,
		StaminaCost: rec.StaminaCost,
		ManaCost:    rec.ManaCost,
		HealthCost:  rec.HealthCost,
		CastTime:    rec.CastTime,
		AoeRadius:   rec.AoeRadius,
	}
	if rec.HasDamage {
		a.Damage = &model.DamageSpec{
			Type:              model.DamageType(rec.DamageType),
			Amount:            rec.DamageAmount,
			ScalingStat:       rec.DamageScalingStat,
			ScalingMultiplier: rec.DamageScalingMultiplier,
		}
	}
	if rec.HasHeal {
		a.Heal = &model.HealSpec{
			Amount:            rec.HealAmount,
			ScalingStat:       rec.HealScalingStat,
			ScalingMultiplier: rec.HealScalingMultiplier,
		}
	}
	return a
}
