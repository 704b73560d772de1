package combat

import (
	"context"
	"testing"

	"github.com/udisondev/la2go/internal/model"
	"github.com/udisondev/la2go/internal/store"
)

func TestResolveByIDFallsBackToBasicAttack(t *testing.T) {
	mem := store.NewMem()
	cat := NewCatalog(mem.Abilities())

	a, err := cat.ResolveByID(context.Background(), "does-not-exist")
	if err != nil {
		t.Fatalf("ResolveByID: %v", err)
	}
	if a.ID != model.BasicAttackID {
		t.Errorf("ResolveByID fallback = %+v, want basic_attack", a)
	}
}

func TestResolveByIDFindsStoredAbility(t *testing.T) {
	mem := store.NewMem()
	mem.SeedAbility(store.AbilityRecord{
		ID: "fireball", Name: "Fireball", TargetType: "enemy", Range: 10, AtbCost: 80,
		HasDamage: true, DamageType: "magic", DamageScalingStat: "intellect", DamageScalingMultiplier: 2,
	})
	cat := NewCatalog(mem.Abilities())

	a, err := cat.ResolveByID(context.Background(), "fireball")
	if err != nil {
		t.Fatalf("ResolveByID: %v", err)
	}
	if a.Name != "Fireball" || a.Damage == nil || a.Damage.Type != model.DamageMagic {
		t.Errorf("ResolveByID = %+v", a)
	}
}

func TestResolveByNameFailsWhenUnknown(t *testing.T) {
	mem := store.NewMem()
	cat := NewCatalog(mem.Abilities())

	if _, err := cat.ResolveByName(context.Background(), "nonexistent"); err == nil {
		t.Errorf("ResolveByName should fail for unknown ability, not fall back")
	}
}
