package store

import (
	"context"
	"testing"
)

func TestMemCharacterRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMem()

	c := &Character{ID: "char-1", Name: "Alice", ZoneID: 1, CurrentHealth: 100, MaxHealth: 100}
	if err := m.Characters().Create(ctx, c); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := m.Characters().FindByName(ctx, "alice")
	if err != nil || got == nil || got.ID != "char-1" {
		t.Fatalf("FindByName = %+v, %v", got, err)
	}

	if err := m.Characters().UpdatePosition(ctx, "char-1", 1, 2, 3); err != nil {
		t.Fatalf("UpdatePosition: %v", err)
	}
	got, _ = m.Characters().Get(ctx, "char-1")
	if got.X != 1 || got.Y != 2 || got.Z != 3 {
		t.Errorf("position not updated: %+v", got)
	}

	if err := m.Characters().UpdateHealth(ctx, "char-1", 42); err != nil {
		t.Fatalf("UpdateHealth: %v", err)
	}
	got, _ = m.Characters().Get(ctx, "char-1")
	if got.CurrentHealth != 42 {
		t.Errorf("health not updated: %+v", got)
	}
}

func TestMemAbilityFallbackLookup(t *testing.T) {
	ctx := context.Background()
	m := NewMem()
	m.SeedAbility(AbilityRecord{ID: "fireball", Name: "Fireball"})

	if _, err := m.Abilities().Get(ctx, "unknown"); err != nil {
		t.Fatalf("Get for missing id should not error: %v", err)
	}
	got, _ := m.Abilities().Get(ctx, "unknown")
	if got != nil {
		t.Errorf("Get for missing id = %+v, want nil", got)
	}

	found, err := m.Abilities().FindByName(ctx, "FIREBALL")
	if err != nil || found == nil || found.ID != "fireball" {
		t.Fatalf("FindByName case-insensitive = %+v, %v", found, err)
	}
}

func TestMemZoneFindByZoneID(t *testing.T) {
	ctx := context.Background()
	m := NewMem()
	m.SeedCharacter(Character{ID: "a", ZoneID: 1, Name: "A"})
	m.SeedCharacter(Character{ID: "b", ZoneID: 2, Name: "B"})

	chars, err := m.Characters().FindByZoneID(ctx, 1)
	if err != nil || len(chars) != 1 || chars[0].ID != "a" {
		t.Fatalf("FindByZoneID = %+v, %v", chars, err)
	}
}
