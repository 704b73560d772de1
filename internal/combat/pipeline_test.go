package combat

import (
	"context"
	"testing"
	"time"

	"github.com/udisondev/la2go/internal/model"
	"github.com/udisondev/la2go/internal/store"
)

func newTestPipeline(mem *store.Mem) *Pipeline {
	return NewPipeline(NewManager(), NewCatalog(mem.Abilities()), mem.Characters(), mem.Companions())
}

func TestPipelineOutOfRangeAborts(t *testing.T) {
	mem := store.NewMem()
	mem.SeedCharacter(store.Character{ID: "atk", Name: "Attacker", CurrentHealth: 100, MaxHealth: 100})
	mem.SeedCharacter(store.Character{ID: "tgt", Name: "Target", CurrentHealth: 100, MaxHealth: 100})
	p := newTestPipeline(mem)

	attacker := &model.Entity{ID: "atk", Kind: model.EntityPlayer, Position: model.Position{}}
	target := &model.Entity{ID: "tgt", Kind: model.EntityPlayer, Position: model.Position{Y: 1000}}

	events, err := p.Execute(context.Background(), attacker, target, model.BasicAttackID, time.Now())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(events) != 1 || events[0].Kind != EventCombatError || events[0].Payload["reason"] != string(ReasonOutOfRange) {
		t.Fatalf("events = %+v, want single out_of_range combat_error", events)
	}
}

func TestPipelineAtbLowAborts(t *testing.T) {
	mem := store.NewMem()
	mem.SeedCharacter(store.Character{ID: "atk", Name: "Attacker", CurrentHealth: 100, MaxHealth: 100})
	mem.SeedCharacter(store.Character{ID: "tgt", Name: "Target", CurrentHealth: 100, MaxHealth: 100})
	p := newTestPipeline(mem)

	attacker := &model.Entity{ID: "atk", Kind: model.EntityPlayer}
	target := &model.Entity{ID: "tgt", Kind: model.EntityPlayer, Position: model.Position{Y: 1}}

	events, err := p.Execute(context.Background(), attacker, target, model.BasicAttackID, time.Now())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(events) != 1 || events[0].Payload["reason"] != string(ReasonAtbLow) {
		t.Fatalf("events = %+v, want single atb_low combat_error (fresh combatant starts at 0 ATB)", events)
	}
}

func TestPipelineHitFlowEmitsStartActionAndHitOrMiss(t *testing.T) {
	mem := store.NewMem()
	mem.SeedCharacter(store.Character{ID: "atk", Name: "Attacker", CurrentHealth: 100, MaxHealth: 100, CoreStats: map[string]float64{"strength": 1000}})
	mem.SeedCharacter(store.Character{ID: "tgt", Name: "Target", CurrentHealth: 100, MaxHealth: 100})
	p := newTestPipeline(mem)
	p.combat.AddAtb("atk", 100)

	attacker := &model.Entity{ID: "atk", Kind: model.EntityPlayer}
	target := &model.Entity{ID: "tgt", Kind: model.EntityPlayer, Position: model.Position{Y: 1}}

	events, err := p.Execute(context.Background(), attacker, target, model.BasicAttackID, time.Now())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var kinds []string
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	if kinds[0] != EventCombatStart {
		t.Fatalf("kinds = %v, want combat_start first", kinds)
	}
	if kinds[1] != EventCombatAction {
		t.Fatalf("kinds = %v, want combat_action second", kinds)
	}
	last := kinds[len(kinds)-1]
	if last != EventCombatMiss && last != EventCombatHit && last != EventCombatDeath {
		t.Fatalf("kinds = %v, want a miss/hit/death tail", kinds)
	}
	if p.combat.Atb("atk") != 0 {
		t.Errorf("Atb after spend = %v, want 0", p.combat.Atb("atk"))
	}
}

func TestPipelineResourceCheckBlocksInsufficientHealth(t *testing.T) {
	mem := store.NewMem()
	mem.SeedAbility(store.AbilityRecord{ID: "suicide", Name: "Suicide", TargetType: "self", HealthCost: 1000})
	mem.SeedCharacter(store.Character{ID: "atk", Name: "Attacker", CurrentHealth: 10, MaxHealth: 100})
	p := newTestPipeline(mem)
	p.combat.AddAtb("atk", 200)

	attacker := &model.Entity{ID: "atk", Kind: model.EntityPlayer}

	events, err := p.Execute(context.Background(), attacker, attacker, "suicide", time.Now())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(events) != 1 || events[0].Payload["reason"] != string(ReasonInsufficientResources) {
		t.Fatalf("events = %+v, want insufficient_resources", events)
	}
}
