package combat

import (
	"context"
	"fmt"
	"time"

	"github.com/udisondev/la2go/internal/model"
	"github.com/udisondev/la2go/internal/store"
)

// Event is one semantic combat event produced by the pipeline (§4.8).
// The handler layer is pure-ish: it never touches the network directly
// — the orchestrator (§4.7) translates these into gateway:output
// broadcasts.
type Event struct {
	Kind    string
	Payload map[string]any
}

const (
	EventCombatError  = "combat_error"
	EventCombatStart  = "combat_start"
	EventCombatAction = "combat_action"
	EventCombatMiss   = "combat_miss"
	EventCombatHit    = "combat_hit"
	EventCombatDeath  = "combat_death"
)

// ErrorReason is one of §4.8's abort reasons.
type ErrorReason string

const (
	ReasonOutOfRange           ErrorReason = "out_of_range"
	ReasonCooldown             ErrorReason = "cooldown"
	ReasonAtbLow               ErrorReason = "atb_low"
	ReasonInsufficientResources ErrorReason = "insufficient_resources"
)

// Pipeline runs the ability→validate→spend→roll→mitigate→broadcast
// sequence of §4.8. Like the other zone-owned managers, it is called
// only from the owning zone's single-writer actor.
type Pipeline struct {
	combat     *Manager
	catalog    *Catalog
	characters store.CharacterRepository
	companions store.CompanionRepository
}

// NewPipeline wires a combat Manager, ability Catalog, and the
// character/companion repositories needed to load and pay resource
// costs (§4.8 step 1, step 6).
func NewPipeline(combat *Manager, catalog *Catalog, characters store.CharacterRepository, companions store.CompanionRepository) *Pipeline {
	return &Pipeline{combat: combat, catalog: catalog, characters: characters, companions: companions}
}

// Execute runs one combat action from attacker against target using the
// ability resolved from abilityID (§4.8). attacker/target position and
// kind come from the zone's entity table; resource snapshots are loaded
// from the store here.
func (p *Pipeline) Execute(ctx context.Context, attacker, target *model.Entity, abilityID string, now time.Time) ([]Event, error) {
	ability, err := p.catalog.ResolveByID(ctx, abilityID)
	if err != nil {
		return nil, fmt.Errorf("resolving ability: %w", err)
	}

	attackerSnap, err := p.loadSnapshot(ctx, attacker)
	if err != nil {
		return nil, fmt.Errorf("loading attacker snapshot: %w", err)
	}
	targetSnap := attackerSnap
	if ability.TargetType != model.TargetSelf {
		targetSnap, err = p.loadSnapshot(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("loading target snapshot: %w", err)
		}
	}

	// Step 2: range check.
	if ability.TargetType != model.TargetSelf && attacker.Position.DistanceTo(target.Position) > ability.Range {
		return []Event{combatError(ReasonOutOfRange)}, nil
	}

	// Step 3: cooldown check.
	if p.combat.GetCooldownRemaining(attacker.ID, ability.ID, now) > 0 {
		return []Event{combatError(ReasonCooldown)}, nil
	}

	// Step 4: ATB check.
	if !ability.IsFree && !p.combat.CanSpendAtb(attacker.ID, ability.AtbCost) {
		return []Event{combatError(ReasonAtbLow)}, nil
	}

	// Step 5: resource check.
	if ability.HealthCost >= attackerSnap.CurrentHealth ||
		attackerSnap.CurrentStamina < ability.StaminaCost ||
		attackerSnap.CurrentMana < ability.ManaCost {
		return []Event{combatError(ReasonInsufficientResources)}, nil
	}

	var events []Event

	// Step 6: pay costs, set cooldown, record hostile action, start combat.
	if err := p.payCosts(ctx, attacker, &attackerSnap, ability); err != nil {
		return nil, fmt.Errorf("paying ability costs: %w", err)
	}
	if !ability.IsFree {
		p.combat.SpendAtb(attacker.ID, ability.AtbCost)
		if ability.IsBuilder {
			p.combat.AddAtb(attacker.ID, ability.AtbCost)
		}
	}
	p.combat.SetCooldown(attacker.ID, ability.ID, ability.Cooldown*1000, now)

	p.combat.RecordHostileAction(attacker.ID, now)
	attackerTransitioned := p.combat.StartCombat(attacker.ID, now)
	targetTransitioned := false
	if ability.TargetType != model.TargetSelf {
		p.combat.RecordHostileAction(target.ID, now)
		targetTransitioned = p.combat.StartCombat(target.ID, now)
	}
	if attackerTransitioned || targetTransitioned {
		events = append(events, Event{Kind: EventCombatStart, Payload: map[string]any{
			"attackerId": attacker.ID, "targetId": target.ID,
		}})
	}

	// Step 7.
	events = append(events, Event{Kind: EventCombatAction, Payload: map[string]any{
		"attackerId": attacker.ID, "targetId": target.ID, "abilityId": ability.ID, "abilityName": ability.Name,
	}})

	// Step 8.
	if ability.Damage != nil {
		scaling := attackerSnap.Stats.CoreStats[ability.Damage.ScalingStat]
		result := CalculateDamage(ability, attackerSnap.Stats, targetSnap.Stats, scaling)

		if !result.Hit {
			events = append(events, Event{Kind: EventCombatMiss, Payload: map[string]any{
				"attackerId": attacker.ID, "targetId": target.ID,
			}})
			return events, nil
		}

		newHealth := targetSnap.CurrentHealth - result.Amount
		if newHealth < 0 {
			newHealth = 0
		}
		if err := p.persistHealth(ctx, target, newHealth); err != nil {
			return nil, fmt.Errorf("persisting target health: %w", err)
		}

		events = append(events, Event{Kind: EventCombatHit, Payload: map[string]any{
			"attackerId": attacker.ID, "targetId": target.ID,
			"outcome": string(result.Outcome), "amount": result.Amount,
			"baseDamage": result.BaseDamage, "mitigatedDamage": result.MitigatedDamage,
		}})

		if newHealth == 0 {
			events = append(events, Event{Kind: EventCombatDeath, Payload: map[string]any{
				"attackerId": attacker.ID, "targetId": target.ID,
			}})
		}
	}

	return events, nil
}

func combatError(reason ErrorReason) Event {
	return Event{Kind: EventCombatError, Payload: map[string]any{"reason": string(reason)}}
}

func (p *Pipeline) loadSnapshot(ctx context.Context, e *model.Entity) (model.CombatSnapshot, error) {
	if e.Kind == model.EntityCompanion {
		c, err := p.companions.Get(ctx, e.ID)
		if err != nil {
			return model.CombatSnapshot{}, err
		}
		if c == nil {
			return model.CombatSnapshot{EntityID: e.ID, Stats: DeriveCombatStats(nil, 1)}, nil
		}
		return model.CombatSnapshot{
			EntityID: e.ID, Stats: DeriveCombatStats(c.CoreStats, 1),
			CurrentHealth: c.CurrentHealth, MaxHealth: c.MaxHealth,
		}, nil
	}

	c, err := p.characters.Get(ctx, e.ID)
	if err != nil {
		return model.CombatSnapshot{}, err
	}
	if c == nil {
		return model.CombatSnapshot{EntityID: e.ID, Stats: DeriveCombatStats(nil, 1)}, nil
	}
	return model.CombatSnapshot{
		EntityID: e.ID, Stats: DeriveCombatStats(c.CoreStats, c.Level),
		CurrentHealth: c.CurrentHealth, MaxHealth: c.MaxHealth,
		CurrentStamina: c.CurrentStamina, CurrentMana: c.CurrentMana,
	}, nil
}

func (p *Pipeline) payCosts(ctx context.Context, e *model.Entity, snap *model.CombatSnapshot, ability model.Ability) error {
	snap.CurrentHealth -= ability.HealthCost
	snap.CurrentStamina -= ability.StaminaCost
	snap.CurrentMana -= ability.ManaCost

	res := store.Resources{CurrentHealth: snap.CurrentHealth, CurrentStamina: snap.CurrentStamina, CurrentMana: snap.CurrentMana}
	if e.Kind == model.EntityCompanion {
		return p.companions.UpdateResources(ctx, e.ID, res)
	}
	return p.characters.UpdateResources(ctx, e.ID, res)
}

func (p *Pipeline) persistHealth(ctx context.Context, e *model.Entity, health float64) error {
	if e.Kind == model.EntityCompanion {
		return p.companions.UpdateHealth(ctx, e.ID, health)
	}
	return p.characters.UpdateHealth(ctx, e.ID, health)
}
