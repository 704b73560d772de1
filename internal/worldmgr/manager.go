// Package worldmgr implements the Distributed World Manager (§4.7): the
// dispatcher every zone server runs, one single-writer actor per owned
// zone (§5), translating bus envelopes and simulation ticks into zone
// mutations and gateway:output broadcasts.
package worldmgr

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/udisondev/la2go/internal/bus"
	"github.com/udisondev/la2go/internal/combat"
	"github.com/udisondev/la2go/internal/command"
	"github.com/udisondev/la2go/internal/model"
	"github.com/udisondev/la2go/internal/movement"
	"github.com/udisondev/la2go/internal/registry"
	"github.com/udisondev/la2go/internal/store"
	"github.com/udisondev/la2go/internal/zonemgr"
)

// Manager owns every zone this server is responsible for. It is the
// top-level object a zone-server process constructs once at startup.
type Manager struct {
	bus      bus.Bus
	registry *registry.Registry
	store    store.Store
	catalog  *combat.Catalog
	executor *command.Executor
	tickRate float64
	responder NpcResponder

	mu    sync.Mutex
	zones map[int32]*zoneActor
}

// New wires a world Manager. tickRate is in Hz (§6, 20 for zone servers,
// 10 for single-server mode).
func New(b bus.Bus, reg *registry.Registry, st store.Store, catalog *combat.Catalog, executor *command.Executor, tickRate float64) *Manager {
	return &Manager{
		bus: b, registry: reg, store: st, catalog: catalog, executor: executor,
		tickRate:  tickRate,
		responder: noopResponder{},
		zones:     make(map[int32]*zoneActor),
	}
}

// SetNpcResponder wires the LLM-backed NPC response generator (an
// external collaborator per the spec's Non-goals); without one, NPCs
// never speak on their own.
func (m *Manager) SetNpcResponder(r NpcResponder) {
	if r == nil {
		r = noopResponder{}
	}
	m.responder = r
}

// Start loads zoneIDs (or every zone in the store if zoneIDs is empty),
// creating and registering a Zone Manager actor for each (§4.7 "On
// start"). ctx governs the lifetime of every per-zone actor goroutine
// and bus subscription.
func (m *Manager) Start(ctx context.Context, zoneIDs []int32) error {
	if len(zoneIDs) == 0 {
		zones, err := m.store.Zones().All(ctx)
		if err != nil {
			return fmt.Errorf("loading all zones: %w", err)
		}
		for _, z := range zones {
			zoneIDs = append(zoneIDs, z.ID)
		}
	}

	for _, id := range zoneIDs {
		if err := m.loadZone(ctx, id); err != nil {
			return fmt.Errorf("loading zone %d: %w", id, err)
		}
	}
	return nil
}

func (m *Manager) loadZone(ctx context.Context, zoneID int32) error {
	entities := zonemgr.New(zoneID)

	companions, err := m.store.Companions().FindByZoneID(ctx, zoneID)
	if err != nil {
		return fmt.Errorf("loading companions: %w", err)
	}
	for _, c := range companions {
		entities.AddEntity(&model.Entity{
			ID:       c.ID,
			Name:     c.Name,
			Kind:     model.EntityCompanion,
			Position: model.Position{X: c.X, Y: c.Y, Z: c.Z},
		})
	}

	z := &zoneActor{
		zoneID:      zoneID,
		entities:    entities,
		combat:      combat.NewManager(),
		rosterCache: make(map[string]*model.ProximityRoster),
		inbox:       make(chan bus.Envelope, 256),
		mgr:         m,
	}
	z.pipeline = combat.NewPipeline(z.combat, m.catalog, m.store.Characters(), m.store.Companions())
	z.movement = movement.NewSystem(entities, z.persistPosition)

	unsub, err := m.bus.Subscribe(ctx, inputChannel(zoneID), func(env bus.Envelope) {
		select {
		case z.inbox <- env:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return fmt.Errorf("subscribing to zone %d input: %w", zoneID, err)
	}
	z.unsubscribe = unsub

	if err := m.registry.AssignZone(ctx, zoneID); err != nil {
		return fmt.Errorf("assigning zone %d: %w", zoneID, err)
	}

	m.mu.Lock()
	m.zones[zoneID] = z
	m.mu.Unlock()

	go z.run(ctx)
	return nil
}

// Stop unassigns every owned zone and tears down its subscription. The
// actor goroutines themselves exit when ctx is cancelled (§5 "process
// shutdown").
func (m *Manager) Stop(ctx context.Context) {
	m.mu.Lock()
	zones := make([]*zoneActor, 0, len(m.zones))
	for _, z := range m.zones {
		zones = append(zones, z)
	}
	m.mu.Unlock()

	for _, z := range zones {
		z.unsubscribe()
		if err := m.registry.UnassignZone(ctx, z.zoneID); err != nil {
			slog.Error("worldmgr: unassigning zone on shutdown failed", "zone", z.zoneID, "error", err)
		}
	}
}

// zoneActor is the single-writer actor for one zone (§5): its entity
// table, combat/movement subsystems, and roster cache are only ever
// touched from its own run loop.
type zoneActor struct {
	zoneID      int32
	entities    *zonemgr.Manager
	combat      *combat.Manager
	pipeline    *combat.Pipeline
	movement    *movement.System
	rosterCache map[string]*model.ProximityRoster

	inbox       chan bus.Envelope
	unsubscribe bus.Unsubscribe

	mgr *Manager
}

// run is the zone's single-writer actor loop (§5): a typed mailbox for
// incoming envelopes, serialized against a fixed-rate tick.
func (z *zoneActor) run(ctx context.Context) {
	interval := time.Duration(float64(time.Second) / z.mgr.tickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-z.inbox:
			z.handleEnvelope(ctx, env)
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			z.tick(ctx, now, dt)
		}
	}
}

// persistPosition writes id's new position through the store, routed by
// the entity's kind (§4.4's DB_PERSIST_INTERVAL hook).
func (z *zoneActor) persistPosition(ctx context.Context, entityID string, pos model.Position) error {
	e, ok := z.entities.GetEntity(entityID)
	if !ok {
		return nil
	}
	if e.Kind == model.EntityCompanion {
		return z.mgr.store.Companions().UpdatePosition(ctx, entityID, pos.X, pos.Y, pos.Z)
	}
	return z.mgr.store.Characters().UpdatePosition(ctx, entityID, pos.X, pos.Y, pos.Z)
}
