// Package zonemgr implements the per-zone Zone Manager (§4.3): the
// entity table, position updates, spatial queries, and proximity roster
// computation for one zone. A Manager is owned by exactly one zone's
// single-writer actor (§5) — it is not safe to call from multiple
// goroutines concurrently.
package zonemgr

import (
	"sort"
	"strings"
	"time"

	"github.com/udisondev/la2go/internal/constants"
	"github.com/udisondev/la2go/internal/model"
)

// Manager owns one zone's entity table and spatial queries.
type Manager struct {
	zoneID   int32
	entities map[string]*model.Entity

	lastSpeaker map[string]speakerRecord // listenerID -> last speaker heard
}

type speakerRecord struct {
	name string
	at   time.Time
}

// New returns an empty Manager for one zone.
func New(zoneID int32) *Manager {
	return &Manager{
		zoneID:      zoneID,
		entities:    make(map[string]*model.Entity),
		lastSpeaker: make(map[string]speakerRecord),
	}
}

// ZoneID returns the id of the zone this manager owns.
func (m *Manager) ZoneID() int32 { return m.zoneID }

// AddPlayer inserts a player-kind entity. Overwrites silently if id is
// already present (§4.3).
func (m *Manager) AddPlayer(character *model.Entity, socketHandle string, isMachine bool) {
	e := *character
	e.Kind = model.EntityPlayer
	e.SocketHandle = socketHandle
	e.IsMachine = isMachine
	m.entities[e.ID] = &e
}

// AddEntity inserts any kind of entity (NPC/companion) directly — used
// on zone-init for NPC spawns.
func (m *Manager) AddEntity(e *model.Entity) {
	cp := *e
	m.entities[cp.ID] = &cp
}

// RemovePlayer removes an entity from the table (zone-leave, §3).
func (m *Manager) RemovePlayer(id string) {
	delete(m.entities, id)
	delete(m.lastSpeaker, id)
}

// UpdatePosition moves an entity, if present.
func (m *Manager) UpdatePosition(id string, pos model.Position) {
	if e, ok := m.entities[id]; ok {
		e.Position = pos
	}
}

// SetEntityCombatState sets an entity's in-combat flag.
func (m *Manager) SetEntityCombatState(id string, inCombat bool) {
	if e, ok := m.entities[id]; ok {
		e.InCombat = inCombat
	}
}

// SetCompanionSocketID binds or releases a remote controller to/from a
// companion entity (§4.3, "inhabit").
func (m *Manager) SetCompanionSocketID(companionID string, handle string) {
	if e, ok := m.entities[companionID]; ok {
		e.SocketHandle = handle
	}
}

// GetEntity returns an entity by id.
func (m *Manager) GetEntity(id string) (*model.Entity, bool) {
	e, ok := m.entities[id]
	return e, ok
}

// FindEntityByName does a case-insensitive exact-match lookup.
func (m *Manager) FindEntityByName(name string) (*model.Entity, bool) {
	for _, e := range m.entities {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return nil, false
}

// AllEntities returns every resident entity. Callers must not retain the
// returned slice across a tick — it aliases the manager's live entities.
func (m *Manager) AllEntities() []*model.Entity {
	out := make([]*model.Entity, 0, len(m.entities))
	for _, e := range m.entities {
		out = append(out, e)
	}
	return out
}

// spatialHit is one entity found within range, with its distance
// pre-computed for sorting (§4.3 "Spatial query algorithm").
type spatialHit struct {
	entity   *model.Entity
	distance float64
}

// queryRange returns every entity (excluding excludeID, if non-empty)
// within rangeMeters of origin, sorted ascending by distance. This is
// the naive O(N)-per-query baseline the spec explicitly allows (§4.3);
// a grid or KD-tree may replace it so long as inclusion and ordering are
// preserved.
func (m *Manager) queryRange(origin model.Position, rangeMeters float64, excludeID string) []spatialHit {
	hits := make([]spatialHit, 0, len(m.entities))
	for _, e := range m.entities {
		if e.ID == excludeID {
			continue
		}
		d := origin.DistanceTo(e.Position)
		if d <= rangeMeters {
			hits = append(hits, spatialHit{entity: e, distance: d})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].distance < hits[j].distance })
	return hits
}

// GetPlayerSocketIDsInRange returns the socket handles of player-kind
// entities within range of origin, for broadcast fan-out (§4.3).
func (m *Manager) GetPlayerSocketIDsInRange(origin model.Position, rangeMeters float64, excludeID string) []string {
	var out []string
	for _, hit := range m.queryRange(origin, rangeMeters, excludeID) {
		if hit.entity.Kind == model.EntityPlayer && hit.entity.HasSocket() {
			out = append(out, hit.entity.SocketHandle)
		}
	}
	return out
}

// GetCompanionSocketIDsInRange returns the socket handles of inhabited
// companions within range of origin (§4.3).
func (m *Manager) GetCompanionSocketIDsInRange(origin model.Position, rangeMeters float64, excludeID string) []string {
	var out []string
	for _, hit := range m.queryRange(origin, rangeMeters, excludeID) {
		if hit.entity.Kind == model.EntityCompanion && hit.entity.HasSocket() {
			out = append(out, hit.entity.SocketHandle)
		}
	}
	return out
}

// EntitiesInRange returns every entity within range of origin, excluding
// excludeID, for callers that need more than socket handles (e.g. NPC-AI
// triggering on chat, §4.7 PLAYER_CHAT).
func (m *Manager) EntitiesInRange(origin model.Position, rangeMeters float64, excludeID string) []*model.Entity {
	hits := m.queryRange(origin, rangeMeters, excludeID)
	out := make([]*model.Entity, 0, len(hits))
	for _, hit := range hits {
		out = append(out, hit.entity)
	}
	return out
}

// RecordLastSpeaker remembers that speakerName last spoke to listenerID,
// for up to constants.LastSpeakerMemory (§3, §9 "purge-on-read" instead
// of a timer).
func (m *Manager) RecordLastSpeaker(listenerID, speakerName string) {
	m.lastSpeaker[listenerID] = speakerRecord{name: speakerName, at: time.Now()}
}

// recentSpeaker returns the name of whoever last spoke to listenerID
// within constants.LastSpeakerMemory, purging stale entries on read.
func (m *Manager) recentSpeaker(listenerID string) (string, bool) {
	rec, ok := m.lastSpeaker[listenerID]
	if !ok {
		return "", false
	}
	if time.Since(rec.at) > constants.LastSpeakerMemory {
		delete(m.lastSpeaker, listenerID)
		return "", false
	}
	return rec.name, true
}
