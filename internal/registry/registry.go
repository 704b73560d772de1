// Package registry implements the Zone Registry (§4.2): cluster
// membership, zone ownership, and player location, all maintained in the
// Message Bus's KV surface under server churn via heartbeats and TTL.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/udisondev/la2go/internal/bus"
	"github.com/udisondev/la2go/internal/constants"
	"github.com/udisondev/la2go/internal/model"
)

// Registry maintains this server's heartbeat and zone assignments, and
// answers cluster-wide lookups for any caller sharing the same bus.
type Registry struct {
	bus      bus.Bus
	serverID string
	host     string

	mu          sync.Mutex
	ownedZones  map[int32]struct{}
	stopHeartbeat func()
}

// New returns a Registry bound to one server identity.
func New(b bus.Bus, serverID, host string) *Registry {
	return &Registry{
		bus:        b,
		serverID:   serverID,
		host:       host,
		ownedZones: make(map[int32]struct{}),
	}
}

func heartbeatKey(serverID string) string { return "server:heartbeat:" + serverID }
func zoneAssignmentKey(zoneID int32) string { return fmt.Sprintf("zone:assignment:%d", zoneID) }
func playerLocationKey(characterID string) string { return "player:location:" + characterID }

// StartHeartbeat emits a heartbeat immediately then every `every` until
// ctx is cancelled or StopHeartbeat is called (§4.2,
// §5 "dedicated ticker, cancellable by the server-shutdown signal").
func (r *Registry) StartHeartbeat(ctx context.Context, every, ttl time.Duration) {
	hbCtx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	r.stopHeartbeat = cancel
	r.mu.Unlock()

	r.emitHeartbeat(hbCtx, ttl)

	ticker := time.NewTicker(every)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-hbCtx.Done():
				return
			case <-ticker.C:
				r.emitHeartbeat(hbCtx, ttl)
			}
		}
	}()
}

func (r *Registry) emitHeartbeat(ctx context.Context, ttl time.Duration) {
	if err := r.bus.SetEx(ctx, heartbeatKey(r.serverID), ttl, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		slog.Error("registry: heartbeat write failed", "server", r.serverID, "error", err)
	}
}

// StopHeartbeat cancels the running heartbeat ticker, if any.
func (r *Registry) StopHeartbeat() {
	r.mu.Lock()
	stop := r.stopHeartbeat
	r.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// AssignZone records this server as the owner of zoneID (§4.2).
func (r *Registry) AssignZone(ctx context.Context, zoneID int32) error {
	assignment := model.ZoneAssignment{
		ZoneID:      zoneID,
		ServerID:    r.serverID,
		HostAddress: r.host,
		AssignedAt:  time.Now().UTC(),
	}
	raw, err := json.Marshal(assignment)
	if err != nil {
		return fmt.Errorf("marshaling zone assignment: %w", err)
	}
	if err := r.bus.Set(ctx, zoneAssignmentKey(zoneID), string(raw)); err != nil {
		return fmt.Errorf("writing zone assignment %d: %w", zoneID, err)
	}
	r.mu.Lock()
	r.ownedZones[zoneID] = struct{}{}
	r.mu.Unlock()
	return nil
}

// UnassignZone removes this server's ownership record for zoneID
// (clean-shutdown path, §4.2).
func (r *Registry) UnassignZone(ctx context.Context, zoneID int32) error {
	r.mu.Lock()
	delete(r.ownedZones, zoneID)
	r.mu.Unlock()
	if err := r.bus.Del(ctx, zoneAssignmentKey(zoneID)); err != nil {
		return fmt.Errorf("deleting zone assignment %d: %w", zoneID, err)
	}
	return nil
}

// UnassignAll unassigns every zone this server currently owns — the
// shutdown path (§5 "unassign owned zones").
func (r *Registry) UnassignAll(ctx context.Context) {
	r.mu.Lock()
	zones := make([]int32, 0, len(r.ownedZones))
	for z := range r.ownedZones {
		zones = append(zones, z)
	}
	r.mu.Unlock()

	for _, z := range zones {
		if err := r.UnassignZone(ctx, z); err != nil {
			slog.Error("registry: unassign on shutdown failed", "zone", z, "error", err)
		}
	}
}

// GetZoneAssignment looks up the current owner of zoneID. Returns
// ok=false if no assignment key exists.
func (r *Registry) GetZoneAssignment(ctx context.Context, zoneID int32) (model.ZoneAssignment, bool, error) {
	raw, ok, err := r.bus.Get(ctx, zoneAssignmentKey(zoneID))
	if err != nil || !ok {
		return model.ZoneAssignment{}, false, err
	}
	var assignment model.ZoneAssignment
	if err := json.Unmarshal([]byte(raw), &assignment); err != nil {
		return model.ZoneAssignment{}, false, fmt.Errorf("decoding zone assignment %d: %w", zoneID, err)
	}
	return assignment, true, nil
}

// GetAllZoneAssignments scans every zone:assignment:* key (§4.2).
func (r *Registry) GetAllZoneAssignments(ctx context.Context) ([]model.ZoneAssignment, error) {
	keys, err := r.bus.Keys(ctx, "zone:assignment:*")
	if err != nil {
		return nil, fmt.Errorf("scanning zone assignments: %w", err)
	}
	out := make([]model.ZoneAssignment, 0, len(keys))
	for _, key := range keys {
		raw, ok, err := r.bus.Get(ctx, key)
		if err != nil || !ok {
			continue
		}
		var assignment model.ZoneAssignment
		if err := json.Unmarshal([]byte(raw), &assignment); err != nil {
			slog.Warn("registry: skipping undecodable zone assignment", "key", key, "error", err)
			continue
		}
		out = append(out, assignment)
	}
	return out, nil
}

// GetActiveServers returns the server ids with a live heartbeat.
func (r *Registry) GetActiveServers(ctx context.Context) ([]string, error) {
	keys, err := r.bus.Keys(ctx, "server:heartbeat:*")
	if err != nil {
		return nil, fmt.Errorf("scanning heartbeats: %w", err)
	}
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		out = append(out, strings.TrimPrefix(key, "server:heartbeat:"))
	}
	return out, nil
}

// IsServerAlive checks heartbeat key existence (§4.2). Consumers MUST
// call this before trusting a zone assignment's freshness — the
// assignment key itself has no TTL and can outlive its owner (§4.2).
func (r *Registry) IsServerAlive(ctx context.Context, serverID string) (bool, error) {
	ok, err := r.bus.Exists(ctx, heartbeatKey(serverID))
	if err != nil {
		return false, fmt.Errorf("checking heartbeat for %s: %w", serverID, err)
	}
	return ok, nil
}

// UpdatePlayerLocation writes/refreshes a character's location with TTL
// constants.PlayerLocationTTL (§4.2, §6).
func (r *Registry) UpdatePlayerLocation(ctx context.Context, characterID string, zoneID int32, socketHandle string) error {
	loc := model.PlayerLocation{
		CharacterID:  characterID,
		ZoneID:       zoneID,
		SocketHandle: socketHandle,
		ServerID:     r.serverID,
		LastUpdate:   time.Now().UTC(),
	}
	raw, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("marshaling player location: %w", err)
	}
	if err := r.bus.SetEx(ctx, playerLocationKey(characterID), constants.PlayerLocationTTL, string(raw)); err != nil {
		return fmt.Errorf("writing player location %s: %w", characterID, err)
	}
	return nil
}

// GetPlayerLocation looks up a character's last known location.
func (r *Registry) GetPlayerLocation(ctx context.Context, characterID string) (model.PlayerLocation, bool, error) {
	raw, ok, err := r.bus.Get(ctx, playerLocationKey(characterID))
	if err != nil || !ok {
		return model.PlayerLocation{}, false, err
	}
	var loc model.PlayerLocation
	if err := json.Unmarshal([]byte(raw), &loc); err != nil {
		return model.PlayerLocation{}, false, fmt.Errorf("decoding player location %s: %w", characterID, err)
	}
	return loc, true, nil
}

// RemovePlayer deletes a character's location entry (disconnect / zone
// leave, §4.7).
func (r *Registry) RemovePlayer(ctx context.Context, characterID string) error {
	if err := r.bus.Del(ctx, playerLocationKey(characterID)); err != nil {
		return fmt.Errorf("removing player location %s: %w", characterID, err)
	}
	return nil
}
