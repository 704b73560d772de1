package zonemgr

import (
	"encoding/json"
	"testing"

	"github.com/udisondev/la2go/internal/constants"
	"github.com/udisondev/la2go/internal/model"
)

func entityAt(id, name string, x, y, z float64) *model.Entity {
	return &model.Entity{ID: id, Name: name, Kind: model.EntityPlayer, Position: model.Position{X: x, Y: y, Z: z}}
}

// TestRosterJoin is scenario S1: A at origin, B joins at (5,0,0).
func TestRosterJoin(t *testing.T) {
	m := New(1)
	m.AddPlayer(entityAt("A", "A", 0, 0, 0), "sock-a", false)

	first := m.CalculateProximityRoster("A")

	m.AddPlayer(entityAt("B", "B", 5, 0, 0), "sock-b", false)

	delta, roster := m.CalculateProximityRosterDelta("A", first)
	if delta == nil {
		t.Fatalf("expected a delta after B joined")
	}

	sayDelta, ok := delta.Channels[constants.ChannelSay]
	if !ok {
		t.Fatalf("expected say channel change, got %+v", delta.Channels)
	}
	if len(sayDelta.Added) != 1 || sayDelta.Added[0].ID != "B" {
		t.Fatalf("say added = %+v, want [B]", sayDelta.Added)
	}
	if sayDelta.Added[0].Bearing != 90 {
		t.Errorf("bearing = %d, want 90 (east)", sayDelta.Added[0].Bearing)
	}
	if sayDelta.Added[0].Range != 5.00 {
		t.Errorf("range = %v, want 5.00", sayDelta.Added[0].Range)
	}
	if sayDelta.Count == nil || *sayDelta.Count != 1 {
		t.Errorf("count = %v, want 1", sayDelta.Count)
	}
	if !sayDelta.HasSample || len(sayDelta.Sample) != 1 || sayDelta.Sample[0] != "B" {
		t.Errorf("sample = %v, want [B]", sayDelta.Sample)
	}

	if touchDelta, changed := delta.Channels[constants.ChannelTouch]; changed {
		t.Errorf("touch channel should be unchanged (5m > 1.524m), got %+v", touchDelta)
	}

	if roster.Channels[constants.ChannelSay].Count != 1 {
		t.Errorf("roster say count = %d, want 1", roster.Channels[constants.ChannelSay].Count)
	}
}

// TestRosterMoveOut is scenario S2: B moves from 5m to 7m.
func TestRosterMoveOut(t *testing.T) {
	m := New(1)
	m.AddPlayer(entityAt("A", "A", 0, 0, 0), "sock-a", false)
	m.AddPlayer(entityAt("B", "B", 5, 0, 0), "sock-b", false)

	prev := m.CalculateProximityRoster("A")

	m.UpdatePosition("B", model.Position{X: 7, Y: 0, Z: 0})

	delta, roster := m.CalculateProximityRosterDelta("A", prev)
	if delta == nil {
		t.Fatalf("expected a delta after B moved out of say range")
	}

	sayDelta := delta.Channels[constants.ChannelSay]
	if len(sayDelta.Removed) != 1 || sayDelta.Removed[0] != "B" {
		t.Fatalf("say removed = %v, want [B]", sayDelta.Removed)
	}
	if sayDelta.Count == nil || *sayDelta.Count != 0 {
		t.Errorf("say count = %v, want 0", sayDelta.Count)
	}

	shoutChannel := roster.Channels[constants.ChannelShout]
	if shoutChannel.Count != 1 || shoutChannel.Entities[0].Range != 7.00 {
		t.Errorf("shout channel = %+v, want B at range 7.00", shoutChannel)
	}
}

func TestRosterBoundaryZeroEntities(t *testing.T) {
	m := New(1)
	m.AddPlayer(entityAt("A", "A", 0, 0, 0), "sock-a", false)

	roster := m.CalculateProximityRoster("A")
	ch := roster.Channels[constants.ChannelTouch]
	if ch.Count != 0 || ch.HasSample || len(ch.Entities) != 0 {
		t.Errorf("empty channel = %+v, want count 0, no sample, empty entities", ch)
	}
}

func TestRosterSampleBoundary(t *testing.T) {
	m := New(1)
	m.AddPlayer(entityAt("A", "A", 0, 0, 0), "sock-a", false)
	for i, name := range []string{"B", "C", "D"} {
		m.AddPlayer(entityAt(name, name, float64(i+1), 0, 0), "sock-"+name, false)
	}

	roster := m.CalculateProximityRoster("A")
	ch := roster.Channels[constants.ChannelSay]
	if ch.Count != 3 || !ch.HasSample {
		t.Fatalf("3 entities should have a sample: %+v", ch)
	}

	m.AddPlayer(entityAt("E", "E", 4, 0, 0), "sock-e", false)
	roster = m.CalculateProximityRoster("A")
	ch = roster.Channels[constants.ChannelSay]
	if ch.Count != 4 || ch.HasSample {
		t.Fatalf("4 entities should NOT have a sample: %+v", ch)
	}
}

func TestRosterExactRangeIsIncluded(t *testing.T) {
	m := New(1)
	m.AddPlayer(entityAt("A", "A", 0, 0, 0), "sock-a", false)
	m.AddPlayer(entityAt("B", "B", constants.RangeTouch, 0, 0), "sock-b", false)

	roster := m.CalculateProximityRoster("A")
	if roster.Channels[constants.ChannelTouch].Count != 1 {
		t.Errorf("entity at exactly touch range should be included")
	}
}

func TestRosterLastSpeaker(t *testing.T) {
	m := New(1)
	m.AddPlayer(entityAt("A", "A", 0, 0, 0), "sock-a", false)
	m.AddPlayer(entityAt("B", "B", 1, 0, 0), "sock-b", false)

	m.RecordLastSpeaker("A", "B")
	roster := m.CalculateProximityRoster("A")
	ch := roster.Channels[constants.ChannelSay]
	if !ch.HasLastSpeaker || ch.LastSpeaker != "B" {
		t.Errorf("lastSpeaker = %+v, want B", ch)
	}
}

func TestDeltaAppliedReproducesRoster(t *testing.T) {
	m := New(1)
	m.AddPlayer(entityAt("A", "A", 0, 0, 0), "sock-a", false)

	delta1, roster1 := m.CalculateProximityRosterDelta("A", nil)
	applied1 := model.ApplyDelta(nil, delta1)
	assertRosterEqual(t, roster1, applied1)

	m.AddPlayer(entityAt("B", "B", 5, 0, 0), "sock-b", false)
	delta2, roster2 := m.CalculateProximityRosterDelta("A", roster1)
	applied2 := model.ApplyDelta(applied1, delta2)
	assertRosterEqual(t, roster2, applied2)

	m.UpdatePosition("B", model.Position{X: 7, Y: 0, Z: 0})
	delta3, roster3 := m.CalculateProximityRosterDelta("A", roster2)
	applied3 := model.ApplyDelta(applied2, delta3)
	assertRosterEqual(t, roster3, applied3)
}

func assertRosterEqual(t *testing.T, want, got *model.ProximityRoster) {
	t.Helper()
	wantJSON, _ := json.Marshal(normalizeRoster(want))
	gotJSON, _ := json.Marshal(normalizeRoster(got))
	if string(wantJSON) != string(gotJSON) {
		t.Errorf("roster mismatch:\nwant=%s\ngot =%s", wantJSON, gotJSON)
	}
}

// normalizeRoster produces a stable, order-independent representation for
// JSON comparison (entity order within a channel is not semantically
// meaningful for this invariant, but ranges/ids/counts are).
func normalizeRoster(r *model.ProximityRoster) map[string]any {
	out := map[string]any{"danger": r.DangerState, "channels": map[string]any{}}
	channels := out["channels"].(map[string]any)
	for name, ch := range r.Channels {
		entities := map[string]model.RosterEntity{}
		for _, e := range ch.Entities {
			entities[e.ID] = e
		}
		channels[string(name)] = map[string]any{
			"entities":    entities,
			"count":       ch.Count,
			"sample":      ch.Sample,
			"hasSample":   ch.HasSample,
			"lastSpeaker": ch.LastSpeaker,
			"hasLS":       ch.HasLastSpeaker,
		}
	}
	return out
}
