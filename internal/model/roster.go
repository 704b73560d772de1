package model

import "github.com/udisondev/la2go/internal/constants"

// RosterEntity is one observed entity within a proximity channel (§3).
type RosterEntity struct {
	ID        string
	Name      string
	Kind      EntityKind
	Bearing   int     // degrees, 0-359, 0=north
	Elevation int     // degrees, -90..+90
	Range     float64 // metres, 2-decimal rounded
}

// ProximityChannel is one band's view for a single observer (§3).
type ProximityChannel struct {
	Entities []RosterEntity
	Count    int

	// Sample and LastSpeaker are populated iff Count is in
	// [constants.SampleCountMin, constants.SampleCountMax] (invariant e).
	Sample      []string
	LastSpeaker string
	HasSample      bool
	HasLastSpeaker bool
}

// ProximityRoster is the full seven-band view around one observer (§3).
type ProximityRoster struct {
	Channels    map[constants.ChannelName]ProximityChannel
	DangerState bool
}

// NewProximityRoster returns an empty roster with all seven channels
// present (possibly empty).
func NewProximityRoster() *ProximityRoster {
	r := &ProximityRoster{Channels: make(map[constants.ChannelName]ProximityChannel, len(constants.Channels))}
	for _, c := range constants.Channels {
		r.Channels[c] = ProximityChannel{Entities: []RosterEntity{}}
	}
	return r
}

// EntityDelta carries only the changed fields of one entity within a
// channel's delta (§4.3 "Delta computation").
type EntityDelta struct {
	ID        string
	Bearing   *int
	Elevation *int
	Range     *float64
}

// ChannelDelta is the changed portion of one channel between two rosters.
// A field is omitted (nil / zero-value flag) when unchanged.
type ChannelDelta struct {
	Added   []RosterEntity
	Removed []string
	Updated []EntityDelta

	Count      *int
	Sample     []string
	HasSample  bool // true iff Sample changed (including to/from nil)
	LastSpeaker *string // nil pointer target encodes "cleared"
	HasLastSpeaker bool
}

// IsEmpty reports whether this channel delta carries no change at all.
func (d ChannelDelta) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Updated) == 0 &&
		d.Count == nil && !d.HasSample && !d.HasLastSpeaker
}

// ProximityRosterDelta is the change between two rosters for one
// observer (§3, §4.3). A channel absent from Channels had no change.
type ProximityRosterDelta struct {
	Channels map[constants.ChannelName]ChannelDelta

	DangerState    *bool
}

// IsEmpty reports whether nothing changed at all — in which case §4.3
// says the whole delta must be suppressed.
func (d *ProximityRosterDelta) IsEmpty() bool {
	if d.DangerState != nil {
		return false
	}
	for _, cd := range d.Channels {
		if !cd.IsEmpty() {
			return false
		}
	}
	return true
}

// ApplyDelta reproduces the new roster by applying delta to prev (§8
// "Applying a proximity_roster_delta to the prior roster reproduces the
// new roster"). prev may be nil, matching the "first delta" case.
func ApplyDelta(prev *ProximityRoster, delta *ProximityRosterDelta) *ProximityRoster {
	out := NewProximityRoster()
	if prev != nil {
		out.DangerState = prev.DangerState
	}
	if delta.DangerState != nil {
		out.DangerState = *delta.DangerState
	}

	applyChannel := func(name constants.ChannelName) ProximityChannel {
		var base ProximityChannel
		if prev != nil {
			base = prev.Channels[name]
		} else {
			base = ProximityChannel{Entities: []RosterEntity{}}
		}
		cd, changed := delta.Channels[name]
		if !changed {
			return base
		}

		byID := make(map[string]RosterEntity, len(base.Entities))
		order := make([]string, 0, len(base.Entities))
		for _, e := range base.Entities {
			byID[e.ID] = e
			order = append(order, e.ID)
		}
		for _, id := range cd.Removed {
			delete(byID, id)
		}
		for _, upd := range cd.Updated {
			e, ok := byID[upd.ID]
			if !ok {
				continue
			}
			if upd.Bearing != nil {
				e.Bearing = *upd.Bearing
			}
			if upd.Elevation != nil {
				e.Elevation = *upd.Elevation
			}
			if upd.Range != nil {
				e.Range = *upd.Range
			}
			byID[e.ID] = e
		}
		for _, e := range cd.Added {
			if _, existed := byID[e.ID]; !existed {
				order = append(order, e.ID)
			}
			byID[e.ID] = e
		}

		entities := make([]RosterEntity, 0, len(byID))
		for _, id := range order {
			if e, ok := byID[id]; ok {
				entities = append(entities, e)
			}
		}

		result := ProximityChannel{Entities: entities, Count: base.Count}
		if cd.Count != nil {
			result.Count = *cd.Count
		} else {
			result.Count = len(entities)
		}
		result.Sample = base.Sample
		result.HasSample = base.HasSample
		if cd.HasSample {
			result.Sample = cd.Sample
			result.HasSample = cd.Sample != nil
		}
		result.LastSpeaker = base.LastSpeaker
		result.HasLastSpeaker = base.HasLastSpeaker
		if cd.HasLastSpeaker {
			result.HasLastSpeaker = cd.LastSpeaker != nil
			if cd.LastSpeaker != nil {
				result.LastSpeaker = *cd.LastSpeaker
			} else {
				result.LastSpeaker = ""
			}
		}
		return result
	}

	for _, name := range constants.Channels {
		out.Channels[name] = applyChannel(name)
	}
	return out
}
