package zonemgr

import (
	"encoding/json"

	"github.com/udisondev/la2go/internal/constants"
	"github.com/udisondev/la2go/internal/model"
)

// CalculateProximityRoster produces the full seven-band roster for
// entityID (§3, §4.3). Returns nil if entityID is not resident.
func (m *Manager) CalculateProximityRoster(entityID string) *model.ProximityRoster {
	observer, ok := m.entities[entityID]
	if !ok {
		return nil
	}

	roster := model.NewProximityRoster()
	roster.DangerState = observer.InCombat

	for _, ch := range constants.Channels {
		roster.Channels[ch] = m.buildChannel(observer, ch)
	}
	return roster
}

func (m *Manager) buildChannel(observer *model.Entity, ch constants.ChannelName) model.ProximityChannel {
	rangeM := constants.ChannelRange(ch)
	hits := m.queryRange(observer.Position, rangeM, observer.ID)

	entities := make([]model.RosterEntity, 0, len(hits))
	for _, hit := range hits {
		entities = append(entities, model.RosterEntity{
			ID:        hit.entity.ID,
			Name:      hit.entity.Name,
			Kind:      hit.entity.Kind,
			Bearing:   observer.Position.Bearing(hit.entity.Position),
			Elevation: observer.Position.Elevation(hit.entity.Position),
			Range:     observer.Position.Range(hit.entity.Position),
		})
	}

	channel := model.ProximityChannel{
		Entities: entities,
		Count:    len(entities),
	}

	if channel.Count >= constants.SampleCountMin && channel.Count <= constants.SampleCountMax {
		sample := make([]string, len(entities))
		for i, e := range entities {
			sample[i] = e.Name
		}
		channel.Sample = sample
		channel.HasSample = true

		if speaker, ok := m.recentSpeaker(observer.ID); ok && nameInSample(speaker, sample) {
			channel.LastSpeaker = speaker
			channel.HasLastSpeaker = true
		}
	}

	return channel
}

func nameInSample(name string, sample []string) bool {
	for _, s := range sample {
		if s == name {
			return true
		}
	}
	return false
}

// CalculateProximityRosterDelta computes {delta, roster} against a
// previous roster, or returns nil delta if nothing semantically changed
// (§3 invariant (f), §4.3 "Delta computation"). previous may be nil, in
// which case every channel's entities become "added" (§4.3 "First
// delta").
func (m *Manager) CalculateProximityRosterDelta(entityID string, previous *model.ProximityRoster) (*model.ProximityRosterDelta, *model.ProximityRoster) {
	roster := m.CalculateProximityRoster(entityID)
	if roster == nil {
		return nil, nil
	}

	delta := &model.ProximityRosterDelta{Channels: make(map[constants.ChannelName]model.ChannelDelta)}

	if previous == nil {
		for _, ch := range constants.Channels {
			cur := roster.Channels[ch]
			cd := model.ChannelDelta{Added: cur.Entities}
			count := cur.Count
			cd.Count = &count
			if cur.HasSample {
				cd.Sample = cur.Sample
				cd.HasSample = true
			}
			if cur.HasLastSpeaker {
				speaker := cur.LastSpeaker
				cd.LastSpeaker = &speaker
				cd.HasLastSpeaker = true
			}
			if !cd.IsEmpty() {
				delta.Channels[ch] = cd
			}
		}
		dangerState := roster.DangerState
		delta.DangerState = &dangerState
	} else {
		for _, ch := range constants.Channels {
			cd := diffChannel(previous.Channels[ch], roster.Channels[ch])
			if !cd.IsEmpty() {
				delta.Channels[ch] = cd
			}
		}
		if previous.DangerState != roster.DangerState {
			dangerState := roster.DangerState
			delta.DangerState = &dangerState
		}
	}

	if delta.IsEmpty() {
		return nil, roster
	}
	return delta, roster
}

func diffChannel(old, cur model.ProximityChannel) model.ChannelDelta {
	oldByID := make(map[string]model.RosterEntity, len(old.Entities))
	for _, e := range old.Entities {
		oldByID[e.ID] = e
	}
	curByID := make(map[string]model.RosterEntity, len(cur.Entities))
	for _, e := range cur.Entities {
		curByID[e.ID] = e
	}

	var cd model.ChannelDelta

	for id, e := range curByID {
		if _, existed := oldByID[id]; !existed {
			cd.Added = append(cd.Added, e)
		}
	}
	for id := range oldByID {
		if _, exists := curByID[id]; !exists {
			cd.Removed = append(cd.Removed, id)
		}
	}
	for id, curE := range curByID {
		oldE, existed := oldByID[id]
		if !existed {
			continue
		}
		ed := diffEntity(oldE, curE)
		if ed != nil {
			cd.Updated = append(cd.Updated, *ed)
		}
	}

	if old.Count != cur.Count {
		count := cur.Count
		cd.Count = &count
	}

	if !sampleEqual(old, cur) {
		cd.Sample = cur.Sample
		cd.HasSample = true
	}

	if old.LastSpeaker != cur.LastSpeaker || old.HasLastSpeaker != cur.HasLastSpeaker {
		if cur.HasLastSpeaker {
			speaker := cur.LastSpeaker
			cd.LastSpeaker = &speaker
		}
		cd.HasLastSpeaker = true
	}

	return cd
}

func diffEntity(old, cur model.RosterEntity) *model.EntityDelta {
	var ed model.EntityDelta
	changed := false

	if old.Bearing != cur.Bearing {
		b := cur.Bearing
		ed.Bearing = &b
		changed = true
	}
	if old.Elevation != cur.Elevation {
		e := cur.Elevation
		ed.Elevation = &e
		changed = true
	}
	if old.Range != cur.Range {
		r := cur.Range
		ed.Range = &r
		changed = true
	}
	if !changed {
		return nil
	}
	ed.ID = cur.ID
	return &ed
}

func sampleEqual(old, cur model.ProximityChannel) bool {
	if old.HasSample != cur.HasSample {
		return false
	}
	if !old.HasSample {
		return true
	}
	oldJSON, _ := json.Marshal(old.Sample)
	curJSON, _ := json.Marshal(cur.Sample)
	return string(oldJSON) == string(curJSON)
}
