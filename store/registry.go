package store

import (
	"sync"

	"github.com/abhishekp4512/CattleNet/telemetry"
)

// DefaultWeightHistoryDepth bounds each animal's retained weigh-ins.
const DefaultWeightHistoryDepth = 10

// Registry maps RFID tags to cattle profiles. An entry is created on the
// first gate event carrying a positive weight and is never deleted.
type Registry struct {
	mu          sync.RWMutex
	profiles    map[string]*telemetry.CattleProfile
	weightDepth int
}

// NewRegistry creates an empty registry. A depth of 0 or less falls back to
// DefaultWeightHistoryDepth.
func NewRegistry(weightDepth int) *Registry {
	if weightDepth <= 0 {
		weightDepth = DefaultWeightHistoryDepth
	}
	return &Registry{
		profiles:    make(map[string]*telemetry.CattleProfile),
		weightDepth: weightDepth,
	}
}

// RecordGateEvent folds a gate event into the registry. Events with a
// positive weight create or refresh the profile and append to the weight
// history; events without weight only touch an existing profile's last-seen
// and direction counters.
func (r *Registry) RecordGateEvent(e telemetry.GateEvent) {
	if e.RFIDTag == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	profile, exists := r.profiles[e.RFIDTag]
	if !exists {
		if e.Weight <= 0 {
			return
		}
		profile = &telemetry.CattleProfile{
			RFIDTag:   e.RFIDTag,
			FirstSeen: e.Timestamp,
		}
		r.profiles[e.RFIDTag] = profile
	}

	profile.LastSeen = e.Timestamp

	if e.Weight > 0 {
		profile.LatestWeight = e.Weight
		profile.WeightHistory = append(profile.WeightHistory, telemetry.WeightSample{
			Weight:    e.Weight,
			Timestamp: e.Timestamp,
		})
		if len(profile.WeightHistory) > r.weightDepth {
			profile.WeightHistory = profile.WeightHistory[len(profile.WeightHistory)-r.weightDepth:]
		}
	}

	switch e.Direction {
	case "in":
		profile.TotalEntries++
	case "out":
		profile.TotalExits++
	}
}

// Get returns a copy of the profile for the given tag.
func (r *Registry) Get(tag string) (telemetry.CattleProfile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, exists := r.profiles[tag]
	if !exists {
		return telemetry.CattleProfile{}, false
	}
	return copyProfile(profile), true
}

// All returns a copy of every profile keyed by RFID tag.
func (r *Registry) All() map[string]telemetry.CattleProfile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]telemetry.CattleProfile, len(r.profiles))
	for tag, profile := range r.profiles {
		result[tag] = copyProfile(profile)
	}
	return result
}

// Len returns the number of registered animals.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.profiles)
}

func copyProfile(p *telemetry.CattleProfile) telemetry.CattleProfile {
	out := *p
	out.WeightHistory = make([]telemetry.WeightSample, len(p.WeightHistory))
	copy(out.WeightHistory, p.WeightHistory)
	return out
}
