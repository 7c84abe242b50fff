// SPDX-License-Identifier: BSD-3-Clause

package speedmgr

import (
	"sync"

	"github.com/coolerctl/coolerd/pkg/model"
	"github.com/coolerctl/coolerd/pkg/profile"
)

type mixEntry struct {
	mixFunction model.MixFunctionType
	members     []model.UID
	bindings    map[model.Binding]struct{}
	lastApplied map[model.UID]model.Duty

	lastDuty model.Duty
	lastOK   bool
}

// MixCommander reduces the cached duties of several Graph-scheduled member
// profiles into a single duty via Min/Max/Avg. Members are always scheduled
// into the GraphCommander under a Mix binding, so their duty is never
// fanned out to hardware directly.
type MixCommander struct {
	mu      sync.Mutex
	entries map[model.UID]*mixEntry
}

// NewMixCommander constructs an empty MixCommander.
func NewMixCommander() *MixCommander {
	return &MixCommander{entries: make(map[model.UID]*mixEntry)}
}

// Schedule registers p (a Mix profile) under binding, seeding a
// remembered-duty of zero for any member not already tracked. Callers are
// responsible for scheduling each of p.MemberProfileUID into the
// GraphCommander under a Binding{DeviceUID, ChannelName, Via: BindingMix}
// before the next Tick.
func (m *MixCommander) Schedule(p model.Profile, binding model.Binding) error {
	if len(p.MemberProfileUID) == 0 {
		return ErrMemberProfileMissing
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.entries[p.UID]
	if !exists {
		entry = &mixEntry{
			bindings:    make(map[model.Binding]struct{}),
			lastApplied: make(map[model.UID]model.Duty),
		}
		m.entries[p.UID] = entry
	}
	entry.mixFunction = p.MixFunctionType
	entry.members = p.MemberProfileUID
	for _, memberUID := range p.MemberProfileUID {
		if _, ok := entry.lastApplied[memberUID]; !ok {
			entry.lastApplied[memberUID] = 0
		}
	}
	entry.bindings[binding] = struct{}{}

	return nil
}

// Unschedule removes binding from mixUID's fan-out set and drops the
// corresponding per-channel member bindings from graph. The mix entry
// itself (and its remembered last-applied duties) is dropped only once no
// binding references it anymore.
func (m *MixCommander) Unschedule(mixUID model.UID, binding model.Binding, graph *GraphCommander) {
	m.mu.Lock()
	entry, ok := m.entries[mixUID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(entry.bindings, binding)
	members := append([]model.UID(nil), entry.members...)
	empty := len(entry.bindings) == 0
	if empty {
		delete(m.entries, mixUID)
	}
	m.mu.Unlock()

	memberBinding := model.Binding{DeviceUID: binding.DeviceUID, ChannelName: binding.ChannelName, Via: model.BindingMix}
	for _, memberUID := range members {
		graph.Unschedule(memberUID, memberBinding)
	}
}

// Tick updates every remembered member duty from the Graph Commander's
// current output and reduces each mix profile, returning the direct-binding
// fan-out targets to apply this tick.
func (m *MixCommander) Tick(graph *GraphCommander) []fanoutTarget {
	m.mu.Lock()
	defer m.mu.Unlock()

	var targets []fanoutTarget
	for _, entry := range m.entries {
		values := make([]model.Duty, 0, len(entry.members))
		anyPresent := false

		for _, memberUID := range entry.members {
			if d, ok := graph.GetOutput(memberUID); ok {
				entry.lastApplied[memberUID] = d
				values = append(values, d)
				anyPresent = true
				continue
			}
			if last, ok := entry.lastApplied[memberUID]; ok {
				values = append(values, last)
			}
		}

		if !anyPresent {
			entry.lastOK = false
			continue
		}

		duty := profile.Reduce(entry.mixFunction, values)
		entry.lastDuty = duty
		entry.lastOK = true

		for b := range entry.bindings {
			if b.Via != model.BindingDirect {
				continue
			}
			targets = append(targets, fanoutTarget{DeviceUID: b.DeviceUID, ChannelName: b.ChannelName, Duty: duty})
		}
	}
	return targets
}

// GetOutput returns the duty a Mix profile produced on the most recent
// tick, for consumption by an Overlay commander whose member is this Mix.
func (m *MixCommander) GetOutput(profileUID model.UID) (model.Duty, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[profileUID]
	if !ok || !entry.lastOK {
		return 0, false
	}
	return entry.lastDuty, true
}
