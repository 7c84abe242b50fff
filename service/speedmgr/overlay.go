// SPDX-License-Identifier: BSD-3-Clause

package speedmgr

import (
	"sync"

	"github.com/coolerctl/coolerd/pkg/model"
	"github.com/coolerctl/coolerd/pkg/profile"
)

type overlayEntry struct {
	offsets     []model.OffsetPoint
	member      model.UID
	memberIsMix bool
	bindings    map[model.Binding]struct{}

	lastDuty model.Duty
	lastOK   bool
}

// OverlayCommander applies a signed, duty-dependent offset to a single
// Graph or Mix member's cached duty. Its member is scheduled under an
// Overlay binding so that the member's own duty is never fanned out to
// hardware directly.
type OverlayCommander struct {
	mu      sync.Mutex
	entries map[model.UID]*overlayEntry
}

// NewOverlayCommander constructs an empty OverlayCommander.
func NewOverlayCommander() *OverlayCommander {
	return &OverlayCommander{entries: make(map[model.UID]*overlayEntry)}
}

// Schedule registers p (an Overlay profile) under binding, normalizing its
// offset profile. memberIsMix distinguishes whether p's single member is a
// Mix or a Graph profile, so Unschedule later knows where to look. Callers
// are responsible for scheduling the member into the Graph or Mix commander
// under a Binding{DeviceUID, ChannelName, Via: BindingOverlay} before the
// next Tick.
func (o *OverlayCommander) Schedule(p model.Profile, memberIsMix bool, binding model.Binding) error {
	if len(p.MemberProfileUID) == 0 {
		return ErrMemberProfileMissing
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	entry, exists := o.entries[p.UID]
	if !exists {
		entry = &overlayEntry{bindings: make(map[model.Binding]struct{})}
		o.entries[p.UID] = entry
	}
	entry.offsets = profile.NormalizeOffsets(p.OffsetProfile)
	entry.member = p.MemberProfileUID[0]
	entry.memberIsMix = memberIsMix
	entry.bindings[binding] = struct{}{}

	return nil
}

// Unschedule removes binding from overlayUID's fan-out set and drops the
// corresponding member binding from whichever commander currently owns it.
func (o *OverlayCommander) Unschedule(overlayUID model.UID, binding model.Binding, graph *GraphCommander, mix *MixCommander) {
	o.mu.Lock()
	entry, ok := o.entries[overlayUID]
	if !ok {
		o.mu.Unlock()
		return
	}
	delete(entry.bindings, binding)
	member := entry.member
	memberIsMix := entry.memberIsMix
	empty := len(entry.bindings) == 0
	if empty {
		delete(o.entries, overlayUID)
	}
	o.mu.Unlock()

	memberBinding := model.Binding{DeviceUID: binding.DeviceUID, ChannelName: binding.ChannelName, Via: model.BindingOverlay}
	if memberIsMix {
		mix.Unschedule(member, memberBinding, graph)
	} else {
		graph.Unschedule(member, memberBinding)
	}
}

// Tick reads each overlay's member duty from source and, if present,
// applies the normalized offset profile and clamps to [0, 100]. source
// resolves a member UID against whichever commander (Graph or Mix)
// currently owns it.
func (o *OverlayCommander) Tick(source func(model.UID) (model.Duty, bool)) []fanoutTarget {
	o.mu.Lock()
	defer o.mu.Unlock()

	var targets []fanoutTarget
	for _, entry := range o.entries {
		memberDuty, ok := source(entry.member)
		if !ok {
			entry.lastOK = false
			continue
		}

		duty := profile.Apply(entry.offsets, memberDuty)
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
