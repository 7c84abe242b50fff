// SPDX-License-Identifier: BSD-3-Clause

package speedmgr

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/coolerctl/coolerd/pkg/model"
)

// definitions is the scheduler's working copy of the persisted profile and
// function tables, refreshed from the config store whenever a profile or
// function is upserted.
type definitions struct {
	profiles  map[model.UID]model.Profile
	functions map[model.UID]model.Function
}

// Scheduler owns the Graph, Mix and Overlay commanders and resolves a
// channel's assigned profile (of whichever type) into the right commander
// schedule calls, recursively handling Mix and Overlay members.
type Scheduler struct {
	mu      sync.Mutex
	graph   *GraphCommander
	mix     *MixCommander
	overlay *OverlayCommander
	defs    definitions

	// channelOwner tracks which profile UID currently owns a (device,
	// channel, Direct) binding, so re-scheduling a channel first clears the
	// previous profile's bindings.
	channelOwner map[model.Binding]model.UID

	criticalTemp func(deviceUID model.UID) float64
	logger       *slog.Logger
}

// NewScheduler constructs a Scheduler. criticalTemp resolves a device's
// critical temperature (its DeviceInfo.TempMax) for Graph normalization.
func NewScheduler(criticalTemp func(model.UID) float64, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		graph:        NewGraphCommander(logger),
		mix:          NewMixCommander(),
		overlay:      NewOverlayCommander(),
		defs:         definitions{profiles: make(map[model.UID]model.Profile), functions: make(map[model.UID]model.Function)},
		channelOwner: make(map[model.Binding]model.UID),
		criticalTemp: criticalTemp,
		logger:       logger,
	}
}

// LoadDefinitions replaces the scheduler's view of the persisted profiles
// and functions. It does not itself reschedule anything; already-scheduled
// channels keep running against their previously resolved curves until
// ScheduleChannel is called again (e.g. by the Mode Controller or the
// profile.schedule IPC handler).
func (s *Scheduler) LoadDefinitions(profiles []model.Profile, functions []model.Function) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.defs.profiles = make(map[model.UID]model.Profile, len(profiles))
	for _, p := range profiles {
		s.defs.profiles[p.UID] = p
	}
	s.defs.functions = make(map[model.UID]model.Function, len(functions))
	for _, f := range functions {
		s.defs.functions[f.UID] = f
	}
}

// ScheduleChannel assigns profileUID to (deviceUID, channel), clearing
// whatever profile previously occupied that channel first.
func (s *Scheduler) ScheduleChannel(deviceUID model.UID, channel string, profileUID model.UID) error {
	binding := model.Binding{DeviceUID: deviceUID, ChannelName: channel, Via: model.BindingDirect}

	s.mu.Lock()
	prior, hadPrior := s.channelOwner[binding]
	s.mu.Unlock()

	if hadPrior && prior != profileUID {
		s.unscheduleProfile(prior, binding)
	}

	if err := s.scheduleProfile(profileUID, binding); err != nil {
		return err
	}

	s.mu.Lock()
	s.channelOwner[binding] = profileUID
	s.mu.Unlock()
	return nil
}

// UnscheduleChannel clears whatever profile currently occupies
// (deviceUID, channel), if any.
func (s *Scheduler) UnscheduleChannel(deviceUID model.UID, channel string) {
	binding := model.Binding{DeviceUID: deviceUID, ChannelName: channel, Via: model.BindingDirect}

	s.mu.Lock()
	prior, hadPrior := s.channelOwner[binding]
	delete(s.channelOwner, binding)
	s.mu.Unlock()

	if hadPrior {
		s.unscheduleProfile(prior, binding)
	}
}

// scheduleProfile resolves profileUID and recursively schedules it (and,
// for Mix/Overlay, its members) under binding.
func (s *Scheduler) scheduleProfile(profileUID model.UID, binding model.Binding) error {
	s.mu.Lock()
	p, ok := s.defs.profiles[profileUID]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, profileUID)
	}

	switch p.PType {
	case model.ProfileTypeGraph:
		return s.scheduleGraphProfile(p, binding)

	case model.ProfileTypeMix:
		if len(p.MemberProfileUID) == 0 {
			return ErrMemberProfileMissing
		}
		for _, memberUID := range p.MemberProfileUID {
			s.mu.Lock()
			member, ok := s.defs.profiles[memberUID]
			s.mu.Unlock()
			if !ok {
				return fmt.Errorf("%w: mix member %s", ErrProfileNotFound, memberUID)
			}
			if member.PType != model.ProfileTypeGraph {
				return fmt.Errorf("%w: mix member %s must be a graph profile", ErrUnsupportedMemberType, memberUID)
			}
			memberBinding := model.Binding{DeviceUID: binding.DeviceUID, ChannelName: binding.ChannelName, Via: model.BindingMix}
			if err := s.scheduleGraphProfile(member, memberBinding); err != nil {
				return err
			}
		}
		return s.mix.Schedule(p, binding)

	case model.ProfileTypeOverlay:
		if len(p.MemberProfileUID) == 0 {
			return ErrMemberProfileMissing
		}
		memberUID := p.MemberProfileUID[0]
		s.mu.Lock()
		member, ok := s.defs.profiles[memberUID]
		s.mu.Unlock()
		if !ok {
			return fmt.Errorf("%w: overlay member %s", ErrProfileNotFound, memberUID)
		}
		memberBinding := model.Binding{DeviceUID: binding.DeviceUID, ChannelName: binding.ChannelName, Via: model.BindingOverlay}
		memberIsMix := member.PType == model.ProfileTypeMix
		if err := s.scheduleProfile(memberUID, memberBinding); err != nil {
			return err
		}
		return s.overlay.Schedule(p, memberIsMix, binding)

	default:
		return fmt.Errorf("%w: profile %s has unsupported type %s", ErrUnsupportedMemberType, profileUID, p.PType)
	}
}

func (s *Scheduler) scheduleGraphProfile(p model.Profile, binding model.Binding) error {
	if p.TempSource == nil {
		return ErrTempSourceMissing
	}
	s.mu.Lock()
	fn, ok := s.defs.functions[p.FunctionUID]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrFunctionNotFound, p.FunctionUID)
	}
	crit := s.criticalTemp(p.TempSource.DeviceUID)
	return s.graph.Schedule(p, fn, crit, binding)
}

// unscheduleProfile clears binding from profileUID's fan-out set across
// whichever commander owns it, recursing into Mix/Overlay members.
func (s *Scheduler) unscheduleProfile(profileUID model.UID, binding model.Binding) {
	s.mu.Lock()
	p, ok := s.defs.profiles[profileUID]
	s.mu.Unlock()
	if !ok {
		// Definition is gone (e.g. deleted); best effort: try every commander.
		s.graph.Unschedule(profileUID, binding)
		s.mix.Unschedule(profileUID, binding, s.graph)
		s.overlay.Unschedule(profileUID, binding, s.graph, s.mix)
		return
	}

	switch p.PType {
	case model.ProfileTypeGraph:
		s.graph.Unschedule(profileUID, binding)
	case model.ProfileTypeMix:
		s.mix.Unschedule(profileUID, binding, s.graph)
	case model.ProfileTypeOverlay:
		s.overlay.Unschedule(profileUID, binding, s.graph, s.mix)
	}
}

// Tick evaluates Graph, then Mix, then Overlay, in that fixed order, and
// returns every direct fan-out target produced this tick.
func (s *Scheduler) Tick(reader interface {
	RecentTemps(source model.TempSource, n int) []float64
}) []fanoutTarget {
	var targets []fanoutTarget
	targets = append(targets, s.graph.Tick(reader)...)
	targets = append(targets, s.mix.Tick(s.graph)...)
	targets = append(targets, s.overlay.Tick(s.resolveMemberOutput)...)
	return targets
}

// resolveMemberOutput looks an Overlay member's cached duty up in whichever
// commander produced it. Graph and Mix profile UIDs never collide, so
// checking both is unambiguous.
func (s *Scheduler) resolveMemberOutput(profileUID model.UID) (model.Duty, bool) {
	if d, ok := s.graph.GetOutput(profileUID); ok {
		return d, ok
	}
	return s.mix.GetOutput(profileUID)
}
