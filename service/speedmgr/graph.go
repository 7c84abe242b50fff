// SPDX-License-Identifier: BSD-3-Clause

package speedmgr

import (
	"log/slog"
	"sync"

	"github.com/coolerctl/coolerd/pkg/function"
	"github.com/coolerctl/coolerd/pkg/model"
	"github.com/coolerctl/coolerd/pkg/profile"
)

// fanoutTarget is one (device, channel) apply produced by a tick, destined
// for the device repository via apply_setting_speed_fixed.
type fanoutTarget struct {
	DeviceUID   model.UID
	ChannelName string
	Duty        model.Duty
}

type graphEntry struct {
	profile  model.NormalizedGraphProfile
	fType    model.FunctionType
	pipeline *function.Pipeline
	bindings map[model.Binding]struct{}

	lastDuty model.Duty
	lastOK   bool
}

// GraphCommander evaluates Graph profiles: temperature-to-duty curves fed
// by a function preprocessor and fanned out directly to hardware, or read
// by Mix/Overlay commanders as members.
type GraphCommander struct {
	mu      sync.Mutex
	entries map[model.UID]*graphEntry
	logger  *slog.Logger
}

// NewGraphCommander constructs an empty GraphCommander.
func NewGraphCommander(logger *slog.Logger) *GraphCommander {
	return &GraphCommander{
		entries: make(map[model.UID]*graphEntry),
		logger:  logger,
	}
}

// Schedule normalizes p's speed profile against criticalTemp and adds
// binding to its fan-out set. Re-scheduling an already-present profile
// refreshes its normalized curve and tuning but preserves the pipeline's
// cross-tick state (EMA samples, safety latch counter) unless the function
// type changed.
func (g *GraphCommander) Schedule(p model.Profile, fn model.Function, criticalTemp float64, binding model.Binding) error {
	if p.TempSource == nil {
		return ErrTempSourceMissing
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	normalized := model.NormalizedGraphProfile{
		ProfileUID:   p.UID,
		ProfileName:  p.Name,
		SpeedProfile: profile.Normalize(p.SpeedProfile, criticalTemp),
		TempSource:   *p.TempSource,
		Function:     fn,
	}

	entry, exists := g.entries[p.UID]
	if !exists {
		entry = &graphEntry{
			profile:  normalized,
			fType:    fn.FType,
			pipeline: function.NewPipeline(p.UID, fn, g.logger),
			bindings: make(map[model.Binding]struct{}),
		}
		g.entries[p.UID] = entry
	} else {
		entry.profile = normalized
		if entry.fType != fn.FType {
			entry.pipeline = function.NewPipeline(p.UID, fn, g.logger)
			entry.fType = fn.FType
		}
	}
	entry.bindings[binding] = struct{}{}

	return nil
}

// Unschedule removes binding from profileUID's fan-out set, dropping the
// entry entirely once it has no remaining bindings.
func (g *GraphCommander) Unschedule(profileUID model.UID, binding model.Binding) {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, ok := g.entries[profileUID]
	if !ok {
		return
	}
	delete(entry.bindings, binding)
	if len(entry.bindings) == 0 {
		delete(g.entries, profileUID)
	}
}

// Tick evaluates every scheduled profile once, returning the direct-binding
// fan-out targets to apply this tick. A profile whose pipeline produces no
// duty (suppressed, missing temperature) is logged and skipped; it never
// affects any other profile.
func (g *GraphCommander) Tick(reader function.TempReader) []fanoutTarget {
	g.mu.Lock()
	defer g.mu.Unlock()

	var targets []fanoutTarget
	for _, entry := range g.entries {
		duty, ok := entry.pipeline.Run(reader, entry.profile, entry.fType)
		entry.lastDuty = duty
		entry.lastOK = ok

		if !ok {
			continue
		}
		for b := range entry.bindings {
			if b.Via != model.BindingDirect {
				continue
			}
			targets = append(targets, fanoutTarget{DeviceUID: b.DeviceUID, ChannelName: b.ChannelName, Duty: duty})
		}
	}
	return targets
}

// GetOutput returns the duty a Mix or Overlay member profile produced on
// the most recent tick, if any.
func (g *GraphCommander) GetOutput(profileUID model.UID) (model.Duty, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, ok := g.entries[profileUID]
	if !ok || !entry.lastOK {
		return 0, false
	}
	return entry.lastDuty, true
}
