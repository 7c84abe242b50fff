// SPDX-License-Identifier: BSD-3-Clause

package function

import (
	"log/slog"

	"github.com/coolerctl/coolerd/pkg/model"
)

// TempReader is the minimal view of a temperature stream the Identity, EMA
// and Standard preprocessors need. pkg/devicerepo's registry satisfies this
// structurally; function does not import devicerepo, keeping the dependency
// one-directional.
type TempReader interface {
	// RecentTemps returns up to n of the most recent samples for source,
	// oldest first. A short or empty result is not an error: callers treat
	// fewer than the ideal count as "not enough data yet".
	RecentTemps(source model.TempSource, n int) []float64
}

// SpeedProfileData is the mutable value threaded through a Pipeline run. It
// corresponds to one profile's evaluation for one tick.
type SpeedProfileData struct {
	// Temp is set once a pre-processing stage has produced a sample to feed
	// the graph.
	Temp *float64
	// Duty is set once the graph stage (or a downstream stage) has produced
	// an output duty.
	Duty *model.Duty

	Profile model.NormalizedGraphProfile

	// ProcessingStarted is set by the Safety Latch start phase; stages may
	// use it to distinguish "never run" from "ran, produced nothing".
	ProcessingStarted bool
	// SafetyLatchTriggered is set when the no-duty-set counter has reached
	// its bound; it forces the threshold and hysteresis stages to emit
	// regardless of their normal suppression rules.
	SafetyLatchTriggered bool
}

// Processor is one stage of the function evaluation pipeline.
type Processor interface {
	// IsApplicable reports whether Process should run for this data, given
	// the profile's function type and current field state.
	IsApplicable(data *SpeedProfileData) bool
	// Process mutates data. It is only ever called when IsApplicable
	// returned true.
	Process(data *SpeedProfileData, reader TempReader)
}

// Pipeline runs the fixed seven-stage evaluation order for a single
// scheduled profile, owning each stage's cross-tick state.
type Pipeline struct {
	latch     *SafetyLatch
	identity  *IdentityPre
	ema       *EMAPre
	standard  *StandardPre
	graph     *GraphProc
	threshold *DutyThresholdPost
	log       *slog.Logger
}

// NewPipeline constructs a Pipeline for a single profile. fn supplies the
// tuning parameters (duty_minimum/maximum, response_delay, deviance,
// only_downward, sample_window); logger receives a "profile_uid" attribute.
func NewPipeline(profileUID model.UID, fn model.Function, logger *slog.Logger) *Pipeline {
	l := logger.With("profile_uid", string(profileUID))
	return &Pipeline{
		latch:     newSafetyLatch(fn.ResponseDelay),
		identity:  &IdentityPre{},
		ema:       newEMAPre(fn.SampleWindow),
		standard:  newStandardPre(fn.ResponseDelay, fn.Deviance, fn.OnlyDownward),
		graph:     &GraphProc{},
		threshold: newDutyThresholdPost(fn.DutyMinimum, fn.DutyMaximum),
		log:       l,
	}
}

// Run evaluates one tick for the profile, returning the emitted duty (if
// any). A missing temperature source or empty sample is not an error here:
// it is logged by the caller (the commander) using the returned ok=false,
// which corresponds to the profile being skipped for this tick.
func (p *Pipeline) Run(reader TempReader, profile model.NormalizedGraphProfile, fType model.FunctionType) (model.Duty, bool) {
	data := &SpeedProfileData{Profile: profile}

	stages := []Processor{p.latch, processorFor(fType, p), p.graph, p.threshold}
	for _, stage := range stages {
		if stage == nil {
			continue
		}
		if stage.IsApplicable(data) {
			stage.Process(data, reader)
		}
	}
	p.latch.end(data)

	if data.SafetyLatchTriggered && data.Duty == nil {
		p.log.Error("safety latch triggered without an emitted duty", "error", ErrSafetyLatchViolation)
	}

	if data.Duty == nil {
		return 0, false
	}
	return *data.Duty, true
}

// processorFor selects the single preprocessing stage matching the
// profile's function type. Exactly one of Identity/EMA/Standard ever runs
// per profile, since FunctionType is fixed at profile-schedule time.
func processorFor(fType model.FunctionType, p *Pipeline) Processor {
	switch fType {
	case model.FunctionTypeIdentity:
		return p.identity
	case model.FunctionTypeEMA:
		return p.ema
	case model.FunctionTypeStandard:
		return p.standard
	default:
		return p.identity
	}
}
