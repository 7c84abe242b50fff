// SPDX-License-Identifier: BSD-3-Clause

package function

// minTempHistStackSize is the floor on StandardPre's temperature deque size
// regardless of how small response_delay is configured.
const minTempHistStackSize = 2

// StandardPre implements the hysteresis-controlled preprocessor: it damps
// transient spikes and, outside only_downward overrides and safety-latch
// overrides, only emits a new temperature once the whole deque has settled
// away from the last applied value.
type StandardPre struct {
	deviance     float64
	onlyDownward bool
	idealSize    int
	stack        []float64
	lastApplied  float64
	haveApplied  bool
}

func newStandardPre(responseDelay uint8, deviance float64, onlyDownward bool) *StandardPre {
	size := int(responseDelay) + 1
	if size < minTempHistStackSize {
		size = minTempHistStackSize
	}
	return &StandardPre{deviance: deviance, onlyDownward: onlyDownward, idealSize: size}
}

func (p *StandardPre) IsApplicable(data *SpeedProfileData) bool {
	return data.Temp == nil
}

func (p *StandardPre) Process(data *SpeedProfileData, reader TempReader) {
	if !p.haveApplied {
		latest := reader.RecentTemps(data.Profile.TempSource, p.idealSize)
		if len(latest) == 0 {
			return
		}
		p.stack = append([]float64(nil), latest...)
		p.haveApplied = true
		// Very first run: apply something right away rather than wait for
		// the stack to fill.
		if len(p.stack) < p.idealSize {
			t := p.stack[0]
			data.Temp = &t
			p.lastApplied = t
			return
		}
	} else {
		current := reader.RecentTemps(data.Profile.TempSource, 1)
		if len(current) == 0 {
			return
		}
		p.stack = append(p.stack, current[len(current)-1])
	}

	if len(p.stack) > p.idealSize {
		p.stack = p.stack[1:]
	}

	newest := p.stack[len(p.stack)-1]
	if p.onlyDownward && newest > p.lastApplied {
		p.stack = []float64{newest}
		data.Temp = &newest
		p.lastApplied = newest
		return
	}

	oldest := p.stack[0]
	oldestInTolerance := withinTolerance(oldest, p.lastApplied, p.deviance)

	if len(p.stack) > minTempHistStackSize {
		newestInTolerance := withinTolerance(newest, p.lastApplied, p.deviance)
		if oldestInTolerance && newestInTolerance {
			// Absorb transient spikes: flatten everything but the newest
			// entry to the oldest value.
			for i := 0; i < len(p.stack)-1; i++ {
				p.stack[i] = oldest
			}
		}
	}

	if oldestInTolerance && !data.SafetyLatchTriggered {
		return // nothing to apply
	}

	data.Temp = &oldest
	p.lastApplied = oldest
}

func withinTolerance(v, reference, deviance float64) bool {
	return v <= reference+deviance && v >= reference-deviance
}
