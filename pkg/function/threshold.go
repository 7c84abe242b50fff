// SPDX-License-Identifier: BSD-3-Clause

package function

import "github.com/coolerctl/coolerd/pkg/model"

// maxDutySampleSize bounds the last-emitted-duty deque.
const maxDutySampleSize = 20

// DutyThresholdPost suppresses duty changes smaller than duty_minimum and
// clamps the step of changes larger than duty_maximum, unless the safety
// latch forces an emission through.
type DutyThresholdPost struct {
	dutyMinimum uint8
	dutyMaximum uint8
	emitted     []model.Duty
}

func newDutyThresholdPost(dutyMinimum, dutyMaximum uint8) *DutyThresholdPost {
	return &DutyThresholdPost{dutyMinimum: dutyMinimum, dutyMaximum: dutyMaximum}
}

func (p *DutyThresholdPost) IsApplicable(data *SpeedProfileData) bool {
	return data.Duty != nil
}

func (p *DutyThresholdPost) Process(data *SpeedProfileData, _ TempReader) {
	if len(p.emitted) == 0 {
		p.accept(*data.Duty)
		return
	}

	last := p.emitted[len(p.emitted)-1]
	duty := *data.Duty
	diff := absDiff(duty, last)

	switch {
	case diff < model.Duty(p.dutyMinimum) && !data.SafetyLatchTriggered:
		data.Duty = nil
	case diff > model.Duty(p.dutyMaximum):
		clamped := last - model.Duty(p.dutyMaximum)
		if duty > last {
			clamped = last + model.Duty(p.dutyMaximum)
		}
		data.Duty = &clamped
		p.accept(clamped)
	default:
		p.accept(duty)
	}
}

func (p *DutyThresholdPost) accept(d model.Duty) {
	p.emitted = append(p.emitted, d)
	if len(p.emitted) > maxDutySampleSize {
		p.emitted = p.emitted[1:]
	}
}

func absDiff(a, b model.Duty) model.Duty {
	if a > b {
		return a - b
	}
	return b - a
}
