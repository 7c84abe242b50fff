// SPDX-License-Identifier: BSD-3-Clause

package profile

import (
	"sort"

	"github.com/coolerctl/coolerd/pkg/model"
)

// MaxDuty is the ceiling every normalized speed profile terminates at.
const MaxDuty model.Duty = 100

// Normalize turns a raw, user-authored speed profile into the strictly
// increasing-in-temperature, non-decreasing-in-duty sequence the graph
// processor interpolates against:
//
//  1. Append (criticalTemp, MaxDuty) as a sentinel.
//  2. Sort ascending by temperature; on ties keep the greater duty.
//  3. Walk ascending: drop duplicate temperatures, enforce monotonic
//     non-decreasing duty, clamp duty to MaxDuty, and stop at the first
//     MaxDuty point (the remainder is dropped).
//
// Normalize is idempotent: Normalize(Normalize(p)) == Normalize(p), since a
// normalized profile is already sorted, deduplicated, monotonic and
// terminates in exactly one MaxDuty point.
func Normalize(points []model.TempPoint, criticalTemp float64) []model.TempPoint {
	work := make([]model.TempPoint, 0, len(points)+1)
	work = append(work, points...)
	work = append(work, model.TempPoint{Temp: criticalTemp, Duty: MaxDuty})

	sort.SliceStable(work, func(i, j int) bool {
		if work[i].Temp != work[j].Temp {
			return work[i].Temp < work[j].Temp
		}
		return work[i].Duty > work[j].Duty // ties: greater duty wins
	})

	out := make([]model.TempPoint, 0, len(work))
	var lastTemp float64
	var haveLast bool
	var lastDuty model.Duty

	for _, p := range work {
		if haveLast && p.Temp == lastTemp {
			continue // duplicate temperature, already holds the greater duty
		}

		duty := p.Duty
		if duty > MaxDuty {
			duty = MaxDuty
		}
		if haveLast && duty < lastDuty {
			duty = lastDuty // enforce monotonic non-decreasing duty
		}

		out = append(out, model.TempPoint{Temp: p.Temp, Duty: duty})
		lastTemp = p.Temp
		lastDuty = duty
		haveLast = true

		if duty == MaxDuty {
			break // terminal point reached; drop the remainder
		}
	}

	return out
}

// Interpolate evaluates a normalized speed profile at temp using binary
// search for the bracketing segment and linear interpolation within it,
// rounding to the nearest integer duty. An empty profile returns 0; a
// single-point profile returns its duty; out-of-range temperatures clamp to
// the nearest endpoint.
//
// Interpolate is monotonic non-decreasing in temp for any profile produced
// by Normalize, since duty is non-decreasing point-to-point and linear
// interpolation between non-decreasing endpoints is itself non-decreasing.
func Interpolate(points []model.TempPoint, temp float64) model.Duty {
	switch len(points) {
	case 0:
		return 0
	case 1:
		return points[0].Duty
	}

	if temp <= points[0].Temp {
		return points[0].Duty
	}
	last := points[len(points)-1]
	if temp >= last.Temp {
		return last.Duty
	}

	// binary search for the first point with Temp >= temp
	lo, hi := 0, len(points)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if points[mid].Temp < temp {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	upper := points[lo]
	if upper.Temp == temp {
		return upper.Duty
	}
	lower := points[lo-1]

	span := upper.Temp - lower.Temp
	if span <= 0 {
		return lower.Duty
	}
	frac := (temp - lower.Temp) / span
	duty := float64(lower.Duty) + frac*float64(upper.Duty-lower.Duty)
	return model.Duty(roundHalfAwayFromZero(duty))
}

func roundHalfAwayFromZero(v float64) int {
	if v >= 0 {
		return int(v + 0.5)
	}
	return -int(-v + 0.5)
}
