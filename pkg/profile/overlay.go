// SPDX-License-Identifier: BSD-3-Clause

package profile

import (
	"sort"

	"github.com/coolerctl/coolerd/pkg/model"
)

const (
	minOffset model.Offset = -100
	maxOffset model.Offset = 100
)

// NormalizeOffsets sorts an overlay's offset profile ascending by duty,
// collapsing duplicate duties to the larger offset and clamping every
// offset to [-100, +100].
func NormalizeOffsets(points []model.OffsetPoint) []model.OffsetPoint {
	work := make([]model.OffsetPoint, len(points))
	copy(work, points)

	sort.SliceStable(work, func(i, j int) bool {
		if work[i].Duty != work[j].Duty {
			return work[i].Duty < work[j].Duty
		}
		return work[i].Offset > work[j].Offset
	})

	out := make([]model.OffsetPoint, 0, len(work))
	var lastDuty model.Duty
	var haveLast bool

	for _, p := range work {
		off := clampOffset(p.Offset)
		if haveLast && p.Duty == lastDuty {
			continue // duplicate duty, already holds the greater offset
		}
		out = append(out, model.OffsetPoint{Duty: p.Duty, Offset: off})
		lastDuty = p.Duty
		haveLast = true
	}

	return out
}

func clampOffset(o model.Offset) model.Offset {
	if o < minOffset {
		return minOffset
	}
	if o > maxOffset {
		return maxOffset
	}
	return o
}

// InterpolateOffset evaluates a normalized offset profile at duty via
// binary search plus linear interpolation, clamping to the endpoints when
// duty lies outside the profile's range. An empty profile returns 0.
func InterpolateOffset(points []model.OffsetPoint, duty model.Duty) model.Offset {
	switch len(points) {
	case 0:
		return 0
	case 1:
		return points[0].Offset
	}

	if duty <= points[0].Duty {
		return points[0].Offset
	}
	last := points[len(points)-1]
	if duty >= last.Duty {
		return last.Offset
	}

	lo, hi := 0, len(points)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if points[mid].Duty < duty {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	upper := points[lo]
	if upper.Duty == duty {
		return upper.Offset
	}
	lower := points[lo-1]

	span := float64(upper.Duty) - float64(lower.Duty)
	if span <= 0 {
		return lower.Offset
	}
	frac := (float64(duty) - float64(lower.Duty)) / span
	off := float64(lower.Offset) + frac*(float64(upper.Offset)-float64(lower.Offset))
	return model.Offset(roundHalfAwayFromZero(off))
}

// Apply adds the interpolated offset to the member duty and clamps the sum
// to [0, 100].
func Apply(points []model.OffsetPoint, duty model.Duty) model.Duty {
	off := InterpolateOffset(points, duty)
	sum := int(duty) + int(off)
	if sum < 0 {
		sum = 0
	}
	if sum > 100 {
		sum = 100
	}
	return model.Duty(sum)
}
