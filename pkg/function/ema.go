// SPDX-License-Identifier: BSD-3-Clause

package function

import "math"

// tempSampleSize bounds how many recent samples feed the EMA average; a
// smaller window keeps the average forward-aggressive rather than lagging
// far behind the live reading.
const tempSampleSize = 16

// EMAPre smooths the temperature source with a triangular moving average
// and feeds the graph stage the most recent smoothed value.
type EMAPre struct {
	window uint8
}

func newEMAPre(sampleWindow uint8) *EMAPre {
	w := sampleWindow
	if w == 0 {
		w = 8 // model.DefaultSampleWindow
	}
	return &EMAPre{window: w}
}

func (p *EMAPre) IsApplicable(data *SpeedProfileData) bool {
	return data.Temp == nil
}

func (p *EMAPre) Process(data *SpeedProfileData, reader TempReader) {
	samples := reader.RecentTemps(data.Profile.TempSource, tempSampleSize)
	if len(samples) == 0 {
		return
	}
	t := triangularMovingAverageLast(samples, int(p.window))
	rounded := math.Round(t*100) / 100
	data.Temp = &rounded
}

// triangularMovingAverageLast computes a triangular moving average (a
// simple moving average of a simple moving average, both of period window)
// over samples and returns its most recent value. window is clamped to
// len(samples) when the history is shorter than the configured window.
func triangularMovingAverageLast(samples []float64, window int) float64 {
	if window < 1 {
		window = 1
	}
	if window > len(samples) {
		window = len(samples)
	}
	first := simpleMovingAverage(samples, window)
	second := simpleMovingAverage(first, window)
	return second[len(second)-1]
}

func simpleMovingAverage(samples []float64, window int) []float64 {
	if window >= len(samples) {
		var sum float64
		for _, v := range samples {
			sum += v
		}
		return []float64{sum / float64(len(samples))}
	}
	out := make([]float64, 0, len(samples)-window+1)
	var sum float64
	for i, v := range samples {
		sum += v
		if i >= window {
			sum -= samples[i-window]
		}
		if i >= window-1 {
			out = append(out, sum/float64(window))
		}
	}
	return out
}
