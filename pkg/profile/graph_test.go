// SPDX-License-Identifier: BSD-3-Clause

package profile

import (
	"testing"

	"github.com/coolerctl/coolerd/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Run("sorts, dedupes and terminates at max duty", func(t *testing.T) {
		points := []model.TempPoint{
			{Temp: 50, Duty: 75},
			{Temp: 30, Duty: 50},
			{Temp: 70, Duty: 100},
			{Temp: 50, Duty: 60}, // duplicate temp, lesser duty: dropped
		}
		got := Normalize(points, 90)
		require.Equal(t, []model.TempPoint{
			{Temp: 30, Duty: 50},
			{Temp: 50, Duty: 75},
			{Temp: 70, Duty: 100},
		}, got)
	})

	t.Run("enforces monotonic non-decreasing duty", func(t *testing.T) {
		points := []model.TempPoint{
			{Temp: 30, Duty: 80},
			{Temp: 50, Duty: 40}, // would decrease; clamped up to 80
		}
		got := Normalize(points, 90)
		for i := 1; i < len(got); i++ {
			assert.GreaterOrEqual(t, got[i].Duty, got[i-1].Duty)
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		points := []model.TempPoint{
			{Temp: 30, Duty: 50},
			{Temp: 50, Duty: 75},
		}
		once := Normalize(points, 90)
		twice := Normalize(once, 90)
		require.Equal(t, once, twice)
	})

	t.Run("terminates with exactly one max duty point", func(t *testing.T) {
		points := []model.TempPoint{
			{Temp: 30, Duty: 100},
			{Temp: 50, Duty: 100},
			{Temp: 70, Duty: 50},
		}
		got := Normalize(points, 90)
		maxCount := 0
		for _, p := range got {
			if p.Duty == MaxDuty {
				maxCount++
			}
		}
		require.Equal(t, 1, maxCount)
		require.Equal(t, got[len(got)-1].Duty, MaxDuty)
	})
}

func TestInterpolate(t *testing.T) {
	profile := Normalize([]model.TempPoint{
		{Temp: 30, Duty: 50},
		{Temp: 50, Duty: 75},
		{Temp: 70, Duty: 100},
	}, 90)

	cases := []struct {
		name string
		temp float64
		want model.Duty
	}{
		{"exact point", 50, 75},
		{"below range clamps to first", 10, 50},
		{"above range clamps to last", 95, 100},
		{"midpoint interpolates", 40, 63}, // 50 + (75-50)*0.5 = 62.5 -> rounds to 63
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, Interpolate(profile, c.temp))
		})
	}

	t.Run("empty profile returns zero", func(t *testing.T) {
		require.Equal(t, model.Duty(0), Interpolate(nil, 50))
	})

	t.Run("single point returns its duty regardless of temp", func(t *testing.T) {
		single := []model.TempPoint{{Temp: 40, Duty: 66}}
		require.Equal(t, model.Duty(66), Interpolate(single, 10))
		require.Equal(t, model.Duty(66), Interpolate(single, 90))
	})

	t.Run("monotonic non-decreasing", func(t *testing.T) {
		var last model.Duty
		for temp := 0.0; temp <= 100.0; temp += 0.5 {
			d := Interpolate(profile, temp)
			assert.GreaterOrEqual(t, d, last)
			last = d
		}
	})
}
