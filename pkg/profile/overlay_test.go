// SPDX-License-Identifier: BSD-3-Clause

package profile

import (
	"testing"

	"github.com/coolerctl/coolerd/pkg/model"
	"github.com/stretchr/testify/require"
)

func TestNormalizeOffsets(t *testing.T) {
	t.Run("sorts by duty and clamps range", func(t *testing.T) {
		points := []model.OffsetPoint{
			{Duty: 80, Offset: -120},
			{Duty: 20, Offset: 110},
			{Duty: 50, Offset: 10},
		}
		got := NormalizeOffsets(points)
		require.Equal(t, []model.OffsetPoint{
			{Duty: 20, Offset: 100},
			{Duty: 50, Offset: 10},
			{Duty: 80, Offset: -100},
		}, got)
	})

	t.Run("duplicate duty keeps greater offset", func(t *testing.T) {
		points := []model.OffsetPoint{
			{Duty: 50, Offset: 5},
			{Duty: 50, Offset: 15},
		}
		got := NormalizeOffsets(points)
		require.Equal(t, []model.OffsetPoint{{Duty: 50, Offset: 15}}, got)
	})
}

func TestInterpolateOffset(t *testing.T) {
	points := NormalizeOffsets([]model.OffsetPoint{
		{Duty: 20, Offset: 0},
		{Duty: 80, Offset: 20},
	})

	cases := []struct {
		name string
		duty model.Duty
		want model.Offset
	}{
		{"below range clamps", 0, 0},
		{"above range clamps", 100, 20},
		{"exact point", 20, 0},
		{"midpoint interpolates", 50, 10},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, InterpolateOffset(points, c.duty))
		})
	}

	t.Run("empty profile returns zero", func(t *testing.T) {
		require.Equal(t, model.Offset(0), InterpolateOffset(nil, 50))
	})
}

func TestApply(t *testing.T) {
	points := NormalizeOffsets([]model.OffsetPoint{
		{Duty: 0, Offset: -10},
		{Duty: 100, Offset: 30},
	})

	t.Run("adds interpolated offset", func(t *testing.T) {
		require.Equal(t, model.Duty(60), Apply(points, 50))
	})

	t.Run("clamps sum to [0, 100]", func(t *testing.T) {
		clampLow := NormalizeOffsets([]model.OffsetPoint{{Duty: 0, Offset: -50}})
		require.Equal(t, model.Duty(0), Apply(clampLow, 5))

		clampHigh := NormalizeOffsets([]model.OffsetPoint{{Duty: 0, Offset: 50}})
		require.Equal(t, model.Duty(100), Apply(clampHigh, 90))
	})
}
