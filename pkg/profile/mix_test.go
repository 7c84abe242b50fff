// SPDX-License-Identifier: BSD-3-Clause

package profile

import (
	"testing"

	"github.com/coolerctl/coolerd/pkg/model"
	"github.com/stretchr/testify/require"
)

func TestReduce(t *testing.T) {
	values := []model.Duty{40, 60, 80}

	cases := []struct {
		name string
		fn   model.MixFunctionType
		want model.Duty
	}{
		{"min", model.MixFunctionMin, 40},
		{"max", model.MixFunctionMax, 80},
		{"avg", model.MixFunctionAvg, 60},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, Reduce(c.fn, values))
		})
	}

	t.Run("single member returns itself for every function", func(t *testing.T) {
		single := []model.Duty{55}
		require.Equal(t, model.Duty(55), Reduce(model.MixFunctionMin, single))
		require.Equal(t, model.Duty(55), Reduce(model.MixFunctionMax, single))
		require.Equal(t, model.Duty(55), Reduce(model.MixFunctionAvg, single))
	})

	t.Run("avg truncates toward zero", func(t *testing.T) {
		require.Equal(t, model.Duty(33), Reduce(model.MixFunctionAvg, []model.Duty{33, 34, 33}))
	})

	t.Run("result stays within member bounds", func(t *testing.T) {
		members := []model.Duty{10, 90, 50}
		for _, fn := range []model.MixFunctionType{model.MixFunctionMin, model.MixFunctionMax, model.MixFunctionAvg} {
			got := Reduce(fn, members)
			require.GreaterOrEqual(t, got, model.Duty(10))
			require.LessOrEqual(t, got, model.Duty(90))
		}
	})
}
