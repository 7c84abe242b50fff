// SPDX-License-Identifier: BSD-3-Clause

package profile

import "github.com/coolerctl/coolerd/pkg/model"

// Reduce combines a Mix profile's member duties per its configured
// MixFunctionType. Callers must not call Reduce with an empty slice; the
// Mix Commander emits None upstream when every member is absent, rather
// than calling Reduce.
//
// The result always lies within [min(values), max(values)].
func Reduce(fn model.MixFunctionType, values []model.Duty) model.Duty {
	switch fn {
	case model.MixFunctionMin:
		m := values[0]
		for _, v := range values[1:] {
			if v < m {
				m = v
			}
		}
		return m
	case model.MixFunctionMax:
		m := values[0]
		for _, v := range values[1:] {
			if v > m {
				m = v
			}
		}
		return m
	case model.MixFunctionAvg:
		var sum int
		for _, v := range values {
			sum += int(v)
		}
		return model.Duty(sum / len(values))
	default:
		return values[0]
	}
}
