// SPDX-License-Identifier: BSD-3-Clause

package function

import "github.com/coolerctl/coolerd/pkg/profile"

// GraphProc interpolates the pipeline's resolved temperature against the
// profile's normalized speed curve.
type GraphProc struct{}

func (p *GraphProc) IsApplicable(data *SpeedProfileData) bool {
	return data.Temp != nil && data.Duty == nil
}

func (p *GraphProc) Process(data *SpeedProfileData, _ TempReader) {
	d := profile.Interpolate(data.Profile.SpeedProfile, *data.Temp)
	data.Duty = &d
}
