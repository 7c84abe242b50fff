// SPDX-License-Identifier: BSD-3-Clause

package function

// IdentityPre feeds the latest raw temperature sample straight to the graph
// stage, with no smoothing or hysteresis.
type IdentityPre struct{}

func (p *IdentityPre) IsApplicable(data *SpeedProfileData) bool {
	return data.Temp == nil
}

func (p *IdentityPre) Process(data *SpeedProfileData, reader TempReader) {
	samples := reader.RecentTemps(data.Profile.TempSource, 1)
	if len(samples) == 0 {
		return
	}
	t := samples[len(samples)-1]
	data.Temp = &t
}
