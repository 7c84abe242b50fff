// SPDX-License-Identifier: BSD-3-Clause

package function

import (
	"io"
	"log/slog"
	"testing"

	"github.com/coolerctl/coolerd/pkg/model"
	"github.com/coolerctl/coolerd/pkg/profile"
	"github.com/stretchr/testify/require"
)

// fakeReader is a deterministic TempReader backed by a fixed sample series,
// the newest sample last.
type fakeReader struct {
	samples []float64
}

func (r *fakeReader) RecentTemps(_ model.TempSource, n int) []float64 {
	if n >= len(r.samples) || n <= 0 {
		return append([]float64(nil), r.samples...)
	}
	return append([]float64(nil), r.samples[len(r.samples)-n:]...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func normalizedProfile(uid model.UID, tuning model.Function) model.NormalizedGraphProfile {
	points := profile.Normalize([]model.TempPoint{
		{Temp: 30, Duty: 20},
		{Temp: 50, Duty: 60},
		{Temp: 70, Duty: 100},
	}, 90)
	return model.NormalizedGraphProfile{
		ProfileUID:   uid,
		SpeedProfile: points,
		TempSource:   model.TempSource{DeviceUID: "dev", TempName: "temp1"},
		Function:     tuning,
	}
}

func TestPipelineIdentity(t *testing.T) {
	tuning := model.Function{FType: model.FunctionTypeIdentity}
	p := NewPipeline("p1", tuning, testLogger())
	np := normalizedProfile("p1", tuning)
	reader := &fakeReader{samples: []float64{55}}

	duty, ok := p.Run(reader, np, model.FunctionTypeIdentity)
	require.True(t, ok)
	require.Equal(t, model.Duty(70), duty) // interpolated between (50,60) and (70,100)
}

func TestPipelineSafetyLatchBound(t *testing.T) {
	tuning := model.Function{FType: model.FunctionTypeStandard, ResponseDelay: 0, Deviance: 0.01, OnlyDownward: false, DutyMinimum: 50, DutyMaximum: 100}
	p := NewPipeline("p2", tuning, testLogger())
	np := normalizedProfile("p2", tuning)
	reader := &fakeReader{samples: []float64{40}}

	var suppressedRun int
	var everEmitted bool
	for i := 0; i < 90; i++ {
		_, ok := p.Run(reader, np, model.FunctionTypeStandard)
		if ok {
			everEmitted = true
			suppressedRun = 0
		} else {
			suppressedRun++
		}
		require.LessOrEqual(t, suppressedRun, MaxNoDutySetCount,
			"safety latch must force an emission at least every %d ticks", MaxNoDutySetCount)
	}
	require.True(t, everEmitted)
}

func TestDutyThresholdSuppressesSmallChange(t *testing.T) {
	post := newDutyThresholdPost(10, 100)
	d1 := model.Duty(50)
	data := &SpeedProfileData{Duty: &d1}
	post.Process(data, nil)
	require.NotNil(t, data.Duty)

	d2 := model.Duty(55) // diff 5 < duty_minimum 10
	data = &SpeedProfileData{Duty: &d2}
	post.Process(data, nil)
	require.Nil(t, data.Duty)
}

func TestDutyThresholdClampsLargeChange(t *testing.T) {
	post := newDutyThresholdPost(0, 10)
	d1 := model.Duty(50)
	data := &SpeedProfileData{Duty: &d1}
	post.Process(data, nil)

	d2 := model.Duty(90) // diff 40 > duty_maximum 10
	data = &SpeedProfileData{Duty: &d2}
	post.Process(data, nil)
	require.NotNil(t, data.Duty)
	require.Equal(t, model.Duty(60), *data.Duty)
}

func TestDutyThresholdSafetyLatchOverridesSuppression(t *testing.T) {
	post := newDutyThresholdPost(10, 100)
	d1 := model.Duty(50)
	data := &SpeedProfileData{Duty: &d1}
	post.Process(data, nil)

	d2 := model.Duty(52)
	data = &SpeedProfileData{Duty: &d2, SafetyLatchTriggered: true}
	post.Process(data, nil)
	require.NotNil(t, data.Duty, "safety latch must force emission through the threshold")
}
