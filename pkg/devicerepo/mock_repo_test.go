// SPDX-License-Identifier: BSD-3-Clause

package devicerepo

import (
	"context"
	"testing"

	"github.com/coolerctl/coolerd/pkg/model"
	"github.com/stretchr/testify/require"
)

func TestMockRepositoryClampsAppliedDuty(t *testing.T) {
	repo := NewMockRepository([]MockDeviceSpec{
		{
			Name: "d",
			Channels: []MockChannel{
				{Name: "fan1", Caps: model.SpeedOptions{MinDuty: 20, MaxDuty: 90}},
			},
		},
	})
	ctx := context.Background()
	require.NoError(t, repo.InitializeDevices(ctx))
	dev := repo.Devices()[0]

	require.NoError(t, repo.ApplySettingSpeedFixed(ctx, dev.UID, "fan1", 5))
	require.NoError(t, repo.UpdateStatuses(ctx))
	status, ok := dev.StatusCurrent()
	require.True(t, ok)
	ch, ok := status.ChannelStatus("fan1")
	require.True(t, ok)
	require.Equal(t, model.Duty(20), *ch.Duty)

	require.NoError(t, repo.ApplySettingSpeedFixed(ctx, dev.UID, "fan1", 99))
	require.NoError(t, repo.UpdateStatuses(ctx))
	status, _ = dev.StatusCurrent()
	ch, _ = status.ChannelStatus("fan1")
	require.Equal(t, model.Duty(90), *ch.Duty)
}

func TestMockRepositoryUnknownChannelErrors(t *testing.T) {
	repo := NewMockRepository(DefaultMockSpecs())
	ctx := context.Background()
	require.NoError(t, repo.InitializeDevices(ctx))
	dev := repo.Devices()[0]

	err := repo.ApplySettingSpeedFixed(ctx, dev.UID, "does-not-exist", 50)
	require.ErrorIs(t, err, ErrChannelNotFound)
}

func TestMockRepositoryTempsStayInRange(t *testing.T) {
	specs := DefaultMockSpecs()
	repo := NewMockRepository(specs)
	ctx := context.Background()
	require.NoError(t, repo.InitializeDevices(ctx))
	require.NoError(t, repo.UpdateStatuses(ctx))

	for i, dev := range repo.Devices() {
		status, ok := dev.StatusCurrent()
		require.True(t, ok)
		require.Len(t, status.Temps, len(specs[i].Temps))
		for j, ts := range status.Temps {
			require.GreaterOrEqual(t, ts.Temp, specs[i].Temps[j].Min)
			require.LessOrEqual(t, ts.Temp, specs[i].Temps[j].Max)
		}
	}
}
