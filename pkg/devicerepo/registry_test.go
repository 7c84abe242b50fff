// SPDX-License-Identifier: BSD-3-Clause

package devicerepo

import (
	"context"
	"testing"

	"github.com/coolerctl/coolerd/pkg/model"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) (*Registry, *MockRepository) {
	t.Helper()
	repo := NewMockRepository([]MockDeviceSpec{
		{
			Name: "Test Device",
			Type: model.DeviceTypeCPU,
			Channels: []MockChannel{
				{Name: "fan1", Caps: model.SpeedOptions{MinDuty: 0, MaxDuty: 100, FixedEnabled: true}},
			},
			Temps: []MockTemp{{Name: "temp1", Min: 40, Max: 40}},
		},
	})
	reg := NewRegistry()
	reg.AddRepository(repo)
	require.NoError(t, reg.InitializeAll(context.Background()))
	require.NoError(t, reg.Repositories()[0].PreloadStatuses(context.Background()))
	require.NoError(t, reg.Repositories()[0].UpdateStatuses(context.Background()))
	return reg, repo
}

func TestRegistryDeviceLookup(t *testing.T) {
	reg, repo := newTestRegistry(t)

	devices := repo.Devices()
	require.Len(t, devices, 1)

	dev, ok := reg.Device(devices[0].UID)
	require.True(t, ok)
	require.Equal(t, "Test Device", dev.Name)

	_, ok = reg.Device("does-not-exist")
	require.False(t, ok)
}

func TestRegistryRecentTemps(t *testing.T) {
	reg, repo := newTestRegistry(t)
	dev := repo.Devices()[0]

	temps := reg.RecentTemps(model.TempSource{DeviceUID: dev.UID, TempName: "temp1"}, 1)
	require.Len(t, temps, 1)
	require.InDelta(t, 40, temps[0], 0.01)
}

func TestRegistryApplyDispatchesToOwner(t *testing.T) {
	reg, repo := newTestRegistry(t)
	dev := repo.Devices()[0]

	err := reg.ApplySettingSpeedFixed(context.Background(), dev.UID, "fan1", 75)
	require.NoError(t, err)

	err = reg.ApplySettingSpeedFixed(context.Background(), "unknown-device", "fan1", 75)
	require.ErrorIs(t, err, ErrDeviceNotFound)
}
