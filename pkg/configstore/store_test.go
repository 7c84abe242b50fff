// SPDX-License-Identifier: BSD-3-Clause

package configstore

import (
	"testing"

	"github.com/coolerctl/coolerd/pkg/model"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(WithDir(t.TempDir()))
	require.NoError(t, err)
	require.NoError(t, s.Load())
	return s
}

func TestStoreModeRoundTrip(t *testing.T) {
	s := newTestStore(t)
	mode := model.Mode{UID: "m1", Name: "Silent", AllDeviceSettings: map[model.UID]map[string]model.Setting{}}
	require.NoError(t, s.UpsertMode(mode))

	reloaded, err := New(WithDir(dirOf(t, s)))
	require.NoError(t, err)
	require.NoError(t, reloaded.Load())

	modes := reloaded.Modes()
	require.Len(t, modes, 1)
	require.Equal(t, mode.UID, modes[0].UID)
	require.Equal(t, mode.Name, modes[0].Name)
}

func TestStoreAlertSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.UpsertAlert(model.Alert{UID: "a1", Name: "CPU high", Min: 0, Max: 80}))

	reloaded, err := New(WithDir(dirOf(t, s)))
	require.NoError(t, err)
	require.NoError(t, reloaded.Load())
	require.Equal(t, s.Alerts(), reloaded.Alerts())
}

func TestStoreAlertLogRingCapacity(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < AlertLogCapacity+5; i++ {
		require.NoError(t, s.AppendAlertLog(model.AlertLog{UID: model.NewUID()}))
	}
	require.Len(t, s.AlertLogs(), AlertLogCapacity)
}

func TestStoreRemoveProfileFromModes(t *testing.T) {
	s := newTestStore(t)
	profileUID := model.UID("p1")
	otherProfile := model.UID("p2")
	mode := model.Mode{
		UID:  "m1",
		Name: "mode",
		AllDeviceSettings: map[model.UID]map[string]model.Setting{
			"dev1": {
				"fan1": {ProfileUID: &profileUID},
				"fan2": {ProfileUID: &otherProfile},
			},
			"dev2": {
				"fan1": {ProfileUID: &profileUID},
			},
		},
	}
	require.NoError(t, s.UpsertMode(mode))
	require.NoError(t, s.RemoveProfileFromModes(profileUID))

	modes := s.Modes()
	require.Len(t, modes, 1)
	dev1, ok := modes[0].AllDeviceSettings["dev1"]
	require.True(t, ok)
	_, hasFan1 := dev1["fan1"]
	require.False(t, hasFan1)
	_, hasFan2 := dev1["fan2"]
	require.True(t, hasFan2)

	_, hasDev2 := modes[0].AllDeviceSettings["dev2"]
	require.False(t, hasDev2, "device sub-map emptied by the removal must be dropped")
}

func TestStoreDeviceSettingsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetDeviceSetting("dev1", "fan1", model.Setting{Disabled: true}))

	reloaded, err := New(WithDir(dirOf(t, s)))
	require.NoError(t, err)
	require.NoError(t, reloaded.Load())

	settings := reloaded.DeviceSettings("dev1")
	require.True(t, settings["fan1"].Disabled)
}

func dirOf(t *testing.T, s *Store) string {
	t.Helper()
	return s.cfg.dir
}
