// SPDX-License-Identifier: BSD-3-Clause

package modemgr

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coolerctl/coolerd/pkg/configstore"
	"github.com/coolerctl/coolerd/pkg/devicerepo"
	"github.com/coolerctl/coolerd/pkg/model"
)

func newTestModemgr(t *testing.T) (*Modemgr, *devicerepo.Registry, model.UID) {
	t.Helper()

	store, err := configstore.New(configstore.WithDir(t.TempDir()))
	require.NoError(t, err)
	require.NoError(t, store.Load())

	mock := devicerepo.NewMockRepository(devicerepo.DefaultMockSpecs())
	registry := devicerepo.NewRegistry()
	registry.AddRepository(mock)
	require.NoError(t, registry.InitializeAll(context.Background()))
	require.NotEmpty(t, registry.Devices())
	deviceUID := registry.Devices()[0].UID

	m := New()
	m.store = store
	m.logger = slog.Default()
	m.SetRegistry(registry)

	return m, registry, deviceUID
}

func TestSettingsEqual(t *testing.T) {
	fixed := model.Duty(50)
	a := model.Setting{SpeedFixed: &fixed}
	b := model.Setting{SpeedFixed: &fixed}
	require.True(t, settingsEqual(a, b))

	other := model.Duty(60)
	c := model.Setting{SpeedFixed: &other}
	require.False(t, settingsEqual(a, c))
}

func TestApplyDeviceWithNilDesiredResetsSavedChannels(t *testing.T) {
	m, registry, deviceUID := newTestModemgr(t)
	fixed := model.Duty(70)
	require.NoError(t, m.store.SetDeviceSetting(deviceUID, "fan1", model.Setting{SpeedFixed: &fixed}))

	require.NoError(t, m.applyDevice(context.Background(), registry, deviceUID, nil))

	got := m.store.DeviceSettings(deviceUID)
	require.True(t, got["fan1"].ResetToDefault)
}

func TestApplyDeviceAppliesChangedAndResetsDropped(t *testing.T) {
	m, registry, deviceUID := newTestModemgr(t)
	oldFixed := model.Duty(30)
	require.NoError(t, m.store.SetDeviceSetting(deviceUID, "fan1", model.Setting{SpeedFixed: &oldFixed}))
	require.NoError(t, m.store.SetDeviceSetting(deviceUID, "pump", model.Setting{SpeedFixed: &oldFixed}))

	newFixed := model.Duty(80)
	desired := map[string]model.Setting{
		"fan1": {SpeedFixed: &newFixed},
	}

	require.NoError(t, m.applyDevice(context.Background(), registry, deviceUID, desired))

	got := m.store.DeviceSettings(deviceUID)
	require.NotNil(t, got["fan1"].SpeedFixed)
	require.Equal(t, newFixed, *got["fan1"].SpeedFixed)
	require.True(t, got["pump"].ResetToDefault)
}

func TestApplyDeviceSkipsUnchangedAndDisabled(t *testing.T) {
	m, registry, deviceUID := newTestModemgr(t)
	fixed := model.Duty(55)
	require.NoError(t, m.store.SetDeviceSetting(deviceUID, "fan1", model.Setting{SpeedFixed: &fixed}))
	require.NoError(t, m.store.SetDeviceSetting(deviceUID, "pump", model.Setting{SpeedFixed: &fixed, Disabled: true}))

	desired := map[string]model.Setting{
		"fan1": {SpeedFixed: &fixed},
		"pump": {SpeedFixed: &fixed, Disabled: true},
	}
	require.NoError(t, m.applyDevice(context.Background(), registry, deviceUID, desired))

	got := m.store.DeviceSettings(deviceUID)
	require.Equal(t, fixed, *got["fan1"].SpeedFixed)
	require.False(t, got["pump"].ResetToDefault)
}

func TestApplyChannelWithoutSchedulerFailsProfileSetting(t *testing.T) {
	m, registry, deviceUID := newTestModemgr(t)
	profileUID := model.NewUID()
	m.applyChannel(context.Background(), registry, deviceUID, "fan1", model.Setting{ProfileUID: &profileUID})

	got := m.store.DeviceSettings(deviceUID)
	require.Equal(t, profileUID, *got["fan1"].ProfileUID)
}

type stubScheduler struct {
	scheduled   map[string]model.UID
	unscheduled []string
}

func newStubScheduler() *stubScheduler {
	return &stubScheduler{scheduled: make(map[string]model.UID)}
}

func (s *stubScheduler) ScheduleChannel(_ model.UID, channel string, profileUID model.UID) error {
	s.scheduled[channel] = profileUID
	return nil
}

func (s *stubScheduler) UnscheduleChannel(_ model.UID, channel string) {
	s.unscheduled = append(s.unscheduled, channel)
}

func TestApplyChannelRoutesProfileThroughScheduler(t *testing.T) {
	m, registry, deviceUID := newTestModemgr(t)
	sched := newStubScheduler()
	m.SetScheduler(sched)

	profileUID := model.NewUID()
	m.applyChannel(context.Background(), registry, deviceUID, "fan1", model.Setting{ProfileUID: &profileUID})

	require.Equal(t, profileUID, sched.scheduled["fan1"])
}

func TestFindMode(t *testing.T) {
	m, _, _ := newTestModemgr(t)
	mode := model.Mode{UID: model.NewUID(), Name: "Silent"}
	require.NoError(t, m.store.UpsertMode(mode))

	found, ok := m.findMode(mode.UID)
	require.True(t, ok)
	require.Equal(t, mode.Name, found.Name)

	_, ok = m.findMode(model.NewUID())
	require.False(t, ok)
}
