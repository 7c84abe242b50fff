// SPDX-License-Identifier: BSD-3-Clause

package alertmgr

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coolerctl/coolerd/pkg/devicerepo"
	"github.com/coolerctl/coolerd/pkg/model"
	"github.com/coolerctl/coolerd/pkg/state"
)

func newTestRegistry(t *testing.T) (*devicerepo.Registry, model.UID) {
	t.Helper()
	mock := devicerepo.NewMockRepository(devicerepo.DefaultMockSpecs())
	registry := devicerepo.NewRegistry()
	registry.AddRepository(mock)
	require.NoError(t, registry.InitializeAll(context.Background()))
	require.NoError(t, mock.UpdateStatuses(context.Background()))
	require.NotEmpty(t, registry.Devices())
	return registry, registry.Devices()[0].UID
}

func TestResolveValueDuty(t *testing.T) {
	registry, deviceUID := newTestRegistry(t)
	source := model.ChannelSource{DeviceUID: deviceUID, ChannelName: "fan1", Metric: model.MetricDuty}

	value, ok := resolveValue(source, registry)
	require.True(t, ok)
	require.Equal(t, 0.0, value) // mock repo starts every channel at duty 0
}

func TestResolveValueTemp(t *testing.T) {
	registry, deviceUID := newTestRegistry(t)
	source := model.ChannelSource{DeviceUID: deviceUID, ChannelName: "temp1", Metric: model.MetricTemp}

	value, ok := resolveValue(source, registry)
	require.True(t, ok)
	require.GreaterOrEqual(t, value, 35.0)
	require.LessOrEqual(t, value, 80.0)
}

func TestResolveValueLoadReadsDuty(t *testing.T) {
	registry, deviceUID := newTestRegistry(t)
	source := model.ChannelSource{DeviceUID: deviceUID, ChannelName: "fan1", Metric: model.MetricLoad}
	dutySource := model.ChannelSource{DeviceUID: deviceUID, ChannelName: "fan1", Metric: model.MetricDuty}

	duty, ok := resolveValue(dutySource, registry)
	require.True(t, ok)

	value, ok := resolveValue(source, registry)
	require.True(t, ok)
	require.Equal(t, duty, value)
}

func TestResolveValueUnknownDevice(t *testing.T) {
	registry, _ := newTestRegistry(t)
	source := model.ChannelSource{DeviceUID: model.NewUID(), ChannelName: "fan1", Metric: model.MetricDuty}

	_, ok := resolveValue(source, registry)
	require.False(t, ok)
}

func TestClassify(t *testing.T) {
	registry, deviceUID := newTestRegistry(t)
	source := model.ChannelSource{DeviceUID: deviceUID, ChannelName: "fan1", Metric: model.MetricDuty}

	inRange := model.Alert{ChannelSource: source, Min: -1, Max: 1}
	require.Equal(t, state.AlertTriggerInRange, classify(inRange, registry))

	outOfRange := model.Alert{ChannelSource: source, Min: 10, Max: 20}
	require.Equal(t, state.AlertTriggerOutOfRange, classify(outOfRange, registry))

	unavailable := model.Alert{
		ChannelSource: model.ChannelSource{DeviceUID: deviceUID, ChannelName: "missing", Metric: model.MetricDuty},
		Min:           0, Max: 100,
	}
	require.Equal(t, state.AlertTriggerUnavailable, classify(unavailable, registry))
}

func TestAlertStateFor(t *testing.T) {
	s, ok := alertStateFor(state.AlertStateActive)
	require.True(t, ok)
	require.Equal(t, model.AlertStateActive, s)

	s, ok = alertStateFor(state.AlertStateInactive)
	require.True(t, ok)
	require.Equal(t, model.AlertStateInactive, s)

	s, ok = alertStateFor(state.AlertStateError)
	require.True(t, ok)
	require.Equal(t, model.AlertStateError, s)

	_, ok = alertStateFor(state.AlertStateWarmUp)
	require.False(t, ok)
}

func TestLoadWatchersAddsUpdatesAndPrunes(t *testing.T) {
	a := New()
	a.logger = slog.Default()

	al1 := model.Alert{UID: model.NewUID(), Name: "one", ChannelSource: model.ChannelSource{Metric: model.MetricTemp}, Min: 0, Max: 50, WarmupDuration: time.Second}
	a.loadWatchers([]model.Alert{al1})
	require.Len(t, a.watchers, 1)
	firstWatcher := a.watchers[al1.UID]

	// Reloading with the identical definition keeps the same watcher.
	a.loadWatchers([]model.Alert{al1})
	require.Same(t, firstWatcher, a.watchers[al1.UID])

	// Changing the definition replaces the watcher.
	al1Changed := al1
	al1Changed.Max = 60
	a.loadWatchers([]model.Alert{al1Changed})
	require.NotSame(t, firstWatcher, a.watchers[al1.UID])

	// Dropping the alert removes its watcher.
	a.loadWatchers(nil)
	require.Empty(t, a.watchers)
}

func TestEvaluateEntersWarmUpWithoutBroadcasting(t *testing.T) {
	registry, deviceUID := newTestRegistry(t)
	a := New()
	a.logger = slog.Default()

	al := model.Alert{
		UID:            model.NewUID(),
		Name:           "fan1-duty",
		ChannelSource:  model.ChannelSource{DeviceUID: deviceUID, ChannelName: "fan1", Metric: model.MetricDuty},
		Min:            10,
		Max:            20,
		WarmupDuration: time.Minute,
	}
	a.loadWatchers([]model.Alert{al})
	w := a.watchers[al.UID]
	require.Equal(t, state.AlertStateInactive, w.fsm.CurrentState())

	// fan1 duty is 0, out of [10, 20]: Inactive -> WarmUp. a.nc is nil, so a
	// panic here would mean evaluate tried to broadcast a transient state.
	a.evaluate(context.Background(), registry, w)
	require.Equal(t, state.AlertStateWarmUp, w.fsm.CurrentState())
}
