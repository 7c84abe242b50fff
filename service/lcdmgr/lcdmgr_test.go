// SPDX-License-Identifier: BSD-3-Clause

package lcdmgr

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coolerctl/coolerd/pkg/configstore"
	"github.com/coolerctl/coolerd/pkg/devicerepo"
	"github.com/coolerctl/coolerd/pkg/model"
)

func newTestLcdmgr(t *testing.T) (*Lcdmgr, model.UID) {
	t.Helper()
	store, err := configstore.New(configstore.WithDir(t.TempDir()))
	require.NoError(t, err)
	require.NoError(t, store.Load())

	mock := devicerepo.NewMockRepository(devicerepo.DefaultMockSpecs())
	registry := devicerepo.NewRegistry()
	registry.AddRepository(mock)
	require.NoError(t, registry.InitializeAll(context.Background()))
	require.NoError(t, mock.UpdateStatuses(context.Background()))

	l := New()
	l.store = store
	l.logger = slog.Default()
	l.registry = registry

	return l, registry.Devices()[0].UID
}

func TestScheduleRejectsUnsupportedMode(t *testing.T) {
	l, deviceUID := newTestLcdmgr(t)
	err := l.Schedule(deviceUID, "fan1", model.LcdSettings{Mode: "rainbow"})
	require.ErrorIs(t, err, ErrUnsupportedMode)
}

func TestScheduleRejectsOutOfRangeCarouselInterval(t *testing.T) {
	l, deviceUID := newTestLcdmgr(t)
	err := l.Schedule(deviceUID, "fan1", model.LcdSettings{
		Mode: modeCarousel, ImagesDir: t.TempDir(), Interval: time.Second,
	})
	require.ErrorIs(t, err, ErrInvalidInterval)

	err = l.Schedule(deviceUID, "fan1", model.LcdSettings{
		Mode: modeCarousel, ImagesDir: t.TempDir(), Interval: 20 * time.Minute,
	})
	require.ErrorIs(t, err, ErrInvalidInterval)
}

func TestScheduleRejectsCarouselWithoutImagesDir(t *testing.T) {
	l, deviceUID := newTestLcdmgr(t)
	err := l.Schedule(deviceUID, "fan1", model.LcdSettings{Mode: modeCarousel, Interval: 30 * time.Second})
	require.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestScheduleSingleTempPersistsAndTracksInMemory(t *testing.T) {
	l, deviceUID := newTestLcdmgr(t)
	settings := model.LcdSettings{Mode: modeSingleTemp, Label: "CPU"}
	require.NoError(t, l.Schedule(deviceUID, "fan1", settings))

	binding := model.Binding{DeviceUID: deviceUID, ChannelName: "fan1", Via: model.BindingDirect}
	l.mu.Lock()
	sched, ok := l.schedules[binding]
	l.mu.Unlock()
	require.True(t, ok)
	require.Equal(t, settings, sched.settings)

	persisted := l.store.DeviceSettings(deviceUID)
	require.NotNil(t, persisted["fan1"].Lcd)
	require.Equal(t, modeSingleTemp, persisted["fan1"].Lcd.Mode)
}

func TestUnschedule(t *testing.T) {
	l, deviceUID := newTestLcdmgr(t)
	require.NoError(t, l.Schedule(deviceUID, "fan1", model.LcdSettings{Mode: modeSingleTemp}))

	l.Unschedule(deviceUID, "fan1")

	binding := model.Binding{DeviceUID: deviceUID, ChannelName: "fan1", Via: model.BindingDirect}
	l.mu.Lock()
	_, ok := l.schedules[binding]
	l.mu.Unlock()
	require.False(t, ok)
}

func TestSyncFromStorePicksUpAndDropsSettings(t *testing.T) {
	l, deviceUID := newTestLcdmgr(t)
	settings := model.LcdSettings{Mode: modeSingleTemp, Label: "CPU"}
	require.NoError(t, l.store.SetDeviceSetting(deviceUID, "fan1", model.Setting{Lcd: &settings}))

	l.syncFromStore(context.Background())

	binding := model.Binding{DeviceUID: deviceUID, ChannelName: "fan1", Via: model.BindingDirect}
	l.mu.Lock()
	_, ok := l.schedules[binding]
	l.mu.Unlock()
	require.True(t, ok)

	require.NoError(t, l.store.SetDeviceSetting(deviceUID, "fan1", model.Setting{ResetToDefault: true}))
	l.syncFromStore(context.Background())

	l.mu.Lock()
	_, ok = l.schedules[binding]
	l.mu.Unlock()
	require.False(t, ok)
}

func TestLcdDimensionsFallsBackToScreenSize(t *testing.T) {
	l, deviceUID := newTestLcdmgr(t)
	w, h := l.lcdDimensions(model.Binding{DeviceUID: deviceUID, ChannelName: "fan1"})
	require.Equal(t, 320, w)
	require.Equal(t, 320, h)
}
