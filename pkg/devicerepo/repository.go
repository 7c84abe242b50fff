// SPDX-License-Identifier: BSD-3-Clause

package devicerepo

import (
	"context"

	"github.com/coolerctl/coolerd/pkg/model"
)

// Repository is the device backend contract. Every call is fallible and
// every call that touches hardware honors ctx cancellation.
// Implementations own the Device values they return from Devices and are
// the only writers of their status history.
type Repository interface {
	// InitializeDevices discovers and constructs this backend's devices.
	InitializeDevices(ctx context.Context) error
	// Devices returns the backend's devices, in discovery order. The
	// returned slice and the Device pointers it holds are shared with the
	// registry; callers must not mutate a Device directly.
	Devices() []*model.Device
	// PreloadStatuses begins gathering a fresh status reading for every
	// device, without blocking on hardware I/O that UpdateStatuses will
	// wait for. Repositories without a preload/commit split treat this as
	// a no-op.
	PreloadStatuses(ctx context.Context) error
	// UpdateStatuses finalizes the readings begun by PreloadStatuses and
	// appends a model.Status snapshot to each device.
	UpdateStatuses(ctx context.Context) error
	// Shutdown releases backend resources (file handles, subprocesses).
	Shutdown(ctx context.Context) error
	// ReinitializeDevices rediscovers devices after a wake-from-sleep or a
	// hotplug event, without losing existing status history where the
	// device UID is stable across the rediscovery.
	ReinitializeDevices(ctx context.Context) error

	ApplySettingReset(ctx context.Context, deviceUID model.UID, channel string) error
	ApplySettingManualControl(ctx context.Context, deviceUID model.UID, channel string) error
	ApplySettingSpeedFixed(ctx context.Context, deviceUID model.UID, channel string, duty model.Duty) error
	ApplySettingSpeedProfile(ctx context.Context, deviceUID model.UID, channel string, source model.TempSource, profile model.NormalizedGraphProfile) error
	ApplySettingLighting(ctx context.Context, deviceUID model.UID, channel string, settings model.LightingSettings) error
	ApplySettingLCD(ctx context.Context, deviceUID model.UID, channel string, settings model.LcdSettings, image []byte) error
	ApplySettingPwmMode(ctx context.Context, deviceUID model.UID, channel string, mode int32) error
}
