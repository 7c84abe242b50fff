// SPDX-License-Identifier: BSD-3-Clause

package devicerepo

import (
	"context"
	"fmt"

	"github.com/coolerctl/coolerd/pkg/model"
)

// Registry is the process-wide device directory, shared by reference
// across the scheduling loop, alert evaluation and IPC handlers. It
// aggregates one or more Repositories behind a single lookup and dispatches
// apply calls to the repository that owns the target device.
//
// The Registry itself holds no device status; it only indexes pointers
// into the owning Repository's Devices. It is safe for concurrent readers
// once InitializeAll has returned; repository additions are not safe to
// interleave with reads.
type Registry struct {
	repos []Repository
	owner map[model.UID]Repository
	byUID map[model.UID]*model.Device
}

// NewRegistry constructs an empty Registry. Call AddRepository for each
// backend before InitializeAll.
func NewRegistry() *Registry {
	return &Registry{
		owner: make(map[model.UID]Repository),
		byUID: make(map[model.UID]*model.Device),
	}
}

// AddRepository registers a backend. Order determines iteration order for
// PreloadStatuses/UpdateStatuses fan-out in the scheduling loop.
func (r *Registry) AddRepository(repo Repository) {
	r.repos = append(r.repos, repo)
}

// Repositories returns the registered backends, for the scheduling loop's
// per-tick preload/update fan-out.
func (r *Registry) Repositories() []Repository {
	return r.repos
}

// InitializeAll calls InitializeDevices on every registered repository and
// rebuilds the UID index. A backend failure is returned immediately; the
// caller decides whether a partial device set is acceptable.
func (r *Registry) InitializeAll(ctx context.Context) error {
	for _, repo := range r.repos {
		if err := repo.InitializeDevices(ctx); err != nil {
			return fmt.Errorf("initialize devices: %w", err)
		}
	}
	r.rebuildIndex()
	return nil
}

// ReinitializeAll rediscovers every backend's devices (wake-from-sleep,
// hotplug) and rebuilds the UID index.
func (r *Registry) ReinitializeAll(ctx context.Context) error {
	for _, repo := range r.repos {
		if err := repo.ReinitializeDevices(ctx); err != nil {
			return fmt.Errorf("reinitialize devices: %w", err)
		}
	}
	r.rebuildIndex()
	return nil
}

// ShutdownAll releases every backend's resources.
func (r *Registry) ShutdownAll(ctx context.Context) error {
	for _, repo := range r.repos {
		if err := repo.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown device backend: %w", err)
		}
	}
	return nil
}

func (r *Registry) rebuildIndex() {
	r.owner = make(map[model.UID]Repository)
	r.byUID = make(map[model.UID]*model.Device)
	for _, repo := range r.repos {
		for _, dev := range repo.Devices() {
			r.owner[dev.UID] = repo
			r.byUID[dev.UID] = dev
		}
	}
}

// Device returns the device with the given UID, if any.
func (r *Registry) Device(uid model.UID) (*model.Device, bool) {
	d, ok := r.byUID[uid]
	return d, ok
}

// Devices returns every registered device across all backends.
func (r *Registry) Devices() []*model.Device {
	out := make([]*model.Device, 0, len(r.byUID))
	for _, repo := range r.repos {
		out = append(out, repo.Devices()...)
	}
	return out
}

// RecentTemps implements pkg/function.TempReader: it returns up to n recent
// samples for source, oldest first, or nil if the device is unknown.
func (r *Registry) RecentTemps(source model.TempSource, n int) []float64 {
	dev, ok := r.byUID[source.DeviceUID]
	if !ok {
		return nil
	}
	return dev.RecentTemps(source.TempName, n)
}

func (r *Registry) repoFor(deviceUID model.UID) (Repository, error) {
	repo, ok := r.owner[deviceUID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceUID)
	}
	return repo, nil
}

// ApplySettingReset routes a reset apply to the owning backend.
func (r *Registry) ApplySettingReset(ctx context.Context, deviceUID model.UID, channel string) error {
	repo, err := r.repoFor(deviceUID)
	if err != nil {
		return err
	}
	return repo.ApplySettingReset(ctx, deviceUID, channel)
}

// ApplySettingManualControl routes a manual-control apply to the owning backend.
func (r *Registry) ApplySettingManualControl(ctx context.Context, deviceUID model.UID, channel string) error {
	repo, err := r.repoFor(deviceUID)
	if err != nil {
		return err
	}
	return repo.ApplySettingManualControl(ctx, deviceUID, channel)
}

// ApplySettingSpeedFixed routes a fixed-duty apply to the owning backend.
func (r *Registry) ApplySettingSpeedFixed(ctx context.Context, deviceUID model.UID, channel string, duty model.Duty) error {
	repo, err := r.repoFor(deviceUID)
	if err != nil {
		return err
	}
	return repo.ApplySettingSpeedFixed(ctx, deviceUID, channel, duty)
}

// ApplySettingSpeedProfile routes a speed-profile apply to the owning backend.
func (r *Registry) ApplySettingSpeedProfile(ctx context.Context, deviceUID model.UID, channel string, source model.TempSource, profile model.NormalizedGraphProfile) error {
	repo, err := r.repoFor(deviceUID)
	if err != nil {
		return err
	}
	return repo.ApplySettingSpeedProfile(ctx, deviceUID, channel, source, profile)
}

// ApplySettingLighting routes a lighting apply to the owning backend.
func (r *Registry) ApplySettingLighting(ctx context.Context, deviceUID model.UID, channel string, settings model.LightingSettings) error {
	repo, err := r.repoFor(deviceUID)
	if err != nil {
		return err
	}
	return repo.ApplySettingLighting(ctx, deviceUID, channel, settings)
}

// ApplySettingLCD routes an LCD apply to the owning backend.
func (r *Registry) ApplySettingLCD(ctx context.Context, deviceUID model.UID, channel string, settings model.LcdSettings, image []byte) error {
	repo, err := r.repoFor(deviceUID)
	if err != nil {
		return err
	}
	return repo.ApplySettingLCD(ctx, deviceUID, channel, settings, image)
}

// ApplySettingPwmMode routes a PWM-mode apply to the owning backend.
func (r *Registry) ApplySettingPwmMode(ctx context.Context, deviceUID model.UID, channel string, mode int32) error {
	repo, err := r.repoFor(deviceUID)
	if err != nil {
		return err
	}
	return repo.ApplySettingPwmMode(ctx, deviceUID, channel, mode)
}
