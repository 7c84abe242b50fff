// SPDX-License-Identifier: BSD-3-Clause

package devicerepo

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/coolerctl/coolerd/pkg/model"
)

// MockChannel seeds one fan/pump channel of a MockDevice.
type MockChannel struct {
	Name string
	Caps model.SpeedOptions
}

// MockTemp seeds one temperature source of a MockDevice, oscillating
// sinusoidally between Min and Max with the given Period for deterministic,
// reproducible demo and test traces.
type MockTemp struct {
	Name   string
	Min    float64
	Max    float64
	Period time.Duration
}

// MockDeviceSpec seeds one synthetic device.
type MockDeviceSpec struct {
	Name     string
	Type     model.DeviceType
	Channels []MockChannel
	Temps    []MockTemp
}

// MockRepository is a deterministic in-memory Repository used by the
// default binary's demo mode and by tests that need a Repository without
// real hardware. Temperatures evolve as a function of elapsed time since
// construction; applied duties are recorded and echoed back on the next
// status update.
type MockRepository struct {
	start time.Time

	mu      sync.Mutex
	devices []*model.Device
	specs   map[model.UID]MockDeviceSpec
	applied map[model.UID]map[string]model.Duty
}

// NewMockRepository constructs a backend from the given device specs. An
// empty specs list is valid and yields zero devices.
func NewMockRepository(specs []MockDeviceSpec) *MockRepository {
	r := &MockRepository{
		specs:   make(map[model.UID]MockDeviceSpec),
		applied: make(map[model.UID]map[string]model.Duty),
	}
	r.SeedSpecs(specs)
	return r
}

// DefaultMockSpecs returns a small, representative fixture: one CPU-style
// device with a single fan channel and a dynamic CPU temp, and one
// liquidctl-style pump/fan combo.
func DefaultMockSpecs() []MockDeviceSpec {
	return []MockDeviceSpec{
		{
			Name: "Mock CPU",
			Type: model.DeviceTypeCPU,
			Channels: []MockChannel{
				{Name: "fan1", Caps: model.SpeedOptions{MinDuty: 20, MaxDuty: 100, ProfilesEnabled: true, FixedEnabled: true, ManualControl: true}},
			},
			Temps: []MockTemp{
				{Name: "temp1", Min: 35, Max: 80, Period: 2 * time.Minute},
			},
		},
		{
			Name: "Mock Liquidctl Pump",
			Type: model.DeviceTypeLiquidctl,
			Channels: []MockChannel{
				{Name: "pump", Caps: model.SpeedOptions{MinDuty: 40, MaxDuty: 100, ProfilesEnabled: true, FixedEnabled: true, ManualControl: true}},
				{Name: "fan1", Caps: model.SpeedOptions{MinDuty: 0, MaxDuty: 100, ProfilesEnabled: true, FixedEnabled: true, ManualControl: true}},
			},
			Temps: []MockTemp{
				{Name: "liquid", Min: 25, Max: 45, Period: 90 * time.Second},
			},
		},
	}
}

func (r *MockRepository) InitializeDevices(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.start = time.Now()
	return nil
}

// SeedSpecs (re)builds the device set from specs, discarding any prior
// devices and their status history. Call once before scheduling a tick.
func (r *MockRepository) SeedSpecs(specs []MockDeviceSpec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices = r.devices[:0]
	r.specs = make(map[model.UID]MockDeviceSpec)
	r.applied = make(map[model.UID]map[string]model.Duty)

	byType := map[model.DeviceType]uint8{}
	for _, spec := range specs {
		idx := byType[spec.Type]
		byType[spec.Type]++

		info := model.DeviceInfo{
			Channels: make(map[string]model.ChannelInfo),
			Temps:    make(map[string]model.TempInfo),
		}
		for _, ch := range spec.Channels {
			caps := ch.Caps
			info.Channels[ch.Name] = model.ChannelInfo{SpeedOptions: &caps, Label: ch.Name}
		}
		for _, t := range spec.Temps {
			info.Temps[t.Name] = model.TempInfo{Label: t.Name}
		}

		uid := model.NewUID()
		dev := model.NewDevice(uid, spec.Name, spec.Type, idx, info)
		r.devices = append(r.devices, dev)
		r.specs[uid] = spec
		r.applied[uid] = make(map[string]model.Duty)
	}
}

func (r *MockRepository) ReinitializeDevices(ctx context.Context) error {
	return r.InitializeDevices(ctx)
}

func (r *MockRepository) Devices() []*model.Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Device, len(r.devices))
	copy(out, r.devices)
	return out
}

func (r *MockRepository) PreloadStatuses(_ context.Context) error {
	return nil // synthetic readings need no asynchronous I/O
}

func (r *MockRepository) UpdateStatuses(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	elapsed := time.Since(r.start)
	now := time.Now()
	for _, dev := range r.devices {
		spec := r.specs[dev.UID]
		status := model.Status{Timestamp: now}
		for _, t := range spec.Temps {
			status.Temps = append(status.Temps, model.TempStatus{Name: t.Name, Temp: oscillate(t, elapsed)})
		}
		for _, ch := range spec.Channels {
			d := r.applied[dev.UID][ch.Name]
			status.Channels = append(status.Channels, model.ChannelStatus{Name: ch.Name, Duty: &d})
		}
		dev.PushStatus(status)
	}
	return nil
}

// oscillate returns a value in [t.Min, t.Max] following a sine wave of
// period t.Period, so repeated runs against the same elapsed duration are
// reproducible.
func oscillate(t MockTemp, elapsed time.Duration) float64 {
	if t.Period <= 0 {
		return t.Min
	}
	phase := 2 * math.Pi * float64(elapsed) / float64(t.Period)
	mid := (t.Min + t.Max) / 2
	amp := (t.Max - t.Min) / 2
	return mid + amp*math.Sin(phase)
}

func (r *MockRepository) Shutdown(_ context.Context) error {
	return nil
}

func (r *MockRepository) channel(deviceUID model.UID, channel string) (MockChannel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	spec, ok := r.specs[deviceUID]
	if !ok {
		return MockChannel{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceUID)
	}
	for _, ch := range spec.Channels {
		if ch.Name == channel {
			return ch, nil
		}
	}
	return MockChannel{}, fmt.Errorf("%w: %s/%s", ErrChannelNotFound, deviceUID, channel)
}

func (r *MockRepository) setApplied(deviceUID model.UID, channel string, duty model.Duty) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.applied[deviceUID] == nil {
		r.applied[deviceUID] = make(map[string]model.Duty)
	}
	r.applied[deviceUID][channel] = duty
}

func (r *MockRepository) ApplySettingReset(_ context.Context, deviceUID model.UID, channel string) error {
	if _, err := r.channel(deviceUID, channel); err != nil {
		return err
	}
	r.setApplied(deviceUID, channel, 0)
	return nil
}

func (r *MockRepository) ApplySettingManualControl(_ context.Context, deviceUID model.UID, channel string) error {
	_, err := r.channel(deviceUID, channel)
	return err
}

func (r *MockRepository) ApplySettingSpeedFixed(_ context.Context, deviceUID model.UID, channel string, duty model.Duty) error {
	ch, err := r.channel(deviceUID, channel)
	if err != nil {
		return err
	}
	if duty < ch.Caps.MinDuty {
		duty = ch.Caps.MinDuty
	}
	if duty > ch.Caps.MaxDuty {
		duty = ch.Caps.MaxDuty
	}
	r.setApplied(deviceUID, channel, duty)
	return nil
}

func (r *MockRepository) ApplySettingSpeedProfile(ctx context.Context, deviceUID model.UID, channel string, _ model.TempSource, profile model.NormalizedGraphProfile) error {
	if len(profile.SpeedProfile) == 0 {
		return nil
	}
	return r.ApplySettingSpeedFixed(ctx, deviceUID, channel, profile.SpeedProfile[len(profile.SpeedProfile)-1].Duty)
}

func (r *MockRepository) ApplySettingLighting(_ context.Context, deviceUID model.UID, channel string, _ model.LightingSettings) error {
	_, err := r.channel(deviceUID, channel)
	return err
}

func (r *MockRepository) ApplySettingLCD(_ context.Context, deviceUID model.UID, channel string, _ model.LcdSettings, _ []byte) error {
	_, err := r.channel(deviceUID, channel)
	return err
}

func (r *MockRepository) ApplySettingPwmMode(_ context.Context, deviceUID model.UID, channel string, _ int32) error {
	_, err := r.channel(deviceUID, channel)
	return err
}

var _ Repository = (*MockRepository)(nil)
