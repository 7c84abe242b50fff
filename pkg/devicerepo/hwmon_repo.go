// SPDX-License-Identifier: BSD-3-Clause

package devicerepo

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/coolerctl/coolerd/pkg/hwmon"
	"github.com/coolerctl/coolerd/pkg/model"
)

var pwmChannelPattern = regexp.MustCompile(`^pwm(\d+)$`)
var fanChannelPattern = regexp.MustCompile(`^fan(\d+)_input$`)
var tempChannelPattern = regexp.MustCompile(`^temp(\d+)_input$`)

// hwmonChannel is the sysfs file layout for one PWM-controlled fan channel.
type hwmonChannel struct {
	name       string
	pwmPath    string // pwmN
	enablePath string // pwmN_enable
	fanPath    string // fanN_input, "" if absent
}

// hwmonTemp is the sysfs file layout for one temperature input.
type hwmonTemp struct {
	name string
	path string // tempN_input, millidegrees C
}

// HwmonRepository implements Repository against Linux sysfs hwmon chips. It
// is the default backend on Linux targets; TypeIndex disambiguates multiple
// chips reporting the same Name.
type HwmonRepository struct {
	hwmonPath string

	mu       sync.Mutex
	devices  []*model.Device
	channels map[model.UID][]hwmonChannel
	temps    map[model.UID][]hwmonTemp

	pending map[model.UID]*pendingReading
}

type pendingReading struct {
	done chan reading
}

type reading struct {
	channels []model.ChannelStatus
	temps    []model.TempStatus
}

// NewHwmonRepository constructs a backend rooted at hwmon.DefaultHwmonPath.
func NewHwmonRepository() *HwmonRepository {
	return NewHwmonRepositoryAt(hwmon.DefaultHwmonPath)
}

// NewHwmonRepositoryAt constructs a backend rooted at an arbitrary sysfs
// hwmon directory, for testing against a fixture tree.
func NewHwmonRepositoryAt(path string) *HwmonRepository {
	return &HwmonRepository{
		hwmonPath: path,
		channels:  make(map[model.UID][]hwmonChannel),
		temps:     make(map[model.UID][]hwmonTemp),
		pending:   make(map[model.UID]*pendingReading),
	}
}

func (r *HwmonRepository) InitializeDevices(ctx context.Context) error {
	return r.discover(ctx)
}

func (r *HwmonRepository) ReinitializeDevices(ctx context.Context) error {
	return r.discover(ctx)
}

func (r *HwmonRepository) discover(ctx context.Context) error {
	chipPaths, err := hwmon.ListDevicesInPathCtx(ctx, r.hwmonPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prior := make(map[model.UID]*model.Device, len(r.devices))
	for _, d := range r.devices {
		prior[d.UID] = d
	}
	r.devices = r.devices[:0]
	r.channels = make(map[model.UID][]hwmonChannel)
	r.temps = make(map[model.UID][]hwmonTemp)

	byName := make(map[string]uint8)
	for _, chipPath := range chipPaths {
		name, err := hwmon.ReadStringCtx(ctx, filepath.Join(chipPath, "name"))
		if err != nil {
			continue // unreadable chip: skip rather than fail the whole discovery
		}
		idx := byName[name]
		byName[name]++

		channels, temps, info := r.discoverChip(ctx, chipPath)
		if len(channels) == 0 && len(temps) == 0 {
			continue
		}

		uid := model.NewDeterministicUID(fmt.Sprintf("hwmon:%s:%d", name, idx))
		dev := model.NewDevice(uid, name, model.DeviceTypeHwmon, idx, info)
		if old, ok := prior[uid]; ok {
			old.Info = dev.Info
			dev = old
		}
		r.devices = append(r.devices, dev)
		r.channels[uid] = channels
		r.temps[uid] = temps
	}
	return nil
}

func (r *HwmonRepository) discoverChip(ctx context.Context, chipPath string) ([]hwmonChannel, []hwmonTemp, model.DeviceInfo) {
	attrs, err := hwmon.ListAttributesCtx(ctx, chipPath, "")
	if err != nil {
		return nil, nil, model.DeviceInfo{}
	}

	pwmIndexes := map[string]bool{}
	fanIndexes := map[string]string{}
	tempIndexes := map[string]bool{}

	for _, attr := range attrs {
		base := filepath.Base(attr)
		if m := pwmChannelPattern.FindStringSubmatch(base); m != nil {
			pwmIndexes[m[1]] = true
		}
		if m := fanChannelPattern.FindStringSubmatch(base); m != nil {
			fanIndexes[m[1]] = base
		}
		if m := tempChannelPattern.FindStringSubmatch(base); m != nil {
			tempIndexes[m[1]] = true
		}
	}

	info := model.DeviceInfo{
		Channels: make(map[string]model.ChannelInfo),
		Temps:    make(map[string]model.TempInfo),
	}

	var channels []hwmonChannel
	for idx := range pwmIndexes {
		name := "pwm" + idx
		ch := hwmonChannel{
			name:       name,
			pwmPath:    filepath.Join(chipPath, name),
			enablePath: filepath.Join(chipPath, name+"_enable"),
		}
		if fanFile, ok := fanIndexes[idx]; ok {
			ch.fanPath = filepath.Join(chipPath, fanFile)
		}
		channels = append(channels, ch)
		info.Channels[name] = model.ChannelInfo{
			SpeedOptions: &model.SpeedOptions{
				MinDuty: 0, MaxDuty: 100,
				ProfilesEnabled: true, FixedEnabled: true, ManualControl: true,
			},
			Label: name,
		}
	}

	var temps []hwmonTemp
	for idx := range tempIndexes {
		name := "temp" + idx
		temps = append(temps, hwmonTemp{name: name, path: filepath.Join(chipPath, name+"_input")})
		info.Temps[name] = model.TempInfo{Label: name}
	}

	return channels, temps, info
}

func (r *HwmonRepository) Devices() []*model.Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Device, len(r.devices))
	copy(out, r.devices)
	return out
}

// PreloadStatuses launches one read per channel/temp file concurrently per
// device, without blocking; UpdateStatuses collects the results.
func (r *HwmonRepository) PreloadStatuses(ctx context.Context) error {
	r.mu.Lock()
	devices := make([]*model.Device, len(r.devices))
	copy(devices, r.devices)
	r.mu.Unlock()

	for _, dev := range devices {
		uid := dev.UID
		done := make(chan reading, 1)
		r.mu.Lock()
		r.pending[uid] = &pendingReading{done: done}
		channels := r.channels[uid]
		temps := r.temps[uid]
		r.mu.Unlock()

		go func() {
			done <- r.readDevice(ctx, channels, temps)
		}()
	}
	return nil
}

func (r *HwmonRepository) readDevice(ctx context.Context, channels []hwmonChannel, temps []hwmonTemp) reading {
	out := reading{}
	for _, ch := range channels {
		status := model.ChannelStatus{Name: ch.name}
		if v, err := hwmon.ReadIntCtx(ctx, ch.pwmPath); err == nil {
			d := model.Duty(v * 100 / 255)
			status.Duty = &d
		}
		if ch.fanPath != "" {
			if v, err := hwmon.ReadIntCtx(ctx, ch.fanPath); err == nil {
				rpm := int32(v)
				status.RPM = &rpm
			}
		}
		if v, err := hwmon.ReadIntCtx(ctx, ch.enablePath); err == nil {
			mode := int32(v)
			status.PwmMode = &mode
		}
		out.channels = append(out.channels, status)
	}
	for _, t := range temps {
		v, err := hwmon.ReadIntCtx(ctx, t.path)
		if err != nil {
			continue
		}
		out.temps = append(out.temps, model.TempStatus{Name: t.name, Temp: float64(v) / 1000.0})
	}
	return out
}

// UpdateStatuses waits for every in-flight PreloadStatuses read and appends
// the resulting snapshot to its device.
func (r *HwmonRepository) UpdateStatuses(ctx context.Context) error {
	r.mu.Lock()
	pending := r.pending
	r.pending = make(map[model.UID]*pendingReading)
	devices := make(map[model.UID]*model.Device, len(r.devices))
	for _, d := range r.devices {
		devices[d.UID] = d
	}
	r.mu.Unlock()

	now := time.Now()
	for uid, p := range pending {
		dev, ok := devices[uid]
		if !ok {
			continue
		}
		select {
		case res := <-p.done:
			dev.PushStatus(model.Status{Timestamp: now, Channels: res.channels, Temps: res.temps})
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrBackendUnavailable, ctx.Err())
		}
	}
	return nil
}

func (r *HwmonRepository) Shutdown(_ context.Context) error {
	return nil
}

func (r *HwmonRepository) channelPath(deviceUID model.UID, channel string) (hwmonChannel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ch := range r.channels[deviceUID] {
		if ch.name == channel {
			return ch, nil
		}
	}
	return hwmonChannel{}, fmt.Errorf("%w: %s/%s", ErrChannelNotFound, deviceUID, channel)
}

func (r *HwmonRepository) ApplySettingReset(ctx context.Context, deviceUID model.UID, channel string) error {
	return r.ApplySettingManualControl(ctx, deviceUID, channel)
}

func (r *HwmonRepository) ApplySettingManualControl(ctx context.Context, deviceUID model.UID, channel string) error {
	ch, err := r.channelPath(deviceUID, channel)
	if err != nil {
		return err
	}
	return hwmon.WriteIntCtx(ctx, ch.enablePath, 1)
}

func (r *HwmonRepository) ApplySettingSpeedFixed(ctx context.Context, deviceUID model.UID, channel string, duty model.Duty) error {
	ch, err := r.channelPath(deviceUID, channel)
	if err != nil {
		return err
	}
	raw := int(duty) * 255 / 100
	return hwmon.WriteIntCtx(ctx, ch.pwmPath, raw)
}

func (r *HwmonRepository) ApplySettingSpeedProfile(ctx context.Context, deviceUID model.UID, channel string, _ model.TempSource, profile model.NormalizedGraphProfile) error {
	// The graph is evaluated by the function/profile packages upstream; by
	// the time the commander reaches the repository it has only a fixed
	// duty to apply. This entry point exists for backends (e.g. a future
	// firmware-side curve upload) that can accept the whole curve at once.
	if len(profile.SpeedProfile) == 0 {
		return nil
	}
	return r.ApplySettingSpeedFixed(ctx, deviceUID, channel, profile.SpeedProfile[len(profile.SpeedProfile)-1].Duty)
}

func (r *HwmonRepository) ApplySettingLighting(_ context.Context, deviceUID model.UID, channel string, _ model.LightingSettings) error {
	return fmt.Errorf("%w: hwmon channel %s/%s has no lighting capability", ErrUnsupportedSetting, deviceUID, channel)
}

func (r *HwmonRepository) ApplySettingLCD(_ context.Context, deviceUID model.UID, channel string, _ model.LcdSettings, _ []byte) error {
	return fmt.Errorf("%w: hwmon channel %s/%s has no LCD capability", ErrUnsupportedSetting, deviceUID, channel)
}

func (r *HwmonRepository) ApplySettingPwmMode(ctx context.Context, deviceUID model.UID, channel string, mode int32) error {
	ch, err := r.channelPath(deviceUID, channel)
	if err != nil {
		return err
	}
	return hwmon.WriteIntCtx(ctx, ch.enablePath, int(mode))
}

var _ Repository = (*HwmonRepository)(nil)
