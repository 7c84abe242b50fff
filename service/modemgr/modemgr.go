// SPDX-License-Identifier: BSD-3-Clause

package modemgr

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/nats-io/nats.go/micro"

	"github.com/coolerctl/coolerd/pkg/configstore"
	"github.com/coolerctl/coolerd/pkg/devicerepo"
	"github.com/coolerctl/coolerd/pkg/ipc"
	"github.com/coolerctl/coolerd/pkg/log"
	"github.com/coolerctl/coolerd/pkg/model"
	"github.com/coolerctl/coolerd/service"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var _ service.Service = (*Modemgr)(nil)

// ProfileScheduler is the subset of speedmgr's Scheduler that Modemgr needs
// to hand a channel's duty control back to a Graph/Mix/Overlay profile, or
// to take it away again when a mode moves a channel off a profile.
type ProfileScheduler interface {
	ScheduleChannel(deviceUID model.UID, channel string, profileUID model.UID) error
	UnscheduleChannel(deviceUID model.UID, channel string)
}

// modeEvent is the payload published on a mode activation.
type modeEvent struct {
	ModeUID   model.UID `json:"mode_uid"`
	ModeName  string    `json:"mode_name"`
	Timestamp time.Time `json:"timestamp"`
}

// Modemgr applies a Mode's saved per-device, per-channel settings against
// the live device registry, diffing against what is currently applied so
// that activating a mode only touches the channels it actually changes.
type Modemgr struct {
	config *config

	store *configstore.Store

	nc           *nats.Conn
	js           jetstream.JetStream
	microService micro.Service

	mu        sync.Mutex
	registry  *devicerepo.Registry
	scheduler ProfileScheduler

	logger *slog.Logger
	tracer trace.Tracer
}

// New creates a new Modemgr instance with the provided options.
func New(opts ...Option) *Modemgr {
	return &Modemgr{
		config: newConfig(opts...),
	}
}

// Name returns the service name.
func (m *Modemgr) Name() string {
	return m.config.serviceName
}

// SetRegistry attaches the device registry owning hardware access, for
// in-process composition with speedmgr. Must be called before Run.
func (m *Modemgr) SetRegistry(r *devicerepo.Registry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry = r
}

// SetScheduler attaches speedmgr's scheduler so that activating a mode can
// reassign channels that are driven by a Graph/Mix/Overlay profile rather
// than a fixed duty. Must be called before Run.
func (m *Modemgr) SetScheduler(s ProfileScheduler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scheduler = s
}

// Run connects to the in-process NATS server, registers the mode
// controller's IPC endpoints, and subscribes to speedmgr's wake
// notification so a resume re-applies the active mode.
func (m *Modemgr) Run(ctx context.Context, ipcConn nats.InProcessConnProvider) error {
	m.tracer = otel.Tracer(m.config.serviceName)
	ctx, span := m.tracer.Start(ctx, "modemgr.Run")
	defer span.End()

	m.logger = log.GetGlobalLogger().With("service", m.config.serviceName)
	m.logger.InfoContext(ctx, "Starting mode controller service", "version", m.config.serviceVersion)

	if err := m.config.Validate(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}

	nc, err := nats.Connect("", nats.InProcessServer(ipcConn))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrNATSConnectionFailed, err)
	}
	m.nc = nc
	defer nc.Drain() //nolint:errcheck

	js, err := jetstream.New(nc)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrNATSConnectionFailed, err)
	}
	m.js = js
	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        "MODEMGR_EVENTS",
		Description: "Mode Controller activation history",
		Subjects:    []string{ipc.StreamSubjectModeEvents},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		MaxMsgs:     -1,
		MaxBytes:    -1,
	}); err != nil {
		m.logger.WarnContext(ctx, "Failed to configure mode event stream", "error", err)
	}

	if err := m.initialize(ctx); err != nil {
		span.RecordError(err)
		return err
	}

	m.microService, err = micro.AddService(nc, micro.Config{
		Name:        m.config.serviceName,
		Description: m.config.serviceDescription,
		Version:     m.config.serviceVersion,
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrMicroServiceCreationFailed, err)
	}

	if err := m.registerEndpoints(); err != nil {
		span.RecordError(err)
		return err
	}

	wakeSub, err := nc.Subscribe(ipc.InternalSchedulerWake, func(*nats.Msg) {
		m.reapplyActiveMode(context.WithoutCancel(ctx))
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrNATSConnectionFailed, err)
	}
	defer wakeSub.Unsubscribe() //nolint:errcheck

	span.SetAttributes(attribute.String("service.name", m.config.serviceName))
	m.logger.InfoContext(ctx, "Mode controller service started", "modes", len(m.store.Modes()))

	<-ctx.Done()
	return ctx.Err()
}

func (m *Modemgr) initialize(ctx context.Context) error {
	store, err := configstore.New(configstore.WithDir(m.config.configDir), configstore.WithLogger(m.logger))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	if err := store.Load(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	m.store = store

	m.mu.Lock()
	registry := m.registry
	m.mu.Unlock()
	if registry == nil {
		reg := devicerepo.NewRegistry()
		reg.AddRepository(devicerepo.NewHwmonRepository())
		if err := reg.InitializeAll(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrDeviceRegistryRequired, err)
		}
		m.mu.Lock()
		m.registry = reg
		m.mu.Unlock()
	}
	return nil
}

// reapplyActiveMode re-applies whatever mode is currently active, e.g.
// after a sleep/wake cycle reinitializes devices and drops their applied
// settings.
func (m *Modemgr) reapplyActiveMode(ctx context.Context) {
	current, _ := m.store.ActiveMode()
	if current == nil {
		return
	}
	if err := m.activateLocked(ctx, *current, true); err != nil {
		m.logger.WarnContext(ctx, "Failed to reapply active mode on wake", "mode", *current, "error", err)
	}
}

// Activate applies the named mode's settings and, on success, persists it
// as the active mode and broadcasts the activation. If the mode is already
// active, it re-broadcasts without touching hardware.
func (m *Modemgr) Activate(ctx context.Context, modeUID model.UID) error {
	return m.activateLocked(ctx, modeUID, false)
}

func (m *Modemgr) activateLocked(ctx context.Context, modeUID model.UID, force bool) error {
	m.mu.Lock()
	registry := m.registry
	m.mu.Unlock()
	if registry == nil {
		return ErrDeviceRegistryRequired
	}

	target, ok := m.findMode(modeUID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrModeNotFound, modeUID)
	}

	current, _ := m.store.ActiveMode()
	alreadyActive := current != nil && *current == modeUID

	if !alreadyActive || force {
		if err := m.applyMode(ctx, registry, target); err != nil {
			return err
		}
		if !alreadyActive {
			if err := m.store.SetActiveMode(modeUID); err != nil {
				return fmt.Errorf("persist active mode: %w", err)
			}
		}
	}

	m.broadcastActivation(ctx, target)
	return nil
}

func (m *Modemgr) findMode(modeUID model.UID) (model.Mode, bool) {
	for _, md := range m.store.Modes() {
		if md.UID == modeUID {
			return md, true
		}
	}
	return model.Mode{}, false
}

// applyMode diffs each device's saved channel settings against the mode's
// target settings and applies only what changed, concurrently across
// devices.
func (m *Modemgr) applyMode(ctx context.Context, registry *devicerepo.Registry, mode model.Mode) error {
	devices := registry.Devices()

	var wg sync.WaitGroup
	errs := make([]error, len(devices))
	wg.Add(len(devices))
	for i, dev := range devices {
		go func(i int, dev *model.Device) {
			defer wg.Done()
			errs[i] = m.applyDevice(ctx, registry, dev.UID, mode.AllDeviceSettings[dev.UID])
		}(i, dev)
	}
	wg.Wait()

	var joined error
	for _, err := range errs {
		if err != nil {
			joined = err
		}
	}
	return joined
}

// applyDevice reconciles one device's saved channel settings with desired
// (the mode's settings for that device, nil if the mode has none): channels
// only present in saved are reset, channels whose setting differs are
// applied unless disabled, and unchanged channels are left alone.
func (m *Modemgr) applyDevice(ctx context.Context, registry *devicerepo.Registry, deviceUID model.UID, desired map[string]model.Setting) error {
	saved := m.store.DeviceSettings(deviceUID)

	if desired == nil {
		for channel := range saved {
			m.resetChannel(ctx, registry, deviceUID, channel)
		}
		return nil
	}

	for channel := range saved {
		if _, ok := desired[channel]; !ok {
			m.resetChannel(ctx, registry, deviceUID, channel)
		}
	}

	for channel, want := range desired {
		if have, ok := saved[channel]; ok && settingsEqual(have, want) {
			continue
		}
		if want.Disabled {
			continue
		}
		m.applyChannel(ctx, registry, deviceUID, channel, want)
	}

	return nil
}

func (m *Modemgr) resetChannel(ctx context.Context, registry *devicerepo.Registry, deviceUID model.UID, channel string) {
	m.mu.Lock()
	scheduler := m.scheduler
	m.mu.Unlock()
	if scheduler != nil {
		scheduler.UnscheduleChannel(deviceUID, channel)
	}
	if err := registry.ApplySettingReset(ctx, deviceUID, channel); err != nil {
		m.logger.WarnContext(ctx, "Failed to reset channel", "device", deviceUID, "channel", channel, "error", err)
	}
	if err := m.store.SetDeviceSetting(deviceUID, channel, model.Setting{ResetToDefault: true}); err != nil {
		m.logger.WarnContext(ctx, "Failed to persist channel reset", "device", deviceUID, "channel", channel, "error", err)
	}
}

func (m *Modemgr) applyChannel(ctx context.Context, registry *devicerepo.Registry, deviceUID model.UID, channel string, setting model.Setting) {
	m.mu.Lock()
	scheduler := m.scheduler
	m.mu.Unlock()

	var err error
	switch {
	case setting.ProfileUID != nil:
		if scheduler != nil {
			err = scheduler.ScheduleChannel(deviceUID, channel, *setting.ProfileUID)
		} else {
			err = fmt.Errorf("no scheduler attached to apply profile %s", *setting.ProfileUID)
		}
	case setting.SpeedFixed != nil:
		if scheduler != nil {
			scheduler.UnscheduleChannel(deviceUID, channel)
		}
		err = registry.ApplySettingSpeedFixed(ctx, deviceUID, channel, *setting.SpeedFixed)
	case setting.Lighting != nil:
		err = registry.ApplySettingLighting(ctx, deviceUID, channel, *setting.Lighting)
	case setting.PwmMode != nil:
		err = registry.ApplySettingPwmMode(ctx, deviceUID, channel, *setting.PwmMode)
	case setting.Lcd != nil:
		// LCD rendering and per-frame application is lcdmgr's job; persisting
		// the setting below is enough for lcdmgr's own poll loop to pick it
		// up.
	case setting.ResetToDefault:
		if scheduler != nil {
			scheduler.UnscheduleChannel(deviceUID, channel)
		}
		err = registry.ApplySettingReset(ctx, deviceUID, channel)
	}

	if err != nil {
		m.logger.WarnContext(ctx, "Failed to apply channel setting", "device", deviceUID, "channel", channel, "error", err)
	}
	if err := m.store.SetDeviceSetting(deviceUID, channel, setting); err != nil {
		m.logger.WarnContext(ctx, "Failed to persist channel setting", "device", deviceUID, "channel", channel, "error", err)
	}
}

func settingsEqual(a, b model.Setting) bool {
	ad, _ := json.Marshal(a)
	bd, _ := json.Marshal(b)
	return string(ad) == string(bd)
}

func (m *Modemgr) broadcastActivation(ctx context.Context, mode model.Mode) {
	evt := modeEvent{ModeUID: mode.UID, ModeName: mode.Name, Timestamp: time.Now()}
	data, err := json.Marshal(evt)
	if err != nil {
		m.logger.WarnContext(ctx, "Failed to marshal mode event", "error", err)
		return
	}
	if err := m.nc.Publish(ipc.SubjectModeEvent, data); err != nil {
		m.logger.WarnContext(ctx, "Failed to publish mode event", "error", err)
	}
	if err := m.nc.Publish(fmt.Sprintf("modemgr.event.%s", mode.UID), data); err != nil {
		m.logger.WarnContext(ctx, "Failed to archive mode event", "error", err)
	}
}
