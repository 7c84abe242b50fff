// SPDX-License-Identifier: BSD-3-Clause

package speedmgr

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"

	"github.com/coolerctl/coolerd/pkg/configstore"
	"github.com/coolerctl/coolerd/pkg/devicerepo"
	ipcconst "github.com/coolerctl/coolerd/pkg/ipc"
	"github.com/coolerctl/coolerd/pkg/log"
	"github.com/coolerctl/coolerd/pkg/model"
	"github.com/coolerctl/coolerd/service"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var _ service.Service = (*Speedmgr)(nil)

// Speedmgr is the main scheduling loop: it owns the device registry, the
// config store and the Graph/Mix/Overlay commanders, and drives one tick of
// preload → snapshot → evaluate → fan-out → alert-hook per configured
// interval.
type Speedmgr struct {
	config *config

	registry  *devicerepo.Registry
	store     *configstore.Store
	scheduler *Scheduler

	nc           *nats.Conn
	microService micro.Service

	// alertHook and lcdHook let the operator wire modemgr/alertmgr/lcdmgr's
	// work into the same tick cadence without speedmgr importing them
	// directly (service/operator supervises them as independent processes;
	// these hooks are for in-process composition in tests and simpler
	// deployments).
	mu        sync.Mutex
	alertHook func(ctx context.Context)
	lcdHook   func(ctx context.Context)

	logger *slog.Logger
	tracer trace.Tracer

	sleeping bool
}

// New creates a new Speedmgr instance with the provided options.
func New(opts ...Option) *Speedmgr {
	return &Speedmgr{
		config: newConfig(opts...),
	}
}

// Name returns the service name.
func (s *Speedmgr) Name() string {
	return s.config.serviceName
}

// SetAlertHook registers a callback invoked once per tick, after duty
// fan-out, to evaluate alerts against the fresh device status snapshot.
func (s *Speedmgr) SetAlertHook(fn func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alertHook = fn
}

// SetLCDHook registers a callback invoked on the slower LCD cadence.
func (s *Speedmgr) SetLCDHook(fn func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lcdHook = fn
}

// Registry returns the device registry, for use by modemgr, alertmgr and
// lcdmgr when composed in the same process as speedmgr.
func (s *Speedmgr) Registry() *devicerepo.Registry {
	return s.registry
}

// Scheduler returns the profile scheduler, so that IPC handlers (profile
// upsert, mode activation) can (re)assign channels.
func (s *Speedmgr) Scheduler() *Scheduler {
	return s.scheduler
}

// Run starts the scheduling loop and registers its NATS IPC endpoints.
func (s *Speedmgr) Run(ctx context.Context, ipcConn nats.InProcessConnProvider) error {
	s.tracer = otel.Tracer(s.config.serviceName)
	ctx, span := s.tracer.Start(ctx, "speedmgr.Run")
	defer span.End()

	s.logger = log.GetGlobalLogger().With("service", s.config.serviceName)
	s.logger.InfoContext(ctx, "Starting speed manager service", "version", s.config.serviceVersion)

	if err := s.config.Validate(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}

	nc, err := nats.Connect("", nats.InProcessServer(ipcConn))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrNATSConnectionFailed, err)
	}
	s.nc = nc
	defer nc.Drain() //nolint:errcheck

	if err := s.initialize(ctx); err != nil {
		span.RecordError(err)
		return err
	}
	defer func() {
		shutdownCtx := context.WithoutCancel(ctx)
		if err := s.registry.ShutdownAll(shutdownCtx); err != nil {
			s.logger.WarnContext(shutdownCtx, "Device registry shutdown failed", "error", err)
		}
	}()

	s.microService, err = micro.AddService(nc, micro.Config{
		Name:        s.config.serviceName,
		Description: s.config.serviceDescription,
		Version:     s.config.serviceVersion,
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrMicroServiceCreationFailed, err)
	}

	if err := s.registerEndpoints(); err != nil {
		span.RecordError(err)
		return err
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.runSchedulingLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		s.runLCDLoop(ctx)
	}()

	span.SetAttributes(attribute.String("service.name", s.config.serviceName))
	s.logger.InfoContext(ctx, "Speed manager service started",
		"devices", len(s.registry.Devices()),
		"tick_interval", s.config.tickInterval)

	<-ctx.Done()
	wg.Wait()

	return ctx.Err()
}

func (s *Speedmgr) initialize(ctx context.Context) error {
	store, err := configstore.New(configstore.WithDir(s.config.configDir), configstore.WithLogger(s.logger))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	if err := store.Load(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	s.store = store

	registry := devicerepo.NewRegistry()
	if s.config.useHwmon {
		registry.AddRepository(devicerepo.NewHwmonRepository())
	}
	if err := registry.InitializeAll(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceInitFailed, err)
	}
	s.registry = registry

	s.scheduler = NewScheduler(s.criticalTempFor, s.logger)
	s.scheduler.LoadDefinitions(store.Profiles(), store.Functions())
	s.applyDeviceSettings(ctx)

	return nil
}

// criticalTempFor resolves a device's configured temp_max, falling back to
// model.DefaultTempMax when the device is unknown.
func (s *Speedmgr) criticalTempFor(deviceUID model.UID) float64 {
	dev, ok := s.registry.Device(deviceUID)
	if !ok {
		return float64(model.DefaultTempMax)
	}
	return float64(dev.Info.TempMax)
}

// applyDeviceSettings schedules every persisted per-channel setting that
// names a profile, skipping disabled channels.
func (s *Speedmgr) applyDeviceSettings(ctx context.Context) {
	for _, dev := range s.registry.Devices() {
		for channel, setting := range s.store.DeviceSettings(dev.UID) {
			if setting.Disabled || setting.ProfileUID == nil {
				continue
			}
			if err := s.scheduler.ScheduleChannel(dev.UID, channel, *setting.ProfileUID); err != nil {
				s.logger.WarnContext(ctx, "Failed to schedule channel on startup",
					"device", dev.UID, "channel", channel, "profile", *setting.ProfileUID, "error", err)
			}
		}
	}
}

// runSchedulingLoop drives the per-tick pipeline: preload, snapshot,
// Graph → Mix → Overlay, fan-out, alert hook.
func (s *Speedmgr) runSchedulingLoop(ctx context.Context) {
	ticker := time.NewTicker(s.config.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			sleeping := s.sleeping
			s.mu.Unlock()
			if sleeping {
				continue
			}
			start := time.Now()
			s.tick(ctx)
			if s.config.onTick != nil {
				s.config.onTick(time.Since(start))
			}
		}
	}
}

func (s *Speedmgr) tick(ctx context.Context) {
	var wg sync.WaitGroup
	repos := s.registry.Repositories()
	wg.Add(len(repos))
	for _, repo := range repos {
		go func(r devicerepo.Repository) {
			defer wg.Done()
			if err := r.PreloadStatuses(ctx); err != nil {
				s.logger.WarnContext(ctx, "Preload statuses failed", "error", err)
			}
		}(repo)
	}
	wg.Wait()

	for _, repo := range repos {
		if err := repo.UpdateStatuses(ctx); err != nil {
			s.logger.WarnContext(ctx, "Update statuses failed", "error", err)
		}
	}

	targets := s.scheduler.Tick(s.registry)
	s.fanOut(ctx, targets)

	s.mu.Lock()
	hook := s.alertHook
	s.mu.Unlock()
	if hook != nil {
		hook(ctx)
	}
}

// fanOut groups targets by device and applies each device's channels
// serially, while different devices are applied concurrently: duty
// fan-out is unordered across devices, but per-device operations for a
// tick are serialized.
func (s *Speedmgr) fanOut(ctx context.Context, targets []fanoutTarget) {
	if len(targets) == 0 {
		return
	}

	byDevice := make(map[model.UID][]fanoutTarget)
	for _, t := range targets {
		byDevice[t.DeviceUID] = append(byDevice[t.DeviceUID], t)
	}

	var wg sync.WaitGroup
	wg.Add(len(byDevice))
	for deviceUID, deviceTargets := range byDevice {
		go func(uid model.UID, ts []fanoutTarget) {
			defer wg.Done()
			for _, t := range ts {
				if err := s.registry.ApplySettingSpeedFixed(ctx, uid, t.ChannelName, t.Duty); err != nil {
					s.logger.WarnContext(ctx, "Apply speed fixed failed",
						"device", uid, "channel", t.ChannelName, "duty", t.Duty, "error", err)
				}
			}
		}(deviceUID, deviceTargets)
	}
	wg.Wait()
}

// runLCDLoop invokes the LCD hook on its own, slower cadence, with a
// per-cycle timeout equal to the interval.
func (s *Speedmgr) runLCDLoop(ctx context.Context) {
	ticker := time.NewTicker(s.config.lcdInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			hook := s.lcdHook
			sleeping := s.sleeping
			s.mu.Unlock()
			if hook == nil || sleeping {
				continue
			}
			cycleCtx, cancel := context.WithTimeout(ctx, s.config.lcdInterval)
			hook(cycleCtx)
			cancel()
		}
	}
}

// Sleep suspends scheduling ticks.
func (s *Speedmgr) Sleep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sleeping = true
}

// Wake resumes scheduling ticks after waiting max(startup_delay, 1s) and
// re-initializing devices.
func (s *Speedmgr) Wake(ctx context.Context) error {
	delay := s.config.wakeStartupDelay
	if delay < time.Second {
		delay = time.Second
	}
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := s.registry.ReinitializeAll(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceInitFailed, err)
	}
	s.applyDeviceSettings(ctx)

	if err := s.nc.Publish(ipcconst.InternalSchedulerWake, nil); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish scheduler wake notification", "error", err)
	}

	s.mu.Lock()
	s.sleeping = false
	s.mu.Unlock()
	return nil
}
