// SPDX-License-Identifier: BSD-3-Clause

package lcdmgr

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/coolerctl/coolerd/pkg/configstore"
	"github.com/coolerctl/coolerd/pkg/devicerepo"
	"github.com/coolerctl/coolerd/pkg/ipc"
	"github.com/coolerctl/coolerd/pkg/lcd"
	"github.com/coolerctl/coolerd/pkg/log"
	"github.com/coolerctl/coolerd/pkg/model"
	"github.com/coolerctl/coolerd/service"
)

var _ service.Service = (*Lcdmgr)(nil)

const (
	modeSingleTemp = "single_temp"
	modeCarousel   = "carousel"
)

// defaultGradientFrom and defaultGradientTo are the ring gradient colors
// used for single-temp screens that don't name a per-channel palette; the
// model doesn't carry a color field today, so every channel shares one
// default scheme.
var (
	defaultGradientFrom = color.RGBA{R: 40, G: 120, B: 255, A: 255}
	defaultGradientTo   = color.RGBA{R: 255, G: 60, B: 40, A: 255}
)

func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// channelSchedule is the LCD commander's working state for one scheduled
// (device, channel) pair.
type channelSchedule struct {
	settings          model.LcdSettings
	appearanceApplied bool

	single *lcd.SingleTempRenderer

	prepared       []lcd.CarouselEntry
	preparing      bool
	carouselIndex  int
	lastAdvance    time.Time
	discoveredFrom string
}

// ChannelStatus is the lcd.status response body for one scheduled channel.
type ChannelStatus struct {
	DeviceUID   model.UID `json:"device_uid"`
	ChannelName string    `json:"channel_name"`
	Mode        string    `json:"mode"`
	ImageCount  int       `json:"image_count,omitempty"`
	ImageIndex  int       `json:"image_index,omitempty"`
}

// Lcdmgr schedules single-temperature and carousel screens onto device LCD
// channels, re-syncing its schedule from the config store's per-channel Lcd
// settings each tick and dispatching the blocking carousel image work
// (decode, resize, encode, cache) to a small worker pool.
type Lcdmgr struct {
	config *config

	store    *configstore.Store
	registry *devicerepo.Registry

	nc           *nats.Conn
	microService micro.Service

	mu        sync.Mutex
	schedules map[model.Binding]*channelSchedule

	jobs chan func()

	logger *slog.Logger
	tracer trace.Tracer
}

// New creates a new Lcdmgr instance with the provided options.
func New(opts ...Option) *Lcdmgr {
	return &Lcdmgr{
		config:    newConfig(opts...),
		schedules: make(map[model.Binding]*channelSchedule),
	}
}

// Name returns the service name.
func (l *Lcdmgr) Name() string {
	return l.config.serviceName
}

// SetRegistry injects a device registry shared with speedmgr, so that
// lcdmgr reads the same device statuses rather than running its own hwmon
// backend. Must be called before Run.
func (l *Lcdmgr) SetRegistry(r *devicerepo.Registry) {
	l.registry = r
}

// Run starts the scheduling loop and registers its NATS IPC endpoints.
func (l *Lcdmgr) Run(ctx context.Context, ipcConn nats.InProcessConnProvider) error {
	l.tracer = otel.Tracer(l.config.serviceName)
	ctx, span := l.tracer.Start(ctx, "lcdmgr.Run")
	defer span.End()

	l.logger = log.GetGlobalLogger().With("service", l.config.serviceName)
	l.logger.InfoContext(ctx, "Starting LCD commander service", "version", l.config.serviceVersion)

	if err := l.config.Validate(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}

	nc, err := nats.Connect("", nats.InProcessServer(ipcConn))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrNATSConnectionFailed, err)
	}
	l.nc = nc
	defer nc.Drain() //nolint:errcheck

	driveOwnLoop, err := l.initialize(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}

	l.jobs = make(chan func(), l.config.workerCount*4)
	var workers sync.WaitGroup
	workers.Add(l.config.workerCount)
	for i := 0; i < l.config.workerCount; i++ {
		go func() {
			defer workers.Done()
			l.runWorker(ctx)
		}()
	}
	defer func() {
		close(l.jobs)
		workers.Wait()
	}()

	l.microService, err = micro.AddService(nc, micro.Config{
		Name:        l.config.serviceName,
		Description: l.config.serviceDescription,
		Version:     l.config.serviceVersion,
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrMicroServiceCreationFailed, err)
	}

	if err := l.registerEndpoints(); err != nil {
		span.RecordError(err)
		return err
	}

	span.SetAttributes(attribute.String("service.name", l.config.serviceName))
	l.logger.InfoContext(ctx, "LCD commander service started", "drive_own_loop", driveOwnLoop)

	if !driveOwnLoop {
		<-ctx.Done()
		return ctx.Err()
	}

	l.runSchedulingLoop(ctx)
	return ctx.Err()
}

// initialize loads the config store and, if no registry was injected via
// SetRegistry, builds its own hwmon-backed one. It returns whether lcdmgr
// must drive its own ticker (true) or is expected to be driven externally
// via Tick (false).
func (l *Lcdmgr) initialize(ctx context.Context) (bool, error) {
	store, err := configstore.New(configstore.WithDir(l.config.configDir), configstore.WithLogger(l.logger))
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	if err := store.Load(); err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	l.store = store

	if l.registry != nil {
		return false, nil
	}

	registry := devicerepo.NewRegistry()
	registry.AddRepository(devicerepo.NewHwmonRepository())
	if err := registry.InitializeAll(ctx); err != nil {
		return false, fmt.Errorf("%w: %w", ErrDeviceRegistryRequired, err)
	}
	l.registry = registry
	return true, nil
}

// runSchedulingLoop drives Tick at the configured tick interval. Used only
// when lcdmgr owns its device registry; when composed with speedmgr via
// SetRegistry, lcdmgr is expected to be driven by speedmgr.SetLCDHook
// instead.
func (l *Lcdmgr) runSchedulingLoop(ctx context.Context) {
	ticker := time.NewTicker(l.config.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Tick(ctx)
		}
	}
}

func (l *Lcdmgr) runWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-l.jobs:
			if !ok {
				return
			}
			job()
		}
	}
}

// Schedule assigns or replaces the LCD schedule for (deviceUID, channel)
// and persists it so it survives a restart.
func (l *Lcdmgr) Schedule(deviceUID model.UID, channel string, settings model.LcdSettings) error {
	switch settings.Mode {
	case modeSingleTemp, modeCarousel:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedMode, settings.Mode)
	}
	if settings.Mode == modeCarousel {
		if settings.Interval < MinCarouselInterval || settings.Interval > MaxCarouselInterval {
			return fmt.Errorf("%w: %s", ErrInvalidInterval, settings.Interval)
		}
		if settings.ImagesDir == "" {
			return fmt.Errorf("%w: images directory required", ErrInvalidConfiguration)
		}
	}

	binding := model.Binding{DeviceUID: deviceUID, ChannelName: channel, Via: model.BindingDirect}
	l.mu.Lock()
	l.schedules[binding] = &channelSchedule{settings: settings}
	l.mu.Unlock()

	return l.store.SetDeviceSetting(deviceUID, channel, model.Setting{Lcd: &settings})
}

// Unschedule removes the LCD schedule for (deviceUID, channel).
func (l *Lcdmgr) Unschedule(deviceUID model.UID, channel string) {
	binding := model.Binding{DeviceUID: deviceUID, ChannelName: channel, Via: model.BindingDirect}
	l.mu.Lock()
	delete(l.schedules, binding)
	l.mu.Unlock()
}

// Tick re-syncs the schedule set from the config store's persisted Lcd
// settings (picking up changes applied by the Mode Controller) and then
// renders/advances every scheduled channel. It is exported so it can be
// wired into speedmgr.SetLCDHook to share a single device registry.
func (l *Lcdmgr) Tick(ctx context.Context) {
	l.syncFromStore(ctx)

	l.mu.Lock()
	bindings := make([]model.Binding, 0, len(l.schedules))
	for b := range l.schedules {
		bindings = append(bindings, b)
	}
	l.mu.Unlock()

	for _, b := range bindings {
		l.mu.Lock()
		sched, ok := l.schedules[b]
		l.mu.Unlock()
		if !ok {
			continue
		}
		l.process(ctx, b, sched)
	}
}

// syncFromStore reconciles the in-memory schedule set against every
// device's persisted channel settings: new or changed Lcd settings replace
// the schedule entry (resetting first-apply and renderer state); channels
// whose setting no longer names an Lcd configuration are dropped.
func (l *Lcdmgr) syncFromStore(ctx context.Context) {
	for _, dev := range l.registry.Devices() {
		settings := l.store.DeviceSettings(dev.UID)
		seen := make(map[string]struct{}, len(settings))
		for channel, setting := range settings {
			if setting.Disabled || setting.Lcd == nil {
				continue
			}
			seen[channel] = struct{}{}
			binding := model.Binding{DeviceUID: dev.UID, ChannelName: channel, Via: model.BindingDirect}

			l.mu.Lock()
			existing, ok := l.schedules[binding]
			l.mu.Unlock()
			if ok && existing.settings == *setting.Lcd {
				continue
			}

			l.mu.Lock()
			l.schedules[binding] = &channelSchedule{settings: *setting.Lcd}
			l.mu.Unlock()
		}

		l.mu.Lock()
		for b := range l.schedules {
			if b.DeviceUID != dev.UID {
				continue
			}
			if _, ok := seen[b.ChannelName]; !ok {
				delete(l.schedules, b)
			}
		}
		l.mu.Unlock()
	}
}

func (l *Lcdmgr) process(ctx context.Context, binding model.Binding, sched *channelSchedule) {
	if !sched.appearanceApplied {
		l.applyAppearance(ctx, binding, sched)
	}

	switch sched.settings.Mode {
	case modeSingleTemp:
		l.processSingleTemp(ctx, binding, sched)
	case modeCarousel:
		l.processCarousel(ctx, binding, sched)
	}
}

// applyAppearance pushes brightness and orientation once per schedule,
// since both are static per-channel panel settings rather than per-frame
// image content.
func (l *Lcdmgr) applyAppearance(ctx context.Context, binding model.Binding, sched *channelSchedule) {
	if sched.settings.Brightness == nil && sched.settings.Orientation == nil {
		sched.appearanceApplied = true
		return
	}
	appearance := model.LcdSettings{
		Mode:        sched.settings.Mode,
		Brightness:  sched.settings.Brightness,
		Orientation: sched.settings.Orientation,
	}
	if err := l.registry.ApplySettingLCD(ctx, binding.DeviceUID, binding.ChannelName, appearance, nil); err != nil {
		l.logger.WarnContext(ctx, "Failed to apply LCD appearance",
			"device", binding.DeviceUID, "channel", binding.ChannelName, "error", err)
		return
	}
	sched.appearanceApplied = true
}

// processSingleTemp renders the channel's single-temp screen from its
// configured temp source, skipping the apply when the renderer reports no
// change at the 0.1 degree display resolution.
func (l *Lcdmgr) processSingleTemp(ctx context.Context, binding model.Binding, sched *channelSchedule) {
	source := sched.settings.TempSource
	if source == nil {
		l.logger.WarnContext(ctx, "Single-temp LCD schedule missing temp source",
			"device", binding.DeviceUID, "channel", binding.ChannelName)
		return
	}

	dev, ok := l.registry.Device(source.DeviceUID)
	if !ok {
		return
	}
	status, ok := dev.StatusCurrent()
	if !ok {
		return
	}
	temp, ok := status.TempStatus(source.TempName)
	if !ok {
		return
	}

	if sched.single == nil {
		sched.single = lcd.NewSingleTempRenderer(defaultGradientFrom, defaultGradientTo)
	}

	label := sched.settings.Label
	if label == "" {
		label = source.TempName
	}
	png, changed, err := sched.single.Render(temp, label)
	if err != nil {
		l.logger.WarnContext(ctx, "Failed to render single-temp screen",
			"device", binding.DeviceUID, "channel", binding.ChannelName, "error", err)
		return
	}
	if !changed {
		return
	}

	if err := l.registry.ApplySettingLCD(ctx, binding.DeviceUID, binding.ChannelName, sched.settings, png); err != nil {
		l.logger.WarnContext(ctx, "Failed to apply single-temp screen",
			"device", binding.DeviceUID, "channel", binding.ChannelName, "error", err)
	}
}

// processCarousel advances the channel's image carousel once its
// configured interval has elapsed, discovering and preparing images via
// the worker pool the first time a directory is scheduled or changed.
func (l *Lcdmgr) processCarousel(ctx context.Context, binding model.Binding, sched *channelSchedule) {
	if sched.discoveredFrom != sched.settings.ImagesDir {
		if sched.preparing {
			return
		}
		sched.preparing = true
		dir := sched.settings.ImagesDir
		cacheDir := filepath.Join(l.config.cacheDir, string(binding.DeviceUID), binding.ChannelName)
		l.submit(func() {
			l.discoverAndPrepare(ctx, binding, dir, cacheDir)
		})
		return
	}

	if len(sched.prepared) == 0 {
		return
	}
	if !sched.lastAdvance.IsZero() && time.Since(sched.lastAdvance) < sched.settings.Interval {
		return
	}

	entry := sched.prepared[sched.carouselIndex]
	sched.carouselIndex = (sched.carouselIndex + 1) % len(sched.prepared)
	sched.lastAdvance = time.Now()

	l.submit(func() {
		l.applyCarouselFrame(ctx, binding, entry)
	})
}

// submit enqueues job on the worker pool, falling back to a best-effort
// direct call if the queue is full rather than blocking the scheduling
// goroutine.
func (l *Lcdmgr) submit(job func()) {
	select {
	case l.jobs <- job:
	default:
		go job()
	}
}

func (l *Lcdmgr) discoverAndPrepare(ctx context.Context, binding model.Binding, dir, cacheDir string) {
	paths, err := lcd.DiscoverImages(dir)
	if err != nil {
		l.logger.WarnContext(ctx, "Failed to discover carousel images",
			"device", binding.DeviceUID, "channel", binding.ChannelName, "dir", dir, "error", err)
		l.finishDiscovery(binding, dir, nil)
		return
	}
	if len(paths) == 0 {
		l.logger.WarnContext(ctx, "No eligible carousel images",
			"device", binding.DeviceUID, "channel", binding.ChannelName, "dir", dir)
		l.finishDiscovery(binding, dir, nil)
		return
	}

	width, height := l.lcdDimensions(binding)
	entries := make([]lcd.CarouselEntry, 0, len(paths))
	for _, p := range paths {
		entry, err := lcd.Prepare(p, cacheDir, width, height)
		if err != nil {
			l.logger.WarnContext(ctx, "Failed to prepare carousel image",
				"device", binding.DeviceUID, "channel", binding.ChannelName, "path", p, "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	l.finishDiscovery(binding, dir, entries)
}

func (l *Lcdmgr) finishDiscovery(binding model.Binding, dir string, entries []lcd.CarouselEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	sched, ok := l.schedules[binding]
	if !ok {
		return
	}
	sched.preparing = false
	sched.discoveredFrom = dir
	sched.prepared = entries
	sched.carouselIndex = 0
}

func (l *Lcdmgr) applyCarouselFrame(ctx context.Context, binding model.Binding, entry lcd.CarouselEntry) {
	data, err := readFile(entry.CachePath)
	if err != nil {
		l.logger.WarnContext(ctx, "Failed to read cached carousel frame",
			"device", binding.DeviceUID, "channel", binding.ChannelName, "path", entry.CachePath, "error", err)
		return
	}

	l.mu.Lock()
	sched, ok := l.schedules[binding]
	var settings model.LcdSettings
	if ok {
		settings = sched.settings
	}
	l.mu.Unlock()
	if !ok {
		return
	}

	if err := l.registry.ApplySettingLCD(ctx, binding.DeviceUID, binding.ChannelName, settings, data); err != nil {
		l.logger.WarnContext(ctx, "Failed to apply carousel frame",
			"device", binding.DeviceUID, "channel", binding.ChannelName, "error", err)
	}
}

// lcdDimensions resolves the channel's LCD width/height from its static
// device info, falling back to the standard screen size when the device or
// channel capability is unknown.
func (l *Lcdmgr) lcdDimensions(binding model.Binding) (int, int) {
	dev, ok := l.registry.Device(binding.DeviceUID)
	if !ok {
		return lcd.ScreenSize, lcd.ScreenSize
	}
	info, ok := dev.Info.Channels[binding.ChannelName]
	if !ok || info.LcdInfo == nil {
		return lcd.ScreenSize, lcd.ScreenSize
	}
	return info.LcdInfo.Width, info.LcdInfo.Height
}
