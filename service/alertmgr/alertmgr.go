// SPDX-License-Identifier: BSD-3-Clause

package alertmgr

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/nats-io/nats.go/micro"

	"github.com/coolerctl/coolerd/pkg/configstore"
	"github.com/coolerctl/coolerd/pkg/devicerepo"
	"github.com/coolerctl/coolerd/pkg/ipc"
	"github.com/coolerctl/coolerd/pkg/log"
	"github.com/coolerctl/coolerd/pkg/model"
	"github.com/coolerctl/coolerd/pkg/state"
	"github.com/coolerctl/coolerd/service"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var _ service.Service = (*Alertmgr)(nil)

// alertEvent is the payload published on an alert state transition.
type alertEvent struct {
	AlertUID  model.UID       `json:"alert_uid"`
	Name      string          `json:"name"`
	State     model.AlertState `json:"state"`
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
}

// alertWatcher pairs an Alert definition with the state machine tracking
// its channel's watchdog state.
type alertWatcher struct {
	alert model.Alert
	fsm   *state.FSM

	// warmupStartNano is set when entering WarmUp and consulted by the
	// WarmUp -> Active guard; 0 means "not currently in warm-up".
	warmupStartNano atomic.Int64
}

func (w *alertWatcher) warmupElapsed() bool {
	start := w.warmupStartNano.Load()
	if start == 0 {
		return false
	}
	return time.Since(time.Unix(0, start)) >= w.alert.WarmupDuration
}

func (w *alertWatcher) enteredWarmUp(_, _, _ string) error {
	w.warmupStartNano.Store(time.Now().UnixNano())
	return nil
}

// Alertmgr evaluates every configured Alert's channel value against its
// Min/Max band each tick and drives a per-alert Inactive/WarmUp/Active/Error
// watchdog, logging and broadcasting every transition that lands in
// Inactive, Active or Error.
type Alertmgr struct {
	config *config

	store *configstore.Store

	nc           *nats.Conn
	js           jetstream.JetStream
	microService micro.Service

	mu       sync.Mutex
	registry *devicerepo.Registry
	watchers map[model.UID]*alertWatcher

	logger *slog.Logger
	tracer trace.Tracer
}

// New creates a new Alertmgr instance with the provided options.
func New(opts ...Option) *Alertmgr {
	return &Alertmgr{
		config:   newConfig(opts...),
		watchers: make(map[model.UID]*alertWatcher),
	}
}

// Name returns the service name.
func (a *Alertmgr) Name() string {
	return a.config.serviceName
}

// SetRegistry attaches the device registry to read channel values from, for
// in-process composition with speedmgr. If called before Run, alertmgr
// assumes it is driven by an external tick hook (see Tick) and does not
// start its own evaluation loop.
func (a *Alertmgr) SetRegistry(r *devicerepo.Registry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.registry = r
}

// Run connects to the in-process NATS server, loads configured alerts, and
// registers the alert controller's IPC endpoints.
func (a *Alertmgr) Run(ctx context.Context, ipcConn nats.InProcessConnProvider) error {
	a.tracer = otel.Tracer(a.config.serviceName)
	ctx, span := a.tracer.Start(ctx, "alertmgr.Run")
	defer span.End()

	a.logger = log.GetGlobalLogger().With("service", a.config.serviceName)
	a.logger.InfoContext(ctx, "Starting alert controller service", "version", a.config.serviceVersion)

	if err := a.config.Validate(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}

	nc, err := nats.Connect("", nats.InProcessServer(ipcConn))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrNATSConnectionFailed, err)
	}
	a.nc = nc
	defer nc.Drain() //nolint:errcheck

	js, err := jetstream.New(nc)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrNATSConnectionFailed, err)
	}
	a.js = js
	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        "ALERTMGR_EVENTS",
		Description: "Alert Controller transition history",
		Subjects:    []string{ipc.StreamSubjectAlertEvents},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		MaxMsgs:     -1,
		MaxBytes:    -1,
	}); err != nil {
		a.logger.WarnContext(ctx, "Failed to configure alert event stream", "error", err)
	}

	driveOwnLoop, err := a.initialize(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}

	a.microService, err = micro.AddService(nc, micro.Config{
		Name:        a.config.serviceName,
		Description: a.config.serviceDescription,
		Version:     a.config.serviceVersion,
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrMicroServiceCreationFailed, err)
	}

	if err := a.registerEndpoints(); err != nil {
		span.RecordError(err)
		return err
	}

	span.SetAttributes(attribute.String("service.name", a.config.serviceName))
	a.logger.InfoContext(ctx, "Alert controller service started", "alerts", len(a.store.Alerts()), "own_loop", driveOwnLoop)

	if driveOwnLoop {
		a.runEvaluationLoop(ctx)
		return ctx.Err()
	}

	<-ctx.Done()
	return ctx.Err()
}

// initialize loads the config store and builds a registry when none was
// injected via SetRegistry. It returns whether alertmgr should drive its
// own evaluation loop (true) or is expected to be ticked externally (false).
func (a *Alertmgr) initialize(ctx context.Context) (bool, error) {
	store, err := configstore.New(configstore.WithDir(a.config.configDir), configstore.WithLogger(a.logger))
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	if err := store.Load(); err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	a.store = store
	a.loadWatchers(store.Alerts())

	a.mu.Lock()
	injected := a.registry != nil
	a.mu.Unlock()
	if injected {
		return false, nil
	}

	reg := devicerepo.NewRegistry()
	reg.AddRepository(devicerepo.NewHwmonRepository())
	if err := reg.InitializeAll(ctx); err != nil {
		return false, fmt.Errorf("%w: %w", ErrDeviceRegistryRequired, err)
	}
	a.mu.Lock()
	a.registry = reg
	a.mu.Unlock()
	return true, nil
}

// loadWatchers (re)builds the watcher set from the persisted alert
// definitions. Alerts that already have a watcher keep it untouched if the
// definition is unchanged, so an in-progress watchdog isn't reset by an
// unrelated upsert; changed or new alerts get a fresh Inactive watcher.
func (a *Alertmgr) loadWatchers(alerts []model.Alert) {
	a.mu.Lock()
	defer a.mu.Unlock()

	seen := make(map[model.UID]struct{}, len(alerts))
	for _, al := range alerts {
		seen[al.UID] = struct{}{}
		if existing, ok := a.watchers[al.UID]; ok && existing.alert == al {
			continue
		}
		w := &alertWatcher{alert: al}
		fsm, err := state.NewAlertWatchdogMachine(string(al.UID), w.warmupElapsed, w.enteredWarmUp)
		if err != nil {
			a.logger.Error("Failed to build alert watchdog", "alert", al.UID, "error", err)
			continue
		}
		if err := fsm.Start(context.Background()); err != nil {
			a.logger.Error("Failed to start alert watchdog", "alert", al.UID, "error", err)
			continue
		}
		w.fsm = fsm
		a.watchers[al.UID] = w
	}
	for uid := range a.watchers {
		if _, ok := seen[uid]; !ok {
			delete(a.watchers, uid)
		}
	}
}

func (a *Alertmgr) runEvaluationLoop(ctx context.Context) {
	ticker := time.NewTicker(a.config.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.Tick(ctx)
		}
	}
}

// Tick evaluates every configured alert once. It is exported so it can be
// wired into speedmgr.SetAlertHook for in-process composition sharing a
// single device registry.
func (a *Alertmgr) Tick(ctx context.Context) {
	a.mu.Lock()
	registry := a.registry
	watchers := make([]*alertWatcher, 0, len(a.watchers))
	for _, w := range a.watchers {
		watchers = append(watchers, w)
	}
	a.mu.Unlock()

	if registry == nil {
		return
	}

	for _, w := range watchers {
		a.evaluate(ctx, registry, w)
	}
}

func (a *Alertmgr) evaluate(ctx context.Context, registry *devicerepo.Registry, w *alertWatcher) {
	trigger := classify(w.alert, registry)

	if ok, err := w.fsm.CanFire(trigger); err != nil || !ok {
		return
	}

	before := w.fsm.CurrentState()
	if err := w.fsm.Fire(ctx, trigger, nil); err != nil {
		a.logger.WarnContext(ctx, "Alert watchdog transition failed", "alert", w.alert.UID, "trigger", trigger, "error", err)
		return
	}
	after := w.fsm.CurrentState()
	if after == before {
		return
	}

	alertState, ok := alertStateFor(after)
	if !ok {
		return // WarmUp: transient, not externally reported
	}

	entry := model.AlertLog{
		UID:       w.alert.UID,
		Name:      w.alert.Name,
		State:     alertState,
		Message:   alertMessage(w.alert, alertState),
		Timestamp: time.Now(),
	}
	if err := a.store.AppendAlertLog(entry); err != nil {
		a.logger.WarnContext(ctx, "Failed to persist alert log", "alert", w.alert.UID, "error", err)
	}
	a.broadcastTransition(ctx, entry)
}

func alertStateFor(fsmState string) (model.AlertState, bool) {
	switch fsmState {
	case state.AlertStateActive:
		return model.AlertStateActive, true
	case state.AlertStateInactive:
		return model.AlertStateInactive, true
	case state.AlertStateError:
		return model.AlertStateError, true
	default:
		return "", false
	}
}

func alertMessage(alert model.Alert, s model.AlertState) string {
	switch s {
	case model.AlertStateActive:
		return fmt.Sprintf("%s out of range [%.1f, %.1f]", alert.ChannelSource.Metric, alert.Min, alert.Max)
	case model.AlertStateError:
		return fmt.Sprintf("%s unavailable", alert.ChannelSource.Metric)
	default:
		return "back in range"
	}
}

// classify resolves the alert's channel value and maps it to the watchdog
// trigger appropriate for this tick.
func classify(alert model.Alert, registry *devicerepo.Registry) string {
	value, ok := resolveValue(alert.ChannelSource, registry)
	if !ok {
		return state.AlertTriggerUnavailable
	}
	if value < alert.Min || value > alert.Max {
		return state.AlertTriggerOutOfRange
	}
	return state.AlertTriggerInRange
}

// resolveValue reads the current value of an alert's channel source.
// MetricLoad and MetricDuty read the same underlying ChannelStatus.Duty
// field: the original distinguishes the two metrics but never gave Load a
// distinct reading, so this preserves that read-path exactly rather than
// inventing a separate (and permanently unavailable) source for it.
func resolveValue(source model.ChannelSource, registry *devicerepo.Registry) (float64, bool) {
	dev, ok := registry.Device(source.DeviceUID)
	if !ok {
		return 0, false
	}
	status, ok := dev.StatusCurrent()
	if !ok {
		return 0, false
	}

	switch source.Metric {
	case model.MetricTemp:
		ts, ok := status.TempStatus(source.ChannelName)
		return ts.Temp, ok
	case model.MetricDuty, model.MetricLoad:
		cs, ok := status.ChannelStatus(source.ChannelName)
		if !ok || cs.Duty == nil {
			return 0, false
		}
		return float64(*cs.Duty), true
	case model.MetricRPM:
		cs, ok := status.ChannelStatus(source.ChannelName)
		if !ok || cs.RPM == nil {
			return 0, false
		}
		return float64(*cs.RPM), true
	case model.MetricFreq:
		cs, ok := status.ChannelStatus(source.ChannelName)
		if !ok || cs.Freq == nil {
			return 0, false
		}
		return float64(*cs.Freq), true
	default:
		return 0, false
	}
}

func (a *Alertmgr) broadcastTransition(ctx context.Context, entry model.AlertLog) {
	evt := alertEvent{AlertUID: entry.UID, Name: entry.Name, State: entry.State, Message: entry.Message, Timestamp: entry.Timestamp}
	data, err := json.Marshal(evt)
	if err != nil {
		a.logger.WarnContext(ctx, "Failed to marshal alert event", "error", err)
		return
	}
	if err := a.nc.Publish(ipc.SubjectAlertEvent, data); err != nil {
		a.logger.WarnContext(ctx, "Failed to publish alert event", "error", err)
	}
	if err := a.nc.Publish(fmt.Sprintf("alertmgr.event.%s", entry.UID), data); err != nil {
		a.logger.WarnContext(ctx, "Failed to archive alert event", "error", err)
	}
}
