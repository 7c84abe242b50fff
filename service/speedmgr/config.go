// SPDX-License-Identifier: BSD-3-Clause

package speedmgr

import (
	"fmt"
	"time"
)

// Default configuration values for the speed manager service.
const (
	DefaultServiceName        = "speedmgr"
	DefaultServiceDescription = "Graph/Mix/Overlay commanders and the main cooling control loop"
	DefaultServiceVersion     = "1.0.0"

	// DefaultTickInterval is the per-tick poll rate driving the Graph, Mix
	// and Overlay commanders.
	DefaultTickInterval = time.Second
	// DefaultLCDInterval is the slower cadence at which the LCD commander
	// hook is invoked.
	DefaultLCDInterval = 2 * time.Second
	// DefaultWakeStartupDelay bounds the minimum wait after a resume before
	// devices are reinitialized.
	DefaultWakeStartupDelay = time.Second
	// DefaultConfigDir is the default configstore directory.
	DefaultConfigDir = "/etc/coolerd"
	// DefaultStatusHistorySamples is not read by the service; each
	// preprocessing stage chooses how many recent samples it requests from
	// the registry per tick.
	DefaultStatusHistorySamples = 16
)

type config struct {
	serviceName        string
	serviceDescription string
	serviceVersion     string

	tickInterval     time.Duration
	lcdInterval      time.Duration
	wakeStartupDelay time.Duration
	configDir        string

	useHwmon bool

	// onTick, when set, is invoked after every scheduling tick with the
	// tick's duration, primarily so lcdmgr/alertmgr-style consumers or
	// tests can observe cadence without reaching into internals.
	onTick func(d time.Duration)
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		serviceName:        DefaultServiceName,
		serviceDescription: DefaultServiceDescription,
		serviceVersion:     DefaultServiceVersion,
		tickInterval:       DefaultTickInterval,
		lcdInterval:        DefaultLCDInterval,
		wakeStartupDelay:   DefaultWakeStartupDelay,
		configDir:          DefaultConfigDir,
		useHwmon:           true,
	}
	for _, opt := range opts {
		opt.apply(cfg)
	}
	return cfg
}

// Validate reports whether the configuration can be used to start the
// service.
func (c *config) Validate() error {
	if c.serviceName == "" {
		return fmt.Errorf("%w: service name cannot be empty", ErrInvalidConfiguration)
	}
	if c.tickInterval <= 0 {
		return fmt.Errorf("%w: tick interval must be positive", ErrInvalidConfiguration)
	}
	if c.lcdInterval <= 0 {
		return fmt.Errorf("%w: lcd interval must be positive", ErrInvalidConfiguration)
	}
	if c.wakeStartupDelay < 0 {
		return fmt.Errorf("%w: wake startup delay cannot be negative", ErrInvalidConfiguration)
	}
	if c.configDir == "" {
		return fmt.Errorf("%w: config directory cannot be empty", ErrInvalidConfiguration)
	}
	return nil
}

// Option configures the speed manager service.
type Option interface {
	apply(*config)
}

type serviceNameOption struct{ name string }

func (o *serviceNameOption) apply(c *config) { c.serviceName = o.name }

// WithServiceName sets the service name advertised over NATS.
func WithServiceName(name string) Option {
	return &serviceNameOption{name: name}
}

type tickIntervalOption struct{ d time.Duration }

func (o *tickIntervalOption) apply(c *config) { c.tickInterval = o.d }

// WithTickInterval sets the poll rate for the Graph/Mix/Overlay scheduling
// loop.
func WithTickInterval(d time.Duration) Option {
	return &tickIntervalOption{d: d}
}

type lcdIntervalOption struct{ d time.Duration }

func (o *lcdIntervalOption) apply(c *config) { c.lcdInterval = o.d }

// WithLCDInterval sets the cadence of the slower LCD update hook.
func WithLCDInterval(d time.Duration) Option {
	return &lcdIntervalOption{d: d}
}

type wakeStartupDelayOption struct{ d time.Duration }

func (o *wakeStartupDelayOption) apply(c *config) { c.wakeStartupDelay = o.d }

// WithWakeStartupDelay sets the minimum wait observed after a sleep/wake
// cycle before devices are reinitialized.
func WithWakeStartupDelay(d time.Duration) Option {
	return &wakeStartupDelayOption{d: d}
}

type configDirOption struct{ dir string }

func (o *configDirOption) apply(c *config) { c.configDir = o.dir }

// WithConfigDir sets the configstore directory the service loads profiles,
// functions and device settings from.
func WithConfigDir(dir string) Option {
	return &configDirOption{dir: dir}
}

type useHwmonOption struct{ use bool }

func (o *useHwmonOption) apply(c *config) { c.useHwmon = o.use }

// WithHwmonBackend enables or disables the sysfs hwmon device backend.
// With it disabled the service starts with a device registry that has no
// repositories; speedmgr adds no other backend itself.
func WithHwmonBackend(use bool) Option {
	return &useHwmonOption{use: use}
}

type onTickOption struct{ fn func(time.Duration) }

func (o *onTickOption) apply(c *config) { c.onTick = o.fn }

// WithOnTick registers a callback invoked after every scheduling tick.
func WithOnTick(fn func(time.Duration)) Option {
	return &onTickOption{fn: fn}
}
