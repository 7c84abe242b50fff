// SPDX-License-Identifier: BSD-3-Clause

package alertmgr

import (
	"fmt"
	"time"
)

// Default configuration values for the alert controller service.
const (
	DefaultServiceName        = "alertmgr"
	DefaultServiceDescription = "Per-channel alert watchdogs and state transition log"
	DefaultServiceVersion     = "1.0.0"

	// DefaultTickInterval is the poll rate used when alertmgr drives its own
	// evaluation loop (no device registry was injected via SetRegistry, so
	// it isn't being driven by speedmgr's tick hook).
	DefaultTickInterval = time.Second
	// DefaultConfigDir is the default configstore directory.
	DefaultConfigDir = "/etc/coolerd"
)

type config struct {
	serviceName        string
	serviceDescription string
	serviceVersion     string

	tickInterval time.Duration
	configDir    string
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		serviceName:        DefaultServiceName,
		serviceDescription: DefaultServiceDescription,
		serviceVersion:     DefaultServiceVersion,
		tickInterval:       DefaultTickInterval,
		configDir:          DefaultConfigDir,
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
	if c.configDir == "" {
		return fmt.Errorf("%w: config directory cannot be empty", ErrInvalidConfiguration)
	}
	return nil
}

// Option configures the alert controller service.
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

// WithTickInterval sets the poll rate for alertmgr's own evaluation loop.
// Has no effect when alertmgr is driven by an external tick hook.
func WithTickInterval(d time.Duration) Option {
	return &tickIntervalOption{d: d}
}

type configDirOption struct{ dir string }

func (o *configDirOption) apply(c *config) { c.configDir = o.dir }

// WithConfigDir sets the configstore directory the service loads alerts
// from.
func WithConfigDir(dir string) Option {
	return &configDirOption{dir: dir}
}
