// SPDX-License-Identifier: BSD-3-Clause

package lcdmgr

import (
	"fmt"
	"time"
)

// Default configuration values for the LCD commander service.
const (
	DefaultServiceName        = "lcdmgr"
	DefaultServiceDescription = "Single-temperature and carousel LCD screen scheduling"
	DefaultServiceVersion     = "1.0.0"

	// DefaultTickInterval is the poll rate used when lcdmgr drives its own
	// scheduling loop (no device registry was injected via SetRegistry, so
	// it isn't being driven by speedmgr's LCD hook).
	DefaultTickInterval = 1 * time.Second
	// DefaultConfigDir is the default configstore directory.
	DefaultConfigDir = "/etc/coolerd"
	// DefaultCacheDir is where prepared carousel images are cached, a
	// directory under DefaultConfigDir.
	DefaultCacheDir = "/etc/coolerd/carousel-cache"
	// DefaultWorkerCount bounds how many carousel-preparation goroutines
	// run concurrently; image decode/resize/encode is the only blocking
	// work in the scheduling loop and is kept off the tick goroutine.
	DefaultWorkerCount = 2

	// MinCarouselInterval and MaxCarouselInterval bound a channel's
	// configured image advance interval.
	MinCarouselInterval = 5 * time.Second
	MaxCarouselInterval = 900 * time.Second
)

type config struct {
	serviceName        string
	serviceDescription string
	serviceVersion     string

	tickInterval time.Duration
	configDir    string
	cacheDir     string
	workerCount  int
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		serviceName:        DefaultServiceName,
		serviceDescription: DefaultServiceDescription,
		serviceVersion:     DefaultServiceVersion,
		tickInterval:       DefaultTickInterval,
		configDir:          DefaultConfigDir,
		cacheDir:           DefaultCacheDir,
		workerCount:        DefaultWorkerCount,
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
	if c.cacheDir == "" {
		return fmt.Errorf("%w: cache directory cannot be empty", ErrInvalidConfiguration)
	}
	if c.workerCount <= 0 {
		return fmt.Errorf("%w: worker count must be positive", ErrInvalidConfiguration)
	}
	return nil
}

// Option configures the LCD commander service.
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

// WithTickInterval sets the poll rate for lcdmgr's own scheduling loop. Has
// no effect when lcdmgr is driven by an external tick hook.
func WithTickInterval(d time.Duration) Option {
	return &tickIntervalOption{d: d}
}

type configDirOption struct{ dir string }

func (o *configDirOption) apply(c *config) { c.configDir = o.dir }

// WithConfigDir sets the configstore directory the service loads device
// settings from.
func WithConfigDir(dir string) Option {
	return &configDirOption{dir: dir}
}

type cacheDirOption struct{ dir string }

func (o *cacheDirOption) apply(c *config) { c.cacheDir = o.dir }

// WithCacheDir sets the directory prepared carousel images are cached
// under.
func WithCacheDir(dir string) Option {
	return &cacheDirOption{dir: dir}
}

type workerCountOption struct{ n int }

func (o *workerCountOption) apply(c *config) { c.workerCount = o.n }

// WithWorkerCount sets how many goroutines process carousel image
// preparation concurrently.
func WithWorkerCount(n int) Option {
	return &workerCountOption{n: n}
}
