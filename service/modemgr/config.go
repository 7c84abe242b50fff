// SPDX-License-Identifier: BSD-3-Clause

package modemgr

import "fmt"

// Default configuration values for the mode controller service.
const (
	DefaultServiceName        = "modemgr"
	DefaultServiceDescription = "Mode activation, applying and persisting per-device channel settings"
	DefaultServiceVersion     = "1.0.0"
	// DefaultConfigDir is the default configstore directory.
	DefaultConfigDir = "/etc/coolerd"
)

type config struct {
	serviceName        string
	serviceDescription string
	serviceVersion     string
	configDir          string
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		serviceName:        DefaultServiceName,
		serviceDescription: DefaultServiceDescription,
		serviceVersion:     DefaultServiceVersion,
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
	if c.configDir == "" {
		return fmt.Errorf("%w: config directory cannot be empty", ErrInvalidConfiguration)
	}
	return nil
}

// Option configures the mode controller service.
type Option interface {
	apply(*config)
}

type serviceNameOption struct{ name string }

func (o *serviceNameOption) apply(c *config) { c.serviceName = o.name }

// WithServiceName sets the service name advertised over NATS.
func WithServiceName(name string) Option {
	return &serviceNameOption{name: name}
}

type configDirOption struct{ dir string }

func (o *configDirOption) apply(c *config) { c.configDir = o.dir }

// WithConfigDir sets the configstore directory the service loads modes
// from. Must match the directory speedmgr was started with when composed
// in the same process.
func WithConfigDir(dir string) Option {
	return &configDirOption{dir: dir}
}
