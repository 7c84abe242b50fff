// SPDX-License-Identifier: BSD-3-Clause

package ipc

import (
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

const (
	DefaultServiceName        = "ipc"
	DefaultServiceDescription = "Embedded NATS message bus for coolerd control-loop services"
	DefaultServiceVersion     = "1.0.0"
	DefaultServerName         = "coolerd-ipc"
	DefaultStoreDir           = "/var/lib/coolerd/ipc"
	DefaultMaxMemory          = 64 * 1024 * 1024
	DefaultMaxStorage         = 256 * 1024 * 1024
	DefaultStartupTimeout     = 5 * time.Second
	DefaultShutdownTimeout    = 5 * time.Second
)

type config struct {
	serviceName        string
	serviceDescription string
	serviceVersion     string
	serverName         string
	storeDir           string
	enableJetStream    bool
	dontListen         bool

	maxMemory  int64
	maxStorage int64

	startupTimeout  time.Duration
	shutdownTimeout time.Duration

	maxConnections              int
	maxControlLine              int32
	maxPayload                  int32
	writeDeadline               time.Duration
	pingInterval                time.Duration
	maxPingsOut                 int
	enableSlowConsumerDetection bool
	slowConsumerThreshold       time.Duration
}

type Option interface {
	apply(*config)
}

type serviceNameOption struct{ name string }

func (o *serviceNameOption) apply(c *config) { c.serviceName = o.name }

func WithServiceName(name string) Option {
	return &serviceNameOption{name: name}
}

type serviceDescriptionOption struct{ description string }

func (o *serviceDescriptionOption) apply(c *config) { c.serviceDescription = o.description }

func WithServiceDescription(description string) Option {
	return &serviceDescriptionOption{description: description}
}

type serviceVersionOption struct{ version string }

func (o *serviceVersionOption) apply(c *config) { c.serviceVersion = o.version }

func WithServiceVersion(version string) Option {
	return &serviceVersionOption{version: version}
}

type serverNameOption struct{ name string }

func (o *serverNameOption) apply(c *config) { c.serverName = o.name }

// WithName sets the embedded NATS server's name (distinct from
// WithServiceName, which names the service.Service for supervision and
// logging purposes).
func WithName(name string) Option {
	return &serverNameOption{name: name}
}

type storeDirOption struct{ dir string }

func (o *storeDirOption) apply(c *config) { c.storeDir = o.dir }

func WithStoreDir(dir string) Option {
	return &storeDirOption{dir: dir}
}

type jetStreamOption struct{ enable bool }

func (o *jetStreamOption) apply(c *config) { c.enableJetStream = o.enable }

func WithJetStream(enable bool) Option {
	return &jetStreamOption{enable: enable}
}

func WithoutJetStream() Option {
	return &jetStreamOption{enable: false}
}

type maxMemoryOption struct{ bytes int64 }

func (o *maxMemoryOption) apply(c *config) { c.maxMemory = o.bytes }

func WithMaxMemory(bytes int64) Option {
	return &maxMemoryOption{bytes: bytes}
}

type maxStorageOption struct{ bytes int64 }

func (o *maxStorageOption) apply(c *config) { c.maxStorage = o.bytes }

func WithMaxStorage(bytes int64) Option {
	return &maxStorageOption{bytes: bytes}
}

type startupTimeoutOption struct{ timeout time.Duration }

func (o *startupTimeoutOption) apply(c *config) { c.startupTimeout = o.timeout }

func WithStartupTimeout(timeout time.Duration) Option {
	return &startupTimeoutOption{timeout: timeout}
}

type shutdownTimeoutOption struct{ timeout time.Duration }

func (o *shutdownTimeoutOption) apply(c *config) { c.shutdownTimeout = o.timeout }

func WithShutdownTimeout(timeout time.Duration) Option {
	return &shutdownTimeoutOption{timeout: timeout}
}

type maxConnectionsOption struct{ n int }

func (o *maxConnectionsOption) apply(c *config) { c.maxConnections = o.n }

// WithMaxConnections sets the maximum number of concurrent NATS
// connections. Zero means unlimited.
func WithMaxConnections(n int) Option {
	return &maxConnectionsOption{n: n}
}

type maxControlLineOption struct{ n int32 }

func (o *maxControlLineOption) apply(c *config) { c.maxControlLine = o.n }

func WithMaxControlLine(n int32) Option {
	return &maxControlLineOption{n: n}
}

type maxPayloadOption struct{ n int32 }

func (o *maxPayloadOption) apply(c *config) { c.maxPayload = o.n }

func WithMaxPayload(n int32) Option {
	return &maxPayloadOption{n: n}
}

type writeDeadlineOption struct{ d time.Duration }

func (o *writeDeadlineOption) apply(c *config) { c.writeDeadline = o.d }

func WithWriteDeadline(d time.Duration) Option {
	return &writeDeadlineOption{d: d}
}

type pingIntervalOption struct{ d time.Duration }

func (o *pingIntervalOption) apply(c *config) { c.pingInterval = o.d }

func WithPingInterval(d time.Duration) Option {
	return &pingIntervalOption{d: d}
}

type maxPingsOutOption struct{ n int }

func (o *maxPingsOutOption) apply(c *config) { c.maxPingsOut = o.n }

func WithMaxPingsOut(n int) Option {
	return &maxPingsOutOption{n: n}
}

type slowConsumerDetectionOption struct {
	enable    bool
	threshold time.Duration
}

func (o *slowConsumerDetectionOption) apply(c *config) {
	c.enableSlowConsumerDetection = o.enable
	c.slowConsumerThreshold = o.threshold
}

func WithSlowConsumerDetection(threshold time.Duration) Option {
	return &slowConsumerDetectionOption{enable: true, threshold: threshold}
}

func WithoutSlowConsumerDetection() Option {
	return &slowConsumerDetectionOption{enable: false}
}

// Validate checks that the configuration describes a startable embedded
// NATS server.
func (c *config) Validate() error {
	if c.serviceName == "" {
		return fmt.Errorf("%w: service name cannot be empty", ErrInvalidConfiguration)
	}
	if c.serviceVersion == "" {
		return fmt.Errorf("%w: service version cannot be empty", ErrInvalidConfiguration)
	}
	if c.serverName == "" {
		return fmt.Errorf("%w: server name cannot be empty", ErrInvalidConfiguration)
	}
	if c.enableJetStream && c.storeDir == "" {
		return fmt.Errorf("%w: store dir cannot be empty when JetStream is enabled", ErrInvalidConfiguration)
	}
	if c.maxMemory <= 0 {
		return fmt.Errorf("%w: max memory must be positive", ErrInvalidConfiguration)
	}
	if c.maxStorage <= 0 {
		return fmt.Errorf("%w: max storage must be positive", ErrInvalidConfiguration)
	}
	if c.startupTimeout <= 0 {
		return fmt.Errorf("%w: startup timeout must be positive", ErrInvalidConfiguration)
	}
	if c.shutdownTimeout <= 0 {
		return fmt.Errorf("%w: shutdown timeout must be positive", ErrInvalidConfiguration)
	}
	if c.maxConnections < 0 {
		return fmt.Errorf("%w: max connections cannot be negative", ErrInvalidConfiguration)
	}
	if c.maxControlLine <= 0 {
		return fmt.Errorf("%w: max control line must be positive", ErrInvalidConfiguration)
	}
	if c.maxPayload <= 0 {
		return fmt.Errorf("%w: max payload must be positive", ErrInvalidConfiguration)
	}
	if c.writeDeadline <= 0 {
		return fmt.Errorf("%w: write deadline must be positive", ErrInvalidConfiguration)
	}
	if c.pingInterval <= 0 {
		return fmt.Errorf("%w: ping interval must be positive", ErrInvalidConfiguration)
	}
	if c.maxPingsOut <= 0 {
		return fmt.Errorf("%w: max pings out must be positive", ErrInvalidConfiguration)
	}
	if c.enableSlowConsumerDetection && c.slowConsumerThreshold <= 0 {
		return fmt.Errorf("%w: slow consumer threshold must be positive when detection is enabled", ErrInvalidConfiguration)
	}
	return nil
}

// ToServerOptions translates config into the nats-server options struct
// used to start the embedded server.
func (c *config) ToServerOptions() *server.Options {
	opts := &server.Options{
		ServerName:     c.serverName,
		DontListen:     c.dontListen,
		NoSigs:         true,
		MaxConn:        c.maxConnections,
		MaxControlLine: c.maxControlLine,
		MaxPayload:     c.maxPayload,
		WriteDeadline:  c.writeDeadline,
		PingInterval:   c.pingInterval,
		MaxPingsOut:    c.maxPingsOut,
	}
	if c.enableJetStream {
		opts.JetStream = true
		opts.StoreDir = c.storeDir
		opts.JetStreamMaxMemory = c.maxMemory
		opts.JetStreamMaxStore = c.maxStorage
	}
	return opts
}
