// SPDX-License-Identifier: BSD-3-Clause

package operator

import (
	"log/slog"
	"time"

	"github.com/coolerctl/coolerd/service"
	"github.com/coolerctl/coolerd/service/alertmgr"
	"github.com/coolerctl/coolerd/service/ipc"
	"github.com/coolerctl/coolerd/service/lcdmgr"
	"github.com/coolerctl/coolerd/service/modemgr"
	"github.com/coolerctl/coolerd/service/speedmgr"
)

type config struct {
	name        string
	id          string
	disableLogo bool
	customLogo  string
	otelSetup   func()
	logger      *slog.Logger
	timeout     time.Duration
	// IPC service needs special handling
	ipc *ipc.IPC
	// Everything of type service.Service needs to be exported
	Speedmgr service.Service
	Modemgr  service.Service
	Alertmgr service.Service
	Lcdmgr   service.Service

	extraServices []service.Service
}

type Option interface {
	apply(*config)
}

type nameOption struct {
	name string
}

func (o *nameOption) apply(c *config) {
	c.name = o.name
}

// WithName sets the name for the operator configuration.
func WithName(name string) Option {
	return &nameOption{
		name: name,
	}
}

type idOption struct {
	id string
}

func (o *idOption) apply(c *config) {
	c.id = o.id
}

// WithID sets the unique identifier for the operator configuration.
func WithID(id string) Option {
	return &idOption{
		id: id,
	}
}

type disableLogoOption struct {
	disableLogo bool
}

func (o *disableLogoOption) apply(c *config) {
	c.disableLogo = o.disableLogo
}

// WithDisableLogo controls whether the logo display is disabled.
// When set to true, the logo will not be shown during startup.
func WithDisableLogo(disableLogo bool) Option {
	return &disableLogoOption{
		disableLogo: disableLogo,
	}
}

type customLogoOption struct {
	customLogo string
}

func (o *customLogoOption) apply(c *config) {
	c.customLogo = o.customLogo
}

// WithCustomLogo sets a custom logo to be displayed instead of the default logo.
func WithCustomLogo(customLogo string) Option {
	return &customLogoOption{
		customLogo: customLogo,
	}
}

type otelSetupOption struct {
	otelSetup func()
}

func (o *otelSetupOption) apply(c *config) {
	c.otelSetup = o.otelSetup
}

// WithOtelSetup sets up OpenTelemetry configuration by providing a setup function.
// The function will be called during operator initialization to configure telemetry.
func WithOtelSetup(otelSetup func()) Option {
	return &otelSetupOption{
		otelSetup: otelSetup,
	}
}

type loggerOption struct {
	logger *slog.Logger
}

func (o *loggerOption) apply(c *config) {
	c.logger = o.logger
}

// WithLogger stores a structured logger in the operator's configuration.
// Run does not use it: the operator logs through log.GetGlobalLogger().
func WithLogger(logger *slog.Logger) Option {
	return &loggerOption{
		logger: logger,
	}
}

type timeoutOption struct {
	timeout time.Duration
}

func (o *timeoutOption) apply(c *config) {
	c.timeout = o.timeout
}

// WithTimeout sets the timeout duration for operator operations.
// This controls how long the operator will wait for operations to complete.
func WithTimeout(timeout time.Duration) Option {
	return &timeoutOption{
		timeout: timeout,
	}
}

type ipcOption struct {
	ipc *ipc.IPC
}

func (o *ipcOption) apply(c *config) {
	c.ipc = o.ipc
}

// WithIPC configures the in-process message bus with the provided options.
// This service handles communication between the control-loop services.
func WithIPC(opts ...ipc.Option) Option {
	return &ipcOption{
		ipc: ipc.New(opts...),
	}
}

type speedmgrOption struct {
	speedmgr service.Service
}

func (o *speedmgrOption) apply(c *config) {
	c.Speedmgr = o.speedmgr
}

// WithSpeedmgr configures the speed manager service with the provided options.
// This service runs the Graph/Mix/Overlay commanders and the main scheduling
// loop that drives every fan and pump.
func WithSpeedmgr(opts ...speedmgr.Option) Option {
	return &speedmgrOption{
		speedmgr: speedmgr.New(opts...),
	}
}

type modemgrOption struct {
	modemgr service.Service
}

func (o *modemgrOption) apply(c *config) {
	c.Modemgr = o.modemgr
}

// WithModemgr configures the mode controller service with the provided options.
// This service activates modes, diffing saved settings against the previously
// active mode.
func WithModemgr(opts ...modemgr.Option) Option {
	return &modemgrOption{
		modemgr: modemgr.New(opts...),
	}
}

type alertmgrOption struct {
	alertmgr service.Service
}

func (o *alertmgrOption) apply(c *config) {
	c.Alertmgr = o.alertmgr
}

// WithAlertmgr configures the alert controller service with the provided options.
// This service evaluates alert thresholds and drives each alert's state
// machine.
func WithAlertmgr(opts ...alertmgr.Option) Option {
	return &alertmgrOption{
		alertmgr: alertmgr.New(opts...),
	}
}

type lcdmgrOption struct {
	lcdmgr service.Service
}

func (o *lcdmgrOption) apply(c *config) {
	c.Lcdmgr = o.lcdmgr
}

// WithLcdmgr configures the LCD commander service with the provided options.
// This service schedules single-temp and carousel rendering for devices with
// an onboard screen.
func WithLcdmgr(opts ...lcdmgr.Option) Option {
	return &lcdmgrOption{
		lcdmgr: lcdmgr.New(opts...),
	}
}

type servicesOption struct {
	services []service.Service
}

func (o *servicesOption) apply(c *config) {
	c.extraServices = o.services
}

// WithExtraServices adds additional custom services to the operator configuration.
// These services will be managed alongside the standard coolerd services.
func WithExtraServices(services ...service.Service) Option {
	return &servicesOption{
		services: services,
	}
}
