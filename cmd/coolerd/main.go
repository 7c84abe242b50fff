// SPDX-License-Identifier: BSD-3-Clause

// Command coolerd is the control-loop daemon: it boots an operator that
// supervises the speed manager (Graph/Mix/Overlay commanders and the main
// scheduling loop), the mode controller, the alert controller and the LCD
// commander over an in-process NATS bus.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coolerctl/coolerd/pkg/log"
	"github.com/coolerctl/coolerd/service/alertmgr"
	"github.com/coolerctl/coolerd/service/lcdmgr"
	"github.com/coolerctl/coolerd/service/modemgr"
	"github.com/coolerctl/coolerd/service/operator"
	"github.com/coolerctl/coolerd/service/speedmgr"
)

func main() {
	os.Exit(run())
}

// run wires flags, the root-privilege precondition, and signal-driven
// shutdown around the operator, returning the process exit code. A missing
// root privilege returns non-zero before the supervision tree ever starts;
// an error from the operator other than context cancellation returns
// non-zero; a clean shutdown on SIGTERM/SIGINT/SIGQUIT returns 0.
func run() int {
	var (
		configDir    = flag.String("config-dir", "/etc/coolerd", "directory holding modes.json, alerts.json and device settings")
		cacheDir     = flag.String("cache-dir", "/var/cache/coolerd", "directory for LCD single-temp and carousel image caches")
		pollRate     = flag.Duration("poll-rate", time.Second, "control-loop tick interval")
		lcdInterval  = flag.Duration("lcd-interval", 2*time.Second, "LCD refresh cadence")
		allowNonRoot = flag.Bool("allow-non-root", false, "skip the root-privilege check (development only)")
	)
	flag.Parse()

	if !*allowNonRoot && os.Geteuid() != 0 {
		fmt.Fprintln(os.Stderr, "coolerd: must run as root to access hwmon and PWM device nodes (use -allow-non-root for development)")
		return 1
	}

	logger := log.GetGlobalLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	go func() {
		sig := <-sigCh
		logger.Info("Received shutdown signal", "signal", sig.String())
		cancel()
	}()

	op := operator.New(
		operator.WithName("coolerd"),
		operator.WithTimeout(15*time.Second),
		operator.WithSpeedmgr(
			speedmgr.WithConfigDir(*configDir),
			speedmgr.WithTickInterval(*pollRate),
			speedmgr.WithLCDInterval(*lcdInterval),
			speedmgr.WithHwmonBackend(true),
		),
		operator.WithModemgr(
			modemgr.WithConfigDir(*configDir),
		),
		operator.WithAlertmgr(
			alertmgr.WithConfigDir(*configDir),
			alertmgr.WithTickInterval(*pollRate),
		),
		operator.WithLcdmgr(
			lcdmgr.WithConfigDir(*configDir),
			lcdmgr.WithCacheDir(*cacheDir),
			lcdmgr.WithTickInterval(*lcdInterval),
		),
	)

	if err := op.Run(ctx, nil); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("coolerd exited with error", "error", err)
		return 1
	}

	logger.Info("coolerd shut down cleanly")
	return 0
}
