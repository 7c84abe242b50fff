// SPDX-License-Identifier: BSD-3-Clause

// Package alertmgr implements the alert controller: a watchdog per
// configured Alert that watches one device channel's metric against a
// [Min, Max] band and reports sustained excursions.
//
// # Overview
//
// Each Alert gets its own Inactive/WarmUp/Active/Error state machine (see
// pkg/state.NewAlertWatchdogMachine). Going out of range moves the
// watchdog to WarmUp rather than Active immediately; it only promotes to
// Active once the value has stayed out of range continuously for the
// alert's WarmupDuration, which avoids flapping on a single noisy sample.
// An unreadable channel (device gone, no status recorded yet) moves the
// watchdog to Error from any state. Only transitions that land in
// Inactive, Active or Error are externally visible: they are appended to
// the alert log (a capped ring, see configstore.AlertLogCapacity) and
// broadcast on alert.event; WarmUp is an internal waypoint.
//
// # Service Architecture
//
// alertmgr follows the operator's standard service pattern: a NATS
// in-process connection, a micro.Service advertising the alert endpoints,
// structured logging via slog, and OpenTelemetry tracing around startup.
// Alert transitions are archived to a JetStream stream (alertmgr.event.>)
// in addition to the live broadcast, mirroring modemgr's activation
// history.
//
// Tick evaluates every alert once and is exported so it can be wired into
// speedmgr.SetAlertHook to share a single device registry in-process
// instead of alertmgr polling its own hwmon backend; when no registry is
// injected via SetRegistry before Run, alertmgr builds its own and drives
// its own evaluation loop at its configured tick interval.
//
// # NATS IPC Endpoints
//
//   - alert.list, alert.upsert, alert.delete, alert.logs
package alertmgr
