// SPDX-License-Identifier: BSD-3-Clause

// Package modemgr implements the mode controller: activating a saved Mode
// applies its per-device, per-channel settings against the live device
// registry.
//
// # Overview
//
// A Mode pairs a name with AllDeviceSettings, a map from device to channel
// to the Setting that channel should hold while the mode is active.
// Activating a mode diffs that target state against what is currently
// saved per channel (configstore's device settings table, the same one
// speedmgr reads on startup): channels the mode doesn't mention are reset,
// channels whose setting changed are applied unless disabled, and
// unchanged channels are left alone. A mode with no entry for a device at
// all resets every channel that device currently has a saved setting for.
//
// Settings that hand a channel to a Graph/Mix/Overlay profile are applied
// through speedmgr's scheduler (attached via SetScheduler) rather than the
// device registry directly, since resolving a profile's target duty is the
// scheduler's job. LCD settings are persisted but not applied directly;
// lcdmgr's own poll loop picks up the change.
//
// # Service Architecture
//
// modemgr follows the operator's standard service pattern: a NATS
// in-process connection, a micro.Service advertising the mode endpoints,
// structured logging via slog, and OpenTelemetry tracing around startup.
// Mode activations are archived to a JetStream stream
// (modemgr.event.>) in addition to the live broadcast on mode.event, so a
// client can reconstruct activation history after the fact.
//
// modemgr subscribes to speedmgr's internal scheduler-wake notification and
// re-applies whatever mode is currently active, since a resume
// reinitializes devices and drops whatever was applied before sleep.
//
// # NATS IPC Endpoints
//
//   - mode.list, mode.upsert, mode.delete, mode.reorder, mode.activate, mode.active
package modemgr
