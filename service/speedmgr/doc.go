// SPDX-License-Identifier: BSD-3-Clause

// Package speedmgr implements the main cooling control loop: the Graph,
// Mix and Overlay commanders that turn temperature readings into fan and
// pump duties, and the scheduling loop that drives them.
//
// # Overview
//
// speedmgr owns the device registry (the live set of cooling devices and
// their channels, backed by sysfs hwmon or any other devicerepo.Repository),
// the persisted profile and function definitions, and three commanders:
//
//   - GraphCommander evaluates a temperature-to-duty curve through a
//     preprocessing pipeline (safety latch, identity/EMA/standard smoothing,
//     curve interpolation, duty-change threshold).
//   - MixCommander reduces several Graph members' duties with Min/Max/Avg.
//   - OverlayCommander applies a signed, duty-dependent offset on top of a
//     single Graph or Mix member.
//
// A Scheduler resolves which profile (of whichever type) currently owns a
// device channel and fans tick results out to hardware in a fixed
// Graph → Mix → Overlay order, so a Mix or Overlay profile always reads a
// fresh value from the commander underneath it.
//
// # Service Architecture
//
// speedmgr follows the operator's standard service pattern: a NATS
// in-process connection, a micro.Service advertising profile, function and
// device endpoints, structured logging via slog, and OpenTelemetry tracing
// around startup and the scheduling loop.
//
// # Scheduling Loop
//
// Each tick: every device repository preloads its raw status concurrently;
// once all preloads return, statuses are snapshotted; the scheduler
// evaluates Graph, then Mix, then Overlay; resulting duties are fanned out
// to devices (concurrent across devices, serialized per device); and a
// caller-supplied alert hook runs last. A separate, slower ticker invokes a
// caller-supplied LCD hook under its own per-cycle timeout. Sleep/Wake
// suspend and resume the scheduling ticker and reinitialize devices on
// wake.
//
// # NATS IPC Endpoints
//
//   - profile.list, profile.upsert, profile.delete, profile.schedule
//   - function.list, function.upsert
//   - device.list, device.status
package speedmgr
