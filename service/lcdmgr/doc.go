// SPDX-License-Identifier: BSD-3-Clause

// Package lcdmgr implements the LCD commander: single-temperature and
// image-carousel screen scheduling for device LCD channels.
//
// # Overview
//
// A channel's schedule is recorded as a model.Setting.Lcd entry in the
// config store, the same per-channel settings table the Mode Controller
// diffs against; lcdmgr re-syncs its in-memory schedule set from that
// table every tick rather than owning a separate persisted schedule, which
// is how a mode activation that names an Lcd setting takes effect without
// lcdmgr needing to know about modes at all.
//
// Single-temp mode renders a gradient ring with a numeric overlay (see
// pkg/lcd), skipping the apply when the temperature hasn't moved at the
// 0.1 degree display resolution. Carousel mode discovers and prepares
// (resizes, content-addresses, caches) up to pkg/lcd.MaxCarouselImages
// images from a configured directory once, then advances through them at
// a per-channel interval that must lie in [5s, 900s] (Schedule rejects
// other values with ErrInvalidInterval). Both modes apply
// brightness and orientation once per schedule rather than every tick,
// since those are static panel settings, not frame content.
//
// Image discovery, preparation and cache reads are the only blocking work
// in the scheduling loop and are dispatched to a small worker pool so a
// slow carousel directory never stalls single-temp channels sharing the
// same tick.
//
// # Service Architecture
//
// lcdmgr follows the operator's standard service pattern: a NATS
// in-process connection, a micro.Service advertising the LCD endpoints,
// structured logging via slog, and OpenTelemetry tracing around startup.
//
// Tick is exported so it can be wired into speedmgr.SetLCDHook to share a
// single device registry in-process instead of lcdmgr polling its own
// hwmon backend; when no registry is injected via SetRegistry before Run,
// lcdmgr builds its own and drives its own scheduling loop at its
// configured tick interval.
//
// # NATS IPC Endpoints
//
//   - lcd.schedule, lcd.status
package lcdmgr
