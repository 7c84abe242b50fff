// SPDX-License-Identifier: BSD-3-Clause

// Package profile implements the pure, non-suspending evaluation core of the
// graph, mix and overlay profile types: speed-curve normalization and
// interpolation (Graph), member reduction (Mix), and offset-curve
// interpolation (Overlay).
//
// Every function here is a pure function of its arguments: no I/O, no
// shared mutable state, no clocks. The commanders in service/speedmgr own
// the scheduling state (caches, last-applied values) and call into this
// package once per profile per tick.
package profile
