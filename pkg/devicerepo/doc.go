// SPDX-License-Identifier: BSD-3-Clause

// Package devicerepo implements the device backend contract (Repository)
// and the process-wide device registry (Registry) that every commander and
// function processor reads status from.
//
// A Repository owns exactly one backend's devices and is the only writer of
// their status history; the Registry aggregates one or more repositories
// behind a single immutable-by-reference lookup. hwmonRepository backs real
// sysfs fan/temp controllers; MockRepository drives the daemon from an
// in-memory fixture, used by the default binary's demo mode and by tests.
package devicerepo
