// SPDX-License-Identifier: BSD-3-Clause

// Package model defines the shared data model for the cooling control-loop
// core: devices and their channel/temperature status history, the profile
// graph/mix/overlay types, function tuning parameters, modes and alerts.
//
// Types in this package are intentionally inert: they carry no behavior
// beyond construction helpers, lookups and status-history bookkeeping. The evaluation logic that
// interprets them lives in pkg/function and pkg/profile; the scheduling and
// fan-out logic lives in service/speedmgr, service/modemgr, service/alertmgr
// and service/lcdmgr.
package model
