// SPDX-License-Identifier: BSD-3-Clause

// Package function implements the temperature-to-duty function processor
// chain run by service/speedmgr's Graph Commander once per scheduled profile
// per tick: Safety Latch, Identity/EMA/Standard preprocessing, graph
// interpolation and duty-threshold postprocessing.
//
// Each processor is a Processor: it inspects a SpeedProfileData value and,
// when applicable, mutates it. The Pipeline runs the fixed stage order for
// one scheduled profile and owns that profile's stage instances, which carry
// each stage's cross-tick memory.
package function
