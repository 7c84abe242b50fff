// SPDX-License-Identifier: BSD-3-Clause

// Package lcd renders the daemon's 320x320 LCD screen images: a gradient
// half-ring border with rounded caps plus a numeric temperature overlay for
// single-temp mode, and a content-addressed, resized image cache for
// carousel mode.
//
// Rendering is pure computation over image.RGBA buffers; nothing here
// touches the filesystem except the carousel helpers DiscoverImages and
// Prepare, which are the explicit boundary where the scheduling loop must hand work off to a
// worker goroutine.
package lcd
