// SPDX-License-Identifier: BSD-3-Clause

// Package configstore persists modes, alerts, profiles, functions and
// devices as JSON documents under a config directory, writing each document
// as a whole via pkg/file.ReplaceFile so readers never observe a partial
// write.
//
// Store is the single writer serialization point: concurrent callers may
// read freely, but Save* calls hold the Store's mutex for the duration of
// the marshal-and-replace.
package configstore
