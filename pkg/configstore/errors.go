// SPDX-License-Identifier: BSD-3-Clause

package configstore

import "errors"

var (
	// ErrConfigDirRequired indicates New was called without a config directory.
	ErrConfigDirRequired = errors.New("config directory is required")
	// ErrMarshal indicates a document failed to marshal to JSON.
	ErrMarshal = errors.New("failed to marshal config document")
	// ErrUnmarshal indicates an on-disk document failed to parse as JSON.
	ErrUnmarshal = errors.New("failed to parse config document")
	// ErrWrite indicates the atomic replace of a document failed.
	ErrWrite = errors.New("failed to write config document")
	// ErrRead indicates reading a document from disk failed.
	ErrRead = errors.New("failed to read config document")
	// ErrNotFound indicates a referenced profile, function, mode or alert
	// UID is not present in the store.
	ErrNotFound = errors.New("config entry not found")
)
