// SPDX-License-Identifier: BSD-3-Clause

package devicerepo

import "errors"

var (
	// ErrDeviceNotFound indicates a setting or query referenced a device UID
	// not present in the registry.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrChannelNotFound indicates a setting or query referenced a channel
	// name not present on the target device.
	ErrChannelNotFound = errors.New("channel not found")
	// ErrUnsupportedSetting indicates a setting targets a channel that does
	// not advertise the requisite capability (e.g. a fixed-speed apply
	// against a channel with SpeedOptions.FixedEnabled false).
	ErrUnsupportedSetting = errors.New("channel does not support this setting")
	// ErrBackendUnavailable indicates the underlying hardware backend could
	// not be reached for this call.
	ErrBackendUnavailable = errors.New("device backend unavailable")
)
