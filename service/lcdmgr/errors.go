// SPDX-License-Identifier: BSD-3-Clause

package lcdmgr

import "errors"

var (
	// ErrServiceAlreadyStarted indicates that the LCD commander service is already running.
	ErrServiceAlreadyStarted = errors.New("LCD commander service already started")
	// ErrInvalidConfiguration indicates that the LCD commander configuration is invalid.
	ErrInvalidConfiguration = errors.New("invalid LCD commander configuration")
	// ErrNATSConnectionFailed indicates that the NATS connection failed.
	ErrNATSConnectionFailed = errors.New("NATS connection failed")
	// ErrMicroServiceCreationFailed indicates that micro service creation failed.
	ErrMicroServiceCreationFailed = errors.New("micro service creation failed")
	// ErrEndpointRegistrationFailed indicates that endpoint registration failed.
	ErrEndpointRegistrationFailed = errors.New("endpoint registration failed")
	// ErrDeviceRegistryRequired indicates scheduling was attempted before a device registry was attached.
	ErrDeviceRegistryRequired = errors.New("device registry required")
	// ErrChannelNotFound indicates a requested device/channel has no LCD capability.
	ErrChannelNotFound = errors.New("channel not found or has no LCD")
	// ErrUnsupportedMode indicates an LcdSettings.Mode value other than
	// "single_temp" or "carousel".
	ErrUnsupportedMode = errors.New("unsupported LCD mode")
	// ErrInvalidInterval indicates a carousel interval outside [5s, 900s].
	ErrInvalidInterval = errors.New("carousel interval out of range")
	// ErrNoImages indicates a carousel directory has no eligible images.
	ErrNoImages = errors.New("no eligible carousel images")
)
