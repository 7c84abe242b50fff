// SPDX-License-Identifier: BSD-3-Clause

package modemgr

import "errors"

var (
	// ErrServiceAlreadyStarted indicates that the mode controller service is already running.
	ErrServiceAlreadyStarted = errors.New("mode controller service already started")
	// ErrInvalidConfiguration indicates that the mode controller configuration is invalid.
	ErrInvalidConfiguration = errors.New("invalid mode controller configuration")
	// ErrNATSConnectionFailed indicates that the NATS connection failed.
	ErrNATSConnectionFailed = errors.New("NATS connection failed")
	// ErrMicroServiceCreationFailed indicates that micro service creation failed.
	ErrMicroServiceCreationFailed = errors.New("micro service creation failed")
	// ErrEndpointRegistrationFailed indicates that endpoint registration failed.
	ErrEndpointRegistrationFailed = errors.New("endpoint registration failed")
	// ErrModeNotFound indicates a requested mode UID has no stored mode.
	ErrModeNotFound = errors.New("mode not found")
	// ErrDeviceRegistryRequired indicates Activate was called before a device registry was attached.
	ErrDeviceRegistryRequired = errors.New("device registry required")
)
