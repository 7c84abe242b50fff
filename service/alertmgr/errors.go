// SPDX-License-Identifier: BSD-3-Clause

package alertmgr

import "errors"

var (
	// ErrServiceAlreadyStarted indicates that the alert controller service is already running.
	ErrServiceAlreadyStarted = errors.New("alert controller service already started")
	// ErrInvalidConfiguration indicates that the alert controller configuration is invalid.
	ErrInvalidConfiguration = errors.New("invalid alert controller configuration")
	// ErrNATSConnectionFailed indicates that the NATS connection failed.
	ErrNATSConnectionFailed = errors.New("NATS connection failed")
	// ErrMicroServiceCreationFailed indicates that micro service creation failed.
	ErrMicroServiceCreationFailed = errors.New("micro service creation failed")
	// ErrEndpointRegistrationFailed indicates that endpoint registration failed.
	ErrEndpointRegistrationFailed = errors.New("endpoint registration failed")
	// ErrDeviceRegistryRequired indicates evaluation was attempted before a device registry was attached.
	ErrDeviceRegistryRequired = errors.New("device registry required")
	// ErrAlertNotFound indicates a requested alert UID has no stored alert.
	ErrAlertNotFound = errors.New("alert not found")
)
