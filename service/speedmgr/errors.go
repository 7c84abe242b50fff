// SPDX-License-Identifier: BSD-3-Clause

package speedmgr

import "errors"

var (
	// ErrServiceAlreadyStarted indicates that the speed manager service is already running.
	ErrServiceAlreadyStarted = errors.New("speed manager service already started")
	// ErrInvalidConfiguration indicates that the speed manager configuration is invalid.
	ErrInvalidConfiguration = errors.New("invalid speed manager configuration")
	// ErrNATSConnectionFailed indicates that the NATS connection failed.
	ErrNATSConnectionFailed = errors.New("NATS connection failed")
	// ErrMicroServiceCreationFailed indicates that micro service creation failed.
	ErrMicroServiceCreationFailed = errors.New("micro service creation failed")
	// ErrEndpointRegistrationFailed indicates that endpoint registration failed.
	ErrEndpointRegistrationFailed = errors.New("endpoint registration failed")
	// ErrDeviceInitFailed indicates that device repository initialization failed.
	ErrDeviceInitFailed = errors.New("device repository initialization failed")
	// ErrProfileNotFound indicates a schedule referenced an unknown profile.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrFunctionNotFound indicates a profile referenced an unknown function.
	ErrFunctionNotFound = errors.New("function not found")
	// ErrDeviceNotFound indicates a schedule referenced an unknown device.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrTempSourceMissing indicates a Graph profile has no configured temperature source.
	ErrTempSourceMissing = errors.New("graph profile has no temperature source")
	// ErrMemberProfileMissing indicates a Mix or Overlay profile has no configured members.
	ErrMemberProfileMissing = errors.New("profile has no member profiles")
	// ErrUnsupportedMemberType indicates an Overlay or Mix member is of a type that cannot be scheduled as one.
	ErrUnsupportedMemberType = errors.New("unsupported member profile type")
)
