// SPDX-License-Identifier: BSD-3-Clause

package ipc

import (
	"fmt"
	"strings"

	"github.com/nats-io/nats.go/micro"
)

// IPC Subject Constants for NATS Micro Services
// These constants define all the subjects used for inter-process communication
// between the control-loop core's components. Services should use these
// constants rather than constructing subjects dynamically.

// Profile Management Subjects (service/speedmgr)
const (
	SubjectProfileList     = "profile.list"
	SubjectProfileUpsert   = "profile.upsert"
	SubjectProfileDelete   = "profile.delete"
	SubjectProfileSchedule = "profile.schedule"
)

// Function Management Subjects (service/speedmgr)
const (
	SubjectFunctionList   = "function.list"
	SubjectFunctionUpsert = "function.upsert"
)

// Mode Controller Subjects (service/modemgr)
const (
	SubjectModeList     = "mode.list"
	SubjectModeUpsert   = "mode.upsert"
	SubjectModeDelete   = "mode.delete"
	SubjectModeActivate = "mode.activate"
	SubjectModeReorder  = "mode.reorder"
	SubjectModeActive   = "mode.active"
)

// Alert Controller Subjects (service/alertmgr)
const (
	SubjectAlertList   = "alert.list"
	SubjectAlertUpsert = "alert.upsert"
	SubjectAlertDelete = "alert.delete"
	SubjectAlertLogs   = "alert.logs"
)

// LCD Commander Subjects (service/lcdmgr)
const (
	SubjectLCDSchedule = "lcd.schedule"
	SubjectLCDStatus   = "lcd.status"
)

// Device Repository Subjects (service/speedmgr, exposed for diagnostics)
const (
	SubjectDeviceList   = "device.list"
	SubjectDeviceStatus = "device.status"
)

// Event and Notification Subjects
const (
	// Broadcast on every Mode Controller activation.
	SubjectModeEvent = "mode.event"
	// Broadcast on every Alert Controller state transition that lands in
	// {Active, Inactive, Error}.
	SubjectAlertEvent = "alert.event"
)

// Stream Subjects for JetStream Persistence
const (
	StreamSubjectModeEvents  = "modemgr.event.>"
	StreamSubjectAlertEvents = "alertmgr.event.>"
)

// Internal IPC Subjects (for service-to-service communication)
const (
	// speedmgr publishes sleep/wake notifications consumed by modemgr's
	// apply-on-wake hook.
	InternalSchedulerWake = "internal.scheduler.wake"
)

// Queue Groups for Load Balancing
const (
	QueueGroupSpeedManager = "speedmgr"
	QueueGroupModeManager  = "modemgr"
	QueueGroupAlertManager = "alertmgr"
	QueueGroupLCDManager   = "lcdmgr"
)

// Default Timeouts (in milliseconds)
const (
	DefaultRequestTimeout  = 30000 // 30 seconds
	DefaultCommandTimeout  = 60000 // 60 seconds
	DefaultStreamTimeout   = 5000  // 5 seconds
	DefaultResponseTimeout = 10000 // 10 seconds
)

// Error Response Subjects
const (
	SubjectErrorResponse   = "error.response"
	SubjectTimeoutResponse = "timeout.response"
	SubjectInvalidRequest  = "invalid.request"
	SubjectNotFound        = "not.found"
	SubjectInternalError   = "internal.error"
)

// IPC Error Constants
var (
	// Request/Response errors
	ErrMissingRequiredField = NewIPCError("MISSING_REQUIRED_FIELD", "missing required field")
	ErrMarshalingFailed     = NewIPCError("MARSHALING_FAILED", "marshaling failed")
	ErrUnmarshalingFailed   = NewIPCError("UNMARSHALING_FAILED", "unmarshaling failed")
	ErrResponseTimeout      = NewIPCError("RESPONSE_TIMEOUT", "response timeout")

	// Component errors
	ErrComponentNotFound = NewIPCError("COMPONENT_NOT_FOUND", "component not found")

	// Service errors
	ErrInternalError = NewIPCError("INTERNAL_ERROR", "internal error")
)

// IPCError represents a structured IPC error.
type IPCError struct {
	Code    string
	Message string
}

func (e *IPCError) Error() string {
	return e.Message
}

// NewIPCError creates a new IPC error.
func NewIPCError(code, message string) *IPCError {
	return &IPCError{
		Code:    code,
		Message: message,
	}
}

// ParseSubject splits a subject into group and endpoint components for NATS
// micro registration. For subjects like "mode.activate", it returns
// group="mode" and endpoint="activate". Returns an error if the subject
// doesn't contain exactly one dot or if components are empty.
func ParseSubject(subject string) (group, endpoint string, err error) {
	if subject == "" {
		return "", "", NewIPCError("INVALID_SUBJECT", "subject cannot be empty")
	}

	parts := strings.Split(subject, ".")
	if len(parts) != 2 {
		return "", "", NewIPCError("INVALID_SUBJECT", fmt.Sprintf("subject %s must contain exactly one dot", subject))
	}

	group = strings.TrimSpace(parts[0])
	endpoint = strings.TrimSpace(parts[1])

	if group == "" {
		return "", "", NewIPCError("INVALID_SUBJECT", "group component cannot be empty")
	}

	if endpoint == "" {
		return "", "", NewIPCError("INVALID_SUBJECT", "endpoint component cannot be empty")
	}

	return group, endpoint, nil
}

// RegisterEndpointWithGroupCache registers an endpoint by parsing the IPC
// subject and managing group creation. This helper reduces boilerplate by
// automatically creating and caching groups as needed.
//
// Example usage:
//
//	groups := make(map[string]micro.Group)
//	err := ipc.RegisterEndpointWithGroupCache(service, ipc.SubjectModeActivate, handler, groups)
func RegisterEndpointWithGroupCache(service micro.Service, subject string, handler micro.Handler, groups map[string]micro.Group) error {
	groupName, endpointName, err := ParseSubject(subject)
	if err != nil {
		return fmt.Errorf("failed to parse subject %s: %w", subject, err)
	}

	group, exists := groups[groupName]
	if !exists {
		group = service.AddGroup(groupName)
		groups[groupName] = group
	}

	if err := group.AddEndpoint(endpointName, handler); err != nil {
		return fmt.Errorf("failed to register endpoint %s in group %s: %w", endpointName, groupName, err)
	}

	return nil
}
