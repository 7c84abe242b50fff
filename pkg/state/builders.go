// SPDX-License-Identifier: BSD-3-Clause

package state

import (
	"time"
)

// NewStateMachine creates a basic state machine with the provided configuration.
func NewStateMachine(opts ...Option) (*FSM, error) {
	config := NewConfig(opts...)
	return New(config)
}

// Alert watchdog states and triggers: a per-channel min/max watchdog with
// warm-up and error-state broadcast.
const (
	AlertStateInactive = "inactive"
	AlertStateWarmUp   = "warmup"
	AlertStateActive   = "active"
	AlertStateError    = "error"

	AlertTriggerInRange    = "in_range"
	AlertTriggerOutOfRange = "out_of_range"
	AlertTriggerUnavailable = "unavailable"
)

// NewAlertWatchdogMachine builds the Inactive/WarmUp/Active/Error state
// machine for one alert's channel watchdog. warmupGuard is consulted on the
// WarmUp -> Active transition only; it should report whether the value has
// been continuously out of range for at least the alert's warmup_duration.
// enteredWarmUp, if non-nil, runs whenever the machine enters WarmUp (from
// Inactive or Error), so the caller can stamp the warm-up start time.
func NewAlertWatchdogMachine(name string, warmupGuard GuardFunc, enteredWarmUp ActionFunc) (*FSM, error) {
	opts := []Option{
		WithName(name),
		WithDescription("Alert channel watchdog"),
		WithInitialState(AlertStateInactive),
		WithStates(AlertStateInactive, AlertStateWarmUp, AlertStateActive, AlertStateError),
		WithTransition(AlertStateInactive, AlertStateError, AlertTriggerUnavailable),
		WithTransition(AlertStateWarmUp, AlertStateInactive, AlertTriggerInRange),
		WithTransition(AlertStateWarmUp, AlertStateError, AlertTriggerUnavailable),
		WithTransition(AlertStateActive, AlertStateInactive, AlertTriggerInRange),
		WithTransition(AlertStateActive, AlertStateError, AlertTriggerUnavailable),
		WithTransition(AlertStateError, AlertStateInactive, AlertTriggerInRange),
		WithGuardedTransition(AlertStateWarmUp, AlertStateActive, AlertTriggerOutOfRange, warmupGuard),
		WithStateTimeout(5 * time.Second),
	}

	if enteredWarmUp != nil {
		opts = append(opts,
			WithActionTransition(AlertStateInactive, AlertStateWarmUp, AlertTriggerOutOfRange, enteredWarmUp),
			WithActionTransition(AlertStateError, AlertStateWarmUp, AlertTriggerOutOfRange, enteredWarmUp),
		)
	} else {
		opts = append(opts,
			WithTransition(AlertStateInactive, AlertStateWarmUp, AlertTriggerOutOfRange),
			WithTransition(AlertStateError, AlertStateWarmUp, AlertTriggerOutOfRange),
		)
	}

	return NewStateMachine(opts...)
}
