// SPDX-License-Identifier: BSD-3-Clause

package function

import "errors"

var (
	// ErrNoTempSource indicates a profile's temperature source produced no
	// recent sample.
	ErrNoTempSource = errors.New("temperature source produced no sample")
	// ErrSafetyLatchViolation indicates the safety latch triggered but no
	// duty was ultimately emitted, which must not happen.
	ErrSafetyLatchViolation = errors.New("safety latch triggered without an emitted duty")
)
