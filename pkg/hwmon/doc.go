// SPDX-License-Identifier: BSD-3-Clause

// Package hwmon reads and writes the Linux hwmon sysfs tree
// (/sys/class/hwmon) that the Device Repository walks to discover pwm/fan/
// temp channels and drive them.
//
// # Overview
//
// Each hwmon chip directory (hwmonN) under the root path exposes a flat set
// of attribute files: pwmN (duty, 0-255), pwmN_enable (manual/automatic
// mode), fanN_input (RPM), tempN_input (millidegree Celsius), and a name
// file identifying the chip. This package provides the minimal primitives
// pkg/devicerepo needs to walk that tree and read/write those files, all
// context-aware so a hung sysfs read can be canceled rather than blocking
// the control loop indefinitely:
//
//	root := hwmon.DefaultHwmonPath
//	chips, err := hwmon.ListDevicesInPathCtx(ctx, root)
//	for _, chip := range chips {
//		name, _ := hwmon.ReadStringCtx(ctx, filepath.Join(chip, "name"))
//		attrs, _ := hwmon.ListAttributesCtx(ctx, chip, "")
//		// attrs is every non-directory file under chip; the caller
//		// filters for pwmN/fanN_input/tempN_input by name.
//	}
//
// Reading and writing a pwm channel:
//
//	duty, err := hwmon.ReadIntCtx(ctx, pwmPath)
//	err = hwmon.WriteIntCtx(ctx, pwmPath, 128)
//
// # Errors
//
// Failures are wrapped in one of the sentinel errors in errors.go
// (ErrFileNotFound, ErrPermissionDenied, ErrInvalidValue, ErrReadFailure,
// ErrWriteFailure, ErrInvalidPath, ErrOperationTimeout) so callers can branch
// on errors.Is without parsing error text.
package hwmon
