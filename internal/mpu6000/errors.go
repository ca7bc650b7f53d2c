// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mpu6000

import (
	"errors"
	"fmt"
)

var (
	// ErrMismatch is matched by every *VerifyError.
	ErrMismatch = errors.New("mpu6000: register read-back mismatch")
	// ErrIdentityUnavailable is recorded when the product ID cannot be read.
	// It is not fatal; the default configuration profile is used.
	ErrIdentityUnavailable = errors.New("mpu6000: identity unavailable")
	// ErrInitFaulted is matched by every *InitError.
	ErrInitFaulted = errors.New("mpu6000: initialization faulted")
	// ErrClockSelectTimeout is the reason for a fault in clock negotiation.
	ErrClockSelectTimeout = errors.New("mpu6000: clock source select timeout")
	// ErrNotReady is returned by reads before a successful Init.
	ErrNotReady = errors.New("mpu6000: device not initialized")
	// ErrUnknownPos is recorded by Read for an unsupported position.
	ErrUnknownPos = errors.New("mpu6000: unknown read position")
	// ErrShortBuffer is recorded by Read when buf cannot hold the sample.
	ErrShortBuffer = errors.New("mpu6000: buffer too small")
)

// BusError reports a transfer that did not complete.
type BusError struct {
	Op  string // "read", "write" or "burst"
	Reg byte
	Err error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("mpu6000: bus %s 0x%02X: %v", e.Op, e.Reg, e.Err)
}

func (e *BusError) Unwrap() error { return e.Err }

// VerifyError reports a checked write whose read-back differed from the
// written value.
type VerifyError struct {
	Reg   byte
	Wrote byte
	Read  byte
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("mpu6000: verify 0x%02X: wrote 0x%02X, read back 0x%02X", e.Reg, e.Wrote, e.Read)
}

func (e *VerifyError) Is(target error) bool { return target == ErrMismatch }

// InitError is returned when initialization ends in StageFaulted.
type InitError struct {
	Stage Stage // stage that failed
	Err   error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("mpu6000: init faulted in %s: %v", e.Stage, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

func (e *InitError) Is(target error) bool { return target == ErrInitFaulted }
