// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mpu6000

import (
	"fmt"
	"time"
)

const (
	clockAttempts    = 5
	resetSettle      = 10 * time.Millisecond
	clockSettle      = time.Millisecond
	retryBackoffStep = 2 * time.Millisecond
)

// clockNegotiator is the bounded retry state of the reset / clock-select
// sequence. The chip comes out of reset asleep and may ignore the first
// writes, so the sequence is repeated until the clock source reads back.
type clockNegotiator struct {
	want        byte
	maxAttempts int
	attempt     int
	locked      bool
}

func (n *clockNegotiator) more() bool {
	return !n.locked && n.attempt < n.maxAttempts
}

func (n *clockNegotiator) begin() int {
	n.attempt++
	return n.attempt
}

// observe records the clock-source read-back of the current attempt and
// reports whether the loop may exit.
func (n *clockNegotiator) observe(got byte, err error) bool {
	n.locked = err == nil && got == n.want
	return n.locked
}

// backoff grows with every failed attempt.
func (n *clockNegotiator) backoff() time.Duration {
	return time.Duration(n.attempt) * retryBackoffStep
}

func (d *Dev) negotiateClock() error {
	n := clockNegotiator{want: ClkSelPLLGyroZ, maxAttempts: clockAttempts}
	for n.more() {
		attempt := n.begin()
		d.clockAttempts = attempt

		d.stage = StageResetPulse
		if err := d.t.writeRegister(RegPwrMgmt1, BitHReset); err != nil {
			d.logf("mpu6000: attempt %d: reset: %v", attempt, err)
		}
		d.sleep(resetSettle)

		// Wake up and select the Z gyro PLL as clock source.
		d.stage = StageClockNegotiate
		if err := d.t.writeCheckedRegister(RegPwrMgmt1, ClkSelPLLGyroZ); err != nil {
			d.logf("mpu6000: attempt %d: clock select: %v", attempt, err)
		}
		d.sleep(clockSettle)

		d.stage = StageInterfaceDisable
		if err := d.t.writeCheckedRegister(RegUserCtrl, BitI2CIfDis); err != nil {
			d.logf("mpu6000: attempt %d: disable I2C: %v", attempt, err)
		}

		got, err := d.t.readRegister(RegPwrMgmt1)
		if n.observe(got, err) {
			break
		}
		d.logf("mpu6000: attempt %d: clock source 0x%02X (err=%v), want 0x%02X", attempt, got, err, n.want)
		d.sleep(n.backoff())
	}

	d.stage = StageClockVerify
	got, err := d.t.readRegister(RegPwrMgmt1)
	if err != nil {
		return d.fault(StageClockVerify, fmt.Errorf("%w: %w", ErrClockSelectTimeout, err))
	}
	if got != ClkSelPLLGyroZ {
		return d.fault(StageClockVerify, fmt.Errorf("%w after %d attempts: read 0x%02X", ErrClockSelectTimeout, d.clockAttempts, got))
	}
	return nil
}
