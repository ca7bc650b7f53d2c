// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mpu6000

import (
	"fmt"
	"math"
	"time"
)

const (
	stepSettle  = time.Millisecond
	maxDivisor  = 200
	gyroLSBPerD = 16.4 // LSB per °/s at ±2000 °/s
)

// gyroScale2000 converts a raw sample at ±2000 °/s to rad/s.
var gyroScale2000 = float32(math.Pi / 180 / gyroLSBPerD)

var dlpfLadder = []struct {
	hz   uint
	code byte
}{
	{5, DLPF5Hz},
	{10, DLPF10Hz},
	{20, DLPF20Hz},
	{42, DLPF42Hz},
	{98, DLPF98Hz},
	{188, DLPF188Hz},
	{256, DLPF256HzNoLPF2},
}

// Init resets and configures the chip. It may be called again to recover
// a device in StageFaulted. Reads fail with ErrNotReady until Init
// returns nil.
func (d *Dev) Init() error {
	d.stage = StageIdle
	d.clockAttempts = 0

	d.readIdentity()

	if err := d.negotiateClock(); err != nil {
		return err
	}
	d.sleep(stepSettle)

	d.stage = StageSampleRateConfig
	if err := d.SetSampleRate(d.opts.SampleRateHz); err != nil {
		return d.fault(StageSampleRateConfig, err)
	}
	d.sleep(stepSettle)

	d.stage = StageFilterConfig
	if err := d.SetDLPFFilter(d.opts.DLPFHz); err != nil {
		return d.fault(StageFilterConfig, err)
	}
	d.sleep(stepSettle)

	d.stage = StageGyroRangeConfig
	if err := d.setGyroRange2000(); err != nil {
		return d.fault(StageGyroRangeConfig, err)
	}
	d.sleep(stepSettle)

	d.stage = StageAccelRangeConfig
	if err := d.SetAccelRange(d.opts.AccelMaxG); err != nil {
		return d.fault(StageAccelRangeConfig, err)
	}
	d.sleep(stepSettle)

	d.stage = StageInterruptConfig
	d.configureInterrupts()

	d.stage = StageReady
	return nil
}

func (d *Dev) fault(stage Stage, err error) error {
	d.stage = StageFaulted
	return &InitError{Stage: stage, Err: err}
}

func (d *Dev) readIdentity() {
	d.stage = StageIdentityRead
	p, err := d.t.readRegister(RegProductID)
	if err != nil {
		d.product = ProductUnknown
		d.identityErr = fmt.Errorf("%w: %w", ErrIdentityUnavailable, err)
		d.logf("mpu6000: product id: %v (using default profile)", err)
		return
	}
	d.product = ProductID(p)
	d.identityErr = nil
}

// configureInterrupts enables the data ready interrupt, cleared on any
// read. The device stays usable by polling if this fails.
func (d *Dev) configureInterrupts() {
	if err := d.t.writeCheckedRegister(RegIntEnable, BitRawRdyEn); err != nil {
		d.logf("mpu6000: data ready interrupt: %v", err)
	}
	d.sleep(stepSettle)
	if err := d.t.writeCheckedRegister(RegIntPinCfg, BitIntAnyRd2Clr); err != nil {
		d.logf("mpu6000: interrupt pin config: %v", err)
	}
	d.sleep(stepSettle)
}

// sampleRateDivisor returns the divisor of the 1 kHz timebase closest to
// the requested rate, within [1, 200].
func sampleRateDivisor(hz uint) uint {
	if hz == 0 {
		hz = DefaultSampleRateHz
	}
	div := (baseRateHz + hz/2) / hz
	if div > maxDivisor {
		div = maxDivisor
	}
	if div < 1 {
		div = 1
	}
	return div
}

// selectDLPF returns the lowest supported cutoff at or above hz and its
// CONFIG code. 0 and anything above 256 Hz disable the filter.
func selectDLPF(hz uint) (uint, byte) {
	if hz == 0 {
		return 0, DLPF2100HzNoLPF
	}
	for _, s := range dlpfLadder {
		if hz <= s.hz {
			return s.hz, s.code
		}
	}
	return 0, DLPF2100HzNoLPF
}

// SetSampleRate programs the sample rate divider. The effective rate is
// only recorded once the write is verified.
func (d *Dev) SetSampleRate(hz uint) error {
	div := sampleRateDivisor(hz)
	if err := d.t.writeCheckedRegister(RegSmplrtDiv, byte(div-1)); err != nil {
		return err
	}
	d.state.SampleRateHz = baseRateHz / div
	return nil
}

// SetDLPFFilter programs the on-chip low-pass filter.
func (d *Dev) SetDLPFFilter(hz uint) error {
	cutoff, code := selectDLPF(hz)
	if err := d.t.writeCheckedRegister(RegConfig, code); err != nil {
		return err
	}
	d.state.DLPFCutoffHz = cutoff
	return nil
}

func (d *Dev) setGyroRange2000() error {
	if err := d.t.writeCheckedRegister(RegGyroConfig, FS2000DPS); err != nil {
		return err
	}
	d.state.GyroScale = gyroScale2000
	d.state.GyroRangeRadS = float32(2000.0 / 180.0 * math.Pi)
	return nil
}

// SetAccelRange selects the smallest accelerometer range covering maxG.
// Silicon revisions listed in the override table get a fixed range.
func (d *Dev) SetAccelRange(maxG uint) error {
	r, ok := accelOverrides[d.product]
	if ok {
		d.logf("mpu6000: product %s: forcing %gg accelerometer range", d.product, r.maxG)
	} else {
		r = selectAccelRange(maxG)
	}
	if err := d.t.writeCheckedRegister(RegAccelConfig, r.reg); err != nil {
		return err
	}
	d.state.AccelScale = OneG / r.lsbPerG
	d.state.AccelRangeMS2 = r.maxG * OneG
	return nil
}
