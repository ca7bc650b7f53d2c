// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package mpu6000 drives an InvenSense MPU6000 gyroscope/accelerometer over
// SPI.
//
// A Dev is owned by a single caller. Init brings the chip from an unknown
// power-on state to a verified configuration; after that, ReadRaw,
// ReadScaled and the position based Read return samples in the vehicle
// frame (X forward, Y right, Z down).
package mpu6000

import (
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// SPI link parameters required by the chip.
var (
	SPIFrequency = 3 * physic.MegaHertz
	SPIMode      = spi.Mode3 // CPOL=1, CPHA=1, MSB first
	SPIBits      = 8
)

// Opts holds the requested configuration.
type Opts struct {
	SampleRateHz uint // 0 selects DefaultSampleRateHz
	DLPFHz       uint // on-chip low-pass cutoff, 0 disables the filter
	AccelMaxG    uint // smallest full-scale range covering this, 0 selects DefaultAccelMaxG

	// Sleep is the blocking delay used between configuration steps.
	// Defaults to time.Sleep.
	Sleep func(time.Duration)
	// Logf receives non-fatal initialization problems. Defaults to log.Printf.
	Logf func(format string, args ...any)
}

// DefaultOpts is the configuration used when New is passed nil options.
var DefaultOpts = Opts{
	SampleRateHz: DefaultSampleRateHz,
	DLPFHz:       DefaultDLPFHz,
	AccelMaxG:    DefaultAccelMaxG,
}

// Dev is an MPU6000 on an SPI connection.
type Dev struct {
	t    transport
	opts Opts

	stage         Stage
	product       ProductID
	identityErr   error
	clockAttempts int
	state         DriverState
	lastErr       error
}

// New connects to the port at SPIFrequency in SPIMode. The chip is not
// touched until Init is called.
func New(p spi.Port, o *Opts) (*Dev, error) {
	c, err := p.Connect(SPIFrequency, SPIMode, SPIBits)
	if err != nil {
		return nil, fmt.Errorf("mpu6000: spi connect: %w", err)
	}
	return NewConn(c, o), nil
}

// NewConn returns a Dev using an already configured connection.
func NewConn(c spi.Conn, o *Opts) *Dev {
	if o == nil {
		o = &DefaultOpts
	}
	d := &Dev{t: transport{c: c}, opts: *o}
	if d.opts.Sleep == nil {
		d.opts.Sleep = time.Sleep
	}
	if d.opts.Logf == nil {
		d.opts.Logf = log.Printf
	}
	return d
}

func (d *Dev) String() string {
	return "mpu6000"
}

// Stage returns the current initialization stage.
func (d *Dev) Stage() Stage {
	return d.stage
}

// Product returns the product ID read during Init.
func (d *Dev) Product() ProductID {
	return d.product
}

// State returns the effective configuration.
func (d *Dev) State() DriverState {
	return d.state
}

// Status returns a diagnostic snapshot.
func (d *Dev) Status() Status {
	return Status{
		Stage:         d.stage,
		StageName:     d.stage.String(),
		Product:       d.product,
		IdentityErr:   d.identityErr,
		ClockAttempts: d.clockAttempts,
		State:         d.state,
	}
}

// ReadRegister reads one register.
func (d *Dev) ReadRegister(reg byte) (byte, error) {
	return d.t.readRegister(reg)
}

// initOwned lists the registers programmed by Init. DriverState and the
// clock lock are only valid while these hold the values Init wrote.
var initOwned = map[byte]bool{
	RegSmplrtDiv:   true,
	RegConfig:      true,
	RegGyroConfig:  true,
	RegAccelConfig: true,
	RegUserCtrl:    true,
	RegPwrMgmt1:    true,
	RegPwrMgmt2:    true,
}

// WriteRegister writes one register without verification. Writing a
// register programmed by Init takes a ready device back to StageIdle; use
// SetSampleRate, SetDLPFFilter or SetAccelRange to change the
// configuration of a running device.
func (d *Dev) WriteRegister(reg, val byte) error {
	d.invalidate(reg)
	return d.t.writeRegister(reg, val)
}

// WriteCheckedRegister writes one register and verifies it by read-back.
// It invalidates the configuration like WriteRegister.
func (d *Dev) WriteCheckedRegister(reg, val byte) error {
	d.invalidate(reg)
	return d.t.writeCheckedRegister(reg, val)
}

func (d *Dev) invalidate(reg byte) {
	if d.stage != StageReady || !initOwned[reg] {
		return
	}
	d.stage = StageIdle
	d.logf("mpu6000: raw write to 0x%02X, Init required before reading", reg)
}

// ReadBurst reads n consecutive registers starting at reg.
func (d *Dev) ReadBurst(reg byte, n int) ([]byte, error) {
	return d.t.readBurst(reg, n)
}

func (d *Dev) sleep(dur time.Duration) {
	d.opts.Sleep(dur)
}

func (d *Dev) logf(format string, args ...any) {
	d.opts.Logf(format, args...)
}
