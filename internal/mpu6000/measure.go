// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mpu6000

import (
	"encoding/binary"
	"fmt"
)

// Channel selects a measurement block.
type Channel int

const (
	Gyro Channel = iota
	Accel
)

func (c Channel) String() string {
	switch c {
	case Gyro:
		return "gyro"
	case Accel:
		return "accel"
	}
	return fmt.Sprintf("Channel(%d)", int(c))
}

func (c Channel) firstReg() (byte, error) {
	switch c {
	case Gyro:
		return RegGyroXoutH, nil
	case Accel:
		return RegAccelXoutH, nil
	}
	return 0, fmt.Errorf("mpu6000: unknown channel %d", int(c))
}

// toVehicleFrame rotates a sensor frame vector into the vehicle frame.
func toVehicleFrame(v [3]int16) [3]int16 {
	return [3]int16{v[1], -v[0], v[2]}
}

// ReadRaw reads one channel as vehicle frame LSB counts.
func (d *Dev) ReadRaw(ch Channel) ([3]int16, error) {
	if d.stage != StageReady {
		return [3]int16{}, ErrNotReady
	}
	reg, err := ch.firstReg()
	if err != nil {
		return [3]int16{}, err
	}
	b, err := d.t.readBurst(reg, 6)
	if err != nil {
		return [3]int16{}, err
	}
	return toVehicleFrame([3]int16{
		int16(binary.BigEndian.Uint16(b[0:])),
		int16(binary.BigEndian.Uint16(b[2:])),
		int16(binary.BigEndian.Uint16(b[4:])),
	}), nil
}

// ReadScaled reads one channel in rad/s (Gyro) or m/s² (Accel). Values are
// not clamped.
func (d *Dev) ReadScaled(ch Channel) ([3]float32, error) {
	raw, err := d.ReadRaw(ch)
	if err != nil {
		return [3]float32{}, err
	}
	return scale(raw, d.scaleOf(ch)), nil
}

func (d *Dev) scaleOf(ch Channel) float32 {
	if ch == Gyro {
		return d.state.GyroScale
	}
	return d.state.AccelScale
}

func scale(raw [3]int16, k float32) [3]float32 {
	return [3]float32{k * float32(raw[0]), k * float32(raw[1]), k * float32(raw[2])}
}
