// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mpu6000

import (
	"encoding/binary"
	"math"
)

// Pos selects what Read returns.
type Pos int

const (
	PosGyroRaw Pos = iota + 1
	PosGyroScaled
	PosAccelRaw
	PosAccelScaled
)

// Buffer sizes filled by Read.
const (
	RawSize    = 6  // 3 × int16, little-endian
	ScaledSize = 12 // 3 × float32, little-endian
)

func (p Pos) String() string {
	switch p {
	case PosGyroRaw:
		return "gyro_raw"
	case PosGyroScaled:
		return "gyro_scaled"
	case PosAccelRaw:
		return "accel_raw"
	case PosAccelScaled:
		return "accel_scaled"
	}
	return "unknown"
}

// Read fills buf with the sample selected by pos and returns the number of
// bytes written. Any failure returns 0; LastError tells why.
func (d *Dev) Read(pos Pos, buf []byte) int {
	n, err := d.read(pos, buf)
	d.lastErr = err
	if err != nil {
		return 0
	}
	return n
}

// LastError returns the error behind the last Read, nil if it succeeded.
func (d *Dev) LastError() error {
	return d.lastErr
}

func (d *Dev) read(pos Pos, buf []byte) (int, error) {
	var ch Channel
	var scaled bool
	switch pos {
	case PosGyroRaw:
		ch = Gyro
	case PosGyroScaled:
		ch, scaled = Gyro, true
	case PosAccelRaw:
		ch = Accel
	case PosAccelScaled:
		ch, scaled = Accel, true
	default:
		return 0, ErrUnknownPos
	}

	if !scaled {
		if len(buf) < RawSize {
			return 0, ErrShortBuffer
		}
		v, err := d.ReadRaw(ch)
		if err != nil {
			return 0, err
		}
		for i, x := range v {
			binary.LittleEndian.PutUint16(buf[2*i:], uint16(x))
		}
		return RawSize, nil
	}

	if len(buf) < ScaledSize {
		return 0, ErrShortBuffer
	}
	v, err := d.ReadScaled(ch)
	if err != nil {
		return 0, err
	}
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return ScaledSize, nil
}

// DecodeRaw decodes a buffer filled by Read with a raw position.
func DecodeRaw(buf []byte) [3]int16 {
	var v [3]int16
	for i := range v {
		v[i] = int16(binary.LittleEndian.Uint16(buf[2*i:]))
	}
	return v
}

// DecodeScaled decodes a buffer filled by Read with a scaled position.
func DecodeScaled(buf []byte) [3]float32 {
	var v [3]float32
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return v
}
