// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mpu6000

import (
	"periph.io/x/conn/v3/spi"
)

// transport issues single register transactions on an SPI connection.
// Reads are full duplex: the address byte goes out first and the register
// contents come back in the bytes that follow it.
type transport struct {
	c spi.Conn
}

func (t *transport) writeRegister(reg, val byte) error {
	if err := t.c.Tx([]byte{reg &^ dirRead, val}, nil); err != nil {
		return &BusError{Op: "write", Reg: reg, Err: err}
	}
	return nil
}

func (t *transport) readRegister(reg byte) (byte, error) {
	w := []byte{reg | dirRead, 0}
	r := make([]byte, len(w))
	if err := t.c.Tx(w, r); err != nil {
		return 0, &BusError{Op: "read", Reg: reg, Err: err}
	}
	return r[1], nil
}

func (t *transport) readBurst(reg byte, n int) ([]byte, error) {
	w := make([]byte, n+1)
	w[0] = reg | dirRead
	r := make([]byte, len(w))
	if err := t.c.Tx(w, r); err != nil {
		return nil, &BusError{Op: "burst", Reg: reg, Err: err}
	}
	return r[1:], nil
}

// writeCheckedRegister writes val and reads it back. A chip that silently
// drops the write yields a *VerifyError.
func (t *transport) writeCheckedRegister(reg, val byte) error {
	if err := t.writeRegister(reg, val); err != nil {
		return err
	}
	got, err := t.readRegister(reg)
	if err != nil {
		return err
	}
	if got != val {
		return &VerifyError{Reg: reg, Wrote: val, Read: got}
	}
	return nil
}
