// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// csPort drives a GPIO as chip select instead of the controller's CS line.
// Boards that route the IMU select to a plain GPIO need this.
type csPort struct {
	spi.PortCloser
	cs gpio.PinOut
}

func newCSPort(p spi.PortCloser, cs gpio.PinOut) (*csPort, error) {
	if err := cs.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("CS pin %s: %w", cs, err)
	}
	return &csPort{PortCloser: p, cs: cs}, nil
}

func (p *csPort) Connect(f physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	c, err := p.PortCloser.Connect(f, mode|spi.NoCS, bits)
	if err != nil {
		return nil, err
	}
	return &csConn{Conn: c, cs: p.cs}, nil
}

type csConn struct {
	spi.Conn
	cs gpio.PinOut
}

// Tx holds CS low for the duration of one transfer.
func (c *csConn) Tx(w, r []byte) error {
	return c.selected(func() error { return c.Conn.Tx(w, r) })
}

func (c *csConn) TxPackets(p []spi.Packet) error {
	return c.selected(func() error { return c.Conn.TxPackets(p) })
}

func (c *csConn) selected(tx func() error) error {
	if err := c.cs.Out(gpio.Low); err != nil {
		return fmt.Errorf("CS low: %w", err)
	}
	err := tx()
	if errHigh := c.cs.Out(gpio.High); err == nil && errHigh != nil {
		err = fmt.Errorf("CS high: %w", errHigh)
	}
	return err
}
