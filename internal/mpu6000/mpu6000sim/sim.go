// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package mpu6000sim simulates an MPU6000 register file behind an SPI port.
//
// It is used by tests to reproduce misbehaving silicon (writes that do not
// stick, registers stuck at a value, bus faults) and by the producer when
// no hardware is attached.
package mpu6000sim

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/relabs-tech/fmu_imu/internal/mpu6000"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Chip implements spi.PortCloser and spi.Conn.
type Chip struct {
	mu sync.Mutex

	// Product is returned by the PRODUCT_ID register.
	Product byte
	// IgnoreClockWrites drops that many clock source writes to PWR_MGMT_1,
	// like a part that is slow to leave sleep mode.
	IgnoreClockWrites int
	// Stuck registers always read back the given value.
	Stuck map[byte]byte
	// Fail is called before each transfer; a non-nil error aborts it.
	Fail func(w []byte) error
	// Motion makes the data registers follow a slow synthetic motion.
	Motion bool

	regs   [128]byte
	resets int
	writes map[byte]int
	start  time.Time

	// Connection parameters of the last Connect call.
	Freq physic.Frequency
	Mode spi.Mode
	Bits int
}

// New returns a powered-on chip reporting a rev D8 product ID.
func New() *Chip {
	c := &Chip{
		Product: byte(mpu6000.MPU6000RevD8),
		Stuck:   map[byte]byte{},
		writes:  map[byte]int{},
		start:   time.Now(),
	}
	c.reset()
	return c
}

func (c *Chip) String() string {
	return "mpu6000sim"
}

// Connect implements spi.Port.
func (c *Chip) Connect(f physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Freq, c.Mode, c.Bits = f, mode, bits
	return c, nil
}

// LimitSpeed implements spi.Port.
func (c *Chip) LimitSpeed(f physic.Frequency) error {
	return nil
}

// Close implements spi.PortCloser.
func (c *Chip) Close() error {
	return nil
}

// Halt implements conn.Resource.
func (c *Chip) Halt() error {
	return nil
}

// Duplex implements conn.Conn.
func (c *Chip) Duplex() conn.Duplex {
	return conn.Full
}

// TxPackets implements spi.Conn.
func (c *Chip) TxPackets(p []spi.Packet) error {
	for _, pk := range p {
		if err := c.Tx(pk.W, pk.R); err != nil {
			return err
		}
	}
	return nil
}

// Tx implements conn.Conn. The first byte is the register address, with
// bit 7 set for reads; the address auto-increments for bursts.
func (c *Chip) Tx(w, r []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(w) == 0 {
		return errors.New("mpu6000sim: empty transfer")
	}
	if r != nil && len(r) != len(w) {
		return fmt.Errorf("mpu6000sim: r and w length differ: %d != %d", len(r), len(w))
	}
	if c.Fail != nil {
		if err := c.Fail(w); err != nil {
			return err
		}
	}

	addr := w[0] &^ 0x80
	if w[0]&0x80 == 0 {
		for i, v := range w[1:] {
			c.writeReg(addr+byte(i), v)
		}
		return nil
	}

	if c.Motion && (addr == mpu6000.RegAccelXoutH || addr == mpu6000.RegGyroXoutH) {
		c.animate()
	}
	if r == nil {
		return nil
	}
	r[0] = 0
	for i := 1; i < len(w); i++ {
		r[i] = c.readReg(addr + byte(i-1))
	}
	return nil
}

func (c *Chip) reset() {
	c.regs = [128]byte{}
	c.regs[mpu6000.RegPwrMgmt1] = mpu6000.BitSleep
}

func readOnly(reg byte) bool {
	switch {
	case reg == mpu6000.RegProductID, reg == mpu6000.RegWhoAmI, reg == mpu6000.RegIntStatus:
		return true
	case reg >= mpu6000.RegAccelXoutH && reg <= mpu6000.RegGyroXoutH+5:
		return true
	}
	return false
}

func (c *Chip) writeReg(reg, v byte) {
	reg &= 0x7F
	c.writes[reg]++
	if readOnly(reg) {
		return
	}
	if reg == mpu6000.RegPwrMgmt1 {
		if v&mpu6000.BitHReset != 0 {
			c.resets++
			c.reset()
			return
		}
		if c.IgnoreClockWrites > 0 && v&0x07 != 0 {
			c.IgnoreClockWrites--
			return
		}
	}
	c.regs[reg] = v
}

func (c *Chip) readReg(reg byte) byte {
	reg &= 0x7F
	if v, ok := c.Stuck[reg]; ok {
		return v
	}
	switch reg {
	case mpu6000.RegProductID:
		return c.Product
	case mpu6000.RegWhoAmI:
		return mpu6000.WhoAmIMPU6000
	}
	return c.regs[reg]
}

func (c *Chip) putVector(reg byte, x, y, z int16) {
	binary.BigEndian.PutUint16(c.regs[reg:], uint16(x))
	binary.BigEndian.PutUint16(c.regs[reg+2:], uint16(y))
	binary.BigEndian.PutUint16(c.regs[reg+4:], uint16(z))
}

// animate fills the data registers with a gentle rocking motion, in the
// sensor frame and at the currently configured full-scale ranges.
func (c *Chip) animate() {
	t := time.Since(c.start).Seconds()
	lsbPerG := float64(int(16384) >> ((c.regs[mpu6000.RegAccelConfig] >> 3) & 3))
	lsbPerDPS := 131.0 / float64(int(1)<<((c.regs[mpu6000.RegGyroConfig]>>3)&3))

	roll := 0.35 * math.Sin(t)
	pitch := 0.26 * math.Cos(t*0.7)
	c.putVector(mpu6000.RegAccelXoutH,
		int16(-math.Sin(pitch)*lsbPerG),
		int16(math.Sin(roll)*math.Cos(pitch)*lsbPerG),
		int16(math.Cos(roll)*math.Cos(pitch)*lsbPerG))
	c.putVector(mpu6000.RegGyroXoutH,
		int16(20*math.Cos(t)*lsbPerDPS),
		int16(-14*math.Sin(t*0.7)*lsbPerDPS),
		0)
}

// SetGyro loads the gyro data registers with a sensor frame sample.
func (c *Chip) SetGyro(x, y, z int16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putVector(mpu6000.RegGyroXoutH, x, y, z)
}

// SetAccel loads the accelerometer data registers with a sensor frame sample.
func (c *Chip) SetAccel(x, y, z int16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putVector(mpu6000.RegAccelXoutH, x, y, z)
}

// Register returns the stored value of reg, ignoring Stuck.
func (c *Chip) Register(reg byte) byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.regs[reg&0x7F]
}

// Resets returns how many hardware resets were requested.
func (c *Chip) Resets() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resets
}

// Writes returns how many write transactions addressed reg.
func (c *Chip) Writes(reg byte) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes[reg&0x7F]
}

// SetIgnoreClockWrites sets IgnoreClockWrites while transfers may be in
// flight.
func (c *Chip) SetIgnoreClockWrites(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.IgnoreClockWrites = n
}

// SetStuck makes reg read back v regardless of writes.
func (c *Chip) SetStuck(reg, v byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Stuck[reg&0x7F] = v
}

// Unstick clears a SetStuck.
func (c *Chip) Unstick(reg byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.Stuck, reg&0x7F)
}
