// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mpu6000

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/spi/spitest"
)

func TestSampleRateDivisorBounds(t *testing.T) {
	for r := uint(5); r <= 1000; r++ {
		div := sampleRateDivisor(r)
		if div < 1 || div > 200 {
			t.Fatalf("rate %d: divisor %d out of [1,200]", r, div)
		}
		// div is 1000/r rounded to the nearest integer.
		if exact := float64(1000) / float64(r); abs(exact-float64(div)) > 0.5 {
			t.Fatalf("rate %d: divisor %d, exact %.3f", r, div, exact)
		}
		if eff := 1000 / div; eff > 1000 {
			t.Fatalf("rate %d: effective %d Hz above the base rate", r, eff)
		}
	}
}

func TestSampleRateDivisorEdges(t *testing.T) {
	tests := []struct {
		hz   uint
		want uint
	}{
		{0, 1},    // default 1000 Hz
		{1000, 1}, // base rate
		{5000, 1}, // above base rate
		{500, 2},
		{333, 3},
		{400, 3}, // 2.5 rounds up
		{5, 200},
		{4, 200}, // clamped
		{1, 200},
	}
	for _, tt := range tests {
		if got := sampleRateDivisor(tt.hz); got != tt.want {
			t.Errorf("sampleRateDivisor(%d) = %d, want %d", tt.hz, got, tt.want)
		}
	}
}

func TestSelectDLPF(t *testing.T) {
	ladder := []uint{5, 10, 20, 42, 98, 188, 256}
	for f := uint(0); f <= 400; f++ {
		got, code := selectDLPF(f)
		var want uint
		if f != 0 && f <= 256 {
			for _, s := range ladder {
				if s >= f {
					want = s
					break
				}
			}
		}
		if got != want {
			t.Fatalf("selectDLPF(%d) = %d, want %d", f, got, want)
		}
		if want == 0 && code != DLPF2100HzNoLPF {
			t.Fatalf("selectDLPF(%d) code = %d, want unfiltered", f, code)
		}
	}
	if _, code := selectDLPF(42); code != DLPF42Hz {
		t.Errorf("selectDLPF(42) code = %d, want %d", code, DLPF42Hz)
	}
	if _, code := selectDLPF(256); code != DLPF256HzNoLPF2 {
		t.Errorf("selectDLPF(256) code = %d, want %d", code, DLPF256HzNoLPF2)
	}
}

func TestSelectAccelRange(t *testing.T) {
	tests := []struct {
		maxG    uint
		afsSel  byte
		lsbPerG float32
	}{
		{0, 2, 4096},
		{1, 0, 16384},
		{2, 0, 16384},
		{3, 1, 8192},
		{4, 1, 8192},
		{5, 2, 4096},
		{8, 2, 4096},
		{9, 3, 2048},
		{10, 3, 2048},
		{16, 3, 2048},
		{100, 3, 2048},
	}
	for _, tt := range tests {
		r := selectAccelRange(tt.maxG)
		if r.reg != tt.afsSel<<3 || r.lsbPerG != tt.lsbPerG {
			t.Errorf("selectAccelRange(%d) = {reg 0x%02X, %v LSB/g}, want {reg 0x%02X, %v LSB/g}",
				tt.maxG, r.reg, r.lsbPerG, tt.afsSel<<3, tt.lsbPerG)
		}
	}
}

func TestAccelOverridesOnlyRevC(t *testing.T) {
	for p, r := range accelOverrides {
		if p&0x0F != 0x04 && p&0x0F != 0x05 {
			t.Errorf("override for %s is not a rev C part", p)
		}
		if r.maxG != 8 || r.lsbPerG != 4096 {
			t.Errorf("override for %s = %+v, want 8g scaling", p, r)
		}
	}
	if _, ok := accelOverrides[MPU6000RevD8]; ok {
		t.Error("rev D8 must use the requested range")
	}
}

func TestToVehicleFrame(t *testing.T) {
	got := toVehicleFrame([3]int16{1000, 2000, 3000})
	if want := [3]int16{2000, -1000, 3000}; got != want {
		t.Fatalf("toVehicleFrame = %v, want %v", got, want)
	}
	// Twice is a half turn about Z.
	got = toVehicleFrame(got)
	if want := [3]int16{-1000, -2000, 3000}; got != want {
		t.Fatalf("toVehicleFrame twice = %v, want %v", got, want)
	}
}

func TestClockNegotiatorBound(t *testing.T) {
	n := clockNegotiator{want: ClkSelPLLGyroZ, maxAttempts: clockAttempts}
	attempts := 0
	for n.more() {
		attempts = n.begin()
		if n.observe(BitSleep, nil) {
			t.Fatal("observe accepted the wrong clock source")
		}
	}
	if attempts != clockAttempts {
		t.Fatalf("attempts = %d, want %d", attempts, clockAttempts)
	}
	if got := n.backoff(); got != clockAttempts*retryBackoffStep {
		t.Errorf("backoff = %v, want %v", got, clockAttempts*retryBackoffStep)
	}
}

func TestClockNegotiatorExit(t *testing.T) {
	n := clockNegotiator{want: ClkSelPLLGyroZ, maxAttempts: clockAttempts}
	n.begin()
	if n.observe(ClkSelPLLGyroZ, errors.New("bus")) {
		t.Fatal("observe accepted a failed read")
	}
	if !n.more() {
		t.Fatal("loop ended after one failed attempt")
	}
	n.begin()
	if !n.observe(ClkSelPLLGyroZ, nil) {
		t.Fatal("observe rejected the requested clock source")
	}
	if n.more() {
		t.Fatal("loop continues after lock")
	}
}

func TestStageString(t *testing.T) {
	if got := StageClockNegotiate.String(); got != "ClockNegotiate" {
		t.Errorf("got %q", got)
	}
	if got := Stage(99).String(); got != "Stage(?)" {
		t.Errorf("got %q", got)
	}
}

func TestTransportWireFormat(t *testing.T) {
	p := &spitest.Playback{
		Playback: conntest.Playback{
			Ops: []conntest.IO{
				{W: []byte{RegGyroConfig, FS2000DPS}},
				{W: []byte{RegGyroConfig | 0x80, 0x00}, R: []byte{0x00, FS2000DPS}},
				{W: []byte{RegProductID | 0x80, 0x00}, R: []byte{0x00, 0x58}},
				{W: []byte{RegGyroXoutH | 0x80, 0, 0, 0, 0, 0, 0}, R: []byte{0, 1, 2, 3, 4, 5, 6}},
			},
		},
	}
	c, err := p.Connect(SPIFrequency, SPIMode, SPIBits)
	if err != nil {
		t.Fatal(err)
	}
	tr := transport{c: c}

	if err := tr.writeCheckedRegister(RegGyroConfig, FS2000DPS); err != nil {
		t.Fatalf("writeCheckedRegister: %v", err)
	}
	v, err := tr.readRegister(RegProductID)
	if err != nil || v != 0x58 {
		t.Fatalf("readRegister = 0x%02X, %v", v, err)
	}
	b, err := tr.readBurst(RegGyroXoutH, 6)
	if err != nil {
		t.Fatalf("readBurst: %v", err)
	}
	if string(b) != string([]byte{1, 2, 3, 4, 5, 6}) {
		t.Fatalf("readBurst = %v", b)
	}
	if p.Count != len(p.Ops) {
		t.Fatalf("%d of %d transfers done", p.Count, len(p.Ops))
	}
}

func TestTransportCheckedWriteMismatch(t *testing.T) {
	p := &spitest.Playback{
		Playback: conntest.Playback{
			Ops: []conntest.IO{
				{W: []byte{RegAccelConfig, 0x18}},
				{W: []byte{RegAccelConfig | 0x80, 0x00}, R: []byte{0x00, 0x00}},
			},
		},
	}
	c, err := p.Connect(SPIFrequency, SPIMode, SPIBits)
	if err != nil {
		t.Fatal(err)
	}
	tr := transport{c: c}
	err = tr.writeCheckedRegister(RegAccelConfig, 0x18)
	if !errors.Is(err, ErrMismatch) {
		t.Fatalf("err = %v, want ErrMismatch", err)
	}
	var ve *VerifyError
	if !errors.As(err, &ve) || ve.Reg != RegAccelConfig || ve.Wrote != 0x18 || ve.Read != 0 {
		t.Fatalf("err = %#v", err)
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
