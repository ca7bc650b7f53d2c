// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mpu6000

// Register addresses.
const (
	RegProductID   = 0x0C
	RegSmplrtDiv   = 0x19
	RegConfig      = 0x1A
	RegGyroConfig  = 0x1B
	RegAccelConfig = 0x1C
	RegFIFOEn      = 0x23
	RegIntPinCfg   = 0x37
	RegIntEnable   = 0x38
	RegIntStatus   = 0x3A
	RegAccelXoutH  = 0x3B
	RegTempOutH    = 0x41
	RegGyroXoutH   = 0x43
	RegUserCtrl    = 0x6A
	RegPwrMgmt1    = 0x6B
	RegPwrMgmt2    = 0x6C
	RegWhoAmI      = 0x75
)

// Register bits.
const (
	dirRead = 0x80

	BitSleep         = 0x40
	BitHReset        = 0x80
	ClkSelPLLGyroX   = 0x01
	ClkSelPLLGyroZ   = 0x03
	BitI2CIfDis      = 0x10
	BitIntAnyRd2Clr  = 0x10
	BitRawRdyEn      = 0x01
	BitIntStatusData = 0x01

	FS250DPS  = 0x00
	FS500DPS  = 0x08
	FS1000DPS = 0x10
	FS2000DPS = 0x18

	DLPF256HzNoLPF2 = 0x00
	DLPF188Hz       = 0x01
	DLPF98Hz        = 0x02
	DLPF42Hz        = 0x03
	DLPF20Hz        = 0x04
	DLPF10Hz        = 0x05
	DLPF5Hz         = 0x06
	DLPF2100HzNoLPF = 0x07
)

// WhoAmIMPU6000 is the WHO_AMI value of a genuine MPU6000.
const WhoAmIMPU6000 = 0x68

// baseRateHz is the internal sample timebase with the DLPF enabled.
const baseRateHz = 1000

// OneG is standard gravity in m/s².
const OneG = 9.80665

// Values used by DefaultOpts. A zero SampleRateHz or AccelMaxG also
// selects the default; a zero DLPFHz means no filter.
const (
	DefaultSampleRateHz = 1000
	DefaultDLPFHz       = 256
	DefaultAccelMaxG    = 8
)
