// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"

	"github.com/relabs-tech/fmu_imu/internal/mpu6000"
)

// BitField describes one field inside a register.
type BitField struct {
	Bits        string `json:"bits"` // "7" or "4:3"
	Name        string `json:"name"`
	Description string `json:"description"`
	Values      string `json:"values,omitempty"`
}

// RegisterInfo describes one register for the debug tool.
type RegisterInfo struct {
	Address     string     `json:"address"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Access      string     `json:"access"` // "R", "W", "RW"
	Default     string     `json:"default,omitempty"`
	BitFields   []BitField `json:"bit_fields,omitempty"`

	addr byte
}

func reg(addr byte, name, desc, access, def string, fields ...BitField) RegisterInfo {
	return RegisterInfo{
		Address:     fmt.Sprintf("0x%02X", addr),
		Name:        name,
		Description: desc,
		Access:      access,
		Default:     def,
		BitFields:   fields,
		addr:        addr,
	}
}

// getMPU6000RegisterMap returns metadata for the MPU6000 registers the
// driver touches, plus the data block.
func getMPU6000RegisterMap() []RegisterInfo {
	return []RegisterInfo{
		reg(mpu6000.RegProductID, "PRODUCT_ID", "Silicon revision", "R", "",
			BitField{Bits: "7:4", Name: "PART", Description: "Part variant", Values: "1=Engineering sample, 5=Production"},
			BitField{Bits: "3:0", Name: "REV", Description: "Revision", Values: "4,5=Rev C, 6-10=Rev D"},
		),

		// Configuration
		reg(mpu6000.RegSmplrtDiv, "SMPLRT_DIV", "Sample Rate Divider", "RW", "0x00",
			BitField{Bits: "7:0", Name: "SMPLRT_DIV", Description: "Sample Rate = 1kHz / (1 + SMPLRT_DIV) with DLPF enabled", Values: "0-255"},
		),
		reg(mpu6000.RegConfig, "CONFIG", "Configuration (DLPF)", "RW", "0x00",
			BitField{Bits: "5:3", Name: "EXT_SYNC_SET", Description: "External FSYNC pin sampling", Values: "0=Disabled"},
			BitField{Bits: "2:0", Name: "DLPF_CFG", Description: "Digital Low Pass Filter", Values: "0=256Hz, 1=188Hz, 2=98Hz, 3=42Hz, 4=20Hz, 5=10Hz, 6=5Hz, 7=2100Hz"},
		),
		reg(mpu6000.RegGyroConfig, "GYRO_CONFIG", "Gyroscope Configuration", "RW", "0x00",
			BitField{Bits: "7:5", Name: "XYZG_ST", Description: "Gyro self-test X/Y/Z", Values: "0=Disabled, 1=Enabled"},
			BitField{Bits: "4:3", Name: "FS_SEL", Description: "Gyro Full Scale Range", Values: "0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s"},
		),
		reg(mpu6000.RegAccelConfig, "ACCEL_CONFIG", "Accelerometer Configuration", "RW", "0x00",
			BitField{Bits: "7:5", Name: "XYZA_ST", Description: "Accel self-test X/Y/Z", Values: "0=Disabled, 1=Enabled"},
			BitField{Bits: "4:3", Name: "AFS_SEL", Description: "Accel Full Scale Range", Values: "0=±2g, 1=±4g, 2=±8g, 3=±16g"},
		),
		reg(mpu6000.RegFIFOEn, "FIFO_EN", "FIFO Enable", "RW", "0x00"),

		// Interrupts
		reg(mpu6000.RegIntPinCfg, "INT_PIN_CFG", "INT Pin / Bypass Enable Configuration", "RW", "0x00",
			BitField{Bits: "7", Name: "INT_LEVEL", Description: "INT pin active low", Values: "0=Active high, 1=Active low"},
			BitField{Bits: "6", Name: "INT_OPEN", Description: "INT pin open drain", Values: "0=Push-pull, 1=Open drain"},
			BitField{Bits: "5", Name: "LATCH_INT_EN", Description: "Latch INT pin", Values: "0=50us pulse, 1=Latch until cleared"},
			BitField{Bits: "4", Name: "INT_RD_CLEAR", Description: "Clear INT on any read", Values: "0=Status read only, 1=Any read"},
		),
		reg(mpu6000.RegIntEnable, "INT_ENABLE", "Interrupt Enable", "RW", "0x00",
			BitField{Bits: "4", Name: "FIFO_OFLOW_EN", Description: "FIFO overflow interrupt", Values: "0=Disabled, 1=Enabled"},
			BitField{Bits: "0", Name: "DATA_RDY_EN", Description: "Data ready interrupt", Values: "0=Disabled, 1=Enabled"},
		),
		reg(mpu6000.RegIntStatus, "INT_STATUS", "Interrupt Status", "R", "0x00",
			BitField{Bits: "0", Name: "DATA_RDY_INT", Description: "Data ready"},
		),

		// Data
		reg(0x3B, "ACCEL_XOUT_H", "Accel X high byte", "R", ""),
		reg(0x3C, "ACCEL_XOUT_L", "Accel X low byte", "R", ""),
		reg(0x3D, "ACCEL_YOUT_H", "Accel Y high byte", "R", ""),
		reg(0x3E, "ACCEL_YOUT_L", "Accel Y low byte", "R", ""),
		reg(0x3F, "ACCEL_ZOUT_H", "Accel Z high byte", "R", ""),
		reg(0x40, "ACCEL_ZOUT_L", "Accel Z low byte", "R", ""),
		reg(0x41, "TEMP_OUT_H", "Temperature high byte", "R", ""),
		reg(0x42, "TEMP_OUT_L", "Temperature low byte", "R", ""),
		reg(0x43, "GYRO_XOUT_H", "Gyro X high byte", "R", ""),
		reg(0x44, "GYRO_XOUT_L", "Gyro X low byte", "R", ""),
		reg(0x45, "GYRO_YOUT_H", "Gyro Y high byte", "R", ""),
		reg(0x46, "GYRO_YOUT_L", "Gyro Y low byte", "R", ""),
		reg(0x47, "GYRO_ZOUT_H", "Gyro Z high byte", "R", ""),
		reg(0x48, "GYRO_ZOUT_L", "Gyro Z low byte", "R", ""),

		// Power and interface
		reg(mpu6000.RegUserCtrl, "USER_CTRL", "User Control", "RW", "0x00",
			BitField{Bits: "6", Name: "FIFO_EN", Description: "Enable FIFO", Values: "0=Disabled, 1=Enabled"},
			BitField{Bits: "4", Name: "I2C_IF_DIS", Description: "Disable I2C interface (SPI only)", Values: "0=I2C enabled, 1=SPI only"},
			BitField{Bits: "0", Name: "SIG_COND_RESET", Description: "Reset signal paths"},
		),
		reg(mpu6000.RegPwrMgmt1, "PWR_MGMT_1", "Power Management 1", "RW", "0x40",
			BitField{Bits: "7", Name: "DEVICE_RESET", Description: "Reset all registers"},
			BitField{Bits: "6", Name: "SLEEP", Description: "Sleep mode", Values: "0=Awake, 1=Sleep"},
			BitField{Bits: "3", Name: "TEMP_DIS", Description: "Disable temperature sensor"},
			BitField{Bits: "2:0", Name: "CLKSEL", Description: "Clock source", Values: "0=Internal 8MHz, 1=PLL gyro X, 2=PLL gyro Y, 3=PLL gyro Z"},
		),
		reg(mpu6000.RegPwrMgmt2, "PWR_MGMT_2", "Power Management 2", "RW", "0x00"),
		reg(mpu6000.RegWhoAmI, "WHO_AM_I", "Device ID", "R", "0x68"),
	}
}
