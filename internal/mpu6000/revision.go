// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mpu6000

import "fmt"

// ProductID is the content of the PRODUCT_ID register: product name in the
// high nibble, silicon revision in the low nibble.
type ProductID byte

// ProductUnknown is used when the identity could not be read.
const ProductUnknown ProductID = 0

// Known product codes.
const (
	MPU6000ESRevC4 ProductID = 0x14
	MPU6000ESRevC5 ProductID = 0x15
	MPU6000ESRevD6 ProductID = 0x16
	MPU6000ESRevD7 ProductID = 0x17
	MPU6000ESRevD8 ProductID = 0x18
	MPU6000RevC4   ProductID = 0x54
	MPU6000RevC5   ProductID = 0x55
	MPU6000RevD6   ProductID = 0x56
	MPU6000RevD7   ProductID = 0x57
	MPU6000RevD8   ProductID = 0x58
	MPU6000RevD9   ProductID = 0x59
	MPU6000RevD10  ProductID = 0x5A
)

func (p ProductID) String() string {
	return fmt.Sprintf("0x%02X", byte(p))
}

// accelRange is one accelerometer full-scale configuration.
type accelRange struct {
	reg     byte // ACCEL_CONFIG value
	lsbPerG float32
	maxG    float32
}

// Rev C parts have a broken AFS_SEL decoder: code 1 gives the 8g scaling.
var revCAccel = accelRange{reg: 1 << 3, lsbPerG: 4096, maxG: 8}

// accelOverrides maps silicon revisions to a hardwired accelerometer range
// that replaces the requested one.
var accelOverrides = map[ProductID]accelRange{
	MPU6000ESRevC4: revCAccel,
	MPU6000ESRevC5: revCAccel,
	MPU6000RevC4:   revCAccel,
	MPU6000RevC5:   revCAccel,
}

// selectAccelRange picks the smallest range covering maxG. The comparisons
// are strict, so 2, 4 and 8 select their own tier. 0 is treated as
// DefaultAccelMaxG.
func selectAccelRange(maxG uint) accelRange {
	if maxG == 0 {
		maxG = DefaultAccelMaxG
	}
	switch {
	case maxG > 8:
		return accelRange{reg: 3 << 3, lsbPerG: 2048, maxG: 16}
	case maxG > 4:
		return accelRange{reg: 2 << 3, lsbPerG: 4096, maxG: 8}
	case maxG > 2:
		return accelRange{reg: 1 << 3, lsbPerG: 8192, maxG: 4}
	default:
		return accelRange{reg: 0, lsbPerG: 16384, maxG: 2}
	}
}
