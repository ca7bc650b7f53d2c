// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mpu6000

// Stage is a step of the initialization state machine.
type Stage int

const (
	StageIdle Stage = iota
	StageIdentityRead
	StageResetPulse
	StageClockNegotiate
	StageInterfaceDisable
	StageClockVerify
	StageSampleRateConfig
	StageFilterConfig
	StageGyroRangeConfig
	StageAccelRangeConfig
	StageInterruptConfig
	StageReady
	StageFaulted
)

var stageNames = [...]string{
	StageIdle:             "Idle",
	StageIdentityRead:     "IdentityRead",
	StageResetPulse:       "ResetPulse",
	StageClockNegotiate:   "ClockNegotiate",
	StageInterfaceDisable: "InterfaceDisable",
	StageClockVerify:      "ClockVerify",
	StageSampleRateConfig: "SampleRateConfig",
	StageFilterConfig:     "FilterConfig",
	StageGyroRangeConfig:  "GyroRangeConfig",
	StageAccelRangeConfig: "AccelRangeConfig",
	StageInterruptConfig:  "InterruptConfig",
	StageReady:            "Ready",
	StageFaulted:          "Faulted",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "Stage(?)"
	}
	return stageNames[s]
}

// DriverState is the effective configuration of one device. Every field
// reflects the last register write that was verified by read-back.
type DriverState struct {
	SampleRateHz  uint    `json:"sample_rate_hz"`
	DLPFCutoffHz  uint    `json:"dlpf_cutoff_hz"` // 0 means unfiltered
	GyroScale     float32 `json:"gyro_scale"`     // rad/s per LSB
	GyroRangeRadS float32 `json:"gyro_range_rad_s"`
	AccelScale    float32 `json:"accel_scale"` // m/s² per LSB
	AccelRangeMS2 float32 `json:"accel_range_m_s2"`
}

// Status is a snapshot of the driver for diagnostics.
type Status struct {
	Stage         Stage       `json:"-"`
	StageName     string      `json:"stage"`
	Product       ProductID   `json:"product_id"`
	IdentityErr   error       `json:"-"`
	ClockAttempts int         `json:"clock_attempts"`
	State         DriverState `json:"state"`
}
