// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/relabs-tech/fmu_imu/internal/mpu6000"
)

var (
	imuReads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fmu_imu_reads_total",
			Help: "Successful channel reads.",
		},
		[]string{"pos"},
	)

	imuReadFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fmu_imu_read_failures_total",
			Help: "Channel reads that returned zero bytes.",
		},
		[]string{"pos"},
	)

	imuInits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fmu_imu_inits_total",
			Help: "Initialization runs by outcome.",
		},
		[]string{"result"},
	)

	imuStage = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fmu_imu_init_stage",
		Help: "Current initialization stage (numeric).",
	})

	imuClockAttempts = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fmu_imu_clock_attempts",
		Help: "Clock source attempts used by the last initialization.",
	})

	imuSampleRate = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fmu_imu_sample_rate_hz",
		Help: "Effective sample rate.",
	})
)

// MustRegisterMetrics registers the IMU collectors with the default
// registry. Call it once, before serving /metrics.
func MustRegisterMetrics() {
	prometheus.MustRegister(imuReads)
	prometheus.MustRegister(imuReadFailures)
	prometheus.MustRegister(imuInits)
	prometheus.MustRegister(imuStage)
	prometheus.MustRegister(imuClockAttempts)
	prometheus.MustRegister(imuSampleRate)
}

func observeStatus(st mpu6000.Status) {
	imuStage.Set(float64(st.Stage))
	imuClockAttempts.Set(float64(st.ClockAttempts))
	imuSampleRate.Set(float64(st.State.SampleRateHz))
}
