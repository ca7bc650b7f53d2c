// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/fmu_imu/internal/config"
	"github.com/relabs-tech/fmu_imu/internal/imu"
	"github.com/relabs-tech/fmu_imu/internal/sensors"
)

// RunLocalConsole reads the IMU directly, without MQTT, and prints one
// scaled sample per CONSOLE_LOG_INTERVAL. With IMU_SIMULATED=true it needs
// no hardware at all.
func RunLocalConsole() error {
	cfg := config.Get()

	imuManager := sensors.GetIMUManager()
	if err := imuManager.Init(); err != nil {
		return err
	}
	defer imuManager.Close()

	return printSamples(imuManager, time.Duration(cfg.ConsoleLogInterval)*time.Millisecond, 0)
}

// printSamples prints n samples from src, or forever if n is 0.
func printSamples(src imu.SampleSource, every time.Duration, n int) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for i := 0; n == 0 || i < n; i++ {
		<-ticker.C
		s, err := src.ReadSample()
		if err != nil {
			log.Printf("console: %v", err)
			continue
		}
		fmt.Printf(
			"AX=%7.3f AY=%7.3f AZ=%7.3f  GX=%7.4f GY=%7.4f GZ=%7.4f\n",
			s.Scaled.Ax, s.Scaled.Ay, s.Scaled.Az,
			s.Scaled.Gx, s.Scaled.Gy, s.Scaled.Gz,
		)
	}
	return nil
}
