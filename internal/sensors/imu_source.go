// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"

	"github.com/relabs-tech/fmu_imu/internal/config"
	"github.com/relabs-tech/fmu_imu/internal/mpu6000"
	"github.com/relabs-tech/fmu_imu/internal/mpu6000/mpu6000sim"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// openIMUPort opens the SPI port the IMU is attached to, or a simulated
// chip when IMU_SIMULATED is set.
func openIMUPort(cfg *config.Config) (spi.PortCloser, error) {
	if cfg.IMUSimulated {
		log.Println("IMU: using simulated MPU6000")
		chip := mpu6000sim.New()
		chip.Motion = true
		return chip, nil
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("IMU: periph host init: %w", err)
	}

	p, err := spireg.Open(cfg.IMUSPIDevice)
	if err != nil {
		return nil, fmt.Errorf("IMU: SPI open (%s): %w", cfg.IMUSPIDevice, err)
	}
	if cfg.IMUCSPin == "" {
		return p, nil
	}

	cs := gpioreg.ByName(cfg.IMUCSPin)
	if cs == nil {
		p.Close()
		return nil, fmt.Errorf("IMU: CS pin %q not found", cfg.IMUCSPin)
	}
	cp, err := newCSPort(p, cs)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("IMU: %w", err)
	}
	log.Printf("IMU: chip select on %s", cfg.IMUCSPin)
	return cp, nil
}

// optsFromConfig maps the IMU_* keys onto driver options.
func optsFromConfig(cfg *config.Config) mpu6000.Opts {
	return mpu6000.Opts{
		SampleRateHz: cfg.IMUSampleRateHz,
		DLPFHz:       cfg.IMUDLPFHz,
		AccelMaxG:    cfg.IMUAccelMaxG,
	}
}
