// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/relabs-tech/fmu_imu/internal/config"
	"github.com/relabs-tech/fmu_imu/internal/imu"
	"github.com/relabs-tech/fmu_imu/internal/mpu6000"
	"periph.io/x/conn/v3/spi"
)

// ErrIMUNotOpen is returned before Init has opened a device.
var ErrIMUNotOpen = errors.New("IMU: not opened")

// IMUManager owns the MPU6000 and serializes every access to it. The
// producer, the register debug tool and the REST endpoint all go through
// the same manager.
type IMUManager struct {
	mu   sync.Mutex
	port spi.PortCloser
	dev  *mpu6000.Dev
	buf  [mpu6000.ScaledSize]byte
}

var (
	imuManager     *IMUManager
	imuManagerOnce sync.Once
)

// GetIMUManager returns the process wide manager.
func GetIMUManager() *IMUManager {
	imuManagerOnce.Do(func() {
		imuManager = &IMUManager{}
	})
	return imuManager
}

// Init opens the device described by the global configuration and runs
// the initialization sequence.
func (m *IMUManager) Init() error {
	cfg := config.Get()
	if cfg == nil {
		return errors.New("IMU: configuration not loaded")
	}
	p, err := openIMUPort(cfg)
	if err != nil {
		return err
	}
	return m.InitWithPort(p, optsFromConfig(cfg))
}

// InitWithPort replaces the current device with one on p and initializes
// it. A previously opened port is closed.
func (m *IMUManager) InitWithPort(p spi.PortCloser, o mpu6000.Opts) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.port != nil {
		m.port.Close()
	}
	m.port, m.dev = p, nil

	dev, err := mpu6000.New(p, &o)
	if err != nil {
		return fmt.Errorf("IMU: %w", err)
	}
	m.dev = dev
	return m.initLocked()
}

// Reinitialize runs the initialization sequence again on the open device.
// It is the way out of a faulted stage.
func (m *IMUManager) Reinitialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dev == nil {
		return ErrIMUNotOpen
	}
	return m.initLocked()
}

func (m *IMUManager) initLocked() error {
	err := m.dev.Init()
	st := m.dev.Status()
	observeStatus(st)
	if err != nil {
		imuInits.WithLabelValues("faulted").Inc()
		return fmt.Errorf("IMU: initialization: %w", err)
	}
	imuInits.WithLabelValues("ready").Inc()

	if st.IdentityErr != nil {
		log.Printf("IMU: %v", st.IdentityErr)
	}
	log.Printf("IMU: ready (product %s, %d clock attempts)", st.Product, st.ClockAttempts)
	log.Printf("IMU: sample rate %d Hz, DLPF %d Hz, gyro ±%.2f rad/s, accel ±%.2f m/s²",
		st.State.SampleRateHz, st.State.DLPFCutoffHz, st.State.GyroRangeRadS, st.State.AccelRangeMS2)
	return nil
}

// Close releases the SPI port.
func (m *IMUManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dev = nil
	if m.port == nil {
		return nil
	}
	err := m.port.Close()
	m.port = nil
	return err
}

// IsAvailable reports whether the device is ready to be sampled.
func (m *IMUManager) IsAvailable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dev != nil && m.dev.Stage() == mpu6000.StageReady
}

// Status returns the driver diagnostic snapshot.
func (m *IMUManager) Status() (mpu6000.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dev == nil {
		return mpu6000.Status{}, ErrIMUNotOpen
	}
	return m.dev.Status(), nil
}

var samplePositions = [...]mpu6000.Pos{
	mpu6000.PosGyroRaw,
	mpu6000.PosGyroScaled,
	mpu6000.PosAccelRaw,
	mpu6000.PosAccelScaled,
}

// ReadSample reads all four channel positions. Any zero length read fails
// the whole sample with the driver's last error.
func (m *IMUManager) ReadSample() (imu.Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dev == nil {
		return imu.Sample{}, ErrIMUNotOpen
	}

	s := imu.Sample{Time: time.Now()}
	for _, pos := range samplePositions {
		n := m.dev.Read(pos, m.buf[:])
		if n == 0 {
			imuReadFailures.WithLabelValues(pos.String()).Inc()
			return imu.Sample{}, fmt.Errorf("IMU: read %s: %w", pos, m.dev.LastError())
		}
		imuReads.WithLabelValues(pos.String()).Inc()

		switch pos {
		case mpu6000.PosGyroRaw:
			v := mpu6000.DecodeRaw(m.buf[:n])
			s.Raw.Gx, s.Raw.Gy, s.Raw.Gz = v[0], v[1], v[2]
		case mpu6000.PosGyroScaled:
			v := mpu6000.DecodeScaled(m.buf[:n])
			s.Scaled.Gx, s.Scaled.Gy, s.Scaled.Gz = v[0], v[1], v[2]
		case mpu6000.PosAccelRaw:
			v := mpu6000.DecodeRaw(m.buf[:n])
			s.Raw.Ax, s.Raw.Ay, s.Raw.Az = v[0], v[1], v[2]
		case mpu6000.PosAccelScaled:
			v := mpu6000.DecodeScaled(m.buf[:n])
			s.Scaled.Ax, s.Scaled.Ay, s.Scaled.Az = v[0], v[1], v[2]
		}
	}
	return s, nil
}

// Configure changes the sample rate, filter and accelerometer range of a
// running device. Zero leaves a setting unchanged.
func (m *IMUManager) Configure(sampleRateHz, dlpfHz, accelMaxG uint) (mpu6000.DriverState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dev == nil {
		return mpu6000.DriverState{}, ErrIMUNotOpen
	}
	defer func() { observeStatus(m.dev.Status()) }()

	if sampleRateHz != 0 {
		if err := m.dev.SetSampleRate(sampleRateHz); err != nil {
			return m.dev.State(), fmt.Errorf("IMU: sample rate: %w", err)
		}
	}
	if dlpfHz != 0 {
		if err := m.dev.SetDLPFFilter(dlpfHz); err != nil {
			return m.dev.State(), fmt.Errorf("IMU: DLPF: %w", err)
		}
	}
	if accelMaxG != 0 {
		if err := m.dev.SetAccelRange(accelMaxG); err != nil {
			return m.dev.State(), fmt.Errorf("IMU: accel range: %w", err)
		}
	}
	return m.dev.State(), nil
}

// ReadRegister reads one register.
func (m *IMUManager) ReadRegister(addr byte) (byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dev == nil {
		return 0, ErrIMUNotOpen
	}
	return m.dev.ReadRegister(addr)
}

// WriteRegister writes one register without verification.
func (m *IMUManager) WriteRegister(addr, value byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dev == nil {
		return ErrIMUNotOpen
	}
	defer func() { observeStatus(m.dev.Status()) }()
	return m.dev.WriteRegister(addr, value)
}

// WriteCheckedRegister writes one register and verifies it by read-back.
func (m *IMUManager) WriteCheckedRegister(addr, value byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dev == nil {
		return ErrIMUNotOpen
	}
	defer func() { observeStatus(m.dev.Status()) }()
	return m.dev.WriteCheckedRegister(addr, value)
}

// ReadAllRegisters reads every register in the register map.
func (m *IMUManager) ReadAllRegisters() (map[byte]byte, error) {
	return m.readRegisters(func(RegisterInfo) bool { return true })
}

// ExportRegisterConfig reads the writable registers, the set needed to
// reproduce the current configuration.
func (m *IMUManager) ExportRegisterConfig() (map[byte]byte, error) {
	return m.readRegisters(func(r RegisterInfo) bool { return r.Access == "RW" })
}

func (m *IMUManager) readRegisters(keep func(RegisterInfo) bool) (map[byte]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dev == nil {
		return nil, ErrIMUNotOpen
	}
	out := make(map[byte]byte)
	for _, r := range getMPU6000RegisterMap() {
		if !keep(r) {
			continue
		}
		v, err := m.dev.ReadRegister(r.addr)
		if err != nil {
			return nil, fmt.Errorf("IMU: read %s: %w", r.Name, err)
		}
		out[r.addr] = v
	}
	return out, nil
}

// GetRegisterMap returns the register metadata.
func (m *IMUManager) GetRegisterMap() []RegisterInfo {
	return getMPU6000RegisterMap()
}
