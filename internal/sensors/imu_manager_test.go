// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/relabs-tech/fmu_imu/internal/config"
	"github.com/relabs-tech/fmu_imu/internal/imu"
	"github.com/relabs-tech/fmu_imu/internal/mpu6000"
	"github.com/relabs-tech/fmu_imu/internal/mpu6000/mpu6000sim"
)

func testOpts() mpu6000.Opts {
	o := mpu6000.DefaultOpts
	o.Sleep = func(time.Duration) {}
	o.Logf = func(string, ...any) {}
	return o
}

func openManager(t *testing.T) (*IMUManager, *mpu6000sim.Chip) {
	t.Helper()
	chip := mpu6000sim.New()
	m := &IMUManager{}
	if err := m.InitWithPort(chip, testOpts()); err != nil {
		t.Fatalf("InitWithPort: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m, chip
}

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestManagerReadSample(t *testing.T) {
	m, chip := openManager(t)
	chip.SetGyro(1000, 2000, 3000)
	chip.SetAccel(4096, 4096, 8192)

	if !m.IsAvailable() {
		t.Fatal("IsAvailable = false after init")
	}
	before := testutil.ToFloat64(imuReads.WithLabelValues("accel_scaled"))

	s, err := m.ReadSample()
	if err != nil {
		t.Fatalf("ReadSample: %v", err)
	}
	want := imu.IMURaw{Ax: 4096, Ay: -4096, Az: 8192, Gx: 2000, Gy: -1000, Gz: 3000}
	if s.Raw != want {
		t.Errorf("raw = %+v, want %+v", s.Raw, want)
	}
	if !near(s.Scaled.Ax, 9.80665) || !near(s.Scaled.Ay, -9.80665) || !near(s.Scaled.Az, 19.6133) {
		t.Errorf("scaled accel = %+v", s.Scaled)
	}
	k := m.dev.State().GyroScale
	if !near(s.Scaled.Gx, 2000*k) || !near(s.Scaled.Gy, -1000*k) || !near(s.Scaled.Gz, 3000*k) {
		t.Errorf("scaled gyro = %+v", s.Scaled)
	}
	if s.Time.IsZero() {
		t.Error("sample has no timestamp")
	}
	if got := testutil.ToFloat64(imuReads.WithLabelValues("accel_scaled")) - before; got != 1 {
		t.Errorf("accel_scaled reads delta = %v, want 1", got)
	}
}

func TestManagerNotOpen(t *testing.T) {
	m := &IMUManager{}
	if m.IsAvailable() {
		t.Error("IsAvailable on empty manager")
	}
	if _, err := m.ReadSample(); !errors.Is(err, ErrIMUNotOpen) {
		t.Errorf("ReadSample err = %v", err)
	}
	if _, err := m.Status(); !errors.Is(err, ErrIMUNotOpen) {
		t.Errorf("Status err = %v", err)
	}
	if _, err := m.ReadRegister(mpu6000.RegWhoAmI); !errors.Is(err, ErrIMUNotOpen) {
		t.Errorf("ReadRegister err = %v", err)
	}
	if err := m.WriteRegister(mpu6000.RegSmplrtDiv, 1); !errors.Is(err, ErrIMUNotOpen) {
		t.Errorf("WriteRegister err = %v", err)
	}
	if err := m.Reinitialize(); !errors.Is(err, ErrIMUNotOpen) {
		t.Errorf("Reinitialize err = %v", err)
	}
	if _, err := m.Configure(100, 0, 0); !errors.Is(err, ErrIMUNotOpen) {
		t.Errorf("Configure err = %v", err)
	}
	if _, err := m.ReadAllRegisters(); !errors.Is(err, ErrIMUNotOpen) {
		t.Errorf("ReadAllRegisters err = %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("Close err = %v", err)
	}
}

func TestManagerReadFailure(t *testing.T) {
	m, chip := openManager(t)
	before := testutil.ToFloat64(imuReadFailures.WithLabelValues("gyro_raw"))

	chip.Fail = func(w []byte) error { return errors.New("bus down") }
	_, err := m.ReadSample()
	var be *mpu6000.BusError
	if !errors.As(err, &be) {
		t.Fatalf("err = %v, want BusError", err)
	}
	if got := testutil.ToFloat64(imuReadFailures.WithLabelValues("gyro_raw")) - before; got != 1 {
		t.Errorf("gyro_raw failures delta = %v, want 1", got)
	}

	chip.Fail = nil
	if _, err := m.ReadSample(); err != nil {
		t.Errorf("after recovery: %v", err)
	}
}

func TestManagerReinitializeRecovers(t *testing.T) {
	chip := mpu6000sim.New()
	chip.IgnoreClockWrites = 100
	m := &IMUManager{}
	defer m.Close()

	err := m.InitWithPort(chip, testOpts())
	if !errors.Is(err, mpu6000.ErrInitFaulted) || !errors.Is(err, mpu6000.ErrClockSelectTimeout) {
		t.Fatalf("err = %v", err)
	}
	if m.IsAvailable() {
		t.Error("available after faulted init")
	}
	if got := testutil.ToFloat64(imuStage); got != float64(mpu6000.StageFaulted) {
		t.Errorf("stage gauge = %v", got)
	}
	if _, err := m.ReadSample(); !errors.Is(err, mpu6000.ErrNotReady) {
		t.Errorf("ReadSample err = %v, want ErrNotReady", err)
	}

	chip.IgnoreClockWrites = 0
	if err := m.Reinitialize(); err != nil {
		t.Fatalf("Reinitialize: %v", err)
	}
	st, err := m.Status()
	if err != nil || st.Stage != mpu6000.StageReady {
		t.Errorf("status = %+v, %v", st, err)
	}
	if got := testutil.ToFloat64(imuStage); got != float64(mpu6000.StageReady) {
		t.Errorf("stage gauge = %v", got)
	}
}

func TestManagerConfigure(t *testing.T) {
	m, chip := openManager(t)

	st, err := m.Configure(250, 42, 16)
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if st.SampleRateHz != 250 || st.DLPFCutoffHz != 42 || !near(st.AccelRangeMS2, 16*mpu6000.OneG) {
		t.Errorf("state = %+v", st)
	}
	if got := chip.Register(mpu6000.RegSmplrtDiv); got != 3 {
		t.Errorf("SMPLRT_DIV = %d, want 3", got)
	}
	if got := testutil.ToFloat64(imuSampleRate); got != 250 {
		t.Errorf("sample rate gauge = %v", got)
	}

	unchanged, err := m.Configure(0, 0, 0)
	if err != nil || unchanged != st {
		t.Errorf("Configure(0,0,0) = %+v, %v", unchanged, err)
	}
}

func TestManagerConfigureMismatchKeepsState(t *testing.T) {
	m, chip := openManager(t)
	chip.SetStuck(mpu6000.RegSmplrtDiv, 0x09)

	st, err := m.Configure(250, 0, 0)
	if !errors.Is(err, mpu6000.ErrMismatch) {
		t.Fatalf("err = %v, want ErrMismatch", err)
	}
	if st.SampleRateHz != 1000 {
		t.Errorf("SampleRateHz = %d, want unchanged 1000", st.SampleRateHz)
	}
}

func TestManagerRegisterAccess(t *testing.T) {
	m, chip := openManager(t)

	if v, err := m.ReadRegister(mpu6000.RegWhoAmI); err != nil || v != mpu6000.WhoAmIMPU6000 {
		t.Errorf("WHO_AM_I = 0x%02X, %v", v, err)
	}
	if err := m.WriteCheckedRegister(mpu6000.RegSmplrtDiv, 7); err != nil {
		t.Errorf("WriteCheckedRegister: %v", err)
	}
	if err := m.WriteRegister(mpu6000.RegIntEnable, 0); err != nil {
		t.Errorf("WriteRegister: %v", err)
	}
	if chip.Register(mpu6000.RegSmplrtDiv) != 7 || chip.Register(mpu6000.RegIntEnable) != 0 {
		t.Error("writes did not reach the chip")
	}
	if err := m.WriteCheckedRegister(mpu6000.RegWhoAmI, 0x00); !errors.Is(err, mpu6000.ErrMismatch) {
		t.Errorf("checked write to read-only register: %v", err)
	}
}

func TestManagerRawConfigWriteRequiresInit(t *testing.T) {
	m, chip := openManager(t)

	// Registers Init does not own leave the device running.
	if err := m.WriteCheckedRegister(mpu6000.RegIntEnable, 0); err != nil {
		t.Fatal(err)
	}
	if !m.IsAvailable() {
		t.Fatal("interrupt register write took the device out of Ready")
	}

	// 16g behind the driver's back: the 8g scale no longer applies.
	if err := m.WriteCheckedRegister(mpu6000.RegAccelConfig, 3<<3); err != nil {
		t.Fatal(err)
	}
	if m.IsAvailable() {
		t.Error("still available after raw ACCEL_CONFIG write")
	}
	if got := testutil.ToFloat64(imuStage); got != float64(mpu6000.StageIdle) {
		t.Errorf("stage gauge = %v, want Idle", got)
	}
	chip.SetAccel(0, 0, 2048)
	if _, err := m.ReadSample(); !errors.Is(err, mpu6000.ErrNotReady) {
		t.Errorf("ReadSample err = %v, want ErrNotReady", err)
	}

	if err := m.Reinitialize(); err != nil {
		t.Fatal(err)
	}
	if got := chip.Register(mpu6000.RegAccelConfig); got != 2<<3 {
		t.Errorf("ACCEL_CONFIG after init = 0x%02X, want 0x10", got)
	}
	chip.SetAccel(0, 0, 4096)
	s, err := m.ReadSample()
	if err != nil {
		t.Fatal(err)
	}
	if !near(s.Scaled.Az, 9.80665) {
		t.Errorf("az = %v, want 1 g", s.Scaled.Az)
	}

	// A plain write of H_RESET puts the chip to sleep.
	if err := m.WriteRegister(mpu6000.RegPwrMgmt1, mpu6000.BitHReset); err != nil {
		t.Fatal(err)
	}
	if m.IsAvailable() {
		t.Error("still available after raw PWR_MGMT_1 write")
	}
}

func TestReadAllAndExport(t *testing.T) {
	m, chip := openManager(t)

	all, err := m.ReadAllRegisters()
	if err != nil {
		t.Fatal(err)
	}
	regMap := m.GetRegisterMap()
	if len(all) != len(regMap) {
		t.Errorf("read %d registers, map has %d", len(all), len(regMap))
	}
	if all[mpu6000.RegWhoAmI] != mpu6000.WhoAmIMPU6000 {
		t.Errorf("WHO_AM_I = 0x%02X", all[mpu6000.RegWhoAmI])
	}

	export, err := m.ExportRegisterConfig()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := export[mpu6000.RegWhoAmI]; ok {
		t.Error("export contains read-only WHO_AM_I")
	}
	for _, reg := range []byte{mpu6000.RegSmplrtDiv, mpu6000.RegConfig, mpu6000.RegAccelConfig, mpu6000.RegPwrMgmt1} {
		if v, ok := export[reg]; !ok || v != chip.Register(reg) {
			t.Errorf("export[0x%02X] = 0x%02X, %v; chip has 0x%02X", reg, v, ok, chip.Register(reg))
		}
	}
}

func TestRegisterMap(t *testing.T) {
	seen := map[byte]bool{}
	for _, r := range getMPU6000RegisterMap() {
		if seen[r.addr] {
			t.Errorf("duplicate register %s", r.Address)
		}
		seen[r.addr] = true
		if r.Address != fmt.Sprintf("0x%02X", r.addr) {
			t.Errorf("%s: address %q does not match 0x%02X", r.Name, r.Address, r.addr)
		}
		switch r.Access {
		case "R", "W", "RW":
		default:
			t.Errorf("%s: access %q", r.Name, r.Access)
		}
	}
	for _, reg := range []byte{mpu6000.RegProductID, mpu6000.RegSmplrtDiv, mpu6000.RegPwrMgmt1, mpu6000.RegUserCtrl, mpu6000.RegWhoAmI} {
		if !seen[reg] {
			t.Errorf("register 0x%02X missing from map", reg)
		}
	}
}

func TestOpenIMUPortSimulated(t *testing.T) {
	p, err := openIMUPort(&config.Config{IMUSimulated: true})
	if err != nil {
		t.Fatal(err)
	}
	chip, ok := p.(*mpu6000sim.Chip)
	if !ok {
		t.Fatalf("port = %T, want simulator", p)
	}
	if !chip.Motion {
		t.Error("simulated chip has no motion")
	}
}

func TestOptsFromConfig(t *testing.T) {
	o := optsFromConfig(&config.Config{IMUSampleRateHz: 200, IMUDLPFHz: 20, IMUAccelMaxG: 4})
	if o.SampleRateHz != 200 || o.DLPFHz != 20 || o.AccelMaxG != 4 {
		t.Errorf("opts = %+v", o)
	}
}
