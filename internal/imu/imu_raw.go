package imu

import "time"

// IMURaw is one raw sample in the vehicle frame (X forward, Y right, Z down).
type IMURaw struct {
	Ax int16 `json:"ax"` // accel
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Gx int16 `json:"gx"` // gyro
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`
}

// IMUScaled is one sample in SI units: m/s² and rad/s.
type IMUScaled struct {
	Ax float32 `json:"ax"`
	Ay float32 `json:"ay"`
	Az float32 `json:"az"`

	Gx float32 `json:"gx"`
	Gy float32 `json:"gy"`
	Gz float32 `json:"gz"`
}

// Sample pairs the raw and scaled readings taken on one tick.
type Sample struct {
	Time   time.Time `json:"time"`
	Raw    IMURaw    `json:"raw"`
	Scaled IMUScaled `json:"scaled"`
}

// SampleSource yields samples.
type SampleSource interface {
	ReadSample() (Sample, error)
}
