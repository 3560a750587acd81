// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/accel_windows/internal/imu"
)

// MPU9250Opts selects the SPI device, chip-select pin and accelerometer range.
type MPU9250Opts struct {
	Name       string // used in log and error messages
	SPIDevice  string
	CSPin      string
	AccelRange byte // 0=±2g, 1=±4g, 2=±8g, 3=±16g
}

type mpu9250Source struct {
	name       string
	imu        *mpu9250.MPU9250
	accelRange byte
}

// NewMPU9250 initializes an MPU9250 over SPI and returns it as a sample
// source reporting acceleration in m/s².
func NewMPU9250(opts MPU9250Opts) (imu.Source, error) {
	name := opts.Name
	if name == "" {
		name = "mpu9250"
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%s: periph host init: %w", name, err)
	}

	cs := gpioreg.ByName(opts.CSPin)
	if cs == nil {
		return nil, fmt.Errorf("%s: CS pin %q not found", name, opts.CSPin)
	}

	tr, err := mpu9250.NewSpiTransport(opts.SPIDevice, cs)
	if err != nil {
		return nil, fmt.Errorf("%s: SPI transport (%s): %w", name, opts.SPIDevice, err)
	}

	dev, err := mpu9250.New(tr)
	if err != nil {
		return nil, fmt.Errorf("%s: device creation: %w", name, err)
	}

	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("%s: initialization: %w", name, err)
	}

	if err := dev.SetAccelRange(opts.AccelRange); err != nil {
		return nil, fmt.Errorf("%s: set accel range: %w", name, err)
	}
	log.Printf("%s: accelerometer range set to %d (±%dg)", name, opts.AccelRange, []int{2, 4, 8, 16}[opts.AccelRange&3])

	// Calibration only removes static bias; gravity is left in the signal
	// for the low-pass filter downstream.
	if err := dev.Calibrate(); err != nil {
		log.Printf("%s: WARNING: calibration failed: %v", name, err)
	} else {
		log.Printf("%s: calibration complete", name)
	}

	return &mpu9250Source{name: name, imu: dev, accelRange: opts.AccelRange}, nil
}

// ReadRaw reads the accelerometer in device counts.
func (s *mpu9250Source) ReadRaw() (imu.IMURaw, error) {
	ax, err := s.imu.GetAccelerationX()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("%s accel X: %w", s.name, err)
	}
	ay, err := s.imu.GetAccelerationY()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("%s accel Y: %w", s.name, err)
	}
	az, err := s.imu.GetAccelerationZ()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("%s accel Z: %w", s.name, err)
	}
	return imu.IMURaw{Source: s.name, Ax: ax, Ay: ay, Az: az}, nil
}

func (s *mpu9250Source) Next() (imu.Sample, error) {
	raw, err := s.ReadRaw()
	if err != nil {
		return imu.Sample{}, err
	}
	return raw.Sample(s.accelRange), nil
}
