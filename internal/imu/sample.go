// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import "fmt"

// Axis identifies one spatial axis of a sample.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// Axes lists the axes in the order results are reported.
var Axes = [3]Axis{AxisX, AxisY, AxisZ}

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// Sample is a single 3-axis accelerometer reading (m/s²).
// The same type carries raw and gravity-compensated (linear) values.
type Sample struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Component projects the sample onto one axis.
func (s Sample) Component(a Axis) float64 {
	switch a {
	case AxisX:
		return s.X
	case AxisY:
		return s.Y
	default:
		return s.Z
	}
}

// Sub returns s - o.
func (s Sample) Sub(o Sample) Sample {
	return Sample{X: s.X - o.X, Y: s.Y - o.Y, Z: s.Z - o.Z}
}

// Source is anything that can deliver accelerometer samples over time:
// mock source, MPU9250 over SPI, serial sensor hub.
type Source interface {
	Next() (Sample, error)
}
