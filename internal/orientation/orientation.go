// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"

	"github.com/relabs-tech/accel_windows/internal/imu"
)

// Tilt is the attitude of the sensor relative to the gravity vector, in
// degrees. Heading cannot be observed from an accelerometer alone.
type Tilt struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
}

// FromGravity computes roll and pitch from a gravity estimate (in any unit).
//
// Uses simple tilt formulas:
//
//	roll  = atan2(gy, gz)
//	pitch = atan2(-gx, sqrt(gy² + gz²))
func FromGravity(g imu.Sample) Tilt {
	rollRad := math.Atan2(g.Y, g.Z)
	pitchRad := math.Atan2(-g.X, math.Sqrt(g.Y*g.Y+g.Z*g.Z))

	return Tilt{
		Roll:  rollRad * 180.0 / math.Pi,
		Pitch: pitchRad * 180.0 / math.Pi,
	}
}
