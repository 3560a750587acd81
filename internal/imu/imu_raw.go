// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

// StandardGravity is used to convert accelerometer counts to m/s².
const StandardGravity = 9.80665

// IMURaw represents a single raw accelerometer reading in device counts.
type IMURaw struct {
	Source string `json:"source"`

	Ax int16 `json:"ax"`
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`
}

// CountsPerG returns the accelerometer sensitivity for an MPU9250 range
// selector: 0=±2g, 1=±4g, 2=±8g, 3=±16g.
func CountsPerG(accelRange byte) float64 {
	if accelRange > 3 {
		accelRange = 3
	}
	return float64(uint16(16384) >> accelRange)
}

// Sample converts the raw counts to m/s² for the given range selector.
func (r IMURaw) Sample(accelRange byte) Sample {
	scale := StandardGravity / CountsPerG(accelRange)
	return Sample{
		X: float64(r.Ax) * scale,
		Y: float64(r.Ay) * scale,
		Z: float64(r.Az) * scale,
	}
}
