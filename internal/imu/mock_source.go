// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"math"
	"time"
)

type mockSource struct {
	n  int
	dt float64
}

// NewMockSource creates a mock accelerometer that generates a slowly
// tilting gravity vector with some superimposed motion. Samples are spaced
// by step, independent of how fast Next is called, so runs are repeatable.
func NewMockSource(step time.Duration) Source {
	if step <= 0 {
		step = 10 * time.Millisecond
	}
	return &mockSource{dt: step.Seconds()}
}

func (m *mockSource) Next() (Sample, error) {
	t := float64(m.n) * m.dt
	m.n++

	// gravity tilts by up to ~20° around X
	tilt := 0.35 * math.Sin(0.2*t)
	g := Sample{
		X: 0,
		Y: StandardGravity * math.Sin(tilt),
		Z: StandardGravity * math.Cos(tilt),
	}

	// motion: a 1.5 Hz sway on X, a 4 Hz shake on Z
	return Sample{
		X: g.X + 1.2*math.Sin(2*math.Pi*1.5*t),
		Y: g.Y + 0.4*math.Cos(2*math.Pi*0.7*t),
		Z: g.Z + 0.6*math.Sin(2*math.Pi*4*t),
	}, nil
}
