// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package gravity separates the gravity component from raw accelerometer
// samples with a first-order exponential low-pass filter.
//
// alpha is t / (t + dT), with t the filter time constant and dT the sample
// delivery interval. The gravity estimate starts at zero, so the first
// samples after New or Reset report most of gravity as linear acceleration
// until the estimate settles (roughly 1/(1-alpha) samples).
package gravity

import (
	"errors"
	"fmt"
	"math"

	"github.com/relabs-tech/accel_windows/internal/imu"
)

// DefaultAlpha is the smoothing coefficient used when none is configured.
const DefaultAlpha = 0.8

// ErrInvalidAlpha is returned by New for coefficients outside [0, 1].
var ErrInvalidAlpha = errors.New("gravity: alpha must be within [0, 1]")

// Filter is not safe for concurrent use.
type Filter struct {
	alpha   float64
	gravity imu.Sample
}

func New(alpha float64) (*Filter, error) {
	if math.IsNaN(alpha) || alpha < 0 || alpha > 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidAlpha, alpha)
	}
	return &Filter{alpha: alpha}, nil
}

// Apply folds s into the gravity estimate and returns the linear
// acceleration s - gravity.
func (f *Filter) Apply(s imu.Sample) imu.Sample {
	a := f.alpha
	f.gravity.X = a*f.gravity.X + (1-a)*s.X
	f.gravity.Y = a*f.gravity.Y + (1-a)*s.Y
	f.gravity.Z = a*f.gravity.Z + (1-a)*s.Z
	return s.Sub(f.gravity)
}

// Gravity returns the current gravity estimate.
func (f *Filter) Gravity() imu.Sample {
	return f.gravity
}

func (f *Filter) Alpha() float64 {
	return f.alpha
}

// Reset zeroes the gravity estimate.
func (f *Filter) Reset() {
	f.gravity = imu.Sample{}
}
