// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package stats summarizes windows of linear acceleration into per-axis
// minimum, maximum and standard deviation, and keeps the ordered results log.
package stats

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/relabs-tech/accel_windows/internal/imu"
)

// Deviation selects the standard deviation denominator.
type Deviation int

const (
	// Sample divides by n-1 (descriptive statistics convention).
	Sample Deviation = iota
	// Population divides by n.
	Population
)

func (d Deviation) String() string {
	if d == Population {
		return "population"
	}
	return "sample"
}

// ParseDeviation accepts "sample" or "population" (case-insensitive).
func ParseDeviation(s string) (Deviation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sample", "":
		return Sample, nil
	case "population":
		return Population, nil
	}
	return Sample, fmt.Errorf("unknown stddev mode %q (want sample or population)", s)
}

var ErrEmptyWindow = errors.New("stats: empty window")

// Triple holds the statistics of one axis of one window.
type Triple struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
}

// Summary groups the three axis triples of one window.
type Summary struct {
	Window  int    `json:"window"` // 1-based position in the results log
	Samples int    `json:"samples,omitempty"`
	X       Triple `json:"x"`
	Y       Triple `json:"y"`
	Z       Triple `json:"z"`
}

// Triples returns the axis triples in X, Y, Z order.
func (s Summary) Triples() [3]Triple {
	return [3]Triple{s.X, s.Y, s.Z}
}

func (s Summary) Axis(a imu.Axis) Triple {
	return s.Triples()[a]
}

// Summarize computes min, max and standard deviation for each axis of the
// window. NaN inputs are not screened: min and max skip them, StdDev
// becomes NaN.
// A single-sample window has a deviation of 0.
func Summarize(window []imu.Sample, dev Deviation) ([3]Triple, error) {
	var out [3]Triple
	if len(window) == 0 {
		return out, ErrEmptyWindow
	}

	values := make([]float64, len(window))
	for i, axis := range imu.Axes {
		for j, s := range window {
			values[j] = s.Component(axis)
		}
		out[i] = Triple{
			Min:    floats.Min(values),
			Max:    floats.Max(values),
			StdDev: stdDev(values, dev),
		}
	}
	return out, nil
}

func stdDev(values []float64, dev Deviation) float64 {
	if dev == Population {
		return stat.PopStdDev(values, nil)
	}
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

// Group splits a flat results log into per-window summaries. A trailing
// incomplete group is ignored.
func Group(results []Triple) []Summary {
	out := make([]Summary, 0, len(results)/3)
	for i := 0; i+2 < len(results); i += 3 {
		out = append(out, Summary{
			Window: i/3 + 1,
			X:      results[i],
			Y:      results[i+1],
			Z:      results[i+2],
		})
	}
	return out
}
