// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package window

import (
	"errors"
	"fmt"
	"strings"

	"github.com/relabs-tech/accel_windows/internal/imu"
)

// DefaultSize is the number of samples per sliding window.
const DefaultSize = 128

// Convention selects how many samples a ready window hands off.
type Convention int

const (
	// Full hands off W samples and keeps [W/2, len).
	Full Convention = iota
	// Trimmed hands off W-1 samples and keeps [W/2, len-1), dropping the
	// newest sample. This reproduces the Android collector's output.
	Trimmed
)

func (c Convention) String() string {
	switch c {
	case Full:
		return "full"
	case Trimmed:
		return "trimmed"
	}
	return fmt.Sprintf("Convention(%d)", int(c))
}

// ParseConvention accepts "full" or "trimmed" (case-insensitive).
func ParseConvention(s string) (Convention, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "full", "":
		return Full, nil
	case "trimmed":
		return Trimmed, nil
	}
	return Full, fmt.Errorf("unknown window convention %q (want full or trimmed)", s)
}

var ErrSizeTooSmall = errors.New("window: size must be at least 2")

// Buffer accumulates linear-acceleration samples and cuts 50%-overlapping
// windows out of them. It has a single owner and is not safe for concurrent
// use; windows it hands out are independent copies.
type Buffer struct {
	size       int
	convention Convention
	samples    []imu.Sample
}

func New(size int, conv Convention) (*Buffer, error) {
	if size < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrSizeTooSmall, size)
	}
	if conv != Full && conv != Trimmed {
		return nil, fmt.Errorf("window: unknown convention %d", int(conv))
	}
	return &Buffer{
		size:       size,
		convention: conv,
		samples:    make([]imu.Sample, 0, size),
	}, nil
}

func (b *Buffer) Append(s imu.Sample) {
	b.samples = append(b.samples, s)
}

// ReadyWindow returns the next window once the buffer holds at least Size
// samples, evicting the oldest Size/2 samples in the same step.
func (b *Buffer) ReadyWindow() ([]imu.Sample, bool) {
	n := len(b.samples)
	if n < b.size {
		return nil, false
	}

	winLen, keepEnd := b.size, n
	if b.convention == Trimmed {
		winLen, keepEnd = b.size-1, n-1
	}

	win := make([]imu.Sample, winLen)
	copy(win, b.samples[:winLen])

	// survivors move to the front so the backing array never grows past
	// the window size plus whatever arrived since the last check
	kept := copy(b.samples, b.samples[b.size/2:keepEnd])
	b.samples = b.samples[:kept]

	return win, true
}

// Len is the number of buffered samples.
func (b *Buffer) Len() int { return len(b.samples) }

// Size is the configured window size W.
func (b *Buffer) Size() int { return b.size }

func (b *Buffer) Convention() Convention { return b.convention }

// Snapshot returns a copy of the buffered samples, oldest first.
func (b *Buffer) Snapshot() []imu.Sample {
	out := make([]imu.Sample, len(b.samples))
	copy(out, b.samples)
	return out
}

func (b *Buffer) Reset() {
	b.samples = b.samples[:0]
}
