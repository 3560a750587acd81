// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pipeline

import (
	"time"

	"github.com/relabs-tech/accel_windows/internal/stats"
)

// Observer receives pipeline lifecycle callbacks. Implementations must be
// safe for concurrent use and must not block.
type Observer interface {
	SampleAccepted()
	WindowDispatched(t stats.Ticket, samples int)
	// ComputationFinished reports how long a window took and why it was
	// skipped, if it was (err != nil).
	ComputationFinished(t stats.Ticket, took time.Duration, err error)
	WindowCommitted(s stats.Summary)
	EventDropped()
}

// NopObserver ignores every callback.
type NopObserver struct{}

func (NopObserver) SampleAccepted()                                        {}
func (NopObserver) WindowDispatched(stats.Ticket, int)                     {}
func (NopObserver) ComputationFinished(stats.Ticket, time.Duration, error) {}
func (NopObserver) WindowCommitted(stats.Summary)                          {}
func (NopObserver) EventDropped()                                          {}
