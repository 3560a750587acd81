// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package stats

import (
	"sync"

	"github.com/relabs-tech/accel_windows/internal/imu"
)

// Ticket reserves a window's slot in the results log.
type Ticket uint64

type Options struct {
	Deviation Deviation

	// OnCommit is called for every window appended to the log, in log
	// order, while the engine lock is held. It must not call back into
	// the engine.
	OnCommit func(Summary)
}

type settled struct {
	skipped bool
	samples int
	triples [3]Triple
}

// Engine owns the results log. Windows are appended in the order their
// tickets were reserved, whatever order the computations finish in.
// All methods are safe for concurrent use.
type Engine struct {
	dev      Deviation
	onCommit func(Summary)

	mu         sync.Mutex
	summaries  []Summary
	nextTicket Ticket
	nextCommit Ticket
	pending    map[Ticket]settled
}

func New(opts Options) *Engine {
	return &Engine{
		dev:      opts.Deviation,
		onCommit: opts.OnCommit,
		pending:  make(map[Ticket]settled),
	}
}

func (e *Engine) Deviation() Deviation { return e.dev }

// Reserve hands out the next ticket in dispatch order.
func (e *Engine) Reserve() Ticket {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.nextTicket
	e.nextTicket++
	return t
}

// Commit summarizes window and appends it at the ticket's slot. An empty
// window skips the slot and returns ErrEmptyWindow.
func (e *Engine) Commit(t Ticket, window []imu.Sample) error {
	triples, err := Summarize(window, e.dev)
	if err != nil {
		e.Skip(t)
		return err
	}
	e.settle(t, settled{samples: len(window), triples: triples})
	return nil
}

// Skip releases a ticket without producing log entries.
func (e *Engine) Skip(t Ticket) {
	e.settle(t, settled{skipped: true})
}

// ProcessData summarizes window and appends it after every window reserved
// before it. Empty or nil windows are ignored.
func (e *Engine) ProcessData(window []imu.Sample) {
	_ = e.Commit(e.Reserve(), window)
}

func (e *Engine) settle(t Ticket, s settled) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if t < e.nextCommit || t >= e.nextTicket {
		return
	}
	if _, dup := e.pending[t]; dup {
		return
	}
	e.pending[t] = s

	for {
		next, ok := e.pending[e.nextCommit]
		if !ok {
			return
		}
		delete(e.pending, e.nextCommit)
		e.nextCommit++
		if next.skipped {
			continue
		}

		sum := Summary{
			Window:  len(e.summaries) + 1,
			Samples: next.samples,
			X:       next.triples[0],
			Y:       next.triples[1],
			Z:       next.triples[2],
		}
		e.summaries = append(e.summaries, sum)
		if e.onCommit != nil {
			e.onCommit(sum)
		}
	}
}

// Results returns a copy of the flat results log: three triples per
// window, X then Y then Z.
func (e *Engine) Results() []Triple {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Triple, 0, 3*len(e.summaries))
	for _, s := range e.summaries {
		out = append(out, s.X, s.Y, s.Z)
	}
	return out
}

// Summaries returns a copy of the log grouped per window.
func (e *Engine) Summaries() []Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Summary, len(e.summaries))
	copy(out, e.summaries)
	return out
}

// Len is the number of triples in the log.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return 3 * len(e.summaries)
}

// Windows is the number of windows in the log.
func (e *Engine) Windows() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.summaries)
}

// Pending is the number of reserved tickets not yet visible in the log.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return int(e.nextTicket - e.nextCommit)
}
