// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package pipeline wires raw samples through the gravity filter and the
// window buffer, and hands every ready window to the statistics engine off
// the sampling path.
//
// Producers push samples with Submit. A single consumer goroutine (Run) owns
// the filter and the buffer, so cutting a window and evicting the buffer is
// one step that no producer can interleave with. Windows are summarized on
// a bounded errgroup and land in the results log in the order they were cut.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/accel_windows/internal/gravity"
	"github.com/relabs-tech/accel_windows/internal/imu"
	"github.com/relabs-tech/accel_windows/internal/stats"
	"github.com/relabs-tech/accel_windows/internal/window"
)

var (
	ErrClosed         = errors.New("pipeline: closed")
	ErrAlreadyRunning = errors.New("pipeline: already running")
)

type Options struct {
	WindowSize int
	Alpha      float64
	Convention window.Convention
	Deviation  stats.Deviation

	// Workers bounds concurrent window computations; <= 0 is unbounded.
	Workers int
	// QueueSize is the capacity of the sample queue between producers and
	// the consumer.
	QueueSize int

	Observer Observer
}

// DefaultOptions: 128-sample full windows,
// alpha 0.8, sample standard deviation, 4 workers.
func DefaultOptions() Options {
	return Options{
		WindowSize: window.DefaultSize,
		Alpha:      gravity.DefaultAlpha,
		Convention: window.Full,
		Deviation:  stats.Sample,
		Workers:    4,
		QueueSize:  1024,
	}
}

type Orchestrator struct {
	opts   Options
	obs    Observer
	filter *gravity.Filter
	buffer *window.Buffer
	engine *stats.Engine

	samples   chan imu.Sample
	closing   chan struct{}
	closeOnce sync.Once
	running   atomic.Bool

	dispatched atomic.Int64

	mu         sync.Mutex
	gravity    imu.Sample
	subs       map[int]chan stats.Summary
	nextSub    int
	subsClosed bool

	// beforeCommit lets tests reorder computations.
	beforeCommit func(stats.Ticket)
}

func New(opts Options) (*Orchestrator, error) {
	filter, err := gravity.New(opts.Alpha)
	if err != nil {
		return nil, err
	}
	buffer, err := window.New(opts.WindowSize, opts.Convention)
	if err != nil {
		return nil, err
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1
	}
	if opts.Observer == nil {
		opts.Observer = NopObserver{}
	}

	o := &Orchestrator{
		opts:    opts,
		obs:     opts.Observer,
		filter:  filter,
		buffer:  buffer,
		samples: make(chan imu.Sample, opts.QueueSize),
		closing: make(chan struct{}),
		subs:    make(map[int]chan stats.Summary),
	}
	o.engine = stats.New(stats.Options{
		Deviation: opts.Deviation,
		OnCommit:  o.publish,
	})
	return o, nil
}

// Submit queues a raw sample. It blocks only while the queue is full.
func (o *Orchestrator) Submit(ctx context.Context, s imu.Sample) error {
	select {
	case <-o.closing:
		return ErrClosed
	default:
	}

	select {
	case o.samples <- s:
		return nil
	case <-o.closing:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops intake. Run processes what is already queued, waits for
// in-flight computations and returns.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() { close(o.closing) })
}

// Run consumes samples until Close is called or ctx is cancelled. On
// cancellation, queued samples are dropped and computations that have not
// started are skipped. Subscriber channels are closed when Run returns.
func (o *Orchestrator) Run(ctx context.Context) error {
	if !o.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer o.closeSubscribers()
	defer o.Close()

	var g errgroup.Group
	if o.opts.Workers > 0 {
		g.SetLimit(o.opts.Workers)
	}

	for {
		select {
		case <-ctx.Done():
			_ = g.Wait()
			return ctx.Err()
		case <-o.closing:
			o.drain(ctx, &g)
			return g.Wait()
		case s := <-o.samples:
			o.ingest(ctx, &g, s)
		}
	}
}

func (o *Orchestrator) drain(ctx context.Context, g *errgroup.Group) {
	for {
		select {
		case s := <-o.samples:
			o.ingest(ctx, g, s)
		default:
			return
		}
	}
}

func (o *Orchestrator) ingest(ctx context.Context, g *errgroup.Group, raw imu.Sample) {
	lin := o.filter.Apply(raw)

	o.mu.Lock()
	o.gravity = o.filter.Gravity()
	o.mu.Unlock()

	o.obs.SampleAccepted()
	o.buffer.Append(lin)

	if win, ok := o.buffer.ReadyWindow(); ok {
		o.dispatch(ctx, g, win)
	}
}

func (o *Orchestrator) dispatch(ctx context.Context, g *errgroup.Group, win []imu.Sample) {
	t := o.engine.Reserve()
	o.dispatched.Add(1)
	o.obs.WindowDispatched(t, len(win))

	g.Go(func() error {
		o.compute(ctx, t, win)
		return nil
	})
}

// compute never fails the group: a window that cannot be summarized is
// skipped and the log moves on without it.
func (o *Orchestrator) compute(ctx context.Context, t stats.Ticket, win []imu.Sample) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			o.engine.Skip(t)
			err := fmt.Errorf("pipeline: window computation panicked: %v", r)
			log.Printf("pipeline: window %d skipped: %v", t, err)
			o.obs.ComputationFinished(t, time.Since(start), err)
		}
	}()

	if err := ctx.Err(); err != nil {
		o.engine.Skip(t)
		o.obs.ComputationFinished(t, 0, err)
		return
	}
	if o.beforeCommit != nil {
		o.beforeCommit(t)
	}

	err := o.engine.Commit(t, win)
	o.obs.ComputationFinished(t, time.Since(start), err)
}

// publish runs under the engine lock, once per committed window, in log order.
func (o *Orchestrator) publish(s stats.Summary) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, ch := range o.subs {
		select {
		case ch <- s:
		default:
			o.obs.EventDropped()
		}
	}
	o.obs.WindowCommitted(s)
}

// Subscribe returns a channel that receives every window committed from
// now on, in log order. Events are dropped, not queued, when the channel is
// full. The returned func unsubscribes and closes the channel.
func (o *Orchestrator) Subscribe(buffer int) (<-chan stats.Summary, func()) {
	ch := make(chan stats.Summary, buffer)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.subsClosed {
		close(ch)
		return ch, func() {}
	}

	id := o.nextSub
	o.nextSub++
	o.subs[id] = ch

	return ch, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if c, ok := o.subs[id]; ok {
			delete(o.subs, id)
			close(c)
		}
	}
}

func (o *Orchestrator) closeSubscribers() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for id, ch := range o.subs {
		delete(o.subs, id)
		close(ch)
	}
	o.subsClosed = true
}

// Results returns a snapshot of the flat results log.
func (o *Orchestrator) Results() []stats.Triple { return o.engine.Results() }

// Summaries returns a snapshot of the results log grouped per window.
func (o *Orchestrator) Summaries() []stats.Summary { return o.engine.Summaries() }

// Dispatched is the number of windows handed to the engine so far.
func (o *Orchestrator) Dispatched() int { return int(o.dispatched.Load()) }

// Exportable reports whether at least one window has been cut.
func (o *Orchestrator) Exportable() bool { return o.Dispatched() > 0 }

// Gravity returns the latest gravity estimate.
func (o *Orchestrator) Gravity() imu.Sample {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.gravity
}

func (o *Orchestrator) Options() Options { return o.opts }
