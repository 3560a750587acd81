// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/relabs-tech/accel_windows/internal/stats"
)

// Pipeline exports pipeline activity as Prometheus metrics. It implements
// pipeline.Observer.
type Pipeline struct {
	samplesTotal    prometheus.Counter
	windowsTotal    prometheus.Counter
	committedTotal  prometheus.Counter
	skippedTotal    prometheus.Counter
	droppedTotal    prometheus.Counter
	computeSeconds  prometheus.Histogram
	windowSamples   prometheus.Gauge
	lastStdDev      *prometheus.GaugeVec
	exportsTotal    *prometheus.CounterVec
	publishErrTotal *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Pipeline {
	m := &Pipeline{
		samplesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "accel_samples_total",
			Help: "Total raw accelerometer samples accepted by the pipeline",
		}),
		windowsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "accel_windows_dispatched_total",
			Help: "Total sliding windows handed to the statistics engine",
		}),
		committedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "accel_windows_committed_total",
			Help: "Total windows appended to the results log",
		}),
		skippedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "accel_windows_skipped_total",
			Help: "Total windows skipped because their computation failed or was cancelled",
		}),
		droppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "accel_window_events_dropped_total",
			Help: "Total window events dropped because a subscriber was full",
		}),
		computeSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "accel_window_compute_seconds",
			Help:    "Time spent summarizing one window",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		windowSamples: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "accel_window_samples",
			Help: "Number of samples in the last dispatched window",
		}),
		lastStdDev: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "accel_window_stddev",
			Help: "Standard deviation of linear acceleration in the last committed window",
		}, []string{"axis"}),
		exportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accel_exports_total",
			Help: "Report exports by outcome",
		}, []string{"result"}),
		publishErrTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accel_publish_errors_total",
			Help: "Window summaries that could not be delivered, by sink",
		}, []string{"sink"}),
	}

	reg.MustRegister(
		m.samplesTotal,
		m.windowsTotal,
		m.committedTotal,
		m.skippedTotal,
		m.droppedTotal,
		m.computeSeconds,
		m.windowSamples,
		m.lastStdDev,
		m.exportsTotal,
		m.publishErrTotal,
	)
	return m
}

func (m *Pipeline) SampleAccepted() { m.samplesTotal.Inc() }

func (m *Pipeline) WindowDispatched(_ stats.Ticket, samples int) {
	m.windowsTotal.Inc()
	m.windowSamples.Set(float64(samples))
}

func (m *Pipeline) ComputationFinished(_ stats.Ticket, took time.Duration, err error) {
	if err != nil {
		m.skippedTotal.Inc()
		return
	}
	m.computeSeconds.Observe(took.Seconds())
}

func (m *Pipeline) WindowCommitted(s stats.Summary) {
	m.committedTotal.Inc()
	m.lastStdDev.WithLabelValues("x").Set(s.X.StdDev)
	m.lastStdDev.WithLabelValues("y").Set(s.Y.StdDev)
	m.lastStdDev.WithLabelValues("z").Set(s.Z.StdDev)
}

func (m *Pipeline) EventDropped() { m.droppedTotal.Inc() }

// ExportFinished records an export outcome ("ok", "empty", "not_found", "io").
func (m *Pipeline) ExportFinished(result string) {
	m.exportsTotal.WithLabelValues(result).Inc()
}

// PublishFailed records a summary that a sink ("mqtt", "redis") rejected.
func (m *Pipeline) PublishFailed(sink string) {
	m.publishErrTotal.WithLabelValues(sink).Inc()
}
