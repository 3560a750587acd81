package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/accel_windows/internal/pipeline"
	"github.com/relabs-tech/accel_windows/internal/stats"
)

var _ pipeline.Observer = (*Pipeline)(nil)

func TestPipelineCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.SampleAccepted()
	m.SampleAccepted()
	m.WindowDispatched(0, 128)
	m.WindowDispatched(1, 128)
	m.ComputationFinished(0, time.Millisecond, nil)
	m.ComputationFinished(1, 0, errors.New("cancelled"))
	m.WindowCommitted(stats.Summary{Window: 1, X: stats.Triple{StdDev: 0.5}, Z: stats.Triple{StdDev: 2}})
	m.EventDropped()
	m.ExportFinished("ok")
	m.ExportFinished("not_found")
	m.PublishFailed("mqtt")

	require.Equal(t, 2.0, testutil.ToFloat64(m.samplesTotal))
	require.Equal(t, 2.0, testutil.ToFloat64(m.windowsTotal))
	require.Equal(t, 1.0, testutil.ToFloat64(m.committedTotal))
	require.Equal(t, 1.0, testutil.ToFloat64(m.skippedTotal))
	require.Equal(t, 1.0, testutil.ToFloat64(m.droppedTotal))
	require.Equal(t, 128.0, testutil.ToFloat64(m.windowSamples))
	require.Equal(t, 0.5, testutil.ToFloat64(m.lastStdDev.WithLabelValues("x")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.lastStdDev.WithLabelValues("z")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.exportsTotal.WithLabelValues("not_found")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.publishErrTotal.WithLabelValues("mqtt")))
	require.Equal(t, 1, testutil.CollectAndCount(m.computeSeconds))
}
