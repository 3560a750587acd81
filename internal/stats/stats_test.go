package stats

import (
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/accel_windows/internal/imu"
)

var threeSamples = []imu.Sample{
	{X: 1, Y: 2, Z: 3},
	{X: 2, Y: 4, Z: 6},
	{X: 3, Y: 6, Z: 9},
}

func TestSummarizeThreeSamples(t *testing.T) {
	got, err := Summarize(threeSamples, Sample)
	require.NoError(t, err)

	require.Equal(t, 1.0, got[imu.AxisX].Min)
	require.Equal(t, 3.0, got[imu.AxisX].Max)
	require.InDelta(t, 1.0, got[imu.AxisX].StdDev, 1e-12)

	require.Equal(t, Triple{Min: 2, Max: 6, StdDev: got[imu.AxisY].StdDev}, got[imu.AxisY])
	require.InDelta(t, 2.0, got[imu.AxisY].StdDev, 1e-12)
	require.InDelta(t, 3.0, got[imu.AxisZ].StdDev, 1e-12)
}

func TestSummarizePopulation(t *testing.T) {
	got, err := Summarize(threeSamples, Population)
	require.NoError(t, err)
	require.InDelta(t, math.Sqrt(2.0/3.0), got[imu.AxisX].StdDev, 1e-12)
}

func TestSummarizeEdgeCases(t *testing.T) {
	_, err := Summarize(nil, Sample)
	require.True(t, errors.Is(err, ErrEmptyWindow))
	_, err = Summarize([]imu.Sample{}, Sample)
	require.True(t, errors.Is(err, ErrEmptyWindow))

	one, err := Summarize([]imu.Sample{{X: -4, Y: 0, Z: 7}}, Sample)
	require.NoError(t, err)
	require.Equal(t, Triple{Min: -4, Max: -4, StdDev: 0}, one[imu.AxisX])
	require.Equal(t, Triple{Min: 7, Max: 7, StdDev: 0}, one[imu.AxisZ])

	withNaN, err := Summarize([]imu.Sample{{X: 1}, {X: math.NaN()}, {X: 3}}, Sample)
	require.NoError(t, err)
	require.True(t, math.IsNaN(withNaN[imu.AxisX].StdDev))
	require.False(t, math.IsNaN(withNaN[imu.AxisY].StdDev))
}

func TestSummarizeMinMaxIgnoreNaN(t *testing.T) {
	for _, xs := range [][]float64{
		{math.NaN(), 1, 2},
		{1, math.NaN(), 2},
		{1, 2, math.NaN()},
	} {
		win := make([]imu.Sample, len(xs))
		for i, x := range xs {
			win[i] = imu.Sample{X: x}
		}
		got, err := Summarize(win, Sample)
		require.NoError(t, err)
		require.Equal(t, 1.0, got[imu.AxisX].Min, "%v", xs)
		require.Equal(t, 2.0, got[imu.AxisX].Max, "%v", xs)
		require.True(t, math.IsNaN(got[imu.AxisX].StdDev), "%v", xs)
	}
}

func TestSummarizeIsIdempotent(t *testing.T) {
	win := imuRamp(64)
	a, err := Summarize(win, Sample)
	require.NoError(t, err)
	b, err := Summarize(win, Sample)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestParseDeviation(t *testing.T) {
	d, err := ParseDeviation("POPULATION")
	require.NoError(t, err)
	require.Equal(t, Population, d)
	d, err = ParseDeviation("")
	require.NoError(t, err)
	require.Equal(t, Sample, d)
	_, err = ParseDeviation("biased")
	require.Error(t, err)
}

func TestGroup(t *testing.T) {
	flat := []Triple{{Min: 1}, {Min: 2}, {Min: 3}, {Min: 4}, {Min: 5}, {Min: 6}, {Min: 7}}
	got := Group(flat)
	require.Len(t, got, 2)
	require.Equal(t, 1, got[0].Window)
	require.Equal(t, 2, got[1].Window)
	require.Equal(t, 6.0, got[1].Z.Min)
	require.Equal(t, 5.0, got[1].Axis(imu.AxisY).Min)
}

func TestProcessDataAppendsXYZ(t *testing.T) {
	e := New(Options{})
	e.ProcessData(threeSamples)

	res := e.Results()
	require.Len(t, res, 3)
	require.Equal(t, 1.0, res[0].Min)
	require.Equal(t, 2.0, res[1].Min)
	require.Equal(t, 3.0, res[2].Min)

	sums := e.Summaries()
	require.Len(t, sums, 1)
	require.Equal(t, 1, sums[0].Window)
	require.Equal(t, 3, sums[0].Samples)
}

func TestProcessDataEmptyWindowIsNoop(t *testing.T) {
	e := New(Options{})
	require.NotPanics(t, func() {
		e.ProcessData(nil)
		e.ProcessData([]imu.Sample{})
	})
	require.Zero(t, e.Len())
	require.Zero(t, e.Pending())

	// later windows are not held back by the skipped ones
	e.ProcessData(threeSamples)
	require.Equal(t, 3, e.Len())
}

func TestCommitOrderFollowsReservation(t *testing.T) {
	var committed []int
	e := New(Options{OnCommit: func(s Summary) { committed = append(committed, int(s.X.Min)) }})

	t1, t2, t3 := e.Reserve(), e.Reserve(), e.Reserve()

	require.NoError(t, e.Commit(t3, []imu.Sample{{X: 30}}))
	require.NoError(t, e.Commit(t2, []imu.Sample{{X: 20}}))
	require.Zero(t, e.Windows())
	require.Equal(t, 3, e.Pending())

	require.NoError(t, e.Commit(t1, []imu.Sample{{X: 10}}))
	require.Equal(t, []int{10, 20, 30}, committed)

	sums := e.Summaries()
	require.Len(t, sums, 3)
	for i, s := range sums {
		require.Equal(t, i+1, s.Window)
		require.Equal(t, float64(10*(i+1)), s.X.Min)
	}
	require.Zero(t, e.Pending())
}

func TestSkipReleasesSlot(t *testing.T) {
	e := New(Options{})
	t1, t2 := e.Reserve(), e.Reserve()

	require.NoError(t, e.Commit(t2, []imu.Sample{{X: 2}}))
	require.Zero(t, e.Windows())

	e.Skip(t1)
	require.Equal(t, 1, e.Windows())
	require.Equal(t, 1, e.Summaries()[0].Window)

	// settling twice or settling an unknown ticket changes nothing
	e.Skip(t2)
	e.Skip(Ticket(99))
	require.Equal(t, 1, e.Windows())
}

func TestCommitConcurrentCompletion(t *testing.T) {
	e := New(Options{})
	const n = 50
	tickets := make([]Ticket, n)
	for i := range tickets {
		tickets[i] = e.Reserve()
	}

	var wg sync.WaitGroup
	for i := n - 1; i >= 0; i-- {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = e.Commit(tickets[i], []imu.Sample{{X: float64(i)}})
		}(i)
	}
	wg.Wait()

	sums := e.Summaries()
	require.Len(t, sums, n)
	for i, s := range sums {
		require.Equal(t, float64(i), s.X.Min)
	}
}

func TestResultsIsSnapshot(t *testing.T) {
	e := New(Options{})
	e.ProcessData(threeSamples)
	res := e.Results()
	res[0].Min = 1000

	require.Equal(t, 1.0, e.Results()[0].Min)
}

func imuRamp(n int) []imu.Sample {
	out := make([]imu.Sample, n)
	for i := range out {
		f := float64(i)
		out[i] = imu.Sample{X: math.Sin(f), Y: f * 0.1, Z: -f}
	}
	return out
}

func TestTripleJSONCarriesNonFinite(t *testing.T) {
	in := Summary{Window: 2, X: Triple{Min: -1.5, Max: math.Inf(1), StdDev: math.NaN()}}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	require.Contains(t, string(data), `"x":{"min":-1.5,"max":"+Inf","std_dev":"NaN"}`)

	var out Summary
	require.NoError(t, json.Unmarshal(data, &out))
	require.Equal(t, 2, out.Window)
	require.Equal(t, -1.5, out.X.Min)
	require.True(t, math.IsInf(out.X.Max, 1))
	require.True(t, math.IsNaN(out.X.StdDev))

	require.Error(t, json.Unmarshal([]byte(`{"min":"lots"}`), &out.Y))
}
