package export

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/accel_windows/internal/imu"
	"github.com/relabs-tech/accel_windows/internal/stats"
)

func oneWindow(t *testing.T) []stats.Triple {
	t.Helper()
	e := stats.New(stats.Options{})
	e.ProcessData([]imu.Sample{{X: 1, Y: 2, Z: 3}, {X: 2, Y: 4, Z: 6}, {X: 3, Y: 6, Z: 9}})
	return e.Results()
}

func TestWrite(t *testing.T) {
	results := oneWindow(t)
	results = append(results,
		stats.Triple{Min: -0.5, Max: 0.25, StdDev: 0.125},
		stats.Triple{Min: 0, Max: 0, StdDev: 0},
		stats.Triple{Min: math.NaN(), Max: math.Inf(1), StdDev: math.NaN()},
	)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, results, 3))

	want := `List of the parameters read from the accelerometer
Sliding window dimension: 3 samples

Sliding window nr. 1
Linear acceleration - X dimension -> Min: 1; Max: 3; Std Dev: 1;
Linear acceleration - Y dimension -> Min: 2; Max: 6; Std Dev: 2;
Linear acceleration - Z dimension -> Min: 3; Max: 9; Std Dev: 3;

Sliding window nr. 2
Linear acceleration - X dimension -> Min: -0.5; Max: 0.25; Std Dev: 0.125;
Linear acceleration - Y dimension -> Min: 0; Max: 0; Std Dev: 0;
Linear acceleration - Z dimension -> Min: NaN; Max: +Inf; Std Dev: NaN;

`
	require.Equal(t, want, buf.String())
}

func TestWriteWindow(t *testing.T) {
	var buf bytes.Buffer
	s := stats.Summary{Window: 7, X: stats.Triple{Min: 1}, Y: stats.Triple{Max: 2}, Z: stats.Triple{StdDev: 3}}
	require.NoError(t, WriteWindow(&buf, s))
	require.Equal(t, `Sliding window nr. 7
Linear acceleration - X dimension -> Min: 1; Max: 0; Std Dev: 0;
Linear acceleration - Y dimension -> Min: 0; Max: 2; Std Dev: 0;
Linear acceleration - Z dimension -> Min: 0; Max: 0; Std Dev: 3;

`, buf.String())
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "File_Results.txt")
	require.NoError(t, WriteFile(path, oneWindow(t), 3))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "Sliding window nr. 1\n")
}

func TestWriteFileErrors(t *testing.T) {
	err := WriteFile(filepath.Join(t.TempDir(), "out.txt"), nil, 128)
	require.True(t, errors.Is(err, ErrNoResults))

	err = WriteFile(filepath.Join(t.TempDir(), "missing", "out.txt"), oneWindow(t), 128)
	require.True(t, errors.Is(err, ErrNotFound))
	require.False(t, errors.Is(err, ErrIO))

	// a directory cannot be created as a file
	err = WriteFile(t.TempDir(), oneWindow(t), 128)
	require.True(t, errors.Is(err, ErrIO))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteReportsIOError(t *testing.T) {
	err := Write(failingWriter{}, oneWindow(t), 3)
	require.True(t, errors.Is(err, ErrIO))
	require.ErrorContains(t, err, "disk full")
}
