package window

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/accel_windows/internal/imu"
)

func seq(from, to int) []imu.Sample {
	out := make([]imu.Sample, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, imu.Sample{X: float64(i)})
	}
	return out
}

func fill(b *Buffer, samples []imu.Sample) {
	for _, s := range samples {
		b.Append(s)
	}
}

func TestNewValidation(t *testing.T) {
	_, err := New(1, Full)
	require.True(t, errors.Is(err, ErrSizeTooSmall))

	_, err = New(8, Convention(7))
	require.Error(t, err)

	b, err := New(DefaultSize, Full)
	require.NoError(t, err)
	require.Equal(t, 128, b.Size())
	require.Equal(t, Full, b.Convention())
}

func TestNotReadyBelowSize(t *testing.T) {
	b, _ := New(8, Full)
	for i, s := range seq(0, 7) {
		b.Append(s)
		win, ok := b.ReadyWindow()
		require.False(t, ok, "after %d samples", i+1)
		require.Nil(t, win)
	}
	require.Equal(t, 7, b.Len())
}

func TestReadyWindowConventions(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		conv    Convention
		wantWin []imu.Sample
		wantBuf []imu.Sample
	}{
		{"full/even", 8, Full, seq(0, 8), seq(4, 8)},
		{"full/odd", 7, Full, seq(0, 7), seq(3, 7)},
		{"trimmed/even", 8, Trimmed, seq(0, 7), seq(4, 7)},
		{"trimmed/odd", 7, Trimmed, seq(0, 6), seq(3, 6)},
		{"trimmed/default", DefaultSize, Trimmed, seq(0, 127), seq(64, 127)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(tt.size, tt.conv)
			require.NoError(t, err)
			fill(b, seq(0, tt.size))

			win, ok := b.ReadyWindow()
			require.True(t, ok)
			require.Equal(t, tt.wantWin, win)
			require.Equal(t, tt.wantBuf, b.Snapshot())

			_, ok = b.ReadyWindow()
			require.False(t, ok)
		})
	}
}

func TestConsecutiveWindowsOverlapByHalf(t *testing.T) {
	b, _ := New(8, Full)
	var windows [][]imu.Sample
	for _, s := range seq(0, 20) {
		b.Append(s)
		if win, ok := b.ReadyWindow(); ok {
			windows = append(windows, win)
		}
	}

	require.Len(t, windows, 4)
	require.Equal(t, seq(0, 8), windows[0])
	require.Equal(t, seq(4, 12), windows[1])
	require.Equal(t, seq(8, 16), windows[2])
	require.Equal(t, seq(12, 20), windows[3])
	require.Equal(t, seq(16, 20), b.Snapshot())
}

func TestTrimmedDropsNewestEachTime(t *testing.T) {
	b, _ := New(8, Trimmed)
	var windows [][]imu.Sample
	for _, s := range seq(0, 16) {
		b.Append(s)
		if win, ok := b.ReadyWindow(); ok {
			windows = append(windows, win)
		}
	}

	// 0..7 ready at 8 samples, keeps 4,5,6; sample 7 is lost.
	// 8..12 refill to 8 samples, keeps 9,10,11; sample 12 is lost.
	require.Len(t, windows, 2)
	require.Equal(t, seq(0, 7), windows[0])
	require.Equal(t, []imu.Sample{{X: 4}, {X: 5}, {X: 6}, {X: 8}, {X: 9}, {X: 10}, {X: 11}}, windows[1])
	require.Equal(t, []imu.Sample{{X: 9}, {X: 10}, {X: 11}, {X: 13}, {X: 14}, {X: 15}}, b.Snapshot())
}

func TestWindowIsDetachedFromBuffer(t *testing.T) {
	b, _ := New(4, Full)
	fill(b, seq(0, 4))
	win, ok := b.ReadyWindow()
	require.True(t, ok)

	fill(b, seq(100, 104))
	win2, ok := b.ReadyWindow()
	require.True(t, ok)

	require.Equal(t, seq(0, 4), win)
	require.Equal(t, []imu.Sample{{X: 2}, {X: 3}, {X: 100}, {X: 101}}, win2)
}

func TestParseConvention(t *testing.T) {
	c, err := ParseConvention("Trimmed")
	require.NoError(t, err)
	require.Equal(t, Trimmed, c)

	c, err = ParseConvention("")
	require.NoError(t, err)
	require.Equal(t, Full, c)

	_, err = ParseConvention("half")
	require.Error(t, err)
	require.Equal(t, "trimmed", Trimmed.String())
}

func TestReset(t *testing.T) {
	b, _ := New(4, Full)
	fill(b, seq(0, 3))
	b.Reset()
	require.Zero(t, b.Len())
	fill(b, seq(0, 3))
	_, ok := b.ReadyWindow()
	require.False(t, ok)
}
