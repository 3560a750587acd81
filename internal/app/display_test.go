package app

import (
	"testing"

	"github.com/stretchr/testify/require"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/accel_windows/internal/orientation"
	"github.com/relabs-tech/accel_windows/internal/stats"
)

func litPixels(img *image1bit.VerticalLSB) int {
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.BitAt(x, y) {
				n++
			}
		}
	}
	return n
}

func TestRenderWindowDrawsEveryLine(t *testing.T) {
	s := stats.Summary{
		Window: 7,
		X:      stats.Triple{Min: -0.5, Max: 0.5, StdDev: 0.2},
		Y:      stats.Triple{Min: -0.1, Max: 0.1, StdDev: 0.05},
		Z:      stats.Triple{Min: -2, Max: 1, StdDev: 0.9},
	}
	img := renderWindow(s, orientation.Tilt{Roll: 3, Pitch: -12})

	require.Equal(t, displayWidth, img.Bounds().Dx())
	require.Equal(t, displayHeight, img.Bounds().Dy())

	// every text row has ink
	for _, row := range [][2]int{{0, 12}, {13, 25}, {26, 38}, {39, 51}} {
		lit := false
		for y := row[0]; y < row[1] && !lit; y++ {
			for x := 0; x < displayWidth; x++ {
				if img.BitAt(x, y) {
					lit = true
					break
				}
			}
		}
		require.True(t, lit, "rows %d-%d are blank", row[0], row[1])
	}
}

func TestRenderDiffersPerWindow(t *testing.T) {
	a := renderWindow(stats.Summary{Window: 1}, orientation.Tilt{})
	b := renderWindow(stats.Summary{Window: 2}, orientation.Tilt{})
	require.NotEqual(t, a.Pix, b.Pix)
	require.Positive(t, litPixels(renderSplash()))
}
