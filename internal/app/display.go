// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"image"
	"log"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/accel_windows/internal/imu"
	"github.com/relabs-tech/accel_windows/internal/orientation"
	"github.com/relabs-tech/accel_windows/internal/persistence"
	"github.com/relabs-tech/accel_windows/internal/stats"
)

const (
	displayWidth  = 128
	displayHeight = 64
)

// displaySink shows the latest window on an SSD1306 OLED.
type displaySink struct {
	dev     *ssd1306.Dev
	bus     i2c.BusCloser
	gravity func() imu.Sample
}

// openDisplay opens the OLED on the named I2C bus ("" selects the first
// one) and shows the splash screen.
func openDisplay(busName string, gravity func() imu.Sample) (*displaySink, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus: %w", err)
	}

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Println("display: initialized")

	if err := dev.Draw(dev.Bounds(), renderSplash(), image.Point{}); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	return &displaySink{dev: dev, bus: bus, gravity: gravity}, nil
}

func (d *displaySink) Name() string { return "display" }

func (d *displaySink) Publish(_ context.Context, rec persistence.Record) error {
	img := renderWindow(rec.Summary, orientation.FromGravity(d.gravity()))
	return d.dev.Draw(d.dev.Bounds(), img, image.Point{})
}

func (d *displaySink) Close() error {
	if err := d.dev.Halt(); err != nil {
		log.Printf("display: halt error: %v", err)
	}
	return d.bus.Close()
}

func newFrame() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayWidth, displayHeight))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

// renderWindow draws the window number, the tilt and the per-axis spread.
func renderWindow(s stats.Summary, tilt orientation.Tilt) *image1bit.VerticalLSB {
	img, drawer := newFrame()

	drawer.Dot = fixed.P(0, 11)
	drawer.DrawString(fmt.Sprintf("W%-4d R%4.0f P%4.0f", s.Window, tilt.Roll, tilt.Pitch))

	for i, axis := range imu.Axes {
		t := s.Axis(axis)
		drawer.Dot = fixed.P(0, 24+13*i)
		drawer.DrawString(fmt.Sprintf("%s sd%5.2f pp%5.2f", axis, t.StdDev, t.Max-t.Min))
	}

	return img
}

func renderSplash() *image1bit.VerticalLSB {
	img, drawer := newFrame()

	drawer.Dot = fixed.P(10, 26)
	drawer.DrawString("Accel windows")

	drawer.Dot = fixed.P(10, 43)
	drawer.DrawString("Waiting...")

	return img
}
