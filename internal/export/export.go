// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package export renders the results log as the human-readable report,
// one stanza per window:
//
//	Sliding window nr. 1
//	Linear acceleration - X dimension -> Min: -1.2; Max: 1.1; Std Dev: 0.8;
//	Linear acceleration - Y dimension -> Min: -0.4; Max: 0.4; Std Dev: 0.3;
//	Linear acceleration - Z dimension -> Min: -0.6; Max: 0.6; Std Dev: 0.4;
package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/relabs-tech/accel_windows/internal/imu"
	"github.com/relabs-tech/accel_windows/internal/stats"
)

var (
	// ErrNoResults means the log was empty and nothing was written.
	ErrNoResults = errors.New("export: no results")
	// ErrNotFound means the destination (or its directory) does not exist.
	ErrNotFound = errors.New("export: file not found")
	// ErrIO covers every other failure while writing the report.
	ErrIO = errors.New("export: input/output error")
)

// FormatValue prints a statistic at the precision it is meaningful at.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 32)
}

// Write renders the header and one stanza per complete window of results.
func Write(w io.Writer, results []stats.Triple, windowSize int) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "List of the parameters read from the accelerometer")
	fmt.Fprintf(bw, "Sliding window dimension: %d samples\n\n", windowSize)

	for _, s := range stats.Group(results) {
		writeStanza(bw, s)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

// WriteWindow renders a single stanza.
func WriteWindow(w io.Writer, s stats.Summary) error {
	bw := bufio.NewWriter(w)
	writeStanza(bw, s)
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

func writeStanza(w io.Writer, s stats.Summary) {
	fmt.Fprintf(w, "Sliding window nr. %d\n", s.Window)
	for _, axis := range imu.Axes {
		t := s.Axis(axis)
		fmt.Fprintf(w, "Linear acceleration - %s dimension -> Min: %s; Max: %s; Std Dev: %s;\n",
			axis, FormatValue(t.Min), FormatValue(t.Max), FormatValue(t.StdDev))
	}
	fmt.Fprintln(w)
}

// WriteFile writes the report to path, replacing any previous file.
// Failures are reported as ErrNoResults, ErrNotFound or ErrIO.
func WriteFile(path string, results []stats.Triple, windowSize int) (err error) {
	if len(results) == 0 {
		return ErrNoResults
	}

	f, err := os.Create(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrIO, cerr)
		}
	}()

	return Write(f, results, windowSize)
}
