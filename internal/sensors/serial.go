// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/accel_windows/internal/imu"
)

// ErrBadLine is returned for lines that are not "x,y,z" accelerometer
// readings. Callers usually skip such lines.
var ErrBadLine = errors.New("sensors: malformed accelerometer line")

// LineSource reads accelerometer samples as text lines "x,y,z" (m/s²,
// separated by commas, semicolons or whitespace) from a stream such as a
// serial sensor hub.
type LineSource struct {
	r      *bufio.Reader
	closer io.Closer
}

// NewLineSource wraps any reader; Close closes it if it is an io.Closer.
func NewLineSource(r io.Reader) *LineSource {
	ls := &LineSource{r: bufio.NewReader(r)}
	if c, ok := r.(io.Closer); ok {
		ls.closer = c
	}
	return ls
}

// NewSerialSource opens a serial port 8N1 at the given baud rate.
func NewSerialSource(port string, baud int) (*LineSource, error) {
	opts := serial.OpenOptions{
		PortName:              port,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	rwc, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("serial open %s: %w", port, err)
	}
	return NewLineSource(rwc), nil
}

// Next blocks until a complete line arrives. Blank lines and '#' comments
// are skipped; malformed lines return ErrBadLine and the source stays usable.
func (s *LineSource) Next() (imu.Sample, error) {
	for {
		line, err := s.r.ReadString('\n')
		if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
			return imu.Sample{}, err
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			if err != nil {
				return imu.Sample{}, err
			}
			continue
		}
		return ParseLine(line)
	}
}

func (s *LineSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// ParseLine parses "x,y,z".
func ParseLine(line string) (imu.Sample, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t'
	})
	if len(fields) != 3 {
		return imu.Sample{}, fmt.Errorf("%w: %q", ErrBadLine, line)
	}

	var v [3]float64
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return imu.Sample{}, fmt.Errorf("%w: %q: %v", ErrBadLine, line, err)
		}
		v[i] = x
	}
	return imu.Sample{X: v[0], Y: v[1], Z: v[2]}, nil
}
