// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/relabs-tech/accel_windows/internal/gravity"
	"github.com/relabs-tech/accel_windows/internal/stats"
	"github.com/relabs-tech/accel_windows/internal/window"
)

// Sample sources.
const (
	SourceMock    = "mock"
	SourceMPU9250 = "mpu9250"
	SourceSerial  = "serial"
)

// Config holds all application configuration values.
type Config struct {
	// Sensor
	SampleSource   string
	SampleInterval int // milliseconds, 0 = as fast as the source delivers

	// IMU Hardware
	IMUSPIDevice string
	IMUCSPin     string
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte

	// Serial sensor hub
	SerialPort     string
	SerialBaudRate int

	// Pipeline
	WindowSize       int
	FilterAlpha      float64
	WindowConvention window.Convention
	StdDevMode       stats.Deviation
	ComputeWorkers   int
	SampleQueueSize  int

	// MQTT
	MQTTBroker            string
	MQTTClientIDCollector string
	MQTTClientIDConsole   string
	TopicWindowStats      string

	// OLED display
	DisplayEnabled bool
	DisplayI2CBus  string // "" = first available bus

	// Web Server
	WebServerPort int
	WebStaticDir  string // "" = no static files

	// Export
	ExportPath   string
	ExportOnExit bool

	// Redis (empty address disables the store)
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string
}

// Default returns the configuration used for keys missing from the file.
func Default() *Config {
	return &Config{
		SampleSource:          SourceMock,
		SampleInterval:        10,
		IMUSPIDevice:          "/dev/spidev6.0",
		IMUCSPin:              "18",
		SerialBaudRate:        115200,
		WindowSize:            window.DefaultSize,
		FilterAlpha:           gravity.DefaultAlpha,
		WindowConvention:      window.Full,
		StdDevMode:            stats.Sample,
		ComputeWorkers:        4,
		SampleQueueSize:       1024,
		MQTTClientIDCollector: "accel-windows-collector",
		MQTTClientIDConsole:   "accel-windows-console",
		TopicWindowStats:      "inertial/accel/windows",
		WebServerPort:         8080,
		ExportPath:            "File_Results.txt",
		RedisKeyPrefix:        "accel",
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads KEY=VALUE lines on top of Default. Empty lines and lines
// starting with '#' are ignored.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func atoi(key, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Sensor
	case "SAMPLE_SOURCE":
		src := strings.ToLower(value)
		switch src {
		case SourceMock, SourceMPU9250, SourceSerial:
			c.SampleSource = src
		default:
			return fmt.Errorf("SAMPLE_SOURCE must be mock, mpu9250 or serial, got %q", value)
		}
	case "SAMPLE_INTERVAL":
		interval, err := atoi(key, value)
		if err != nil {
			return err
		}
		if interval < 0 {
			return fmt.Errorf("SAMPLE_INTERVAL must be >= 0, got %d", interval)
		}
		c.SampleInterval = interval

	// IMU Hardware
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_ACCEL_RANGE":
		rangeVal, err := atoi(key, value)
		if err != nil {
			return err
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("IMU_ACCEL_RANGE must be 0-3 (0=±2g, 1=±4g, 2=±8g, 3=±16g), got %d", rangeVal)
		}
		c.IMUAccelRange = byte(rangeVal)

	// Serial
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		rate, err := atoi(key, value)
		if err != nil {
			return err
		}
		c.SerialBaudRate = rate

	// Pipeline
	case "WINDOW_SIZE":
		size, err := atoi(key, value)
		if err != nil {
			return err
		}
		if size < 2 {
			return fmt.Errorf("WINDOW_SIZE must be >= 2, got %d", size)
		}
		c.WindowSize = size
	case "FILTER_ALPHA":
		alpha, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid FILTER_ALPHA %q: %w", value, err)
		}
		if alpha < 0 || alpha > 1 {
			return fmt.Errorf("FILTER_ALPHA must be within [0, 1], got %v", alpha)
		}
		c.FilterAlpha = alpha
	case "WINDOW_CONVENTION":
		conv, err := window.ParseConvention(value)
		if err != nil {
			return err
		}
		c.WindowConvention = conv
	case "STDDEV_MODE":
		dev, err := stats.ParseDeviation(value)
		if err != nil {
			return err
		}
		c.StdDevMode = dev
	case "COMPUTE_WORKERS":
		workers, err := atoi(key, value)
		if err != nil {
			return err
		}
		c.ComputeWorkers = workers
	case "SAMPLE_QUEUE_SIZE":
		size, err := atoi(key, value)
		if err != nil {
			return err
		}
		if size < 1 {
			return fmt.Errorf("SAMPLE_QUEUE_SIZE must be >= 1, got %d", size)
		}
		c.SampleQueueSize = size

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_COLLECTOR":
		c.MQTTClientIDCollector = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "TOPIC_WINDOW_STATS":
		c.TopicWindowStats = value

	// OLED display
	case "DISPLAY_ENABLED":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_ENABLED %q: %w", value, err)
		}
		c.DisplayEnabled = b
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := atoi(key, value)
		if err != nil {
			return err
		}
		c.WebServerPort = port
	case "WEB_STATIC_DIR":
		c.WebStaticDir = value

	// Export
	case "EXPORT_PATH":
		c.ExportPath = value
	case "EXPORT_ON_EXIT":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid EXPORT_ON_EXIT %q: %w", value, err)
		}
		c.ExportOnExit = b

	// Redis
	case "REDIS_ADDR":
		c.RedisAddr = value
	case "REDIS_PASSWORD":
		c.RedisPassword = value
	case "REDIS_DB":
		db, err := atoi(key, value)
		if err != nil {
			return err
		}
		c.RedisDB = db
	case "REDIS_KEY_PREFIX":
		c.RedisKeyPrefix = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	switch c.SampleSource {
	case SourceMPU9250:
		if c.IMUSPIDevice == "" {
			return fmt.Errorf("IMU_SPI_DEVICE is required for SAMPLE_SOURCE=mpu9250")
		}
		if c.IMUCSPin == "" {
			return fmt.Errorf("IMU_CS_PIN is required for SAMPLE_SOURCE=mpu9250")
		}
	case SourceSerial:
		if c.SerialPort == "" {
			return fmt.Errorf("SERIAL_PORT is required for SAMPLE_SOURCE=serial")
		}
		if c.SerialBaudRate <= 0 {
			return fmt.Errorf("SERIAL_BAUD_RATE is required for SAMPLE_SOURCE=serial")
		}
	}
	if c.MQTTBroker != "" && c.TopicWindowStats == "" {
		return fmt.Errorf("TOPIC_WINDOW_STATS is required when MQTT_BROKER is set")
	}
	if c.WebServerPort < 0 || c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT must be 0-65535, got %d", c.WebServerPort)
	}
	if c.ExportOnExit && c.ExportPath == "" {
		return fmt.Errorf("EXPORT_PATH is required when EXPORT_ON_EXIT is set")
	}
	return nil
}
