// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config holds all application configuration values.
type Config struct {
	// GPS input
	GPSSource        string // "serial", "file" or "sim"
	GPSSerialPort    string
	GPSBaudRate      int
	GPSReadTimeoutMS int
	GPSReplayFile    string

	// Simulator (GPS_SOURCE=sim and cmd/nmea_sim)
	SimStartLat   float64
	SimStartLon   float64
	SimSpeedMPS   float64
	SimBearingDeg float64
	SimSatellites int
	SimEmitRMC    bool
	SimNoiseEvery int
	SimSeed       uint64

	// Timing
	TickIntervalMS int
	FaultHoldMS    int

	// Fault log
	FaultLogPath string

	// Display
	DisplayDriver string // "ssd1306", "console" or "none"
	DisplayI2CBus string // empty = first bus periph finds

	// Heartbeat LED
	HeartbeatDriver string // "periph", "gpiod" or "none"
	HeartbeatPin    string

	// Watchdog
	WatchdogDevice    string // empty = disabled
	WatchdogTimeoutMS int

	// MQTT
	MQTTBroker   string // empty = disabled
	MQTTClientID string
	TopicGPSFix  string

	// Web Server
	WebServerPort int // 0 = disabled
}

// Default returns the configuration used for any key the file leaves out.
func Default() *Config {
	return &Config{
		GPSSource:        "serial",
		GPSSerialPort:    "/dev/serial0",
		GPSBaudRate:      9600,
		GPSReadTimeoutMS: 100,

		SimStartLat:   48.1173,
		SimStartLon:   11.5167,
		SimSpeedMPS:   12,
		SimBearingDeg: 90,
		SimSatellites: 8,
		SimNoiseEvery: 5,
		SimSeed:       1,

		TickIntervalMS: 100,
		FaultHoldMS:    2000,

		FaultLogPath: "gps_faults.log",

		DisplayDriver: "ssd1306",

		HeartbeatDriver: "periph",
		HeartbeatPin:    "GPIO17",

		WatchdogTimeoutMS: 8000,

		MQTTClientID: "gps-telemetry-" + uuid.NewString(),
		TopicGPSFix:  "telemetry/gps/fix",
	}
}

// Load reads the configuration file over Default and returns the result.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// LoadOrDefault is Load, except that a missing file yields Default.
func LoadOrDefault(configPath string) (*Config, error) {
	cfg, err := Load(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("config: %s not found, using defaults", configPath)
		cfg = Default()
		return cfg, cfg.validate()
	}
	return cfg, err
}

// Parse reads KEY=VALUE lines from r over Default.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
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

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// GPS input
	case "GPS_SOURCE":
		c.GPSSource = value
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_BAUD_RATE %q: %w", value, err)
		}
		if rate <= 0 {
			return fmt.Errorf("GPS_BAUD_RATE must be positive, got %d", rate)
		}
		c.GPSBaudRate = rate
	case "GPS_READ_TIMEOUT_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_READ_TIMEOUT_MS %q: %w", value, err)
		}
		if ms < 100 || ms > 25500 {
			return fmt.Errorf("GPS_READ_TIMEOUT_MS must be 100-25500, got %d", ms)
		}
		c.GPSReadTimeoutMS = ms
	case "GPS_REPLAY_FILE":
		c.GPSReplayFile = value

	// Simulator
	case "SIM_START_LAT":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid SIM_START_LAT %q: %w", value, err)
		}
		if v < -90 || v > 90 {
			return fmt.Errorf("SIM_START_LAT must be -90..90, got %v", v)
		}
		c.SimStartLat = v
	case "SIM_START_LON":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid SIM_START_LON %q: %w", value, err)
		}
		if v < -180 || v > 180 {
			return fmt.Errorf("SIM_START_LON must be -180..180, got %v", v)
		}
		c.SimStartLon = v
	case "SIM_SPEED_MPS":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid SIM_SPEED_MPS %q: %w", value, err)
		}
		if v < 0 {
			return fmt.Errorf("SIM_SPEED_MPS must not be negative, got %v", v)
		}
		c.SimSpeedMPS = v
	case "SIM_BEARING_DEG":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid SIM_BEARING_DEG %q: %w", value, err)
		}
		c.SimBearingDeg = v
	case "SIM_SATELLITES":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SIM_SATELLITES %q: %w", value, err)
		}
		if v < 0 || v > 99 {
			return fmt.Errorf("SIM_SATELLITES must be 0-99, got %d", v)
		}
		c.SimSatellites = v
	case "SIM_EMIT_RMC":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid SIM_EMIT_RMC %q: %w", value, err)
		}
		c.SimEmitRMC = v
	case "SIM_NOISE_EVERY":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SIM_NOISE_EVERY %q: %w", value, err)
		}
		if v < 0 {
			return fmt.Errorf("SIM_NOISE_EVERY must not be negative, got %d", v)
		}
		c.SimNoiseEvery = v
	case "SIM_SEED":
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid SIM_SEED %q: %w", value, err)
		}
		c.SimSeed = v

	// Timing
	case "TICK_INTERVAL_MS":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid TICK_INTERVAL_MS %q: %w", value, err)
		}
		c.TickIntervalMS = interval
	case "FAULT_HOLD_MS":
		hold, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid FAULT_HOLD_MS %q: %w", value, err)
		}
		c.FaultHoldMS = hold

	// Fault log
	case "FAULT_LOG_PATH":
		c.FaultLogPath = value

	// Display
	case "DISPLAY_DRIVER":
		c.DisplayDriver = value
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value

	// Heartbeat
	case "HEARTBEAT_DRIVER":
		c.HeartbeatDriver = value
	case "HEARTBEAT_PIN":
		c.HeartbeatPin = value

	// Watchdog
	case "WATCHDOG_DEVICE":
		c.WatchdogDevice = value
	case "WATCHDOG_TIMEOUT_MS":
		timeout, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WATCHDOG_TIMEOUT_MS %q: %w", value, err)
		}
		if timeout < 1000 {
			return fmt.Errorf("WATCHDOG_TIMEOUT_MS must be at least 1000, got %d", timeout)
		}
		c.WatchdogTimeoutMS = timeout

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value
	case "TOPIC_GPS_FIX":
		c.TopicGPSFix = value

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		if port < 0 || port > 65535 {
			return fmt.Errorf("WEB_SERVER_PORT must be 0-65535, got %d", port)
		}
		c.WebServerPort = port

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks the combination of values after all keys are applied.
func (c *Config) validate() error {
	switch c.GPSSource {
	case "serial":
		if c.GPSSerialPort == "" {
			return fmt.Errorf("GPS_SERIAL_PORT is required for GPS_SOURCE=serial")
		}
		if c.GPSBaudRate == 0 {
			return fmt.Errorf("GPS_BAUD_RATE is required for GPS_SOURCE=serial")
		}
	case "file":
		if c.GPSReplayFile == "" {
			return fmt.Errorf("GPS_REPLAY_FILE is required for GPS_SOURCE=file")
		}
	case "sim":
	default:
		return fmt.Errorf("GPS_SOURCE must be serial, file or sim, got %q", c.GPSSource)
	}

	switch c.DisplayDriver {
	case "ssd1306", "console", "none":
	default:
		return fmt.Errorf("DISPLAY_DRIVER must be ssd1306, console or none, got %q", c.DisplayDriver)
	}
	switch c.HeartbeatDriver {
	case "periph", "gpiod", "none":
	default:
		return fmt.Errorf("HEARTBEAT_DRIVER must be periph, gpiod or none, got %q", c.HeartbeatDriver)
	}
	if c.HeartbeatDriver != "none" && c.HeartbeatPin == "" {
		return fmt.Errorf("HEARTBEAT_PIN is required for HEARTBEAT_DRIVER=%s", c.HeartbeatDriver)
	}

	if c.TickIntervalMS <= 0 {
		return fmt.Errorf("TICK_INTERVAL_MS must be positive")
	}
	if c.FaultHoldMS < 0 {
		return fmt.Errorf("FAULT_HOLD_MS must not be negative")
	}
	if c.FaultLogPath == "" {
		return fmt.Errorf("FAULT_LOG_PATH is required")
	}
	if c.WatchdogDevice != "" && c.TickIntervalMS+c.FaultHoldMS >= c.WatchdogTimeoutMS {
		return fmt.Errorf("TICK_INTERVAL_MS + FAULT_HOLD_MS (%d) must stay below WATCHDOG_TIMEOUT_MS (%d)",
			c.TickIntervalMS+c.FaultHoldMS, c.WatchdogTimeoutMS)
	}
	if c.MQTTBroker != "" && c.TopicGPSFix == "" {
		return fmt.Errorf("TOPIC_GPS_FIX is required when MQTT_BROKER is set")
	}
	return nil
}

func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

func (c *Config) FaultHold() time.Duration {
	return time.Duration(c.FaultHoldMS) * time.Millisecond
}

func (c *Config) GPSReadTimeout() time.Duration {
	return time.Duration(c.GPSReadTimeoutMS) * time.Millisecond
}

func (c *Config) WatchdogTimeout() time.Duration {
	return time.Duration(c.WatchdogTimeoutMS) * time.Millisecond
}
