package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all worker configuration values.
type Config struct {
	// Capture
	OutputDir       string
	CaptureInterval int // seconds between photos
	CameraWidth     int
	CameraHeight    int
	JPEGQuality     int
	CameraCommand   string // override for the still capture binary

	// GPS
	GPSInterface    string // "serial", "i2c", or "off"
	GPSSerialPort   string
	GPSBaudRate     int
	GPSI2CBus       string // empty selects the first available bus
	GPSI2CAddr      uint16
	GPSPollInterval int // milliseconds
	FixStaleSeconds int // clear the held fix after this long without an accepted one; 0 disables

	// MQTT status telemetry (disabled when the broker is empty)
	MQTTBroker   string
	MQTTClientID string
	TopicFix     string
	TopicCapture string

	// Status display
	DisplayEnabled        bool
	DisplayI2CBus         string
	DisplayUpdateInterval int // milliseconds
}

// Default returns the configuration the worker runs with when no config
// file exists. Resolution and interval match the stock Camera Module 3
// still mode the original deployment used.
func Default() *Config {
	return &Config{
		OutputDir:       "/var/lib/opensensecam",
		CaptureInterval: 10,
		CameraWidth:     2304,
		CameraHeight:    1296,
		JPEGQuality:     90,

		GPSInterface:    "serial",
		GPSSerialPort:   "/dev/serial0",
		GPSBaudRate:     9600,
		GPSI2CAddr:      0x10,
		GPSPollInterval: 250,
		FixStaleSeconds: 60,

		MQTTClientID: "opensensecam-worker",
		TopicFix:     "opensensecam/fix",
		TopicCapture: "opensensecam/capture",

		DisplayUpdateInterval: 1000,
	}
}

// Load reads the configuration file over the defaults. A missing file is
// not an error: the worker then runs with Default(), the same fallback the
// control panel relies on before any configuration has been saved.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	file, err := os.Open(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
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
	// Capture
	case "OUTPUT_DIR":
		c.OutputDir = value
	case "CAPTURE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CAPTURE_INTERVAL %q: %w", value, err)
		}
		if interval < 1 {
			return fmt.Errorf("CAPTURE_INTERVAL must be at least 1 second, got %d", interval)
		}
		c.CaptureInterval = interval
	case "CAMERA_WIDTH":
		w, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CAMERA_WIDTH %q: %w", value, err)
		}
		if w < 1 {
			return fmt.Errorf("CAMERA_WIDTH must be positive, got %d", w)
		}
		c.CameraWidth = w
	case "CAMERA_HEIGHT":
		h, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CAMERA_HEIGHT %q: %w", value, err)
		}
		if h < 1 {
			return fmt.Errorf("CAMERA_HEIGHT must be positive, got %d", h)
		}
		c.CameraHeight = h
	case "JPEG_QUALITY":
		q, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid JPEG_QUALITY %q: %w", value, err)
		}
		if q < 1 || q > 100 {
			return fmt.Errorf("JPEG_QUALITY must be 1-100, got %d", q)
		}
		c.JPEGQuality = q
	case "CAMERA_COMMAND":
		c.CameraCommand = value

	// GPS
	case "GPS_INTERFACE":
		switch value {
		case "serial", "i2c", "off":
			c.GPSInterface = value
		default:
			return fmt.Errorf("GPS_INTERFACE must be serial, i2c, or off, got %q", value)
		}
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_BAUD_RATE %q: %w", value, err)
		}
		c.GPSBaudRate = rate
	case "GPS_I2C_BUS":
		c.GPSI2CBus = value
	case "GPS_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid GPS_I2C_ADDR %q: %w", value, err)
		}
		c.GPSI2CAddr = uint16(addr)
	case "GPS_POLL_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_POLL_INTERVAL %q: %w", value, err)
		}
		if interval < 1 {
			return fmt.Errorf("GPS_POLL_INTERVAL must be positive, got %d", interval)
		}
		c.GPSPollInterval = interval
	case "FIX_STALE_SECONDS":
		secs, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid FIX_STALE_SECONDS %q: %w", value, err)
		}
		if secs < 0 {
			return fmt.Errorf("FIX_STALE_SECONDS must not be negative, got %d", secs)
		}
		c.FixStaleSeconds = secs

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value
	case "TOPIC_FIX":
		c.TopicFix = value
	case "TOPIC_CAPTURE":
		c.TopicCapture = value

	// Display
	case "DISPLAY_ENABLED":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_ENABLED %q: %w", value, err)
		}
		c.DisplayEnabled = enabled
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		if interval < 1 {
			return fmt.Errorf("DISPLAY_UPDATE_INTERVAL must be positive, got %d", interval)
		}
		c.DisplayUpdateInterval = interval

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks cross-field requirements the per-key parsing cannot.
func (c *Config) validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR is required")
	}
	if c.GPSInterface == "serial" && c.GPSSerialPort == "" {
		return fmt.Errorf("GPS_SERIAL_PORT is required when GPS_INTERFACE=serial")
	}
	if c.GPSInterface == "serial" && c.GPSBaudRate <= 0 {
		return fmt.Errorf("GPS_BAUD_RATE must be positive when GPS_INTERFACE=serial")
	}
	if c.MQTTBroker != "" && c.MQTTClientID == "" {
		return fmt.Errorf("MQTT_CLIENT_ID is required when MQTT_BROKER is set")
	}
	return nil
}
