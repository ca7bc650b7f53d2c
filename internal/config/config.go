package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string
	MQTTClientIDDisplay  string

	// Topics
	TopicIMURaw    string
	TopicIMUScaled string
	TopicIMUStatus string

	// IMU Hardware
	IMUSPIDevice string // periph spireg name, e.g. "/dev/spidev0.0" or "SPI0.0"
	IMUCSPin     string // optional GPIO driven as chip select
	IMUSimulated bool   // use the in-process chip simulator instead of SPI

	// IMU requested configuration (effective values are quantized by the driver)
	IMUSampleRateHz uint // 0 = driver default (1000 Hz)
	IMUDLPFHz       uint // on-chip low-pass cutoff, 0 = unfiltered
	IMUAccelMaxG    uint // smallest covering range of 2/4/8/16g is used

	// Timing
	IMUSampleInterval  int // milliseconds
	ConsoleLogInterval int // milliseconds

	// Web Server
	WebServerPort     int
	MetricsPort       int
	RegisterDebugPort int

	// Register debug tool
	RegisterDebugAllowedRanges string // e.g. "0x19-0x1C,0x37-0x38,0x6B"

	// Display (SSD1306 at I2C address 0x3C)
	DisplayUpdateInterval int    // milliseconds
	DisplayContent        string // what to show: "imu_raw", "imu_scaled", "status"
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through Get().
//   - configOnce: ensures InitGlobal() only runs once.
//   - configMu: write lock for initialization, read lock for Get().
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Defaults returns a Config with the optional values filled in.
func Defaults() *Config {
	return &Config{
		MQTTClientIDProducer:  "fmu-imu-producer",
		MQTTClientIDConsole:   "fmu-imu-console",
		MQTTClientIDWeb:       "fmu-imu-web",
		MQTTClientIDDisplay:   "fmu-imu-display",
		TopicIMURaw:           "fmu/imu/raw",
		TopicIMUScaled:        "fmu/imu/scaled",
		TopicIMUStatus:        "fmu/imu/status",
		IMUSampleRateHz:       1000,
		IMUDLPFHz:             256,
		IMUAccelMaxG:          8,
		WebServerPort:         8080,
		RegisterDebugPort:     8081,
		MetricsPort:           9100,
		DisplayUpdateInterval: 250,
		DisplayContent:        "imu_scaled",
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Defaults()
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

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// parseUint parses a bounded unsigned value for key.
func parseUint(key, value string, limit uint64) (uint64, error) {
	v, err := strconv.ParseUint(value, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v > limit {
		return 0, fmt.Errorf("%s must be 0-%d, got %d", key, limit, v)
	}
	return v, nil
}

func parseInt(key, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_IMU_RAW":
		c.TopicIMURaw = value
	case "TOPIC_IMU_SCALED":
		c.TopicIMUScaled = value
	case "TOPIC_IMU_STATUS":
		c.TopicIMUStatus = value

	// IMU Hardware
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_SIMULATED":
		c.IMUSimulated, err = strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_SIMULATED %q: %w", value, err)
		}

	// IMU Configuration
	case "IMU_SAMPLE_RATE_HZ":
		v, err := parseUint(key, value, 1000)
		if err != nil {
			return err
		}
		c.IMUSampleRateHz = uint(v)
	case "IMU_DLPF_HZ":
		v, err := parseUint(key, value, 1000)
		if err != nil {
			return err
		}
		c.IMUDLPFHz = uint(v)
	case "IMU_ACCEL_MAX_G":
		v, err := parseUint(key, value, 16)
		if err != nil {
			return err
		}
		if v == 0 {
			return fmt.Errorf("IMU_ACCEL_MAX_G must be 1-16 (selects ±2g, ±4g, ±8g or ±16g), got 0")
		}
		c.IMUAccelMaxG = uint(v)

	// Timing
	case "IMU_SAMPLE_INTERVAL":
		c.IMUSampleInterval, err = parseInt(key, value)
	case "CONSOLE_LOG_INTERVAL":
		c.ConsoleLogInterval, err = parseInt(key, value)

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parseInt(key, value)
	case "METRICS_PORT":
		c.MetricsPort, err = parseInt(key, value)
	case "REGISTER_DEBUG_PORT":
		c.RegisterDebugPort, err = parseInt(key, value)
	case "REGISTER_DEBUG_ALLOWED_RANGES":
		if _, err := ParseRegisterRanges(value); err != nil {
			return fmt.Errorf("invalid REGISTER_DEBUG_ALLOWED_RANGES %q: %w", value, err)
		}
		c.RegisterDebugAllowedRanges = value

	// Display
	case "DISPLAY_I2C_ADDR":
		return fmt.Errorf("DISPLAY_I2C_ADDR is not supported, the display is always at 0x3C")
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = parseInt(key, value)
	case "DISPLAY_CONTENT":
		switch value {
		case "imu_raw", "imu_scaled", "status":
			c.DisplayContent = value
		default:
			return fmt.Errorf("DISPLAY_CONTENT must be imu_raw, imu_scaled or status, got %q", value)
		}

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.IMUSPIDevice == "" && !c.IMUSimulated {
		return fmt.Errorf("IMU_SPI_DEVICE is required unless IMU_SIMULATED=true")
	}
	if c.IMUSampleInterval <= 0 {
		return fmt.Errorf("IMU_SAMPLE_INTERVAL is required")
	}
	if c.ConsoleLogInterval <= 0 {
		return fmt.Errorf("CONSOLE_LOG_INTERVAL is required")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
