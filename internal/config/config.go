// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all application configuration values.
//
// Values come from a KEY=VALUE file (same layout as the other relabs
// config files). Every key can also be supplied as an environment variable.
type Config struct {
	// Sampling
	SampleInterval time.Duration `env:"SAMPLE_INTERVAL" env-default:"2s"`
	HistorySize    int           `env:"HISTORY_SIZE" env-default:"20"`

	// Sensor: "bme280" or "mock"
	SensorKind         string        `env:"SENSOR_KIND" env-default:"bme280"`
	BME280I2CBus       string        `env:"BME280_I2C_BUS" env-default:""`
	BME280I2CAddr      string        `env:"BME280_I2C_ADDR" env-default:"0x76"`
	SensorInitAttempts int           `env:"SENSOR_INIT_ATTEMPTS" env-default:"1"`
	SensorInitDelay    time.Duration `env:"SENSOR_INIT_DELAY" env-default:"1s"`

	// Display: "ssd1306", "serial", "both" or "log"
	DisplayKind      string `env:"DISPLAY_KIND" env-default:"ssd1306"`
	DisplayBus       string `env:"DISPLAY_BUS" env-default:"spi"` // "spi" or "i2c"
	DisplaySPIDevice string `env:"DISPLAY_SPI_DEVICE" env-default:""`
	DisplayI2CBus    string `env:"DISPLAY_I2C_BUS" env-default:""`
	DisplayDCPin     string `env:"DISPLAY_DC_PIN" env-default:"GPIO16"`
	DisplayRSTPin    string `env:"DISPLAY_RST_PIN" env-default:"GPIO4"`

	// Serial console mirror
	SerialPort     string `env:"SERIAL_PORT" env-default:"/dev/serial0"`
	SerialBaudRate uint   `env:"SERIAL_BAUD_RATE" env-default:"115200"`

	// Indicator: "gpio" or "log"
	IndicatorKind string `env:"INDICATOR_KIND" env-default:"gpio"`
	LEDGreenPin   string `env:"LED_GREEN_PIN" env-default:"GPIO27"`
	LEDRedPin     string `env:"LED_RED_PIN" env-default:"GPIO25"`

	// Web Server
	WebServerPort      int `env:"WEB_SERVER_PORT" env-default:"80"`
	PageRefreshSeconds int `env:"PAGE_REFRESH_SECONDS" env-default:"4"`

	// MQTT (disabled when broker is empty)
	MQTTBroker         string `env:"MQTT_BROKER" env-default:""`
	MQTTClientID       string `env:"MQTT_CLIENT_ID" env-default:"envmon"`
	MQTTClientIDWatch  string `env:"MQTT_CLIENT_ID_CONSOLE" env-default:"envmon-console"`
	TopicState         string `env:"TOPIC_STATE" env-default:"envmon/state"`
	TopicThresholds    string `env:"TOPIC_THRESHOLDS" env-default:"envmon/thresholds"`
	TopicSetThresholds string `env:"TOPIC_SET_THRESHOLDS" env-default:"envmon/thresholds/set"`

	// Access point advertisement
	APEnabled  bool   `env:"AP_ENABLED" env-default:"false"`
	APSSID     string `env:"AP_SSID" env-default:"VAF PBL"`
	APPassword string `env:"AP_PASSWORD" env-default:"password"`
	APIface    string `env:"AP_IFACE" env-default:"wlan0"`

	// Initial thresholds
	ThresholdTempLow   float64 `env:"THRESHOLD_TEMP_LOW" env-default:"20"`
	ThresholdTempHigh  float64 `env:"THRESHOLD_TEMP_HIGH" env-default:"25"`
	ThresholdHumidLow  float64 `env:"THRESHOLD_HUMID_LOW" env-default:"20"`
	ThresholdHumidHigh float64 `env:"THRESHOLD_HUMID_HIGH" env-default:"40"`
	ThresholdPressLow  float64 `env:"THRESHOLD_PRESS_LOW" env-default:"950"`
	ThresholdPressHigh float64 `env:"THRESHOLD_PRESS_HIGH" env-default:"1050"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `env:"LOG_FORMAT" env-default:"text"`
}

// Package-level unexported variables for the singleton:
//   - globalConfig is only reachable through Get().
//   - configOnce makes InitGlobal() run once even if called repeatedly.
//   - configMu guards globalConfig; Get() takes the read lock.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
// A missing file is not an error: defaults and environment variables apply.
// A key already set in the environment keeps its environment value.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	if _, statErr := os.Stat(configPath); statErr == nil {
		if err := exportUnset(configPath); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(statErr) {
		return nil, fmt.Errorf("failed to open config file: %w", statErr)
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// exportUnset copies the file's keys into the environment, skipping any
// key the environment already defines.
func exportUnset(configPath string) error {
	vars, err := godotenv.Read(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}
	for key, value := range vars {
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("failed to export %s: %w", key, err)
		}
	}
	return nil
}

// validate checks ranges and enumerated values.
func (c *Config) validate() error {
	if c.SampleInterval <= 0 {
		return fmt.Errorf("SAMPLE_INTERVAL must be positive, got %s", c.SampleInterval)
	}
	if c.HistorySize <= 0 {
		return fmt.Errorf("HISTORY_SIZE must be positive, got %d", c.HistorySize)
	}

	switch c.SensorKind {
	case "bme280", "mock":
	default:
		return fmt.Errorf("SENSOR_KIND must be bme280 or mock, got %q", c.SensorKind)
	}
	if _, err := c.BME280Addr(); err != nil {
		return err
	}
	if c.SensorInitAttempts < 1 {
		return fmt.Errorf("SENSOR_INIT_ATTEMPTS must be at least 1, got %d", c.SensorInitAttempts)
	}

	switch c.DisplayKind {
	case "ssd1306", "serial", "both", "log":
	default:
		return fmt.Errorf("DISPLAY_KIND must be ssd1306, serial, both or log, got %q", c.DisplayKind)
	}
	switch c.DisplayBus {
	case "spi", "i2c":
	default:
		return fmt.Errorf("DISPLAY_BUS must be spi or i2c, got %q", c.DisplayBus)
	}

	switch c.IndicatorKind {
	case "gpio", "log":
	default:
		return fmt.Errorf("INDICATOR_KIND must be gpio or log, got %q", c.IndicatorKind)
	}

	if c.WebServerPort <= 0 || c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT must be 1-65535, got %d", c.WebServerPort)
	}
	if c.PageRefreshSeconds < 0 {
		return fmt.Errorf("PAGE_REFRESH_SECONDS must not be negative, got %d", c.PageRefreshSeconds)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// BME280Addr parses BME280_I2C_ADDR (decimal or 0x-prefixed hex).
func (c *Config) BME280Addr() (uint16, error) {
	addr, err := strconv.ParseUint(c.BME280I2CAddr, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid BME280_I2C_ADDR %q: %w", c.BME280I2CAddr, err)
	}
	return uint16(addr), nil
}

// WebAddr is the listen address of the HTTP endpoint.
func (c *Config) WebAddr() string {
	return fmt.Sprintf(":%d", c.WebServerPort)
}

// InitGlobal initializes the global configuration from file.
// Only the first call loads; later calls return the first call's error.
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
