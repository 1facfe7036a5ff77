package config

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "rdas_config.txt"

// Config holds all application configuration values.
type Config struct {
	// GPS serial port
	SerialPort      string `yaml:"serial_port"`
	SerialBaudRate  uint   `yaml:"serial_baud_rate"`
	SerialTimeoutMS int    `yaml:"serial_timeout_ms"`

	// LCD on I2C
	I2CBus     string `yaml:"i2c_bus"` // periph bus name, "0" is /dev/i2c-0
	LCDI2CAddr uint16 `yaml:"lcd_i2c_addr"`

	// Acknowledgment handshake pin
	GPIOPin       int    `yaml:"gpio_pin"`
	GPIOSysfsRoot string `yaml:"gpio_sysfs_root"`

	// Timing
	LoopIntervalMS int `yaml:"loop_interval_ms"`

	LogLevel string `yaml:"log_level"`
}

// Package-level singleton, set once by InitGlobal and read through Get.
var (
	globalConfig  *Config
	usingDefaults bool
	configOnce    sync.Once
	configMu      sync.RWMutex
)

// Default returns the values used for the deployed station.
func Default() *Config {
	return &Config{
		SerialPort:      "/dev/ttyUSB0",
		SerialBaudRate:  9600,
		SerialTimeoutMS: 5000,
		I2CBus:          "0",
		LCDI2CAddr:      0x27,
		GPIOPin:         79,
		GPIOSysfsRoot:   "/sys/class/gpio",
		LoopIntervalMS:  1000,
		LogLevel:        "info",
	}
}

// SerialTimeout is SerialTimeoutMS as a duration.
func (c *Config) SerialTimeout() time.Duration {
	return time.Duration(c.SerialTimeoutMS) * time.Millisecond
}

// LoopInterval is LoopIntervalMS as a duration.
func (c *Config) LoopInterval() time.Duration {
	return time.Duration(c.LoopIntervalMS) * time.Millisecond
}

// Load reads the configuration file on top of Default(). Files ending in
// .yaml or .yml are YAML, anything else is KEY=VALUE lines.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		b, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		if err := cfg.loadKeyValue(configPath); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadKeyValue(configPath string) error {
	file, err := os.Open(configPath)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
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
			return fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := c.setValue(key, value); err != nil {
			return fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// GPS serial port
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		rate, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_BAUD_RATE %q: %w", value, err)
		}
		c.SerialBaudRate = uint(rate)
	case "SERIAL_TIMEOUT_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SERIAL_TIMEOUT_MS %q: %w", value, err)
		}
		c.SerialTimeoutMS = ms

	// LCD
	case "I2C_BUS":
		c.I2CBus = value
	case "LCD_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid LCD_I2C_ADDR %q: %w", value, err)
		}
		c.LCDI2CAddr = uint16(addr)

	// GPIO
	case "GPIO_PIN":
		pin, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPIO_PIN %q: %w", value, err)
		}
		c.GPIOPin = pin
	case "GPIO_SYSFS_ROOT":
		c.GPIOSysfsRoot = value

	// Timing
	case "LOOP_INTERVAL_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid LOOP_INTERVAL_MS %q: %w", value, err)
		}
		c.LoopIntervalMS = ms

	case "LOG_LEVEL":
		c.LogLevel = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks ranges and required fields.
func (c *Config) validate() error {
	if c.SerialPort == "" {
		return fmt.Errorf("SERIAL_PORT is required")
	}
	if c.SerialBaudRate == 0 {
		return fmt.Errorf("SERIAL_BAUD_RATE must be > 0")
	}
	if c.SerialTimeoutMS < 100 || c.SerialTimeoutMS > 25500 {
		return fmt.Errorf("SERIAL_TIMEOUT_MS must be 100-25500, got %d", c.SerialTimeoutMS)
	}
	if c.LCDI2CAddr == 0 || c.LCDI2CAddr > 0x7F {
		return fmt.Errorf("LCD_I2C_ADDR must be a 7-bit address, got 0x%X", c.LCDI2CAddr)
	}
	if c.GPIOPin < 0 {
		return fmt.Errorf("GPIO_PIN must be >= 0, got %d", c.GPIOPin)
	}
	if c.GPIOSysfsRoot == "" {
		return fmt.Errorf("GPIO_SYSFS_ROOT is required")
	}
	if c.LoopIntervalMS <= 0 {
		return fmt.Errorf("LOOP_INTERVAL_MS must be > 0, got %d", c.LoopIntervalMS)
	}
	return nil
}

// InitGlobal initializes the global configuration from file. Only the first
// call has any effect. When configPath is DefaultPath and that file does not
// exist, the built-in defaults are used and UsingDefaults reports true.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
		if err != nil && configPath == DefaultPath && errors.Is(err, fs.ErrNotExist) {
			globalConfig, err = Default(), nil
			usingDefaults = true
		}
	})
	return err
}

// UsingDefaults reports whether InitGlobal fell back to Default() because
// the default config file was missing.
func UsingDefaults() bool {
	configMu.RLock()
	defer configMu.RUnlock()
	return usingDefaults
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
