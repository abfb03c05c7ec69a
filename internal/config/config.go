package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// BLEConfig - Bluetooth Low Energy settings for the PWM peripheral.
type BLEConfig struct {
	DeviceNames       []string `json:"device_names"`
	ScanTimeout       string   `json:"scan_timeout"`
	ConnectTimeout    string   `json:"connect_timeout"`
	HeartbeatInterval string   `json:"heartbeat_interval"`
	RetryDelay        string   `json:"retry_delay"`
	RateLimit         float64  `json:"frame_rate_limit"`
	RateBurst         int      `json:"frame_rate_burst"`
}

// ChannelsConfig maps the model's lights to PWM channel numbers.
type ChannelsConfig struct {
	Cockpit       int    `json:"cockpit"`
	Headlights    int    `json:"headlights"`
	LandingLights int    `json:"landing_lights"`
	Engine        [3]int `json:"engine"`
}

// ShowConfig - driver loop and channel wiring settings.
type ShowConfig struct {
	TickInterval string         `json:"tick_interval"`
	ManualStart  bool           `json:"manual_start"`
	Channels     ChannelsConfig `json:"channels"`
}

// Config - top-level structure.
type Config struct {
	BLE  BLEConfig  `json:"ble"`
	Show ShowConfig `json:"show"`

	SchedulesFile string `json:"schedules_file"`
}

// Load reads the file, parses the JSON and applies sanitizing/defaults.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := &Config{}
			cfg.setDefaults()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to open config file '%s': %w", path, err)
	}
	defer file.Close()

	cfg := &Config{}
	if err := json.NewDecoder(file).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode json: %w", err)
	}

	cfg.sanitize()
	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) sanitize() {
	c.SchedulesFile = strings.TrimSpace(c.SchedulesFile)
	c.Show.TickInterval = strings.TrimSpace(c.Show.TickInterval)
	// Device names are matched exactly against BLE advertisements, and some
	// firmwares pad their local name with spaces, so those stay untouched.
}

func (c *Config) setDefaults() {
	// BLE Defaults
	if len(c.BLE.DeviceNames) == 0 {
		c.BLE.DeviceNames = []string{"FALCON-LIGHTS", "ELK-BLEDOM   "}
	}
	if c.BLE.ScanTimeout == "" {
		c.BLE.ScanTimeout = "30s"
	}
	if c.BLE.ConnectTimeout == "" {
		c.BLE.ConnectTimeout = "7s"
	}
	if c.BLE.HeartbeatInterval == "" {
		c.BLE.HeartbeatInterval = "60s"
	}
	if c.BLE.RetryDelay == "" {
		c.BLE.RetryDelay = "5s"
	}
	if c.BLE.RateLimit <= 0 {
		c.BLE.RateLimit = 120.0
	}
	if c.BLE.RateBurst <= 0 {
		c.BLE.RateBurst = 60
	}

	// Show Defaults. The channel numbers mirror the PWM pins of the
	// original single-board wiring.
	if c.Show.TickInterval == "" {
		c.Show.TickInterval = "5ms"
	}
	ch := &c.Show.Channels
	if ch.Cockpit == 0 && ch.Headlights == 0 && ch.LandingLights == 0 && ch.Engine == [3]int{} {
		ch.Cockpit = 3
		ch.Headlights = 5
		ch.LandingLights = 6
		ch.Engine = [3]int{9, 10, 11}
	}

	// File Defaults
	if c.SchedulesFile == "" {
		c.SchedulesFile = "schedules.json"
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.Show.TickInterval); err != nil {
		return fmt.Errorf("config error: invalid 'tick_interval': %w", err)
	}
	if c.BLE.RateLimit <= 0 {
		return fmt.Errorf("config error: 'frame_rate_limit' must be positive")
	}
	return nil
}
