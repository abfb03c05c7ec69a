package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err != nil {
		t.Fatalf("Expected defaults for a missing file, got error: %v", err)
	}

	if cfg.Show.TickInterval != "5ms" {
		t.Errorf("Expected default tick_interval 5ms, got %s", cfg.Show.TickInterval)
	}
	if cfg.Show.Channels.Cockpit != 3 || cfg.Show.Channels.Engine != [3]int{9, 10, 11} {
		t.Errorf("Expected default channel wiring, got %+v", cfg.Show.Channels)
	}
	if len(cfg.BLE.DeviceNames) == 0 {
		t.Error("Expected default device names")
	}
	if cfg.BLE.RateLimit != 120.0 || cfg.BLE.RateBurst != 60 {
		t.Errorf("Expected default frame rate limits, got %v/%d", cfg.BLE.RateLimit, cfg.BLE.RateBurst)
	}
	if cfg.SchedulesFile != "schedules.json" {
		t.Errorf("Expected default schedules file, got %s", cfg.SchedulesFile)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeTempConfig(t, `{
		"ble": {
			"device_names": ["MY-LIGHTS"],
			"frame_rate_limit": 60
		},
		"show": {
			"tick_interval": " 10ms ",
			"manual_start": true,
			"channels": {"cockpit": 1, "headlights": 2, "landing_lights": 4, "engine": [5, 6, 7]}
		},
		"schedules_file": "custom.json"
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Show.TickInterval != "10ms" {
		t.Errorf("Expected trimmed tick_interval 10ms, got %q", cfg.Show.TickInterval)
	}
	if !cfg.Show.ManualStart {
		t.Error("Expected manual_start true")
	}
	if cfg.Show.Channels.Engine != [3]int{5, 6, 7} {
		t.Errorf("Expected engine channels [5 6 7], got %v", cfg.Show.Channels.Engine)
	}
	if cfg.BLE.RateLimit != 60 {
		t.Errorf("Expected frame_rate_limit 60, got %v", cfg.BLE.RateLimit)
	}
	if len(cfg.BLE.DeviceNames) != 1 || cfg.BLE.DeviceNames[0] != "MY-LIGHTS" {
		t.Errorf("Expected device names overridden, got %v", cfg.BLE.DeviceNames)
	}
	if cfg.SchedulesFile != "custom.json" {
		t.Errorf("Expected schedules_file custom.json, got %s", cfg.SchedulesFile)
	}

	// Untouched sections still get their defaults.
	if cfg.BLE.ScanTimeout != "30s" || cfg.BLE.RateBurst != 60 {
		t.Errorf("Expected defaults for unset BLE fields, got %+v", cfg.BLE)
	}
}

func TestLoadPreservesPaddedDeviceNames(t *testing.T) {
	path := writeTempConfig(t, `{"ble": {"device_names": ["ELK-BLEDOM   "]}}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.BLE.DeviceNames[0] != "ELK-BLEDOM   " {
		t.Errorf("Expected padded device name preserved, got %q", cfg.BLE.DeviceNames[0])
	}
}

func TestLoadRejectsBadTickInterval(t *testing.T) {
	path := writeTempConfig(t, `{"show": {"tick_interval": "fast"}}`)

	if _, err := Load(path); err == nil {
		t.Fatal("Expected an error for an unparseable tick_interval")
	}
}

func TestLoadRejectsBadJSON(t *testing.T) {
	path := writeTempConfig(t, `{"show": `)

	if _, err := Load(path); err == nil {
		t.Fatal("Expected an error for malformed JSON")
	}
}
