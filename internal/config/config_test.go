package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sweeney/triac-dimmer/internal/gpio"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("expected log_level info, got %s", cfg.LogLevel)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("expected :8080, got %s", cfg.HTTPAddr)
	}
	if cfg.TickInterval != 10*time.Millisecond {
		t.Errorf("expected 10ms tick, got %v", cfg.TickInterval)
	}
	if cfg.MQTT.Broker != "tcp://localhost:1883" {
		t.Errorf("unexpected broker %s", cfg.MQTT.Broker)
	}
	if cfg.MQTT.HeartbeatInterval != 30*time.Second {
		t.Errorf("unexpected heartbeat interval %v", cfg.MQTT.HeartbeatInterval)
	}
	if cfg.UDP.Port != 5000 || cfg.UDP.FastTimeout != 3*time.Second {
		t.Errorf("unexpected udp config %+v", cfg.UDP)
	}
	if cfg.GPIO.Chip != gpio.DefaultChip {
		t.Errorf("unexpected chip %s", cfg.GPIO.Chip)
	}
	if cfg.GPIO.ZeroCrossPin != gpio.DefaultZeroCrossPin {
		t.Errorf("unexpected zero-cross pin %d", cfg.GPIO.ZeroCrossPin)
	}
	if len(cfg.GPIO.ChannelPins) != len(gpio.DefaultChannelPins) {
		t.Errorf("unexpected channel pins %v", cfg.GPIO.ChannelPins)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
tick_interval: 20ms
mqtt:
  broker: tcp://broker.local:1883
  base_topic: lights/kitchen/dimmer
udp:
  port: 6000
  fast_timeout: 5s
gpio:
  zero_cross_pin: 27
  channel_pins: [2, 3, 4, 14]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("expected debug, got %s", cfg.LogLevel)
	}
	if cfg.TickInterval != 20*time.Millisecond {
		t.Errorf("expected 20ms, got %v", cfg.TickInterval)
	}
	if cfg.MQTT.BaseTopic != "lights/kitchen/dimmer" {
		t.Errorf("unexpected base topic %s", cfg.MQTT.BaseTopic)
	}
	if cfg.UDP.Port != 6000 || cfg.UDP.FastTimeout != 5*time.Second {
		t.Errorf("unexpected udp config %+v", cfg.UDP)
	}
	if cfg.GPIO.ZeroCrossPin != 27 {
		t.Errorf("unexpected zero-cross pin %d", cfg.GPIO.ZeroCrossPin)
	}
	if want := []int{2, 3, 4, 14}; len(cfg.GPIO.ChannelPins) != 4 ||
		cfg.GPIO.ChannelPins[0] != want[0] || cfg.GPIO.ChannelPins[3] != want[3] {
		t.Errorf("unexpected channel pins %v", cfg.GPIO.ChannelPins)
	}
}

func TestLoadExplicitPathMustExist(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("missing explicit config accepted")
	}
}

func TestLoadRejectsWrongPinCount(t *testing.T) {
	path := writeConfig(t, `
gpio:
  channel_pins: [5, 6]
`)
	if _, err := Load(path); err == nil {
		t.Error("wrong channel pin count accepted")
	}
}

func TestLoadRejectsNonPositiveIntervals(t *testing.T) {
	path := writeConfig(t, "tick_interval: 0s\n")
	if _, err := Load(path); err == nil {
		t.Error("zero tick interval accepted")
	}

	path = writeConfig(t, "udp:\n  fast_timeout: -1s\n")
	if _, err := Load(path); err == nil {
		t.Error("negative fast timeout accepted")
	}
}
