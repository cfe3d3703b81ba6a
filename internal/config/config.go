// Package config loads daemon configuration from a YAML file with
// sensible defaults for every knob, so the daemon runs without a config
// file at all.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/sweeney/triac-dimmer/internal/dimmer"
	"github.com/sweeney/triac-dimmer/internal/gpio"
)

// MQTT holds broker connection and topic settings.
type MQTT struct {
	Broker            string        `mapstructure:"broker"`
	BaseTopic         string        `mapstructure:"base_topic"`
	DeviceID          string        `mapstructure:"device_id"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
}

// UDP holds the fast-control listener settings.
type UDP struct {
	Port        int           `mapstructure:"port"`
	FastTimeout time.Duration `mapstructure:"fast_timeout"`
}

// GPIO holds the pin assignment.
type GPIO struct {
	Chip         string `mapstructure:"chip"`
	ZeroCrossPin int    `mapstructure:"zero_cross_pin"`
	ChannelPins  []int  `mapstructure:"channel_pins"`
}

// Config is the full daemon configuration.
type Config struct {
	LogLevel     string        `mapstructure:"log_level"`
	HTTPAddr     string        `mapstructure:"http_addr"`
	DBPath       string        `mapstructure:"db_path"`
	TickInterval time.Duration `mapstructure:"tick_interval"`
	MQTT         MQTT          `mapstructure:"mqtt"`
	UDP          UDP           `mapstructure:"udp"`
	GPIO         GPIO          `mapstructure:"gpio"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("db_path", "dimmer.db")
	v.SetDefault("tick_interval", 10*time.Millisecond)

	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.base_topic", "lights/room1/triac_dimmer_1")
	v.SetDefault("mqtt.device_id", "triac_dimmer_1")
	v.SetDefault("mqtt.heartbeat_interval", 30*time.Second)

	v.SetDefault("udp.port", 5000)
	v.SetDefault("udp.fast_timeout", 3*time.Second)

	v.SetDefault("gpio.chip", gpio.DefaultChip)
	v.SetDefault("gpio.zero_cross_pin", gpio.DefaultZeroCrossPin)
	v.SetDefault("gpio.channel_pins", gpio.DefaultChannelPins)
}

// Load reads the configuration. With an explicit path the file must exist;
// otherwise configs/config.yml is tried and a missing file falls back to
// defaults.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", path, err)
		}
	} else {
		v.AddConfigPath("configs")
		v.SetConfigName("config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if len(c.GPIO.ChannelPins) != dimmer.NumChannels {
		return fmt.Errorf("gpio.channel_pins must list exactly %d pins, got %d",
			dimmer.NumChannels, len(c.GPIO.ChannelPins))
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %v", c.TickInterval)
	}
	if c.UDP.FastTimeout <= 0 {
		return fmt.Errorf("udp.fast_timeout must be positive, got %v", c.UDP.FastTimeout)
	}
	return nil
}
