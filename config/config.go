// Package config loads the ev3remote configuration from a YAML or JSON file
// with K_ environment overrides, e.g. K_MQTT__LEGO_NUMBER=7.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/multierr"

	"github.com/kilianp07/ev3remote/core/factory"
	"github.com/kilianp07/ev3remote/core/metrics"
	"github.com/kilianp07/ev3remote/infra/mqtt"
	"github.com/kilianp07/ev3remote/infra/telemetry"
)

type Config struct {
	MQTT      mqtt.Config      `json:"mqtt"`
	Robot     RobotConfig      `json:"robot"`
	Receiver  ReceiverConfig   `json:"receiver"`
	Metrics   metrics.Config   `json:"metrics"`
	Telemetry telemetry.Config `json:"telemetry"`
	Sentry    SentryConfig     `json:"sentry"`
	// CallLog keeps a history of executed calls; empty type disables it.
	CallLog factory.ModuleConfig `json:"call_log"`
}

// Load reads path, which may be empty to rely on defaults and the
// environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) SetDefaults() {
	c.MQTT.SetDefaults()
	c.Robot.SetDefaults()
	c.Receiver.SetDefaults()
}

// Validate reports every invalid section at once.
func (c Config) Validate() error {
	var err error
	if e := c.MQTT.Validate(); e != nil {
		err = multierr.Append(err, fmt.Errorf("mqtt: %w", e))
	}
	if e := c.Robot.Validate(); e != nil {
		err = multierr.Append(err, fmt.Errorf("robot: %w", e))
	}
	if e := c.Receiver.Validate(); e != nil {
		err = multierr.Append(err, fmt.Errorf("receiver: %w", e))
	}
	return err
}
