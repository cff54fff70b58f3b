// Package config loads the service configuration from a YAML or JSON file
// with optional environment overrides.
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

	"github.com/letstalk-code/routecare/core/broadcast"
	"github.com/letstalk-code/routecare/core/dispatch"
	"github.com/letstalk-code/routecare/core/metrics"
	"github.com/letstalk-code/routecare/infra/mqtt"
)

type Config struct {
	HTTP      HTTPConfig       `json:"http"`
	MQTT      mqtt.Config      `json:"mqtt"`
	Dispatch  dispatch.Config  `json:"dispatch"`
	Metrics   metrics.Config   `json:"metrics"`
	Audit     AuditConfig      `json:"audit"`
	Broadcast broadcast.Config `json:"broadcast"`
	Seed      SeedConfig       `json:"seed"`
	Sentry    SentryConfig     `json:"sentry"`
	Stats     StatsConfig      `json:"stats"`
}

// HTTPConfig defines the API server settings.
type HTTPConfig struct {
	// Addr is the listen address of the API server.
	Addr string `json:"addr"`
	// AuditToken guards the audit endpoint when non-empty.
	AuditToken string `json:"audit_token"`
}

// SetDefaults applies the default listen address.
func (c *HTTPConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

// SeedConfig points at an optional fixture file loaded into the store at boot.
type SeedConfig struct {
	Path string `json:"path"`
}

// StatsConfig enables persistent driver performance history. When Path is
// set, daily counters are rolled into a SQLite database at midnight.
type StatsConfig struct {
	Path string `json:"path"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
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
	// Optional environment overrides
	if err := k.Load(env.Provider("RC_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "rc_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.HTTP.SetDefaults()
	cfg.MQTT.SetDefaults()
	cfg.Dispatch.SetDefaults()
	cfg.Audit.SetDefaults()
	cfg.Broadcast.SetDefaults()
	if err := cfg.Audit.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
