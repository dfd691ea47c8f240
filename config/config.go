package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/parcelops/fleetsim/api"
	"github.com/parcelops/fleetsim/core/metrics"
	"github.com/parcelops/fleetsim/core/sim"
	"github.com/parcelops/fleetsim/infra/mqtt"
)

// SimConfig holds the user-tunable run parameters applied to every run
// unless the start request overrides them.
type SimConfig struct {
	AgentCount    int     `json:"agent_count"`
	PackageCount  int     `json:"package_count"`
	Capacity      int     `json:"capacity"`
	MaxBattery    float64 `json:"max_battery"`
	DrainPerUnit  float64 `json:"drain_per_unit"`
	BufferPercent float64 `json:"buffer_percent"`
	Seed          int64   `json:"seed"`
	MapLocation   string  `json:"map_location"`
	StepMS        int     `json:"step_ms"`
}

// Runtime converts the section into engine defaults.
func (c SimConfig) Runtime() sim.Config {
	cfg := sim.Config{
		AgentCount:    c.AgentCount,
		PackageCount:  c.PackageCount,
		Capacity:      c.Capacity,
		MaxBattery:    c.MaxBattery,
		DrainPerUnit:  c.DrainPerUnit,
		BufferPercent: c.BufferPercent,
		Seed:          c.Seed,
	}
	if c.StepMS > 0 {
		cfg.StepInterval = time.Duration(c.StepMS) * time.Millisecond
	}
	return cfg
}

type Config struct {
	Sim     SimConfig      `json:"sim"`
	API     api.Config     `json:"api"`
	MQTT    mqtt.Config    `json:"mqtt"`
	Metrics metrics.Config `json:"metrics"`
	History HistoryConfig  `json:"history"`
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
	if err := k.Load(env.Provider("FS_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "fs_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.History.SetDefaults()
	if err := cfg.History.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
