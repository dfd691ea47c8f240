package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `sim:
  agent_count: 4
  package_count: 30
  map_location: "grid:10x8"
  buffer_percent: 0.25
  step_ms: 250
api:
  addr: ":9000"
  token: "secret"
mqtt:
  broker: "tcp://localhost:1883"
  client_id: "fleetsim"
  topic_prefix: "parcels"
  use_tls: false
metrics:
  sinks:
    - type: "nop"
  prometheus_port: ":2112"
history:
  backend: "sqlite"
  path: "runs.db"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"agent_count", cfg.Sim.AgentCount, 4},
		{"package_count", cfg.Sim.PackageCount, 30},
		{"map_location", cfg.Sim.MapLocation, "grid:10x8"},
		{"buffer_percent", cfg.Sim.BufferPercent, 0.25},
		{"api.addr", cfg.API.Addr, ":9000"},
		{"api.token", cfg.API.Token, "secret"},
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "fleetsim"},
		{"topic_prefix", cfg.MQTT.TopicPrefix, "parcels"},
		{"use_tls", cfg.MQTT.UseTLS, false},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"prometheus_port", cfg.Metrics.PrometheusPort, ":2112"},
		{"history.backend", cfg.History.Backend, "sqlite"},
		{"history.path", cfg.History.Path, "runs.db"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
	if got := cfg.Sim.Runtime().StepInterval; got != 250*time.Millisecond {
		t.Errorf("step interval mismatch: %v", got)
	}
}

func TestLoadDefaultsAndErrors(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("sim:\n  agent_count: 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.History.Backend != "jsonl" || cfg.History.Path == "" {
		t.Errorf("history defaults not applied: %+v", cfg.History)
	}
	if cfg.MQTT.Enabled() {
		t.Errorf("mqtt should be disabled without a broker")
	}

	if _, err := Load(filepath.Join(dir, "config.toml")); err == nil {
		t.Errorf("unsupported extension must fail")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("history:\n  backend: bogus\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(bad); err == nil {
		t.Errorf("invalid history backend must fail")
	}
}

func TestEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("api:\n  addr: \":8080\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("FS_API__ADDR", ":7070")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.API.Addr != ":7070" {
		t.Errorf("env override not applied: %s", cfg.API.Addr)
	}
}
