package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

const minimalConfig = `
feed:
  instrument: "NQ MAR24"
`

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Feed.Instrument != "NQ MAR24" {
		t.Errorf("instrument = %q", cfg.Feed.Instrument)
	}
	if cfg.Collector.URL != "http://127.0.0.1:5000/log_trade" {
		t.Errorf("collector url = %q", cfg.Collector.URL)
	}
	if cfg.Collector.Timeout != 10*time.Second {
		t.Errorf("collector timeout = %v", cfg.Collector.Timeout)
	}
	if cfg.Collector.Pacing != 100*time.Millisecond {
		t.Errorf("collector pacing = %v", cfg.Collector.Pacing)
	}
	if !cfg.Collector.Decompose {
		t.Errorf("decompose should default to true")
	}
	if cfg.Ledger.MaxEntryAge != 0 {
		t.Errorf("max_entry_age should default to 0, got %v", cfg.Ledger.MaxEntryAge)
	}
	if cfg.Monitor.Port != 8077 {
		t.Errorf("monitor port = %d", cfg.Monitor.Port)
	}
	if cfg.Bridge.QueueSize != 100 {
		t.Errorf("bridge queue size = %d", cfg.Bridge.QueueSize)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, `
feed:
  instrument: "ES JUN24"
  account: "Sim101"
collector:
  url: "http://collector.internal:9000/log_trade"
  timeout: 3s
  pacing: 250ms
  decompose: false
ledger:
  max_entry_age: 12h
  eviction_interval: 5m
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Feed.Account != "Sim101" {
		t.Errorf("account = %q", cfg.Feed.Account)
	}
	if cfg.Collector.URL != "http://collector.internal:9000/log_trade" {
		t.Errorf("collector url = %q", cfg.Collector.URL)
	}
	if cfg.Collector.Timeout != 3*time.Second {
		t.Errorf("timeout = %v", cfg.Collector.Timeout)
	}
	if cfg.Collector.Pacing != 250*time.Millisecond {
		t.Errorf("pacing = %v", cfg.Collector.Pacing)
	}
	if cfg.Collector.Decompose {
		t.Errorf("decompose should be false")
	}
	if cfg.Ledger.MaxEntryAge != 12*time.Hour {
		t.Errorf("max_entry_age = %v", cfg.Ledger.MaxEntryAge)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestLoad_RequiresInstrument(t *testing.T) {
	_, err := Load(writeConfigFile(t, `
collector:
  url: "http://127.0.0.1:5000/log_trade"
`))
	if err == nil {
		t.Fatalf("expected validation error without feed.instrument")
	}
	if !strings.Contains(err.Error(), "feed.instrument") {
		t.Errorf("error should name the missing field: %v", err)
	}
}

func TestLoad_RejectsInvalidCollectorURL(t *testing.T) {
	_, err := Load(writeConfigFile(t, `
feed:
  instrument: "NQ MAR24"
collector:
  url: "not a url"
`))
	if err == nil {
		t.Fatalf("expected validation error for invalid collector url")
	}
	if !strings.Contains(err.Error(), "collector.url") {
		t.Errorf("error should name the field: %v", err)
	}
}

func TestValidate_AggregatesAllProblems(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error for zero config")
	}
	for _, field := range []string{"feed.instrument", "collector.url", "logging.level", "monitor.port"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error should mention %s: %v", field, err)
		}
	}
}

func TestValidate_EvictionIntervalRequiredWhenEnabled(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	cfg.Ledger.MaxEntryAge = time.Hour
	cfg.Ledger.EvictionInterval = 0

	err = cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "ledger.eviction_interval") {
		t.Errorf("error should name the field: %v", err)
	}
}
