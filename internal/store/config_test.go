package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimalYAML = `
mode: DRY_RUN
symbol: BTCUSDT
timeframes:
  - label: 15m
`

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.DataSource != "STATIC" {
		t.Errorf("data source = %s, want STATIC", cfg.DataSource)
	}
	if cfg.Scheduling.CoarseSeconds != 900 || cfg.Scheduling.FineSeconds != 60 {
		t.Errorf("scheduling defaults = %d/%d, want 900/60",
			cfg.Scheduling.CoarseSeconds, cfg.Scheduling.FineSeconds)
	}
	if len(cfg.Risk.Tiers) != 4 {
		t.Fatalf("expected 4 default tier bands, got %d", len(cfg.Risk.Tiers))
	}
	if cfg.Risk.Tiers[0].Floor != 0.2 || cfg.Risk.Tiers[3].Tier != 4 {
		t.Errorf("unexpected default bands: %+v", cfg.Risk.Tiers)
	}
	if cfg.Timeframes[0].Lookback != 200 {
		t.Errorf("lookback default = %d, want 200", cfg.Timeframes[0].Lookback)
	}
	if cfg.Session.End != "23:45" {
		t.Errorf("session end = %s, want 23:45", cfg.Session.End)
	}
}

func TestNotionalLookup(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatal(err)
	}

	if got := cfg.Notional(0); got != 0 {
		t.Errorf("tier 0 notional = %f, want 0", got)
	}
	if got := cfg.Notional(2); got != 800 {
		t.Errorf("tier 2 notional = %f, want 800", got)
	}
	if got := cfg.Notional(99); got != 0 {
		t.Errorf("out-of-range tier notional = %f, want 0", got)
	}
}

func TestValidateRejectsBadMode(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, strings.Replace(minimalYAML, "DRY_RUN", "YOLO", 1)))
	if err == nil || !strings.Contains(err.Error(), "invalid mode") {
		t.Errorf("expected invalid mode error, got %v", err)
	}
}

func TestValidateRejectsFineNotShorterThanCoarse(t *testing.T) {
	body := minimalYAML + `
scheduling:
  coarse_seconds: 60
  fine_seconds: 60
`
	_, err := LoadConfig(writeConfig(t, body))
	if err == nil || !strings.Contains(err.Error(), "fine interval") {
		t.Errorf("expected interval ordering error, got %v", err)
	}
}

func TestValidateRejectsUnorderedTierFloors(t *testing.T) {
	body := minimalYAML + `
risk:
  tiers:
    - { floor: 0.4, tier: 1 }
    - { floor: 0.2, tier: 2 }
`
	_, err := LoadConfig(writeConfig(t, body))
	if err == nil || !strings.Contains(err.Error(), "strictly increasing") {
		t.Errorf("expected floor ordering error, got %v", err)
	}
}

func TestValidateRejectsDecreasingTiers(t *testing.T) {
	body := minimalYAML + `
risk:
  tiers:
    - { floor: 0.2, tier: 2 }
    - { floor: 0.4, tier: 1 }
`
	_, err := LoadConfig(writeConfig(t, body))
	if err == nil || !strings.Contains(err.Error(), "non-decreasing") {
		t.Errorf("expected tier ordering error, got %v", err)
	}
}

func TestValidateRejectsShortNotionalTable(t *testing.T) {
	body := minimalYAML + `
risk:
  tiers:
    - { floor: 0.2, tier: 1 }
    - { floor: 0.6, tier: 4 }
  notional_per_tier: [0, 500]
`
	_, err := LoadConfig(writeConfig(t, body))
	if err == nil || !strings.Contains(err.Error(), "notional_per_tier") {
		t.Errorf("expected notional table error, got %v", err)
	}
}

func TestValidateRejectsBadSessionEnd(t *testing.T) {
	body := minimalYAML + `
session:
  end: "25:99"
`
	_, err := LoadConfig(writeConfig(t, body))
	if err == nil || !strings.Contains(err.Error(), "session.end") {
		t.Errorf("expected session end error, got %v", err)
	}
}
