package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journey.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadJourneyConfig(t *testing.T) {
	path := writeConfig(t, `
version: 1
journey:
  id: journey-main
  revision: "3"
  name: My Journey
  description: Personal goal wall
network:
  ui_port: 9090
goals_file: data/goals.yaml
cutscene:
  announce_ms: 3000
  transit_ms: 1500
  boost_ms: 2000
  close_ms: 800
pulse_ms: 600
focus:
  preserve_on_overview: true
`)

	cfg, err := LoadJourneyConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Journey.ID != "journey-main" {
		t.Errorf("unexpected journey id: %s", cfg.Journey.ID)
	}
	if cfg.UIPort() != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.UIPort())
	}
	if cfg.GoalsPath() != "data/goals.yaml" {
		t.Errorf("unexpected goals path: %s", cfg.GoalsPath())
	}
	if cfg.AnnounceDelay() != 3*time.Second {
		t.Errorf("unexpected announce delay: %s", cfg.AnnounceDelay())
	}
	if cfg.TransitDelay() != 1500*time.Millisecond {
		t.Errorf("unexpected transit delay: %s", cfg.TransitDelay())
	}
	if cfg.PulseWindow() != 600*time.Millisecond {
		t.Errorf("unexpected pulse window: %s", cfg.PulseWindow())
	}
	if !cfg.Focus.PreserveOnOverview {
		t.Error("expected focus preservation enabled")
	}
}

func TestLoadJourneyConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
version: 1
journey:
  id: journey-main
  name: Minimal
`)

	cfg, err := LoadJourneyConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.UIPort() != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.UIPort())
	}
	if cfg.GoalsPath() != "goals.yaml" {
		t.Errorf("expected default goals path, got %s", cfg.GoalsPath())
	}
	if cfg.AnnounceDelay() != 2400*time.Millisecond {
		t.Errorf("expected default announce delay, got %s", cfg.AnnounceDelay())
	}
	if cfg.TransitDelay() != 1200*time.Millisecond {
		t.Errorf("expected default transit delay, got %s", cfg.TransitDelay())
	}
	if cfg.BoostDelay() != 1800*time.Millisecond {
		t.Errorf("expected default boost delay, got %s", cfg.BoostDelay())
	}
	if cfg.CloseDelay() != 1000*time.Millisecond {
		t.Errorf("expected default close delay, got %s", cfg.CloseDelay())
	}
	if cfg.PulseWindow() != 900*time.Millisecond {
		t.Errorf("expected default pulse window, got %s", cfg.PulseWindow())
	}
	if cfg.Focus.PreserveOnOverview {
		t.Error("expected focus reset by default")
	}
}

func TestLoadJourneyConfigRejectsWrongVersion(t *testing.T) {
	path := writeConfig(t, `
version: 7
journey:
  id: journey-main
`)
	if _, err := LoadJourneyConfig(path); err == nil {
		t.Fatal("expected version 7 to be rejected")
	}
}

func TestLoadJourneyConfigMissingFile(t *testing.T) {
	if _, err := LoadJourneyConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected missing file to fail")
	}
}
