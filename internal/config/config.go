package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type JourneyConfig struct {
	Version int `yaml:"version"`
	Journey struct {
		ID          string `yaml:"id"`
		Revision    string `yaml:"revision"`
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	} `yaml:"journey"`
	Network struct {
		UIPort   int `yaml:"ui_port"`
		MQTTPort int `yaml:"mqtt_port"`
		DBPort   int `yaml:"db_port"`
	} `yaml:"network"`
	GoalsFile string `yaml:"goals_file"`
	Cutscene  struct {
		AnnounceMS int `yaml:"announce_ms"`
		TransitMS  int `yaml:"transit_ms"`
		BoostMS    int `yaml:"boost_ms"`
		CloseMS    int `yaml:"close_ms"`
	} `yaml:"cutscene"`
	PulseMS int `yaml:"pulse_ms"`
	Focus   struct {
		PreserveOnOverview bool `yaml:"preserve_on_overview"`
	} `yaml:"focus"`
}

// UIPort returns the configured UI port, defaulting to 8080 if not set.
func (c *JourneyConfig) UIPort() int {
	if c.Network.UIPort == 0 {
		return 8080
	}
	return c.Network.UIPort
}

// GoalsPath returns the configured goals file path, defaulting to goals.yaml.
func (c *JourneyConfig) GoalsPath() string {
	if c.GoalsFile == "" {
		return "goals.yaml"
	}
	return c.GoalsFile
}

// AnnounceDelay returns the announcing-phase duration, defaulting to 2400ms.
func (c *JourneyConfig) AnnounceDelay() time.Duration {
	return msOrDefault(c.Cutscene.AnnounceMS, 2400)
}

// TransitDelay returns the transit-phase duration, defaulting to 1200ms.
func (c *JourneyConfig) TransitDelay() time.Duration {
	return msOrDefault(c.Cutscene.TransitMS, 1200)
}

// BoostDelay returns the boost-presentation duration, defaulting to 1800ms.
func (c *JourneyConfig) BoostDelay() time.Duration {
	return msOrDefault(c.Cutscene.BoostMS, 1800)
}

// CloseDelay returns the closing-phase fallback duration, defaulting to 1000ms.
func (c *JourneyConfig) CloseDelay() time.Duration {
	return msOrDefault(c.Cutscene.CloseMS, 1000)
}

// PulseWindow returns the pulse self-clear window, defaulting to 900ms.
func (c *JourneyConfig) PulseWindow() time.Duration {
	return msOrDefault(c.PulseMS, 900)
}

func msOrDefault(ms, def int) time.Duration {
	if ms <= 0 {
		ms = def
	}
	return time.Duration(ms) * time.Millisecond
}

func LoadJourneyConfig(path string) (*JourneyConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg JourneyConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}

	if cfg.Version != 1 {
		return nil, fmt.Errorf("unsupported journey.yaml version: %d", cfg.Version)
	}

	return &cfg, nil
}
