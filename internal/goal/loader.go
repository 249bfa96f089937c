package goal

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// GoalsFile is the top-level container loaded from YAML.
type GoalsFile struct {
	Version int    `yaml:"version"`
	Goals   []Goal `yaml:"goals"`
}

// LoadStore loads the canonical goal list from a YAML file.
func LoadStore(path string) (*Store, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read goals file: %w", err)
	}

	var gf GoalsFile
	if err := yaml.Unmarshal(b, &gf); err != nil {
		return nil, fmt.Errorf("failed to parse goals YAML: %w", err)
	}

	if gf.Version != 1 {
		return nil, fmt.Errorf("unsupported goals file version: %d", gf.Version)
	}

	return NewStore(gf.Goals)
}
