package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const savedHeader = "# OmniStep configuration. Unknown keys are rejected on load.\n"

// SaveTo writes the config as YAML. The file is replaced atomically so a
// running instance never reads a partial config.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating config: %w", err)
	}
	defer os.Remove(tmp.Name())

	_, werr := tmp.Write(append([]byte(savedHeader), data...))
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return fmt.Errorf("writing config: %w", werr)
	}
	return os.Rename(tmp.Name(), path)
}
