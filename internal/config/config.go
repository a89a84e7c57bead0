// Package config implements an optional YAML configuration file layer,
// additive over the CLI flags that remain the primary interface.
package config

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// Config holds every value that either a config file or a CLI flag can
// set. Zero values mean "not set"; callers apply CLI flags over a loaded
// Config last, so flags always win.
type Config struct {
	Hostname string `json:"hostname,omitempty"`
	Port     int    `json:"port,omitempty"`
}

// Load reads and parses a YAML config file at path. sigs.k8s.io/yaml
// converts YAML to JSON internally before unmarshaling, so Config's
// struct tags are ordinary encoding/json tags.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &c, nil
}

// ApplyDefaults fills zero fields of c with the given defaults. Callers
// run it over a loaded file's values first and then apply only the CLI
// flags the user explicitly passed, so a flag overrides a file value and
// a file value overrides a default.
func (c *Config) ApplyDefaults(hostname string, port int) {
	if c.Hostname == "" {
		c.Hostname = hostname
	}
	if c.Port == 0 {
		c.Port = port
	}
}
