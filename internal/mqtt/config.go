package mqtt

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds broker connection and discovery settings.
type Config struct {
	Broker          string `yaml:"broker"`
	ClientID        string `yaml:"client_id"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	DiscoveryPrefix string `yaml:"discovery_prefix"`
	NodeID          string `yaml:"node_id"`
}

// LoadConfig reads a YAML config file and fills in defaults.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("mqtt: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("mqtt: parse config: %w", err)
	}
	cfg.applyDefaults()
	if cfg.Broker == "" {
		return cfg, fmt.Errorf("mqtt: config %s has no broker", path)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ClientID == "" {
		c.ClientID = "hassems"
	}
	if c.DiscoveryPrefix == "" {
		c.DiscoveryPrefix = DefaultDiscoveryPrefix
	}
	if c.NodeID == "" {
		c.NodeID = "hassems"
	}
}
