package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mkrawiec/relay/mcp"
)

// config is the YAML configuration for the relay command. All fields are
// optional; flags override file values.
type config struct {
	Model           string         `yaml:"model"`
	ReasoningEffort string         `yaml:"reasoning_effort"`
	MaxSteps        int            `yaml:"max_steps"`
	Instructions    string         `yaml:"instructions"`
	Servers         []serverConfig `yaml:"mcp_servers"`
}

// serverConfig describes one stdio tool server to bridge.
type serverConfig struct {
	Label   string   `yaml:"label"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args,omitempty"`
}

func loadConfig(path string) (config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return config{}, fmt.Errorf("read config: %w", err)
	}
	return parseConfig(data)
}

func parseConfig(data []byte) (config, error) {
	var cfg config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return config{}, fmt.Errorf("parse config: %w", err)
	}
	seen := make(map[string]bool, len(cfg.Servers))
	for _, s := range cfg.Servers {
		if s.Label == "" {
			return config{}, fmt.Errorf("mcp server with command %q has no label", s.Command)
		}
		if s.Command == "" {
			return config{}, fmt.Errorf("mcp server %q has no command", s.Label)
		}
		if seen[s.Label] {
			return config{}, fmt.Errorf("duplicate mcp server label %q", s.Label)
		}
		seen[s.Label] = true
	}
	return cfg, nil
}

func (c config) mcpServers() []mcp.ServerConfig {
	servers := make([]mcp.ServerConfig, 0, len(c.Servers))
	for _, s := range c.Servers {
		servers = append(servers, mcp.ServerConfig{
			Label:   s.Label,
			Command: s.Command,
			Args:    s.Args,
		})
	}
	return servers
}
