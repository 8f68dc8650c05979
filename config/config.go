// Package config loads YAML defaults for the mqttc command: broker
// address, keep-alive, client id, clean-session and credentials that would
// otherwise have to be repeated on every invocation's command line.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Client holds the defaults a Connect command is built from. CLI flags
// passed to mqttc always override these; see cmd/mqttc/flags.go.
type Client struct {
	Broker       string `yaml:"broker"`
	ClientID     string `yaml:"client_id"`
	CleanSession bool   `yaml:"clean_session"`
	KeepAliveSec uint16 `yaml:"keep_alive_sec"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`

	Log struct {
		Level   string `yaml:"level"`
		File    string `yaml:"file"`
		Console bool   `yaml:"console"`
	} `yaml:"log"`
}

// File is the top-level shape of an mqttc.yaml document. Client is nested
// under a "client" key rather than flattened at the top level, leaving
// room for unrelated top-level sections later without a breaking change.
type File struct {
	Client `yaml:"client"`
}

// OpenConfigFile reads and parses p. An empty path is not an error: it
// returns a zero Client so callers fall back entirely to flags/defaults.
func OpenConfigFile(p string) (*Client, error) {
	if p == "" {
		return &Client{}, nil
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("config: reading %q: %w", p, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parsing %q: %w", p, err)
	}

	return &f.Client, nil
}
