// Package config parses broker configuration from YAML or JSON.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/herald-mq/herald"
)

// Config defines the structure of configuration data parsed from a
// config source.
type Config struct {
	Host      string `yaml:"host" json:"host"`
	Port      int    `yaml:"port" json:"port"`
	Transport string `yaml:"transport" json:"transport"`
	Metrics   string `yaml:"metrics" json:"metrics"`
	Verbose   bool   `yaml:"verbose" json:"verbose"`
}

// FromBytes unmarshals a config from JSON or YAML bytes.
func FromBytes(data []byte) (*Config, error) {
	c := new(Config)

	if json.Valid(data) {
		if err := json.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse json config: %w", err)
		}
		return c, nil
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse yaml config: %w", err)
	}
	return c, nil
}

// FromFile reads and unmarshals a config file.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromBytes(data)
}

// Options converts the config into broker options.
func (c *Config) Options() *herald.Options {
	return &herald.Options{
		Host:      c.Host,
		Port:      c.Port,
		Transport: c.Transport,
	}
}
