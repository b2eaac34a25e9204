package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the CLI's file-based settings. Flags override file values.
type Config struct {
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	Redis    struct {
		Addr   string `yaml:"addr"`
		Prefix string `yaml:"prefix"`
	} `yaml:"redis"`
}

func defaultConfig() Config {
	cfg := Config{
		Port:     8080,
		LogLevel: "info",
	}
	cfg.Redis.Prefix = "pergola:"
	return cfg
}

// loadConfig reads the YAML file at path, or returns defaults when path is
// empty.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
