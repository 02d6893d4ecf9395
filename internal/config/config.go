package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port    string `yaml:"port"`
		BaseURL string `yaml:"baseUrl"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Quiz struct {
		// DefaultTimeLimitMinutes fills in a create request that omits the
		// time limit.
		DefaultTimeLimitMinutes int `yaml:"defaultTimeLimitMinutes"`
	} `yaml:"quiz"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// StringOr returns raw, or the fallback when raw is empty.
func StringOr(raw, fallback string) string {
	if raw == "" {
		return fallback
	}
	return raw
}

// IntOr returns raw, or the fallback when raw is zero.
func IntOr(raw, fallback int) int {
	if raw == 0 {
		return fallback
	}
	return raw
}
