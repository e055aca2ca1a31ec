package config

import (
	"os"
	"strconv"
)

// Environment variable overrides. Applied after file load so deployment
// environments can steer a checked-in site.yaml.
const (
	EnvOutput = "SITEBUILDER_OUTPUT"
	EnvTag    = "SITEBUILDER_TAG"
	EnvPort   = "SITEBUILDER_PORT"
	EnvBook   = "SITEBUILDER_BOOK_BIN"
)

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvOutput); v != "" {
		cfg.Build.Output = v
	}
	if v := os.Getenv(EnvTag); v != "" {
		cfg.Build.Tag = v
	}
	if v := os.Getenv(EnvBook); v != "" {
		cfg.Book.Bin = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Serve.Port = port
		}
	}
}
