package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const configFileName = ".covenant-benchmark.json"

// BenchmarkConfig is the subset of run settings persisted between runs
type BenchmarkConfig struct {
	APIURL                string `json:"api_url"`
	Concurrency           int    `json:"concurrency,omitempty"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds,omitempty"`
}

// LoadConfig reads a saved benchmark config
func LoadConfig(path string) (*BenchmarkConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg BenchmarkConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// SaveConfig writes cfg to path, creating parent directories
func SaveConfig(path string, cfg *BenchmarkConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// DefaultConfigPath is the config file in the user's home, or the working directory when home is unknown
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return configFileName
	}
	return filepath.Join(home, configFileName)
}

// applyTo fills settings the command line left at their defaults
func (b *BenchmarkConfig) applyTo(cfg *Config) {
	if cfg.APIURL == defaultAPIURL && b.APIURL != "" {
		cfg.APIURL = b.APIURL
	}
	if cfg.Concurrency == defaultConcurrency && b.Concurrency > 0 {
		cfg.Concurrency = b.Concurrency
	}
	if cfg.RequestTimeout == defaultRequestTimeout && b.RequestTimeoutSeconds > 0 {
		cfg.RequestTimeout = time.Duration(b.RequestTimeoutSeconds) * time.Second
	}
}

func newBenchmarkConfig(cfg *Config) *BenchmarkConfig {
	return &BenchmarkConfig{
		APIURL:                cfg.APIURL,
		Concurrency:           cfg.Concurrency,
		RequestTimeoutSeconds: int(cfg.RequestTimeout / time.Second),
	}
}
