package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds every configurable value for the sampler and its consumers.
type Config struct {
	// Persistence
	DBPath string // path to the SQLite file, e.g. "./data/system_metrics.db"

	// Sampling
	SampleIntervalSec int // seconds between sampling cycles
	TopNProcesses     int // per-cycle cap on persisted process rows

	// Queries
	WindowMinutes int // default trailing window for summaries

	// Diagnostics
	LogLevel string // debug|info|warn|error
}

// Load reads configuration from (in decreasing priority):
//  1. environment variables (DB_PATH, SAMPLE_INTERVAL_SEC, TOP_N_PROCESSES,
//     WINDOW_MINUTES, LOG_LEVEL)
//  2. a yaml file (./configs/config.yaml) if it exists.
//
// It returns a fully populated *Config or an error. The pipeline never reads
// the environment directly; this struct is built once and passed around.
func Load() (*Config, error) {
	v := viper.New()

	// Default values – keep them sensible and minimal
	v.SetDefault("DBPath", "./data/system_metrics.db")
	v.SetDefault("SampleIntervalSec", 5)
	v.SetDefault("TopNProcesses", 25)
	v.SetDefault("WindowMinutes", 60)
	v.SetDefault("LogLevel", "info")

	// Environment variables, snake-cased per key
	_ = v.BindEnv("DBPath", "DB_PATH")
	_ = v.BindEnv("SampleIntervalSec", "SAMPLE_INTERVAL_SEC")
	_ = v.BindEnv("TopNProcesses", "TOP_N_PROCESSES")
	_ = v.BindEnv("WindowMinutes", "WINDOW_MINUTES")
	_ = v.BindEnv("LogLevel", "LOG_LEVEL")

	// Optional yaml file - useful for local dev
	v.SetConfigName("config")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // ignore error - file is optional

	// Populate the struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("cannot decode config: %w", err)
	}

	if strings.TrimSpace(cfg.DBPath) == "" {
		return nil, fmt.Errorf("DBPath must not be empty")
	}
	if cfg.SampleIntervalSec <= 0 {
		return nil, fmt.Errorf("SampleIntervalSec must be positive, got %d", cfg.SampleIntervalSec)
	}
	if cfg.TopNProcesses <= 0 {
		return nil, fmt.Errorf("TopNProcesses must be positive, got %d", cfg.TopNProcesses)
	}
	if cfg.WindowMinutes <= 0 {
		return nil, fmt.Errorf("WindowMinutes must be positive, got %d", cfg.WindowMinutes)
	}

	return &cfg, nil
}
