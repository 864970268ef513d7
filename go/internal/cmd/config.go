package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level service configuration, loaded from YAML with
// environment overrides for deployment-specific values.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	NATS struct {
		Enabled       bool   `yaml:"enabled"`
		URL           string `yaml:"url"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"nats"`

	Redis struct {
		Enabled    bool   `yaml:"enabled"`
		Addr       string `yaml:"addr"`
		Password   string `yaml:"password"`
		DB         int    `yaml:"db"`
		TTLSeconds int    `yaml:"ttl_seconds"`
	} `yaml:"redis"`

	SessionFile string `yaml:"session_file"`

	Show struct {
		AckTimeoutMs           int     `yaml:"ack_timeout_ms"`
		LockDelayMs            int     `yaml:"lock_delay_ms"`
		StealWindowMs          int     `yaml:"steal_window_ms"`
		CooldownMs             int     `yaml:"cooldown_ms"`
		MaxAttempts            int     `yaml:"max_attempts"`
		GlobalRPS              int     `yaml:"global_rps"`
		DefaultQuestionSeconds int     `yaml:"default_question_seconds"`
		AutoLockOnExpiry       bool    `yaml:"auto_lock_on_expiry"`
		ZoomSeconds            int     `yaml:"zoom_seconds"`
		ZoomFPS                int     `yaml:"zoom_fps"`
		ZoomMaxLevel           float64 `yaml:"zoom_max_level"`
		MysteryIntervalMs      int     `yaml:"mystery_interval_ms"`
		MysteryGridRows        int     `yaml:"mystery_grid_rows"`
		MysteryGridCols        int     `yaml:"mystery_grid_cols"`
	} `yaml:"show"`
}

func loadConfig(path string) (*Config, error) {
	var config Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// Absent config file means defaults plus environment.
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &config); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	// Environment overrides
	config.Server.Port = getEnv("PORT", defaultString(config.Server.Port, "8080"))
	config.NATS.URL = getEnv("NATS_URL", defaultString(config.NATS.URL, "nats://localhost:4222"))
	config.Redis.Addr = getEnv("REDIS_ADDR", defaultString(config.Redis.Addr, "localhost:6379"))
	config.Redis.Password = getEnv("REDIS_PASSWORD", config.Redis.Password)
	config.Redis.DB = getEnvAsInt("REDIS_DB", config.Redis.DB)
	config.SessionFile = getEnv("SESSION_FILE", config.SessionFile)

	return &config, nil
}

func defaultString(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func msOrDefault(ms int, fallback time.Duration) time.Duration {
	if ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
