package main

import (
	"log/slog"
	"os"
	"time"
)

type config struct {
	Port          string
	LogLevel      string
	DataDir       string
	IdleThreshold time.Duration
	SweepInterval time.Duration
}

func loadConfig() config {
	cfg := config{
		Port:          envOr("PORT", "8080"),
		LogLevel:      envOr("LOG_LEVEL", "info"),
		DataDir:       envOr("DATA_DIR", "data"),
		IdleThreshold: envDuration("IDLE_THRESHOLD", 60*time.Second),
		SweepInterval: envDuration("SWEEP_INTERVAL", 30*time.Second),
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}
