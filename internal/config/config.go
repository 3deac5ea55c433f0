// Package config provides centralized configuration for the NexusVC backend.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds application-wide configuration.
type Config struct {
	// DataRoot is the base directory for persistent data (status cache, remote registry).
	DataRoot string
	// Addr is the listen address of the HTTP server.
	Addr string
	// DB overrides the database location. Empty means DataRoot/nexusvc.db.
	DB string
	// QueueLatency is the artificial pause inserted before every queued task.
	QueueLatency time.Duration
	// LatencyScale multiplies the simulated per-operation delays. Zero disables them.
	LatencyScale float64
	// PushFailureRate is the probability that a push is rejected as non-fast-forward.
	PushFailureRate float64
	// Author is recorded on commits created by the engine.
	Author string
	// MissionDir holds additional seed repositories. Empty means only the built-in seed.
	MissionDir string
	// Trunk is the branch whose commits are drawn on lane 0.
	Trunk string
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// LogFormat is one of text, json, logfmt.
	LogFormat string
}

// DefaultConfig returns the default configuration, reading from environment variables.
func DefaultConfig() *Config {
	return &Config{
		DataRoot:        env("NEXUSVC_DATA_ROOT", ".nexusvc-data"),
		Addr:            env("NEXUSVC_ADDR", ":8080"),
		DB:              os.Getenv("NEXUSVC_DB_PATH"),
		QueueLatency:    envDuration("NEXUSVC_QUEUE_LATENCY", 400*time.Millisecond),
		LatencyScale:    envFloat("NEXUSVC_LATENCY_SCALE", 1),
		PushFailureRate: envFloat("NEXUSVC_PUSH_FAILURE_RATE", 0.1),
		Author:          env("NEXUSVC_AUTHOR", "You"),
		MissionDir:      os.Getenv("NEXUSVC_MISSION_DIR"),
		Trunk:           env("NEXUSVC_TRUNK", "master"),
		LogLevel:        env("NEXUSVC_LOG_LEVEL", "info"),
		LogFormat:       env("NEXUSVC_LOG_FORMAT", "text"),
	}
}

// DBPath returns the path of the SQLite database.
func (c *Config) DBPath() string {
	if c.DB != "" {
		return c.DB
	}
	return filepath.Join(c.DataRoot, "nexusvc.db")
}

// Scale applies LatencyScale to a nominal delay.
func (c *Config) Scale(d time.Duration) time.Duration {
	if c.LatencyScale <= 0 {
		return 0
	}
	return time.Duration(float64(d) * c.LatencyScale)
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
