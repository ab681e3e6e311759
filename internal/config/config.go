package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds vsixsign's environment-sourced settings. DefaultDigest
// is the default of the sign command's --file-digest flag; TSATimeout
// and LogLevel have no CLI flag.
type Config struct {
	TSATimeout    time.Duration
	DefaultDigest string
	LogLevel      string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		TSATimeout:    envDuration("VSIXSIGN_TSA_TIMEOUT", 30*time.Second),
		DefaultDigest: envString("VSIXSIGN_DEFAULT_DIGEST", "sha256"),
		LogLevel:      envString("VSIXSIGN_LOG_LEVEL", "info"),
	}
}

// SlogLevel parses LogLevel into an slog.Level, defaulting to Info for
// an empty or unrecognized value.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
