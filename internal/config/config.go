// Package config loads configuration from environment variables.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config holds all configuration values.
type Config struct {
	// Base directory for taskkit state
	HomeDir string

	// Persistence
	StorePath     string
	SchedulesPath string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables. All paths default
// to locations under TASKKIT_HOME (itself defaulting to ~/.taskkit).
func Load() Config {
	home := os.Getenv("TASKKIT_HOME")
	if home == "" {
		if userHome, err := os.UserHomeDir(); err == nil {
			home = filepath.Join(userHome, ".taskkit")
		} else {
			home = ".taskkit"
		}
	}

	return Config{
		HomeDir:       home,
		StorePath:     getEnv("TASKKIT_STORE_PATH", filepath.Join(home, "tasks.json")),
		SchedulesPath: getEnv("TASKKIT_SCHEDULES_PATH", filepath.Join(home, "schedules.yaml")),
		LogFile:       getEnv("TASKKIT_LOG_FILE", filepath.Join(home, "taskkit.log")),
		LogLevel:      parseLogLevel(getEnv("TASKKIT_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
