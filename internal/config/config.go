package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jwebster45206/barter-engine/pkg/trade"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level
	LogFile     string // empty logs to stdout
	RedisURL    string
	DataDir     string
	EconomyFile string // optional YAML economy tuning
	PlayerID    string
	LedgerPath  string // SQLite trade event archive
	WorkerID    string
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),
		LogFile:     getEnv("LOG_FILE", ""),
		RedisURL:    getEnv("REDIS_URL", "localhost:6379"),
		DataDir:     getEnv("DATA_DIR", "./data"),
		EconomyFile: getEnv("ECONOMY_FILE", ""),
		PlayerID:    getEnv("PLAYER_ID", "player"),
		LedgerPath:  getEnv("LEDGER_PATH", "./data/ledger.sqlite"),
		WorkerID:    getEnv("WORKER_ID", ""),
	}
}

// LoadEconomy reads economy tuning from a YAML file. Keys missing from the
// file keep their default values; an empty path returns the defaults.
func LoadEconomy(path string) (trade.Economy, error) {
	econ := trade.DefaultEconomy()
	if path == "" {
		return econ, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return trade.Economy{}, fmt.Errorf("failed to read economy file: %w", err)
	}
	if err := yaml.Unmarshal(data, &econ); err != nil {
		return trade.Economy{}, fmt.Errorf("failed to parse economy file %s: %w", path, err)
	}
	if err := econ.Validate(); err != nil {
		return trade.Economy{}, fmt.Errorf("invalid economy file %s: %w", path, err)
	}
	return econ, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
