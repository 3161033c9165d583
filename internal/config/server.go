package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig is the runtime configuration shared by the CLI and the HTTP
// server.
type ServerConfig struct {
	Addr                string
	BodyLimitMB         int
	HeuristicsPath      string
	RulesPath           string
	ClassifyConcurrency int
	ClassifyTimeout     time.Duration
	ClassifyBatch       int
	FallbackCategory    string
}

// LoadServer reads ServerConfig from the environment. A .env file in the
// working directory is loaded first when present; variables already set in
// the environment win.
func LoadServer() (ServerConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ServerConfig{}, fmt.Errorf("loading .env: %w", err)
	}

	cfg := ServerConfig{
		Addr:                getEnv("STATEMENT_ADDR", ":8080"),
		BodyLimitMB:         getEnvAsInt("STATEMENT_BODY_LIMIT_MB", 32),
		HeuristicsPath:      getEnv("STATEMENT_HEURISTICS", ""),
		RulesPath:           getEnv("STATEMENT_RULES", ""),
		ClassifyConcurrency: getEnvAsInt("STATEMENT_CLASSIFY_CONCURRENCY", 4),
		ClassifyTimeout:     getEnvAsDuration("STATEMENT_CLASSIFY_TIMEOUT", 30*time.Second),
		ClassifyBatch:       getEnvAsInt("STATEMENT_CLASSIFY_BATCH", 25),
		FallbackCategory:    getEnv("STATEMENT_FALLBACK_CATEGORY", "uncategorized"),
	}
	if cfg.ClassifyConcurrency < 1 {
		return ServerConfig{}, fmt.Errorf("STATEMENT_CLASSIFY_CONCURRENCY must be positive, got %d", cfg.ClassifyConcurrency)
	}
	if cfg.ClassifyBatch < 1 {
		return ServerConfig{}, fmt.Errorf("STATEMENT_CLASSIFY_BATCH must be positive, got %d", cfg.ClassifyBatch)
	}
	return cfg, nil
}

// LoadHeuristics returns the heuristics at path, or the defaults when path
// is empty.
func LoadHeuristics(path string) (Heuristics, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
