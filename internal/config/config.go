package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultPort          = 8080
	defaultPageSize      = 200
	defaultImportDir     = "xml"
	defaultImportWorkers = 4
	defaultKafkaTopic    = "probe-alarms"
	defaultLogDir        = "logs"
	defaultLogLevel      = "info"
)

// Config holds environment-driven settings shared by the API server and the
// batch importer.
type Config struct {
	DatabaseURL   string
	Port          int
	BearerToken   string
	PageSize      int
	ImportDir     string
	ImportWorkers int
	KafkaBroker   string
	KafkaTopic    string
	LogDir        string
	LogLevel      string
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		Port:          defaultPort,
		PageSize:      defaultPageSize,
		ImportDir:     defaultImportDir,
		ImportWorkers: defaultImportWorkers,
		KafkaTopic:    defaultKafkaTopic,
		LogDir:        defaultLogDir,
		LogLevel:      defaultLogLevel,
	}

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 {
			return cfg, fmt.Errorf("invalid PORT: %s", portStr)
		}
		cfg.Port = port
	}

	if sizeStr := os.Getenv("API_PAGE_SIZE"); sizeStr != "" {
		size, err := strconv.Atoi(sizeStr)
		if err != nil || size <= 0 {
			return cfg, fmt.Errorf("invalid API_PAGE_SIZE: %s", sizeStr)
		}
		cfg.PageSize = size
	}

	if dir := strings.TrimSpace(os.Getenv("IMPORT_DIR")); dir != "" {
		cfg.ImportDir = dir
	}

	if workersStr := os.Getenv("IMPORT_WORKERS"); workersStr != "" {
		workers, err := strconv.Atoi(workersStr)
		if err != nil || workers <= 0 {
			return cfg, fmt.Errorf("invalid IMPORT_WORKERS: %s", workersStr)
		}
		cfg.ImportWorkers = workers
	}

	cfg.KafkaBroker = strings.TrimSpace(os.Getenv("KAFKA_BROKER"))
	if topic := strings.TrimSpace(os.Getenv("KAFKA_TOPIC")); topic != "" {
		cfg.KafkaTopic = topic
	}

	if dir := strings.TrimSpace(os.Getenv("LOG_DIR")); dir != "" {
		cfg.LogDir = dir
	}
	if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}

	cfg.BearerToken = os.Getenv("API_BEARER_TOKEN")

	return cfg, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}
