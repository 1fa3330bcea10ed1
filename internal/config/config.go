package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

var (
	ErrInvalidLogLevel        = errors.New("invalid log level")
	ErrInvalidShutdownTimeout = errors.New("shutdown timeout must be positive")
)

// Config holds the runtime settings of chatbook.
// Environment variables win over values read from env files.
type Config struct {
	ServiceName        string
	Environment        string
	LogLevel           string
	AMQPURL            string
	AMQPExchange       string
	OTLPEndpoint       string
	OpsAddr            string
	DebugRoutes        bool
	ShutdownTimeoutSec int

	// EnvFiles lists the env files that were found and read.
	EnvFiles []string
}

// Load reads the given env files (".env" when none are given), then the
// process environment, and validates the result. Missing files are skipped.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}

	src := source{file: map[string]string{}}
	var loaded []string
	for _, path := range envFiles {
		values, err := godotenv.Read(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read env file %s: %w", path, err)
		}
		for k, v := range values {
			src.file[k] = v
		}
		loaded = append(loaded, path)
	}

	cfg := &Config{
		ServiceName:        src.getEnv("SERVICE_NAME", "chatbook"),
		Environment:        src.getEnv("APP_ENV", "development"),
		LogLevel:           src.getEnv("LOG_LEVEL", "info"),
		AMQPURL:            src.getEnv("AMQP_URL", ""),
		AMQPExchange:       src.getEnv("AMQP_EXCHANGE", "chat.events"),
		OTLPEndpoint:       src.getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OpsAddr:            src.getEnv("OPS_ADDR", ":9090"),
		DebugRoutes:        src.getEnvAsBool("DEBUG_ROUTES", false),
		ShutdownTimeoutSec: src.getEnvAsInt("SHUTDOWN_TIMEOUT_SEC", 5),
		EnvFiles:           loaded,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}
	if c.ShutdownTimeoutSec <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidShutdownTimeout, c.ShutdownTimeoutSec)
	}
	return nil
}

type source struct {
	file map[string]string
}

func (s source) getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	if value, exists := s.file[key]; exists {
		return value
	}
	return fallback
}

func (s source) getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(s.getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func (s source) getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(s.getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}
