package config

import (
	"os"
	"time"
)

// Config holds application configuration loaded from environment and file.
// Priority: Env vars → config.toml → defaults
type Config struct {
	// ServerPort is the address to bind the server to (e.g., ":8080")
	ServerPort string

	// DataDir holds the SQLite database and config.toml
	DataDir string

	// LogLevel is one of debug, info, warn, error
	LogLevel string

	// LogFormat is "text" or "json"
	LogFormat string

	// EncryptionKey seeds the AES key for stored OpenRouter keys (empty = machine-derived)
	EncryptionKey string

	// OpenRouter upstream settings
	OpenRouter OpenRouterConfig
}

// OpenRouterConfig configures the upstream chat completions call.
type OpenRouterConfig struct {
	// BaseURL is the chat completions endpoint
	BaseURL string

	// Referer is sent as HTTP-Referer when non-empty
	Referer string

	// Title is sent as X-Title when non-empty
	Title string

	// Timeout bounds one upstream exchange, headers and stream included
	Timeout time.Duration
}

// Defaults
const (
	DefaultServerPort        = ":8080"
	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1/chat/completions"
	DefaultOpenRouterTimeout = 5 * time.Minute
)

// Load reads configuration from file and environment variables.
// Environment variables override file config values.
func Load() *Config {
	dataDir := getEnvOrFile("DATA_DIR", "", DefaultDataDir())

	fileConfig, _ := LoadFile(dataDir) // Ignore error, use defaults
	if fileConfig == nil {
		fileConfig = &FileConfig{}
	}

	return &Config{
		ServerPort:    getEnvOrFile("SERVER_PORT", fileConfig.ServerPort, DefaultServerPort),
		DataDir:       dataDir,
		LogLevel:      getEnvOrFile("LOG_LEVEL", fileConfig.LogLevel, "info"),
		LogFormat:     getEnvOrFile("LOG_FORMAT", fileConfig.LogFormat, "text"),
		EncryptionKey: os.Getenv("CHATRELAY_ENCRYPTION_KEY"),
		OpenRouter: OpenRouterConfig{
			BaseURL: getEnvOrFile("OPENROUTER_BASE_URL", fileConfig.OpenRouter.BaseURL, DefaultOpenRouterBaseURL),
			Referer: getEnvOrFile("OPENROUTER_REFERER", fileConfig.OpenRouter.Referer, ""),
			Title:   getEnvOrFile("OPENROUTER_TITLE", fileConfig.OpenRouter.Title, ""),
			Timeout: getEnvDurationOrFile("OPENROUTER_TIMEOUT", fileConfig.OpenRouter.Timeout, DefaultOpenRouterTimeout),
		},
	}
}

// getEnvOrFile returns env value, file value, or default (in priority order)
func getEnvOrFile(key, fileValue, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if fileValue != "" {
		return fileValue
	}
	return defaultValue
}

// getEnvDurationOrFile parses a Go duration from env or file; unparsable values fall back.
func getEnvDurationOrFile(key, fileValue string, defaultValue time.Duration) time.Duration {
	for _, raw := range []string{os.Getenv(key), fileValue} {
		if raw == "" {
			continue
		}
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
