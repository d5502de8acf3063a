package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file structure.
type FileConfig struct {
	ServerPort string               `toml:"server_port"`
	LogLevel   string               `toml:"log_level"`
	LogFormat  string               `toml:"log_format"`
	OpenRouter OpenRouterFileConfig `toml:"openrouter"`
}

// OpenRouterFileConfig is the [openrouter] table.
type OpenRouterFileConfig struct {
	BaseURL string `toml:"base_url"`
	Referer string `toml:"referer"`
	Title   string `toml:"title"`
	Timeout string `toml:"timeout"` // Go duration, e.g. "90s"
}

// ConfigPath returns the path to the config file inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config.toml")
}

// LoadFile loads configuration from the TOML file.
// Returns an empty FileConfig if the file doesn't exist.
func LoadFile(dataDir string) (*FileConfig, error) {
	cfg := &FileConfig{}

	path := ConfigPath(dataDir)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// EnsureConfigFile creates a default config file with commented examples if none exists.
func EnsureConfigFile(dataDir string) error {
	path := ConfigPath(dataDir)

	// If config already exists, do nothing
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := EnsureDataDir(dataDir); err != nil {
		return err
	}

	defaultConfig := `# chatrelay configuration
# Environment variables take precedence over this file.
# server_port = ":8080"
# log_level = "info"     # debug, info, warn, error
# log_format = "text"    # text or json

# [openrouter]
# base_url = "https://openrouter.ai/api/v1/chat/completions"
# referer = "https://example.com"   # sent as HTTP-Referer
# title = "My Chat App"             # sent as X-Title
# timeout = "5m"
`

	return os.WriteFile(path, []byte(defaultConfig), 0644)
}
