// Command chatrelay relays chat requests to OpenRouter and streams the reply as plain text.
//
// Usage:
//
//	# Start the server
//	chatrelay serve
//
//	# Create a profile with its OpenRouter key, then a client key for it
//	chatrelay profile create --name alice --openrouter-key sk-or-v1-...
//	chatrelay key create --profile <profile-id> --name laptop
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mandalnilabja/chatrelay/internal/config"
	"github.com/mandalnilabja/chatrelay/internal/version"
)

var (
	envFile string

	// cfg is loaded once before any subcommand runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "chatrelay",
	Short: "chatrelay - OpenRouter chat relay",
	Long: `chatrelay forwards chat requests to OpenRouter using the caller's stored
OpenRouter key and relays the streamed reply as plain text.

Configuration is read from the environment, then config.toml in the data
directory, then defaults. An optional .env file is loaded first.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadDotEnv(envFile); err != nil {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		cfg = config.Load()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading configuration")
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
