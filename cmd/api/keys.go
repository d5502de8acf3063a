package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mandalnilabja/chatrelay/internal/storage"
)

var keyFlags struct {
	id        string
	profileID string
	name      string
	rateLimit int
}

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage client API keys",
	Long: `Client API keys (cr_...) identify callers of the chat endpoint. Each key
belongs to one profile; requests made with it use that profile's OpenRouter key.`,
}

var keyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Issue a client API key for a profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if keyFlags.profileID == "" {
			return errors.New("--profile is required")
		}
		name := strings.TrimSpace(keyFlags.name)
		if name == "" {
			name = "default"
		}
		return withStore(func(store storage.Storage) error {
			plain, key, err := storage.IssueAPIKey(store, keyFlags.profileID, name, keyFlags.rateLimit)
			if err != nil {
				return fmt.Errorf("create key: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created key %s (%s) for profile %s\n", key.ID, key.Name, key.ProfileID)
			fmt.Fprintln(out, "Store this key now; it cannot be shown again:")
			fmt.Fprintln(out, plain)
			return nil
		})
	},
}

var keyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a profile's client API keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if keyFlags.profileID == "" {
			return errors.New("--profile is required")
		}
		return withStore(func(store storage.Storage) error {
			keys, err := store.ListAPIKeys(keyFlags.profileID)
			if err != nil {
				return fmt.Errorf("list keys: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(keys) == 0 {
				fmt.Fprintln(out, "No keys.")
				return nil
			}
			fmt.Fprintf(out, "%-40s %-20s %-14s %-8s %s\n", "ID", "NAME", "PREFIX", "ACTIVE", "RATE/MIN")
			for _, k := range keys {
				fmt.Fprintf(out, "%-40s %-20s %-14s %-8t %d\n", k.ID, k.Name, k.KeyPrefix, k.Usable(), k.RateLimit)
			}
			return nil
		})
	},
}

var keyRevokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Revoke a client API key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if keyFlags.id == "" {
			return errors.New("--id is required")
		}
		return withStore(func(store storage.Storage) error {
			if err := store.RevokeAPIKey(keyFlags.id); err != nil {
				return fmt.Errorf("revoke key %s: %w", keyFlags.id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Revoked key %s\n", keyFlags.id)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(keyCmd)
	keyCmd.AddCommand(keyCreateCmd, keyListCmd, keyRevokeCmd)

	keyCreateCmd.Flags().StringVar(&keyFlags.profileID, "profile", "", "profile ID the key acts for")
	keyCreateCmd.Flags().StringVar(&keyFlags.name, "name", "", "key name")
	keyCreateCmd.Flags().IntVar(&keyFlags.rateLimit, "rate-limit", 0, "requests per minute (0 = unlimited)")

	keyListCmd.Flags().StringVar(&keyFlags.profileID, "profile", "", "profile ID")

	keyRevokeCmd.Flags().StringVar(&keyFlags.id, "id", "", "key ID")
}
