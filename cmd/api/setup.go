package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mandalnilabja/chatrelay/internal/config"
	"github.com/mandalnilabja/chatrelay/internal/storage"
)

var profileFlags struct {
	id            string
	name          string
	openRouterKey string
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage profiles and their OpenRouter keys",
	Long: `Profiles hold the OpenRouter API key used for a caller's chat requests.
Keys are encrypted at rest. A running server picks up a changed key within
five minutes.`,
}

var profileCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.TrimSpace(profileFlags.name)
		if name == "" {
			return errors.New("--name is required")
		}
		return withStore(func(store storage.Storage) error {
			p := &storage.Profile{Name: name, OpenRouterAPIKey: strings.TrimSpace(profileFlags.openRouterKey)}
			if err := store.CreateProfile(p); err != nil {
				return fmt.Errorf("create profile: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created profile %s (%s)\n", p.ID, p.Name)
			if !p.HasOpenRouterKey() {
				fmt.Fprintln(cmd.OutOrStdout(), "No OpenRouter key set; use `chatrelay profile set-key` before chatting.")
			}
			return nil
		})
	},
}

var profileSetKeyCmd = &cobra.Command{
	Use:   "set-key",
	Short: "Set or clear a profile's OpenRouter key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if profileFlags.id == "" {
			return errors.New("--id is required")
		}
		return withStore(func(store storage.Storage) error {
			key := strings.TrimSpace(profileFlags.openRouterKey)
			if err := store.SetOpenRouterKey(profileFlags.id, key); err != nil {
				return fmt.Errorf("set key for profile %s: %w", profileFlags.id, err)
			}
			if key == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared OpenRouter key for profile %s\n", profileFlags.id)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Updated OpenRouter key for profile %s (%s)\n", profileFlags.id, storage.MaskAPIKey(key))
			}
			return nil
		})
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store storage.Storage) error {
			profiles, err := store.ListProfiles()
			if err != nil {
				return fmt.Errorf("list profiles: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(profiles) == 0 {
				fmt.Fprintln(out, "No profiles.")
				return nil
			}
			fmt.Fprintf(out, "%-40s %-20s %s\n", "ID", "NAME", "OPENROUTER KEY")
			for _, p := range profiles {
				preview := p.ToPreview()
				key := preview.OpenRouterKeyPreview
				if key == "" {
					key = "(not set)"
				}
				fmt.Fprintf(out, "%-40s %-20s %s\n", preview.ID, preview.Name, key)
			}
			return nil
		})
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a profile and its client keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if profileFlags.id == "" {
			return errors.New("--id is required")
		}
		return withStore(func(store storage.Storage) error {
			if err := store.DeleteProfile(profileFlags.id); err != nil {
				return fmt.Errorf("delete profile %s: %w", profileFlags.id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted profile %s\n", profileFlags.id)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileCreateCmd, profileSetKeyCmd, profileListCmd, profileDeleteCmd)

	profileCreateCmd.Flags().StringVar(&profileFlags.name, "name", "", "profile name")
	profileCreateCmd.Flags().StringVar(&profileFlags.openRouterKey, "openrouter-key", "", "OpenRouter API key (optional)")

	profileSetKeyCmd.Flags().StringVar(&profileFlags.id, "id", "", "profile ID")
	profileSetKeyCmd.Flags().StringVar(&profileFlags.openRouterKey, "openrouter-key", "", "OpenRouter API key (empty clears it)")

	profileDeleteCmd.Flags().StringVar(&profileFlags.id, "id", "", "profile ID")
}

// openStore opens the SQLite database in the configured data directory.
func openStore() (storage.Storage, error) {
	if err := config.EnsureDataDir(cfg.DataDir); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	store, err := storage.NewSQLiteStorage(cfg.DBPath(), cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return store, nil
}

// withStore runs fn against an open store and closes it afterwards.
func withStore(fn func(storage.Storage) error) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}
