package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mandalnilabja/chatrelay/internal/storage"
)

var logsFlags struct {
	profileID string
	model     string
	limit     int
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show recent chat request logs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store storage.Storage) error {
			logs, err := store.GetRequestLogs(storage.LogFilter{
				ProfileID: logsFlags.profileID,
				Model:     logsFlags.model,
				Limit:     logsFlags.limit,
			})
			if err != nil {
				return fmt.Errorf("read request logs: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(logs) == 0 {
				fmt.Fprintln(out, "No requests logged.")
				return nil
			}
			fmt.Fprintf(out, "%-20s %-6s %-30s %-8s %-8s %-8s %s\n", "TIME", "STATUS", "MODEL", "PROMPT", "COMPL", "MS", "ERROR")
			for _, l := range logs {
				fmt.Fprintf(out, "%-20s %-6d %-30s %-8d %-8d %-8d %s\n",
					l.CreatedAt.Local().Format("2006-01-02 15:04:05"), l.StatusCode, l.Model,
					l.PromptTokens, l.CompletionTokens, l.DurationMs, l.ErrorMessage)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().StringVar(&logsFlags.profileID, "profile", "", "only requests for this profile")
	logsCmd.Flags().StringVar(&logsFlags.model, "model", "", "only requests for this model")
	logsCmd.Flags().IntVar(&logsFlags.limit, "limit", 20, "maximum rows")
}
