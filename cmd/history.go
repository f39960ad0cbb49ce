package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/deskpilot/internal/commands"
	"github.com/xkilldash9x/deskpilot/internal/observability"
)

// newHistoryCmd creates the `history` command for inspecting and clearing the
// attempted-instruction record.
func newHistoryCmd() *cobra.Command {
	var (
		limit int
		clear bool
	)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Shows recently attempted instructions",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()
			defer observability.Sync()

			source, err := commands.NewSource(cfg.Commands, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize command source: %w", err)
			}

			if clear {
				if err := source.ClearAttempted(); err != nil {
					return fmt.Errorf("failed to clear history: %w", err)
				}
				fmt.Println("Attempted instruction history cleared.")
				return nil
			}

			entries, err := source.History(limit)
			if err != nil {
				return fmt.Errorf("failed to read history: %w", err)
			}
			if len(entries) == 0 {
				fmt.Println("No attempted instructions recorded.")
				return nil
			}
			for _, e := range entries {
				if e.Time.IsZero() {
					fmt.Printf("  (unknown time)  %s\n", e.Instruction)
					continue
				}
				fmt.Printf("  %s  %s\n", e.Time.Format("2006-01-02 15:04:05"), e.Instruction)
			}
			return nil
		},
	}

	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries to show.")
	historyCmd.Flags().BoolVar(&clear, "clear", false, "Archive the attempted file and start fresh.")
	return historyCmd
}
