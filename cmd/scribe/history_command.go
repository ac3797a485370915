package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"scribe/internal/catalog"
)

func newHistoryCommand(cctx *commandContext) *cobra.Command {
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past transcription outcomes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return fmt.Errorf("history catalog is disabled; set [history] enabled = true in the config")
			}

			store, err := catalog.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history catalog: %w", err)
			}
			defer store.Close()

			var entries []catalog.Entry
			if runID != "" {
				entries, err = store.ByRun(cmd.Context(), runID)
			} else {
				entries, err = store.Recent(cmd.Context(), limit)
			}
			if err != nil {
				return fmt.Errorf("read history: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No history recorded yet.")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					humanize.Time(entry.CreatedAt),
					entry.RunID,
					entry.Stem,
					entry.Status,
					entry.Detail,
				})
			}
			fmt.Fprintln(out, renderTable([]string{"When", "Run", "Item", "Status", "Detail"}, rows))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 25, "Maximum number of entries to show")
	cmd.Flags().StringVar(&runID, "run", "", "Show all entries for one run ID")
	return cmd
}
