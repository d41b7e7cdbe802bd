package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kartoza/precast-yard/internal/runs"
)

func newRunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [ID]",
		Short: "Show training history",
		Long:  `List recorded training runs, newest first, or show one run by ID.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return fmt.Errorf("limit must be positive, got %d", limit)
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := runs.NewStore(cfg.DataDir)
			if err != nil {
				return err
			}
			defer store.Close()

			var list []*runs.Run
			if len(args) == 1 {
				run, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				list = []*runs.Run{run}
			} else {
				list, err = store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
			}

			if jsonOutput(cmd) {
				if len(args) == 1 {
					return printJSON(cmd.OutOrStdout(), list[0])
				}
				return printJSON(cmd.OutOrStdout(), list)
			}
			printRuns(cmd.OutOrStdout(), list)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list")

	return cmd
}

func printRuns(w io.Writer, list []*runs.Run) {
	if len(list) == 0 {
		fmt.Fprintln(w, noteStyle.Render("No training runs recorded yet. Run 'precast-yard train' first."))
		return
	}
	rows := make([][]string, 0, len(list))
	for _, r := range list {
		rows = append(rows, []string{
			r.ID,
			r.TrainedAt,
			fmt.Sprintf("%d", r.Samples),
			fmt.Sprintf("%d", r.Seed),
			fmt.Sprintf("%g", r.Alpha),
			fmt.Sprintf("%.2f", r.DurationSec),
			formatR2(r.DaysR2),
			formatR2(r.CostR2),
		})
	}
	printTable(w, "Training runs",
		[]string{"ID", "Trained at", "Samples", "Seed", "Alpha", "Seconds", "Days R²", "Cost R²"}, rows)
}

func formatR2(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.4f", *v)
}
