package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"curaextract/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and manage the extraction run history",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryClearCommand(ctx))

	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var machine string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				runs, err := store.List(cmd.Context(), machine, limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				view := newTableView(right("ID"), left("Machine"), left("Manufacturer"), right("Chain"),
					right("Settings"), left("Status"), left("Started"), right("Duration"))
				for _, row := range buildHistoryRows(runs) {
					view.add(row...)
				}
				view.render(out)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&machine, "machine", "m", "", "Only show runs for this machine")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				run, err := store.GetByRunID(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("run %s not found", args[0])
				}
				return writeJSON(cmd, run)
			})
		},
	}
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every recorded run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d runs\n", removed)
				return nil
			})
		},
	}
}

func buildHistoryRows(runs []history.Run) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		status := string(run.Status)
		if run.ErrorMessage != "" {
			status += ": " + run.ErrorMessage
		}
		rows = append(rows, []string{
			strconv.FormatInt(run.ID, 10),
			run.Machine,
			run.Manufacturer,
			strconv.Itoa(run.ChainLength),
			strconv.Itoa(run.SettingsCount),
			status,
			run.StartedAt.Local().Format(time.DateTime),
			run.Duration().Round(time.Millisecond).String(),
		})
	}
	return rows
}
