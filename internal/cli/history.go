package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/schedrecovery/internal/core/domain"
)

var (
	historyLimit  int
	historyOffset int
	bulkSince     string
	bulkUntil     string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and reverse recorded calendar operations",
}

var historyListCmd = &cobra.Command{
	Use:   "list [user_id]",
	Short: "List a user's operations, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		ops, err := app.History.History(cmd.Context(), args[0], historyLimit, historyOffset)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tKIND\tSTATUS\tTIME\tDESCRIPTION")
		for _, op := range ops {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				op.ID, op.Kind, op.Status, op.Timestamp.Format(time.RFC3339), op.Description)
		}
		return w.Flush()
	},
}

var historyUndoCmd = &cobra.Command{
	Use:   "undo [user_id] [operation_id]",
	Short: "Undo one operation",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return printUndo(cmd, app.History.Undo(cmd.Context(), args[0], args[1]))
	},
}

var historyRedoCmd = &cobra.Command{
	Use:   "redo [user_id] [operation_id]",
	Short: "Redo an undone operation",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer app.Close()
		return printUndo(cmd, app.History.Redo(cmd.Context(), args[0], args[1]))
	},
}

var historyBulkUndoCmd = &cobra.Command{
	Use:   "bulk-undo [user_id]",
	Short: "Undo every reversible operation in a time range, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		start, err := parseInstant(bulkSince, now)
		if err != nil {
			return fmt.Errorf("--since: %w", err)
		}
		end, err := parseInstant(bulkUntil, now)
		if err != nil {
			return fmt.Errorf("--until: %w", err)
		}

		app, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		res := app.History.BulkUndo(cmd.Context(), args[0], domain.TimeRange{Start: start, End: end})
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, res.Message)
		for _, id := range res.UndoneOperations {
			_, _ = fmt.Fprintf(out, "  undone  %s\n", id)
		}
		for _, id := range res.FailedOperations {
			_, _ = fmt.Fprintf(out, "  failed  %s\n", id)
		}
		if !res.Success {
			return fmt.Errorf("%d operations failed", len(res.FailedOperations))
		}
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear [user_id]",
	Short: "Delete a user's operation history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.History.ClearUserHistory(cmd.Context(), args[0]); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Cleared history of %s\n", args[0])
		return nil
	},
}

func init() {
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "page size")
	historyListCmd.Flags().IntVar(&historyOffset, "offset", 0, "entries to skip")
	historyBulkUndoCmd.Flags().StringVar(&bulkSince, "since", "1h", "range start: RFC3339 time or a duration before now")
	historyBulkUndoCmd.Flags().StringVar(&bulkUntil, "until", "0s", "range end: RFC3339 time or a duration before now")

	historyCmd.AddCommand(historyListCmd, historyUndoCmd, historyRedoCmd, historyBulkUndoCmd, historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

func printUndo(cmd *cobra.Command, res domain.UndoResult) error {
	out := cmd.OutOrStdout()
	if !res.Success {
		_, _ = fmt.Fprintf(out, "Failed: %s\n", res.Message)
		if res.Error != nil {
			return res.Error
		}
		return fmt.Errorf("%s", res.Message)
	}
	_, _ = fmt.Fprintln(out, res.Message)
	if res.RecordedID != "" {
		_, _ = fmt.Fprintf(out, "Recorded as %s\n", res.RecordedID)
	}
	return nil
}

// parseInstant accepts an RFC3339 timestamp or a duration counted back from now.
func parseInstant(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("want RFC3339 time or duration, got %q", s)
	}
	return now.Add(-d), nil
}
