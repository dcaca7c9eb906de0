package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Inspect conversation rollback points",
}

var rollbackListCmd = &cobra.Command{
	Use:   "list [session]",
	Short: "List a session's rollback points, oldest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tSTEP\tCREATED\tDESCRIPTION")
		for _, p := range app.Recovery.GetRollbackPoints(cmd.Context(), args[0]) {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				p.ID, p.OperationStep, p.CreatedAt.Format(time.RFC3339), p.Description)
		}
		return w.Flush()
	},
}

var rollbackClearCmd = &cobra.Command{
	Use:   "clear [session]",
	Short: "Drop a session's rollback points",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.Recovery.ClearRollbackPoints(cmd.Context(), args[0]); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Cleared rollback points of %s\n", args[0])
		return nil
	},
}

func init() {
	rollbackCmd.AddCommand(rollbackListCmd, rollbackClearCmd)
	rootCmd.AddCommand(rollbackCmd)
}
