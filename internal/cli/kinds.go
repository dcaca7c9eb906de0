package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/schedrecovery/internal/core/domain"
	"github.com/vietddude/schedrecovery/internal/recovery/taxonomy"
)

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "Print the error taxonomy with severities and retry policies",
	RunE:  runKinds,
}

func init() {
	rootCmd.AddCommand(kindsCmd)
}

func runKinds(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	table, err := cfg.Recovery.RetryTable()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "KIND\tCATEGORY\tSEVERITY\tRETRIES\tBASE\tMAX\tMULT\tJITTER\tTITLE")
	for _, k := range domain.AllErrorKinds() {
		p := table.Policy(k)
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%g\t%t\t%s\n",
			k, k.Category(), taxonomy.SeverityOf(k),
			p.MaxAttempts, p.BaseDelay, p.MaxDelay, p.Multiplier, p.Jitter,
			taxonomy.TemplateFor(k).Title)
	}
	return w.Flush()
}
