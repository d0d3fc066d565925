package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/vietddude/nodewatch/internal/monitoring/health"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run every monitor once and print the node outcomes",
	Run:   runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) {
	app := newWatcher()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	outcomes := app.RunOnce(ctx)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NODE\tMETRIC\tSTATUS\tHEIGHT\tREFERENCE\tVERSION\tREASON")
	failed := 0
	for _, o := range outcomes {
		if !o.OK() {
			failed++
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			o.Node, o.Metric, o.Status,
			height(o.NodeHeight), height(o.ReferenceHeight),
			o.NodeVersion, o.Reason)
	}
	_ = w.Flush()

	if failed > 0 {
		os.Exit(2)
	}
}

// height renders a block height, or "-" when it is unknown.
func height(h int64) string {
	if h == 0 || h == health.NoReference {
		return "-"
	}
	return humanize.Comma(h)
}
